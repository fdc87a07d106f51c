package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"
	"github.com/OFFIS-RIT/lexgraph/pkg/tokenize"
)

// ErrInvalidMessage marks deliveries that can never succeed. They are not
// retried.
var ErrInvalidMessage = errors.New("invalid message")

type AnalyzeMsg struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type AnalysisCompletedMsg struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	References int    `json:"references"`
}

// Analyzer runs the pipeline for a given analysis id.
type Analyzer interface {
	AnalyzeWithID(ctx context.Context, id, text string) (common.Analysis, error)
}

// ProcessAnalyzeMessage analyzes the sentence in body, stores the result and
// announces it on TopicAnalysisCompleted. Malformed messages and sentences
// that fail validation are reported as failed and wrapped in
// ErrInvalidMessage.
func ProcessAnalyzeMessage(
	ctx context.Context,
	analyzer Analyzer,
	storage store.GraphStorage,
	pub Publisher,
	body []byte,
) error {
	var msg AnalyzeMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	logger.Debug("[Queue] Analyzing sentence", "id", msg.ID)

	a, err := analyzer.AnalyzeWithID(ctx, msg.ID, msg.Text)
	if err != nil {
		if isValidation(err) {
			publishCompleted(pub, AnalysisCompletedMsg{ID: msg.ID, Status: "failed", Error: err.Error()})
			return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		return fmt.Errorf("analyze %s: %w", msg.ID, err)
	}
	if err := storage.SaveAnalysis(ctx, a); err != nil {
		return fmt.Errorf("store %s: %w", msg.ID, err)
	}

	publishCompleted(pub, AnalysisCompletedMsg{
		ID:         a.ID,
		Status:     "completed",
		Nodes:      len(a.Graph.Nodes),
		Edges:      len(a.Graph.Edges),
		References: len(a.References),
	})
	logger.Info("[Queue] Analysis stored", "id", a.ID, "nodes", len(a.Graph.Nodes), "edges", len(a.Graph.Edges))
	return nil
}

func isValidation(err error) bool {
	return errors.Is(err, tokenize.ErrEmptyInput) ||
		errors.Is(err, tokenize.ErrInvalidText) ||
		errors.Is(err, graph.ErrEmptyChain)
}

func publishCompleted(pub Publisher, msg AnalysisCompletedMsg) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[Queue] Failed to marshal completion", "id", msg.ID, "err", err)
		return
	}
	if err := PublishTopic(pub, TopicAnalysisCompleted, data); err != nil {
		logger.Error("[Queue] Failed to publish completion", "id", msg.ID, "err", err)
	}
}
