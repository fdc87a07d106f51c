package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	"github.com/rabbitmq/amqp091-go"
)

type published struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakePublisher struct {
	out []published
	err error
}

func (f *fakePublisher) Publish(exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.out = append(f.out, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}
func (a *fakeAck) Reject(uint64, bool) error { return nil }

func newAnalyzer(t *testing.T) *graph.GraphClient {
	t.Helper()
	c, err := graph.NewGraphClient(graph.NewGraphClientParams{
		Compounds: lexicon.StaticCompounds{},
		Senses:    lexicon.StaticSenses{},
	})
	if err != nil {
		t.Fatalf("NewGraphClient: %v", err)
	}
	return c
}

func TestQueueDeclarations(t *testing.T) {
	decls := queueDeclarations(AnalyzeQueue)
	if len(decls) != 3 || decls[1].name != "analyze_queue_dlq" || decls[2].name != "analyze_queue_retry" {
		t.Fatalf("decls = %+v", decls)
	}
	if decls[2].args["x-dead-letter-routing-key"] != AnalyzeQueue {
		t.Fatalf("retry queue does not dead-letter back: %v", decls[2].args)
	}
}

func TestProcessAnalyzeMessage(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStorage()
	pub := &fakePublisher{}
	body, _ := json.Marshal(AnalyzeMsg{ID: "job1", Text: "Le chat dort, il rêve."})

	if err := ProcessAnalyzeMessage(ctx, newAnalyzer(t), st, pub, body); err != nil {
		t.Fatalf("ProcessAnalyzeMessage: %v", err)
	}
	a, err := st.GetAnalysis(ctx, "job1")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	resolved := false
	for _, r := range a.References {
		if r.Pronoun == "il" && r.Antecedent == "chat" {
			resolved = true
		}
	}
	if !resolved {
		t.Fatalf("references = %v", a.References)
	}

	if len(pub.out) != 1 || pub.out[0].exchange != Exchange || pub.out[0].key != TopicAnalysisCompleted {
		t.Fatalf("published = %+v", pub.out)
	}
	var done AnalysisCompletedMsg
	if err := json.Unmarshal(pub.out[0].msg.Body, &done); err != nil {
		t.Fatalf("completion body: %v", err)
	}
	if done.ID != "job1" || done.Status != "completed" || done.References != len(a.References) {
		t.Fatalf("completion = %+v", done)
	}
}

func TestProcessAnalyzeMessageInvalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		completed bool
	}{
		{name: "not json", body: "{"},
		{name: "no id", body: `{"text":"le chat"}`},
		{name: "empty sentence", body: `{"id":"x","text":"  "}`, completed: true},
		{name: "punctuation only", body: `{"id":"x","text":"?!"}`, completed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			err := ProcessAnalyzeMessage(context.Background(), newAnalyzer(t), store.NewMemoryStorage(), pub, []byte(tt.body))
			if !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("err = %v, want ErrInvalidMessage", err)
			}
			if (len(pub.out) == 1) != tt.completed {
				t.Fatalf("published = %+v", pub.out)
			}
		})
	}
}

type failingStorage struct{}

func (failingStorage) SaveAnalysis(context.Context, common.Analysis) error {
	return errors.New("db down")
}

func (failingStorage) GetAnalysis(context.Context, string) (common.Analysis, error) {
	return common.Analysis{}, store.ErrNotFound
}

func TestProcessAnalyzeMessageStorageError(t *testing.T) {
	body, _ := json.Marshal(AnalyzeMsg{ID: "job1", Text: "le chat"})
	err := ProcessAnalyzeMessage(context.Background(), newAnalyzer(t), failingStorage{}, &fakePublisher{}, body)
	if err == nil || errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("err = %v, want retryable error", err)
	}
}

func TestHandleProcessingError(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp091.Table
		retry   bool
		target  string
		outcome string
		retries int32
	}{
		{name: "first failure", retry: true, target: "analyze_queue_retry", outcome: OutcomeRetry, retries: 1},
		{name: "later failure", headers: amqp091.Table{"x-retries": int32(3)}, retry: true, target: "analyze_queue_retry", outcome: OutcomeRetry, retries: 4},
		{name: "exhausted", headers: amqp091.Table{"x-retries": int32(10)}, retry: true, target: "analyze_queue_dlq", outcome: OutcomeDead},
		{name: "not retryable", retry: false, target: "analyze_queue_dlq", outcome: OutcomeDead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Headers: tt.headers, Body: []byte("{}")}

			if got := HandleProcessingError(pub, d, AnalyzeQueue, tt.retry); got != tt.outcome {
				t.Fatalf("outcome = %s, want %s", got, tt.outcome)
			}
			if len(pub.out) != 1 || pub.out[0].key != tt.target {
				t.Fatalf("published = %+v", pub.out)
			}
			if !ack.acked {
				t.Fatalf("delivery not acked")
			}
			if tt.target == "analyze_queue_retry" && pub.out[0].msg.Headers["x-retries"] != tt.retries {
				t.Fatalf("x-retries = %v, want %d", pub.out[0].msg.Headers["x-retries"], tt.retries)
			}
		})
	}
}

func TestHandleProcessingErrorRequeuesOnPublishFailure(t *testing.T) {
	ack := &fakeAck{}
	d := amqp091.Delivery{Acknowledger: ack}
	HandleProcessingError(&fakePublisher{err: errors.New("closed")}, d, AnalyzeQueue, true)
	if !ack.nacked || !ack.requeued || ack.acked {
		t.Fatalf("ack state = %+v", ack)
	}
}
