package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// ErrNotFound is returned when no analysis is stored under the requested id.
var ErrNotFound = errors.New("analysis not found")

// GraphStorage persists analyzed sentences together with their lexical graph.
// Saving an analysis under an id that already exists replaces it.
type GraphStorage interface {
	SaveAnalysis(ctx context.Context, analysis common.Analysis) error
	GetAnalysis(ctx context.Context, id string) (common.Analysis, error)
}
