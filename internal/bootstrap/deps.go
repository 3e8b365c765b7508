package bootstrap

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/chronicle-go/internal/config"
	"github.com/raphaelgruber/chronicle-go/internal/metrics"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// Completer is the external text-completion capability. Assumed unreliable
// and optional; the pipeline falls back to heuristics without it.
type Completer interface {
	ExtractEntities(ctx context.Context, chunkText string, knownNames []string) (string, error)
	SalvageConnections(ctx context.Context, chunkText string, thinkerNames []string) (string, error)
	EnrichYears(ctx context.Context, thinkerNames []string) (string, error)
}

// Registry is the read side of the canonical store the matcher works
// against.
type Registry interface {
	ListThinkersByName(ctx context.Context, normName string) ([]models.Thinker, error)
	ListThinkers(ctx context.Context, limit int) ([]models.Thinker, error)
	GetThinker(ctx context.Context, id string) (*models.Thinker, error)
	FindConnectionByPair(ctx context.Context, fromID, toID string) (*models.Connection, error)
}

// Services is the explicitly constructed dependency context the orchestrator
// owns. Test doubles slot in per field; there is no process-wide state.
type Services struct {
	Completer Completer // nil means heuristic-only extraction
	Registry  Registry
	Metrics   *metrics.Collector
	Logger    *slog.Logger
	Config    config.Config
}

func (s *Services) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
