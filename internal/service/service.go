// Package service implements the bootstrap operations the CLI exposes:
// preview, review, commit, and job management. It owns the session state
// machine; the pipeline stages themselves live in internal/bootstrap.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chronicle-go/internal/bootstrap"
	"github.com/raphaelgruber/chronicle-go/internal/config"
	"github.com/raphaelgruber/chronicle-go/internal/metrics"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// Service-level sentinel errors.
var (
	ErrEmptySource      = errors.New("source text is empty")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrSessionNotReady  = errors.New("session is not ready for this operation")
	ErrCommitInProgress = errors.New("another commit is already in progress")
)

// Store is the persistence surface the service needs. *db.Client satisfies
// it; tests substitute an in-memory fake.
type Store interface {
	bootstrap.Registry

	CreateJob(ctx context.Context, id, jobType string, payload map[string]any) (*models.IngestJob, error)
	GetJob(ctx context.Context, id string) (*models.IngestJob, error)
	ListJobs(ctx context.Context, limit int) ([]models.IngestJob, error)
	UpdateJobStatus(ctx context.Context, id, status string) error
	CompleteJob(ctx context.Context, id string, result map[string]any) error
	FailJob(ctx context.Context, id, errMsg string) error
	RequestJobCancel(ctx context.Context, id string) error
	JobCancelRequested(ctx context.Context, id string) (bool, error)
	MarkJobCancelled(ctx context.Context, id string) error
	CreateSourceArtifact(ctx context.Context, id, jobID, content string, tokenEstimate int) (*models.SourceArtifact, error)
	GetSourceArtifactByJob(ctx context.Context, jobID string) (*models.SourceArtifact, error)

	CreateSession(ctx context.Context, id, jobID string, hints *models.TimelineHints, expiresAt time.Time) (*models.BootstrapSession, error)
	GetSession(ctx context.Context, id string) (*models.BootstrapSession, error)
	TransitionSessionStatus(ctx context.Context, id string, from []string, to string) (string, bool, error)
	ReplaceSessionSnapshot(ctx context.Context, id string, candidates []models.Candidate, preview *models.SessionPreview, telemetry *models.SessionTelemetry, status string) error
	SetSessionOverlay(ctx context.Context, id string, overlay *models.ValidationOverlay) error
	SetSessionStatus(ctx context.Context, id, status string, errMsg *string) error

	ApplyCommitPlan(ctx context.Context, plan *models.CommitPlan, audit models.CommitAuditInput, auditID string) error
	GetLatestAuditBySession(ctx context.Context, sessionID string) (*models.CommitAudit, error)
	ListAuditsBySession(ctx context.Context, sessionID string) ([]models.CommitAudit, error)
}

// Service wires the pipeline, store, and configuration together.
type Service struct {
	store     Store
	completer bootstrap.Completer
	metrics   *metrics.Collector
	logger    *slog.Logger
	cfg       config.Config

	now   func() time.Time
	newID func() string
}

// New constructs a Service. completer may be nil, which runs every preview
// heuristic-only.
func New(store Store, completer bootstrap.Completer, collector *metrics.Collector, logger *slog.Logger, cfg config.Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		completer: completer,
		metrics:   collector,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Metrics exposes the collector for the stats command.
func (s *Service) Metrics() *metrics.Collector {
	return s.metrics
}

func (s *Service) pipeline() *bootstrap.Services {
	return &bootstrap.Services{
		Completer: s.completer,
		Registry:  s.store,
		Metrics:   s.metrics,
		Logger:    s.logger,
		Config:    s.cfg,
	}
}

// terminalSessionStatuses never transition again, not even to expired.
var terminalSessionStatuses = map[string]bool{
	models.SessionCommitted: true,
	models.SessionFailed:    true,
	models.SessionCancelled: true,
	models.SessionExpired:   true,
}

// GetSession loads a session, lazily expiring it when its TTL has passed.
func (s *Service) GetSession(ctx context.Context, id string) (*models.BootstrapSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !terminalSessionStatuses[session.Status] && s.now().After(session.ExpiresAt) {
		if err := s.store.SetSessionStatus(ctx, id, models.SessionExpired, nil); err != nil {
			return nil, err
		}
		session.Status = models.SessionExpired
	}
	return session, nil
}

// loadReviewable loads a session that must be open for review operations.
func (s *Service) loadReviewable(ctx context.Context, id string) (*models.BootstrapSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionExpired {
		return nil, ErrSessionExpired
	}
	ready := false
	for _, status := range models.ReadyStatuses {
		if session.Status == status {
			ready = true
		}
	}
	if !ready {
		return nil, ErrSessionNotReady
	}
	return session, nil
}

// timelineDraft assembles the timeline under commit from the stored preview
// plus any overlay patch.
func timelineDraft(session *models.BootstrapSession) bootstrap.TimelineDraft {
	draft := bootstrap.TimelineDraft{}
	if session.Preview != nil {
		draft.Name = session.Preview.TimelineName
		if session.Preview.TimelineDescription != "" {
			desc := session.Preview.TimelineDescription
			draft.Description = &desc
		}
		draft.StartYear = session.Preview.StartYear
		draft.EndYear = session.Preview.EndYear
	}
	if session.Overlay != nil {
		draft = bootstrap.ApplyTimelinePatch(draft, session.Overlay.Timeline)
	}
	return draft
}
