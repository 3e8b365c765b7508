package service

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/chronicle-go/internal/bootstrap"
	"github.com/raphaelgruber/chronicle-go/internal/metrics"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// CommitOptions tunes a commit attempt.
type CommitOptions struct {
	// ForceSkipInvalid drops blocked candidates and their dependents instead
	// of refusing the whole commit.
	ForceSkipInvalid bool
	CommittedBy      string
	Message          string
}

// CommitResult carries the audit row for a commit, whether it was performed
// now or found already done.
type CommitResult struct {
	Audit            *models.CommitAudit
	AlreadyCommitted bool
}

// Commit applies a session's reviewed candidate graph to the canonical
// store as one transaction. Re-running a committed session returns the
// stored audit instead of writing again; concurrent attempts are excluded
// through the session status transition.
func (s *Service) Commit(ctx context.Context, sessionID string, opts CommitOptions) (*CommitResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.SessionExpired:
		return nil, ErrSessionExpired
	case models.SessionCommitted:
		return s.storedCommitResult(ctx, sessionID)
	}

	resulting, won, err := s.store.TransitionSessionStatus(ctx, sessionID, models.ReadyStatuses, models.SessionCommitting)
	if err != nil {
		return nil, err
	}
	if !won {
		switch resulting {
		case models.SessionCommitted:
			return s.storedCommitResult(ctx, sessionID)
		case models.SessionCommitting:
			return nil, ErrCommitInProgress
		default:
			return nil, fmt.Errorf("%w: status is %s", ErrSessionNotReady, resulting)
		}
	}
	priorStatus := session.Status

	audit, err := s.performCommit(ctx, session, opts)
	if err != nil {
		if revertErr := s.store.SetSessionStatus(ctx, sessionID, priorStatus, nil); revertErr != nil {
			s.logger.Error("revert session status", "session_id", sessionID, "error", revertErr)
		}
		return nil, err
	}
	return &CommitResult{Audit: audit}, nil
}

func (s *Service) performCommit(ctx context.Context, session *models.BootstrapSession, opts CommitOptions) (*models.CommitAudit, error) {
	sessionID := models.MustRecordIDString(session.ID)

	patched := bootstrap.ApplyOverlay(session.Candidates, session.Overlay)
	draft := timelineDraft(session)
	diags := bootstrap.Validate(&draft, patched, bootstrap.ValidateOptions{
		EvidenceGateWarn: s.cfg.EvidenceGateWarn,
	})

	plan, stats, err := bootstrap.BuildCommitPlan(ctx, s.store, sessionID, draft, patched, diags, opts.ForceSkipInvalid, s.newID)
	if err != nil {
		return nil, err
	}

	input := models.CommitAuditInput{
		SessionID:     sessionID,
		TimelineID:    plan.TimelineID,
		CreatedCounts: stats.CreatedCounts,
		SkippedCounts: stats.SkippedCounts,
		Warnings:      stats.Warnings,
		IDMappings:    stats.IDMappings,
		CommittedBy:   opts.CommittedBy,
		Message:       opts.Message,
	}
	auditID := s.newID()
	start := time.Now()
	if err := s.store.ApplyCommitPlan(ctx, plan, input, auditID); err != nil {
		return nil, fmt.Errorf("apply commit plan: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpCommit, time.Since(start))
	}

	s.logger.Info("session committed",
		"session_id", sessionID,
		"timeline_id", plan.TimelineID,
		"created", stats.CreatedCounts,
		"skipped", stats.SkippedCounts)

	audit, err := s.store.GetLatestAuditBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return nil, fmt.Errorf("commit audit missing for session %s", sessionID)
	}
	return audit, nil
}

func (s *Service) storedCommitResult(ctx context.Context, sessionID string) (*CommitResult, error) {
	audit, err := s.store.GetLatestAuditBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return nil, fmt.Errorf("session %s is committed but has no audit", sessionID)
	}
	return &CommitResult{Audit: audit, AlreadyCommitted: true}, nil
}

// GetAudit returns the most recent audit row for a session, or nil when the
// session has never committed.
func (s *Service) GetAudit(ctx context.Context, sessionID string) (*models.CommitAudit, error) {
	return s.store.GetLatestAuditBySession(ctx, sessionID)
}

// ListAudits returns every audit row for a session, newest first.
func (s *Service) ListAudits(ctx context.Context, sessionID string) ([]models.CommitAudit, error) {
	return s.store.ListAuditsBySession(ctx, sessionID)
}
