package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/bootstrap"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// PreviewRequest starts a new bootstrap preview over raw source text.
type PreviewRequest struct {
	Content    string
	Hints      *models.TimelineHints
	Background bool
}

// PreviewHandle identifies the job and session a preview runs under. When
// the preview ran inline, Session carries the finished state.
type PreviewHandle struct {
	JobID     string
	SessionID string
	Session   *models.BootstrapSession
}

// StartPreview persists the source artifact, creates the job and session
// pair, and runs the extraction pipeline. With Background set the pipeline
// runs in a goroutine and the caller polls the session status.
func (s *Service) StartPreview(ctx context.Context, req PreviewRequest) (*PreviewHandle, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptySource
	}

	jobID := s.newID()
	if _, err := s.store.CreateJob(ctx, jobID, models.JobTypeBootstrap, map[string]any{
		"content_length": len(req.Content),
	}); err != nil {
		return nil, err
	}
	if _, err := s.store.CreateSourceArtifact(ctx, s.newID(), jobID, req.Content, bootstrap.EstimateTokens(req.Content)); err != nil {
		return nil, err
	}

	sessionID := s.newID()
	expiresAt := s.now().Add(s.cfg.SessionTTL)
	if _, err := s.store.CreateSession(ctx, sessionID, jobID, req.Hints, expiresAt); err != nil {
		return nil, err
	}

	handle := &PreviewHandle{JobID: jobID, SessionID: sessionID}
	if req.Background {
		go func() {
			bg := context.WithoutCancel(ctx)
			if err := s.runPreview(bg, jobID, sessionID, req.Content, req.Hints); err != nil {
				s.logger.Error("background preview failed", "job_id", jobID, "session_id", sessionID, "error", err)
			}
		}()
		return handle, nil
	}

	if err := s.runPreview(ctx, jobID, sessionID, req.Content, req.Hints); err != nil {
		return handle, err
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return handle, err
	}
	handle.Session = session
	return handle, nil
}

// runPreview drives one pipeline pass and lands the job and session in their
// terminal or review states. Pipeline errors are recorded on both rows.
func (s *Service) runPreview(ctx context.Context, jobID, sessionID, content string, hints *models.TimelineHints) error {
	if err := s.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning); err != nil {
		return err
	}
	if err := s.store.SetSessionStatus(ctx, sessionID, models.SessionRunning, nil); err != nil {
		return err
	}

	result, err := s.pipeline().Run(ctx, content, bootstrap.RunOptions{
		Hints: hints,
		CancelCheck: func(ctx context.Context) (bool, error) {
			return s.store.JobCancelRequested(ctx, jobID)
		},
	})
	if err != nil {
		msg := err.Error()
		if failErr := s.store.FailJob(ctx, jobID, msg); failErr != nil {
			s.logger.Error("fail job", "job_id", jobID, "error", failErr)
		}
		if statusErr := s.store.SetSessionStatus(ctx, sessionID, models.SessionFailed, &msg); statusErr != nil {
			s.logger.Error("set session failed", "session_id", sessionID, "error", statusErr)
		}
		return fmt.Errorf("preview pipeline: %w", err)
	}

	if result.Cancelled {
		if err := s.store.MarkJobCancelled(ctx, jobID); err != nil {
			return err
		}
		return s.store.SetSessionStatus(ctx, sessionID, models.SessionCancelled, nil)
	}

	status := models.SessionReadyForReview
	if result.Telemetry.Partial || result.Telemetry.Truncated {
		status = models.SessionReadyPartial
	}
	if err := s.store.ReplaceSessionSnapshot(ctx, sessionID, result.Candidates, &result.Preview, &result.Telemetry, status); err != nil {
		return err
	}
	return s.store.CompleteJob(ctx, jobID, map[string]any{
		"session_id":      sessionID,
		"status":          status,
		"candidates":      len(result.Candidates),
		"chunk_count":     result.Telemetry.ChunkCount,
		"extraction_mode": result.Telemetry.ExtractionMode,
	})
}
