package service

import (
	"context"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// GetJob returns a job by ID, or nil when it does not exist.
func (s *Service) GetJob(ctx context.Context, id string) (*models.IngestJob, error) {
	return s.store.GetJob(ctx, id)
}

// ListJobs returns recent jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]models.IngestJob, error) {
	return s.store.ListJobs(ctx, limit)
}

// CancelJob requests cooperative cancellation of a queued or running job.
// The worker notices the flag at its next chunk boundary.
func (s *Service) CancelJob(ctx context.Context, id string) error {
	return s.store.RequestJobCancel(ctx, id)
}

// FailAbandonedJobs marks jobs still flagged running as failed. Called at
// startup: a running job with no live worker was interrupted mid-pipeline.
func (s *Service) FailAbandonedJobs(ctx context.Context) (int, error) {
	jobs, err := s.store.ListJobs(ctx, 0)
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, job := range jobs {
		if job.Status != models.JobStatusRunning {
			continue
		}
		id := models.MustRecordIDString(job.ID)
		if err := s.store.FailJob(ctx, id, "interrupted: worker exited before completion"); err != nil {
			return failed, err
		}
		s.logger.Warn("failed abandoned job", "job_id", id)
		failed++
	}
	return failed, nil
}

// GetSourceText returns the raw text a job was started with.
func (s *Service) GetSourceText(ctx context.Context, jobID string) (string, error) {
	artifact, err := s.store.GetSourceArtifactByJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	if artifact == nil {
		return "", nil
	}
	return artifact.Content, nil
}
