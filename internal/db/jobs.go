package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateJob persists a new queued job under the given ID.
func (c *Client) CreateJob(ctx context.Context, id, jobType string, payload map[string]any) (*models.IngestJob, error) {
	results, err := surrealdb.Query[[]models.IngestJob](ctx, c.db, `
		CREATE type::record("ingest_job", $id) SET
			job_type = $job_type,
			status = $status,
			payload = $payload
		RETURN AFTER
	`, map[string]any{
		"id":       id,
		"job_type": jobType,
		"status":   models.JobStatusQueued,
		"payload":  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create job: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetJob retrieves a job by ID. Returns nil if not found.
func (c *Client) GetJob(ctx context.Context, id string) (*models.IngestJob, error) {
	results, err := surrealdb.Query[[]models.IngestJob](ctx, c.db, `
		SELECT * FROM type::record("ingest_job", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// ListJobs returns jobs, most recent first.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]models.IngestJob, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := surrealdb.Query[[]models.IngestJob](ctx, c.db, `
		SELECT * FROM ingest_job ORDER BY started_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.IngestJob{}, nil
	}
	return (*results)[0].Result, nil
}

// UpdateJobStatus sets the status of a job.
func (c *Client) UpdateJobStatus(ctx context.Context, id, status string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("ingest_job", $id) SET status = $status
	`, map[string]any{"id": id, "status": status})
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// CompleteJob marks a job completed with a result payload.
func (c *Client) CompleteJob(ctx context.Context, id string, result map[string]any) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("ingest_job", $id) SET
			status = $status,
			result = $result,
			completed_at = time::now()
	`, map[string]any{"id": id, "status": models.JobStatusCompleted, "result": result})
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// FailJob marks a job failed with an error message.
func (c *Client) FailJob(ctx context.Context, id, errMsg string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("ingest_job", $id) SET
			status = $status,
			error = $error,
			completed_at = time::now()
	`, map[string]any{"id": id, "status": models.JobStatusFailed, "error": errMsg})
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// RequestJobCancel flags a queued or running job for cooperative cancellation.
// Returns ErrStatusConflict if the job is already terminal.
func (c *Client) RequestJobCancel(ctx context.Context, id string) error {
	results, err := surrealdb.Query[[]models.IngestJob](ctx, c.db, `
		UPDATE type::record("ingest_job", $id) SET cancel_requested = true
		WHERE status IN [$queued, $running]
		RETURN AFTER
	`, map[string]any{
		"id":      id,
		"queued":  models.JobStatusQueued,
		"running": models.JobStatusRunning,
	})
	if err != nil {
		return fmt.Errorf("request job cancel: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("request job cancel: %w", ErrStatusConflict)
	}
	return nil
}

// JobCancelRequested re-reads the cancellation flag for a job. The worker
// polls this between chunks to honor cooperative cancellation.
func (c *Client) JobCancelRequested(ctx context.Context, id string) (bool, error) {
	job, err := c.GetJob(ctx, id)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job.CancelRequested, nil
}

// MarkJobCancelled sets a job's terminal cancelled status.
func (c *Client) MarkJobCancelled(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("ingest_job", $id) SET
			status = $status,
			completed_at = time::now()
	`, map[string]any{"id": id, "status": models.JobStatusCancelled})
	if err != nil {
		return fmt.Errorf("mark job cancelled: %w", err)
	}
	return nil
}

// CreateSourceArtifact stores the immutable raw text for a job.
func (c *Client) CreateSourceArtifact(ctx context.Context, id, jobID, content string, tokenEstimate int) (*models.SourceArtifact, error) {
	results, err := surrealdb.Query[[]models.SourceArtifact](ctx, c.db, `
		CREATE type::record("source_artifact", $id) SET
			job_id = $job_id,
			content = $content,
			length = $length,
			token_estimate = $tokens
		RETURN AFTER
	`, map[string]any{
		"id":      id,
		"job_id":  jobID,
		"content": content,
		"length":  len(content),
		"tokens":  tokenEstimate,
	})
	if err != nil {
		return nil, fmt.Errorf("create source artifact: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create source artifact: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetSourceArtifactByJob retrieves the artifact owned by a job.
func (c *Client) GetSourceArtifactByJob(ctx context.Context, jobID string) (*models.SourceArtifact, error) {
	results, err := surrealdb.Query[[]models.SourceArtifact](ctx, c.db, `
		SELECT * FROM source_artifact WHERE job_id = $job_id LIMIT 1
	`, map[string]any{"job_id": jobID})
	if err != nil {
		return nil, fmt.Errorf("get source artifact: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}
