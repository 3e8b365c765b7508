package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Job statuses.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// JobTypeBootstrap is the timeline bootstrap job type.
const JobTypeBootstrap = "timeline_bootstrap"

// IngestJob is a persisted unit of background work. It is created by a caller
// and mutated only by the worker executing it or a cancellation request.
type IngestJob struct {
	ID              surrealmodels.RecordID `json:"id"`
	JobType         string                 `json:"job_type"`
	Status          string                 `json:"status"`
	Payload         map[string]any         `json:"payload,omitempty"`
	Result          map[string]any         `json:"result,omitempty"`
	Error           *string                `json:"error,omitempty"`
	CancelRequested bool                   `json:"cancel_requested"`
	StartedAt       time.Time              `json:"started_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// SourceArtifact is the immutable raw text a bootstrap job works on.
// Never mutated after creation.
type SourceArtifact struct {
	ID            surrealmodels.RecordID `json:"id"`
	JobID         string                 `json:"job_id"`
	Content       string                 `json:"content"`
	Length        int                    `json:"length"`
	TokenEstimate int                    `json:"token_estimate"`
	Created       time.Time              `json:"created,omitempty"`
}
