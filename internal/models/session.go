package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Session statuses. The orchestrator owns all transitions; the only
// externally-driven ones are cancellation (via the job) and commit.
const (
	SessionQueued             = "queued"
	SessionRunning            = "running"
	SessionReadyForReview     = "ready_for_review"
	SessionReadyPartial       = "ready_for_review_partial"
	SessionCommitting         = "committing"
	SessionCommitted          = "committed"
	SessionFailed             = "failed"
	SessionCancelled          = "cancelled"
	SessionExpired            = "expired"
)

// ReadyStatuses are the statuses from which a commit may begin.
var ReadyStatuses = []string{SessionReadyForReview, SessionReadyPartial}

// TimelineHints are caller-supplied hints applied during merge.
type TimelineHints struct {
	Name        string `json:"name,omitempty" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	StartYear   *int   `json:"start_year,omitempty" yaml:"start_year"`
	EndYear     *int   `json:"end_year,omitempty" yaml:"end_year"`
}

// SessionPreview summarizes the current candidate graph for review.
type SessionPreview struct {
	TimelineName        string         `json:"timeline_name"`
	TimelineDescription string         `json:"timeline_description,omitempty"`
	StartYear           *int           `json:"start_year,omitempty"`
	EndYear             *int           `json:"end_year,omitempty"`
	Counts              map[string]int `json:"counts"`
	IncludedCounts      map[string]int `json:"included_counts"`
	Warnings            []string       `json:"warnings,omitempty"`
}

// SessionTelemetry records how the preview pass went.
type SessionTelemetry struct {
	ChunkCount     int    `json:"chunk_count"`
	ExtractionMode string `json:"extraction_mode"` // model, heuristic, mixed
	ModelCalls     int    `json:"model_calls"`
	TokensUsed     int    `json:"tokens_used"`
	Truncated      bool   `json:"truncated"`
	Partial        bool   `json:"partial"`
	SalvageRan     bool   `json:"salvage_ran"`
	SalvageAdded   int    `json:"salvage_added"`
	YearsEnriched  int    `json:"years_enriched"`
}

// MatchDecision resolves a review_needed thinker candidate.
type MatchDecision struct {
	Action    string  `json:"action"` // "reuse" or "create"
	ThinkerID *string `json:"thinker_id,omitempty"`
}

// CandidatePatch is one caller edit to a candidate.
type CandidatePatch struct {
	CandidateID string         `json:"candidate_id"`
	Include     *bool          `json:"include,omitempty"`
	Name        *string        `json:"name,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	BirthYear   *int           `json:"birth_year,omitempty"`
	DeathYear   *int           `json:"death_year,omitempty"`
	Year        *int           `json:"year,omitempty"`
	RelType     *string        `json:"rel_type,omitempty"`
	Decision    *MatchDecision `json:"decision,omitempty"`
}

// TimelinePatch is a caller edit to the timeline fields.
type TimelinePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartYear   *int    `json:"start_year,omitempty"`
	EndYear     *int    `json:"end_year,omitempty"`
}

// ValidationOverlay holds caller-supplied edits applied on top of the
// candidate snapshot at validation and commit time. The snapshot itself is
// never patched in place.
type ValidationOverlay struct {
	Timeline   *TimelinePatch   `json:"timeline,omitempty"`
	Candidates []CandidatePatch `json:"candidates,omitempty"`
}

// BootstrapSession is one preview lifecycle, 1:1 with a bootstrap job.
// Recomputation replaces the candidate set wholesale.
type BootstrapSession struct {
	ID                  surrealmodels.RecordID `json:"id"`
	JobID               string                 `json:"job_id"`
	Status              string                 `json:"status"`
	Hints               *TimelineHints         `json:"hints,omitempty"`
	Preview             *SessionPreview        `json:"preview,omitempty"`
	Telemetry           *SessionTelemetry      `json:"telemetry,omitempty"`
	Overlay             *ValidationOverlay     `json:"overlay,omitempty"`
	Candidates          []Candidate            `json:"candidates,omitempty"`
	ExpiresAt           time.Time              `json:"expires_at"`
	CommittedTimelineID *string                `json:"committed_timeline_id,omitempty"`
	Error               *string                `json:"error,omitempty"`
	Created             time.Time              `json:"created,omitempty"`
	Updated             time.Time              `json:"updated,omitempty"`
}

// CommitAuditInput is the payload for a new audit row.
type CommitAuditInput struct {
	SessionID     string            `json:"session_id"`
	TimelineID    string            `json:"timeline_id"`
	CreatedCounts map[string]int    `json:"created_counts"`
	SkippedCounts map[string]int    `json:"skipped_counts"`
	Warnings      []string          `json:"warnings,omitempty"`
	IDMappings    map[string]string `json:"id_mappings"`
	CommittedBy   string            `json:"committed_by,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// CommitAudit is one immutable row per successful commit attempt.
type CommitAudit struct {
	ID            surrealmodels.RecordID `json:"id"`
	SessionID     string                 `json:"session_id"`
	TimelineID    string                 `json:"timeline_id"`
	CreatedCounts map[string]int         `json:"created_counts"`
	SkippedCounts map[string]int         `json:"skipped_counts"`
	Warnings      []string               `json:"warnings,omitempty"`
	IDMappings    map[string]string      `json:"id_mappings"`
	CommittedBy   string                 `json:"committed_by,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Created       time.Time              `json:"created,omitempty"`
}
