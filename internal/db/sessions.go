package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// CreateSession persists a new queued bootstrap session.
func (c *Client) CreateSession(ctx context.Context, id, jobID string, hints *models.TimelineHints, expiresAt time.Time) (*models.BootstrapSession, error) {
	results, err := surrealdb.Query[[]models.BootstrapSession](ctx, c.db, `
		CREATE type::record("bootstrap_session", $id) SET
			job_id = $job_id,
			status = $status,
			hints = $hints,
			expires_at = $expires_at
		RETURN AFTER
	`, map[string]any{
		"id":         id,
		"job_id":     jobID,
		"status":     models.SessionQueued,
		"hints":      hints,
		"expires_at": expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create session: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetSession retrieves a session by ID. Returns nil if not found.
func (c *Client) GetSession(ctx context.Context, id string) (*models.BootstrapSession, error) {
	results, err := surrealdb.Query[[]models.BootstrapSession](ctx, c.db, `
		SELECT * FROM type::record("bootstrap_session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// TransitionSessionStatus performs an atomic conditional status update: the
// session moves to `to` only if its current status is one of `from`. Returns
// the resulting status and whether this call won the transition. This is the
// mutual-exclusion point that guarantees at most one concurrent commit.
func (c *Client) TransitionSessionStatus(ctx context.Context, id string, from []string, to string) (string, bool, error) {
	results, err := surrealdb.Query[[]models.BootstrapSession](ctx, c.db, `
		UPDATE type::record("bootstrap_session", $id)
		SET status = $to, updated = time::now()
		WHERE status IN $from
		RETURN AFTER
	`, map[string]any{"id": id, "from": from, "to": to})
	if err != nil {
		return "", false, fmt.Errorf("transition session status: %w", wrapQueryError(err))
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Status, true, nil
	}

	// Lost the transition; report the status the winner left behind
	session, err := c.GetSession(ctx, id)
	if err != nil {
		return "", false, err
	}
	if session == nil {
		return "", false, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return session.Status, false, nil
}

// ReplaceSessionSnapshot atomically replaces the session's entire candidate
// set plus the regenerated preview and telemetry, and moves it to `status`.
// Candidates are never patched field-by-field across pipeline stages.
func (c *Client) ReplaceSessionSnapshot(ctx context.Context, id string, candidates []models.Candidate, preview *models.SessionPreview, telemetry *models.SessionTelemetry, status string) error {
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("bootstrap_session", $id) SET
			candidates = $candidates,
			preview = $preview,
			telemetry = $telemetry,
			status = $status,
			updated = time::now()
	`, map[string]any{
		"id":         id,
		"candidates": candidates,
		"preview":    preview,
		"telemetry":  telemetry,
		"status":     status,
	})
	if err != nil {
		return fmt.Errorf("replace session snapshot: %w", wrapQueryError(err))
	}
	return nil
}

// SetSessionOverlay stores the caller's validation overlay.
func (c *Client) SetSessionOverlay(ctx context.Context, id string, overlay *models.ValidationOverlay) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("bootstrap_session", $id) SET
			overlay = $overlay,
			updated = time::now()
	`, map[string]any{"id": id, "overlay": overlay})
	if err != nil {
		return fmt.Errorf("set session overlay: %w", err)
	}
	return nil
}

// SetSessionStatus sets the session status unconditionally, optionally
// recording an error message. Used for failed/expired/reverted transitions.
func (c *Client) SetSessionStatus(ctx context.Context, id, status string, errMsg *string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("bootstrap_session", $id) SET
			status = $status,
			error = $error,
			updated = time::now()
	`, map[string]any{"id": id, "status": status, "error": errMsg})
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	return nil
}
