package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// GetLatestAuditBySession returns the most recent audit row for a session,
// or nil. Re-commits of a committed session return this instead of writing.
func (c *Client) GetLatestAuditBySession(ctx context.Context, sessionID string) (*models.CommitAudit, error) {
	results, err := surrealdb.Query[[]models.CommitAudit](ctx, c.db, `
		SELECT * FROM commit_audit WHERE session_id = $session_id
		ORDER BY created DESC LIMIT 1
	`, map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("get latest audit: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// ListAuditsBySession returns all audit rows for a session, oldest first.
func (c *Client) ListAuditsBySession(ctx context.Context, sessionID string) ([]models.CommitAudit, error) {
	results, err := surrealdb.Query[[]models.CommitAudit](ctx, c.db, `
		SELECT * FROM commit_audit WHERE session_id = $session_id ORDER BY created ASC
	`, map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.CommitAudit{}, nil
	}
	return (*results)[0].Result, nil
}
