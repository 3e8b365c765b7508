package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// GetTimeline retrieves a timeline by ID. Returns nil if not found.
func (c *Client) GetTimeline(ctx context.Context, id string) (*models.Timeline, error) {
	results, err := surrealdb.Query[[]models.Timeline](ctx, c.db, `
		SELECT * FROM type::record("timeline", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// CreateThinker inserts a canonical thinker under the given ID.
func (c *Client) CreateThinker(ctx context.Context, id string, input models.ThinkerInput) (*models.Thinker, error) {
	results, err := surrealdb.Query[[]models.Thinker](ctx, c.db, `
		CREATE type::record("thinker", $id) CONTENT $content RETURN AFTER
	`, map[string]any{"id": id, "content": input})
	if err != nil {
		return nil, fmt.Errorf("create thinker: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create thinker: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetThinker retrieves a thinker by ID. Returns nil if not found.
func (c *Client) GetThinker(ctx context.Context, id string) (*models.Thinker, error) {
	results, err := surrealdb.Query[[]models.Thinker](ctx, c.db, `
		SELECT * FROM type::record("thinker", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get thinker: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// ListThinkersByName returns all canonical thinkers whose normalized name
// matches exactly. The registry may legitimately hold several rows for one
// name (same figure on different timelines, or distinct same-named figures).
func (c *Client) ListThinkersByName(ctx context.Context, normName string) ([]models.Thinker, error) {
	results, err := surrealdb.Query[[]models.Thinker](ctx, c.db, `
		SELECT * FROM thinker WHERE norm_name = $name
	`, map[string]any{"name": normName})
	if err != nil {
		return nil, fmt.Errorf("list thinkers by name: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Thinker{}, nil
	}
	return (*results)[0].Result, nil
}

// ListThinkers returns the canonical thinker registry for fuzzy scanning.
func (c *Client) ListThinkers(ctx context.Context, limit int) ([]models.Thinker, error) {
	if limit <= 0 {
		limit = 1000
	}
	results, err := surrealdb.Query[[]models.Thinker](ctx, c.db, `
		SELECT * FROM thinker ORDER BY name LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list thinkers: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Thinker{}, nil
	}
	return (*results)[0].Result, nil
}

// FindConnectionByPair returns the canonical connection on the ordered
// (from, to) pair, or nil. At most one such row can exist.
func (c *Client) FindConnectionByPair(ctx context.Context, fromID, toID string) (*models.Connection, error) {
	results, err := surrealdb.Query[[]models.Connection](ctx, c.db, `
		SELECT * FROM connection WHERE from_id = $from AND to_id = $to LIMIT 1
	`, map[string]any{"from": fromID, "to": toID})
	if err != nil {
		return nil, fmt.Errorf("find connection by pair: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// ListTimelineThinkers returns the thinkers attached to a timeline.
func (c *Client) ListTimelineThinkers(ctx context.Context, timelineID string) ([]models.Thinker, error) {
	results, err := surrealdb.Query[[]models.Thinker](ctx, c.db, `
		SELECT * FROM thinker WHERE timeline_id = $timeline_id ORDER BY name
	`, map[string]any{"timeline_id": timelineID})
	if err != nil {
		return nil, fmt.Errorf("list timeline thinkers: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Thinker{}, nil
	}
	return (*results)[0].Result, nil
}

// CountTimelines returns the number of canonical timelines.
func (c *Client) CountTimelines(ctx context.Context) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `SELECT count() AS count FROM timeline GROUP ALL`, nil)
	if err != nil {
		return 0, fmt.Errorf("count timelines: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}
