package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// ApplyCommitPlan executes a fully-resolved commit plan as a single
// all-or-nothing transaction: the new timeline, every thinker operation,
// all dependent rows, the audit row, and the session's committed status.
// Any failure (including a duplicate-pair unique index violation from a
// concurrent writer) rolls back every statement.
func (c *Client) ApplyCommitPlan(ctx context.Context, plan *models.CommitPlan, audit models.CommitAuditInput, auditID string) error {
	var sb strings.Builder
	vars := map[string]any{}

	sb.WriteString("BEGIN TRANSACTION;\n")

	sb.WriteString(`CREATE type::record("timeline", $timeline_id) CONTENT $timeline;` + "\n")
	vars["timeline_id"] = plan.TimelineID
	vars["timeline"] = plan.Timeline

	for i, th := range plan.Thinkers {
		switch th.Action {
		case models.ThinkerActionCreate, models.ThinkerActionClone:
			idKey := fmt.Sprintf("th_id_%d", i)
			contentKey := fmt.Sprintf("th_%d", i)
			sb.WriteString(fmt.Sprintf(`CREATE type::record("thinker", $%s) CONTENT $%s;`+"\n", idKey, contentKey))
			vars[idKey] = th.NewID
			vars[contentKey] = th.Input
		case models.ThinkerActionAttach:
			idKey := fmt.Sprintf("th_id_%d", i)
			sb.WriteString(fmt.Sprintf(`UPDATE type::record("thinker", $%s) SET timeline_id = $timeline_id;`+"\n", idKey))
			vars[idKey] = th.ExistingID
		default:
			return fmt.Errorf("apply commit plan: unknown thinker action %q", th.Action)
		}
	}

	for i, conn := range plan.Connections {
		idKey := fmt.Sprintf("conn_id_%d", i)
		contentKey := fmt.Sprintf("conn_%d", i)
		sb.WriteString(fmt.Sprintf(`CREATE type::record("connection", $%s) CONTENT $%s;`+"\n", idKey, contentKey))
		vars[idKey] = conn.NewID
		vars[contentKey] = conn.Input
	}

	for i, ev := range plan.Events {
		idKey := fmt.Sprintf("ev_id_%d", i)
		contentKey := fmt.Sprintf("ev_%d", i)
		sb.WriteString(fmt.Sprintf(`CREATE type::record("event", $%s) CONTENT $%s;`+"\n", idKey, contentKey))
		vars[idKey] = ev.NewID
		vars[contentKey] = ev.Input
	}

	for i, pub := range plan.Publications {
		idKey := fmt.Sprintf("pub_id_%d", i)
		contentKey := fmt.Sprintf("pub_%d", i)
		sb.WriteString(fmt.Sprintf(`CREATE type::record("publication", $%s) CONTENT $%s;`+"\n", idKey, contentKey))
		vars[idKey] = pub.NewID
		vars[contentKey] = pub.Input
	}

	for i, q := range plan.Quotes {
		idKey := fmt.Sprintf("q_id_%d", i)
		contentKey := fmt.Sprintf("q_%d", i)
		sb.WriteString(fmt.Sprintf(`CREATE type::record("quote", $%s) CONTENT $%s;`+"\n", idKey, contentKey))
		vars[idKey] = q.NewID
		vars[contentKey] = q.Input
	}

	sb.WriteString(`CREATE type::record("commit_audit", $audit_id) CONTENT $audit;` + "\n")
	vars["audit_id"] = auditID
	vars["audit"] = audit

	sb.WriteString(`UPDATE type::record("bootstrap_session", $session_id) SET
		status = $committed_status,
		committed_timeline_id = $timeline_id,
		updated = time::now();` + "\n")
	vars["session_id"] = plan.SessionID
	vars["committed_status"] = models.SessionCommitted

	sb.WriteString("COMMIT TRANSACTION;\n")

	if _, err := surrealdb.Query[any](ctx, c.db, sb.String(), vars); err != nil {
		return fmt.Errorf("apply commit plan: %w", wrapQueryError(err))
	}
	return nil
}
