package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// ErrBlockingDiagnostics is returned when a commit is attempted against a
// graph with blocking findings and force-skip is not set.
var ErrBlockingDiagnostics = errors.New("blocking validation diagnostics present")

// ErrMissingDependency is returned when a candidate references a thinker
// that was not committed, outside force-skip mode.
var ErrMissingDependency = errors.New("candidate depends on a thinker that is not part of the commit")

// CommitStats accumulates the counters and mappings for the audit row.
type CommitStats struct {
	CreatedCounts map[string]int
	SkippedCounts map[string]int
	Warnings      []string
	IDMappings    map[string]string
}

func newCommitStats() *CommitStats {
	return &CommitStats{
		CreatedCounts: map[string]int{},
		SkippedCounts: map[string]int{},
		IDMappings:    map[string]string{},
	}
}

func (s *CommitStats) skip(entityType models.EntityType, reason string) {
	s.SkippedCounts[string(entityType)]++
	s.Warnings = append(s.Warnings, reason)
}

// BuildCommitPlan turns the reviewed candidate graph into a fully-resolved
// plan of canonical writes. All record ids are assigned here so the plan can
// be applied as one all-or-nothing transaction. Refuses on blocking
// diagnostics unless forceSkip, in which case only the offending rows are
// skipped.
func BuildCommitPlan(ctx context.Context, registry Registry, sessionID string, timeline TimelineDraft, candidates []models.Candidate, diags *Diagnostics, forceSkip bool, newID func() string) (*models.CommitPlan, *CommitStats, error) {
	if diags.HasBlocking && !forceSkip {
		first := diags.Blocking[0]
		return nil, nil, fmt.Errorf("%w: %s: %s", ErrBlockingDiagnostics, first.Code, first.Message)
	}

	// Rows named by a blocking diagnostic are skipped under force mode
	blocked := map[string]string{}
	for _, d := range diags.Blocking {
		if d.CandidateID != "" {
			blocked[d.CandidateID] = d.Message
		}
	}

	stats := newCommitStats()
	plan := &models.CommitPlan{
		SessionID:  sessionID,
		TimelineID: newID(),
		Timeline: models.TimelineInput{
			Name:        timeline.Name,
			Description: timeline.Description,
			StartYear:   timeline.StartYear,
			EndYear:     timeline.EndYear,
		},
	}

	// --- Thinkers first: everything downstream resolves through them ---
	for i := range candidates {
		c := &candidates[i]
		if c.EntityType != models.EntityThinker || !c.Include {
			continue
		}
		if reason, isBlocked := blocked[c.ID]; isBlocked {
			stats.skip(models.EntityThinker, fmt.Sprintf("skipped thinker %s: %s", c.Thinker.Name, reason))
			continue
		}

		planned, err := planThinker(ctx, registry, c, plan.TimelineID, newID, stats)
		if err != nil {
			return nil, nil, err
		}
		plan.Thinkers = append(plan.Thinkers, *planned)
		switch planned.Action {
		case models.ThinkerActionAttach:
			stats.IDMappings[c.ID] = planned.ExistingID
		default:
			stats.IDMappings[c.ID] = planned.NewID
			stats.CreatedCounts[string(models.EntityThinker)]++
		}
	}

	// --- Connections: duplicate-pair checks against store and within commit ---
	seenPairs := map[string]bool{}
	for i := range candidates {
		c := &candidates[i]
		if c.EntityType != models.EntityConnection || !c.Include {
			continue
		}
		conn := c.Connection
		if reason, isBlocked := blocked[c.ID]; isBlocked {
			stats.skip(models.EntityConnection, fmt.Sprintf("skipped connection %s -> %s: %s", conn.FromName, conn.ToName, reason))
			continue
		}

		fromID, fromOK := stats.IDMappings[conn.FromKey]
		toID, toOK := stats.IDMappings[conn.ToKey]
		if !fromOK || !toOK {
			if forceSkip {
				stats.skip(models.EntityConnection, fmt.Sprintf("skipped connection %s -> %s: endpoint not committed", conn.FromName, conn.ToName))
				continue
			}
			return nil, nil, fmt.Errorf("connection %s -> %s: %w", conn.FromName, conn.ToName, ErrMissingDependency)
		}

		pair := fromID + "->" + toID
		if seenPairs[pair] {
			stats.skip(models.EntityConnection, fmt.Sprintf("skipped connection %s -> %s: duplicate ordered pair within commit", conn.FromName, conn.ToName))
			continue
		}
		existing, err := registry.FindConnectionByPair(ctx, fromID, toID)
		if err != nil {
			return nil, nil, fmt.Errorf("check connection pair: %w", err)
		}
		if existing != nil {
			stats.skip(models.EntityConnection, fmt.Sprintf("skipped connection %s -> %s: canonical row already exists for this pair", conn.FromName, conn.ToName))
			continue
		}
		seenPairs[pair] = true

		connID := newID()
		plan.Connections = append(plan.Connections, models.PlannedConnection{
			CandidateID: c.ID,
			NewID:       connID,
			Input: models.ConnectionInput{
				TimelineID: &plan.TimelineID,
				FromID:     fromID,
				ToID:       toID,
				RelType:    conn.RelType,
				Strength:   conn.Strength,
				Notes:      conn.Notes,
			},
		})
		stats.IDMappings[c.ID] = connID
		stats.CreatedCounts[string(models.EntityConnection)]++
	}

	// --- Events ---
	for i := range candidates {
		c := &candidates[i]
		if c.EntityType != models.EntityEvent || !c.Include {
			continue
		}
		if reason, isBlocked := blocked[c.ID]; isBlocked {
			stats.skip(models.EntityEvent, fmt.Sprintf("skipped event %s: %s", c.Event.Name, reason))
			continue
		}
		eventID := newID()
		plan.Events = append(plan.Events, models.PlannedEvent{
			CandidateID: c.ID,
			NewID:       eventID,
			Input: models.EventInput{
				TimelineID: &plan.TimelineID,
				Name:       c.Event.Name,
				Year:       *c.Event.Year,
				EventType:  c.Event.EventType,
				Notes:      c.Event.Notes,
			},
		})
		stats.IDMappings[c.ID] = eventID
		stats.CreatedCounts[string(models.EntityEvent)]++
	}

	// --- Publications and quotes: require a committed owner ---
	for i := range candidates {
		c := &candidates[i]
		if !c.Include {
			continue
		}
		switch c.EntityType {
		case models.EntityPublication:
			pub := c.Publication
			if reason, isBlocked := blocked[c.ID]; isBlocked {
				stats.skip(models.EntityPublication, fmt.Sprintf("skipped publication %q: %s", pub.Title, reason))
				continue
			}
			ownerID, ok := stats.IDMappings[pub.ThinkerKey]
			if !ok {
				if forceSkip {
					stats.skip(models.EntityPublication, fmt.Sprintf("skipped publication %q: owner not committed", pub.Title))
					continue
				}
				return nil, nil, fmt.Errorf("publication %q: %w", pub.Title, ErrMissingDependency)
			}
			pubID := newID()
			plan.Publications = append(plan.Publications, models.PlannedPublication{
				CandidateID: c.ID,
				NewID:       pubID,
				Input: models.PublicationInput{
					ThinkerID: ownerID,
					Title:     pub.Title,
					Year:      pub.Year,
					PubType:   pub.PubType,
					Notes:     pub.Notes,
				},
			})
			stats.IDMappings[c.ID] = pubID
			stats.CreatedCounts[string(models.EntityPublication)]++

		case models.EntityQuote:
			quote := c.Quote
			if reason, isBlocked := blocked[c.ID]; isBlocked {
				stats.skip(models.EntityQuote, fmt.Sprintf("skipped quote: %s", reason))
				continue
			}
			ownerID, ok := stats.IDMappings[quote.ThinkerKey]
			if !ok {
				if forceSkip {
					stats.skip(models.EntityQuote, "skipped quote: owner not committed")
					continue
				}
				return nil, nil, fmt.Errorf("quote by %q: %w", quote.ThinkerName, ErrMissingDependency)
			}
			quoteID := newID()
			plan.Quotes = append(plan.Quotes, models.PlannedQuote{
				CandidateID: c.ID,
				NewID:       quoteID,
				Input: models.QuoteInput{
					ThinkerID: ownerID,
					Text:      quote.Text,
					Source:    quote.Source,
				},
			})
			stats.IDMappings[c.ID] = quoteID
			stats.CreatedCounts[string(models.EntityQuote)]++
		}
	}

	stats.CreatedCounts["timeline"] = 1
	return plan, stats, nil
}

// planThinker decides create/attach/clone for one included thinker. A
// canonical record already attached to another timeline is never reassigned;
// its metadata is cloned into a new timeline-scoped record instead.
func planThinker(ctx context.Context, registry Registry, c *models.Candidate, timelineID string, newID func() string, stats *CommitStats) (*models.PlannedThinker, error) {
	input := models.ThinkerInput{
		TimelineID:  &timelineID,
		Name:        c.Thinker.Name,
		BirthYear:   c.Thinker.BirthYear,
		DeathYear:   c.Thinker.DeathYear,
		Era:         c.Thinker.Era,
		Discipline:  c.Thinker.Discipline,
		Nationality: c.Thinker.Nationality,
		Notes:       c.Thinker.Notes,
	}

	if c.MatchStatus == models.MatchReuseHigh && c.MatchedThinkerID != nil {
		canonical, err := registry.GetThinker(ctx, *c.MatchedThinkerID)
		if err != nil {
			return nil, fmt.Errorf("load matched thinker: %w", err)
		}
		if canonical == nil {
			stats.Warnings = append(stats.Warnings,
				fmt.Sprintf("matched thinker for %s no longer exists; creating new record", c.Thinker.Name))
		} else if canonical.TimelineID == nil || *canonical.TimelineID == "" {
			return &models.PlannedThinker{
				CandidateID: c.ID,
				Action:      models.ThinkerActionAttach,
				ExistingID:  *c.MatchedThinkerID,
			}, nil
		} else {
			// Clone canonical metadata, candidate values taking precedence
			fillFromCanonical(&input, canonical)
			stats.Warnings = append(stats.Warnings,
				fmt.Sprintf("%s is already on another timeline; cloned into a new record", c.Thinker.Name))
			return &models.PlannedThinker{
				CandidateID: c.ID,
				Action:      models.ThinkerActionClone,
				NewID:       newID(),
				ExistingID:  *c.MatchedThinkerID,
				Input:       input,
			}, nil
		}
	}

	return &models.PlannedThinker{
		CandidateID: c.ID,
		Action:      models.ThinkerActionCreate,
		NewID:       newID(),
		Input:       input,
	}, nil
}

func fillFromCanonical(input *models.ThinkerInput, canonical *models.Thinker) {
	if input.BirthYear == nil {
		input.BirthYear = canonical.BirthYear
	}
	if input.DeathYear == nil {
		input.DeathYear = canonical.DeathYear
	}
	if input.Era == nil {
		input.Era = canonical.Era
	}
	if input.Discipline == nil {
		input.Discipline = canonical.Discipline
	}
	if input.Nationality == nil {
		input.Nationality = canonical.Nationality
	}
	if input.Notes == nil {
		input.Notes = canonical.Notes
	}
}
