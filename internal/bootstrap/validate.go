package bootstrap

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// Diagnostic codes. Stable: callers and tests key on them.
const (
	CodeTimelineNameRequired   = "timeline_name_required"
	CodeTimelineYearOrder      = "timeline_year_order"
	CodeThinkerNameRequired    = "thinker_name_required"
	CodeThinkerYearOrder       = "thinker_year_order"
	CodeThinkerMatchUnresolved = "thinker_match_unresolved"
	CodeConnectionEndpoint     = "connection_endpoint_invalid"
	CodeConnectionRelType      = "connection_rel_type_invalid"
	CodeConnectionDuplicate    = "connection_duplicate_pair"
	CodeEventYearRequired      = "event_year_required"
	CodeOwnerMissing           = "owner_missing"
	CodeQuoteTextEmpty         = "quote_text_empty"
	CodeEvidenceMissing        = "evidence_missing"
	CodeRelationshipSignalLow  = "relationship_signal_low"
	CodeCoverageSparse         = "extraction_coverage_sparse"
)

// Diagnostic is one validation finding.
type Diagnostic struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	CandidateID string `json:"candidate_id,omitempty"`
}

// Diagnostics partitions findings by severity.
type Diagnostics struct {
	Blocking    []Diagnostic `json:"blocking"`
	NonBlocking []Diagnostic `json:"non_blocking"`
	HasBlocking bool         `json:"has_blocking"`
}

func (d *Diagnostics) block(code, msg, candidateID string) {
	d.Blocking = append(d.Blocking, Diagnostic{Code: code, Message: msg, CandidateID: candidateID})
	d.HasBlocking = true
}

func (d *Diagnostics) warn(code, msg, candidateID string) {
	d.NonBlocking = append(d.NonBlocking, Diagnostic{Code: code, Message: msg, CandidateID: candidateID})
}

// TimelineDraft is the timeline under construction, hints plus overlay edits.
type TimelineDraft struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartYear   *int    `json:"start_year,omitempty"`
	EndYear     *int    `json:"end_year,omitempty"`
}

// ValidateOptions tunes validator severity.
type ValidateOptions struct {
	// EvidenceGateWarn demotes the per-candidate evidence requirement from
	// blocking to a warning.
	EvidenceGateWarn bool
}

// Validate computes blocking and non-blocking diagnostics over the timeline
// draft and candidate graph. As a side effect it normalizes enum-like fields
// (relation type, event type, publication type) in place, so commit can
// trust them without re-validating.
func Validate(timeline *TimelineDraft, candidates []models.Candidate, opts ValidateOptions) *Diagnostics {
	diags := &Diagnostics{}

	if strings.TrimSpace(timeline.Name) == "" {
		diags.block(CodeTimelineNameRequired, "timeline name is required", "")
	}
	if timeline.StartYear != nil && timeline.EndYear != nil && *timeline.StartYear > *timeline.EndYear {
		diags.block(CodeTimelineYearOrder,
			fmt.Sprintf("timeline start year %d is after end year %d", *timeline.StartYear, *timeline.EndYear), "")
	}

	included := map[string]*models.Candidate{}
	for i := range candidates {
		if candidates[i].Include {
			included[candidates[i].ID] = &candidates[i]
		}
	}

	includedThinkers := 0
	includedConnections := 0
	includedEvents := 0
	includedPublications := 0
	includedQuotes := 0
	seenPairs := map[string]string{}

	for i := range candidates {
		c := &candidates[i]
		if !c.Include {
			continue
		}

		switch c.EntityType {
		case models.EntityThinker:
			includedThinkers++
			if c.Thinker == nil || strings.TrimSpace(c.Thinker.Name) == "" {
				diags.block(CodeThinkerNameRequired, "included thinker has no name", c.ID)
				continue
			}
			if c.Thinker.BirthYear != nil && c.Thinker.DeathYear != nil &&
				*c.Thinker.BirthYear > *c.Thinker.DeathYear {
				diags.block(CodeThinkerYearOrder,
					fmt.Sprintf("%s: birth year %d is after death year %d",
						c.Thinker.Name, *c.Thinker.BirthYear, *c.Thinker.DeathYear), c.ID)
			}
			if c.MatchStatus == models.MatchReviewNeeded {
				diags.block(CodeThinkerMatchUnresolved,
					fmt.Sprintf("%s: ambiguous registry match needs an explicit reuse-or-create decision", c.Thinker.Name), c.ID)
			}

		case models.EntityConnection:
			includedConnections++
			conn := c.Connection
			if conn == nil {
				diags.block(CodeConnectionEndpoint, "included connection has no payload", c.ID)
				continue
			}
			normalized := NormalizeRelationType(conn.RelType)
			if normalized == "" {
				diags.block(CodeConnectionRelType,
					fmt.Sprintf("relation type %q does not normalize to the allowed set", conn.RelType), c.ID)
			} else {
				conn.RelType = normalized
			}

			from, fromOK := included[conn.FromKey]
			to, toOK := included[conn.ToKey]
			if conn.FromKey == "" || conn.ToKey == "" || !fromOK || !toOK {
				diags.block(CodeConnectionEndpoint,
					fmt.Sprintf("connection %s -> %s requires two resolved, included thinkers", conn.FromName, conn.ToName), c.ID)
			} else if from == to {
				diags.block(CodeConnectionEndpoint,
					fmt.Sprintf("connection %s -> %s endpoints must be distinct", conn.FromName, conn.ToName), c.ID)
			}

			pair := conn.FromKey + "->" + conn.ToKey
			if prior, dup := seenPairs[pair]; dup {
				diags.block(CodeConnectionDuplicate,
					fmt.Sprintf("two included connections share the ordered pair %s -> %s (other: %s)",
						conn.FromName, conn.ToName, prior), c.ID)
			} else {
				seenPairs[pair] = c.ID
			}

		case models.EntityEvent:
			includedEvents++
			if c.Event == nil || c.Event.Year == nil {
				diags.block(CodeEventYearRequired, "included event requires an integer year", c.ID)
				continue
			}
			if c.Event.EventType != nil {
				normalized := normalizeLabel(*c.Event.EventType)
				c.Event.EventType = &normalized
			}

		case models.EntityPublication:
			includedPublications++
			pub := c.Publication
			if pub == nil || pub.ThinkerKey == "" || included[pub.ThinkerKey] == nil {
				name := ""
				if pub != nil {
					name = pub.Title
				}
				diags.block(CodeOwnerMissing,
					fmt.Sprintf("publication %q must depend on an included thinker", name), c.ID)
				continue
			}
			if pub.PubType != nil {
				normalized := normalizeLabel(*pub.PubType)
				pub.PubType = &normalized
			}

		case models.EntityQuote:
			includedQuotes++
			quote := c.Quote
			if quote == nil || strings.TrimSpace(quote.Text) == "" {
				diags.block(CodeQuoteTextEmpty, "included quote has empty text", c.ID)
				continue
			}
			if quote.ThinkerKey == "" || included[quote.ThinkerKey] == nil {
				diags.block(CodeOwnerMissing,
					"quote must depend on an included thinker", c.ID)
			}
		}

		// Evidence gate: every included candidate needs grounded evidence
		if len(c.Evidence) == 0 {
			msg := fmt.Sprintf("included %s candidate carries no grounded evidence", c.EntityType)
			if opts.EvidenceGateWarn {
				diags.warn(CodeEvidenceMissing, msg, c.ID)
			} else {
				diags.block(CodeEvidenceMissing, msg, c.ID)
			}
		}
	}

	// Coverage heuristics
	if includedThinkers >= 4 && includedConnections == 0 {
		diags.block(CodeRelationshipSignalLow,
			fmt.Sprintf("%d thinkers but no relationships between them; the text likely supports connections that were not recovered", includedThinkers), "")
	}
	if includedThinkers >= 6 && includedEvents <= 1 && includedPublications == 0 && includedQuotes <= 1 {
		diags.warn(CodeCoverageSparse,
			fmt.Sprintf("%d thinkers but almost no events, publications, or quotes were extracted", includedThinkers), "")
	}

	return diags
}

// normalizeLabel lowercases and snake_cases a free-form enum-ish label.
func normalizeLabel(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	return strings.ReplaceAll(normalized, "-", "_")
}

// ApplyOverlay returns a copy of the candidate set with the caller's edits
// applied; the stored snapshot itself is never patched. Match decisions
// resolve review_needed statuses to reuse or create.
func ApplyOverlay(candidates []models.Candidate, overlay *models.ValidationOverlay) []models.Candidate {
	out := make([]models.Candidate, len(candidates))
	for i := range candidates {
		out[i] = cloneCandidate(candidates[i])
	}
	if overlay == nil {
		return out
	}

	byID := map[string]int{}
	for i := range out {
		byID[out[i].ID] = i
	}

	for _, patch := range overlay.Candidates {
		i, ok := byID[patch.CandidateID]
		if !ok {
			continue
		}
		c := &out[i]

		if patch.Include != nil {
			c.Include = *patch.Include
		}
		switch c.EntityType {
		case models.EntityThinker:
			if c.Thinker != nil {
				if patch.Name != nil {
					c.Thinker.Name = *patch.Name
				}
				if patch.Notes != nil {
					c.Thinker.Notes = patch.Notes
				}
				if patch.BirthYear != nil {
					c.Thinker.BirthYear = patch.BirthYear
				}
				if patch.DeathYear != nil {
					c.Thinker.DeathYear = patch.DeathYear
				}
			}
			if patch.Decision != nil {
				switch patch.Decision.Action {
				case "reuse":
					if patch.Decision.ThinkerID != nil {
						c.MatchStatus = models.MatchReuseHigh
						c.MatchedThinkerID = patch.Decision.ThinkerID
					}
				case "create":
					c.MatchStatus = models.MatchCreateNew
					c.MatchedThinkerID = nil
				}
			}
		case models.EntityEvent:
			if c.Event != nil {
				if patch.Name != nil {
					c.Event.Name = *patch.Name
				}
				if patch.Notes != nil {
					c.Event.Notes = patch.Notes
				}
				if patch.Year != nil {
					c.Event.Year = patch.Year
				}
			}
		case models.EntityConnection:
			if c.Connection != nil {
				if patch.RelType != nil {
					c.Connection.RelType = *patch.RelType
				}
				if patch.Notes != nil {
					c.Connection.Notes = patch.Notes
				}
			}
		case models.EntityPublication:
			if c.Publication != nil {
				if patch.Name != nil {
					c.Publication.Title = *patch.Name
				}
				if patch.Notes != nil {
					c.Publication.Notes = patch.Notes
				}
				if patch.Year != nil {
					c.Publication.Year = patch.Year
				}
			}
		case models.EntityQuote:
			if c.Quote != nil && patch.Notes != nil {
				c.Quote.Source = patch.Notes
			}
		}
	}
	return out
}

// cloneCandidate copies a candidate including its payload pointer, so
// overlay edits never leak into the stored snapshot.
func cloneCandidate(c models.Candidate) models.Candidate {
	if c.Thinker != nil {
		v := *c.Thinker
		c.Thinker = &v
	}
	if c.Event != nil {
		v := *c.Event
		c.Event = &v
	}
	if c.Connection != nil {
		v := *c.Connection
		c.Connection = &v
	}
	if c.Publication != nil {
		v := *c.Publication
		c.Publication = &v
	}
	if c.Quote != nil {
		v := *c.Quote
		c.Quote = &v
	}
	return c
}

// ApplyTimelinePatch merges an overlay's timeline edits into the draft.
func ApplyTimelinePatch(draft TimelineDraft, patch *models.TimelinePatch) TimelineDraft {
	if patch == nil {
		return draft
	}
	if patch.Name != nil {
		draft.Name = *patch.Name
	}
	if patch.Description != nil {
		draft.Description = patch.Description
	}
	if patch.StartYear != nil {
		draft.StartYear = patch.StartYear
	}
	if patch.EndYear != nil {
		draft.EndYear = patch.EndYear
	}
	return draft
}
