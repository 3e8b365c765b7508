package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// Sanity bounds for model-supplied biographical years.
const (
	enrichMinYear = -800
	enrichMaxYear = 2030
)

type enrichedThinker struct {
	Name       string  `json:"name"`
	BirthYear  *int    `json:"birth_year"`
	DeathYear  *int    `json:"death_year"`
	Confidence float64 `json:"confidence"`
}

type enrichResponse struct {
	Thinkers []enrichedThinker `json:"thinkers"`
}

// EnrichResult reports how the enrichment pass went.
type EnrichResult struct {
	Enriched int
	Warnings []string
}

// EnrichYears batches thinker candidates missing a birth or death year into
// one model prompt and fills accepted values in place. A value is accepted
// only above the confidence threshold, inside a sane historical range, and
// when it does not create a birth>death violation. Strict grounding mode
// disables the stage outright, since these years are not evidenced in the
// source text.
func EnrichYears(ctx context.Context, candidates []models.Candidate, completer Completer, minConfidence float64, strictGrounding bool) (*EnrichResult, error) {
	result := &EnrichResult{}

	if strictGrounding {
		result.Warnings = append(result.Warnings,
			"year enrichment disabled: strict grounding requires every value to be evidenced in the source text")
		return result, nil
	}
	if completer == nil {
		return result, nil
	}

	missing := map[string]*models.Candidate{}
	var names []string
	for i := range candidates {
		c := &candidates[i]
		if c.EntityType != models.EntityThinker || c.Thinker == nil {
			continue
		}
		if c.Thinker.BirthYear != nil && c.Thinker.DeathYear != nil {
			continue
		}
		norm := NormalizeName(c.Thinker.Name)
		missing[norm] = c
		names = append(names, c.Thinker.Name)
	}
	if len(names) == 0 {
		return result, nil
	}

	raw, err := completer.EnrichYears(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("enrich years: %w", err)
	}

	var parsed enrichResponse
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse enrichment output: %w", err)
	}

	for _, row := range parsed.Thinkers {
		c, ok := missing[NormalizeName(row.Name)]
		if !ok {
			continue
		}
		if row.Confidence < minConfidence {
			continue
		}

		birth := c.Thinker.BirthYear
		death := c.Thinker.DeathYear
		if birth == nil && yearSane(row.BirthYear) {
			birth = row.BirthYear
		}
		if death == nil && yearSane(row.DeathYear) {
			death = row.DeathYear
		}
		if birth != nil && death != nil && *birth > *death {
			continue
		}

		changed := false
		if c.Thinker.BirthYear == nil && birth != nil {
			c.Thinker.BirthYear = birth
			changed = true
		}
		if c.Thinker.DeathYear == nil && death != nil {
			c.Thinker.DeathYear = death
			changed = true
		}
		if changed {
			result.Enriched++
		}
	}

	return result, nil
}

func yearSane(year *int) bool {
	return year != nil && *year >= enrichMinYear && *year <= enrichMaxYear
}
