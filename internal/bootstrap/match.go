package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// Match classification thresholds.
const (
	matchReuseThreshold  = 0.9
	matchReviewThreshold = 0.75
	yearBonusWindow      = 2
)

// MatchThinkers classifies every thinker candidate against the canonical
// registry, mutating match fields in place. The full registry is fetched
// once per pass for fuzzy scanning.
func MatchThinkers(ctx context.Context, candidates []models.Candidate, registry Registry) error {
	var all []models.Thinker
	var allLoaded bool

	for i := range candidates {
		c := &candidates[i]
		if c.EntityType != models.EntityThinker || c.Thinker == nil {
			continue
		}

		norm := NormalizeName(c.Thinker.Name)
		exact, err := registry.ListThinkersByName(ctx, norm)
		if err != nil {
			return fmt.Errorf("match thinker %q: %w", c.Thinker.Name, err)
		}

		switch {
		case len(exact) == 1:
			classifyExactSingle(c, &exact[0])
		case len(exact) > 1:
			classifyExactMulti(c, exact)
		default:
			if !allLoaded {
				all, err = registry.ListThinkers(ctx, 0)
				if err != nil {
					return fmt.Errorf("load registry: %w", err)
				}
				allLoaded = true
			}
			classifyFuzzy(c, all)
		}
	}
	return nil
}

func classifyExactSingle(c *models.Candidate, canonical *models.Thinker) {
	score, reasons := scoreThinker(c.Thinker, canonical)
	id := models.MustRecordIDString(canonical.ID)
	c.MatchScore = score
	c.MatchReasons = append([]string{"exact name match"}, reasons...)
	c.MatchedThinkerID = &id
	if score >= matchReuseThreshold {
		c.MatchStatus = models.MatchReuseHigh
	} else {
		c.MatchStatus = models.MatchReviewNeeded
	}
	autofillFromCanonical(c, canonical)
}

// classifyExactMulti handles several canonical rows sharing the candidate's
// name. Disagreeing birth/death years mean they may be distinct people, so
// the match is always review_needed. Agreeing duplicates are treated as
// equivalent and the richest-metadata row wins — unless their populated
// non-year fields disagree, which also demotes to review.
func classifyExactMulti(c *models.Candidate, rows []models.Thinker) {
	if yearsConflict(rows) {
		c.MatchStatus = models.MatchReviewNeeded
		c.MatchScore = 0
		c.MatchReasons = []string{
			fmt.Sprintf("%d canonical thinkers share this name with conflicting years", len(rows)),
		}
		return
	}

	richest := &rows[0]
	for i := range rows[1:] {
		if rows[i+1].MetadataFieldCount() > richest.MetadataFieldCount() {
			richest = &rows[i+1]
		}
	}

	if nonYearFieldsConflict(rows) {
		id := models.MustRecordIDString(richest.ID)
		c.MatchStatus = models.MatchReviewNeeded
		c.MatchedThinkerID = &id
		c.MatchReasons = []string{
			fmt.Sprintf("%d canonical thinkers share this name; metadata disagrees across them", len(rows)),
		}
		return
	}

	score, reasons := scoreThinker(c.Thinker, richest)
	id := models.MustRecordIDString(richest.ID)
	c.MatchScore = score
	c.MatchedThinkerID = &id
	c.MatchStatus = models.MatchReuseHigh
	c.MatchReasons = append([]string{
		fmt.Sprintf("%d equivalent canonical duplicates; richest metadata selected", len(rows)),
	}, reasons...)
	autofillFromCanonical(c, richest)
}

func classifyFuzzy(c *models.Candidate, registry []models.Thinker) {
	var best *models.Thinker
	bestScore := 0.0
	var bestReasons []string

	for i := range registry {
		score, reasons := scoreThinker(c.Thinker, &registry[i])
		if score > bestScore {
			best = &registry[i]
			bestScore = score
			bestReasons = reasons
		}
	}

	c.MatchScore = bestScore
	switch {
	case best != nil && bestScore >= matchReuseThreshold:
		id := models.MustRecordIDString(best.ID)
		c.MatchStatus = models.MatchReuseHigh
		c.MatchedThinkerID = &id
		c.MatchReasons = bestReasons
		autofillFromCanonical(c, best)
	case best != nil && bestScore >= matchReviewThreshold:
		id := models.MustRecordIDString(best.ID)
		c.MatchStatus = models.MatchReviewNeeded
		c.MatchedThinkerID = &id
		c.MatchReasons = bestReasons
	default:
		c.MatchStatus = models.MatchCreateNew
		c.MatchReasons = nil
		c.MatchedThinkerID = nil
	}
}

// scoreThinker computes the weighted fuzzy score in [0,1]: name-similarity
// tier, year proximity bonus, and field overlap bonus.
func scoreThinker(candidate *models.ThinkerFields, canonical *models.Thinker) (float64, []string) {
	var reasons []string
	score := 0.0

	candNorm := NormalizeName(candidate.Name)
	canonNorm := NormalizeName(canonical.Name)

	switch nameTier(candNorm, canonNorm) {
	case 3:
		score += 0.7
		reasons = append(reasons, "name exact")
	case 2:
		score += 0.55
		reasons = append(reasons, "name near-exact")
	case 1:
		score += 0.4
		reasons = append(reasons, "name high-similarity")
	default:
		return 0, nil
	}

	yearHits := 0
	yearComparisons := 0
	for _, pair := range [][2]*int{
		{candidate.BirthYear, canonical.BirthYear},
		{candidate.DeathYear, canonical.DeathYear},
	} {
		if pair[0] == nil || pair[1] == nil {
			continue
		}
		yearComparisons++
		if abs(*pair[0]-*pair[1]) <= yearBonusWindow {
			yearHits++
		}
	}
	if yearComparisons > 0 && yearHits == yearComparisons {
		score += 0.2
		reasons = append(reasons, "years agree")
	} else if yearComparisons > 0 && yearHits == 0 {
		score -= 0.3
		reasons = append(reasons, "years disagree")
	}

	overlap := 0
	for _, pair := range [][2]*string{
		{candidate.Era, canonical.Era},
		{candidate.Discipline, canonical.Discipline},
		{candidate.Nationality, canonical.Nationality},
	} {
		if pair[0] == nil || pair[1] == nil {
			continue
		}
		a, b := strings.ToLower(*pair[0]), strings.ToLower(*pair[1])
		if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
			overlap++
		}
	}
	if overlap > 0 {
		score += 0.05 * float64(overlap)
		reasons = append(reasons, fmt.Sprintf("%d fields overlap", overlap))
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, reasons
}

// nameTier ranks name similarity: 3 exact, 2 near-exact (surname plus
// matching first initial, or containment), 1 high-similarity by edit
// distance, 0 unrelated.
func nameTier(a, b string) int {
	if a == b {
		return 3
	}
	if a == "" || b == "" {
		return 0
	}

	aFields, bFields := strings.Fields(a), strings.Fields(b)
	if len(aFields) > 0 && len(bFields) > 0 {
		if aFields[len(aFields)-1] == bFields[len(bFields)-1] &&
			aFields[0][:1] == bFields[0][:1] {
			return 2
		}
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 2
	}

	dist := levenshtein.ComputeDistance(a, b)
	longer := max(len(a), len(b))
	if longer > 0 && float64(dist)/float64(longer) <= 0.2 {
		return 1
	}
	return 0
}

// yearsConflict reports whether any two rows disagree on a populated birth
// or death year beyond the bonus window.
func yearsConflict(rows []models.Thinker) bool {
	conflict := func(get func(*models.Thinker) *int) bool {
		var seen *int
		for i := range rows {
			v := get(&rows[i])
			if v == nil {
				continue
			}
			if seen != nil && abs(*seen-*v) > yearBonusWindow {
				return true
			}
			seen = v
		}
		return false
	}
	return conflict(func(t *models.Thinker) *int { return t.BirthYear }) ||
		conflict(func(t *models.Thinker) *int { return t.DeathYear })
}

// nonYearFieldsConflict reports disagreement between populated era,
// discipline, or nationality values across exact-name duplicates.
func nonYearFieldsConflict(rows []models.Thinker) bool {
	conflict := func(get func(*models.Thinker) *string) bool {
		seen := ""
		for i := range rows {
			v := get(&rows[i])
			if v == nil || *v == "" {
				continue
			}
			lower := strings.ToLower(*v)
			if seen != "" && seen != lower {
				return true
			}
			seen = lower
		}
		return false
	}
	return conflict(func(t *models.Thinker) *string { return t.Era }) ||
		conflict(func(t *models.Thinker) *string { return t.Discipline }) ||
		conflict(func(t *models.Thinker) *string { return t.Nationality })
}

// autofillFromCanonical fills null candidate fields from the matched record
// and records every autofill and disagreement in the metadata delta. A
// candidate's non-null field is never overwritten.
func autofillFromCanonical(c *models.Candidate, canonical *models.Thinker) {
	delta := map[string]string{}

	fillInt := func(field string, dst **int, src *int) {
		if src == nil {
			return
		}
		if *dst == nil {
			v := *src
			*dst = &v
			delta[field] = fmt.Sprintf("autofilled %d from canonical record", v)
		} else if **dst != *src {
			delta[field] = fmt.Sprintf("candidate has %d, canonical has %d", **dst, *src)
		}
	}
	fillStr := func(field string, dst **string, src *string) {
		if src == nil || *src == "" {
			return
		}
		if *dst == nil || **dst == "" {
			v := *src
			*dst = &v
			delta[field] = fmt.Sprintf("autofilled %q from canonical record", v)
		} else if !strings.EqualFold(**dst, *src) {
			delta[field] = fmt.Sprintf("candidate has %q, canonical has %q", **dst, *src)
		}
	}

	fillInt("birth_year", &c.Thinker.BirthYear, canonical.BirthYear)
	fillInt("death_year", &c.Thinker.DeathYear, canonical.DeathYear)
	fillStr("era", &c.Thinker.Era, canonical.Era)
	fillStr("discipline", &c.Thinker.Discipline, canonical.Discipline)
	fillStr("nationality", &c.Thinker.Nationality, canonical.Nationality)

	if len(delta) > 0 {
		c.MetadataDelta = delta
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
