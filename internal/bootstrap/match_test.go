package bootstrap

import (
	"context"
	"testing"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// fakeRegistry is an in-memory Registry for matcher and commit-planner tests.
type fakeRegistry struct {
	thinkers    []models.Thinker
	connections map[string]*models.Connection
}

func (f *fakeRegistry) ListThinkersByName(_ context.Context, normName string) ([]models.Thinker, error) {
	var out []models.Thinker
	for _, th := range f.thinkers {
		if NormalizeName(th.Name) == normName {
			out = append(out, th)
		}
	}
	return out, nil
}

func (f *fakeRegistry) ListThinkers(_ context.Context, _ int) ([]models.Thinker, error) {
	return f.thinkers, nil
}

func (f *fakeRegistry) GetThinker(_ context.Context, id string) (*models.Thinker, error) {
	for i := range f.thinkers {
		if models.MustRecordIDString(f.thinkers[i].ID) == id {
			return &f.thinkers[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) FindConnectionByPair(_ context.Context, fromID, toID string) (*models.Connection, error) {
	if f.connections == nil {
		return nil, nil
	}
	return f.connections[fromID+"->"+toID], nil
}

func canonicalThinker(id, name string) models.Thinker {
	return models.Thinker{
		ID:   surrealmodels.RecordID{Table: "thinker", ID: id},
		Name: name,
	}
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func thinkerCandidate(name string) models.Candidate {
	return models.Candidate{
		ID:         ThinkerCandidateID(name),
		EntityType: models.EntityThinker,
		Confidence: 0.8,
		Include:    true,
		Thinker:    &models.ThinkerFields{Name: name},
		Evidence:   []models.EvidenceSpan{{Excerpt: name}},
	}
}

func TestNameTier(t *testing.T) {
	assert.Equal(t, 3, nameTier("immanuel kant", "immanuel kant"))
	assert.Equal(t, 2, nameTier("i. kant", "immanuel kant"))
	assert.Equal(t, 2, nameTier("kant", "immanuel kant"))
	assert.Equal(t, 1, nameTier("immanuel cant", "immanuel kant"))
	assert.Equal(t, 0, nameTier("plato", "immanuel kant"))
	assert.Equal(t, 0, nameTier("", "immanuel kant"))
}

func TestMatchThinkersExactSingle(t *testing.T) {
	ctx := context.Background()
	canonical := canonicalThinker("t1", "Immanuel Kant")
	canonical.BirthYear = intPtr(1724)
	canonical.DeathYear = intPtr(1804)
	canonical.Discipline = strPtr("philosophy")
	registry := &fakeRegistry{thinkers: []models.Thinker{canonical}}

	c := thinkerCandidate("Immanuel Kant")
	c.Thinker.BirthYear = intPtr(1724)
	c.Thinker.DeathYear = intPtr(1804)
	candidates := []models.Candidate{c}

	require.NoError(t, MatchThinkers(ctx, candidates, registry))

	got := candidates[0]
	assert.Equal(t, models.MatchReuseHigh, got.MatchStatus)
	require.NotNil(t, got.MatchedThinkerID)
	assert.Equal(t, "t1", *got.MatchedThinkerID)
	assert.GreaterOrEqual(t, got.MatchScore, matchReuseThreshold)
	assert.Contains(t, got.MatchReasons, "exact name match")

	// Missing discipline autofilled from the canonical record
	require.NotNil(t, got.Thinker.Discipline)
	assert.Equal(t, "philosophy", *got.Thinker.Discipline)
	assert.Contains(t, got.MetadataDelta, "discipline")
}

func TestMatchThinkersYearDisagreement(t *testing.T) {
	ctx := context.Background()
	canonical := canonicalThinker("t1", "Immanuel Kant")
	canonical.BirthYear = intPtr(1724)
	registry := &fakeRegistry{thinkers: []models.Thinker{canonical}}

	c := thinkerCandidate("Immanuel Kant")
	c.Thinker.BirthYear = intPtr(1624) // a century off
	candidates := []models.Candidate{c}

	require.NoError(t, MatchThinkers(ctx, candidates, registry))

	got := candidates[0]
	assert.Equal(t, models.MatchReviewNeeded, got.MatchStatus)
	assert.Less(t, got.MatchScore, matchReuseThreshold)
	assert.Contains(t, got.MatchReasons, "years disagree")
	// Autofill never overwrites the candidate's own value
	assert.Equal(t, 1624, *got.Thinker.BirthYear)
}

func TestMatchThinkersExactMulti(t *testing.T) {
	ctx := context.Background()

	t.Run("conflicting years always need review", func(t *testing.T) {
		a := canonicalThinker("t1", "John Smith")
		a.BirthYear = intPtr(1700)
		b := canonicalThinker("t2", "John Smith")
		b.BirthYear = intPtr(1850)
		registry := &fakeRegistry{thinkers: []models.Thinker{a, b}}

		candidates := []models.Candidate{thinkerCandidate("John Smith")}
		require.NoError(t, MatchThinkers(ctx, candidates, registry))

		assert.Equal(t, models.MatchReviewNeeded, candidates[0].MatchStatus)
		assert.Nil(t, candidates[0].MatchedThinkerID)
	})

	t.Run("agreeing duplicates reuse the richest record", func(t *testing.T) {
		a := canonicalThinker("t1", "Immanuel Kant")
		a.BirthYear = intPtr(1724)
		b := canonicalThinker("t2", "Immanuel Kant")
		b.BirthYear = intPtr(1724)
		b.DeathYear = intPtr(1804)
		b.Discipline = strPtr("philosophy")
		registry := &fakeRegistry{thinkers: []models.Thinker{a, b}}

		c := thinkerCandidate("Immanuel Kant")
		c.Thinker.BirthYear = intPtr(1724)
		c.Thinker.DeathYear = intPtr(1804)
		candidates := []models.Candidate{c}
		require.NoError(t, MatchThinkers(ctx, candidates, registry))

		got := candidates[0]
		assert.Equal(t, models.MatchReuseHigh, got.MatchStatus)
		require.NotNil(t, got.MatchedThinkerID)
		assert.Equal(t, "t2", *got.MatchedThinkerID)
	})

	t.Run("disagreeing metadata demotes to review", func(t *testing.T) {
		a := canonicalThinker("t1", "John Smith")
		a.Discipline = strPtr("economics")
		b := canonicalThinker("t2", "John Smith")
		b.Discipline = strPtr("theology")
		registry := &fakeRegistry{thinkers: []models.Thinker{a, b}}

		candidates := []models.Candidate{thinkerCandidate("John Smith")}
		require.NoError(t, MatchThinkers(ctx, candidates, registry))

		assert.Equal(t, models.MatchReviewNeeded, candidates[0].MatchStatus)
	})
}

func TestMatchThinkersFuzzy(t *testing.T) {
	ctx := context.Background()

	t.Run("near-exact name with agreeing years needs review", func(t *testing.T) {
		canonical := canonicalThinker("t1", "Immanuel Kant")
		canonical.BirthYear = intPtr(1724)
		canonical.DeathYear = intPtr(1804)
		registry := &fakeRegistry{thinkers: []models.Thinker{canonical}}

		c := thinkerCandidate("I. Kant")
		c.Thinker.BirthYear = intPtr(1724)
		c.Thinker.DeathYear = intPtr(1804)
		candidates := []models.Candidate{c}
		require.NoError(t, MatchThinkers(ctx, candidates, registry))

		got := candidates[0]
		assert.Equal(t, models.MatchReviewNeeded, got.MatchStatus)
		require.NotNil(t, got.MatchedThinkerID)
		assert.Equal(t, "t1", *got.MatchedThinkerID)
		assert.InDelta(t, 0.75, got.MatchScore, 0.001)
	})

	t.Run("unrelated name creates new", func(t *testing.T) {
		registry := &fakeRegistry{thinkers: []models.Thinker{canonicalThinker("t1", "Immanuel Kant")}}

		candidates := []models.Candidate{thinkerCandidate("Mary Wollstonecraft")}
		require.NoError(t, MatchThinkers(ctx, candidates, registry))

		assert.Equal(t, models.MatchCreateNew, candidates[0].MatchStatus)
		assert.Nil(t, candidates[0].MatchedThinkerID)
	})

	t.Run("empty registry creates new", func(t *testing.T) {
		registry := &fakeRegistry{}
		candidates := []models.Candidate{thinkerCandidate("Immanuel Kant")}
		require.NoError(t, MatchThinkers(ctx, candidates, registry))
		assert.Equal(t, models.MatchCreateNew, candidates[0].MatchStatus)
	})
}
