package bootstrap

import (
	"context"
	"fmt"
	"testing"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// sequentialIDs returns a deterministic id generator for plan assertions.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func commitFixture() (models.Candidate, models.Candidate, models.Candidate, models.Candidate) {
	kant := includedThinker("Immanuel Kant")
	hume := includedThinker("David Hume")
	conn := includedConnection(hume, kant, models.RelationInfluenced)

	quote := models.Candidate{
		ID:         QuoteCandidateID("Immanuel Kant", "Dare to know."),
		EntityType: models.EntityQuote,
		Confidence: 0.7,
		Include:    true,
		Quote: &models.QuoteFields{
			ThinkerName: "Immanuel Kant",
			ThinkerKey:  kant.ID,
			Text:        "Dare to know.",
		},
		Evidence: []models.EvidenceSpan{{Excerpt: "Dare to know."}},
	}
	return kant, hume, conn, quote
}

func TestBuildCommitPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the full graph", func(t *testing.T) {
		kant, hume, conn, quote := commitFixture()
		candidates := []models.Candidate{kant, hume, conn, quote}
		diags := Validate(&TimelineDraft{Name: "Empiricists"}, candidates, ValidateOptions{})
		require.False(t, diags.HasBlocking)

		plan, stats, err := BuildCommitPlan(ctx, &fakeRegistry{}, "s1",
			TimelineDraft{Name: "Empiricists"}, candidates, diags, false, sequentialIDs())
		require.NoError(t, err)

		assert.Equal(t, "s1", plan.SessionID)
		assert.Equal(t, "Empiricists", plan.Timeline.Name)
		require.Len(t, plan.Thinkers, 2)
		for _, th := range plan.Thinkers {
			assert.Equal(t, models.ThinkerActionCreate, th.Action)
			require.NotNil(t, th.Input.TimelineID)
			assert.Equal(t, plan.TimelineID, *th.Input.TimelineID)
		}

		require.Len(t, plan.Connections, 1)
		assert.Equal(t, stats.IDMappings[hume.ID], plan.Connections[0].Input.FromID)
		assert.Equal(t, stats.IDMappings[kant.ID], plan.Connections[0].Input.ToID)

		require.Len(t, plan.Quotes, 1)
		assert.Equal(t, stats.IDMappings[kant.ID], plan.Quotes[0].Input.ThinkerID)

		assert.Equal(t, 1, stats.CreatedCounts["timeline"])
		assert.Equal(t, 2, stats.CreatedCounts[string(models.EntityThinker)])
		assert.Equal(t, 1, stats.CreatedCounts[string(models.EntityConnection)])
		assert.Equal(t, 1, stats.CreatedCounts[string(models.EntityQuote)])
		assert.Empty(t, stats.SkippedCounts)
	})

	t.Run("refuses blocking diagnostics without force", func(t *testing.T) {
		kant, _, _, _ := commitFixture()
		kant.MatchStatus = models.MatchReviewNeeded
		candidates := []models.Candidate{kant}
		diags := Validate(&TimelineDraft{Name: "Test"}, candidates, ValidateOptions{})
		require.True(t, diags.HasBlocking)

		_, _, err := BuildCommitPlan(ctx, &fakeRegistry{}, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, false, sequentialIDs())
		assert.ErrorIs(t, err, ErrBlockingDiagnostics)
	})

	t.Run("force skips blocked rows and their dependents", func(t *testing.T) {
		kant, hume, conn, quote := commitFixture()
		kant.MatchStatus = models.MatchReviewNeeded
		candidates := []models.Candidate{kant, hume, conn, quote}
		diags := Validate(&TimelineDraft{Name: "Test"}, candidates, ValidateOptions{})
		require.True(t, diags.HasBlocking)

		plan, stats, err := BuildCommitPlan(ctx, &fakeRegistry{}, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, true, sequentialIDs())
		require.NoError(t, err)

		require.Len(t, plan.Thinkers, 1)
		assert.Equal(t, "David Hume", plan.Thinkers[0].Input.Name)
		assert.Empty(t, plan.Connections, "connection lost its endpoint")
		assert.Empty(t, plan.Quotes, "quote lost its owner")
		assert.Equal(t, 1, stats.SkippedCounts[string(models.EntityThinker)])
		assert.Equal(t, 1, stats.SkippedCounts[string(models.EntityConnection)])
		assert.Equal(t, 1, stats.SkippedCounts[string(models.EntityQuote)])
	})

	t.Run("missing owner errors without force", func(t *testing.T) {
		_, hume, _, quote := commitFixture()
		// Owner thinker absent from the candidate set entirely
		candidates := []models.Candidate{hume, quote}
		diags := &Diagnostics{}

		_, _, err := BuildCommitPlan(ctx, &fakeRegistry{}, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, false, sequentialIDs())
		assert.ErrorIs(t, err, ErrMissingDependency)
	})

	t.Run("skips connection already in the canonical store", func(t *testing.T) {
		kant, hume, conn, _ := commitFixture()
		candidates := []models.Candidate{kant, hume, conn}
		diags := Validate(&TimelineDraft{Name: "Test"}, candidates, ValidateOptions{})
		require.False(t, diags.HasBlocking)

		// Sequential ids: timeline id-1, kant id-2, hume id-3. The connection
		// runs hume -> kant, so its mapped pair is id-3 -> id-2.
		registry := &fakeRegistry{connections: map[string]*models.Connection{
			"id-3->id-2": {ID: surrealmodels.RecordID{Table: "connection", ID: "existing"}},
		}}

		plan, stats, err := BuildCommitPlan(ctx, registry, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, false, sequentialIDs())
		require.NoError(t, err)

		assert.Empty(t, plan.Connections)
		assert.Equal(t, 1, stats.SkippedCounts[string(models.EntityConnection)])
		assert.NotEmpty(t, stats.Warnings)
	})

	t.Run("reuses an unclaimed canonical thinker by attaching", func(t *testing.T) {
		kant, hume, conn, quote := commitFixture()
		kant.MatchStatus = models.MatchReuseHigh
		kant.MatchedThinkerID = strPtr("existing-kant")
		registry := &fakeRegistry{thinkers: []models.Thinker{
			canonicalThinker("existing-kant", "Immanuel Kant"),
		}}

		candidates := []models.Candidate{kant, hume, conn, quote}
		diags := Validate(&TimelineDraft{Name: "Test"}, candidates, ValidateOptions{})
		require.False(t, diags.HasBlocking)

		plan, stats, err := BuildCommitPlan(ctx, registry, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, false, sequentialIDs())
		require.NoError(t, err)

		var attached *models.PlannedThinker
		for i := range plan.Thinkers {
			if plan.Thinkers[i].Action == models.ThinkerActionAttach {
				attached = &plan.Thinkers[i]
			}
		}
		require.NotNil(t, attached)
		assert.Equal(t, "existing-kant", attached.ExistingID)
		assert.Equal(t, "existing-kant", stats.IDMappings[kant.ID])
		// Downstream rows point at the canonical id
		require.Len(t, plan.Connections, 1)
		assert.Equal(t, "existing-kant", plan.Connections[0].Input.ToID)
		require.Len(t, plan.Quotes, 1)
		assert.Equal(t, "existing-kant", plan.Quotes[0].Input.ThinkerID)
		// Attach does not count as a creation
		assert.Equal(t, 1, stats.CreatedCounts[string(models.EntityThinker)])
	})

	t.Run("clones a thinker already claimed by another timeline", func(t *testing.T) {
		kant, _, _, _ := commitFixture()
		kant.MatchStatus = models.MatchReuseHigh
		kant.MatchedThinkerID = strPtr("existing-kant")

		canonical := canonicalThinker("existing-kant", "Immanuel Kant")
		canonical.TimelineID = strPtr("other-timeline")
		canonical.BirthYear = intPtr(1724)
		canonical.Discipline = strPtr("philosophy")
		registry := &fakeRegistry{thinkers: []models.Thinker{canonical}}

		candidates := []models.Candidate{kant}
		diags := Validate(&TimelineDraft{Name: "Test"}, candidates, ValidateOptions{})
		require.False(t, diags.HasBlocking)

		plan, stats, err := BuildCommitPlan(ctx, registry, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, false, sequentialIDs())
		require.NoError(t, err)

		require.Len(t, plan.Thinkers, 1)
		th := plan.Thinkers[0]
		assert.Equal(t, models.ThinkerActionClone, th.Action)
		assert.Equal(t, "existing-kant", th.ExistingID)
		assert.NotEmpty(t, th.NewID)
		// Canonical metadata carried into the clone
		require.NotNil(t, th.Input.BirthYear)
		assert.Equal(t, 1724, *th.Input.BirthYear)
		require.NotNil(t, th.Input.Discipline)
		assert.Equal(t, "philosophy", *th.Input.Discipline)
		assert.NotEmpty(t, stats.Warnings)
	})

	t.Run("vanished match falls back to create with a warning", func(t *testing.T) {
		kant, _, _, _ := commitFixture()
		kant.MatchStatus = models.MatchReuseHigh
		kant.MatchedThinkerID = strPtr("gone")

		candidates := []models.Candidate{kant}
		diags := Validate(&TimelineDraft{Name: "Test"}, candidates, ValidateOptions{})
		require.False(t, diags.HasBlocking)

		plan, stats, err := BuildCommitPlan(ctx, &fakeRegistry{}, "s1",
			TimelineDraft{Name: "Test"}, candidates, diags, false, sequentialIDs())
		require.NoError(t, err)

		require.Len(t, plan.Thinkers, 1)
		assert.Equal(t, models.ThinkerActionCreate, plan.Thinkers[0].Action)
		assert.NotEmpty(t, stats.Warnings)
	})
}
