package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns canned responses for each pipeline prompt.
type fakeCompleter struct {
	extractOut string
	salvageOut string
	enrichOut  string
	err        error

	extractCalls int
	salvageCalls int
	enrichCalls  int
}

func (f *fakeCompleter) ExtractEntities(_ context.Context, _ string, _ []string) (string, error) {
	f.extractCalls++
	return f.extractOut, f.err
}

func (f *fakeCompleter) SalvageConnections(_ context.Context, _ string, _ []string) (string, error) {
	f.salvageCalls++
	return f.salvageOut, f.err
}

func (f *fakeCompleter) EnrichYears(_ context.Context, _ []string) (string, error) {
	f.enrichCalls++
	return f.enrichOut, f.err
}

func TestEnrichYears(t *testing.T) {
	ctx := context.Background()

	t.Run("fills only missing years", func(t *testing.T) {
		completer := &fakeCompleter{enrichOut: `{"thinkers":[
			{"name":"Immanuel Kant","birth_year":1720,"death_year":1804,"confidence":0.95}
		]}`}
		c := thinkerCandidate("Immanuel Kant")
		c.Thinker.BirthYear = intPtr(1724)
		candidates := []models.Candidate{c}

		result, err := EnrichYears(ctx, candidates, completer, 0.7, false)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Enriched)
		assert.Equal(t, 1724, *candidates[0].Thinker.BirthYear, "existing value is never overwritten")
		require.NotNil(t, candidates[0].Thinker.DeathYear)
		assert.Equal(t, 1804, *candidates[0].Thinker.DeathYear)
	})

	t.Run("low confidence is ignored", func(t *testing.T) {
		completer := &fakeCompleter{enrichOut: `{"thinkers":[
			{"name":"Immanuel Kant","birth_year":1724,"death_year":1804,"confidence":0.4}
		]}`}
		candidates := []models.Candidate{thinkerCandidate("Immanuel Kant")}

		result, err := EnrichYears(ctx, candidates, completer, 0.7, false)
		require.NoError(t, err)
		assert.Zero(t, result.Enriched)
		assert.Nil(t, candidates[0].Thinker.BirthYear)
	})

	t.Run("implausible years are rejected", func(t *testing.T) {
		completer := &fakeCompleter{enrichOut: `{"thinkers":[
			{"name":"Immanuel Kant","birth_year":1724,"death_year":2500,"confidence":0.95}
		]}`}
		candidates := []models.Candidate{thinkerCandidate("Immanuel Kant")}

		result, err := EnrichYears(ctx, candidates, completer, 0.7, false)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Enriched)
		require.NotNil(t, candidates[0].Thinker.BirthYear)
		assert.Nil(t, candidates[0].Thinker.DeathYear)
	})

	t.Run("birth after death is rejected wholesale", func(t *testing.T) {
		completer := &fakeCompleter{enrichOut: `{"thinkers":[
			{"name":"Immanuel Kant","birth_year":1900,"death_year":1800,"confidence":0.95}
		]}`}
		candidates := []models.Candidate{thinkerCandidate("Immanuel Kant")}

		result, err := EnrichYears(ctx, candidates, completer, 0.7, false)
		require.NoError(t, err)
		assert.Zero(t, result.Enriched)
		assert.Nil(t, candidates[0].Thinker.BirthYear)
		assert.Nil(t, candidates[0].Thinker.DeathYear)
	})

	t.Run("strict grounding disables the stage", func(t *testing.T) {
		completer := &fakeCompleter{}
		candidates := []models.Candidate{thinkerCandidate("Immanuel Kant")}

		result, err := EnrichYears(ctx, candidates, completer, 0.7, true)
		require.NoError(t, err)
		assert.Zero(t, result.Enriched)
		assert.NotEmpty(t, result.Warnings)
		assert.Zero(t, completer.enrichCalls)
	})

	t.Run("complete thinkers trigger no call", func(t *testing.T) {
		completer := &fakeCompleter{}
		c := thinkerCandidate("Immanuel Kant")
		c.Thinker.BirthYear = intPtr(1724)
		c.Thinker.DeathYear = intPtr(1804)

		result, err := EnrichYears(ctx, []models.Candidate{c}, completer, 0.7, false)
		require.NoError(t, err)
		assert.Zero(t, result.Enriched)
		assert.Zero(t, completer.enrichCalls)
	})

	t.Run("completer failure surfaces", func(t *testing.T) {
		completer := &fakeCompleter{err: errors.New("model offline")}
		candidates := []models.Candidate{thinkerCandidate("Immanuel Kant")}

		_, err := EnrichYears(ctx, candidates, completer, 0.7, false)
		assert.Error(t, err)
	})
}
