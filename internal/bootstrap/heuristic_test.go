package bootstrap

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findByType(candidates []models.Candidate, entityType models.EntityType) []models.Candidate {
	var out []models.Candidate
	for _, c := range candidates {
		if c.EntityType == entityType {
			out = append(out, c)
		}
	}
	return out
}

func TestIsLikelyPersonName(t *testing.T) {
	tests := []struct {
		name   string
		person bool
	}{
		{"Immanuel Kant", true},
		{"René Descartes", true},
		{"Christian Wolff", true}, // -ian only rejects single tokens
		{"Rationalism", false},
		{"Empiricist", false},
		{"Epistemology", false},
		{"The Enlightenment", false},
		{"University", false},
		{"Royal Society", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.person, isLikelyPersonName(tt.name))
		})
	}
}

func TestHeuristicThinkers(t *testing.T) {
	t.Run("name with lifespan", func(t *testing.T) {
		text := "Immanuel Kant (1724-1804) transformed philosophy."
		thinkers := findByType(HeuristicExtract(0, text), models.EntityThinker)

		require.Len(t, thinkers, 1)
		th := thinkers[0]
		assert.Equal(t, "Immanuel Kant", th.Thinker.Name)
		require.NotNil(t, th.Thinker.BirthYear)
		require.NotNil(t, th.Thinker.DeathYear)
		assert.Equal(t, 1724, *th.Thinker.BirthYear)
		assert.Equal(t, 1804, *th.Thinker.DeathYear)
		assert.InDelta(t, 0.85, th.Confidence, 0.001)
		require.NotEmpty(t, th.Evidence)
		assert.True(t, VerifySpan(text, th.Evidence[0]))
	})

	t.Run("name without lifespan gets lower confidence", func(t *testing.T) {
		text := "David Hume questioned causation."
		thinkers := findByType(HeuristicExtract(0, text), models.EntityThinker)

		require.Len(t, thinkers, 1)
		assert.Equal(t, "David Hume", thinkers[0].Thinker.Name)
		assert.Nil(t, thinkers[0].Thinker.BirthYear)
		assert.InDelta(t, 0.6, thinkers[0].Confidence, 0.001)
	})

	t.Run("movements and places are not thinkers", func(t *testing.T) {
		text := "The Enlightenment spread across Europe."
		thinkers := findByType(HeuristicExtract(0, text), models.EntityThinker)
		assert.Empty(t, thinkers)
	})
}

func TestHeuristicConnections(t *testing.T) {
	t.Run("challenged maps to critiqued", func(t *testing.T) {
		text := "Albert Einstein challenged Isaac Newton."
		conns := findByType(HeuristicExtract(0, text), models.EntityConnection)

		require.Len(t, conns, 1)
		conn := conns[0].Connection
		assert.Equal(t, "Albert Einstein", conn.FromName)
		assert.Equal(t, "Isaac Newton", conn.ToName)
		assert.Equal(t, models.RelationCritiqued, conn.RelType)
		assert.InDelta(t, 0.65, conns[0].Confidence, 0.001)
	})

	t.Run("passive voice reverses direction", func(t *testing.T) {
		text := "Immanuel Kant was influenced by David Hume."
		conns := findByType(HeuristicExtract(0, text), models.EntityConnection)

		require.Len(t, conns, 1)
		conn := conns[0].Connection
		assert.Equal(t, "David Hume", conn.FromName)
		assert.Equal(t, "Immanuel Kant", conn.ToName)
		assert.Equal(t, models.RelationInfluenced, conn.RelType)
	})

	t.Run("no cue between names yields nothing", func(t *testing.T) {
		text := "Immanuel Kant and David Hume lived in the same century."
		conns := findByType(HeuristicExtract(0, text), models.EntityConnection)
		assert.Empty(t, conns)
	})

	t.Run("evidence covers the whole sentence", func(t *testing.T) {
		text := "An aside. Gottfried Leibniz critiqued John Locke at length."
		conns := findByType(HeuristicExtract(0, text), models.EntityConnection)

		require.Len(t, conns, 1)
		require.Len(t, conns[0].Evidence, 1)
		span := conns[0].Evidence[0]
		assert.True(t, VerifySpan(text, span))
		assert.Contains(t, span.Excerpt, "Leibniz critiqued John Locke")
	})
}

func TestHeuristicEvents(t *testing.T) {
	text := "Kant published his first major work in 1781."
	events := findByType(HeuristicExtract(0, text), models.EntityEvent)

	require.Len(t, events, 1)
	require.NotNil(t, events[0].Event.Year)
	assert.Equal(t, 1781, *events[0].Event.Year)
	assert.InDelta(t, 0.5, events[0].Confidence, 0.001)
}

func TestHeuristicEventNameTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte runes straddling the cutoff must not be split
	text := "The Leviathan appeared in 1651 " + strings.Repeat("é", 60) + "."
	events := findByType(HeuristicExtract(0, text), models.EntityEvent)

	require.Len(t, events, 1)
	name := events[0].Event.Name
	assert.True(t, utf8.ValidString(name))
	assert.LessOrEqual(t, len(name), 120)
}

func TestHeuristicPublications(t *testing.T) {
	t.Run("unquoted title with year", func(t *testing.T) {
		text := "Immanuel Kant wrote the Critique of Pure Reason in 1781."
		pubs := findByType(HeuristicExtract(0, text), models.EntityPublication)

		require.Len(t, pubs, 1)
		pub := pubs[0].Publication
		assert.Equal(t, "Immanuel Kant", pub.ThinkerName)
		assert.Equal(t, "Critique of Pure Reason", pub.Title)
		require.NotNil(t, pub.Year)
		assert.Equal(t, 1781, *pub.Year)
	})

	t.Run("quoted title", func(t *testing.T) {
		text := `David Hume published "A Treatise of Human Nature" anonymously.`
		pubs := findByType(HeuristicExtract(0, text), models.EntityPublication)

		require.Len(t, pubs, 1)
		assert.Equal(t, "A Treatise of Human Nature", pubs[0].Publication.Title)
		assert.Nil(t, pubs[0].Publication.Year)
	})
}

func TestHeuristicQuotes(t *testing.T) {
	text := `Immanuel Kant famously said, "Dare to know" and meant it.`
	quotes := findByType(HeuristicExtract(0, text), models.EntityQuote)

	require.Len(t, quotes, 1)
	quote := quotes[0].Quote
	assert.Equal(t, "Immanuel Kant", quote.ThinkerName)
	assert.Equal(t, "Dare to know", quote.Text)
	assert.InDelta(t, 0.7, quotes[0].Confidence, 0.001)
}
