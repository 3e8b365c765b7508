package bootstrap

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	t.Run("canonicalizes line endings", func(t *testing.T) {
		got := NormalizeText("first\r\nsecond\rthird")
		assert.Equal(t, "first\nsecond\nthird", got)
	})

	t.Run("trims trailing whitespace per line", func(t *testing.T) {
		got := NormalizeText("first line   \nsecond line\t\n")
		assert.Equal(t, "first line\nsecond line", got)
	})

	t.Run("preserves blank-line paragraph breaks", func(t *testing.T) {
		got := NormalizeText("para one\n\npara two")
		assert.Equal(t, "para one\n\npara two", got)
	})
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	// 11 chars -> 2 by length, 2 words -> 2
	assert.Equal(t, 2, EstimateTokens("hello world"))
	// word count dominates for many short words
	assert.Equal(t, 6, EstimateTokens("a b c d e f"))
}

func TestShouldUseFullContext(t *testing.T) {
	assert.True(t, ShouldUseFullContext(5000, 6000))
	assert.True(t, ShouldUseFullContext(6000, 6000))
	assert.False(t, ShouldUseFullContext(6001, 6000))
}

// testParagraph builds a distinct paragraph worth roughly 70 tokens.
func testParagraph(i int) string {
	return fmt.Sprintf("para%d %s", i, strings.TrimSpace(strings.Repeat("filler ", 40)))
}

func TestChunkText(t *testing.T) {
	t.Run("small text yields one chunk", func(t *testing.T) {
		set := ChunkText("just a short paragraph", 1200, 0.15, 24)
		require.Len(t, set.Chunks, 1)
		assert.False(t, set.Truncated)
		assert.Equal(t, 0, set.Chunks[0].Index)
		assert.Equal(t, "just a short paragraph", set.Chunks[0].Text)
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		set := ChunkText("", 1200, 0.15, 24)
		assert.Empty(t, set.Chunks)
	})

	t.Run("packs paragraphs up to the target", func(t *testing.T) {
		var paras []string
		for i := 1; i <= 4; i++ {
			paras = append(paras, testParagraph(i))
		}
		set := ChunkText(strings.Join(paras, "\n\n"), 150, 0.3, 24)

		require.Greater(t, len(set.Chunks), 1)
		assert.False(t, set.Truncated)
		for i, chunk := range set.Chunks {
			assert.Equal(t, i, chunk.Index)
			assert.NotEmpty(t, chunk.Text)
			assert.Positive(t, chunk.Tokens)
		}
	})

	t.Run("seeds each chunk with the previous tail", func(t *testing.T) {
		var paras []string
		for i := 1; i <= 4; i++ {
			paras = append(paras, testParagraph(i))
		}
		set := ChunkText(strings.Join(paras, "\n\n"), 150, 0.3, 24)

		require.GreaterOrEqual(t, len(set.Chunks), 2)
		// Chunk 0 ends with para2; chunk 1 must start with it again
		assert.Contains(t, set.Chunks[0].Text, "para2")
		assert.True(t, strings.HasPrefix(set.Chunks[1].Text, "para2"),
			"second chunk should start with the overlap tail, got: %.40s", set.Chunks[1].Text)
	})

	t.Run("no overlap when the tail would be the whole chunk", func(t *testing.T) {
		var paras []string
		for i := 1; i <= 3; i++ {
			paras = append(paras, testParagraph(i))
		}
		// Overlap budget exceeds every chunk, which would loop forever if
		// the tail were kept
		set := ChunkText(strings.Join(paras, "\n\n"), 80, 0.99, 24)
		require.NotEmpty(t, set.Chunks)
		for i, chunk := range set.Chunks {
			if i == 0 {
				continue
			}
			assert.NotEqual(t, set.Chunks[i-1].Text, chunk.Text)
		}
	})

	t.Run("caps chunk count and flags truncation", func(t *testing.T) {
		var paras []string
		for i := 1; i <= 12; i++ {
			paras = append(paras, testParagraph(i))
		}
		set := ChunkText(strings.Join(paras, "\n\n"), 80, 0, 2)

		assert.Len(t, set.Chunks, 2)
		assert.True(t, set.Truncated)
	})
}
