package bootstrap

import "strings"

// Chunk is one token-bounded slice of the normalized source text.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// ChunkSet is the full chunking result.
type ChunkSet struct {
	Chunks    []Chunk
	Truncated bool
}

// NormalizeText canonicalizes line endings and trims trailing whitespace per
// line. Evidence offsets are always relative to this normalized form.
func NormalizeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ShouldUseFullContext reports whether the whole text fits under the
// full-context threshold, in which case chunking is skipped and extraction
// runs once over the entire normalized text.
func ShouldUseFullContext(totalTokens, threshold int) bool {
	return totalTokens <= threshold
}

// ChunkText splits normalized content into paragraph-packed chunks of roughly
// targetTokens each. Each chunk after the first is seeded with a tail of the
// previous chunk's paragraphs summing to at least overlapRatio*targetTokens,
// so relations spanning a boundary stay extractable. At most maxChunks chunks
// are produced; remaining text is dropped and the result flagged truncated.
func ChunkText(content string, targetTokens int, overlapRatio float64, maxChunks int) ChunkSet {
	if targetTokens <= 0 {
		targetTokens = 1200
	}
	if maxChunks <= 0 {
		maxChunks = 24
	}

	paragraphs := splitParagraphs(content)
	if len(paragraphs) == 0 {
		return ChunkSet{}
	}

	overlapTokens := int(overlapRatio * float64(targetTokens))

	var set ChunkSet
	var current []string
	currentTokens := 0

	flush := func() bool {
		if len(current) == 0 {
			return true
		}
		if len(set.Chunks) >= maxChunks {
			set.Truncated = true
			return false
		}
		text := strings.Join(current, "\n\n")
		set.Chunks = append(set.Chunks, Chunk{
			Index:  len(set.Chunks),
			Text:   text,
			Tokens: currentTokens,
		})

		// Seed the next chunk with a paragraph tail covering the overlap budget
		var tail []string
		tailTokens := 0
		for i := len(current) - 1; i >= 0 && tailTokens < overlapTokens; i-- {
			tail = append([]string{current[i]}, tail...)
			tailTokens += EstimateTokens(current[i])
		}
		// A tail equal to the whole chunk would loop forever on one paragraph
		if len(tail) == len(current) {
			tail = nil
			tailTokens = 0
		}
		current = tail
		currentTokens = tailTokens
		return true
	}

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)
		if currentTokens > 0 && currentTokens+paraTokens > targetTokens {
			if !flush() {
				return set
			}
		}
		current = append(current, para)
		currentTokens += paraTokens
	}

	if len(current) > 0 {
		if len(set.Chunks) >= maxChunks {
			set.Truncated = true
		} else {
			set.Chunks = append(set.Chunks, Chunk{
				Index:  len(set.Chunks),
				Text:   strings.Join(current, "\n\n"),
				Tokens: currentTokens,
			})
		}
	}

	return set
}

// splitParagraphs splits on blank lines, dropping empties.
func splitParagraphs(content string) []string {
	raw := strings.Split(content, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, para := range raw {
		para = strings.TrimSpace(para)
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	return paragraphs
}
