package bootstrap

import "strings"

// EstimateTokens approximates the token count for a piece of text.
// Uses the common 4-characters-per-token heuristic with a word-count floor
// so short, word-dense text is not underestimated.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byChars := len(text) / 4
	byWords := len(strings.Fields(text))
	if byWords > byChars {
		return byWords
	}
	if byChars == 0 {
		return 1
	}
	return byChars
}
