package bootstrap

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// relationCues maps each relation type to the surface verbs that support it.
var relationCues = map[string][]string{
	models.RelationInfluenced:  {"influenc", "inspir", "shaped", "mentor", "taught", "student of", "follower of"},
	models.RelationCritiqued:   {"critiqu", "criticiz", "criticis", "challeng", "attack", "refut", "reject", "disput", "debat", "argued", "opposed", "objected"},
	models.RelationBuiltUpon:   {"built upon", "built on", "extend", "expand", "develop", "elaborat", "continu", "advanc", "drew on", "drawing on", "based on"},
	models.RelationSynthesized: {"synthesi", "combin", "merg", "unif", "reconcil", "integrat", "bridg"},
}

// findSpan locates the excerpt in the chunk text case-insensitively and
// returns a grounded evidence span, or false when absent. Matching walks the
// original text so offsets stay valid where lowercasing changes rune widths
// (e.g. U+0130).
func findSpan(chunkIndex int, chunkText, excerpt string) (models.EvidenceSpan, bool) {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return models.EvidenceSpan{}, false
	}
	for i := range chunkText {
		n, ok := foldMatchLen(chunkText[i:], excerpt)
		if !ok {
			continue
		}
		return models.EvidenceSpan{
			ChunkIndex: chunkIndex,
			CharStart:  i,
			CharEnd:    i + n,
			Excerpt:    chunkText[i : i+n],
		}, true
	}
	return models.EvidenceSpan{}, false
}

// foldMatchLen reports the byte length of a case-insensitive match of substr
// at the start of s.
func foldMatchLen(s, substr string) (int, bool) {
	n := 0
	for _, sr := range substr {
		tr, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if tr != sr && unicode.ToLower(tr) != unicode.ToLower(sr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// VerifySpan checks that a span's excerpt matches its chunk at the recorded
// offsets, case-insensitively.
func VerifySpan(chunkText string, span models.EvidenceSpan) bool {
	if span.CharStart < 0 || span.CharEnd > len(chunkText) || span.CharStart >= span.CharEnd {
		return false
	}
	return strings.EqualFold(chunkText[span.CharStart:span.CharEnd], span.Excerpt)
}

// groundExcerpts converts claimed excerpt strings to verified spans. Excerpts
// that cannot be located are silently dropped; the caller decides whether the
// item survives with what remains.
func groundExcerpts(chunkIndex int, chunkText string, excerpts []string) []models.EvidenceSpan {
	var spans []models.EvidenceSpan
	for _, excerpt := range excerpts {
		if span, ok := findSpan(chunkIndex, chunkText, excerpt); ok {
			spans = append(spans, span)
		}
	}
	return spans
}

// fragmentGrounded reports whether a claimed fragment (name, title, quote
// text) is literally present in the chunk, case-insensitively.
func fragmentGrounded(chunkText, fragment string) bool {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return false
	}
	return strings.Contains(strings.ToLower(chunkText), strings.ToLower(fragment))
}

// splitSentences breaks text on sentence-ending punctuation. Used for the
// connection cue check, which is sentence-scoped.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == ';' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// connectionSupported checks the syntactic-support rule: some sentence of
// some evidence excerpt must contain both endpoint names and a cue word from
// the claimed relation type's verb set. Endpoint surnames count; a full-name
// mention is not required inside the excerpt.
func connectionSupported(fromName, toName, relType string, evidence []models.EvidenceSpan) bool {
	cues, ok := relationCues[relType]
	if !ok {
		return false
	}
	fromToken := strings.ToLower(lastNameToken(fromName))
	toToken := strings.ToLower(lastNameToken(toName))
	if fromToken == "" || toToken == "" {
		return false
	}
	for _, span := range evidence {
		for _, sentence := range splitSentences(span.Excerpt) {
			lower := strings.ToLower(sentence)
			if !strings.Contains(lower, fromToken) || !strings.Contains(lower, toToken) {
				continue
			}
			for _, cue := range cues {
				if strings.Contains(lower, cue) {
					return true
				}
			}
		}
	}
	return false
}

// lastNameToken returns the final token of a name, the usual surname form
// prose falls back to after a first full mention.
func lastNameToken(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
