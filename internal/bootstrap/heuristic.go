package bootstrap

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// The heuristic extractor is the deterministic fallback (and augmentation)
// for model-backed extraction. Everything it emits is grounded by
// construction: evidence spans come straight from regex match offsets.

var (
	nameRe = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:(?:\s+(?:van|von|de|der|la|le|du|di))?\s+\p{Lu}\p{Ll}+){1,3}`)

	// (1724-1804), 1724–1804, with en/em dash or hyphen
	lifespanRe = regexp.MustCompile(`\(?\s*(\d{3,4})\s*[–—-]\s*(\d{3,4})\s*\)?`)

	yearAnchorRe = regexp.MustCompile(`\bin\s+(1\d{3}|20\d{2})\b`)

	publicationRe = regexp.MustCompile(`(\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+){0,3})\s+(?:wrote|published|authored)\s+(?:the\s+)?(?:"([^"]+)"|'([^']+)'|(\p{Lu}[\p{L}']+(?:\s+(?:of|the|a|an|and|on|\p{Lu}[\p{L}']+)){0,7}))`)

	quoteLeadRe  = regexp.MustCompile(`(\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+){0,3})\s+(?:once\s+)?(?:famously\s+)?(?:said|wrote|declared|remarked|observed|stated)[,:]?\s+"([^"]+)"`)
	quoteTrailRe = regexp.MustCompile(`"([^"]+)"[,]?\s*(?:—|--|-)?\s*(?:said|wrote|declared|remarked)?\s*(\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+){0,3})\s+(?:said|wrote|declared|remarked)`)

	debateWithRe = regexp.MustCompile(`(?i)\b(debated|argued|corresponded|quarrell?ed|sparred)\b[^.!?]{0,60}?\bwith\b`)
)

// nonPersonTokens are capitalized words that start sentences or name places
// and institutions, not people.
var nonPersonTokens = map[string]bool{
	"the": true, "this": true, "that": true, "these": true, "those": true,
	"in": true, "on": true, "at": true, "after": true, "before": true,
	"during": true, "while": true, "when": true, "although": true,
	"his": true, "her": true, "their": true, "its": true, "it": true,
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"university": true, "europe": true, "america": true, "england": true,
	"france": true, "germany": true, "enlightenment": true, "renaissance": true,
	"church": true, "academy": true, "royal": true, "society": true,
	"new": true, "world": true, "war": true, "middle": true, "ages": true,
}

// isLikelyPersonName applies the person-likelihood check: rejects single
// common nouns, tokens ending in -ism/-ist/-ian/-ology, and known
// non-person tokens.
func isLikelyPersonName(name string) bool {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		lower := strings.ToLower(f)
		if nonPersonTokens[lower] {
			return false
		}
		for _, suffix := range []string{"ism", "ology"} {
			if strings.HasSuffix(lower, suffix) {
				return false
			}
		}
		// -ist/-ian reject school-of-thought and demonym words, not names
		// like "Christian"; only reject when the whole reference is one token
		if len(fields) == 1 && (strings.HasSuffix(lower, "ist") || strings.HasSuffix(lower, "ian")) {
			return false
		}
	}
	return true
}

// HeuristicExtract runs all pattern extractors over one chunk and returns
// single-observation candidates for the merger.
func HeuristicExtract(chunkIndex int, chunkText string) []models.Candidate {
	var out []models.Candidate
	out = append(out, heuristicThinkers(chunkIndex, chunkText)...)
	out = append(out, heuristicConnections(chunkIndex, chunkText)...)
	out = append(out, heuristicEvents(chunkIndex, chunkText)...)
	out = append(out, heuristicPublications(chunkIndex, chunkText)...)
	out = append(out, heuristicQuotes(chunkIndex, chunkText)...)
	return out
}

func spanAt(chunkIndex int, chunkText string, start, end int) models.EvidenceSpan {
	return models.EvidenceSpan{
		ChunkIndex: chunkIndex,
		CharStart:  start,
		CharEnd:    end,
		Excerpt:    chunkText[start:end],
	}
}

// heuristicThinkers finds capitalized multi-token names, inferring birth and
// death years from an adjacent YYYY-YYYY lifespan pattern.
func heuristicThinkers(chunkIndex int, chunkText string) []models.Candidate {
	var out []models.Candidate
	seen := map[string]bool{}

	for _, loc := range nameRe.FindAllStringIndex(chunkText, -1) {
		name := chunkText[loc[0]:loc[1]]
		if !isLikelyPersonName(name) {
			continue
		}
		norm := NormalizeName(name)
		if seen[norm] {
			continue
		}
		seen[norm] = true

		fields := models.ThinkerFields{Name: name}
		confidence := 0.6
		evidenceEnd := loc[1]

		// Lifespan directly after the name, e.g. "Immanuel Kant (1724-1804)"
		window := chunkText[loc[1]:min(loc[1]+24, len(chunkText))]
		if m := lifespanRe.FindStringSubmatchIndex(window); m != nil && m[0] <= 3 {
			birth := atoiSafe(window[m[2]:m[3]])
			death := atoiSafe(window[m[4]:m[5]])
			if birth > 0 && death > birth {
				fields.BirthYear = &birth
				fields.DeathYear = &death
				confidence = 0.85
				evidenceEnd = loc[1] + m[1]
			}
		}

		out = append(out, models.Candidate{
			ID:         ThinkerCandidateID(name),
			EntityType: models.EntityThinker,
			Confidence: confidence,
			Thinker:    &fields,
			Evidence:   []models.EvidenceSpan{spanAt(chunkIndex, chunkText, loc[0], evidenceEnd)},
		})
	}
	return out
}

type nameHit struct {
	name  string
	start int
	end   int
}

// heuristicConnections applies the verb-cued relation grammar to direct
// subject-verb-object sentences and "debated/argued ... with" sentences.
func heuristicConnections(chunkIndex int, chunkText string) []models.Candidate {
	var out []models.Candidate

	for _, sent := range sentencesWithOffsets(chunkText) {
		var names []nameHit
		for _, loc := range nameRe.FindAllStringIndex(sent.text, -1) {
			name := sent.text[loc[0]:loc[1]]
			if isLikelyPersonName(name) {
				names = append(names, nameHit{name: name, start: loc[0], end: loc[1]})
			}
		}
		if len(names) < 2 {
			continue
		}

		evidence := []models.EvidenceSpan{spanAt(chunkIndex, chunkText, sent.start, sent.end)}

		// Pair each adjacent name pair with a cue appearing between them
		for i := 0; i+1 < len(names); i++ {
			from, to := names[i], names[i+1]
			between := strings.ToLower(sent.text[from.end:to.start])

			relType, cueFound := cueInText(between)
			if !cueFound {
				continue
			}

			// Passive voice reverses direction: "Kant was influenced by Hume"
			if strings.Contains(between, " by ") || strings.HasSuffix(strings.TrimSpace(between), " by") {
				from, to = to, from
			}

			// "debated/argued ... with" is symmetric disagreement
			if debateWithRe.MatchString(between) {
				relType = models.RelationCritiqued
			}

			if NormalizeName(from.name) == NormalizeName(to.name) {
				continue
			}
			out = append(out, models.Candidate{
				ID:         ConnectionCandidateID(from.name, to.name, relType),
				EntityType: models.EntityConnection,
				Confidence: 0.65,
				Connection: &models.ConnectionFields{
					FromName: from.name,
					ToName:   to.name,
					RelType:  relType,
				},
				Evidence: evidence,
			})
		}
	}
	return out
}

// cueInText finds the first relation cue in text and returns its type.
func cueInText(text string) (string, bool) {
	best := -1
	bestType := ""
	for relType, cues := range relationCues {
		for _, cue := range cues {
			if idx := strings.Index(text, cue); idx >= 0 && (best == -1 || idx < best) {
				best = idx
				bestType = relType
			}
		}
	}
	return bestType, best >= 0
}

// heuristicEvents emits a candidate per sentence anchored by an "in YYYY"
// mention, named by the sentence itself.
func heuristicEvents(chunkIndex int, chunkText string) []models.Candidate {
	var out []models.Candidate
	for _, sent := range sentencesWithOffsets(chunkText) {
		m := yearAnchorRe.FindStringSubmatch(sent.text)
		if m == nil {
			continue
		}
		year := atoiSafe(m[1])
		name := strings.TrimSpace(strings.TrimSuffix(sent.text, "."))
		if len(name) > 120 {
			cut := 120
			for cut > 0 && !utf8.RuneStart(name[cut]) {
				cut--
			}
			name = name[:cut]
		}
		out = append(out, models.Candidate{
			ID:         EventCandidateID(name, &year),
			EntityType: models.EntityEvent,
			Confidence: 0.5,
			Event: &models.EventFields{
				Name: name,
				Year: &year,
			},
			Evidence: []models.EvidenceSpan{spanAt(chunkIndex, chunkText, sent.start, sent.end)},
		})
	}
	return out
}

// heuristicPublications matches "X wrote/published/authored <title>".
func heuristicPublications(chunkIndex int, chunkText string) []models.Candidate {
	var out []models.Candidate
	for _, m := range publicationRe.FindAllStringSubmatchIndex(chunkText, -1) {
		author := chunkText[m[2]:m[3]]
		if !isLikelyPersonName(author) {
			continue
		}
		title := firstGroup(chunkText, m, 2, 3, 4)
		if title == "" {
			continue
		}

		fields := models.PublicationFields{
			ThinkerName: author,
			Title:       title,
		}
		// Publication year from an "in YYYY" shortly after the title
		window := chunkText[m[1]:min(m[1]+24, len(chunkText))]
		if ym := yearAnchorRe.FindStringSubmatch(window); ym != nil {
			year := atoiSafe(ym[1])
			fields.Year = &year
		}

		out = append(out, models.Candidate{
			ID:          PublicationCandidateID(author, title, fields.Year),
			EntityType:  models.EntityPublication,
			Confidence:  0.6,
			Publication: &fields,
			Evidence:    []models.EvidenceSpan{spanAt(chunkIndex, chunkText, m[0], m[1])},
		})
	}
	return out
}

// firstGroup returns the first non-empty capture group among the given
// 1-based group numbers of a SubmatchIndex result.
func firstGroup(text string, m []int, groups ...int) string {
	for _, g := range groups {
		lo, hi := m[2*g], m[2*g+1]
		if lo >= 0 && hi > lo {
			return text[lo:hi]
		}
	}
	return ""
}

// heuristicQuotes matches quoted text with a nearby attribution.
func heuristicQuotes(chunkIndex int, chunkText string) []models.Candidate {
	var out []models.Candidate
	emit := func(speaker, text string, start, end int) {
		if !isLikelyPersonName(speaker) || strings.TrimSpace(text) == "" {
			return
		}
		out = append(out, models.Candidate{
			ID:         QuoteCandidateID(speaker, text),
			EntityType: models.EntityQuote,
			Confidence: 0.7,
			Quote: &models.QuoteFields{
				ThinkerName: speaker,
				Text:        text,
			},
			Evidence: []models.EvidenceSpan{spanAt(chunkIndex, chunkText, start, end)},
		})
	}

	for _, m := range quoteLeadRe.FindAllStringSubmatchIndex(chunkText, -1) {
		emit(chunkText[m[2]:m[3]], chunkText[m[4]:m[5]], m[0], m[1])
	}
	for _, m := range quoteTrailRe.FindAllStringSubmatchIndex(chunkText, -1) {
		emit(chunkText[m[4]:m[5]], chunkText[m[2]:m[3]], m[0], m[1])
	}
	return out
}

type sentenceSpan struct {
	text  string
	start int
	end   int
}

// sentencesWithOffsets splits text into sentences keeping char offsets.
func sentencesWithOffsets(text string) []sentenceSpan {
	var out []sentenceSpan
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			if s := strings.TrimSpace(text[start:end]); s != "" {
				lead := start + strings.Index(text[start:end], s)
				out = append(out, sentenceSpan{text: s, start: lead, end: lead + len(s)})
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		lead := start + strings.Index(text[start:], s)
		out = append(out, sentenceSpan{text: s, start: lead, end: lead + len(s)})
	}
	return out
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
