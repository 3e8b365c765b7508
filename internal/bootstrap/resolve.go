package bootstrap

import (
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// attributionCues signal authorship/attribution adjacency when scanning
// context for a publication or quote owner.
var attributionCues = []string{
	"according to", "wrote", "published", "authored", "said", "declared",
	"argued", "stated", "observed", "remarked",
}

// resolver maps free-text name references to merged thinker candidates.
// Built once per merge pass from the merged thinker set.
type resolver struct {
	// normalized full name -> candidate id
	exact map[string]string
	// single-token alias (surname or initial+surname) -> candidate id;
	// ambiguous aliases map to ""
	alias map[string]string
	// candidate id -> merged thinker
	byID map[string]*models.Candidate
	// chunk index -> normalized chunk text (lowercased for scanning)
	chunks map[int]string
}

func newResolver(thinkers []*models.Candidate, chunks []Chunk) *resolver {
	r := &resolver{
		exact:  map[string]string{},
		alias:  map[string]string{},
		byID:   map[string]*models.Candidate{},
		chunks: map[int]string{},
	}
	for _, chunk := range chunks {
		r.chunks[chunk.Index] = strings.ToLower(chunk.Text)
	}
	for _, th := range thinkers {
		norm := NormalizeName(th.Thinker.Name)
		r.exact[norm] = th.ID
		r.byID[th.ID] = th

		// Aliases only from multi-token names: surname, and initial+surname
		fields := strings.Fields(norm)
		if len(fields) < 2 {
			continue
		}
		surname := fields[len(fields)-1]
		initial := string([]rune(fields[0])[0]) + ". " + surname
		for _, a := range []string{surname, initial} {
			if existing, ok := r.alias[a]; ok && existing != th.ID {
				r.alias[a] = "" // ambiguous
			} else {
				r.alias[a] = th.ID
			}
		}
	}
	return r
}

// resolveStrict resolves by exact normalized name only. This is the sole
// step connections are allowed, so relation edges are never invented from
// nearby but unrelated names.
func (r *resolver) resolveStrict(name string) (string, bool) {
	id, ok := r.exact[NormalizeName(name)]
	return id, ok
}

// resolveOwner resolves a publication/quote owner reference through the full
// ladder: exact name, alias, unambiguous context scan, attribution-verb
// adjacency, and finally evidence proximity to a thinker's own evidence.
func (r *resolver) resolveOwner(name string, evidence []models.EvidenceSpan) (string, bool) {
	if !isLikelyPersonName(name) {
		return "", false
	}

	if id, ok := r.resolveStrict(name); ok {
		return id, true
	}

	norm := NormalizeName(name)
	if id, ok := r.alias[norm]; ok && id != "" {
		return id, true
	}

	if id, ok := r.contextScan(norm, evidence); ok {
		return id, true
	}

	if id, ok := r.attributionScan(evidence); ok {
		return id, true
	}

	return r.evidenceProximity(evidence)
}

// contextScan looks at the chunk text around the reference's evidence for
// exactly one matching thinker name or alias. Ambiguity rejects the scan.
func (r *resolver) contextScan(normRef string, evidence []models.EvidenceSpan) (string, bool) {
	const window = 300

	for _, span := range evidence {
		chunk, ok := r.chunks[span.ChunkIndex]
		if !ok {
			continue
		}
		lo := max(0, span.CharStart-window)
		hi := min(len(chunk), span.CharEnd+window)
		context := chunk[lo:hi]

		matched := ""
		ambiguous := false
		for norm, id := range r.exact {
			if !strings.Contains(context, norm) {
				continue
			}
			// The reference itself must be part of the matched name for a
			// context hit to mean anything ("Descartes" inside "rene descartes")
			if normRef != "" && !strings.Contains(norm, normRef) {
				continue
			}
			if matched != "" && matched != id {
				ambiguous = true
			}
			matched = id
		}
		if matched != "" && !ambiguous {
			return matched, true
		}
	}
	return "", false
}

// attributionScan looks for "<cue> <name>" or "<name> <cue>" adjacency
// inside evidence excerpts, e.g. "according to Kant" or "Kant wrote". An
// excerpt with more than one cue-adjacent thinker is ambiguous and skipped.
func (r *resolver) attributionScan(evidence []models.EvidenceSpan) (string, bool) {
	for _, span := range evidence {
		lower := strings.ToLower(span.Excerpt)
		matched := ""
		ambiguous := false
		for norm, id := range r.exact {
			surname := lastNameToken(norm)
			idx := strings.Index(lower, surname)
			if idx < 0 {
				continue
			}
			before := lower[max(0, idx-24):idx]
			after := lower[min(len(lower), idx+len(surname)):min(len(lower), idx+len(surname)+24)]
			if !cueAdjacent(before, after) {
				continue
			}
			if matched != "" && matched != id {
				ambiguous = true
			}
			matched = id
		}
		if matched != "" && !ambiguous {
			return matched, true
		}
	}
	return "", false
}

func cueAdjacent(before, after string) bool {
	for _, cue := range attributionCues {
		if strings.HasSuffix(strings.TrimSpace(before), cue) || strings.HasPrefix(strings.TrimSpace(after), cue) {
			return true
		}
	}
	return false
}

// evidenceProximity picks the thinker whose own evidence lies closest to the
// reference's evidence in the same chunk, within a bounded distance. Ties
// are rejected rather than guessed.
func (r *resolver) evidenceProximity(evidence []models.EvidenceSpan) (string, bool) {
	const maxDistance = 400

	bestID := ""
	bestDist := maxDistance + 1
	tied := false

	for _, span := range evidence {
		for id, th := range r.byID {
			for _, thSpan := range th.Evidence {
				if thSpan.ChunkIndex != span.ChunkIndex {
					continue
				}
				dist := spanDistance(span, thSpan)
				if dist < bestDist {
					bestID, bestDist, tied = id, dist, false
				} else if dist == bestDist && id != bestID {
					tied = true
				}
			}
		}
	}
	if bestID == "" || tied || bestDist > maxDistance {
		return "", false
	}
	return bestID, true
}

func spanDistance(a, b models.EvidenceSpan) int {
	if a.CharEnd < b.CharStart {
		return b.CharStart - a.CharEnd
	}
	if b.CharEnd < a.CharStart {
		return a.CharStart - b.CharEnd
	}
	return 0 // overlapping
}
