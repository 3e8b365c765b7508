package bootstrap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// MergeResult is the deduplicated candidate graph for one pipeline pass.
type MergeResult struct {
	Candidates   []models.Candidate
	Warnings     []string
	TimelineName string
	Counts       map[string]int
}

// MergeOptions tunes the merge pass.
type MergeOptions struct {
	IncludeThreshold float64
	Hints            *models.TimelineHints
}

// thinkerAccumulator collects duplicate thinker observations for one
// normalized name across all extraction passes.
type thinkerAccumulator struct {
	fields      models.ThinkerFields
	confidences []float64
	evidence    []models.EvidenceSpan
}

// bestObservation collects duplicate non-thinker observations for one
// natural key: max confidence wins descriptive fields, evidence unions
// across all duplicates regardless of confidence.
type bestObservation struct {
	best     models.Candidate
	evidence []models.EvidenceSpan
}

// Merge combines all extraction outputs (chunks, optional full-text pass,
// salvage) into one deduplicated candidate graph with resolved references.
func Merge(observations []models.Candidate, chunks []Chunk, opts MergeOptions) *MergeResult {
	if opts.IncludeThreshold <= 0 {
		opts.IncludeThreshold = 0.45
	}

	result := &MergeResult{Counts: map[string]int{}}

	// --- Thinkers: bucket by normalized name, mean confidence ---
	thinkerOrder := []string{}
	thinkerBuckets := map[string]*thinkerAccumulator{}
	for _, obs := range observations {
		if obs.EntityType != models.EntityThinker || obs.Thinker == nil {
			continue
		}
		norm := NormalizeName(obs.Thinker.Name)
		if norm == "" || !isLikelyPersonName(obs.Thinker.Name) {
			continue
		}
		acc, ok := thinkerBuckets[norm]
		if !ok {
			acc = &thinkerAccumulator{fields: *obs.Thinker}
			thinkerBuckets[norm] = acc
			thinkerOrder = append(thinkerOrder, norm)
		} else {
			fillThinkerFields(&acc.fields, obs.Thinker)
		}
		acc.confidences = append(acc.confidences, obs.Confidence)
		acc.evidence = append(acc.evidence, obs.Evidence...)
	}

	var thinkers []*models.Candidate
	for _, norm := range thinkerOrder {
		acc := thinkerBuckets[norm]
		candidate := &models.Candidate{
			ID:         ThinkerCandidateID(acc.fields.Name),
			EntityType: models.EntityThinker,
			Confidence: mean(acc.confidences),
			Thinker:    &acc.fields,
			Evidence:   dedupeEvidence(acc.evidence),
		}
		thinkers = append(thinkers, candidate)
	}

	res := newResolver(thinkers, chunks)

	// --- Connections: strict endpoint resolution, drop with aggregate warnings ---
	droppedSelfLoop := 0
	droppedUnresolved := 0
	droppedNonPerson := 0
	connBuckets := map[string]*bestObservation{}
	connOrder := []string{}

	for _, obs := range observations {
		if obs.EntityType != models.EntityConnection || obs.Connection == nil {
			continue
		}
		conn := obs.Connection
		if !isLikelyPersonName(conn.FromName) || !isLikelyPersonName(conn.ToName) {
			droppedNonPerson++
			continue
		}
		fromID, okFrom := res.resolveStrict(conn.FromName)
		toID, okTo := res.resolveStrict(conn.ToName)
		if !okFrom || !okTo {
			droppedUnresolved++
			continue
		}
		if fromID == toID {
			droppedSelfLoop++
			continue
		}

		fromName := res.byID[fromID].Thinker.Name
		toName := res.byID[toID].Thinker.Name
		resolved := obs
		resolved.Connection = &models.ConnectionFields{
			FromName: fromName,
			ToName:   toName,
			FromKey:  fromID,
			ToKey:    toID,
			RelType:  conn.RelType,
			Strength: conn.Strength,
			Notes:    conn.Notes,
		}
		resolved.ID = ConnectionCandidateID(fromName, toName, conn.RelType)
		resolved.DependencyKeys = []string{fromID, toID}
		accumulate(connBuckets, &connOrder, resolved)
	}

	if droppedSelfLoop > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dropped %d self-loop connections", droppedSelfLoop))
	}
	if droppedUnresolved > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dropped %d connections with unresolved endpoints", droppedUnresolved))
	}
	if droppedNonPerson > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("dropped %d connections with non-person endpoints", droppedNonPerson))
	}

	// --- Events: keyed by normalized name + year ---
	eventBuckets := map[string]*bestObservation{}
	eventOrder := []string{}
	for _, obs := range observations {
		if obs.EntityType != models.EntityEvent || obs.Event == nil {
			continue
		}
		keyed := obs
		keyed.ID = EventCandidateID(obs.Event.Name, obs.Event.Year)
		accumulate(eventBuckets, &eventOrder, keyed)
	}

	// --- Publications and quotes: owner resolution via the full ladder ---
	unownedPubs := 0
	unownedQuotes := 0
	pubBuckets := map[string]*bestObservation{}
	pubOrder := []string{}
	quoteBuckets := map[string]*bestObservation{}
	quoteOrder := []string{}

	for _, obs := range observations {
		switch obs.EntityType {
		case models.EntityPublication:
			if obs.Publication == nil {
				continue
			}
			pub := *obs.Publication
			ownerName := pub.ThinkerName
			if id, ok := res.resolveOwner(pub.ThinkerName, obs.Evidence); ok {
				pub.ThinkerKey = id
				ownerName = res.byID[id].Thinker.Name
				pub.ThinkerName = ownerName
				obs.DependencyKeys = []string{id}
			} else {
				unownedPubs++
			}
			obs.Publication = &pub
			obs.ID = PublicationCandidateID(ownerName, pub.Title, pub.Year)
			accumulate(pubBuckets, &pubOrder, obs)

		case models.EntityQuote:
			if obs.Quote == nil {
				continue
			}
			quote := *obs.Quote
			ownerName := quote.ThinkerName
			if id, ok := res.resolveOwner(quote.ThinkerName, obs.Evidence); ok {
				quote.ThinkerKey = id
				ownerName = res.byID[id].Thinker.Name
				quote.ThinkerName = ownerName
				obs.DependencyKeys = []string{id}
			} else {
				unownedQuotes++
			}
			obs.Quote = &quote
			obs.ID = QuoteCandidateID(ownerName, quote.Text)
			accumulate(quoteBuckets, &quoteOrder, obs)
		}
	}

	if unownedPubs > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d publications have no resolved owner and default to excluded", unownedPubs))
	}
	if unownedQuotes > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d quotes have no resolved owner and default to excluded", unownedQuotes))
	}

	// --- Assemble, compute include defaults ---
	for _, th := range thinkers {
		th.Include = defaultInclude(th.Confidence, th.Evidence, opts.IncludeThreshold)
		result.Candidates = append(result.Candidates, *th)
	}

	connections := collect(connBuckets, connOrder)
	demoteDuplicatePairs(connections, result)
	for i := range connections {
		if connections[i].Include {
			connections[i].Include = defaultInclude(connections[i].Confidence, connections[i].Evidence, opts.IncludeThreshold)
		}
		result.Candidates = append(result.Candidates, connections[i])
	}

	for _, ev := range collect(eventBuckets, eventOrder) {
		ev.Include = defaultInclude(ev.Confidence, ev.Evidence, opts.IncludeThreshold)
		result.Candidates = append(result.Candidates, ev)
	}
	for _, pub := range collect(pubBuckets, pubOrder) {
		pub.Include = pub.Publication.ThinkerKey != "" &&
			defaultInclude(pub.Confidence, pub.Evidence, opts.IncludeThreshold)
		result.Candidates = append(result.Candidates, pub)
	}
	for _, quote := range collect(quoteBuckets, quoteOrder) {
		quote.Include = quote.Quote.ThinkerKey != "" &&
			defaultInclude(quote.Confidence, quote.Evidence, opts.IncludeThreshold)
		result.Candidates = append(result.Candidates, quote)
	}

	for _, c := range result.Candidates {
		result.Counts[string(c.EntityType)]++
	}

	result.TimelineName = timelineName(opts.Hints, thinkers)
	return result
}

// accumulate folds one observation into its natural-key bucket: max
// confidence keeps its descriptive fields; evidence unions from everyone.
func accumulate(buckets map[string]*bestObservation, order *[]string, obs models.Candidate) {
	b, ok := buckets[obs.ID]
	if !ok {
		buckets[obs.ID] = &bestObservation{best: obs, evidence: obs.Evidence}
		*order = append(*order, obs.ID)
		return
	}
	b.evidence = append(b.evidence, obs.Evidence...)
	if obs.Confidence > b.best.Confidence {
		b.best = obs
	}
}

func collect(buckets map[string]*bestObservation, order []string) []models.Candidate {
	out := make([]models.Candidate, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		c := b.best
		c.Evidence = dedupeEvidence(b.evidence)
		c.Include = true // provisional; include defaults applied by caller
		out = append(out, c)
	}
	return out
}

// demoteDuplicatePairs keeps every relation type observed for an ordered
// endpoint pair as a distinct candidate, but only the pair's highest
// confidence defaults to included.
func demoteDuplicatePairs(connections []models.Candidate, result *MergeResult) {
	byPair := map[string][]int{}
	for i, c := range connections {
		pair := c.Connection.FromKey + "->" + c.Connection.ToKey
		byPair[pair] = append(byPair[pair], i)
	}
	pairs := make([]string, 0, len(byPair))
	for pair := range byPair {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	for _, pair := range pairs {
		idxs := byPair[pair]
		if len(idxs) < 2 {
			continue
		}
		best := idxs[0]
		for _, i := range idxs[1:] {
			if connections[i].Confidence > connections[best].Confidence {
				best = i
			}
		}
		for _, i := range idxs {
			if i != best {
				connections[i].Include = false
			}
		}
		c := connections[best].Connection
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"multiple relation types observed for %s -> %s; only the highest-confidence one is included by default",
			c.FromName, c.ToName))
	}
}

// fillThinkerFields fills nil/empty fields in dst from src, never
// overwriting an observed value.
func fillThinkerFields(dst *models.ThinkerFields, src *models.ThinkerFields) {
	if dst.BirthYear == nil {
		dst.BirthYear = src.BirthYear
	}
	if dst.DeathYear == nil {
		dst.DeathYear = src.DeathYear
	}
	if dst.Era == nil {
		dst.Era = src.Era
	}
	if dst.Discipline == nil {
		dst.Discipline = src.Discipline
	}
	if dst.Nationality == nil {
		dst.Nationality = src.Nationality
	}
	if dst.Notes == nil {
		dst.Notes = src.Notes
	}
}

// dedupeEvidence drops duplicate spans by (chunk, start, end, excerpt).
func dedupeEvidence(spans []models.EvidenceSpan) []models.EvidenceSpan {
	seen := map[string]bool{}
	out := make([]models.EvidenceSpan, 0, len(spans))
	for _, s := range spans {
		key := fmt.Sprintf("%d:%d:%d:%s", s.ChunkIndex, s.CharStart, s.CharEnd, strings.ToLower(s.Excerpt))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func defaultInclude(confidence float64, evidence []models.EvidenceSpan, threshold float64) bool {
	return confidence >= threshold && len(evidence) > 0
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// timelineName prefers the caller's hint, else joins the first three
// thinker names.
func timelineName(hints *models.TimelineHints, thinkers []*models.Candidate) string {
	if hints != nil && strings.TrimSpace(hints.Name) != "" {
		return strings.TrimSpace(hints.Name)
	}
	var names []string
	for _, th := range thinkers {
		names = append(names, th.Thinker.Name)
		if len(names) == 3 {
			break
		}
	}
	if len(names) == 0 {
		return "Untitled Timeline"
	}
	return strings.Join(names, ", ")
}
