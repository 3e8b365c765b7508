package bootstrap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// ExtractionOutput is the grounded result of one extraction pass over one
// chunk. Dropped counts feed the aggregate ungrounded-candidate warnings.
type ExtractionOutput struct {
	Candidates []models.Candidate
	Dropped    map[models.EntityType]int
}

func newExtractionOutput() *ExtractionOutput {
	return &ExtractionOutput{Dropped: map[models.EntityType]int{}}
}

func (o *ExtractionOutput) drop(entityType models.EntityType) {
	o.Dropped[entityType]++
}

// modelThinker and friends mirror the JSON shape the extraction prompt asks
// for. Evidence arrives as claimed literal excerpts, grounded below.
type modelThinker struct {
	Name        string   `json:"name"`
	BirthYear   *int     `json:"birth_year"`
	DeathYear   *int     `json:"death_year"`
	Era         *string  `json:"era"`
	Discipline  *string  `json:"discipline"`
	Nationality *string  `json:"nationality"`
	Notes       *string  `json:"notes"`
	Confidence  float64  `json:"confidence"`
	Evidence    []string `json:"evidence"`
}

type modelEvent struct {
	Name       string   `json:"name"`
	Year       *int     `json:"year"`
	EventType  *string  `json:"event_type"`
	Notes      *string  `json:"notes"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

type modelConnection struct {
	FromName   string   `json:"from_name"`
	ToName     string   `json:"to_name"`
	RelType    string   `json:"rel_type"`
	Strength   *float64 `json:"strength"`
	Notes      *string  `json:"notes"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

type modelPublication struct {
	ThinkerName string   `json:"thinker_name"`
	Title       string   `json:"title"`
	Year        *int     `json:"year"`
	PubType     *string  `json:"pub_type"`
	Notes       *string  `json:"notes"`
	Confidence  float64  `json:"confidence"`
	Evidence    []string `json:"evidence"`
}

type modelQuote struct {
	ThinkerName string   `json:"thinker_name"`
	Text        string   `json:"text"`
	Source      *string  `json:"source"`
	Confidence  float64  `json:"confidence"`
	Evidence    []string `json:"evidence"`
}

type modelExtraction struct {
	Thinkers     []modelThinker     `json:"thinkers"`
	Events       []modelEvent       `json:"events"`
	Connections  []modelConnection  `json:"connections"`
	Publications []modelPublication `json:"publications"`
	Quotes       []modelQuote       `json:"quotes"`
}

// stripJSONFences removes markdown code fences models sometimes wrap JSON in,
// then isolates the outermost object.
func stripJSONFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

// ParseModelExtraction parses and grounds the model's raw output for one
// chunk. Every retained item carries at least one verified evidence span;
// items whose claimed name/title/text is not literally present in the chunk,
// or that end with zero grounded spans, are dropped and counted.
func ParseModelExtraction(raw string, chunkIndex int, chunkText string) (*ExtractionOutput, error) {
	var parsed modelExtraction
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}

	out := newExtractionOutput()

	for _, th := range parsed.Thinkers {
		if !fragmentGrounded(chunkText, th.Name) {
			out.drop(models.EntityThinker)
			continue
		}
		spans := groundExcerpts(chunkIndex, chunkText, th.Evidence)
		if len(spans) == 0 {
			// Fall back to grounding on the name itself
			if span, ok := findSpan(chunkIndex, chunkText, th.Name); ok {
				spans = []models.EvidenceSpan{span}
			}
		}
		if len(spans) == 0 {
			out.drop(models.EntityThinker)
			continue
		}
		out.Candidates = append(out.Candidates, models.Candidate{
			ID:         ThinkerCandidateID(th.Name),
			EntityType: models.EntityThinker,
			Confidence: clampConfidence(th.Confidence),
			Thinker: &models.ThinkerFields{
				Name:        th.Name,
				BirthYear:   th.BirthYear,
				DeathYear:   th.DeathYear,
				Era:         th.Era,
				Discipline:  th.Discipline,
				Nationality: th.Nationality,
				Notes:       th.Notes,
			},
			Evidence: spans,
		})
	}

	for _, ev := range parsed.Events {
		if !fragmentGrounded(chunkText, ev.Name) {
			out.drop(models.EntityEvent)
			continue
		}
		spans := groundExcerpts(chunkIndex, chunkText, ev.Evidence)
		if len(spans) == 0 {
			if span, ok := findSpan(chunkIndex, chunkText, ev.Name); ok {
				spans = []models.EvidenceSpan{span}
			}
		}
		if len(spans) == 0 {
			out.drop(models.EntityEvent)
			continue
		}
		out.Candidates = append(out.Candidates, models.Candidate{
			ID:         EventCandidateID(ev.Name, ev.Year),
			EntityType: models.EntityEvent,
			Confidence: clampConfidence(ev.Confidence),
			Event: &models.EventFields{
				Name:      ev.Name,
				Year:      ev.Year,
				EventType: ev.EventType,
				Notes:     ev.Notes,
			},
			Evidence: spans,
		})
	}

	out.Candidates = append(out.Candidates, groundModelConnections(parsed.Connections, chunkIndex, chunkText, out)...)

	for _, pub := range parsed.Publications {
		if !fragmentGrounded(chunkText, pub.Title) || !fragmentGrounded(chunkText, pub.ThinkerName) {
			out.drop(models.EntityPublication)
			continue
		}
		spans := groundExcerpts(chunkIndex, chunkText, pub.Evidence)
		if len(spans) == 0 {
			if span, ok := findSpan(chunkIndex, chunkText, pub.Title); ok {
				spans = []models.EvidenceSpan{span}
			}
		}
		if len(spans) == 0 {
			out.drop(models.EntityPublication)
			continue
		}
		out.Candidates = append(out.Candidates, models.Candidate{
			ID:         PublicationCandidateID(pub.ThinkerName, pub.Title, pub.Year),
			EntityType: models.EntityPublication,
			Confidence: clampConfidence(pub.Confidence),
			Publication: &models.PublicationFields{
				ThinkerName: pub.ThinkerName,
				Title:       pub.Title,
				Year:        pub.Year,
				PubType:     pub.PubType,
				Notes:       pub.Notes,
			},
			Evidence: spans,
		})
	}

	for _, q := range parsed.Quotes {
		if !fragmentGrounded(chunkText, q.Text) || !fragmentGrounded(chunkText, q.ThinkerName) {
			out.drop(models.EntityQuote)
			continue
		}
		spans := groundExcerpts(chunkIndex, chunkText, q.Evidence)
		if len(spans) == 0 {
			if span, ok := findSpan(chunkIndex, chunkText, q.Text); ok {
				spans = []models.EvidenceSpan{span}
			}
		}
		if len(spans) == 0 {
			out.drop(models.EntityQuote)
			continue
		}
		out.Candidates = append(out.Candidates, models.Candidate{
			ID:         QuoteCandidateID(q.ThinkerName, q.Text),
			EntityType: models.EntityQuote,
			Confidence: clampConfidence(q.Confidence),
			Quote: &models.QuoteFields{
				ThinkerName: q.ThinkerName,
				Text:        q.Text,
				Source:      q.Source,
			},
			Evidence: spans,
		})
	}

	return out, nil
}

// groundModelConnections applies the stricter connection contract: both
// endpoint names must be grounded, and the claimed relation type needs
// sentence-scoped syntactic support in some evidence excerpt.
func groundModelConnections(conns []modelConnection, chunkIndex int, chunkText string, out *ExtractionOutput) []models.Candidate {
	var result []models.Candidate
	for _, conn := range conns {
		relType := NormalizeRelationType(conn.RelType)
		if relType == "" {
			out.drop(models.EntityConnection)
			continue
		}
		if !fragmentGrounded(chunkText, conn.FromName) || !fragmentGrounded(chunkText, conn.ToName) {
			out.drop(models.EntityConnection)
			continue
		}
		spans := groundExcerpts(chunkIndex, chunkText, conn.Evidence)
		if len(spans) == 0 {
			out.drop(models.EntityConnection)
			continue
		}
		if !connectionSupported(conn.FromName, conn.ToName, relType, spans) {
			out.drop(models.EntityConnection)
			continue
		}
		result = append(result, models.Candidate{
			ID:         ConnectionCandidateID(conn.FromName, conn.ToName, relType),
			EntityType: models.EntityConnection,
			Confidence: clampConfidence(conn.Confidence),
			Connection: &models.ConnectionFields{
				FromName: conn.FromName,
				ToName:   conn.ToName,
				RelType:  relType,
				Strength: conn.Strength,
				Notes:    conn.Notes,
			},
			Evidence: spans,
		})
	}
	return result
}

// NormalizeRelationType maps free-form relation labels onto the allowed set.
// Returns "" for unmappable labels.
func NormalizeRelationType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, allowed := range models.AllowedRelationTypes {
		if normalized == allowed {
			return allowed
		}
	}
	switch normalized {
	case "influence", "influenced_by", "inspired", "mentored", "taught":
		return models.RelationInfluenced
	case "critique", "criticized", "criticised", "challenged", "refuted",
		"rejected", "debated", "opposed", "disputed":
		return models.RelationCritiqued
	case "built_on", "builds_upon", "extended", "expanded", "developed",
		"continued":
		return models.RelationBuiltUpon
	case "synthesized_with", "combined", "merged", "unified", "reconciled",
		"integrated":
		return models.RelationSynthesized
	}
	return ""
}

func clampConfidence(c float64) float64 {
	if c <= 0 {
		return 0.5
	}
	if c > 1 {
		return 1
	}
	return c
}

// mergeDropped folds one pass's drop counts into an accumulator.
func mergeDropped(acc, add map[models.EntityType]int) {
	for t, n := range add {
		acc[t] += n
	}
}

// droppedWarnings renders aggregate warnings for ungrounded drops, one per
// entity type, never per item.
func droppedWarnings(dropped map[models.EntityType]int) []string {
	var warnings []string
	for _, t := range []models.EntityType{
		models.EntityThinker, models.EntityEvent, models.EntityConnection,
		models.EntityPublication, models.EntityQuote,
	} {
		if n := dropped[t]; n > 0 {
			warnings = append(warnings, fmt.Sprintf("dropped %d ungrounded %s candidates", n, t))
		}
	}
	return warnings
}
