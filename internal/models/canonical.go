package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Relation types allowed on a Connection.
const (
	RelationInfluenced  = "influenced"
	RelationCritiqued   = "critiqued"
	RelationBuiltUpon   = "built_upon"
	RelationSynthesized = "synthesized"
)

// AllowedRelationTypes lists the canonical connection relation types.
var AllowedRelationTypes = []string{
	RelationInfluenced, RelationCritiqued, RelationBuiltUpon, RelationSynthesized,
}

// Timeline is a canonical timeline record grouping thinkers and events.
type Timeline struct {
	ID          surrealmodels.RecordID `json:"id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description,omitempty"`
	StartYear   *int                   `json:"start_year,omitempty"`
	EndYear     *int                   `json:"end_year,omitempty"`
	Created     time.Time              `json:"created,omitempty"`
}

// TimelineInput is the payload for creating a timeline.
type TimelineInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartYear   *int    `json:"start_year,omitempty"`
	EndYear     *int    `json:"end_year,omitempty"`
}

// Thinker is a canonical historical thinker record. A thinker is scoped to at
// most one timeline; reusing a thinker on a second timeline clones the record.
type Thinker struct {
	ID          surrealmodels.RecordID `json:"id"`
	TimelineID  *string                `json:"timeline_id,omitempty"`
	Name        string                 `json:"name"`
	BirthYear   *int                   `json:"birth_year,omitempty"`
	DeathYear   *int                   `json:"death_year,omitempty"`
	Era         *string                `json:"era,omitempty"`
	Discipline  *string                `json:"discipline,omitempty"`
	Nationality *string                `json:"nationality,omitempty"`
	Notes       *string                `json:"notes,omitempty"`
	Created     time.Time              `json:"created,omitempty"`
}

// ThinkerInput is the payload for creating a thinker.
type ThinkerInput struct {
	TimelineID  *string `json:"timeline_id,omitempty"`
	Name        string  `json:"name"`
	BirthYear   *int    `json:"birth_year,omitempty"`
	DeathYear   *int    `json:"death_year,omitempty"`
	Era         *string `json:"era,omitempty"`
	Discipline  *string `json:"discipline,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// MetadataFieldCount returns how many optional metadata fields are populated.
// Used to pick the richer record among exact-name canonical duplicates.
func (t *Thinker) MetadataFieldCount() int {
	n := 0
	for _, p := range []*int{t.BirthYear, t.DeathYear} {
		if p != nil {
			n++
		}
	}
	for _, p := range []*string{t.Era, t.Discipline, t.Nationality, t.Notes} {
		if p != nil && *p != "" {
			n++
		}
	}
	return n
}

// Connection is a canonical directed relation between two thinkers.
// At most one connection may exist per ordered (from, to) pair.
type Connection struct {
	ID         surrealmodels.RecordID `json:"id"`
	TimelineID *string                `json:"timeline_id,omitempty"`
	FromID     string                 `json:"from_id"`
	ToID       string                 `json:"to_id"`
	RelType    string                 `json:"rel_type"`
	Strength   *float64               `json:"strength,omitempty"`
	Notes      *string                `json:"notes,omitempty"`
	Created    time.Time              `json:"created,omitempty"`
}

// ConnectionInput is the payload for creating a connection.
type ConnectionInput struct {
	TimelineID *string  `json:"timeline_id,omitempty"`
	FromID     string   `json:"from_id"`
	ToID       string   `json:"to_id"`
	RelType    string   `json:"rel_type"`
	Strength   *float64 `json:"strength,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// Event is a canonical dated event on a timeline.
type Event struct {
	ID         surrealmodels.RecordID `json:"id"`
	TimelineID *string                `json:"timeline_id,omitempty"`
	Name       string                 `json:"name"`
	Year       int                    `json:"year"`
	EventType  *string                `json:"event_type,omitempty"`
	Notes      *string                `json:"notes,omitempty"`
	Created    time.Time              `json:"created,omitempty"`
}

// EventInput is the payload for creating an event.
type EventInput struct {
	TimelineID *string `json:"timeline_id,omitempty"`
	Name       string  `json:"name"`
	Year       int     `json:"year"`
	EventType  *string `json:"event_type,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Publication is a canonical published work attributed to a thinker.
type Publication struct {
	ID        surrealmodels.RecordID `json:"id"`
	ThinkerID string                 `json:"thinker_id"`
	Title     string                 `json:"title"`
	Year      *int                   `json:"year,omitempty"`
	PubType   *string                `json:"pub_type,omitempty"`
	Notes     *string                `json:"notes,omitempty"`
	Created   time.Time              `json:"created,omitempty"`
}

// PublicationInput is the payload for creating a publication.
type PublicationInput struct {
	ThinkerID string  `json:"thinker_id"`
	Title     string  `json:"title"`
	Year      *int    `json:"year,omitempty"`
	PubType   *string `json:"pub_type,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Quote is a canonical quotation attributed to a thinker.
type Quote struct {
	ID        surrealmodels.RecordID `json:"id"`
	ThinkerID string                 `json:"thinker_id"`
	Text      string                 `json:"text"`
	Source    *string                `json:"source,omitempty"`
	Created   time.Time              `json:"created,omitempty"`
}

// QuoteInput is the payload for creating a quote.
type QuoteInput struct {
	ThinkerID string  `json:"thinker_id"`
	Text      string  `json:"text"`
	Source    *string `json:"source,omitempty"`
}
