package models

// EntityType discriminates candidate payloads.
type EntityType string

const (
	EntityThinker     EntityType = "thinker"
	EntityEvent       EntityType = "event"
	EntityConnection  EntityType = "connection"
	EntityPublication EntityType = "publication"
	EntityQuote       EntityType = "quote"
)

// MatchStatus classifies a thinker candidate against the canonical registry.
type MatchStatus string

const (
	MatchCreateNew    MatchStatus = "create_new"
	MatchReuseHigh    MatchStatus = "reuse_high_confidence"
	MatchReviewNeeded MatchStatus = "review_needed"
)

// EvidenceSpan is a character-offset pointer into a normalized source chunk.
// The excerpt must match the chunk text at [CharStart, CharEnd) case-insensitively.
type EvidenceSpan struct {
	ChunkIndex int    `json:"chunk_index"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	Excerpt    string `json:"excerpt"`
}

// ThinkerFields is the payload of a thinker candidate.
type ThinkerFields struct {
	Name        string  `json:"name"`
	BirthYear   *int    `json:"birth_year,omitempty"`
	DeathYear   *int    `json:"death_year,omitempty"`
	Era         *string `json:"era,omitempty"`
	Discipline  *string `json:"discipline,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// EventFields is the payload of an event candidate.
type EventFields struct {
	Name      string  `json:"name"`
	Year      *int    `json:"year,omitempty"`
	EventType *string `json:"event_type,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// ConnectionFields is the payload of a connection candidate. FromKey/ToKey hold
// candidate ids once endpoints resolve; the *Name fields keep the surface form.
type ConnectionFields struct {
	FromName string   `json:"from_name"`
	ToName   string   `json:"to_name"`
	FromKey  string   `json:"from_key,omitempty"`
	ToKey    string   `json:"to_key,omitempty"`
	RelType  string   `json:"rel_type"`
	Strength *float64 `json:"strength,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

// PublicationFields is the payload of a publication candidate.
type PublicationFields struct {
	ThinkerName string  `json:"thinker_name"`
	ThinkerKey  string  `json:"thinker_key,omitempty"`
	Title       string  `json:"title"`
	Year        *int    `json:"year,omitempty"`
	PubType     *string `json:"pub_type,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// QuoteFields is the payload of a quote candidate.
type QuoteFields struct {
	ThinkerName string  `json:"thinker_name"`
	ThinkerKey  string  `json:"thinker_key,omitempty"`
	Text        string  `json:"text"`
	Source      *string `json:"source,omitempty"`
}

// Candidate is a not-yet-canonical entity proposal. Exactly one payload pointer
// matching EntityType is non-nil; payloads are validated at the merge boundary.
type Candidate struct {
	ID             string         `json:"candidate_id"`
	EntityType     EntityType     `json:"entity_type"`
	Confidence     float64        `json:"confidence"`
	Include        bool           `json:"include"`
	DependencyKeys []string       `json:"dependency_keys,omitempty"`
	Evidence       []EvidenceSpan `json:"evidence,omitempty"`

	Thinker     *ThinkerFields     `json:"thinker,omitempty"`
	Event       *EventFields       `json:"event,omitempty"`
	Connection  *ConnectionFields  `json:"connection,omitempty"`
	Publication *PublicationFields `json:"publication,omitempty"`
	Quote       *QuoteFields       `json:"quote,omitempty"`

	// Thinker-only registry match results
	MatchStatus      MatchStatus       `json:"match_status,omitempty"`
	MatchedThinkerID *string           `json:"matched_thinker_id,omitempty"`
	MatchScore       float64           `json:"match_score,omitempty"`
	MatchReasons     []string          `json:"match_reasons,omitempty"`
	MetadataDelta    map[string]string `json:"metadata_delta,omitempty"`
}
