package models

// Thinker commit actions.
const (
	ThinkerActionCreate = "create" // insert a new thinker row
	ThinkerActionAttach = "attach" // attach an unclaimed existing row to the new timeline
	ThinkerActionClone  = "clone"  // copy an already-attached row into a new timeline-scoped one
)

// PlannedThinker is one thinker operation in a commit plan.
type PlannedThinker struct {
	CandidateID string       `json:"candidate_id"`
	Action      string       `json:"action"`
	NewID       string       `json:"new_id,omitempty"`      // create/clone target id
	ExistingID  string       `json:"existing_id,omitempty"` // attach target or clone source
	Input       ThinkerInput `json:"input"`
}

// PlannedConnection is one connection insert; endpoint ids are final.
type PlannedConnection struct {
	CandidateID string          `json:"candidate_id"`
	NewID       string          `json:"new_id"`
	Input       ConnectionInput `json:"input"`
}

// PlannedEvent is one event insert.
type PlannedEvent struct {
	CandidateID string     `json:"candidate_id"`
	NewID       string     `json:"new_id"`
	Input       EventInput `json:"input"`
}

// PlannedPublication is one publication insert.
type PlannedPublication struct {
	CandidateID string           `json:"candidate_id"`
	NewID       string           `json:"new_id"`
	Input       PublicationInput `json:"input"`
}

// PlannedQuote is one quote insert.
type PlannedQuote struct {
	CandidateID string     `json:"candidate_id"`
	NewID       string     `json:"new_id"`
	Input       QuoteInput `json:"input"`
}

// CommitPlan is the fully-resolved set of canonical writes for one commit.
// All record ids are assigned up front so the plan can be applied as a single
// all-or-nothing transaction and audited without a read-back.
type CommitPlan struct {
	SessionID    string               `json:"session_id"`
	TimelineID   string               `json:"timeline_id"`
	Timeline     TimelineInput        `json:"timeline"`
	Thinkers     []PlannedThinker     `json:"thinkers,omitempty"`
	Connections  []PlannedConnection  `json:"connections,omitempty"`
	Events       []PlannedEvent       `json:"events,omitempty"`
	Publications []PlannedPublication `json:"publications,omitempty"`
	Quotes       []PlannedQuote       `json:"quotes,omitempty"`
}
