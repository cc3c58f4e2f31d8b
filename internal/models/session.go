// Package models defines data types for the negotiation engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a negotiation session.
type SessionStatus string

// Session lifecycle states. The first four are open; settled and
// abandoned are terminal and reject further round imports.
const (
	SessionDraft            SessionStatus = "draft"
	SessionActive           SessionStatus = "active"
	SessionAwaitingResponse SessionStatus = "awaiting_response"
	SessionReviewing        SessionStatus = "reviewing"
	SessionSettled          SessionStatus = "settled"
	SessionAbandoned        SessionStatus = "abandoned"
)

// IsTerminal reports whether the status accepts no further transitions.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionSettled || s == SessionAbandoned
}

// IsOpen reports whether the session can still receive rounds.
func (s SessionStatus) IsOpen() bool {
	return !s.IsTerminal()
}

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionDraft, SessionActive, SessionAwaitingResponse,
		SessionReviewing, SessionSettled, SessionAbandoned:
		return true
	}
	return false
}

// NextStatusOnImport applies the auto-transition rule for a round import:
// an externally proposed round moves a draft or awaiting_response session
// to reviewing. Every other combination leaves the status unchanged.
func NextStatusOnImport(current SessionStatus, proposedBy Proposer) SessionStatus {
	if proposedBy == ProposerExternal &&
		(current == SessionDraft || current == SessionAwaitingResponse) {
		return SessionReviewing
	}
	return current
}

// SessionCounts holds the aggregate change counters for a session.
// They are always recomputed from the change table, never incremented.
type SessionCounts struct {
	Total     int `json:"total_changes"`
	Pending   int `json:"pending_changes"`
	Accepted  int `json:"accepted_changes"`
	Rejected  int `json:"rejected_changes"`
	Countered int `json:"countered_changes"`
}

// NegotiationSession tracks one negotiation over a document with a
// single counterparty. Sessions are never physically deleted; closing
// one means moving it to a terminal status.
type NegotiationSession struct {
	ID               string        `json:"id"`
	WorkspaceID      uuid.UUID     `json:"-"`
	DocID            string        `json:"doc_id"`
	Title            string        `json:"title"`
	CounterpartyName string        `json:"counterparty_name"`
	Status           SessionStatus `json:"status"`
	CurrentRound     int           `json:"current_round"`
	Counts           SessionCounts `json:"counts"`
	StartedBy        string        `json:"started_by"`
	SettledAt        *time.Time    `json:"settled_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CreateSessionRequest is the payload for creating a negotiation session.
type CreateSessionRequest struct {
	DocID            string `json:"doc_id"`
	Title            string `json:"title"`
	CounterpartyName string `json:"counterparty_name"`
	StartedBy        string `json:"started_by"`
}

// Validate checks required fields and length limits on CreateSessionRequest.
func (r *CreateSessionRequest) Validate() error {
	if r.DocID == "" {
		return ErrMissingDocID
	}
	if len(r.DocID) > 255 {
		return ErrFieldTooLong("doc_id", 255)
	}
	if r.Title == "" {
		return ErrMissingTitle
	}
	if len(r.Title) > 500 {
		return ErrFieldTooLong("title", 500)
	}
	if len(r.CounterpartyName) > 255 {
		return ErrFieldTooLong("counterparty_name", 255)
	}
	if len(r.StartedBy) > 255 {
		return ErrFieldTooLong("started_by", 255)
	}
	return nil
}
