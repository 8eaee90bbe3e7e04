package events

import (
	"time"

	"github.com/claimdesk/claim-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClaimOpened       EventType = "claim_opened"
	EventClaimTransitioned EventType = "claim_transitioned"
	EventClaimAmended      EventType = "claim_amended"
)

// Event represents a domain event emitted after a claim change is committed.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	ClaimID   string       `json:"claim_id"`
	PolicyNo  string       `json:"policy_no"`
	Actor     domain.Actor `json:"actor"`
	Version   int64        `json:"version"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// ClaimOpenedPayload payload.
type ClaimOpenedPayload struct {
	ConversationID *string `json:"conversation_id,omitempty"`
}

// ClaimTransitionedPayload payload.
type ClaimTransitionedPayload struct {
	Action    domain.ClaimAction `json:"action"`
	FromState domain.ClaimState  `json:"from_state"`
	ToState   domain.ClaimState  `json:"to_state"`
	Comment   string             `json:"comment,omitempty"`
}

// ClaimAmendedPayload payload.
type ClaimAmendedPayload struct {
	Description string `json:"description"`
}
