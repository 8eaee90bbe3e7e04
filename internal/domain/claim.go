package domain

import (
	"slices"
	"time"
)

// ClaimState enumerates lifecycle states for claim cases.
type ClaimState string

const (
	ClaimStateDraft         ClaimState = "DRAFT"
	ClaimStateReadyToSubmit ClaimState = "READY_TO_SUBMIT"
	ClaimStateSubmitted     ClaimState = "SUBMITTED"
	ClaimStateInReview      ClaimState = "IN_REVIEW"
	ClaimStateNeedsMoreInfo ClaimState = "NEEDS_MORE_INFO"
	ClaimStateClosed        ClaimState = "CLOSED"
	ClaimStateRejected      ClaimState = "REJECTED"
)

// ClaimStates lists every defined state in lifecycle order.
var ClaimStates = []ClaimState{
	ClaimStateDraft,
	ClaimStateReadyToSubmit,
	ClaimStateSubmitted,
	ClaimStateInReview,
	ClaimStateNeedsMoreInfo,
	ClaimStateClosed,
	ClaimStateRejected,
}

// Valid reports whether s is one of the defined states.
func (s ClaimState) Valid() bool {
	return slices.Contains(ClaimStates, s)
}

// Terminal reports whether no further transition is allowed from s.
func (s ClaimState) Terminal() bool {
	return s == ClaimStateClosed || s == ClaimStateRejected
}

// ClaimAction names a transition request.
type ClaimAction string

const (
	ActionCompleteIntake ClaimAction = "complete-intake"
	ActionSubmit         ClaimAction = "submit"
	ActionStartReview    ClaimAction = "start-review"
	ActionRequestInfo    ClaimAction = "request-info"
	ActionResubmit       ClaimAction = "resubmit"
	ActionApprove        ClaimAction = "approve"
	ActionDeny           ClaimAction = "deny"
	ActionWithdraw       ClaimAction = "withdraw"
)

// ClaimActions lists every transition action.
var ClaimActions = []ClaimAction{
	ActionCompleteIntake,
	ActionSubmit,
	ActionStartReview,
	ActionRequestInfo,
	ActionResubmit,
	ActionApprove,
	ActionDeny,
	ActionWithdraw,
}

// Timeline labels for mutations that are not transitions.
const (
	TimelineActionCreate        = "create"
	TimelineActionUpdateDetails = "update-details"
)

// Actor identifies who caused a change.
type Actor string

const (
	ActorUser   Actor = "USER"
	ActorSystem Actor = "SYSTEM"
	ActorAgent  Actor = "AGENT"
)

// Valid reports whether a is an enumerated actor.
func (a Actor) Valid() bool {
	switch a {
	case ActorUser, ActorSystem, ActorAgent:
		return true
	}
	return false
}

// ClaimCase is the aggregate for an insurance claim from intake to resolution.
// Values are snapshots: lifecycle operations return a new ClaimCase and never
// modify the one they were given.
type ClaimCase struct {
	ClaimID             string               `json:"claimId"`
	Version             int64                `json:"version"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
	State               ClaimState           `json:"state"`
	PolicyNo            string               `json:"policyNo"`
	ConversationID      *string              `json:"conversationId,omitempty"`
	InsuredEntityName   *string              `json:"insuredEntityName,omitempty"`
	AccidentType        *string              `json:"accidentType,omitempty"`
	AccidentDateTime    *time.Time           `json:"accidentDateTime,omitempty"`
	AccidentLocation    *string              `json:"accidentLocation,omitempty"`
	AccidentDescription *string              `json:"accidentDescription,omitempty"`
	ReporterName        *string              `json:"reporterName,omitempty"`
	ReporterContact     *string              `json:"reporterContact,omitempty"`
	Attachments         []string             `json:"attachments"`
	Timeline            []ClaimTimelineEvent `json:"timeline"`
}

// Clone returns a deep copy so the receiver can be mutated independently.
func (c ClaimCase) Clone() ClaimCase {
	out := c
	out.ConversationID = cloneString(c.ConversationID)
	out.InsuredEntityName = cloneString(c.InsuredEntityName)
	out.AccidentType = cloneString(c.AccidentType)
	out.AccidentLocation = cloneString(c.AccidentLocation)
	out.AccidentDescription = cloneString(c.AccidentDescription)
	out.ReporterName = cloneString(c.ReporterName)
	out.ReporterContact = cloneString(c.ReporterContact)
	if c.AccidentDateTime != nil {
		t := *c.AccidentDateTime
		out.AccidentDateTime = &t
	}
	out.Attachments = slices.Clone(c.Attachments)
	out.Timeline = slices.Clone(c.Timeline)
	return out
}

// LastEvent returns the most recently appended timeline event.
func (c ClaimCase) LastEvent() (ClaimTimelineEvent, bool) {
	if len(c.Timeline) == 0 {
		return ClaimTimelineEvent{}, false
	}
	return c.Timeline[len(c.Timeline)-1], true
}

// ClaimPayload carries optional field updates for a transition or amendment.
// Nil fields leave the case untouched; Attachments are appended.
type ClaimPayload struct {
	InsuredEntityName   *string    `json:"insuredEntityName,omitempty"`
	AccidentType        *string    `json:"accidentType,omitempty"`
	AccidentDateTime    *time.Time `json:"accidentDateTime,omitempty"`
	AccidentLocation    *string    `json:"accidentLocation,omitempty"`
	AccidentDescription *string    `json:"accidentDescription,omitempty"`
	ReporterName        *string    `json:"reporterName,omitempty"`
	ReporterContact     *string    `json:"reporterContact,omitempty"`
	Attachments         []string   `json:"attachments,omitempty"`
	Comment             *string    `json:"comment,omitempty"`
}

// HasFieldUpdates reports whether the payload changes any case field.
func (p ClaimPayload) HasFieldUpdates() bool {
	return p.InsuredEntityName != nil ||
		p.AccidentType != nil ||
		p.AccidentDateTime != nil ||
		p.AccidentLocation != nil ||
		p.AccidentDescription != nil ||
		p.ReporterName != nil ||
		p.ReporterContact != nil ||
		len(p.Attachments) > 0
}

// OpenClaimInput describes the data accepted when a case is created.
type OpenClaimInput struct {
	PolicyNo       string
	ConversationID *string
	Details        ClaimPayload
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
