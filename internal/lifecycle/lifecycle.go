// Package lifecycle implements the claim-case state machine. Every operation
// is a pure function over a snapshot: it returns a new ClaimCase with exactly
// one appended timeline event, or an error and no changes.
package lifecycle

import (
	"strings"

	"github.com/google/uuid"

	"github.com/claimdesk/claim-service/internal/domain"
)

// Lifecycle owns the transition table and the timeline recorder.
type Lifecycle struct {
	recorder *Recorder
	newID    func() string
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock sets the clock used for event timestamps.
func WithClock(clock Clock) Option {
	return func(l *Lifecycle) {
		l.recorder = NewRecorder(clock)
	}
}

// WithIDGenerator overrides claim id generation.
func WithIDGenerator(fn func() string) Option {
	return func(l *Lifecycle) {
		l.newID = fn
	}
}

// New builds a Lifecycle.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{
		recorder: NewRecorder(nil),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a case in DRAFT with the creation event as its first entry.
func (l *Lifecycle) Open(input domain.OpenClaimInput, actor domain.Actor) (domain.ClaimCase, error) {
	policyNo := NormalizePolicyNo(input.PolicyNo)
	if err := ValidatePolicyNo(policyNo); err != nil {
		return domain.ClaimCase{}, err
	}

	c := domain.ClaimCase{
		ClaimID:     l.newID(),
		State:       domain.ClaimStateDraft,
		PolicyNo:    policyNo,
		Attachments: []string{},
	}
	if input.ConversationID != nil {
		conv := strings.TrimSpace(*input.ConversationID)
		if conv == "" {
			return domain.ClaimCase{}, payloadError(c.State, domain.TimelineActionCreate, "conversationId", "must not be blank")
		}
		c.ConversationID = &conv
	}

	event, err := l.recorder.Record(c, domain.TimelineActionCreate, actor, describe("Claim case created", input.Details.Comment))
	if err != nil {
		return domain.ClaimCase{}, err
	}
	if err := mergePayload(&c, input.Details, domain.TimelineActionCreate); err != nil {
		return domain.ClaimCase{}, err
	}
	c.CreatedAt = event.Timestamp
	apply(&c, event)
	return c, nil
}

// Transition applies action to current on behalf of actor. The payload's
// fields are merged before the target state's requirements are checked.
func (l *Lifecycle) Transition(current domain.ClaimCase, action domain.ClaimAction, actor domain.Actor, payload domain.ClaimPayload) (domain.ClaimCase, error) {
	if !current.State.Valid() {
		return domain.ClaimCase{}, &domain.TransitionError{
			Kind:   domain.ErrInvalidTransition,
			State:  current.State,
			Action: string(action),
			Actor:  actor,
			Reason: "case holds an undefined state",
		}
	}
	if current.State.Terminal() {
		return domain.ClaimCase{}, &domain.TransitionError{
			Kind:   domain.ErrTerminalStateViolation,
			State:  current.State,
			Action: string(action),
			Actor:  actor,
			Reason: "no transitions are allowed from a terminal state",
		}
	}
	e, ok := transitions[current.State][action]
	if !ok {
		return domain.ClaimCase{}, &domain.TransitionError{
			Kind:   domain.ErrInvalidTransition,
			State:  current.State,
			Action: string(action),
			Actor:  actor,
			Reason: "action not allowed from current state",
		}
	}

	event, err := l.recorder.Record(current, string(action), actor, describe(e.description, payload.Comment))
	if err != nil {
		return domain.ClaimCase{}, err
	}
	if e.staffOnly && actor == domain.ActorUser {
		return domain.ClaimCase{}, &domain.TransitionError{
			Kind:   domain.ErrInvalidTransition,
			State:  current.State,
			Action: string(action),
			Actor:  actor,
			Reason: "action is reserved for AGENT or SYSTEM actors",
		}
	}

	next := current.Clone()
	if err := mergePayload(&next, payload, string(action)); err != nil {
		return domain.ClaimCase{}, err
	}
	if err := checkTarget(next, action, e.to, payload, event); err != nil {
		return domain.ClaimCase{}, err
	}

	next.State = e.to
	apply(&next, event)
	return next, nil
}

// Amend updates descriptive fields without changing state.
func (l *Lifecycle) Amend(current domain.ClaimCase, actor domain.Actor, payload domain.ClaimPayload) (domain.ClaimCase, error) {
	const action = domain.TimelineActionUpdateDetails
	if current.State.Terminal() {
		return domain.ClaimCase{}, &domain.TransitionError{
			Kind:   domain.ErrTerminalStateViolation,
			State:  current.State,
			Action: action,
			Actor:  actor,
			Reason: "terminal cases cannot be modified",
		}
	}
	if !payload.HasFieldUpdates() {
		return domain.ClaimCase{}, payloadError(current.State, action, "", "payload carries no field updates")
	}

	event, err := l.recorder.Record(current, action, actor, describe("Claim details updated ("+strings.Join(changedFields(payload), ", ")+")", payload.Comment))
	if err != nil {
		return domain.ClaimCase{}, err
	}

	next := current.Clone()
	if err := mergePayload(&next, payload, action); err != nil {
		return domain.ClaimCase{}, err
	}
	if next.State != domain.ClaimStateDraft {
		if err := requireIntake(next, action, event.Timestamp); err != nil {
			return domain.ClaimCase{}, err
		}
	}

	apply(&next, event)
	return next, nil
}

func checkTarget(next domain.ClaimCase, action domain.ClaimAction, to domain.ClaimState, payload domain.ClaimPayload, event domain.ClaimTimelineEvent) error {
	switch {
	case to.Terminal():
		if payload.HasFieldUpdates() {
			return payloadError(next.State, string(action), "", "closing actions cannot update case fields")
		}
	case to == domain.ClaimStateReadyToSubmit, to == domain.ClaimStateSubmitted:
		return requireIntake(next, string(action), event.Timestamp)
	case action == domain.ActionRequestInfo:
		if payload.Comment == nil || strings.TrimSpace(*payload.Comment) == "" {
			return payloadError(next.State, string(action), "comment", "describe the information needed")
		}
	case action == domain.ActionResubmit:
		if !payload.HasFieldUpdates() {
			return payloadError(next.State, string(action), "", "resubmission must add attachments or update fields")
		}
		return requireIntake(next, string(action), event.Timestamp)
	}
	return nil
}

func describe(base string, comment *string) string {
	if comment == nil {
		return base
	}
	c := strings.TrimSpace(*comment)
	if c == "" {
		return base
	}
	return base + ": " + c
}

func changedFields(p domain.ClaimPayload) []string {
	var out []string
	if p.InsuredEntityName != nil {
		out = append(out, "insuredEntityName")
	}
	if p.AccidentType != nil {
		out = append(out, "accidentType")
	}
	if p.AccidentDateTime != nil {
		out = append(out, "accidentDateTime")
	}
	if p.AccidentLocation != nil {
		out = append(out, "accidentLocation")
	}
	if p.AccidentDescription != nil {
		out = append(out, "accidentDescription")
	}
	if p.ReporterName != nil {
		out = append(out, "reporterName")
	}
	if p.ReporterContact != nil {
		out = append(out, "reporterContact")
	}
	if len(p.Attachments) > 0 {
		out = append(out, "attachments")
	}
	return out
}
