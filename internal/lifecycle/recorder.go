package lifecycle

import (
	"strings"
	"time"

	"github.com/claimdesk/claim-service/internal/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

// Microsecond precision matches what Postgres timestamptz stores.
func (systemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// Recorder builds timeline events. It is the only place a mutation reads the
// clock, so the event timestamp and the case's UpdatedAt always agree.
type Recorder struct {
	clock Clock
}

// NewRecorder returns a recorder reading from clock, or the UTC wall clock if nil.
func NewRecorder(clock Clock) *Recorder {
	if clock == nil {
		clock = systemClock{}
	}
	return &Recorder{clock: clock}
}

// Record constructs the next event for c. The timestamp never precedes the
// case's UpdatedAt or its last event, even if the clock moved backwards.
func (r *Recorder) Record(c domain.ClaimCase, action string, actor domain.Actor, description string) (domain.ClaimTimelineEvent, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return domain.ClaimTimelineEvent{}, &domain.TransitionError{
			Kind:   domain.ErrInvalidEventData,
			State:  c.State,
			Actor:  actor,
			Field:  "action",
			Reason: "action must not be empty",
		}
	}
	if !actor.Valid() {
		return domain.ClaimTimelineEvent{}, &domain.TransitionError{
			Kind:   domain.ErrInvalidEventData,
			State:  c.State,
			Action: action,
			Actor:  actor,
			Field:  "actor",
			Reason: "actor must be one of USER, SYSTEM, AGENT",
		}
	}

	now := r.clock.Now()
	if now.Before(c.UpdatedAt) {
		now = c.UpdatedAt
	}
	if last, ok := c.LastEvent(); ok && now.Before(last.Timestamp) {
		now = last.Timestamp
	}

	return domain.ClaimTimelineEvent{
		Timestamp:   now,
		Action:      action,
		Description: strings.TrimSpace(description),
		Actor:       actor,
	}, nil
}

// apply appends event to next and stamps UpdatedAt. next must already be a
// clone; the backing timeline is reallocated so earlier snapshots sharing the
// old array never observe the append.
func apply(next *domain.ClaimCase, event domain.ClaimTimelineEvent) {
	timeline := make([]domain.ClaimTimelineEvent, len(next.Timeline), len(next.Timeline)+1)
	copy(timeline, next.Timeline)
	next.Timeline = append(timeline, event)
	next.UpdatedAt = event.Timestamp
	next.Version++
}
