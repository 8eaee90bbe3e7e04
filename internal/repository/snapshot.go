package repository

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/claimdesk/claim-service/internal/domain"
)

// ErrHistoryRewrite rejects a snapshot that is one version ahead but does
// not extend the stored case: it changes immutable fields, rewrites or drops
// timeline events, or removes attachments.
var ErrHistoryRewrite = errors.New("snapshot rewrites stored history")

// checkSave decides what Save does with next given the stored case. write is
// false for an acknowledged no-op.
func checkSave(stored, next domain.ClaimCase) (write bool, err error) {
	switch {
	case next.Version == stored.Version:
		if sameSnapshot(next, stored) {
			return false, nil
		}
		return false, &domain.ConflictError{ClaimID: next.ClaimID, Expected: next.Version - 1, Actual: stored.Version}
	case next.Version != stored.Version+1:
		return false, &domain.ConflictError{ClaimID: next.ClaimID, Expected: next.Version - 1, Actual: stored.Version}
	}
	if err := checkSuccessor(stored, next); err != nil {
		return false, err
	}
	return true, nil
}

// checkSuccessor verifies next is stored plus exactly one mutation.
func checkSuccessor(stored, next domain.ClaimCase) error {
	reject := func(reason string) error {
		return fmt.Errorf("claim %s: %w: %s", next.ClaimID, ErrHistoryRewrite, reason)
	}
	switch {
	case stored.State.Terminal():
		return reject("stored case is terminal")
	case !next.State.Valid():
		return reject("undefined state " + string(next.State))
	case next.PolicyNo != stored.PolicyNo:
		return reject("policyNo is immutable")
	case !next.CreatedAt.Equal(stored.CreatedAt):
		return reject("createdAt is immutable")
	case !equalString(next.ConversationID, stored.ConversationID):
		return reject("conversationId is immutable")
	case len(next.Timeline) != len(stored.Timeline)+1:
		return reject(fmt.Sprintf("expected exactly one new timeline event, got %d", len(next.Timeline)-len(stored.Timeline)))
	case !equalEvents(next.Timeline[:len(stored.Timeline)], stored.Timeline):
		return reject("stored timeline events were modified")
	case len(next.Attachments) < len(stored.Attachments) || !slices.Equal(next.Attachments[:len(stored.Attachments)], stored.Attachments):
		return reject("stored attachments were modified")
	}
	last := next.Timeline[len(next.Timeline)-1]
	if !last.Timestamp.Equal(next.UpdatedAt) || next.UpdatedAt.Before(stored.UpdatedAt) {
		return reject("updatedAt must equal the new event time and not move backwards")
	}
	return nil
}

// sameSnapshot reports whether a and b hold the same case in every field.
// Times compare by instant; nil and empty attachment lists are equal.
func sameSnapshot(a, b domain.ClaimCase) bool {
	return a.ClaimID == b.ClaimID &&
		a.Version == b.Version &&
		a.State == b.State &&
		a.PolicyNo == b.PolicyNo &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt) &&
		equalString(a.ConversationID, b.ConversationID) &&
		equalString(a.InsuredEntityName, b.InsuredEntityName) &&
		equalString(a.AccidentType, b.AccidentType) &&
		equalTime(a.AccidentDateTime, b.AccidentDateTime) &&
		equalString(a.AccidentLocation, b.AccidentLocation) &&
		equalString(a.AccidentDescription, b.AccidentDescription) &&
		equalString(a.ReporterName, b.ReporterName) &&
		equalString(a.ReporterContact, b.ReporterContact) &&
		slices.Equal(a.Attachments, b.Attachments) &&
		equalEvents(a.Timeline, b.Timeline)
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalEvents(a, b []domain.ClaimTimelineEvent) bool {
	return slices.EqualFunc(a, b, func(x, y domain.ClaimTimelineEvent) bool {
		return x.Timestamp.Equal(y.Timestamp) && x.Action == y.Action && x.Description == y.Description && x.Actor == y.Actor
	})
}
