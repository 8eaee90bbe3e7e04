package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventClaimOpened, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.ClaimID)
		return errors.New("boom")
	})
	d.Subscribe(EventClaimOpened, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.ClaimID)
		return nil
	})
	d.Subscribe(EventClaimAmended, func(context.Context, Event) error {
		calls = append(calls, "amended")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventClaimOpened, ClaimID: "c1"})
	if err == nil {
		t.Error("expected the failing handler's error")
	}
	if len(calls) != 2 || calls[0] != "first:c1" || calls[1] != "second:c1" {
		t.Errorf("calls = %v", calls)
	}
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventClaimTransitioned}); err != nil {
		t.Errorf("Publish = %v, want nil", err)
	}
}
