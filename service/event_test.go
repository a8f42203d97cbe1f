package service

import "testing"

func TestPublishReachesSubscribers(t *testing.T) {
	events := NewEvents()
	var got []PageEvent
	events.SubscribePageEvents(func(ev PageEvent) {
		got = append(got, ev)
	})

	events.PublishPageEvent(PageEvent{RequestID: "r1", Header: "H", Success: true})
	events.PublishPageEvent(PageEvent{RequestID: "r2", Header: "H", Success: false})

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].RequestID != "r1" || !got[0].Success {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1].Time.IsZero() {
		t.Error("expected publish time to be set")
	}
}

func TestNilEventsIsNoop(t *testing.T) {
	var events *Events
	events.PublishPageEvent(PageEvent{Header: "H"})
}
