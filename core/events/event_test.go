package events

import (
	"fmt"
	"testing"
)

type stubEvent string

func (s stubEvent) EventType() string { return string(s) }

func TestRecorderKeepsEmissionOrder(t *testing.T) {
	recorder := &Recorder{}
	recorder.Emit(stubEvent("first"))
	recorder.Emit(stubEvent("second"))
	recorder.Emit(nil)

	got := recorder.Events()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].EventType() != "first" || got[1].EventType() != "second" {
		t.Fatalf("order lost: %v", got)
	}
}

func TestRecorderLimitDropsOldest(t *testing.T) {
	recorder := &Recorder{Limit: 3}
	for i := 0; i < 5; i++ {
		recorder.Emit(stubEvent(fmt.Sprintf("evt-%d", i)))
	}
	got := recorder.Events()
	if len(got) != 3 {
		t.Fatalf("expected window of 3, got %d", len(got))
	}
	if got[0].EventType() != "evt-2" || got[2].EventType() != "evt-4" {
		t.Fatalf("unexpected window: %v", got)
	}
}
