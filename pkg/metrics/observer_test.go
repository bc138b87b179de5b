package metrics

import (
	"testing"
	"time"
)

func TestMemoryObserverRecords(t *testing.T) {
	m := NewMemoryObserver()
	m.RecordEvent(Event(EventTurnFailed, 1, map[string]string{"lesson_id": "l1"}))
	if len(m.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(m.Events))
	}
	if m.Events[0].Name != EventTurnFailed || m.Events[0].Tags["lesson_id"] != "l1" {
		t.Fatalf("unexpected event %+v", m.Events[0])
	}
}

func TestAsyncObserverDeliversAndCloses(t *testing.T) {
	inner := NewMemoryObserver()
	a := NewAsyncObserver(inner, 16)
	a.RecordEvent(Event(EventGenerateBatch, 3, nil))
	a.RecordEvent(Event(EventGenerateBatch, 5, nil))

	deadline := time.Now().Add(2 * time.Second)
	for {
		inner.mu.Lock()
		n := len(inner.Events)
		inner.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("events not delivered, got %d", n)
		}
		time.Sleep(time.Millisecond)
	}

	a.Close()
	// Records after close are silently dropped, not a panic.
	a.RecordEvent(Event(EventGenerateBatch, 7, nil))
	a.Close()
}

func TestAsyncObserverCountsDrops(t *testing.T) {
	blocker := make(chan struct{})
	inner := blockingObserver{release: blocker}
	a := NewAsyncObserver(inner, 1)
	defer close(blocker)

	for i := 0; i < 50; i++ {
		a.RecordEvent(Event(EventHTTPRequest, float64(i), nil))
	}
	if a.Dropped() == 0 {
		t.Fatalf("expected drops with a full buffer")
	}
}

type blockingObserver struct {
	release chan struct{}
}

func (b blockingObserver) RecordEvent(MetricsEvent) { <-b.release }
