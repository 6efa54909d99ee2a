package stream

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventHubPublishDelivers(t *testing.T) {
	h := NewEventHub()

	ch := make(chan []byte, 4)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	ev := TriggerEvent{
		SampleID:   "kick-01",
		At:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Volume:     0.77,
		PitchShift: -2,
		ContextKey: "A",
		Scale:      "Minor",
		Energy:     0.6,
	}
	h.Publish(ev)

	select {
	case payload := <-ch:
		var got TriggerEvent
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("Published payload is not valid JSON: %v", err)
		}
		if got.SampleID != "kick-01" {
			t.Errorf("SampleID = %q, want 'kick-01'", got.SampleID)
		}
		if got.PitchShift != -2 {
			t.Errorf("PitchShift = %d, want -2", got.PitchShift)
		}
		if got.Volume != 0.77 {
			t.Errorf("Volume = %f, want 0.77", got.Volume)
		}
	default:
		t.Fatal("Publish did not deliver to subscriber")
	}
}

func TestEventHubPublishNeverBlocks(t *testing.T) {
	h := NewEventHub()

	// A full, unread subscriber channel must not stall publishing.
	full := make(chan []byte, 1)
	full <- []byte("stale")
	h.mu.Lock()
	h.subs[full] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.Publish(TriggerEvent{SampleID: "fx-07"})
		close(done)
	}()

	select {
	case <-done:
		// good
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestEventHubSubscriberCount(t *testing.T) {
	h := NewEventHub()
	if h.SubscriberCount() != 0 {
		t.Errorf("Initial SubscriberCount = %d, want 0", h.SubscriberCount())
	}

	ch := make(chan []byte, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	if h.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount = %d, want 1", h.SubscriberCount())
	}
}
