package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// TriggerEvent describes one sample firing, for logging and UI subscribers.
type TriggerEvent struct {
	SampleID    string    `json:"sample_id"`
	At          time.Time `json:"at"`
	Volume      float64   `json:"volume"`
	PitchShift  int       `json:"pitch_shift"`
	ContextKey  string    `json:"context_key,omitempty"`
	Scale       string    `json:"context_scale,omitempty"`
	Energy      float64   `json:"context_energy"`
	BeatDensity float64   `json:"context_beat_density"`
}

// EventHub fans trigger events out to SSE subscribers. Publishing never
// blocks: slow subscribers miss events rather than stalling the trigger
// path.
type EventHub struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan []byte]struct{})}
}

// Publish sends the event to every subscriber, best effort.
func (h *EventHub) Publish(ev TriggerEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Events: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
		}
	}
	h.mu.RUnlock()
}

// SubscriberCount returns the number of connected event listeners.
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP streams trigger events as server-sent events.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
