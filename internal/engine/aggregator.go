// Package engine glues the streaming side to the analysis side: it buffers
// the incoming generated audio, runs feature extraction on a fixed cadence,
// and fans the resulting snapshots out to subscribers.
package engine

import (
	"sync"
	"time"

	"github.com/overtonehq/sidechain/internal/analysis"
	"github.com/overtonehq/sidechain/internal/audio"
)

const (
	// DefaultWindowCap bounds how much queued audio the sliding analysis
	// window keeps.
	DefaultWindowCap = 2 * time.Second

	// DefaultCadence is the minimum wall-clock spacing between analysis
	// cycles.
	DefaultCadence = 500 * time.Millisecond
)

// SnapshotFunc receives feature snapshots in the order their windows were
// computed. It runs on the ingesting goroutine and must return promptly.
type SnapshotFunc func(analysis.Snapshot)

// Aggregator collects the incoming stream of small audio buffers into a
// bounded sliding window and periodically hands the window to the feature
// extractor. The cadence check rides on ingestion rather than a timer:
// a cycle may fire late but never early, and never with an empty queue.
type Aggregator struct {
	extractor *analysis.Extractor
	windowCap time.Duration
	cadence   time.Duration
	now       func() time.Time // injected for tests

	mu          sync.Mutex
	queue       []*audio.Buffer
	queued      time.Duration
	lastCycle   time.Time
	inFlight    bool
	subscribers []SnapshotFunc
}

// NewAggregator creates an aggregator feeding extractor. Non-positive cap or
// cadence select the defaults.
func NewAggregator(extractor *analysis.Extractor, windowCap, cadence time.Duration) *Aggregator {
	if windowCap <= 0 {
		windowCap = DefaultWindowCap
	}
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	a := &Aggregator{
		extractor: extractor,
		windowCap: windowCap,
		cadence:   cadence,
		now:       time.Now,
	}
	a.lastCycle = a.now()
	return a
}

// Subscribe registers a snapshot consumer. Not safe to call concurrently
// with ingestion; wire subscribers up before the stream starts.
func (a *Aggregator) Subscribe(fn SnapshotFunc) {
	a.mu.Lock()
	a.subscribers = append(a.subscribers, fn)
	a.mu.Unlock()
}

// QueuedDuration returns how much audio is currently in the sliding window.
func (a *Aggregator) QueuedDuration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queued
}

// OnBuffer ingests one buffer from the generation stream and, if an
// analysis cycle is due, runs it synchronously before returning. The
// extractor's rolling state is not safe for interleaved calls, so an
// overdue cycle is skipped while another is in flight rather than
// overlapped.
func (a *Aggregator) OnBuffer(buf *audio.Buffer) {
	if buf == nil {
		return
	}

	a.mu.Lock()
	a.queue = append(a.queue, buf)
	a.queued += buf.Duration()

	// Sliding window: evict oldest buffers until back under the cap.
	for a.queued > a.windowCap && len(a.queue) > 1 {
		a.queued -= a.queue[0].Duration()
		a.queue = a.queue[1:]
	}

	now := a.now()
	due := !a.inFlight && len(a.queue) > 0 && now.Sub(a.lastCycle) >= a.cadence
	var window []*audio.Buffer
	var subs []SnapshotFunc
	if due {
		a.inFlight = true
		a.lastCycle = now
		window = append([]*audio.Buffer(nil), a.queue...)
		subs = a.subscribers
	}
	a.mu.Unlock()

	if !due {
		return
	}
	defer func() {
		a.mu.Lock()
		a.inFlight = false
		a.mu.Unlock()
	}()

	merged := audio.Concat(window)
	if merged == nil {
		// Only zero-length buffers were queued; skip the cycle quietly.
		return
	}

	snap := a.extractor.Analyze(merged)
	for _, fn := range subs {
		fn(snap)
	}
}
