// Package trigger decides which catalog samples fire on each feature update
// and issues play commands to the playback sink.
package trigger

import (
	"log"
	"sync"
	"time"

	"github.com/overtonehq/sidechain/internal/analysis"
	"github.com/overtonehq/sidechain/internal/audio"
	"github.com/overtonehq/sidechain/internal/catalog"
	"github.com/overtonehq/sidechain/internal/scoring"
)

// DefaultThreshold is the combined score a sample must exceed to fire. The
// bar is deliberately high so triggering stays sparse.
const DefaultThreshold = 0.7

// PlaybackConfig is derived fresh per firing.
type PlaybackConfig struct {
	Volume              float64 // [0.1, 1.0]
	PitchShiftSemitones int
	TimingOffset        time.Duration
}

// Sink plays a sample buffer. Owned by the hosting application; an error
// from one play call never aborts the rest of the cycle.
type Sink interface {
	Play(sampleID string, buf *audio.Buffer, cfg PlaybackConfig) error
}

// TriggeredFunc observes firings for logging or learning. Best effort,
// called synchronously after the play command is issued.
type TriggeredFunc func(sampleID string, ctx analysis.Snapshot, cfg PlaybackConfig)

// Scheduler applies eligibility and rate limiting, scores eligible samples
// against each feature snapshot, and fires everything that clears the
// threshold. Evaluate is expected to be called from a single goroutine (the
// aggregator serializes feature updates); the catalog may be replaced from
// another goroutine at any time.
type Scheduler struct {
	sink      Sink
	threshold float64
	now       func() time.Time // injected for tests

	mu          sync.Mutex
	samples     []*catalog.Entry
	lastFired   map[string]time.Time
	onTriggered TriggeredFunc
}

// NewScheduler creates a scheduler firing into sink. A non-positive
// threshold selects the default.
func NewScheduler(sink Sink, threshold float64) *Scheduler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scheduler{
		sink:      sink,
		threshold: threshold,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
	}
}

// ReplaceSamples swaps in a new catalog wholesale. Rate-limit state for
// samples that survive the swap is kept.
func (s *Scheduler) ReplaceSamples(entries []*catalog.Entry) {
	s.mu.Lock()
	s.samples = append([]*catalog.Entry(nil), entries...)
	s.mu.Unlock()
	log.Printf("Scheduler: catalog replaced, %d samples", len(entries))
}

// SampleCount returns the current catalog size.
func (s *Scheduler) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// SetOnTriggered registers the firing observer. Pass nil to clear it.
func (s *Scheduler) SetOnTriggered(fn TriggeredFunc) {
	s.mu.Lock()
	s.onTriggered = fn
	s.mu.Unlock()
}

// Evaluate runs one trigger pass against the snapshot and returns how many
// samples fired.
func (s *Scheduler) Evaluate(ctx analysis.Snapshot) int {
	s.mu.Lock()
	samples := s.samples
	notify := s.onTriggered
	s.mu.Unlock()

	now := s.now()
	fired := 0

	for _, sample := range samples {
		if !sample.AutoTriggerable() {
			continue
		}
		if !s.eligible(sample, now) {
			continue
		}

		result := scoring.Score(ctx, sample)
		if result.Combined <= s.threshold {
			continue
		}

		cfg := derivePlayback(ctx, sample, result.PitchShiftSemitones)

		// The rate limit tracks triggering intent, so the timestamp is
		// recorded even when playback fails.
		s.recordFiring(sample.ID, now)

		if err := s.sink.Play(sample.ID, sample.Buffer, cfg); err != nil {
			log.Printf("Trigger: play %s failed: %v", sample.ID, err)
		} else {
			log.Printf("Trigger: fired %s (score %.2f, vol %.2f, shift %+d)",
				sample.ID, result.Combined, cfg.Volume, cfg.PitchShiftSemitones)
		}
		fired++

		if notify != nil {
			notify(sample.ID, ctx, cfg)
		}
	}
	return fired
}

// eligible enforces the per-sample minimum re-trigger interval, measured
// from decision time of the previous firing.
func (s *Scheduler) eligible(sample *catalog.Entry, now time.Time) bool {
	s.mu.Lock()
	last, ok := s.lastFired[sample.ID]
	s.mu.Unlock()
	if !ok {
		return true
	}
	return now.Sub(last) >= sample.MinimumInterval()
}

func (s *Scheduler) recordFiring(id string, now time.Time) {
	s.mu.Lock()
	s.lastFired[id] = now
	s.mu.Unlock()
}

// derivePlayback computes the per-firing playback parameters.
func derivePlayback(ctx analysis.Snapshot, sample *catalog.Entry, shift int) PlaybackConfig {
	volume := 0.7
	if sample.TaggedAny("background", "ambient") {
		volume = 0.4
	}
	switch {
	case ctx.Energy < 0.3:
		volume *= 0.7
	case ctx.Energy > 0.7:
		volume *= 1.1
	}
	if volume < 0.1 {
		volume = 0.1
	}
	if volume > 1.0 {
		volume = 1.0
	}
	return PlaybackConfig{
		Volume:              volume,
		PitchShiftSemitones: shift,
	}
}
