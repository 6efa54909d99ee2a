package engine

import (
	"sync"
	"time"

	"github.com/overtonehq/sidechain/internal/analysis"
	"github.com/overtonehq/sidechain/internal/audio"
	"github.com/overtonehq/sidechain/internal/catalog"
	"github.com/overtonehq/sidechain/internal/trigger"
)

// Options tune the engine. Zero values select the defaults.
type Options struct {
	FFTSize          int
	WindowCap        time.Duration
	Cadence          time.Duration
	TriggerThreshold float64
}

// Engine is the assembled analysis-and-triggering pipeline: buffers in,
// play commands out.
type Engine struct {
	aggregator *Aggregator
	scheduler  *trigger.Scheduler

	mu       sync.RWMutex
	lastSnap analysis.Snapshot
	cycles   int
}

// New builds an engine firing into sink.
func New(sink trigger.Sink, opts Options) *Engine {
	extractor := analysis.NewExtractor(opts.FFTSize)
	e := &Engine{
		aggregator: NewAggregator(extractor, opts.WindowCap, opts.Cadence),
		scheduler:  trigger.NewScheduler(sink, opts.TriggerThreshold),
	}
	e.aggregator.Subscribe(func(snap analysis.Snapshot) {
		e.mu.Lock()
		e.lastSnap = snap
		e.cycles++
		e.mu.Unlock()
		e.scheduler.Evaluate(snap)
	})
	return e
}

// OnBuffer ingests one buffer from the generation stream.
func (e *Engine) OnBuffer(buf *audio.Buffer) {
	e.aggregator.OnBuffer(buf)
}

// ReplaceSamples swaps the sample catalog wholesale.
func (e *Engine) ReplaceSamples(entries []*catalog.Entry) {
	e.scheduler.ReplaceSamples(entries)
}

// SetOnTriggered registers the firing observer.
func (e *Engine) SetOnTriggered(fn trigger.TriggeredFunc) {
	e.scheduler.SetOnTriggered(fn)
}

// SampleCount returns the current catalog size.
func (e *Engine) SampleCount() int {
	return e.scheduler.SampleCount()
}

// LastSnapshot returns the most recent feature snapshot and how many
// analysis cycles have run.
func (e *Engine) LastSnapshot() (analysis.Snapshot, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnap, e.cycles
}

// QueuedDuration reports the audio currently held in the sliding window.
func (e *Engine) QueuedDuration() time.Duration {
	return e.aggregator.QueuedDuration()
}
