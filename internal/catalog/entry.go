// Package catalog describes the user's sample library: per-sample musical
// metadata the scorer and scheduler work from, plus a directory loader for
// the host application.
package catalog

import (
	"strings"
	"time"

	"github.com/overtonehq/sidechain/internal/audio"
)

// SampleType classifies how a sample is meant to be used.
type SampleType string

const (
	OneShot     SampleType = "one-shot"
	Loop        SampleType = "loop"
	Breakbeat   SampleType = "breakbeat"
	TonalPhrase SampleType = "tonal-phrase"
	FX          SampleType = "fx"
)

// DefaultMinimumInterval is the re-trigger rate limit applied when an entry
// doesn't specify one.
const DefaultMinimumInterval = 3 * time.Second

// Entry is one sample in the catalog. All musical metadata is optional;
// missing fields score neutrally rather than blocking evaluation.
type Entry struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	File       string     `json:"file"`
	SampleType SampleType `json:"sample_type"`

	Key         string `json:"key,omitempty"`
	Scale       string `json:"scale,omitempty"`
	EnergyLevel *int   `json:"energy_level,omitempty"` // 1-10

	GrooveDescription string   `json:"groove_description,omitempty"`
	MoodTags          []string `json:"mood_tags,omitempty"`
	SuggestedUses     []string `json:"suggested_uses,omitempty"`

	// MinimumIntervalMs rate-limits auto-triggering. Nil means the default;
	// an explicit 0 disables the limit.
	MinimumIntervalMs *int `json:"minimum_interval_ms,omitempty"`

	Buffer *audio.Buffer `json:"-"`
}

// MinimumInterval returns the re-trigger rate limit for this entry.
func (e *Entry) MinimumInterval() time.Duration {
	if e.MinimumIntervalMs == nil {
		return DefaultMinimumInterval
	}
	if *e.MinimumIntervalMs < 0 {
		return 0
	}
	return time.Duration(*e.MinimumIntervalMs) * time.Millisecond
}

// AutoTriggerable reports whether this sample type may be fired by the
// scheduler. Loops, breaks, and tonal phrases are backing material the user
// places manually.
func (e *Entry) AutoTriggerable() bool {
	return e.SampleType == OneShot || e.SampleType == FX
}

// TaggedAny reports whether any mood tag or suggested use contains one of
// the given words, case-insensitively.
func (e *Entry) TaggedAny(words ...string) bool {
	for _, tag := range append(append([]string{}, e.MoodTags...), e.SuggestedUses...) {
		t := strings.ToLower(tag)
		for _, w := range words {
			if strings.Contains(t, w) {
				return true
			}
		}
	}
	return false
}
