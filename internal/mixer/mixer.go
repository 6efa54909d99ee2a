// Package mixer implements the playback sink: triggered sample voices are
// pitch-shifted, gain-scaled, and mixed over the passthrough stream.
package mixer

import (
	"fmt"
	"math"
	"sync"

	"github.com/overtonehq/sidechain/internal/audio"
	"github.com/overtonehq/sidechain/internal/trigger"
)

// voice is one in-flight triggered sample.
type voice struct {
	id    string
	buf   *audio.Buffer
	gain  float32
	ratio float64 // playback rate, 2^(semitones/12)
	pos   float64 // fractional read position
	delay int     // output samples to wait before the voice starts
}

func (v *voice) done() bool {
	return v.pos >= float64(v.buf.Len()-1)
}

// sampleAt reads channel c at the current position with linear
// interpolation.
func (v *voice) sampleAt(c int) float32 {
	ch := v.buf.Data[c%v.buf.Channels()]
	i := int(v.pos)
	if i+1 >= len(ch) {
		return ch[len(ch)-1]
	}
	frac := float32(v.pos - float64(i))
	return ch[i]*(1-frac) + ch[i+1]*frac
}

// Mixer satisfies the trigger.Sink contract and blends active voices into
// each passthrough frame. Safe for concurrent Play and Mix calls.
type Mixer struct {
	mu     sync.Mutex
	voices []*voice
}

// New creates an empty mixer.
func New() *Mixer {
	return &Mixer{}
}

// Play starts a new voice. Pitch shift is applied as a playback-rate change,
// which also stretches or compresses the sample in time.
func (m *Mixer) Play(sampleID string, buf *audio.Buffer, cfg trigger.PlaybackConfig) error {
	if buf.Len() == 0 {
		return fmt.Errorf("sample %s has no decoded audio", sampleID)
	}

	delay := 0
	if cfg.TimingOffset > 0 {
		delay = int(cfg.TimingOffset.Seconds() * float64(buf.SampleRate))
	}

	m.mu.Lock()
	m.voices = append(m.voices, &voice{
		id:    sampleID,
		buf:   buf,
		gain:  float32(cfg.Volume),
		ratio: math.Pow(2, float64(cfg.PitchShiftSemitones)/12),
		delay: delay,
	})
	m.mu.Unlock()
	return nil
}

// ActiveVoices returns the number of samples currently sounding.
func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Mix returns the passthrough frame with all active voices added, clipped
// to [-1,1]. Finished voices are dropped.
func (m *Mixer) Mix(frame *audio.Buffer) *audio.Buffer {
	n := frame.Len()
	if n == 0 {
		return frame
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.voices) == 0 {
		return frame
	}

	out := audio.NewBuffer(frame.SampleRate, frame.Channels(), n)
	for c := range out.Data {
		copy(out.Data[c], frame.Data[c])
	}

	for _, v := range m.voices {
		for i := 0; i < n && !v.done(); i++ {
			if v.delay > 0 {
				v.delay--
				continue
			}
			for c := range out.Data {
				out.Data[c][i] += v.sampleAt(c) * v.gain
			}
			v.pos += v.ratio
		}
	}

	// Drop finished voices, keep the rest in firing order.
	live := m.voices[:0]
	for _, v := range m.voices {
		if !v.done() {
			live = append(live, v)
		}
	}
	m.voices = live

	for c := range out.Data {
		for i, s := range out.Data[c] {
			if s > 1 {
				out.Data[c][i] = 1
			} else if s < -1 {
				out.Data[c][i] = -1
			}
		}
	}
	return out
}
