// Package audio defines the PCM buffer type shared by the analysis engine,
// the mixer, and the monitor stream, plus conversions to the interleaved
// int16 format the streaming side speaks.
package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
)

// Buffer is a block of planar float32 PCM. Data holds one slice per channel,
// all the same length. Buffers are read-only once handed to the engine.
type Buffer struct {
	SampleRate int
	Data       [][]float32
}

// NewBuffer allocates a silent buffer with the given shape.
func NewBuffer(sampleRate, channels, length int) *Buffer {
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, length)
	}
	return &Buffer{SampleRate: sampleRate, Data: data}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Len returns the number of samples per channel.
func (b *Buffer) Len() int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the buffer length as wall-clock audio time.
func (b *Buffer) Duration() time.Duration {
	if b.Len() == 0 || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(b.SampleRate)
}

// Mono mixes all channels down to a single slice by averaging.
func (b *Buffer) Mono() []float32 {
	n := b.Len()
	if n == 0 {
		return nil
	}
	if b.Channels() == 1 {
		return b.Data[0]
	}
	out := make([]float32, n)
	scale := 1 / float32(b.Channels())
	for _, ch := range b.Data {
		for i, s := range ch {
			out[i] += s * scale
		}
	}
	return out
}

// Concat joins buffers into one. Zero-length buffers are skipped; channel
// count and sample rate come from the first non-empty buffer. Channels of
// narrower buffers are repeated to fill the output shape. Returns nil if
// nothing remains after filtering.
func Concat(buffers []*Buffer) *Buffer {
	var first *Buffer
	total := 0
	for _, b := range buffers {
		if b.Len() == 0 {
			continue
		}
		if first == nil {
			first = b
		}
		total += b.Len()
	}
	if first == nil {
		return nil
	}

	out := NewBuffer(first.SampleRate, first.Channels(), total)
	pos := 0
	for _, b := range buffers {
		n := b.Len()
		if n == 0 {
			continue
		}
		for c := range out.Data {
			copy(out.Data[c][pos:pos+n], b.Data[c%b.Channels()])
		}
		pos += n
	}
	return out
}
