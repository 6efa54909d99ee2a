package audio

import "encoding/binary"

// ToInterleaved converts a planar float32 buffer to interleaved int16
// samples, clipping to the int16 range. Mono input is duplicated across the
// requested channel count.
func ToInterleaved(b *Buffer, channels int) []int16 {
	n := b.Len()
	if n == 0 || channels <= 0 {
		return nil
	}
	out := make([]int16, n*channels)
	for c := 0; c < channels; c++ {
		src := b.Data[c%b.Channels()]
		for i, s := range src {
			v := float64(s) * 32767
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			out[i*channels+c] = int16(v)
		}
	}
	return out
}

// FromInterleaved converts interleaved int16 samples to a planar float32
// buffer in [-1,1]. Trailing samples that don't fill a whole frame are
// dropped.
func FromInterleaved(samples []int16, sampleRate, channels int) *Buffer {
	if channels <= 0 {
		return nil
	}
	n := len(samples) / channels
	b := NewBuffer(sampleRate, channels, n)
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			b.Data[c][i] = float32(samples[i*channels+c]) / 32768
		}
	}
	return b
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
