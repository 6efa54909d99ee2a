package audio

import (
	"encoding/binary"
	"fmt"
	"os/exec"
)

// DecodeFile runs FFmpeg to decode an audio file to a planar float32 buffer
// at the engine's sample rate and channel count.
func DecodeFile(path string) (*Buffer, error) {
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}

	return FromInterleaved(samples, SampleRate, Channels), nil
}
