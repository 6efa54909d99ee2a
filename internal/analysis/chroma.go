package analysis

import (
	"math"

	"github.com/overtonehq/sidechain/internal/music"
)

// Scale names reported by the key detector.
const (
	ScaleMajor = "Major"
	ScaleMinor = "Minor"
)

// Binary scale-membership profiles: 1 where the pitch class belongs to the
// scale rooted at C, 0 elsewhere. Rotations cover the other eleven roots.
var (
	majorTemplate = [12]float64{1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1}
	minorTemplate = [12]float64{1, 0, 1, 1, 0, 1, 0, 1, 1, 0, 1, 0}
)

// chromaVector folds every spectrum bin's magnitude into its nearest pitch
// class and normalizes by total energy. The second return is false when the
// spectrum carried no chroma energy at all.
func chromaVector(spectrum []float64, sampleRate, fftSize int) ([12]float64, bool) {
	var chroma [12]float64
	for bin := 1; bin < len(spectrum); bin++ {
		m := spectrum[bin]
		if m <= 0 {
			continue
		}
		freq := float64(bin) * float64(sampleRate) / float64(fftSize)
		midi := math.Round(69 + 12*math.Log2(freq/440))
		pc := ((int(midi) % 12) + 12) % 12
		chroma[pc] += m
	}

	total := 0.0
	for _, c := range chroma {
		total += c
	}
	if total == 0 {
		return chroma, false
	}
	for i := range chroma {
		chroma[i] /= total
	}
	return chroma, true
}

// detectKey matches the spectrum's chroma vector against all 24 major/minor
// templates and returns the best-scoring key and scale. There is no
// confidence floor: any nonzero chroma energy yields a best guess.
func detectKey(spectrum []float64, sampleRate, fftSize int) (key, scale string) {
	chroma, ok := chromaVector(spectrum, sampleRate, fftSize)
	if !ok {
		return "", ""
	}

	best := math.Inf(-1)
	for root := 0; root < 12; root++ {
		var maj, min float64
		for i := 0; i < 12; i++ {
			c := chroma[(root+i)%12]
			maj += c * majorTemplate[i]
			min += c * minorTemplate[i]
		}
		if maj > best {
			best = maj
			key, scale = music.NoteNames[root], ScaleMajor
		}
		if min > best {
			best = min
			key, scale = music.NoteNames[root], ScaleMinor
		}
	}
	return key, scale
}
