// Package analysis extracts musical features from short windows of PCM
// audio: spectral energy, dominant frequencies, onset detection via spectral
// flux, and a chroma-based key estimate.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/overtonehq/sidechain/internal/audio"
)

const (
	// DefaultFFTSize is the analysis window length in samples.
	DefaultFFTSize = 2048

	// smoothingTimeConstant blends successive magnitude spectra so a single
	// noisy window doesn't whipsaw the features.
	smoothingTimeConstant = 0.8

	// fluxHistoryLen bounds the rolling spectral-flux history used as the
	// onset baseline.
	fluxHistoryLen = 30

	// onsetFloor is the absolute flux below which no onset is ever flagged,
	// so near-silence can't false-trigger on its own noise floor.
	onsetFloor = 0.01

	dominantThreshold = 0.01 // minimum bin amplitude to count as a peak
	maxDominant       = 5
	energyReference   = 0.02 // mean bin magnitude mapping to full energy
	fluxEpsilon       = 1e-6
)

// Snapshot is the feature set computed from one analysis window. Key and
// Scale are empty when the window carried no tonal energy.
type Snapshot struct {
	Timestamp           time.Time
	Energy              float64 // [0,1]
	DominantFrequencies []float64
	OnsetDetected       bool
	BeatDensity         float64 // [0,1]
	Key                 string
	Scale               string
}

// Extractor computes Snapshots from audio buffers. It carries the previous
// spectrum and the flux history between calls, so one instance must not be
// shared across concurrent callers or across logical audio sessions.
type Extractor struct {
	fftSize      int
	smoothed     []float64
	prevSpectrum []float64
	fluxHistory  []float64
}

// NewExtractor creates an extractor with the given FFT size, which is
// rounded up to a power of two. Sizes below 256 fall back to the default.
func NewExtractor(fftSize int) *Extractor {
	if fftSize < 256 {
		fftSize = DefaultFFTSize
	}
	n := 1
	for n < fftSize {
		n <<= 1
	}
	return &Extractor{fftSize: n}
}

// Analyze computes the feature snapshot for one buffer. A nil or empty
// buffer yields the zero snapshot: silence is an expected input, not an
// error.
func (e *Extractor) Analyze(buf *audio.Buffer) Snapshot {
	snap := Snapshot{Timestamp: time.Now()}
	if buf.Len() == 0 || buf.SampleRate <= 0 {
		return snap
	}

	spectrum := e.magnitudeSpectrum(buf.Mono())

	// Exponential smoothing across successive calls.
	if e.smoothed == nil {
		e.smoothed = spectrum
	} else {
		for i, m := range spectrum {
			e.smoothed[i] = smoothingTimeConstant*e.smoothed[i] + (1-smoothingTimeConstant)*m
		}
	}
	cur := e.smoothed

	snap.DominantFrequencies = dominantFrequencies(cur, buf.SampleRate, e.fftSize)
	snap.Energy = clamp01(meanMagnitude(cur) / energyReference)
	snap.OnsetDetected, snap.BeatDensity = e.onset(cur)
	snap.Key, snap.Scale = detectKey(cur, buf.SampleRate, e.fftSize)

	return snap
}

// magnitudeSpectrum averages Hann-windowed FFT frames over the whole buffer
// into a single amplitude-normalized half spectrum.
func (e *Extractor) magnitudeSpectrum(mono []float32) []float64 {
	bins := e.fftSize / 2
	out := make([]float64, bins)
	frame := make([]float64, e.fftSize)
	hop := e.fftSize / 2
	frames := 0

	for start := 0; start == 0 || start+e.fftSize <= len(mono); start += hop {
		for i := range frame {
			if j := start + i; j < len(mono) {
				frame[i] = float64(mono[j])
			} else {
				frame[i] = 0
			}
		}
		window.Apply(frame, window.Hann)
		spec := fft.FFTReal(frame)
		for k := 0; k < bins; k++ {
			re := real(spec[k])
			im := imag(spec[k])
			out[k] += 2 * math.Sqrt(re*re+im*im) / float64(e.fftSize)
		}
		frames++
	}

	if frames > 1 {
		inv := 1 / float64(frames)
		for k := range out {
			out[k] *= inv
		}
	}
	return out
}

// onset updates the flux state and returns the onset flag and beat density
// for the current spectrum.
func (e *Extractor) onset(cur []float64) (bool, float64) {
	flux := spectralFlux(cur, e.prevSpectrum)
	if e.prevSpectrum == nil {
		e.prevSpectrum = make([]float64, len(cur))
	}
	copy(e.prevSpectrum, cur)

	mean, stddev := fluxStats(e.fluxHistory)
	e.fluxHistory = append(e.fluxHistory, flux)
	if len(e.fluxHistory) > fluxHistoryLen {
		e.fluxHistory = e.fluxHistory[1:]
	}

	onset := flux > mean+1.5*stddev && flux > onsetFloor

	density := (flux/(mean+fluxEpsilon) - 1) / 5
	if math.IsNaN(density) {
		density = 0
	}
	return onset, clamp01(density)
}

// spectralFlux is the rectified frame-to-frame spectral difference: only bin
// increases count, so the result is never negative. A nil previous spectrum
// counts as silence.
func spectralFlux(cur, prev []float64) float64 {
	flux := 0.0
	for i, m := range cur {
		p := 0.0
		if i < len(prev) {
			p = prev[i]
		}
		if d := m - p; d > 0 {
			flux += d
		}
	}
	return flux
}

func fluxStats(history []float64) (mean, stddev float64) {
	if len(history) == 0 {
		return 0, 0
	}
	for _, f := range history {
		mean += f
	}
	mean /= float64(len(history))
	for _, f := range history {
		d := f - mean
		stddev += d * d
	}
	stddev = math.Sqrt(stddev / float64(len(history)))
	return mean, stddev
}

// dominantFrequencies picks the loudest bins above the amplitude threshold
// and maps them to Hz, strongest first.
func dominantFrequencies(spectrum []float64, sampleRate, fftSize int) []float64 {
	type peak struct {
		bin int
		mag float64
	}
	var peaks []peak
	for bin, m := range spectrum {
		if m > dominantThreshold {
			peaks = append(peaks, peak{bin, m})
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].mag > peaks[j].mag })
	if len(peaks) > maxDominant {
		peaks = peaks[:maxDominant]
	}

	freqs := make([]float64, 0, len(peaks))
	for _, p := range peaks {
		freqs = append(freqs, float64(p.bin)*float64(sampleRate)/float64(fftSize))
	}
	return freqs
}

func meanMagnitude(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range spectrum {
		sum += m
	}
	return sum / float64(len(spectrum))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
