package analysis

import (
	"math"
	"testing"

	"github.com/overtonehq/sidechain/internal/audio"
)

func sineBuffer(freq float64, length int) *audio.Buffer {
	buf := audio.NewBuffer(audio.SampleRate, 1, length)
	for i := range buf.Data[0] {
		buf.Data[0][i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / audio.SampleRate))
	}
	return buf
}

// --- Degraded input ---

func TestAnalyzeNilBuffer(t *testing.T) {
	e := NewExtractor(0)
	snap := e.Analyze(nil)
	if snap.Energy != 0 || snap.BeatDensity != 0 || snap.OnsetDetected {
		t.Errorf("Nil buffer: got energy=%v density=%v onset=%v, want all zero",
			snap.Energy, snap.BeatDensity, snap.OnsetDetected)
	}
	if snap.Key != "" || snap.Scale != "" {
		t.Errorf("Nil buffer: key/scale = %q/%q, want undefined", snap.Key, snap.Scale)
	}
	if len(snap.DominantFrequencies) != 0 {
		t.Errorf("Nil buffer: dominant frequencies = %v, want none", snap.DominantFrequencies)
	}
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	e := NewExtractor(0)
	snap := e.Analyze(audio.NewBuffer(audio.SampleRate, 2, 0))
	if snap.Energy != 0 || snap.BeatDensity != 0 || snap.OnsetDetected || snap.Key != "" {
		t.Errorf("Empty buffer should yield the zero snapshot, got %+v", snap)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	e := NewExtractor(0)
	snap := e.Analyze(audio.NewBuffer(audio.SampleRate, 2, audio.SampleRate))
	if snap.Energy != 0 {
		t.Errorf("Silence energy = %v, want 0", snap.Energy)
	}
	if snap.BeatDensity != 0 {
		t.Errorf("Silence beat density = %v, want 0 (not NaN)", snap.BeatDensity)
	}
	if snap.OnsetDetected {
		t.Error("Silence flagged an onset")
	}
	if snap.Key != "" || snap.Scale != "" {
		t.Errorf("Silence key/scale = %q/%q, want undefined", snap.Key, snap.Scale)
	}
	if len(snap.DominantFrequencies) != 0 {
		t.Errorf("Silence dominant frequencies = %v, want none", snap.DominantFrequencies)
	}
}

// --- Spectral flux ---

func TestSpectralFluxRectified(t *testing.T) {
	a := []float64{0.5, 0.2, 0.9, 0}
	b := []float64{0.1, 0.8, 0.9, 0.3}

	// Only increases count: 0.5-0.1 = 0.4
	if got := spectralFlux(a, b); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("spectralFlux(a, b) = %v, want 0.4", got)
	}
	// Reverse direction picks up the other edges: 0.6 + 0.3
	if got := spectralFlux(b, a); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("spectralFlux(b, a) = %v, want 0.9", got)
	}
}

func TestSpectralFluxSelfIsZero(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3, 0.4}
	if got := spectralFlux(a, a); got != 0 {
		t.Errorf("spectralFlux(a, a) = %v, want 0", got)
	}
}

func TestSpectralFluxNeverNegative(t *testing.T) {
	spectra := [][]float64{
		{0, 0, 0},
		{1, 1, 1},
		{0.3, 0, 0.7},
		{0.1, 0.9, 0.2},
	}
	for _, cur := range spectra {
		for _, prev := range spectra {
			if got := spectralFlux(cur, prev); got < 0 {
				t.Errorf("spectralFlux(%v, %v) = %v, want >= 0", cur, prev, got)
			}
		}
	}
}

func TestSpectralFluxNilPrevious(t *testing.T) {
	a := []float64{0.25, 0.25}
	if got := spectralFlux(a, nil); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("spectralFlux(a, nil) = %v, want 0.5", got)
	}
}

func TestFluxStats(t *testing.T) {
	mean, stddev := fluxStats(nil)
	if mean != 0 || stddev != 0 {
		t.Errorf("fluxStats(nil) = %v, %v, want 0, 0", mean, stddev)
	}

	mean, stddev = fluxStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(mean-5) > 1e-12 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(stddev-2) > 1e-12 {
		t.Errorf("stddev = %v, want 2", stddev)
	}
}

// --- Feature ranges ---

func TestAnalyzeRangesAlwaysClamped(t *testing.T) {
	e := NewExtractor(0)
	inputs := []*audio.Buffer{
		sineBuffer(440, audio.SampleRate),
		sineBuffer(55, 4096),
		audio.NewBuffer(audio.SampleRate, 1, 2048),
		sineBuffer(8000, 2048),
	}
	for i, buf := range inputs {
		snap := e.Analyze(buf)
		if snap.Energy < 0 || snap.Energy > 1 || math.IsNaN(snap.Energy) {
			t.Errorf("Input %d: energy = %v, want [0,1]", i, snap.Energy)
		}
		if snap.BeatDensity < 0 || snap.BeatDensity > 1 || math.IsNaN(snap.BeatDensity) {
			t.Errorf("Input %d: beat density = %v, want [0,1]", i, snap.BeatDensity)
		}
	}
}

// --- Dominant frequencies ---

func TestDominantFrequencyOfSine(t *testing.T) {
	e := NewExtractor(2048)
	snap := e.Analyze(sineBuffer(440, audio.SampleRate))

	if len(snap.DominantFrequencies) == 0 {
		t.Fatal("No dominant frequencies for a full-scale sine")
	}
	// Bin resolution at 48kHz/2048 is ~23.4Hz
	if got := snap.DominantFrequencies[0]; math.Abs(got-440) > 25 {
		t.Errorf("Dominant frequency = %.1fHz, want ~440Hz", got)
	}
	if len(snap.DominantFrequencies) > 5 {
		t.Errorf("Got %d dominant frequencies, cap is 5", len(snap.DominantFrequencies))
	}
}

// --- Onsets ---

func TestOnsetAfterSilence(t *testing.T) {
	e := NewExtractor(0)
	for i := 0; i < 5; i++ {
		e.Analyze(audio.NewBuffer(audio.SampleRate, 1, 4096))
	}
	snap := e.Analyze(sineBuffer(440, audio.SampleRate))
	if !snap.OnsetDetected {
		t.Error("Loud signal after sustained silence did not flag an onset")
	}
}

func TestSteadySignalSettles(t *testing.T) {
	e := NewExtractor(0)
	var snap Snapshot
	for i := 0; i < 6; i++ {
		snap = e.Analyze(sineBuffer(440, audio.SampleRate))
	}
	// Frame-to-frame change shrinks every call, so novelty relative to the
	// recent baseline stays at the floor.
	if snap.BeatDensity != 0 {
		t.Errorf("Steady signal beat density = %v, want 0", snap.BeatDensity)
	}
}

// --- Instance isolation ---

func TestExtractorsDontShareState(t *testing.T) {
	a := NewExtractor(0)
	b := NewExtractor(0)

	for i := 0; i < 5; i++ {
		a.Analyze(sineBuffer(440, audio.SampleRate))
	}
	// A fresh extractor seeing the same signal must behave like a first
	// call: its flux baseline is empty, so the signal reads as novel.
	snap := b.Analyze(sineBuffer(440, audio.SampleRate))
	if !snap.OnsetDetected {
		t.Error("Fresh extractor inherited another instance's flux history")
	}
}
