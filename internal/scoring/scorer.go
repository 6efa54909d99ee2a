// Package scoring rates how musically compatible one catalog sample is with
// the current feature snapshot. Harmonic fit dominates the blend: a sample
// in a clashing key shouldn't fire no matter how well its energy lines up.
package scoring

import (
	"math"
	"strings"

	"github.com/overtonehq/sidechain/internal/analysis"
	"github.com/overtonehq/sidechain/internal/catalog"
	"github.com/overtonehq/sidechain/internal/music"
)

const (
	weightKey    = 0.4
	weightEnergy = 0.3
	weightRhythm = 0.3

	// neutral is the sub-score used whenever either side lacks the metadata
	// a comparison needs.
	neutral = 0.5
)

// Result carries the combined score, its components, and the pitch shift
// that would bring the sample into the context's key.
type Result struct {
	Combined            float64
	KeyScore            float64
	EnergyScore         float64
	RhythmScore         float64
	PitchShiftSemitones int
}

// Score rates sample against the current context.
func Score(ctx analysis.Snapshot, sample *catalog.Entry) Result {
	key, shift := keyScore(ctx, sample)
	energy := energyScore(ctx.Energy, sample.EnergyLevel)
	rhythm := rhythmScore(ctx.BeatDensity, sample.GrooveDescription)

	return Result{
		Combined:            weightKey*key + weightEnergy*energy + weightRhythm*rhythm,
		KeyScore:            key,
		EnergyScore:         energy,
		RhythmScore:         rhythm,
		PitchShiftSemitones: shift,
	}
}

// keyScore compares keys and scales. Matching pitch classes score 1.0 when
// the scales also agree, 0.8 otherwise. Differing pitch classes degrade to
// 0.7 (scales agree) or 0.5, with the semitone shift that would align them
// (wrapped at +-6) still reported so playback can compensate. Key strings
// that don't parse fall to a 0.3 baseline; missing data is neutral.
func keyScore(ctx analysis.Snapshot, sample *catalog.Entry) (score float64, shift int) {
	ctxHasAny := ctx.Key != "" || ctx.Scale != ""
	sampleHasAny := sample.Key != "" || sample.Scale != ""
	if !ctxHasAny || !sampleHasAny {
		return neutral, 0
	}

	cpc := music.PitchClass(ctx.Key)
	spc := music.PitchClass(sample.Key)
	scalesMatch := music.ScaleMatches(ctx.Scale, sample.Scale)

	if cpc >= 0 && spc >= 0 {
		shift = music.SemitoneShift(spc, cpc)
		switch {
		case shift == 0 && scalesMatch:
			return 1.0, 0
		case shift == 0:
			return 0.8, 0
		case scalesMatch:
			return 0.7, shift
		}
		return neutral, shift
	}
	if scalesMatch {
		return 0.7, 0
	}
	if ctx.Key != "" && sample.Key != "" {
		return 0.3, 0
	}
	return neutral, 0
}

// energyScore compares the sample's 1-10 energy rating against the
// context's [0,1] energy.
func energyScore(ctxEnergy float64, level *int) float64 {
	if level == nil {
		return neutral
	}
	l := *level
	if l < 1 {
		l = 1
	}
	if l > 10 {
		l = 10
	}
	norm := float64(l-1) / 9
	diff := math.Abs(ctxEnergy - norm)
	return math.Max(0, 1-diff*1.5)
}

// rhythmScore keyword-matches the groove description against the context's
// beat density. With no usable description it rewards mid-range density,
// the safest guess for an unknown groove.
func rhythmScore(density float64, groove string) float64 {
	g := strings.ToLower(groove)
	switch {
	case containsAny(g, "sparse", "minimal", "ambient"):
		return clamp01((1-density)*0.8 + 0.1)
	case containsAny(g, "dense", "complex", "active", "driving"):
		return clamp01(density*0.8 + 0.1)
	case containsAny(g, "percussive", "rhythmic"):
		return clamp01(0.6 + density*0.2)
	}
	return clamp01(0.5 - math.Abs(density-0.5))
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
