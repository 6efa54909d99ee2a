// Package music holds the small amount of music theory the engine needs:
// pitch-class names, key-name normalization, and semitone arithmetic.
package music

import "strings"

// NoteNames lists the 12 pitch classes in sharp spelling, indexed by pitch
// class number (C=0).
var NoteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// flatToSharp maps the common enharmonic flat spellings onto their sharp
// equivalents. This table is the contract; spellings outside it don't parse.
var flatToSharp = map[string]string{
	"DB": "C#",
	"EB": "D#",
	"FB": "E",
	"GB": "F#",
	"AB": "G#",
	"BB": "A#",
	"CB": "B",
}

// PitchClass resolves a key name ("C", "F#", "Bb", "E flat", "G sharp") to a
// pitch class index 0-11. Returns -1 for empty or unrecognized names rather
// than guessing.
func PitchClass(name string) int {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "" {
		return -1
	}

	// Word suffix conventions first, so "E FLAT" doesn't collide with the
	// two-letter flat table below.
	s = strings.ReplaceAll(s, " SHARP", "#")
	s = strings.ReplaceAll(s, "SHARP", "#")
	if i := strings.Index(s, "FLAT"); i > 0 {
		s = strings.TrimSpace(s[:i]) + "B"
	}
	s = strings.ReplaceAll(s, " ", "")

	if sharp, ok := flatToSharp[s]; ok {
		s = sharp
	}
	for pc, n := range NoteNames {
		if s == n {
			return pc
		}
	}
	return -1
}

// SemitoneShift returns the signed semitone move that takes pitch class from
// onto pitch class to, preferring the smaller-magnitude direction. The result
// is always in [-5, 6].
func SemitoneShift(from, to int) int {
	d := ((to-from)%12 + 12) % 12
	if d > 6 {
		d -= 12
	}
	return d
}

// ScaleMatches reports whether two scale names agree, case-insensitively.
// Two empty names don't count as a match.
func ScaleMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
