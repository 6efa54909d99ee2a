package music

import "testing"

// --- PitchClass ---

func TestPitchClassSharps(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"C", 0},
		{"C#", 1},
		{"D", 2},
		{"F#", 6},
		{"G#", 8},
		{"A#", 10},
		{"B", 11},
		{"f#", 6},
		{"  G  ", 7},
	}
	for _, tt := range tests {
		if got := PitchClass(tt.name); got != tt.want {
			t.Errorf("PitchClass(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPitchClassEnharmonicFlats(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"Db", 1},  // C#
		{"Eb", 3},  // D#
		{"Fb", 4},  // E
		{"Gb", 6},  // F#
		{"Ab", 8},  // G#
		{"Bb", 10}, // A#
		{"Cb", 11}, // B
	}
	for _, tt := range tests {
		if got := PitchClass(tt.name); got != tt.want {
			t.Errorf("PitchClass(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPitchClassWordSuffixes(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"F sharp", 6},
		{"Fsharp", 6},
		{"E flat", 3},
		{"Eflat", 3},
		{"B flat", 10},
	}
	for _, tt := range tests {
		if got := PitchClass(tt.name); got != tt.want {
			t.Errorf("PitchClass(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPitchClassUnrecognized(t *testing.T) {
	for _, name := range []string{"", "H", "C##", "X flat", "do", "1"} {
		if got := PitchClass(name); got != -1 {
			t.Errorf("PitchClass(%q) = %d, want -1", name, got)
		}
	}
}

// --- SemitoneShift ---

func TestSemitoneShiftPrefersShortDirection(t *testing.T) {
	tests := []struct {
		from, to, want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, -1},
		{0, 5, 5},
		{0, 7, -5}, // down 5 beats up 7
		{0, 6, 6},  // tritone resolves upward
		{11, 0, 1},
		{0, 11, -1},
	}
	for _, tt := range tests {
		if got := SemitoneShift(tt.from, tt.to); got != tt.want {
			t.Errorf("SemitoneShift(%d, %d) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSemitoneShiftAlwaysInRange(t *testing.T) {
	for from := 0; from < 12; from++ {
		for to := 0; to < 12; to++ {
			got := SemitoneShift(from, to)
			if got < -5 || got > 6 {
				t.Errorf("SemitoneShift(%d, %d) = %d, out of [-5, 6]", from, to, got)
			}
			if ((from+got)%12+12)%12 != to {
				t.Errorf("SemitoneShift(%d, %d) = %d does not land on target", from, to, got)
			}
		}
	}
}

// --- ScaleMatches ---

func TestScaleMatches(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Major", "Major", true},
		{"major", "MAJOR", true},
		{" Minor ", "minor", true},
		{"Major", "Minor", false},
		{"", "Major", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := ScaleMatches(tt.a, tt.b); got != tt.want {
			t.Errorf("ScaleMatches(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
