package scoring

import (
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		reference   string
		explanation string
		want        int
	}{
		{
			name:        "full overlap with duplicates collapsed",
			reference:   "cat dog",
			explanation: "cat dog cat",
			want:        100,
		},
		{
			name:        "no overlap",
			reference:   "cat dog",
			explanation: "fish bird",
			want:        0,
		},
		{
			name:        "half overlap",
			reference:   "cat dog",
			explanation: "cat only",
			want:        50,
		},
		{
			name:        "floor not round",
			reference:   "a b c",
			explanation: "a b",
			want:        66,
		},
		{
			name:        "case insensitive",
			reference:   "Cat DOG",
			explanation: "cat dog",
			want:        100,
		},
		{
			name:        "punctuation stays attached",
			reference:   "dog.",
			explanation: "dog",
			want:        0,
		},
		{
			name:        "empty reference",
			reference:   "",
			explanation: "anything at all",
			want:        0,
		},
		{
			name:        "empty explanation",
			reference:   "cat dog",
			explanation: "",
			want:        0,
		},
		{
			name:        "both empty",
			reference:   "",
			explanation: "",
			want:        0,
		},
		{
			name:        "extra explanation words do not hurt",
			reference:   "cat dog",
			explanation: "the quick cat chased the lazy dog every day",
			want:        100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.reference, tt.explanation)
			if got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.reference, tt.explanation, got, tt.want)
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	ref := "a loop repeats a block of code until a condition is met"
	expl := "loops repeat code until some condition stops them"

	first := Score(ref, expl)
	for i := 0; i < 100; i++ {
		if got := Score(ref, expl); got != first {
			t.Fatalf("Score not deterministic: got %d then %d", first, got)
		}
	}
}

func TestScoreRange(t *testing.T) {
	inputs := []struct{ ref, expl string }{
		{"", ""},
		{"one", "one"},
		{"a b c d e f g", "a"},
		{"x", "x x x x x"},
	}
	for _, in := range inputs {
		got := Score(in.ref, in.expl)
		if got < 0 || got > 100 {
			t.Errorf("Score(%q, %q) = %d out of range", in.ref, in.expl, got)
		}
	}
}
