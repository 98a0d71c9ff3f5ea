package phrase

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  Yes, it's CORRECT! ": "yes it is correct",
		"That’s right":          "that is right",
		"4 o'clock":             "4 o clock",
		"16:00":                 "16 00",
		"":                      "",
		"...":                   "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsTokenBoundaries(t *testing.T) {
	tests := []struct {
		text   string
		phrase string
		want   bool
	}{
		{"i know my number", "no", false},
		{"no thanks", "no", true},
		{"yesterday", "yes", false},
		{"yes it is", "it is", true},
		{"11 pm", "1 pm", false},
		{"at 1 pm please", "1 pm", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		if got := Contains(tt.text, tt.phrase); got != tt.want {
			t.Errorf("Contains(%q, %q) = %v, want %v", tt.text, tt.phrase, got, tt.want)
		}
	}
}

func TestSetCount(t *testing.T) {
	set := Set{"check", "status", "ready"}
	if got := set.Count("check appointment status"); got != 2 {
		t.Fatalf("expected 2 matches, got %d", got)
	}
	if set.MatchAny("book appointment") {
		t.Fatal("did not expect a match")
	}
}
