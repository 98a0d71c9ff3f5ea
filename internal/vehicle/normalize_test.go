package vehicle

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "KA01AB1234", "KA01AB1234"},
		{"lowercase with spaces", "ka 01 ab 1234", "KA01AB1234"},
		{"punctuation stripped", "KA-01/AB.1234!", "KA01AB1234"},
		{"spelled digits removed", "KA zero one AB 1234", "KAAB1234"},
		{"oh filler removed", "MH oh 2 CD 5678", "MH2CD5678"},
		{"letter o removed", "DL 8C OX 9911", "DL8CX9911"},
		{"spliced filler removed", "NOINE77", "77"},
		{"empty", "", ""},
		{"only fillers", "one two three", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"KA01AB1234",
		"ka zero one ab one two three four",
		"OHOHO",
		"NIONE",
		"t w o o n e",
		"ZEONERO",
		"Ünïcødé 42 plate",
		"   ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestUsable(t *testing.T) {
	if Usable("AB123") {
		t.Fatal("five characters should not be usable")
	}
	if !Usable("AB1234") {
		t.Fatal("six characters should be usable")
	}
}
