package helper

import "testing"

func TestNameKey(t *testing.T) {
	cases := map[string]string{
		"Morning Batch":     "morning batch",
		"  Café   Morning ": "cafe morning",
		"MORNING\tbatch":    "morning batch",
		"Straße":            "strasse",
		"":                  "",
	}
	for in, want := range cases {
		if got := NameKey(in); got != want {
			t.Errorf("NameKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Asha@Example.COM "); got != "asha@example.com" {
		t.Errorf("got %q", got)
	}
}
