package roomcode

import (
	"strings"
	"testing"
)

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		if len(code) != Length {
			t.Fatalf("code %q has length %d, want %d", code, len(code), Length)
		}
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		if code != strings.ToUpper(code) {
			t.Fatalf("code %q is not uppercase", code)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[Generate()] = true
	}
	// 50 draws from a 36^6 space colliding down to a single value would
	// mean the generator is broken.
	if len(seen) < 2 {
		t.Fatalf("got %d distinct codes out of 50 draws", len(seen))
	}
}
