package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncateName fuzzes TruncateName with random names and widths.
func FuzzTruncateName(f *testing.F) {
	seeds := []struct {
		name  string
		width int
	}{
		{"Carmen", 10},
		{"Macabalan Proper", 5},
		{"", 0},
		{"Señor Santo Niño", 4},
		{"Barangay 22", -1},
	}
	for _, seed := range seeds {
		f.Add(seed.name, seed.width)
	}

	f.Fuzz(func(t *testing.T, name string, width int) {
		if !utf8.ValidString(name) {
			t.Skip()
		}
		got := TruncateName(name, width)
		if width > 3 && utf8.RuneCountInString(got) > width {
			t.Fatalf("TruncateName(%q, %d) = %q exceeds width", name, width, got)
		}
	})
}

// FuzzParseEndpoints fuzzes ParseEndpoints to make sure it never panics.
func FuzzParseEndpoints(f *testing.F) {
	for _, seed := range []string{"", "http://localhost:8000", "a,b,,c", "https://x:1/, ftp://y"} {
		f.Add(seed)
	}
	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseEndpoints(s)
	})
}
