package sanitize

import (
	"path/filepath"
	"strings"
)

// Filename converts a remote-provided title into a safe single path segment.
// Anything outside the allow-list (letters, digits, space, "-_.()") is
// dropped. Canvas URL-encodes spaces as "+", so those come back as spaces.
func Filename(input string) string {
	if input == "" {
		return input
	}

	input = strings.ReplaceAll(input, "+", " ")
	input = strings.ReplaceAll(input, ":", "-")
	input = strings.ReplaceAll(input, "/", "-")

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if isAllowed(r) {
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	// Trailing periods are illegal on Windows.
	out = strings.TrimRight(out, ".")
	return out
}

// FolderPath is the variant for slash-separated folder paths coming from the
// API (e.g. "course files/unit 1"). Slashes survive and get converted to the
// OS separator at the end.
func FolderPath(input string) string {
	if input == "" {
		return input
	}

	input = strings.ReplaceAll(input, "+", " ")
	input = strings.ReplaceAll(input, ":", "-")

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if isAllowed(r) || r == '/' {
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	out = strings.Trim(out, "/\\")
	out = strings.TrimRight(out, ".")
	return filepath.FromSlash(out)
}

// Shorten truncates name by shortenBy characters plus one for the trailing
// "-" marker that signals the name was cut ("..." is not a valid suffix on
// every filesystem). Callers pass len(name)-maxSize, so non-positive values
// mean the name already fits.
func Shorten(name string, shortenBy int) string {
	if name == "" || shortenBy <= 0 {
		return name
	}

	runes := []rune(name)
	keep := len(runes) - (shortenBy + 1)
	if keep < 0 {
		keep = 0
	}
	out := string(runes[:keep])

	out = strings.TrimRight(out, " ")
	out = strings.TrimRight(out, ".")
	out = strings.TrimRight(out, "-")
	return out + "-"
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '-', '_', '.', '(', ')':
		return true
	}
	return false
}
