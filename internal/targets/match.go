package targets

import (
	"strings"
	"unicode"
)

// Normalize upper-cases s and removes every whitespace rune.
// Normalize(Normalize(s)) == Normalize(s) for all s.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}

// ParsePlateList splits a comma-separated list of plates, normalizes each
// entry and drops the empty ones. Order of entry is preserved.
func ParsePlateList(raw string) []string {
	plates := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := Normalize(part); p != "" {
			plates = append(plates, p)
		}
	}
	return plates
}

// Candidate is a plate string read by OCR together with its normalized form.
type Candidate struct {
	Raw        string
	Normalized string
}

// NewCandidate wraps a raw OCR reading.
func NewCandidate(raw string) Candidate {
	return Candidate{Raw: raw, Normalized: Normalize(raw)}
}

// Match returns the raw candidates whose normalized form equals one of the
// normalized target plates. Candidates keep their discovery order and each
// appears at most once, however many targets it equals.
func Match(candidates []string, plates []string) []string {
	wanted := make(map[string]bool, len(plates))
	for _, p := range plates {
		if n := Normalize(p); n != "" {
			wanted[n] = true
		}
	}

	matches := make([]string, 0)
	for _, raw := range candidates {
		if c := NewCandidate(raw); c.Normalized != "" && wanted[c.Normalized] {
			matches = append(matches, c.Raw)
		}
	}
	return matches
}
