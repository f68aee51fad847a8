package textutil

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// CollapseWhitespace replaces every run of whitespace with a single space
// and trims both ends. Unicode spaces such as U+00A0 count as whitespace.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName is the form names are compared in: collapsed whitespace,
// lowercase.
func NormalizeName(name string) string {
	return strings.ToLower(CollapseWhitespace(name))
}

// EqualNames reports whether two names are the same up to case and whitespace.
func EqualNames(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// ClosestMatch returns the candidate most similar to name by Jaro-Winkler
// distance, ok is false when there are no candidates.
func ClosestMatch(name string, candidates []string) (best string, score float64, ok bool) {
	normalized := NormalizeName(name)
	for _, c := range candidates {
		s := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if !ok || s > score {
			best = c
			score = s
			ok = true
		}
	}
	return best, score, ok
}
