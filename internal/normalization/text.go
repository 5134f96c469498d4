package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseInputString trims and lowercases user input such as emails.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Text lowercases s and removes combining marks, so "Matemáticas" and
// "MATEMATICAS" both become "matematicas". ñ decomposes to n + tilde and
// therefore folds to n.
func Text(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lower := strings.ToLower(s)
	out, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return out
}

// Contains reports whether needle occurs in haystack after both are
// normalized with Text. An empty needle never matches.
func Contains(haystack, needle string) bool {
	n := Text(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Text(haystack), n)
}
