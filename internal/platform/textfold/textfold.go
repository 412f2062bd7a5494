package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key returns a comparison key for s: trimmed, lower-cased and without
// diacritics, so "Dirección" and "direccion" produce the same key.
func Key(s string) string {
	return Fold(strings.TrimSpace(s))
}

// Fold lower-cases s and strips diacritics without trimming it, so it can
// be applied to both sides of a substring search.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Equal reports whether a and b have the same Key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
