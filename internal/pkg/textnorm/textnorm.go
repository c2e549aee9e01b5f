// Package textnorm folds Vietnamese free text into an accent, case and
// whitespace insensitive form for substring matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no combining-mark decomposition, so it is mapped explicitly.
var dStroke = runes.Map(func(r rune) rune {
	if r == 'đ' || r == 'Đ' {
		return 'd'
	}
	return r
})

func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), dStroke, norm.NFC)
}

// Normalize strips diacritics, lowercases, collapses whitespace runs to a
// single space and trims.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(newFolder(), s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Compact is Normalize with every whitespace character removed.
func Compact(s string) string {
	return strings.Join(strings.Fields(Normalize(s)), "")
}

// Contains reports whether query occurs in field after both are compacted.
// An empty query matches everything.
func Contains(field, query string) bool {
	q := Compact(query)
	if q == "" {
		return true
	}
	return strings.Contains(Compact(field), q)
}
