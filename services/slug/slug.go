// Package slug builds URL slugs the way Django's slugify does
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	invalidChars = regexp.MustCompile(`[^\w\s-]`)
	separators   = regexp.MustCompile(`[-\s]+`)
)

// Make lowercases s, folds it to ASCII, drops punctuation and joins words
// with hyphens
func Make(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = invalidChars.ReplaceAllString(folded, "")
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Trim(separators.ReplaceAllString(folded, "-"), "-_")
}

// Underscore is Make with underscores between words, used for property slugs
func Underscore(s string) string {
	return strings.ReplaceAll(Make(s), "-", "_")
}
