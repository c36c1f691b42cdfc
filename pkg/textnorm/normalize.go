// Package textnorm canonicalizes free-form Russian/Latin text for comparison.
// Every function is total: empty input gives empty output and nothing panics.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// й decomposes to и + breve under NFD, so it is parked on a private-use rune
// while combining marks are stripped.
const shortIShelter = '\uE000'

var (
	nonAlnumRe     = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	leadingDecorRe = regexp.MustCompile(`^[^A-Za-zА-Яа-яЁё0-9]+`)
	titleCaser     = cases.Title(language.Russian)
)

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lower-cases s, maps ё to е and removes diacritics while keeping й.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "й", string(shortIShelter))
	s = stripMarks(s)
	return strings.ReplaceAll(s, string(shortIShelter), "й")
}

// Normalize folds case and accents and collapses every run of
// non-alphanumeric characters to a single space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = Fold(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanLabel strips the emoji/symbol prefix of a menu caption and normalizes the rest.
func CleanLabel(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(s)
	s = leadingDecorRe.ReplaceAllString(s, "")
	return Normalize(s)
}

// Compact is Normalize without the separating spaces.
func Compact(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// CollapseSpaces trims s and squeezes inner whitespace to single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title upper-cases the first letter of every word and lower-cases the rest.
func Title(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	return titleCaser.String(s)
}

// Capitalize upper-cases the first letter and lower-cases the remainder.
func Capitalize(s string) string {
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
