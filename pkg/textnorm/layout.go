package textnorm

import "strings"

// Physical key pairs of the US QWERTY and Russian ЙЦУКЕН layouts.
const (
	latinKeys    = "qwertyuiop[]asdfghjkl;'zxcvbnm,.`"
	cyrillicKeys = "йцукенгшщзхъфывапролджэячсмитьбюё"
)

var (
	latinToCyrillic = map[rune]rune{}
	cyrillicToLatin = map[rune]rune{}
)

func init() {
	lat := []rune(latinKeys)
	cyr := []rune(cyrillicKeys)
	for i := range lat {
		latinToCyrillic[lat[i]] = cyr[i]
		cyrillicToLatin[cyr[i]] = lat[i]
	}
}

func remap(s string, table map[rune]rune) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if m, ok := table[r]; ok {
			b.WriteRune(m)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LayoutSwap re-types s on the other keyboard layout in both directions:
// toCyrillic reads Latin keystrokes as ЙЦУКЕН, toLatin reads Cyrillic
// keystrokes as QWERTY. Output is lower-cased.
func LayoutSwap(s string) (toCyrillic, toLatin string) {
	if s == "" {
		return "", ""
	}
	s = strings.ToLower(s)
	return remap(s, latinToCyrillic), remap(s, cyrillicToLatin)
}
