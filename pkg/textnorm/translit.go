package textnorm

import "strings"

// Longest sequences first so "shch" wins over "sh" + "ch".
var latinDigraphs = []struct {
	from string
	to   string
}{
	{"shch", "щ"},
	{"sch", "щ"},
	{"zh", "ж"},
	{"kh", "х"},
	{"ts", "ц"},
	{"tz", "ц"},
	{"ch", "ч"},
	{"sh", "ш"},
	{"yu", "ю"},
	{"ju", "ю"},
	{"ya", "я"},
	{"ja", "я"},
	{"yo", "е"},
	{"jo", "е"},
	{"ye", "е"},
	{"ph", "ф"},
	{"x", "кс"},
}

var latinLetters = map[rune]string{
	'a': "а", 'b': "б", 'c': "к", 'd': "д", 'e': "е", 'f': "ф", 'g': "г",
	'h': "х", 'i': "и", 'j': "й", 'k': "к", 'l': "л", 'm': "м", 'n': "н",
	'o': "о", 'p': "п", 'q': "к", 'r': "р", 's': "с", 't': "т", 'u': "у",
	'v': "в", 'w': "в", 'y': "ы", 'z': "з",
}

var cyrillicLetters = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

func isLatinVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// Transliterate reads Latin text as a phonetic rendering of Russian and
// returns its Cyrillic approximation. Non-Latin runes pass through.
func Transliterate(s string) string {
	if s == "" {
		return ""
	}
	src := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(src) * 2)
	var prev rune
	for i := 0; i < len(src); {
		matched := false
		for _, d := range latinDigraphs {
			if strings.HasPrefix(src[i:], d.from) {
				b.WriteString(d.to)
				i += len(d.from)
				prev = rune(d.from[len(d.from)-1])
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		r := rune(src[i])
		if r >= 0x80 {
			// multi-byte rune: copy it whole
			for _, rr := range src[i:] {
				b.WriteRune(rr)
				i += len(string(rr))
				prev = rr
				break
			}
			continue
		}
		if r == 'y' && isLatinVowel(prev) {
			b.WriteString("й")
		} else if m, ok := latinLetters[r]; ok {
			b.WriteString(m)
		} else {
			b.WriteRune(r)
		}
		prev = r
		i++
	}
	return b.String()
}

// ToLatin renders Cyrillic text in plain Latin letters.
func ToLatin(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if m, ok := cyrillicLetters[r]; ok {
			b.WriteString(m)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
