package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yourusername/agro-assistant-bot/internal/domain/entity"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

type season int

const (
	seasonNone season = iota
	seasonSpring
	seasonWinter
)

const (
	springMarker = "<яр>"
	winterMarker = "<оз>"
)

var cropListSepRe = regexp.MustCompile(`[,;]+`)

func seasonOf(token string) season {
	t := strings.TrimFunc(strings.ToLower(token), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	switch {
	case strings.HasPrefix(t, "яров"), t == "яр":
		return seasonSpring
	case strings.HasPrefix(t, "озим"), t == "оз":
		return seasonWinter
	}
	return seasonNone
}

func isConjunction(token string) bool {
	return strings.ToLower(token) == "и"
}

func endsWithVowel(s string) bool {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return false
	}
	return strings.ContainsRune("аеёиоуыэюя", r[len(r)-1])
}

// splitConjunction applies the conjunction rewrites to one comma-free item.
func splitConjunction(item string) []string {
	tokens := strings.Fields(item)
	k := -1
	for i, tok := range tokens {
		if isConjunction(tok) {
			k = i
			break
		}
	}
	if k <= 0 || k == len(tokens)-1 {
		return []string{item}
	}
	last := len(tokens) - 1
	lastSeason := seasonOf(tokens[last])
	left := tokens[:k]
	between := tokens[k+1 : last]

	// "A и B яровая" / "A и B озимая": the season applies to both.
	if lastSeason != seasonNone && len(between) > 0 {
		suffix := tokens[last]
		return []string{
			strings.Join(left, " ") + " " + suffix,
			strings.Join(between, " ") + " " + suffix,
		}
	}

	// "A яровая и озимая"
	if lastSeason != seasonNone && len(between) == 0 && len(left) > 1 && seasonOf(left[len(left)-1]) != seasonNone {
		base := strings.Join(left[:len(left)-1], " ")
		return []string{
			base + " " + left[len(left)-1],
			base + " " + tokens[last],
		}
	}

	// Bare "A и B": split unless B looks like an adjective ("плодовые и ягодные").
	right := strings.Join(tokens[k+1:], " ")
	if !endsWithVowel(right) {
		return []string{strings.Join(left, " "), right}
	}
	return []string{item}
}

// SplitCropField splits a crops cell into distinct pretty crop labels.
func SplitCropField(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range cropListSepRe.Split(raw, -1) {
		part = textnorm.CollapseSpaces(part)
		if part == "" {
			continue
		}
		for _, item := range splitConjunction(part) {
			label := PrettyLabel(item)
			if label == "" {
				continue
			}
			key := CropKey(label)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, label)
		}
	}
	return out
}

// stripSeason removes season adjectives anywhere in the name; the last one wins.
func stripSeason(raw string) ([]string, season) {
	var rest []string
	found := seasonNone
	for _, tok := range strings.Fields(raw) {
		if s := seasonOf(tok); s != seasonNone {
			found = s
			continue
		}
		rest = append(rest, tok)
	}
	return rest, found
}

type genderForm int

const (
	genderFeminine genderForm = iota
	genderMasculine
	genderNeuter
	genderPlural
)

// guessGender looks only at the final letters of the first word. Nouns in -ь
// are masculine except the hushing ones (рожь, мышь), which is right for crops
// but not a rule of the language.
func guessGender(word string) genderForm {
	r := []rune(strings.ToLower(word))
	if len(r) == 0 {
		return genderFeminine
	}
	last := r[len(r)-1]
	w := string(r)
	switch {
	case strings.HasSuffix(w, "ые") || strings.HasSuffix(w, "ие"):
		return genderPlural
	case last == 'ы' || last == 'и':
		return genderPlural
	case last == 'о' || last == 'е':
		return genderNeuter
	case last == 'а' || last == 'я':
		return genderFeminine
	case last == 'ь':
		if len(r) > 1 && strings.ContainsRune("жшчщ", r[len(r)-2]) {
			return genderFeminine
		}
		return genderMasculine
	case unicode.IsLetter(last):
		return genderMasculine
	}
	return genderFeminine
}

var seasonForms = map[season][4]string{
	seasonSpring: {"яровая", "яровой", "яровое", "яровые"},
	seasonWinter: {"озимая", "озимый", "озимое", "озимые"},
}

// PrettyLabel display form of a crop name: first letter upper-cased, the rest
// lower-cased, a season adjective moved to the end in the form agreeing with
// the guessed gender of the first word.
func PrettyLabel(raw string) string {
	rest, s := stripSeason(strings.ToLower(textnorm.CollapseSpaces(raw)))
	if len(rest) == 0 {
		return ""
	}
	base := textnorm.Capitalize(strings.Join(rest, " "))
	if s == seasonNone {
		return base
	}
	return base + " " + seasonForms[s][guessGender(rest[0])]
}

// CropKey dedup key: normalized name without season words plus a season marker.
func CropKey(label string) string {
	rest, s := stripSeason(strings.ToLower(label))
	key := textnorm.Normalize(strings.Join(rest, " "))
	switch s {
	case seasonSpring:
		key += " " + springMarker
	case seasonWinter:
		key += " " + winterMarker
	}
	return key
}

// cropKeySet keys of every crop mentioned in a crops cell.
func cropKeySet(raw string) map[string]struct{} {
	labels := SplitCropField(raw)
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		set[CropKey(label)] = struct{}{}
	}
	return set
}

// CropIndex deduplicated, sorted crops of one catalog snapshot.
type CropIndex struct {
	entries []entity.CropEntry
	byID    map[string]entity.CropEntry
	byKey   map[string]entity.CropEntry
	// drill crop keys that have at least one drill-down row
	drill map[string]struct{}
}

// BuildIndex collects crops of every row; the first spelling seen for a key is kept.
func BuildIndex(rows []entity.Row) CropIndex {
	idx := CropIndex{
		byID:  make(map[string]entity.CropEntry),
		byKey: make(map[string]entity.CropEntry),
		drill: make(map[string]struct{}),
	}
	for _, row := range rows {
		labels, keys := rowCrops(row)
		usable := drillDownRow(row) && len(rowCategories(row)) > 0
		for i, label := range labels {
			key := keys[i]
			if usable {
				idx.drill[key] = struct{}{}
			}
			if _, ok := idx.byKey[key]; ok {
				continue
			}
			entry := entity.CropEntry{ID: ShortID(key), Key: key, Label: label}
			idx.byKey[key] = entry
			idx.byID[entry.ID] = entry
			idx.entries = append(idx.entries, entry)
		}
	}
	sortCropEntries(idx.entries)
	return idx
}

// Entries all crops sorted by label.
func (c CropIndex) Entries() []entity.CropEntry {
	return c.entries
}

// ByID crop by short id.
func (c CropIndex) ByID(id string) (entity.CropEntry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// ByLabel crop by any spelling of its name.
func (c CropIndex) ByLabel(label string) (entity.CropEntry, bool) {
	e, ok := c.byKey[CropKey(PrettyLabel(label))]
	return e, ok
}

// ByKey crop by dedup key.
func (c CropIndex) ByKey(key string) (entity.CropEntry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// HasDrillDown at least one row for crop carries a destroy category.
func (c CropIndex) HasDrillDown(crop entity.CropEntry) bool {
	_, ok := c.drill[crop.Key]
	return ok
}

// Len number of distinct crops.
func (c CropIndex) Len() int {
	return len(c.entries)
}

// collators are not safe for concurrent use, so each sort gets its own.
func sortLabels(labels []string) {
	collate.New(language.Russian).SortStrings(labels)
}

func sortCropEntries(entries []entity.CropEntry) {
	col := collate.New(language.Russian)
	sort.SliceStable(entries, func(i, j int) bool {
		return col.CompareString(entries[i].Label, entries[j].Label) < 0
	})
}
