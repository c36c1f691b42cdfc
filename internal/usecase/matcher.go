package usecase

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yourusername/agro-assistant-bot/internal/domain/constants"
	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

// Match scored candidate; Index points into the ranked input.
type Match struct {
	Candidate string
	Score     float64
	Index     int
}

func min3(a, b, c int) int {
	return min(min(a, b), c)
}

// Levenshtein edit distance over runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ra {
		curr[0] = i + 1
		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}
			curr[j+1] = min3(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// editDistanceWithin distance between a and b if it does not exceed limit.
func editDistanceWithin(a, b string, limit int) (int, bool) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if d := la - lb; d > limit || -d > limit {
		return 0, false
	}
	d := Levenshtein(a, b)
	return d, d <= limit
}

func ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// windowWeight keeps a partial-name hit below an exact match.
const windowWeight = 0.95

// windowRatio best ratio of the query against runs of candidate words of the
// same word count, so "раундап" scores high against "раундап макс".
func windowRatio(query, candidate string) float64 {
	qw := strings.Fields(query)
	cw := strings.Fields(candidate)
	if len(qw) == 0 || len(cw) <= len(qw) {
		return 0
	}
	best := 0.0
	for i := 0; i+len(qw) <= len(cw); i++ {
		if r := ratio(query, strings.Join(cw[i:i+len(qw)], " ")); r > best {
			best = r
		}
	}
	return best * windowWeight
}

func scorePair(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}
	if query == candidate {
		return 1
	}
	s := max(ratio(query, candidate), windowRatio(query, candidate))
	if utf8.RuneCountInString(query) >= 3 && strings.Contains(candidate, query) {
		s = max(s, constants.ContainmentScore)
	}
	return s
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		dup := false
		for _, have := range list {
			if have == v {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, v)
		}
	}
	return list
}

// QueryVariants normalized query plus both keyboard-layout swaps and the
// Latin→Cyrillic transliteration.
func QueryVariants(query string) []string {
	norm := textnorm.Normalize(query)
	if norm == "" {
		return nil
	}
	toCyr, toLat := textnorm.LayoutSwap(query)
	return appendUnique([]string{norm},
		textnorm.Normalize(toCyr),
		textnorm.Normalize(toLat),
		textnorm.Normalize(textnorm.Transliterate(norm)),
	)
}

func candidateVariants(candidate string) []string {
	norm := textnorm.Normalize(candidate)
	return appendUnique(nil, norm, textnorm.Normalize(textnorm.ToLatin(norm)))
}

func scoreVariants(queries []string, candidate string) float64 {
	best := 0.0
	for _, c := range candidateVariants(candidate) {
		for _, q := range queries {
			if s := scorePair(q, c); s > best {
				best = s
			}
		}
	}
	return best
}

// Score similarity in [0,1] of the best query variant against the candidate.
func Score(query, candidate string) float64 {
	return scoreVariants(QueryVariants(query), candidate)
}

// Rank candidates scoring at least threshold, best first; ties keep input order.
func Rank(query string, candidates []string, threshold float64) []Match {
	queries := QueryVariants(query)
	if len(queries) == 0 {
		return nil
	}
	var out []Match
	for i, c := range candidates {
		s := scoreVariants(queries, c)
		if s < threshold {
			continue
		}
		out = append(out, Match{Candidate: c, Score: s, Index: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// maxEditDistance typo budget for an active-ingredient token.
func maxEditDistance(token string) int {
	l := utf8.RuneCountInString(token)
	switch {
	case l <= 3:
		return 0
	case l <= 5:
		return 1
	case l <= 8:
		return 2
	default:
		return 3
	}
}

// tokenMatches query token against one indexed token: substring, prefix or a
// bounded number of typos.
func tokenMatches(query, token string) bool {
	if strings.Contains(token, query) || strings.HasPrefix(query, token) && utf8.RuneCountInString(token) >= 3 {
		return true
	}
	_, ok := editDistanceWithin(query, token, maxEditDistance(query))
	return ok
}
