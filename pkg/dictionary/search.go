package dictionary

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/japaniel/pera/pkg/script"
)

// MaxResults caps the number of records a search returns.
const MaxResults = 50

// Field match scores.
const (
	ScoreExact    = 500
	ScoreBoundary = 200
	ScorePrefix   = 100
	ScoreContains = 20
)

const wordWeight = 10

// Search ranks records against a free-text query and returns at most
// MaxResults of them, best first. Records with equal scores keep their input
// order. A blank query yields no results.
//
// ASCII queries are also compared against readings after romaji to kana
// conversion. Other queries are scored a second time with simplified
// ideographs replaced by their Japanese forms and the better score is kept.
func Search(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	ascii := script.IsASCII(q)
	var kana string
	var hasKana bool
	var alt string
	if ascii {
		kana, hasKana = script.ToKana(q)
	} else if n := script.NormalizeIdeograph(q); n != q {
		alt = n
	}

	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i := range records {
		s := Score(&records[i], q, kana, hasKana)
		if alt != "" {
			s = max(s, Score(&records[i], alt, "", false))
		}
		if s > 0 {
			hits = append(hits, hit{idx: i, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}

	out := make([]Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, records[h.idx])
	}
	return out
}

// Score computes the relevance of rec for the lowercased query q. kana is the
// romaji conversion of q and is only used when hasKana is set.
func Score(rec *Record, q, kana string, hasKana bool) int {
	word := max(FieldMatch(rec.Kanji, q), FieldMatch(rec.Reading, q))
	if hasKana {
		word = max(word, FieldMatch(rec.Reading, kana))
	}

	glossWeight := 1
	if !script.IsASCII(q) {
		glossWeight = 2
	}
	meaning := 0
	for _, m := range rec.Meanings {
		meaning = max(meaning, FieldMatch(m.Gloss, q))
		if m.GlossCN != "" {
			meaning = max(meaning, FieldMatch(m.GlossCN, q)*glossWeight)
		}
	}

	total := word*wordWeight + meaning
	if total == 0 {
		return 0
	}
	return total + LevelBonus(rec.Level)
}

// FieldMatch compares target with query, ignoring case. It returns
// ScoreExact on equality, ScoreBoundary when an ASCII query occurs in target
// as a whole word, ScorePrefix when target starts with the query,
// ScoreContains when it occurs anywhere, and 0 otherwise.
func FieldMatch(target, query string) int {
	if target == "" || query == "" {
		if target == query {
			return ScoreExact
		}
		return 0
	}
	t := strings.ToLower(target)
	q := strings.ToLower(query)
	switch {
	case t == q:
		return ScoreExact
	case script.IsASCII(q) && containsWord(t, q):
		return ScoreBoundary
	case strings.HasPrefix(t, q):
		return ScorePrefix
	case strings.Contains(t, q):
		return ScoreContains
	}
	return 0
}

// containsWord reports whether q occurs in t with a non-word rune or a string
// edge on both sides.
func containsWord(t, q string) bool {
	for from := 0; from <= len(t)-len(q); {
		i := strings.Index(t[from:], q)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(q)
		if boundaryBefore(t, start) && boundaryAfter(t, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(t[start:])
		from = start + size
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
