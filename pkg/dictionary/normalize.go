package dictionary

import (
	"strings"

	"github.com/japaniel/pera/pkg/jmdict"
)

// Normalize explodes each entry into one Record per reading.
//
// A sense applies to a reading when it has no restriction or names that
// reading. When no sense applies, the reading gets every sense of the entry
// instead, so a reading is never left without meanings while the entry has
// any. Level and secondary gloss are looked up by the first spelling and then
// by the reading; the secondary gloss goes on the first meaning only.
func Normalize(entries []jmdict.Entry, levels, glosses map[string]string) []Record {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = appendRecords(records, e, levels, glosses)
	}
	return records
}

func appendRecords(out []Record, e jmdict.Entry, levels, glosses map[string]string) []Record {
	if len(e.Readings) == 0 {
		return out
	}
	primary := ""
	if len(e.Spellings) > 0 {
		primary = e.Spellings[0]
	}

	for _, r := range e.Readings {
		senses := applicableSenses(e.Senses, r.Text)
		if len(senses) == 0 {
			continue
		}

		meanings := make([]Meaning, 0, len(senses))
		for _, s := range senses {
			meanings = append(meanings, toMeaning(s))
		}
		if gloss, ok := lookup(glosses, primary, r.Text); ok {
			meanings[0].GlossCN = gloss
		}

		rec := Record{
			ID:       e.Seq + "_" + r.Text,
			Kanji:    primary,
			Reading:  r.Text,
			Meanings: meanings,
			Pitch:    findPitch(e, r.Text),
		}
		if level, ok := lookup(levels, primary, r.Text); ok {
			rec.Level = level
		}
		out = append(out, rec)
	}
	return out
}

func applicableSenses(senses []jmdict.Sense, reading string) []jmdict.Sense {
	var out []jmdict.Sense
	for _, s := range senses {
		if s.AppliesTo(reading) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return senses
	}
	return out
}

func toMeaning(s jmdict.Sense) Meaning {
	m := Meaning{Gloss: strings.Join(s.Glosses, "; ")}
	for _, ex := range s.Examples {
		m.Examples = append(m.Examples, Example{Text: ex.Text, TextJA: ex.TextJA})
	}
	return m
}

func lookup(table map[string]string, spelling, reading string) (string, bool) {
	if spelling != "" {
		if v, ok := table[spelling]; ok {
			return v, true
		}
	}
	v, ok := table[reading]
	return v, ok
}

// findPitch returns the first all-digit metadata token of the reading.
func findPitch(e jmdict.Entry, reading string) string {
	for _, r := range e.Readings {
		if r.Text != reading {
			continue
		}
		for _, tag := range r.Tags {
			if isDigits(tag) {
				return tag
			}
		}
		return ""
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
