// Package jmdict reads the JMdict XML lexicon into plain Go values.
package jmdict

// Entry is one headword group of the lexicon.
type Entry struct {
	Seq       string
	Spellings []string
	Readings  []Reading
	Senses    []Sense
}

// Reading is a phonetic rendering of an entry plus the small metadata tokens
// attached to it (misc, re_inf and re_pri text, in that order).
type Reading struct {
	Text string
	Tags []string
}

// Sense is one meaning group. An empty Restrict means the sense applies to
// every reading of the entry.
type Sense struct {
	Glosses  []string
	Examples []Example
	Restrict []string
}

// Example pairs a target-language sentence with its Japanese source.
type Example struct {
	Text   string
	TextJA string
}

// ReadingTexts returns the reading strings in corpus order.
func (e Entry) ReadingTexts() []string {
	out := make([]string, 0, len(e.Readings))
	for _, r := range e.Readings {
		out = append(out, r.Text)
	}
	return out
}

// AppliesTo reports whether the sense may be shown for the given reading.
func (s Sense) AppliesTo(reading string) bool {
	if len(s.Restrict) == 0 {
		return true
	}
	for _, r := range s.Restrict {
		if r == reading {
			return true
		}
	}
	return false
}
