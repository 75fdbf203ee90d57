// Package dictionary turns parsed lexicon entries into flat per-reading
// records and ranks them against free-text queries.
package dictionary

import (
	"github.com/japaniel/pera/pkg/script"
)

// Dictionary is the loaded record set plus lookup indexes. It is built once
// and never mutated, so it is safe for concurrent use without locking.
type Dictionary struct {
	records []Record
	// index maps a spelling or reading to record positions, in corpus order.
	index map[string][]int
	byID  map[string]int
}

// Stats summarizes the proficiency-level distribution of a dictionary.
type Stats struct {
	Total   int            `json:"total"`
	Levels  map[string]int `json:"levels"`
	NoLevel int            `json:"no_level"`
	Leveled int            `json:"leveled"`
}

// New builds a Dictionary over records. The slice must not be modified
// afterwards.
func New(records []Record) *Dictionary {
	d := &Dictionary{
		records: records,
		index:   make(map[string][]int),
		byID:    make(map[string]int, len(records)),
	}
	for i, r := range records {
		if r.Kanji != "" {
			d.index[r.Kanji] = append(d.index[r.Kanji], i)
		}
		if r.Reading != "" && r.Reading != r.Kanji {
			d.index[r.Reading] = append(d.index[r.Reading], i)
		}
		if _, dup := d.byID[r.ID]; !dup {
			d.byID[r.ID] = i
		}
	}
	return d
}

// Empty returns a dictionary without records.
func Empty() *Dictionary {
	return New(nil)
}

// Len returns the number of records.
func (d *Dictionary) Len() int { return len(d.records) }

// Records returns the full record set in corpus order. Callers must treat it
// as read-only.
func (d *Dictionary) Records() []Record { return d.records }

// Search ranks the dictionary against query. See Search.
func (d *Dictionary) Search(query string) []Record {
	return Search(d.records, query)
}

// Get returns the record with the given id.
func (d *Dictionary) Get(id string) (Record, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Record{}, false
	}
	return d.records[i], true
}

// Lookup finds records whose spelling or reading equals word. When reading
// is non-empty (katakana is accepted) only records with that reading are
// kept. Results are in corpus order.
func (d *Dictionary) Lookup(word, reading string) []Record {
	idxs := d.index[word]
	if len(idxs) == 0 {
		return nil
	}
	want := script.ToHiragana(reading)

	var out []Record
	for _, i := range idxs {
		r := d.records[i]
		if want != "" && script.ToHiragana(r.Reading) != want {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Stats counts records per proficiency level.
func (d *Dictionary) Stats() Stats {
	s := Stats{Total: len(d.records), Levels: make(map[string]int)}
	for _, r := range d.records {
		if r.Level == "" {
			s.NoLevel++
			continue
		}
		s.Levels[r.Level]++
		s.Leveled++
	}
	return s
}
