package jmdict

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

type xmlEntry struct {
	Seq      string       `xml:"ent_seq"`
	Kanji    []xmlKanji   `xml:"k_ele"`
	Readings []xmlReading `xml:"r_ele"`
	Senses   []xmlSense   `xml:"sense"`
}

type xmlKanji struct {
	Keb *string `xml:"keb"`
}

type xmlReading struct {
	Reb  *string  `xml:"reb"`
	Misc []string `xml:"misc"`
	Inf  []string `xml:"re_inf"`
	Pri  []string `xml:"re_pri"`
}

type xmlSense struct {
	Stagr    []string     `xml:"stagr"`
	Glosses  []xmlText    `xml:"gloss"`
	Examples []xmlExample `xml:"example"`
}

type xmlText struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

type xmlExample struct {
	Text   string    `xml:"ex_text"`
	TextJA string    `xml:"ex_text_ja"`
	Sents  []xmlText `xml:"ex_sent"`
}

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"'>]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// Parse decodes a whole JMdict document.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	err := Walk(r, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc string) ([]Entry, error) {
	return Parse(strings.NewReader(doc))
}

// ParseFile opens path and parses it.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Walk streams the entries of a JMdict document to fn in corpus order.
//
// The decoder runs in strict mode. Entities declared in the internal DTD
// subset are resolved through an unbounded map, so corpora with hundreds of
// thousands of declarations load fine. Elements the schema does not know are
// skipped. An error returned by fn stops the walk and is returned unchanged.
func Walk(r io.Reader, fn func(Entry) error) error {
	d := xml.NewDecoder(r)
	d.Strict = true
	entities := make(map[string]string)
	d.Entity = entities

	rootSeen := false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &ParseError{Offset: d.InputOffset(), Err: err}
		}

		switch t := tok.(type) {
		case xml.Directive:
			collectEntities(t, entities)
		case xml.StartElement:
			if !rootSeen {
				if t.Name.Local != "JMdict" {
					return &ParseError{Offset: d.InputOffset(), Err: fmt.Errorf("%w: found <%s>", ErrNoRoot, t.Name.Local)}
				}
				rootSeen = true
				continue
			}
			if t.Name.Local != "entry" {
				if err := d.Skip(); err != nil {
					return &ParseError{Offset: d.InputOffset(), Err: err}
				}
				continue
			}

			var x xmlEntry
			if err := d.DecodeElement(&x, &t); err != nil {
				return &ParseError{Offset: d.InputOffset(), Seq: strings.TrimSpace(x.Seq), Err: err}
			}
			e, err := x.entry()
			if err != nil {
				return &ParseError{Offset: d.InputOffset(), Seq: e.Seq, Err: err}
			}
			if err := fn(e); err != nil {
				return err
			}
		}
	}

	if !rootSeen {
		return &ParseError{Offset: d.InputOffset(), Err: ErrNoRoot}
	}
	return nil
}

func collectEntities(dir xml.Directive, into map[string]string) {
	for _, m := range entityDecl.FindAllSubmatch(dir, -1) {
		value := m[2]
		if value == nil {
			value = m[3]
		}
		into[string(m[1])] = string(value)
	}
}

func (x xmlEntry) entry() (Entry, error) {
	e := Entry{Seq: strings.TrimSpace(x.Seq)}
	if e.Seq == "" {
		return e, errors.New("entry without ent_seq")
	}

	for _, k := range x.Kanji {
		if k.Keb == nil {
			return e, errors.New("k_ele without keb")
		}
		e.Spellings = append(e.Spellings, strings.TrimSpace(*k.Keb))
	}

	for _, r := range x.Readings {
		if r.Reb == nil {
			return e, errors.New("r_ele without reb")
		}
		reading := Reading{Text: strings.TrimSpace(*r.Reb)}
		for _, group := range [][]string{r.Misc, r.Inf, r.Pri} {
			for _, tag := range group {
				reading.Tags = append(reading.Tags, strings.TrimSpace(tag))
			}
		}
		e.Readings = append(e.Readings, reading)
	}

	for _, s := range x.Senses {
		var sense Sense
		for _, g := range s.Glosses {
			if g.Lang != "" && g.Lang != "eng" {
				continue
			}
			sense.Glosses = append(sense.Glosses, strings.TrimSpace(g.Text))
		}
		for _, ex := range s.Examples {
			if pair, ok := ex.pair(); ok {
				sense.Examples = append(sense.Examples, pair)
			}
		}
		for _, restrict := range s.Stagr {
			sense.Restrict = append(sense.Restrict, strings.TrimSpace(restrict))
		}
		e.Senses = append(e.Senses, sense)
	}
	return e, nil
}

// pair prefers the ex_sent form of real JMdict and falls back to the
// ex_text/ex_text_ja form. Examples missing either side are dropped.
func (x xmlExample) pair() (Example, bool) {
	if len(x.Sents) > 0 {
		var ex Example
		for _, s := range x.Sents {
			switch s.Lang {
			case "jpn":
				ex.TextJA = strings.TrimSpace(s.Text)
			case "", "eng":
				ex.Text = strings.TrimSpace(s.Text)
			}
		}
		return ex, ex.Text != "" && ex.TextJA != ""
	}
	ex := Example{Text: strings.TrimSpace(x.Text), TextJA: strings.TrimSpace(x.TextJA)}
	return ex, ex.Text != "" && ex.TextJA != ""
}
