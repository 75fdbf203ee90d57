package jmdict

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	t.Parallel()

	entries, err := ParseFile("testdata/sample.xml")
	require.NoError(t, err)
	require.Len(t, entries, 8)

	want := Entry{
		Seq:       "1467640",
		Spellings: []string{"猫"},
		Readings: []Reading{
			{Text: "ねこ", Tags: []string{"noun (common) (futsuumeishi)", "1", "ichi1"}},
		},
		Senses: []Sense{
			{
				Glosses:  []string{"cat"},
				Examples: []Example{{Text: "The cat is sleeping.", TextJA: "猫が寝ている。"}},
			},
			{Glosses: []string{"shamisen"}},
		},
	}
	if diff := cmp.Diff(want, entries[0]); diff != "" {
		t.Errorf("entry mismatch (-want, +got):\n%s", diff)
	}
}

func TestParseExampleSentences(t *testing.T) {
	t.Parallel()

	entries, err := ParseFile("testdata/sample.xml")
	require.NoError(t, err)

	taberu := entries[1]
	require.Len(t, taberu.Senses, 1)
	assert.Equal(t, []Example{{Text: "I eat rice.", TextJA: "ご飯を食べる。"}}, taberu.Senses[0].Examples)
}

func TestParseRestrictions(t *testing.T) {
	t.Parallel()

	entries, err := ParseFile("testdata/sample.xml")
	require.NoError(t, err)

	iku := entries[2]
	assert.Equal(t, []string{"いく", "ゆく"}, iku.ReadingTexts())
	require.Len(t, iku.Senses, 2)
	assert.Empty(t, iku.Senses[0].Restrict)
	assert.Equal(t, []string{"ゆく"}, iku.Senses[1].Restrict)
	assert.True(t, iku.Senses[1].AppliesTo("ゆく"))
	assert.False(t, iku.Senses[1].AppliesTo("いく"))
	assert.True(t, iku.Senses[0].AppliesTo("いく"))
}

func TestParseIgnoresUnknownElements(t *testing.T) {
	t.Parallel()

	doc := `<JMdict>
<header><version>1</version></header>
<entry>
<ent_seq>1</ent_seq>
<info><audit><upd_date>2020-01-01</upd_date></audit></info>
<r_ele><reb>あ</reb><re_nokanji/><future>x</future></r_ele>
<sense><pos>int</pos><gloss g_type="expl">ah</gloss><lsource>x</lsource></sense>
</entry>
</JMdict>`

	entries, err := ParseString(doc)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].Seq)
	assert.Equal(t, []string{"ah"}, entries[0].Senses[0].Glosses)
}

func TestParseManyEntities(t *testing.T) {
	t.Parallel()

	const count = 12000

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!DOCTYPE JMdict [\n")
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "<!ENTITY e%d \"tag number %d\">\n", i, i)
	}
	b.WriteString("]>\n<JMdict>\n")
	for _, i := range []int{0, 5000, count - 1} {
		fmt.Fprintf(&b, "<entry><ent_seq>%d</ent_seq><r_ele><reb>よみ</reb><misc>&e%d;</misc></r_ele><sense><gloss>g</gloss></sense></entry>\n", i, i)
	}
	b.WriteString("</JMdict>\n")

	entries, err := ParseString(b.String())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"tag number 11999"}, entries[2].Readings[0].Tags)
	assert.Equal(t, []string{"tag number 5000"}, entries[1].Readings[0].Tags)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantSeq string
		noRoot  bool
	}{
		{name: "empty input", doc: "", noRoot: true},
		{name: "wrong root", doc: "<dictionary><entry/></dictionary>", noRoot: true},
		{name: "malformed nesting", doc: "<JMdict><entry><ent_seq>1</entry></JMdict>"},
		{name: "unterminated", doc: "<JMdict><entry><ent_seq>1</ent_seq>", wantSeq: "1"},
		{name: "undeclared entity", doc: "<JMdict><entry><ent_seq>1</ent_seq><r_ele><reb>&nope;</reb></r_ele></entry></JMdict>", wantSeq: "1"},
		{name: "missing ent_seq", doc: "<JMdict><entry><r_ele><reb>あ</reb></r_ele></entry></JMdict>"},
		{name: "reading without reb", doc: "<JMdict><entry><ent_seq>7</ent_seq><r_ele><misc>1</misc></r_ele></entry></JMdict>", wantSeq: "7"},
		{name: "kanji without keb", doc: "<JMdict><entry><ent_seq>8</ent_seq><k_ele/><r_ele><reb>あ</reb></r_ele></entry></JMdict>", wantSeq: "8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseString(tt.doc)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
			assert.Equal(t, tt.wantSeq, perr.Seq)
			if tt.noRoot {
				assert.ErrorIs(t, err, ErrNoRoot)
			}
		})
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	seen := 0
	err := Walk(strings.NewReader(`<JMdict>
<entry><ent_seq>1</ent_seq><r_ele><reb>あ</reb></r_ele></entry>
<entry><ent_seq>2</ent_seq><r_ele><reb>い</reb></r_ele></entry>
</JMdict>`), func(Entry) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}
