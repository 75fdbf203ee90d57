package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/pera/pkg/dictionary"
)

var records = []dictionary.Record{
	{ID: "1", Kanji: "猫", Reading: "ねこ", Meanings: []dictionary.Meaning{{Gloss: "cat"}}, Level: "N5"},
	{ID: "2", Kanji: "食べる", Reading: "たべる", Meanings: []dictionary.Meaning{{Gloss: "to eat"}}, Level: "N5"},
	{ID: "3", Kanji: "東京", Reading: "とうきょう", Meanings: []dictionary.Meaning{{Gloss: "Tokyo"}}, Level: "N5"},
}

type fakeLemmas struct {
	lemmas []string
	err    error
	calls  int
}

func (f *fakeLemmas) Lemmas(string) ([]string, error) {
	f.calls++
	return f.lemmas, f.err
}

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	s, err := NewService(dictionary.New(records), opts)
	require.NoError(t, err)
	return s
}

func TestSearchBlankQuery(t *testing.T) {
	s := newService(t, Options{})
	got := s.Search(context.Background(), "  ", 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchFoldsFullWidth(t *testing.T) {
	s := newService(t, Options{})
	got := s.Search(context.Background(), "ｃａｔ", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, "1", got[0].ID)
}

func TestSearchRepairsMojibake(t *testing.T) {
	// "猫" as UTF-8 bytes read back as ISO-8859-1.
	garbled := string([]rune{0xE7, 0x8C, 0xAB})
	s := newService(t, Options{})
	got := s.Search(context.Background(), garbled, 0)
	require.NotEmpty(t, got)
	assert.Equal(t, "猫", got[0].Kanji)
}

func TestSearchLemmaFallback(t *testing.T) {
	lem := &fakeLemmas{lemmas: []string{"食べる"}}
	s := newService(t, Options{Lemmas: lem})

	got := s.Search(context.Background(), "食べた", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	// A direct hit does not consult the lemmatizer.
	lem.calls = 0
	s.Search(context.Background(), "猫", 0)
	assert.Zero(t, lem.calls)

	// ASCII queries never fall back.
	s.Search(context.Background(), "zzz", 0)
	assert.Zero(t, lem.calls)
}

func TestSearchLemmaFallbackError(t *testing.T) {
	s := newService(t, Options{Lemmas: &fakeLemmas{err: errors.New("boom")}})
	got := s.Search(context.Background(), "走った", 0)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchCachesAndLimits(t *testing.T) {
	lem := &fakeLemmas{lemmas: []string{"食べる"}}
	s := newService(t, Options{CacheSize: 8, Lemmas: lem})

	first := s.Search(context.Background(), "食べた", 0)
	second := s.Search(context.Background(), "食べた", 0)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, lem.calls, "second query must come from the cache")

	s.Purge()
	s.Search(context.Background(), "食べた", 0)
	assert.Equal(t, 2, lem.calls)

	all := s.Search(context.Background(), "t", 0)
	require.Len(t, all, 3)
	limited := s.Search(context.Background(), "t", 1)
	require.Len(t, limited, 1)
	assert.Equal(t, all[0], limited[0])
	assert.Len(t, s.Search(context.Background(), "t", 100), 3, "limit never extends the result")
}

func TestNilDictionary(t *testing.T) {
	s, err := NewService(nil, Options{CacheSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Dictionary().Len())
	assert.Empty(t, s.Search(context.Background(), "猫", 0))
}
