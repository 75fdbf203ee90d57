// Package lookup serves dictionary queries: it cleans up the raw query,
// caches ranked results and retries conjugated input by its base forms.
package lookup

import (
	"context"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/japaniel/pera/pkg/dictionary"
	"github.com/japaniel/pera/pkg/script"
)

// DefaultCacheSize is the number of distinct queries kept in the cache.
const DefaultCacheSize = 1024

// Lemmatizer returns the base forms of the words in text.
type Lemmatizer interface {
	Lemmas(text string) ([]string, error)
}

// Options configures a Service.
type Options struct {
	// CacheSize is the number of cached queries. Zero or less disables caching.
	CacheSize int
	// Lemmas enables the base-form retry. nil disables it.
	Lemmas Lemmatizer
	Logger *slog.Logger
}

// Service answers search queries against one immutable dictionary.
type Service struct {
	dict   *dictionary.Dictionary
	lemmas Lemmatizer
	cache  *lru.Cache[string, []dictionary.Record]
	logger *slog.Logger
}

// NewService creates a Service over dict. A nil dict behaves as empty.
func NewService(dict *dictionary.Dictionary, opts Options) (*Service, error) {
	if dict == nil {
		dict = dictionary.Empty()
	}
	s := &Service{dict: dict, lemmas: opts.Lemmas, logger: opts.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, []dictionary.Record](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

// Dictionary returns the dictionary the service searches.
func (s *Service) Dictionary() *dictionary.Dictionary { return s.dict }

// NormalizeQuery repairs mis-decoded UTF-8, folds full-width characters and
// trims surrounding space.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(script.FoldWidth(script.RepairMojibake(q)))
}

// Search returns up to limit ranked records for query. limit <= 0 or above
// dictionary.MaxResults means dictionary.MaxResults. The returned slice is
// shared with the cache and must not be modified.
func (s *Service) Search(ctx context.Context, query string, limit int) []dictionary.Record {
	q := NormalizeQuery(query)
	if q == "" {
		return []dictionary.Record{}
	}

	res, ok := s.cached(q)
	if !ok {
		res = s.search(ctx, q)
		if s.cache != nil {
			s.cache.Add(q, res)
		}
	}
	if limit > 0 && limit < len(res) {
		res = res[:limit]
	}
	return res
}

func (s *Service) cached(q string) ([]dictionary.Record, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(q)
}

func (s *Service) search(ctx context.Context, q string) []dictionary.Record {
	res := s.dict.Search(q)
	if len(res) > 0 || s.lemmas == nil || script.IsASCII(q) {
		return orEmpty(res)
	}

	lemmas, err := s.lemmas.Lemmas(q)
	if err != nil {
		s.logger.WarnContext(ctx, "lemma fallback failed", slog.String("query", q), slog.Any("error", err))
		return []dictionary.Record{}
	}
	for _, l := range lemmas {
		if l == q {
			continue
		}
		if res := s.dict.Search(l); len(res) > 0 {
			s.logger.DebugContext(ctx, "lemma fallback hit", slog.String("query", q), slog.String("lemma", l))
			return res
		}
	}
	return []dictionary.Record{}
}

func orEmpty(r []dictionary.Record) []dictionary.Record {
	if r == nil {
		return []dictionary.Record{}
	}
	return r
}

// Purge drops every cached result.
func (s *Service) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
