// Package ingest adds dictionary records to the card store, either in bulk
// (seeding) or by harvesting the vocabulary of tokenized articles.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/japaniel/pera/pkg/article"
	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/dictionary"
	"github.com/japaniel/pera/pkg/script"
	"github.com/japaniel/pera/pkg/srs"
)

// Dictionary resolves a base form and optional reading to records.
type Dictionary interface {
	Lookup(word, reading string) []dictionary.Record
}

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester harvests the vocabulary of analyzed sentences into cards.
type Ingester struct {
	DB        *sql.DB
	Dict      Dictionary
	BatchSize int
	Workers   int
	// Ease is the starting ease factor of new cards.
	Ease float64
	// Now stamps new cards as due. nil means time.Now.
	Now    func() time.Time
	Logger *slog.Logger
	// OnProgress is called periodically with the number of processed sentences and total sentences.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates an Ingester with 4 workers and batches of 50.
func NewIngester(conn *sql.DB, dict Dictionary) *Ingester {
	return &Ingester{
		DB:        conn,
		Dict:      dict,
		BatchSize: 50,
		Workers:   4,
		Ease:      srs.DefaultEase,
	}
}

// wordMatch is one content word of a sentence and the records it resolved to.
type wordMatch struct {
	Lemma   string
	Records []dictionary.Record
	Count   int
}

// processedSentence holds the result of processing a sentence before DB ingestion
type processedSentence struct {
	Index    int
	Sentence string
	Words    []wordMatch
}

func (ig *Ingester) logger() *slog.Logger {
	if ig.Logger != nil {
		return ig.Logger
	}
	return slog.Default()
}

func (ig *Ingester) now() time.Time {
	if ig.Now != nil {
		return ig.Now()
	}
	return time.Now()
}

// Ingest adds a card for every dictionary record matched by a content word
// of sentences and links it to sourceID. Progress is checkpointed per
// sentence, so a later call resumes after the last persisted sentence. It
// returns the number of word occurrences linked.
func (ig *Ingester) Ingest(ctx context.Context, sourceID int64, sentences []article.Sentence) (int, error) {
	log := ig.logger().With(slog.Int64("source_id", sourceID))

	lastProcessed, err := db.GetSourceProgress(ig.DB, sourceID)
	if err != nil {
		log.WarnContext(ctx, "failed to retrieve progress", slog.Any("error", err))
		lastProcessed = -1
	}
	if lastProcessed >= 0 {
		log.InfoContext(ctx, "resuming harvest", slog.Int("from_sentence", lastProcessed+1))
	}

	total := len(sentences)
	startIdx := lastProcessed + 1
	if startIdx >= total {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	workers := max(ig.Workers, 1)
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	resultCh := make(chan processedSentence, workers*2)
	doneCh := make(chan error, 1)

	var totalLinks int64
	bw := NewBatchWriter(ig.DB, ig.BatchSize, 100*time.Millisecond)
	bw.OnError = func(e error) {
		log.ErrorContext(ctx, "harvest batch failed", slog.Any("error", e))
		cancel()
	}

	persist := func(item processedSentence) WriteFunc {
		return func(_ context.Context, tx *sql.Tx) error {
			now := ig.now()
			for _, w := range item.Words {
				seen := make(map[string]bool, len(w.Records))
				for _, rec := range w.Records {
					if seen[rec.ID] {
						continue
					}
					seen[rec.ID] = true
					cardID, _, err := db.CreateOrGetCard(tx, db.CardFromRecord(rec, 0), ig.Ease, now)
					if err != nil {
						return fmt.Errorf("persist card for %s: %w", w.Lemma, err)
					}
					if err := db.LinkCardToSource(tx, cardID, sourceID, item.Sentence, w.Count); err != nil {
						return fmt.Errorf("link card %d: %w", cardID, err)
					}
				}
				atomic.AddInt64(&totalLinks, int64(w.Count))
			}
			if err := db.UpdateSourceProgress(tx, sourceID, item.Index); err != nil {
				return fmt.Errorf("save progress: %w", err)
			}
			return nil
		}
	}

	// Consumer: results arrive out of order; write them in sentence order so
	// the progress checkpoint never skips an unwritten sentence.
	go func() {
		defer close(doneCh)
		pending := make(map[int]processedSentence)
		next := startIdx
		for res := range resultCh {
			pending[res.Index] = res
			for {
				item, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := bw.Submit(persist(item)); err != nil {
					cancel()
					doneCh <- err
					for range resultCh {
					}
					return
				}
				next++
				if ig.OnProgress != nil && next%max(ig.BatchSize, 1) == 0 {
					ig.OnProgress(next, total)
				}
			}
		}
		if ig.OnProgress != nil && next == total {
			ig.OnProgress(total, total)
		}
	}()

	wp.Start(ctx)

	var submitErr error
Loop:
	for i := startIdx; i < total; i++ {
		idx := i
		sent := sentences[i]
		job := func(ctx context.Context) error {
			res := ig.processSentence(idx, sent)
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrPoolClosed) {
				break Loop
			}
			submitErr = err
			break Loop
		}
	}

	// Workers are gone after Close, so nothing else sends on resultCh.
	wp.Close()
	close(resultCh)
	consumerErr := <-doneCh

	closeErr := bw.Close()

	switch {
	case submitErr != nil:
		err = submitErr
	case consumerErr != nil:
		err = consumerErr
	case closeErr != nil:
		err = closeErr
	default:
		err = parent.Err()
	}

	links := int(atomic.LoadInt64(&totalLinks))
	log.InfoContext(ctx, "harvest finished", slog.Int("links", links), slog.Int("sentences", total-startIdx))
	return links, err
}

// processSentence groups the content words of a sentence by base form and
// looks each one up in the dictionary. Words without a match are dropped.
func (ig *Ingester) processSentence(index int, sentence article.Sentence) processedSentence {
	counts := make(map[string]int)
	readings := make(map[string]string)
	var order []string

	for _, t := range sentence.Tokens {
		if !t.IsContentWord() {
			continue
		}
		lemma := t.Lemma()
		if _, ok := counts[lemma]; !ok {
			order = append(order, lemma)
		}
		counts[lemma]++
		// The reading belongs to the surface, which only matches the
		// lemma when the token is not conjugated.
		if readings[lemma] == "" && t.Surface == lemma {
			readings[lemma] = script.ToHiragana(t.Reading)
		}
	}

	res := processedSentence{Index: index, Sentence: sentence.Text}
	if ig.Dict == nil {
		return res
	}
	for _, lemma := range order {
		recs := ig.Dict.Lookup(lemma, readings[lemma])
		if len(recs) == 0 && readings[lemma] != "" {
			recs = ig.Dict.Lookup(lemma, "")
		}
		if len(recs) == 0 {
			continue
		}
		res.Words = append(res.Words, wordMatch{Lemma: lemma, Records: recs, Count: counts[lemma]})
	}
	return res
}
