package ingest

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/dictionary"
	"github.com/japaniel/pera/pkg/srs"
)

// SeedResult counts the outcome of a bulk import.
type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Seeder bulk-imports dictionary records as cards.
type Seeder struct {
	DB        *sql.DB
	BatchSize int
	Ease      float64
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewSeeder creates a Seeder writing batches of 500 cards.
func NewSeeder(conn *sql.DB) *Seeder {
	return &Seeder{DB: conn, BatchSize: 500, Ease: srs.DefaultEase}
}

// Seed adds one card for the first meaning of every record whose level
// equals level (all records when level is empty). Records that already have
// a card are skipped. A record that fails to insert is counted and the
// import goes on.
func (s *Seeder) Seed(ctx context.Context, records []dictionary.Record, level string) (SeedResult, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var created, skipped, failed int64
	bw := NewBatchWriter(s.DB, s.BatchSize, 0)

	var err error
	for _, rec := range records {
		if level != "" && rec.Level != level {
			continue
		}
		if err = ctx.Err(); err != nil {
			break
		}
		card := db.CardFromRecord(rec, 0)
		err = bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			_, ok, err := db.CreateOrGetCard(tx, card, s.Ease, now)
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
				log.WarnContext(ctx, "seed card failed", slog.String("ent_seq", card.RecordID), slog.Any("error", err))
			case ok:
				atomic.AddInt64(&created, 1)
			default:
				atomic.AddInt64(&skipped, 1)
			}
			return nil
		})
		if err != nil {
			break
		}
	}
	if closeErr := bw.Close(); err == nil {
		err = closeErr
	}

	res := SeedResult{
		Created: int(atomic.LoadInt64(&created)),
		Skipped: int(atomic.LoadInt64(&skipped)),
		Errors:  int(atomic.LoadInt64(&failed)),
	}
	log.InfoContext(ctx, "seed finished",
		slog.String("level", level),
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
		slog.Int("errors", res.Errors),
	)
	return res, err
}
