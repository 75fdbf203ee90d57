package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/pera/pkg/config"
	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/dictionary"
	"github.com/japaniel/pera/pkg/jmdict"
	"github.com/japaniel/pera/pkg/snapshot"
)

// Origin tells where a loaded dictionary came from.
type Origin string

const (
	OriginSnapshot Origin = "snapshot"
	OriginCorpus   Origin = "corpus"
	OriginEmpty    Origin = "empty"
)

// BuildRecords parses the corpus and the two auxiliary tables concurrently
// and normalizes them into records. A table that cannot be read is logged
// and treated as empty; a corpus failure is returned.
func BuildRecords(ctx context.Context, cfg config.DictionaryConfig, logger *slog.Logger) ([]dictionary.Record, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		entries         []jmdict.Entry
		levels, glosses map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if cfg.AutoDownload {
			dl := &jmdict.Downloader{Logger: logger}
			if err := dl.Ensure(gctx, cfg.CorpusPath, cfg.CorpusURL); err != nil {
				return fmt.Errorf("ensure corpus: %w", err)
			}
		}
		start := time.Now()
		var err error
		entries, err = jmdict.ParseFile(cfg.CorpusPath)
		if err != nil {
			return fmt.Errorf("parse corpus %s: %w", cfg.CorpusPath, err)
		}
		logger.InfoContext(gctx, "corpus parsed",
			slog.String("path", cfg.CorpusPath),
			slog.Int("entries", len(entries)),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	})
	g.Go(func() error {
		levels = loadTable(gctx, logger, "level", cfg.LevelTablePath)
		return nil
	})
	g.Go(func() error {
		glosses = loadTable(gctx, logger, "gloss", cfg.GlossTablePath)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dictionary.Normalize(entries, levels, glosses), nil
}

func loadTable(ctx context.Context, logger *slog.Logger, name, path string) map[string]string {
	if path == "" {
		return map[string]string{}
	}
	table, err := dictionary.LoadTable(path)
	if err != nil {
		logger.WarnContext(ctx, "auxiliary table unavailable, continuing without it",
			slog.String("table", name),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return map[string]string{}
	}
	return table
}

// LoadDictionary returns the dictionary for serving. It prefers the
// snapshot, falls back to rebuilding from the corpus (rewriting the snapshot
// when configured) and finally to an empty dictionary. It never fails.
func LoadDictionary(ctx context.Context, cfg config.DictionaryConfig, logger *slog.Logger) (*dictionary.Dictionary, Origin) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.SnapshotPath != "" {
		records, err := snapshot.ReadFile(cfg.SnapshotPath)
		var corrupt *snapshot.CorruptError
		switch {
		case err == nil:
			logger.InfoContext(ctx, "dictionary loaded from snapshot",
				slog.String("path", cfg.SnapshotPath),
				slog.Int("records", len(records)),
			)
			return dictionary.New(records), OriginSnapshot
		case errors.As(err, &corrupt):
			logger.WarnContext(ctx, "snapshot corrupt, rebuilding from corpus",
				slog.String("path", cfg.SnapshotPath),
				slog.String("stage", corrupt.Stage),
				slog.Any("error", err),
			)
		case errors.Is(err, fs.ErrNotExist):
			logger.InfoContext(ctx, "no snapshot, building from corpus", slog.String("path", cfg.SnapshotPath))
		default:
			logger.WarnContext(ctx, "snapshot unreadable, rebuilding from corpus",
				slog.String("path", cfg.SnapshotPath),
				slog.Any("error", err),
			)
		}
	}

	records, err := BuildRecords(ctx, cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "dictionary build failed, serving empty dictionary", slog.Any("error", err))
		return dictionary.Empty(), OriginEmpty
	}

	if cfg.WriteOnRebuild && cfg.SnapshotPath != "" {
		if err := snapshot.WriteFile(cfg.SnapshotPath, records); err != nil {
			logger.WarnContext(ctx, "snapshot write failed", slog.String("path", cfg.SnapshotPath), slog.Any("error", err))
		} else {
			logger.InfoContext(ctx, "snapshot written", slog.String("path", cfg.SnapshotPath), slog.Int("records", len(records)))
		}
	}
	return dictionary.New(records), OriginCorpus
}

// OpenStore opens the card store, creating its directory if needed.
func OpenStore(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	conn, err := db.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}
	return conn, nil
}
