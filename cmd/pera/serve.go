package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/japaniel/pera/pkg/app"
	"github.com/japaniel/pera/pkg/article"
	"github.com/japaniel/pera/pkg/config"
	"github.com/japaniel/pera/pkg/dictionary"
	"github.com/japaniel/pera/pkg/lookup"
	"github.com/japaniel/pera/pkg/server"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the dictionary and card APIs over HTTP",
	Action: func(c *cli.Context) error {
		e := envFrom(c)
		dict, origin := app.LoadDictionary(c.Context, e.cfg.Dictionary, e.logger)
		e.logger.InfoContext(c.Context, "dictionary ready",
			slog.String("origin", string(origin)),
			slog.Int("records", dict.Len()),
		)

		svc, err := newLookup(dict, e.cfg.Search, e.logger)
		if err != nil {
			return fmt.Errorf("%w: serve: %w", ErrPera, err)
		}
		conn, err := app.OpenStore(e.cfg.Database)
		if err != nil {
			return fmt.Errorf("%w: serve: %w", ErrPera, err)
		}
		defer conn.Close()

		srv := server.New(server.Deps{
			Lookup:  svc,
			DB:      conn,
			Config:  e.cfg,
			Logger:  e.logger,
			Version: app.BuildVersion(),
		})
		if err := srv.Run(c.Context); err != nil {
			return fmt.Errorf("%w: serve: %w", ErrPera, err)
		}
		return nil
	},
}

// newLookup builds the query service, with kagome lemma fallback unless it
// is disabled.
func newLookup(dict *dictionary.Dictionary, cfg config.SearchConfig, logger *slog.Logger) (*lookup.Service, error) {
	opts := lookup.Options{CacheSize: cfg.CacheSize, Logger: logger}
	if !cfg.DisableLemmaFallback {
		a, err := article.NewAnalyzer()
		if err != nil {
			return nil, fmt.Errorf("create analyzer: %w", err)
		}
		opts.Lemmas = a
	}
	return lookup.NewService(dict, opts)
}
