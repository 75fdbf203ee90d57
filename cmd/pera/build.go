package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/japaniel/pera/pkg/app"
	"github.com/japaniel/pera/pkg/dictionary"
	"github.com/japaniel/pera/pkg/snapshot"
)

var buildCommand = &cli.Command{
	Name:  "build",
	Usage: "parse the corpus and write the dictionary snapshot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Usage:   "write the snapshot to `FILE` instead of the configured path",
			Aliases: []string{"o"},
		},
	},
	Action: func(c *cli.Context) error {
		e := envFrom(c)
		out := c.String("out")
		if out == "" {
			out = e.cfg.Dictionary.SnapshotPath
		}

		records, err := app.BuildRecords(c.Context, e.cfg.Dictionary, e.logger)
		if err != nil {
			return fmt.Errorf("%w: build: %w", ErrPera, err)
		}
		if err := snapshot.WriteFile(out, records); err != nil {
			return fmt.Errorf("%w: build: %w", ErrPera, err)
		}
		fi, err := os.Stat(out)
		if err != nil {
			return fmt.Errorf("%w: build: %w", ErrPera, err)
		}
		e.logger.InfoContext(c.Context, "snapshot written",
			slog.String("path", out),
			slog.Int("records", len(records)),
			slog.Int64("bytes", fi.Size()),
		)

		w := c.App.Writer
		fmt.Fprintf(w, "Wrote %d records to %s (%.1f MB)\n", len(records), out, float64(fi.Size())/(1<<20))
		printLevels(c, dictionary.New(records).Stats())
		return nil
	},
}

func printLevels(c *cli.Context, s dictionary.Stats) {
	tbl := table.New("Level", "Records").WithWriter(c.App.Writer)
	for _, level := range dictionary.Levels {
		tbl.AddRow(level, s.Levels[level])
	}
	tbl.AddRow("none", s.NoLevel)
	tbl.AddRow("total", s.Total)
	tbl.Print()
}
