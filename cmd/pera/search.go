package main

import (
	"fmt"
	"strings"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/japaniel/pera/pkg/app"
	"github.com/japaniel/pera/pkg/dictionary"
)

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "search the dictionary",
	ArgsUsage: "QUERY",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "print at most `N` results",
			Aliases: []string{"n"},
			Value:   10,
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return fmt.Errorf("%w: search: missing QUERY", ErrFlagParse)
		}
		if c.Int("limit") < 0 {
			return fmt.Errorf("%w: search: --limit must not be negative", ErrFlagParse)
		}
		query := strings.Join(c.Args().Slice(), " ")

		e := envFrom(c)
		dict, _ := app.LoadDictionary(c.Context, e.cfg.Dictionary, e.logger)
		svc, err := newLookup(dict, e.cfg.Search, e.logger)
		if err != nil {
			return fmt.Errorf("%w: search: %w", ErrPera, err)
		}

		results := svc.Search(c.Context, query, c.Int("limit"))
		if len(results) == 0 {
			fmt.Fprintf(c.App.Writer, "No results for %q\n", query)
			return nil
		}

		tbl := table.New("ID", "Kanji", "Reading", "Level", "Meaning").WithWriter(c.App.Writer)
		for _, r := range results {
			tbl.AddRow(r.ID, r.Kanji, r.Reading, r.Level, firstGloss(r))
		}
		tbl.Print()
		return nil
	},
}

func firstGloss(r dictionary.Record) string {
	if len(r.Meanings) == 0 {
		return ""
	}
	return r.Meanings[0].Gloss
}
