package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/japaniel/pera/pkg/app"
	"github.com/japaniel/pera/pkg/db"
)

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "print dictionary and card store statistics",
	Action: func(c *cli.Context) error {
		e := envFrom(c)
		dict, origin := app.LoadDictionary(c.Context, e.cfg.Dictionary, e.logger)

		conn, err := app.OpenStore(e.cfg.Database)
		if err != nil {
			return fmt.Errorf("%w: stats: %w", ErrPera, err)
		}
		defer conn.Close()
		cards, err := db.CountCards(conn)
		if err != nil {
			return fmt.Errorf("%w: stats: %w", ErrPera, err)
		}

		fmt.Fprintf(c.App.Writer, "Dictionary: %d records (%s)\n", dict.Len(), origin)
		fmt.Fprintf(c.App.Writer, "Cards: %d\n", cards)
		printLevels(c, dict.Stats())
		return nil
	},
}
