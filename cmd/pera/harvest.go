package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/japaniel/pera/pkg/app"
	"github.com/japaniel/pera/pkg/article"
	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/ingest"
)

var harvestCommand = &cli.Command{
	Name:  "harvest",
	Usage: "add the vocabulary of a Japanese article to the card store",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "url",
			Usage: "fetch the article from `URL`",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "read the article from the HTML file `FILE`",
		},
	},
	Action: func(c *cli.Context) error {
		rawURL, file := c.String("url"), c.String("file")
		if (rawURL == "") == (file == "") {
			return fmt.Errorf("%w: harvest: exactly one of --url or --file is required", ErrFlagParse)
		}
		e := envFrom(c)
		w := c.App.Writer

		var (
			a          article.Article
			sourceType string
			err        error
		)
		if rawURL != "" {
			f := article.NewFetcher(e.logger)
			a, err = f.Fetch(c.Context, rawURL)
			sourceType = "website_article"
		} else {
			a, err = readArticleFile(file)
			sourceType = "local_file"
		}
		if err != nil {
			return fmt.Errorf("%w: harvest: %w", ErrPera, err)
		}
		fmt.Fprintf(w, "Title: %s\n", a.Title)
		fmt.Fprintf(w, "Extracted Text Length: %d chars\n", len([]rune(a.Text)))

		dict, _ := app.LoadDictionary(c.Context, e.cfg.Dictionary, e.logger)
		conn, err := app.OpenStore(e.cfg.Database)
		if err != nil {
			return fmt.Errorf("%w: harvest: %w", ErrPera, err)
		}
		defer conn.Close()

		sourceID, err := db.CreateOrGetSource(conn, sourceType, a.Title, a.Byline, a.SiteName, a.URL, "")
		if err != nil {
			return fmt.Errorf("%w: harvest: persist source: %w", ErrPera, err)
		}
		fmt.Fprintf(w, "Source saved with ID: %d\n", sourceID)

		analyzer, err := article.NewAnalyzer()
		if err != nil {
			return fmt.Errorf("%w: harvest: %w", ErrPera, err)
		}
		sentences, err := analyzer.AnalyzeDocument(a.Text)
		if err != nil {
			return fmt.Errorf("%w: harvest: analyze: %w", ErrPera, err)
		}
		fmt.Fprintf(w, "Analyzed %d sentences.\n", len(sentences))

		ig := ingest.NewIngester(conn, dict)
		ig.Workers = e.cfg.Ingest.Workers
		ig.BatchSize = e.cfg.Ingest.BatchSize
		ig.Ease = e.cfg.SRS.DefaultEaseFactor
		ig.Logger = e.logger
		ig.OnProgress = func(current, total int) {
			e.logger.DebugContext(c.Context, "harvest progress", slog.Int("current", current), slog.Int("total", total))
		}
		links, err := ig.Ingest(c.Context, sourceID, sentences)
		if err != nil {
			return fmt.Errorf("%w: harvest: %w", ErrPera, err)
		}

		cards, err := db.CountCards(conn)
		if err != nil {
			return fmt.Errorf("%w: harvest: %w", ErrPera, err)
		}
		fmt.Fprintf(w, "Processing complete. Linked %d word occurrences, %d cards in store.\n", links, cards)
		return nil
	},
}

func readArticleFile(path string) (article.Article, error) {
	html, err := os.ReadFile(path)
	if err != nil {
		return article.Article{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return article.Article{}, err
	}
	return article.Extract(html, &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
}
