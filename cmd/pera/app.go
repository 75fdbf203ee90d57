package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/japaniel/pera/pkg/app"
	"github.com/japaniel/pera/pkg/config"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeConfigError is the exit code for an invalid configuration.
	ExitCodeConfigError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrPera is a parent error for all command errors.
var ErrPera = errors.New("pera")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrPera)

// ErrConfig is a configuration error.
var ErrConfig = fmt.Errorf("%w: configuration", ErrPera)

// env is what every subcommand needs after startup.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

type envKey struct{}

func newPeraApp() *cli.App {
	return &cli.App{
		Name:    filepath.Base(os.Args[0]),
		Usage:   "Japanese dictionary search and vocabulary cards.",
		Version: app.BuildVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read configuration from `FILE`",
				Aliases: []string{"c"},
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadFile(c.String("config"))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrConfig, err)
			}
			c.Context = context.WithValue(c.Context, envKey{}, &env{cfg: cfg, logger: app.NewLogger(cfg.Log)})
			return nil
		},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return fmt.Errorf("%w: %w", ErrFlagParse, err)
		},
		HideHelpCommand: true,
		Commands: []*cli.Command{
			buildCommand,
			serveCommand,
			searchCommand,
			harvestCommand,
			statsCommand,
		},
	}
}

func envFrom(c *cli.Context) *env {
	e, _ := c.Context.Value(envKey{}).(*env)
	return e
}
