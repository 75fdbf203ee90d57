// Package server exposes dictionary search, export, stats and the card
// store over HTTP.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/japaniel/pera/pkg/config"
	"github.com/japaniel/pera/pkg/ingest"
	"github.com/japaniel/pera/pkg/lookup"
	"github.com/japaniel/pera/pkg/server/middleware"
)

// Deps are the collaborators of a Server.
type Deps struct {
	Lookup  *lookup.Service
	DB      *sql.DB
	Config  *config.Config
	Logger  *slog.Logger
	Version string
	// Now is the review clock. nil means time.Now.
	Now func() time.Time
}

// Server routes HTTP requests to the dictionary and the card store.
type Server struct {
	lookup  *lookup.Service
	db      *sql.DB
	seeder  *ingest.Seeder
	cfg     *config.Config
	logger  *slog.Logger
	version string
	now     func() time.Time
	handler http.Handler
}

// New builds a Server and its route table.
func New(d Deps) *Server {
	s := &Server{
		lookup:  d.Lookup,
		db:      d.DB,
		cfg:     d.Config,
		logger:  d.Logger,
		version: d.Version,
		now:     d.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.seeder = ingest.NewSeeder(d.DB)
	s.seeder.Ease = s.cfg.SRS.DefaultEaseFactor
	s.seeder.Logger = s.logger
	s.seeder.Now = s.now

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/dictionary/search", s.handleSearch)
	mux.HandleFunc("GET /api/dictionary/seed", s.handleExport)
	mux.HandleFunc("GET /api/debug/stats", s.handleStats)

	mux.HandleFunc("POST /api/cards", s.handleAddCard)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("DELETE /api/cards", s.handleDeleteAllCards)
	mux.HandleFunc("GET /api/cards/due", s.handleDueCards)
	mux.HandleFunc("POST /api/cards/seed", s.handleSeedCards)
	mux.HandleFunc("POST /api/cards/{id}/review", s.handleReview)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	s.handler = middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger),
		middleware.CORS(s.cfg.CORS),
	)(mux)
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	sc := s.cfg.Server
	srv := &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.handler,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", srv.Addr), slog.String("version", s.version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", slog.Duration("timeout", sc.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
