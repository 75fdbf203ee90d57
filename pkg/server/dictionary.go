package server

import (
	"context"
	"net/http"
	"time"

	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/dictionary"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Records   int       `json:"records"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Version:   s.version,
		Records:   s.lookup.Dictionary().Len(),
		Database:  "ok",
		Timestamp: s.now(),
	}
	status := http.StatusOK
	if err := s.db.PingContext(ctx); err != nil {
		resp.Status = "down"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.lookup.Search(r.Context(), r.URL.Query().Get("q"), limit))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records := s.lookup.Dictionary().Records()
	if records == nil {
		records = []dictionary.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

type statsResponse struct {
	dictionary.Stats
	Cards int `json:"cards"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := db.CountCards(s.db)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: s.lookup.Dictionary().Stats(), Cards: n})
}
