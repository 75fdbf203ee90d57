package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/japaniel/pera/pkg/db"
	"github.com/japaniel/pera/pkg/srs"
)

type addCardRequest struct {
	RecordID     string `json:"ent_seq"`
	MeaningIndex int    `json:"meaningIndex"`
}

type addCardResponse struct {
	Card    db.Card `json:"card"`
	Created bool    `json:"created"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req addCardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := s.lookup.Dictionary().Get(req.RecordID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record "+strconv.Quote(req.RecordID))
		return
	}
	if req.MeaningIndex < 0 || (len(rec.Meanings) > 0 && req.MeaningIndex >= len(rec.Meanings)) {
		writeError(w, http.StatusBadRequest, "meaningIndex out of range")
		return
	}

	id, created, err := db.CreateOrGetCard(s.db, db.CardFromRecord(rec, req.MeaningIndex), s.cfg.SRS.DefaultEaseFactor, s.now())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	card, err := db.GetCard(s.db, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, addCardResponse{Card: card, Created: created})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := db.ListCards(s.db)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(cards))
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", s.cfg.SRS.DueLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var all bool
	if raw := r.URL.Query().Get("all"); raw != "" {
		if all, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "all must be a boolean")
			return
		}
	}
	cards, err := db.DueCards(s.db, db.DueQuery{
		Now:   s.now(),
		Limit: limit,
		Level: r.URL.Query().Get("level"),
		All:   all,
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(cards))
}

type reviewRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rating, err := srs.ParseRating(req.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := db.GetCard(s.db, id)
	if errors.Is(err, db.ErrCardNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	} else if err != nil {
		s.internalError(w, r, err)
		return
	}

	res, err := srs.Next(srs.State{Stage: card.Stage, IntervalDays: card.IntervalDays, Ease: card.Ease}, rating, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = db.UpdateCardSchedule(s.db, id, db.Schedule{
		Stage:        res.Stage,
		IntervalDays: res.IntervalDays,
		Ease:         res.Ease,
		NextReview:   res.NextReview,
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = db.DeleteCard(s.db, id)
	if errors.Is(err, db.ErrCardNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	} else if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllCards(w http.ResponseWriter, r *http.Request) {
	n, err := db.DeleteAllCards(s.db)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleSeedCards(w http.ResponseWriter, r *http.Request) {
	res, err := s.seeder.Seed(r.Context(), s.lookup.Dictionary().Records(), r.URL.Query().Get("level"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func orEmpty(cards []db.Card) []db.Card {
	if cards == nil {
		return []db.Card{}
	}
	return cards
}
