package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/deathroll-go/internal/engine"
	"github.com/MJE43/deathroll-go/internal/games"
	"github.com/MJE43/deathroll-go/internal/odds"
	"github.com/MJE43/deathroll-go/internal/session"
	"github.com/MJE43/deathroll-go/internal/store"
)

// GET /api/v1/games
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GamesResponse{
		Games:         games.ListGames(),
		Rules:         games.Rules,
		EngineVersion: EngineVersion,
	})
}

// POST /api/v1/game
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	// An empty body or a missing wager uses the session default.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorHandler.HandleValidationError(w, r, ErrTypeValidation, "body", "invalid JSON")
		return
	}

	snap := s.session.Start(req.Wager)
	s.writeJSON(w, http.StatusCreated, GameResponse{Game: snap, EngineVersion: EngineVersion})
}

// GET /api/v1/game
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot()
	if err != nil {
		s.handleSessionError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, GameResponse{Game: snap, EngineVersion: EngineVersion})
}

// POST /api/v1/game/roll
func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	entry, snap, err := s.session.Roll(r.Context())
	if err != nil {
		s.handleSessionError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RollResponse{
		Entry:         entry,
		Message:       entry.String(),
		Game:          snap,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoGame):
		s.errorHandler.HandleGameError(w, r, ErrTypeGameNotFound, http.StatusNotFound, err)
	case errors.Is(err, games.ErrInvalidOperation):
		s.errorHandler.HandleGameError(w, r, ErrTypeInvalidOperation, http.StatusConflict, err)
	default:
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
	}
}

// GET /api/v1/odds?wager=N
func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	wager := games.MinCalculatorWager
	if raw := r.URL.Query().Get("wager"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, ErrTypeInvalidWager, "wager", "wager must be an integer")
			return
		}
		wager = games.ClampWager(v, games.MinCalculatorWager)
	}

	p := odds.LoseProbability(wager)
	s.writeJSON(w, http.StatusOK, OddsResponse{
		Wager:           wager,
		LoseProbability: p,
		WinProbability:  1 - p,
		LosePercent:     odds.FormatPercent(p),
		EngineVersion:   EngineVersion,
	})
}

// GET /api/v1/odds/table
func (s *Server) handleOddsTable(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, OddsTableResponse{
		Rows:          odds.Table(odds.DefaultWagers),
		EngineVersion: EngineVersion,
	})
}

// GET /api/v1/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{ByWager: []WagerStats{}, EngineVersion: EngineVersion}
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx := r.Context()
	overall, err := s.db.Summary(ctx, 0)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	resp.Overall = *overall

	wagers, err := s.db.Wagers(ctx)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	for _, wager := range wagers {
		sum, err := s.db.Summary(ctx, wager)
		if err != nil {
			s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
			return
		}
		resp.ByWager = append(resp.ByWager, wagerStats(*sum))
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func wagerStats(sum store.Summary) WagerStats {
	predicted := odds.LoseProbability(sum.Wager)
	return WagerStats{
		Summary:           sum,
		ObservedLossRate:  sum.PlayerOneLossRate(),
		PredictedLossRate: predicted,
		PredictedPercent:  odds.FormatPercent(predicted),
	}
}

// GET /api/v1/history?page=N&per_page=N&wager=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := store.GamesQuery{}
	for _, p := range []struct {
		name   string
		target *int
	}{
		{"page", &query.Page},
		{"per_page", &query.PerPage},
		{"wager", &query.Wager},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			s.errorHandler.HandleValidationError(w, r, ErrTypeValidation, p.name, p.name+" must be a non-negative integer")
			return
		}
		*p.target = v
	}

	if s.db == nil {
		s.writeJSON(w, http.StatusOK, HistoryResponse{
			GamesList:     store.GamesList{Games: []store.GameRecord{}, Page: 1},
			EngineVersion: EngineVersion,
		})
		return
	}

	list, err := s.db.ListGames(r.Context(), query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{GamesList: *list, EngineVersion: EngineVersion})
}

// GET /api/v1/history/{id}
func (s *Server) handleHistoryGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.db == nil {
		s.errorHandler.HandleGameError(w, r, ErrTypeGameNotFound, http.StatusNotFound, store.ErrNotFound)
		return
	}

	rec, err := s.db.GetGame(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.errorHandler.HandleGameError(w, r, ErrTypeGameNotFound, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryGameResponse{Game: *rec, EngineVersion: EngineVersion})
}

// GET /api/v1/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

// POST /api/v1/seed/hash
func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, ErrTypeValidation, "body", "invalid JSON")
		return
	}
	if req.ServerSeed == "" {
		s.errorHandler.HandleValidationError(w, r, ErrTypeValidation, "server_seed", "server_seed is required")
		return
	}

	s.writeJSON(w, http.StatusOK, SeedHashResponse{
		Hash:          engine.HashServerSeed(req.ServerSeed),
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}
