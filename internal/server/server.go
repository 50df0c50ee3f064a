// Package server exposes the tracker to the presentation layer as a small
// JSON API. The chat-bot frontend calls these routes; all formatting and
// interactive components live on its side of the boundary.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"arena-tracker/internal/domain"
	"arena-tracker/internal/riot"
	"arena-tracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Server struct {
	tracker *service.Tracker
	logger  zerolog.Logger
}

func New(tracker *service.Tracker, logger zerolog.Logger) *Server {
	return &Server{tracker: tracker, logger: logger}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/players/{playerID}", func(r chi.Router) {
		r.Post("/link", s.handleLink)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/wins", s.handleWins)
		r.Post("/wins", s.handleManualAdd)
		r.Delete("/wins/{champion}", s.handleManualRemove)
		r.Get("/stats", s.handleStats)
		r.Get("/pool", s.handlePool)
	})
	r.Get("/leaderboard", s.handleLeaderboard)

	return r
}

type linkRequest struct {
	DisplayName string `json:"display_name"`
	RiotName    string `json:"riot_name"`
	RiotTag     string `json:"riot_tag"`
}

type syncSummaryResponse struct {
	PlayerID   string   `json:"player_id"`
	NewRecords int      `json:"new_records"`
	Processed  int      `json:"processed"`
	Skipped    []string `json:"skipped,omitempty"`
	Watermark  int64    `json:"watermark"`
	Partial    bool     `json:"partial,omitempty"`
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.RiotName == "" || req.RiotTag == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("riot_name and riot_tag are required"))
		return
	}

	summary, err := s.tracker.LinkAccount(r.Context(), chi.URLParam(r, "playerID"), req.DisplayName, req.RiotName, req.RiotTag)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	summary, err := s.tracker.Refresh(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

type winResponse struct {
	MatchID          string `json:"match_id"`
	Champion         string `json:"champion"`
	Placement        int    `json:"placement"`
	TeammateName     string `json:"teammate_name,omitempty"`
	TeammateChampion string `json:"teammate_champion,omitempty"`
	CreatedAt        int64  `json:"created_at"`
}

func (s *Server) handleWins(w http.ResponseWriter, r *http.Request) {
	wins, err := s.tracker.Wins(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]winResponse, len(wins))
	for i, rec := range wins {
		out[i] = toWinResponse(rec)
	}
	s.writeJSON(w, http.StatusOK, out)
}

type manualAddRequest struct {
	DisplayName string `json:"display_name"`
	Champion    string `json:"champion"`
}

func (s *Server) handleManualAdd(w http.ResponseWriter, r *http.Request) {
	var req manualAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Champion == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("champion is required"))
		return
	}

	rec, err := s.tracker.ManualAdd(r.Context(), chi.URLParam(r, "playerID"), req.DisplayName, req.Champion)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toWinResponse(*rec))
}

func (s *Server) handleManualRemove(w http.ResponseWriter, r *http.Request) {
	removed, err := s.tracker.ManualRemove(r.Context(), chi.URLParam(r, "playerID"), chi.URLParam(r, "champion"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.Stats(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.tracker.AvailablePool(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"champions": pool, "count": len(pool)})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.tracker.Leaderboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, board)
}

func toSummaryResponse(summary *service.SyncSummary) syncSummaryResponse {
	return syncSummaryResponse{
		PlayerID:   summary.PlayerID,
		NewRecords: summary.NewRecords,
		Processed:  summary.Processed,
		Skipped:    summary.Skipped,
		Watermark:  summary.Watermark,
		Partial:    summary.Partial,
	}
}

func toWinResponse(rec domain.MatchRecord) winResponse {
	return winResponse{
		MatchID:          rec.MatchID,
		Champion:         rec.Champion,
		Placement:        rec.Placement,
		TeammateName:     rec.TeammateName,
		TeammateChampion: rec.TeammateChampion,
		CreatedAt:        rec.CreatedAt,
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		s.writeError(w, r, http.StatusConflict, err)
	case errors.Is(err, service.ErrUnknownPlayer), errors.Is(err, riot.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, service.ErrNotLinked):
		s.writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, riot.ErrAuth):
		s.writeError(w, r, http.StatusBadGateway, err)
	case errors.Is(err, riot.ErrUnavailable):
		s.writeError(w, r, http.StatusBadGateway, err)
	default:
		s.writeError(w, r, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
