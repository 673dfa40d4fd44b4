package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/reports"
	"scorekeeper-backend/internal/scorekeeper"
)

type Handler struct {
	// mu serialises engine and history calls; the engine itself is
	// single-threaded and history writes are read-modify-write.
	mu      sync.Mutex
	engine  *scorekeeper.Engine
	history *scorekeeper.History
	reports *reports.Service

	defaultTarget func(models.GameType) int
}

func New(engine *scorekeeper.Engine, history *scorekeeper.History, rs *reports.Service, defaultTarget func(models.GameType) int) *Handler {
	if defaultTarget == nil {
		defaultTarget = func(models.GameType) int { return models.LegacyDefaultTarget }
	}
	return &Handler{
		engine:        engine,
		history:       history,
		reports:       rs,
		defaultTarget: defaultTarget,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /api/matches", h.CreateMatch)
	mux.HandleFunc("GET /api/matches/current", h.GetCurrentMatch)
	mux.HandleFunc("DELETE /api/matches/current", h.CancelMatch)
	mux.HandleFunc("POST /api/matches/current/turns", h.EndTurn)
	mux.HandleFunc("POST /api/matches/current/games", h.MarkGameOver)
	mux.HandleFunc("PUT /api/matches/current/balls/{ball}", h.SetBallState)
	mux.HandleFunc("POST /api/matches/current/end", h.EndMatch)

	mux.HandleFunc("GET /api/matches/recent", h.ListRecentMatches)
	mux.HandleFunc("DELETE /api/matches/recent", h.ClearRecentMatches)
	mux.HandleFunc("GET /api/matches/recent/{id}/quickstart", h.QuickStart)

	mux.HandleFunc("GET /api/stats/categories", h.ListCategories)
	mux.HandleFunc("GET /api/stats/categories/{category}/next", h.NextSortMode)
	mux.HandleFunc("POST /api/stats/sort", h.SortStats)

	mux.HandleFunc("GET /api/reports/{memberId}", h.GetReport)
	mux.HandleFunc("GET /api/reports/{memberId}/{category}", h.GetReportCard)
	mux.HandleFunc("DELETE /api/reports/{memberId}/cache", h.ClearPlayerReports)
	mux.HandleFunc("DELETE /api/reports/cache", h.ClearAllReports)
	mux.HandleFunc("GET /api/wrapped/{memberId}/{year}", h.GetWrapped)

	mux.HandleFunc("GET /api/roster", h.GetRoster)
	mux.HandleFunc("PUT /api/roster/players", h.SetRosterPlayers)
	mux.HandleFunc("PUT /api/roster/selected", h.SelectRosterPlayer)
	mux.HandleFunc("DELETE /api/roster", h.ClearStatsData)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scorekeeper.ErrInvalidSetup),
		errors.Is(err, scorekeeper.ErrInvalidBall),
		errors.Is(err, scorekeeper.ErrUnknownPlayer),
		errors.Is(err, reports.ErrMemberRequired),
		errors.Is(err, reports.ErrInvalidMember),
		errors.Is(err, reports.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, scorekeeper.ErrNoActiveMatch):
		return http.StatusNotFound
	case errors.Is(err, scorekeeper.ErrMatchStarted),
		errors.Is(err, scorekeeper.ErrMatchOver):
		return http.StatusConflict
	case errors.Is(err, scorekeeper.ErrNineBallDead),
		errors.Is(err, scorekeeper.ErrWrongGameType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reports.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, reports.ErrUpstream),
		errors.Is(err, reports.ErrNoData):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
