package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/scorekeeper"
)

type CreateMatchRequest struct {
	GameType      string `json:"gameType"`
	Player1Name   string `json:"player1Name"`
	Player2Name   string `json:"player2Name"`
	Player1Target int    `json:"player1Target"`
	Player2Target int    `json:"player2Target"`
	FirstBreaker  int    `json:"firstBreaker"`
}

// setup fills omitted targets from the configured defaults. A missing
// breaker means player 1 breaks.
func (req CreateMatchRequest) setup(defaultTarget func(models.GameType) int) (scorekeeper.Setup, error) {
	gt, err := models.ParseGameType(req.GameType)
	if err != nil {
		return scorekeeper.Setup{}, fmt.Errorf("%w: %v", scorekeeper.ErrInvalidSetup, err)
	}
	s := scorekeeper.Setup{
		GameType:      gt,
		Player1Name:   req.Player1Name,
		Player2Name:   req.Player2Name,
		Player1Target: req.Player1Target,
		Player2Target: req.Player2Target,
		FirstBreaker:  req.FirstBreaker,
	}
	if s.Player1Target == 0 {
		s.Player1Target = defaultTarget(gt)
	}
	if s.Player2Target == 0 {
		s.Player2Target = defaultTarget(gt)
	}
	if s.FirstBreaker == 0 {
		s.FirstBreaker = 1
	}
	return s, nil
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	setup, err := req.setup(h.defaultTarget)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.mu.Lock()
	res, err := h.engine.CreateMatch(setup)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetCurrentMatch(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res := h.engine.Snapshot()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) EndTurn(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res, err := h.engine.EndTurn(r.Context())
	h.mu.Unlock()
	h.respond(w, r, res, err)
}

type MarkGameOverRequest struct {
	WinnerID string `json:"winnerId"`
}

func (h *Handler) MarkGameOver(w http.ResponseWriter, r *http.Request) {
	var req MarkGameOverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WinnerID == "" {
		writeError(w, http.StatusBadRequest, "winnerId is required")
		return
	}

	h.mu.Lock()
	res, err := h.engine.MarkGameOver(r.Context(), req.WinnerID)
	h.mu.Unlock()
	h.respond(w, r, res, err)
}

// SetBallState taps ball number {ball}, counted 1-9 as printed on the
// balls.
func (h *Handler) SetBallState(w http.ResponseWriter, r *http.Request) {
	ball, err := strconv.Atoi(r.PathValue("ball"))
	if err != nil || ball < 1 || ball > models.NineBallCount {
		writeError(w, http.StatusBadRequest, "ball must be a number from 1 to 9")
		return
	}

	h.mu.Lock()
	res, err := h.engine.SetBallState(ball - 1)
	h.mu.Unlock()
	h.respond(w, r, res, err)
}

func (h *Handler) EndMatch(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res, err := h.engine.EndMatch(r.Context())
	h.mu.Unlock()
	h.respond(w, r, res, err)
}

func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	res, err := h.engine.CancelMatch()
	h.mu.Unlock()
	h.respond(w, r, res, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res scorekeeper.Result, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListRecentMatches(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	records, err := h.history.Recent(r.Context())
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) ClearRecentMatches(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	err := h.history.Clear(r.Context())
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type QuickStartResponse struct {
	GameType    models.GameType `json:"gameType"`
	Player1Name string          `json:"player1Name"`
	Player2Name string          `json:"player2Name"`
}

func (h *Handler) QuickStart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mu.Lock()
	rec, ok, err := h.history.Find(r.Context(), id)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("match %s not found", id))
		return
	}

	p1, p2, gt := scorekeeper.QuickStart(rec)
	writeJSON(w, http.StatusOK, QuickStartResponse{GameType: gt, Player1Name: p1, Player2Name: p2})
}
