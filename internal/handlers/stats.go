package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/reports"
	"scorekeeper-backend/internal/stats"
)

type categoryResponse struct {
	Category stats.Category `json:"category"`
	Options  []stats.Option `json:"options"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var out []categoryResponse
	for _, c := range stats.Categories() {
		out = append(out, categoryResponse{Category: c, Options: c.Options()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) NextSortMode(w http.ResponseWriter, r *http.Request) {
	c, err := stats.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	next := c.Next(stats.SortMode(r.URL.Query().Get("mode")))
	writeJSON(w, http.StatusOK, stats.Option{Mode: next, Label: c.Label(next)})
}

type SortStatsRequest struct {
	Category string                    `json:"category"`
	Mode     stats.SortMode            `json:"mode"`
	Buckets  map[string]models.WinLoss `json:"buckets"`
}

// SortStats sorts caller-supplied buckets. With a category the response
// is a full card; without one it is the sorted entries.
func (h *Handler) SortStats(w http.ResponseWriter, r *http.Request) {
	var req SortStatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusOK, stats.Sort(req.Buckets, req.Mode))
		return
	}
	c, err := stats.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c.Card(req.Buckets, req.Mode))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Report(r.Context(), r.PathValue("memberId"), r.URL.Query().Get("season"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) GetReportCard(w http.ResponseWriter, r *http.Request) {
	c, err := stats.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	q := r.URL.Query()
	report, err := h.reports.Report(r.Context(), r.PathValue("memberId"), q.Get("season"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Present(report, c, stats.SortMode(q.Get("sort"))))
}

func (h *Handler) ClearPlayerReports(w http.ResponseWriter, r *http.Request) {
	n, err := h.reports.ClearPlayer(r.Context(), r.PathValue("memberId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *Handler) ClearAllReports(w http.ResponseWriter, r *http.Request) {
	n, err := h.reports.ClearAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *Handler) GetWrapped(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	slides, err := h.reports.Wrapped(r.Context(), r.PathValue("memberId"), year)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slides": slides})
}

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reports.Roster().Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) SetRosterPlayers(w http.ResponseWriter, r *http.Request) {
	var players []reports.TrackedPlayer
	if err := json.NewDecoder(r.Body).Decode(&players); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, p := range players {
		if strings.TrimSpace(p.MemberID) == "" {
			writeError(w, http.StatusBadRequest, reports.ErrMemberRequired.Error())
			return
		}
	}

	roster := h.reports.Roster()
	if err := roster.SetPlayers(r.Context(), players); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.GetRoster(w, r)
}

type SelectPlayerRequest struct {
	Index int `json:"index"`
}

func (h *Handler) SelectRosterPlayer(w http.ResponseWriter, r *http.Request) {
	var req SelectPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.reports.Roster().Select(r.Context(), req.Index); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.GetRoster(w, r)
}

// ClearStatsData forgets the tracked players along with every cached report.
func (h *Handler) ClearStatsData(w http.ResponseWriter, r *http.Request) {
	n, err := h.reports.ClearStatsData(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
