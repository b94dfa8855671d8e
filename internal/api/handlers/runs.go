package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/thesisrouter/internal/audit"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// RunStore reads the routing audit log
type RunStore interface {
	GetRun(ctx context.Context, runID string) (*audit.RunRecord, error)
	ListRuns(ctx context.Context, thesisID string, since time.Time, limit int) ([]*audit.RunRecord, error)
}

// RunSummarizer aggregates stored runs
type RunSummarizer interface {
	Analyze(ctx context.Context, period, thesisID string) (*audit.Summary, error)
}

// RunsHandler handles audit log endpoints
type RunsHandler struct {
	store    RunStore
	analyzer RunSummarizer
	logger   *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(store RunStore, analyzer RunSummarizer, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		store:    store,
		analyzer: analyzer,
		logger:   log,
	}
}

// GetRun returns one stored run
// GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, audit.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// ListRuns returns recent runs
// GET /api/runs?thesis_id=...&since=YYYY-MM-DD&limit=50
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	since := time.Now().AddDate(0, 0, -7)
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'since' date format (expected YYYY-MM-DD)")
			return
		}
		since = t
	}

	limit := 50
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit'")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), q.Get("thesis_id"), since, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	// 목록에서는 전체 결과 JSON 생략
	for _, rec := range runs {
		rec.Result = nil
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Summary aggregates runs over a period
// GET /api/runs/summary?period=1M&thesis_id=...
func (h *RunsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1M"
	}

	s, err := h.analyzer.Analyze(r.Context(), period, r.URL.Query().Get("thesis_id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to summarize runs")
		respondError(w, http.StatusInternalServerError, "Failed to summarize runs")
		return
	}

	respondJSON(w, http.StatusOK, s)
}
