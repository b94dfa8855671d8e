package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Router is the routing engine as seen by the HTTP layer
type Router interface {
	Route(ctx context.Context, req contracts.RouteRequest) (*contracts.RouteResult, error)
	Profile(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, *contracts.ReturnProfile, error)
	Platforms() []string
}

// Searcher discovers candidate instruments from free text
type Searcher interface {
	Candidates(ctx context.Context, query string, side contracts.Direction, limit int) ([]contracts.CandidateInstrument, error)
}

// RouteHandler handles routing endpoints
// ⭐ SSOT: 라우팅 API 핸들러는 이 구조체에서만
type RouteHandler struct {
	router   Router
	searcher Searcher
	logger   *logger.Logger
}

// NewRouteHandler creates a new route handler; searcher may be nil
func NewRouteHandler(router Router, searcher Searcher, log *logger.Logger) *RouteHandler {
	return &RouteHandler{
		router:   router,
		searcher: searcher,
		logger:   log,
	}
}

// Route runs one routing pass
// POST /api/route
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	var req contracts.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.router.Route(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).WithField("thesis_id", req.Thesis.ID).Warn("Route request failed")
		respondTaxonomyError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// QuoteResponse pairs the raw venue quote with its normalized profile
type QuoteResponse struct {
	Quote   *contracts.RawQuote      `json:"quote"`
	Profile *contracts.ReturnProfile `json:"profile"`
}

// Quote normalizes a single instrument without scoring it
// POST /api/quote
func (h *RouteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var inst contracts.CandidateInstrument
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := inst.Validate(); err != nil {
		respondTaxonomyError(w, err)
		return
	}

	quote, profile, err := h.router.Profile(r.Context(), inst)
	if err != nil {
		respondTaxonomyError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, QuoteResponse{Quote: quote, Profile: profile})
}

// Search finds prediction-market candidates for free text
// GET /api/search?q=...&side=long&limit=10
func (h *RouteHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		respondError(w, http.StatusServiceUnavailable, "Search is not configured")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "Missing 'q' parameter")
		return
	}

	side := contracts.Direction(strings.ToLower(r.URL.Query().Get("side")))
	if side == "" {
		side = contracts.DirectionLong
	}
	if !side.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid 'side' (expected long or short)")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 50 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (1-50)")
			return
		}
		limit = n
	}

	cands, err := h.searcher.Candidates(r.Context(), q, side, limit)
	if err != nil {
		respondTaxonomyError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":      q,
		"candidates": cands,
	})
}

// Platforms lists the venues with a registered adapter
// GET /api/platforms
func (h *RouteHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"platforms": h.router.Platforms(),
	})
}
