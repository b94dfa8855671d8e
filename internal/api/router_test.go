package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/api/handlers"
	"github.com/wonny/thesisrouter/internal/audit"
	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

type fakeRouter struct {
	lastReq contracts.RouteRequest
	err     error
	panics  bool
}

func (f *fakeRouter) Route(_ context.Context, req contracts.RouteRequest) (*contracts.RouteResult, error) {
	if f.panics {
		panic("boom")
	}
	f.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.RouteResult{RunID: "run-1", ThesisID: req.Thesis.ID, Reason: contracts.ReasonNoCandidates}, nil
}

func (f *fakeRouter) Profile(_ context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, *contracts.ReturnProfile, error) {
	if inst.Ticker == "MISSING" {
		return nil, nil, fmt.Errorf("kalshi %s: %w", inst.Ticker, contracts.ErrNotFound)
	}
	return &contracts.RawQuote{Platform: inst.Platform, Ticker: inst.Ticker, Price: 0.4},
		&contracts.ReturnProfile{Platform: inst.Platform, Ticker: inst.Ticker, ReturnIfRightPct: 150, ReturnIfWrongPct: -100}, nil
}

func (f *fakeRouter) Platforms() []string {
	return []string{"hyperliquid", "kalshi"}
}

type fakeSearcher struct{}

func (fakeSearcher) Candidates(_ context.Context, query string, side contracts.Direction, limit int) ([]contracts.CandidateInstrument, error) {
	kind := contracts.KindBinaryYes
	if side == contracts.DirectionShort {
		kind = contracts.KindBinaryNo
	}
	return []contracts.CandidateInstrument{{Platform: "polymarket", Ticker: "fed-cut", Kind: kind}}, nil
}

type fakeRuns struct{}

func (fakeRuns) GetRun(_ context.Context, id string) (*audit.RunRecord, error) {
	if id != "run-1" {
		return nil, audit.ErrRunNotFound
	}
	return &audit.RunRecord{RunID: "run-1", ThesisID: "fed"}, nil
}

func (fakeRuns) ListRuns(_ context.Context, thesisID string, _ time.Time, limit int) ([]*audit.RunRecord, error) {
	return []*audit.RunRecord{{RunID: "run-1", ThesisID: thesisID, Result: &contracts.RouteResult{}}}, nil
}

func (fakeRuns) Analyze(_ context.Context, period, _ string) (*audit.Summary, error) {
	return &audit.Summary{Period: period, Runs: 3}, nil
}

func newTestRouter(fr *fakeRouter, withRuns bool) http.Handler {
	log := logger.NewNop()
	h := Handlers{Route: handlers.NewRouteHandler(fr, fakeSearcher{}, log)}
	if withRuns {
		h.Runs = handlers.NewRunsHandler(fakeRuns{}, fakeRuns{}, log)
	}
	return NewRouter(h, log)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&fakeRouter{}, false), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRoute(t *testing.T) {
	fr := &fakeRouter{}
	h := newTestRouter(fr, false)

	req := contracts.RouteRequest{
		Thesis: contracts.Thesis{ID: "fed", Claim: "Fed cuts in March", Direction: contracts.DirectionLong},
		Candidates: []contracts.CandidateInstrument{
			{Platform: "kalshi", Ticker: "KXFED", Kind: contracts.KindBinaryYes},
		},
	}
	rec := do(t, h, "POST", "/api/route", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res contracts.RouteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "run-1", res.RunID)
	assert.Nil(t, res.Winner)
	assert.Equal(t, contracts.ReasonNoCandidates, res.Reason)
	assert.Len(t, fr.lastReq.Candidates, 1)
}

func TestRoute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"invalid thesis", contracts.RouteRequest{Thesis: contracts.Thesis{ID: "x"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&fakeRouter{}, false), "POST", "/api/route", tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRoute_PanicRecovered(t *testing.T) {
	rec := do(t, newTestRouter(&fakeRouter{panics: true}, false), "POST", "/api/route", "{}")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQuote(t *testing.T) {
	h := newTestRouter(&fakeRouter{}, false)

	rec := do(t, h, "POST", "/api/quote", contracts.CandidateInstrument{Platform: "kalshi", Ticker: "KXFED", Kind: contracts.KindBinaryYes})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 150, resp.Profile.ReturnIfRightPct, 1e-9)

	rec = do(t, h, "POST", "/api/quote", contracts.CandidateInstrument{Platform: "kalshi", Ticker: "MISSING", Kind: contracts.KindBinaryYes})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"not_found"`)

	rec = do(t, h, "POST", "/api/quote", contracts.CandidateInstrument{Platform: "kalshi", Kind: contracts.KindBinaryYes})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	h := newTestRouter(&fakeRouter{}, false)

	rec := do(t, h, "GET", "/api/search?q=fed&side=short", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"instrument_kind":"binary_no"`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/search", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/search?q=fed&side=up", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/search?q=fed&limit=0", nil).Code)
}

func TestPlatforms(t *testing.T) {
	rec := do(t, newTestRouter(&fakeRouter{}, false), "GET", "/api/platforms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"platforms":["hyperliquid","kalshi"]}`, rec.Body.String())
}

func TestRuns(t *testing.T) {
	h := newTestRouter(&fakeRouter{}, true)

	rec := do(t, h, "GET", "/api/runs/run-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/runs/nope", nil).Code)

	rec = do(t, h, "GET", "/api/runs?thesis_id=fed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.NotContains(t, rec.Body.String(), `"result"`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/runs?since=yesterday", nil).Code)

	rec = do(t, h, "GET", "/api/runs/summary?period=1W", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"period":"1W"`)
}

func TestRuns_NotMountedWithoutStore(t *testing.T) {
	rec := do(t, newTestRouter(&fakeRouter{}, false), "GET", "/api/runs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
