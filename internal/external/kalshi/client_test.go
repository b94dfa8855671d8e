package kalshi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
)

const fedCutMarket = `{"market":{
	"ticker":"FED-25DEC-T4.00","event_ticker":"FED-25DEC","title":"Fed cuts in December?",
	"status":"active","yes_bid":38,"yes_ask":40,"no_bid":59,"no_ask":62,"last_price":39,
	"volume":120000,"volume_24h":15000,"open_interest":80000,"liquidity":25000000,
	"close_time":"2025-12-10T19:00:00Z","expiration_time":"2025-12-17T19:00:00Z"}}`

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/FED-25DEC-T4.00", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseURL string) *Client {
	hc := httputil.NewWithTimeout(nil, logger.NewNop(), 2*time.Second).DisableRetry()
	return NewClient(hc, baseURL, logger.NewNop())
}

func TestQuote_YesSide(t *testing.T) {
	server := newTestServer(t, http.StatusOK, fedCutMarket)

	q, err := newTestClient(server.URL).Quote(context.Background(), contracts.CandidateInstrument{
		Platform: Platform, Ticker: "fed-25dec-t4.00", Kind: contracts.KindBinaryYes,
	})
	require.NoError(t, err)

	assert.Equal(t, Platform, q.Platform)
	assert.Equal(t, "FED-25DEC-T4.00", q.Ticker)
	assert.InDelta(t, 0.40, q.Price, 1e-9)
	assert.InDelta(t, 0.38, q.Bid, 1e-9)
	assert.InDelta(t, 250000.0, q.LiquidityUSD, 1e-6)
	assert.InDelta(t, 6000.0, q.Volume24h, 1e-6)
	require.NotNil(t, q.Expiry)
	assert.Equal(t, time.Date(2025, 12, 10, 19, 0, 0, 0, time.UTC), *q.Expiry)
	assert.False(t, q.FetchedAt.IsZero())
}

func TestQuote_NoSide(t *testing.T) {
	server := newTestServer(t, http.StatusOK, fedCutMarket)

	q, err := newTestClient(server.URL).Quote(context.Background(), contracts.CandidateInstrument{
		Platform: Platform, Ticker: "FED-25DEC-T4.00", Kind: contracts.KindBinaryNo,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.62, q.Price, 1e-9)
	assert.InDelta(t, 0.59, q.Bid, 1e-9)
}

func TestQuote_Errors(t *testing.T) {
	inst := contracts.CandidateInstrument{Platform: Platform, Ticker: "FED-25DEC-T4.00", Kind: contracts.KindBinaryYes}

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown ticker", http.StatusNotFound, `{"error":{"code":"not_found"}}`, contracts.ErrNotFound},
		{"server error", http.StatusBadGateway, `bad gateway`, contracts.ErrUpstream},
		{"empty market", http.StatusOK, `{"market":{}}`, contracts.ErrNotFound},
		{"settled market", http.StatusOK, `{"market":{"ticker":"FED-25DEC-T4.00","status":"settled","yes_ask":99}}`, contracts.ErrDataUnavailable},
		{"no prices", http.StatusOK, `{"market":{"ticker":"FED-25DEC-T4.00","status":"active"}}`, contracts.ErrDataUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body)
			_, err := newTestClient(server.URL).Quote(context.Background(), inst)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuote_UnsupportedKind(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	_, err := c.Quote(context.Background(), contracts.CandidateInstrument{Platform: Platform, Ticker: "X", Kind: contracts.KindEquity})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestToQuote_DerivedNoPrice(t *testing.T) {
	m := &Market{Ticker: "X", Status: "open", YesBid: 30, YesAsk: 33}

	q, err := toQuote(m, contracts.KindBinaryNo)
	require.NoError(t, err)
	assert.InDelta(t, 0.70, q.Price, 1e-9)
	assert.InDelta(t, 0.67, q.Bid, 1e-9)
}

func TestToQuote_LastPriceFallback(t *testing.T) {
	m := &Market{Ticker: "X", Status: "open", LastPrice: 12, OpenInterest: 1000}

	q, err := toQuote(m, contracts.KindBinaryYes)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, q.Price, 1e-9)
	assert.InDelta(t, 120.0, q.LiquidityUSD, 1e-9)
	assert.Nil(t, q.Expiry)
}
