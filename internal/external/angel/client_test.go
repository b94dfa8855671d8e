package angel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/external/lookup"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
)

const dealPage = `<!doctype html><html><head><meta property="og:title" content="Acme Robotics | Invest"></head>
<body>
	<h1> Acme Robotics </h1>
	<dl class="deal-terms">
		<dt>Valuation cap</dt><dd data-field="valuation">$25,000,000</dd>
		<dt>Minimum</dt><dd data-field="min-investment">$150</dd>
		<dt>Raised</dt><dd data-field="raised">$1.2M</dd>
		<dt>Max goal</dt><dd data-field="target">$1.5M</dd>
		<dt>Closes</dt><dd data-field="closes-at">2026-03-31</dd>
		<dt>Status</dt><dd data-field="status">Live</dd>
	</dl>
</body></html>`

func newServer(t *testing.T, lookups *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/companies/lookup":
			atomic.AddInt32(lookups, 1)
			if r.URL.Query().Get("slug") != "acme-robotics" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":4821,"slug":"acme-robotics"}`))
		case "/companies/4821":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(dealPage))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseURL string) *Client {
	hc := httputil.NewWithTimeout(nil, logger.NewNop(), 2*time.Second).DisableRetry()
	return NewClient(hc, lookup.NewMemory(logger.NewNop()), baseURL, logger.NewNop())
}

func TestQuote(t *testing.T) {
	var lookups int32
	server := newServer(t, &lookups)
	c := newTestClient(server.URL)
	inst := contracts.CandidateInstrument{Platform: Platform, Ticker: "Acme-Robotics", Kind: contracts.KindPrivate}

	q, err := c.Quote(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, "Acme Robotics", q.Title)
	assert.Equal(t, 25e6, q.Valuation)
	assert.Equal(t, 150.0, q.MinInvestment)
	assert.InDelta(t, 300000.0, q.Remaining, 1e-6)
	assert.InDelta(t, 300000.0, q.LiquidityUSD, 1e-6)
	assert.Equal(t, "4821", q.Extra["deal_id"])
	assert.Nil(t, q.Expiry, "offering close is not an instrument expiry")

	_, err = c.Quote(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&lookups), "handle resolution is cached")
}

func TestQuote_UnknownHandle(t *testing.T) {
	var lookups int32
	server := newServer(t, &lookups)

	_, err := newTestClient(server.URL).Quote(context.Background(), contracts.CandidateInstrument{
		Platform: Platform, Ticker: "ghost-co", Kind: contracts.KindPrivate,
	})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestParseDeal(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		wantClosed bool
		wantErr    error
	}{
		{"live deal", dealPage, false, nil},
		{"funded deal", strings.Replace(dealPage, ">Live<", ">Funded<", 1), true, nil},
		{"unrelated page", `<html><body><p>hello</p></body></html>`, false, contracts.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal, err := parseDeal(strings.NewReader(tt.html))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClosed, deal.Closed)
			require.NotNil(t, deal.ClosesAt)
			assert.Equal(t, time.March, deal.ClosesAt.Month())
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := map[string]float64{
		"$25,000,000": 25e6,
		"$25M":        25e6,
		"$1.2B":       1.2e9,
		" $500K ":     500e3,
		"150 USD":     150,
		"":            0,
		"n/a":         0,
	}
	for in, want := range tests {
		assert.InDelta(t, want, parseMoney(in), 1e-6, in)
	}
}
