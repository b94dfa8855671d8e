package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/config"
	"github.com/wonny/thesisrouter/pkg/logger"
)

func newTestClient() *Client {
	cfg := &config.Config{Route: config.RouteConfig{Timeout: 5 * time.Second}}
	return New(cfg, logger.NewNop()).
		WithRetry(1, time.Millisecond).
		WithMaxRetryAfter(20 * time.Millisecond)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{Route: config.RouteConfig{Timeout: 7 * time.Second}}
	client := New(cfg, logger.NewNop())

	require.NotNil(t, client)
	assert.Equal(t, 7*time.Second, client.httpClient.Timeout)
	assert.True(t, client.retryConfig.Enabled)
	assert.Equal(t, defaultMaxRetryAfter, client.maxRetryAfter)

	client = NewWithTimeout(nil, logger.NewNop(), time.Second)
	assert.Equal(t, time.Second, client.httpClient.Timeout)
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "thesisrouter/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ticker":"FED-CUT","yes_ask":40}`))
	}))
	defer server.Close()

	var out struct {
		Ticker string `json:"ticker"`
		YesAsk int    `json:"yes_ask"`
	}
	require.NoError(t, newTestClient().GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "FED-CUT", out.Ticker)
	assert.Equal(t, 40, out.YesAsk)
}

func TestGet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "market not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient().Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Contains(t, err.Error(), "market not found")
}

func TestGet_RateLimitedRetriesOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "120") // bounded by WithMaxRetryAfter
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	start := time.Now()
	body, err := newTestClient().GetBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGet_RateLimitedTwice(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient().Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrRateLimited))
	assert.Equal(t, "rate_limited", contracts.Classify(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGet_ServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient().Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrUpstream))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPostJSONInto_ReplaysBodyOnRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"type":"metaAndAssetCtxs"}`, string(body))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out map[string]bool
	err := newTestClient().PostJSONInto(context.Background(), server.URL, map[string]string{"type": "metaAndAssetCtxs"}, &out)
	require.NoError(t, err)
	assert.True(t, out["ok"])
}

func TestGet_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient().DisableRetry().Get(ctx, server.URL)
	require.Error(t, err)
	assert.Equal(t, "unavailable", contracts.Classify(err))
}

func TestWithRateLimit(t *testing.T) {
	client := newTestClient().WithRateLimit(0.5)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 1, client.limiter.Burst())

	client.WithRateLimit(0)
	assert.Nil(t, client.limiter)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 3*time.Second, ParseRetryAfter("3", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-1", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon", now))
	assert.Equal(t, 10*time.Second, ParseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(503))
	assert.True(t, IsRetryableError(429))
	assert.False(t, IsRetryableError(404))
}
