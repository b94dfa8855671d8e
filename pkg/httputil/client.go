package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/config"
	"github.com/wonny/thesisrouter/pkg/logger"
	"github.com/wonny/thesisrouter/pkg/redis"
)

// Client is an HTTP client wrapper with throttling, retry and logging
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient    *http.Client
	logger        *logger.Logger
	retryConfig   RetryConfig
	limiter       *rate.Limiter
	rateLimiter   *redis.RateLimiter
	rateLimitCfg  *redis.RateLimitConfig
	maxRetryAfter time.Duration
	headers       http.Header
}

// RetryConfig holds retry configuration for transport errors and 5xx.
// HTTP 429 is handled separately and retried exactly once.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetryAfter = 5 * time.Second
	maxErrorBody         = 512
)

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := defaultTimeout
	if cfg != nil && cfg.Route.Timeout > 0 {
		timeout = cfg.Route.Timeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		retryConfig: RetryConfig{
			MaxRetries:   2,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Enabled:      true,
		},
		maxRetryAfter: defaultMaxRetryAfter,
		headers:       http.Header{"User-Agent": []string{"thesisrouter/1.0"}},
	}
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	client := New(cfg, log)
	client.httpClient.Timeout = timeout
	return client
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry disables automatic retry of 5xx and transport errors
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRateLimit throttles this client to rps requests per second (0 = unlimited)
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithRateLimiter sets the shared Redis rate limiter for this client
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.rateLimiter = limiter
	c.rateLimitCfg = &cfg
	return c
}

// WithMaxRetryAfter bounds how long a Retry-After header may stall a request
func (c *Client) WithMaxRetryAfter(d time.Duration) *Client {
	c.maxRetryAfter = d
	return c
}

// WithHeader adds a header sent on every request
func (c *Client) WithHeader(key, value string) *Client {
	c.headers.Set(key, value)
	return c
}

// StatusError is a non-2xx response mapped onto the router's error taxonomy
type StatusError struct {
	Code int
	URL  string
	Body string
	kind error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d from %s: %s", e.kind, e.Code, e.URL, e.Body)
}

// Unwrap exposes ErrNotFound, ErrRateLimited or ErrUpstream
func (e *StatusError) Unwrap() error {
	return e.kind
}

// Get performs a GET request. Non-2xx responses come back as *StatusError.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	return c.do(req)
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

// PostJSON performs a POST request with JSON body
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return c.Post(ctx, url, "application/json", bytes.NewReader(jsonData))
}

// PostForm performs a POST request with form data
func (c *Client) PostForm(ctx context.Context, targetURL string, formData url.Values) (*http.Response, error) {
	return c.Post(ctx, targetURL, "application/x-www-form-urlencoded", strings.NewReader(formData.Encode()))
}

// GetJSON performs a GET request and decodes the JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return decodeJSON(resp, dest)
}

// PostJSONInto posts data as JSON and decodes the JSON response into dest
func (c *Client) PostJSONInto(ctx context.Context, url string, data interface{}, dest interface{}) error {
	resp, err := c.PostJSON(ctx, url, data)
	if err != nil {
		return err
	}
	return decodeJSON(resp, dest)
}

// GetBytes performs a GET request and returns the whole body
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrUpstream, err)
	}
	return body, nil
}

func decodeJSON(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", contracts.ErrUpstream, resp.Request.URL.Path, err)
	}
	return nil
}

// do executes the request with throttling, retry and logging
func (c *Client) do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	target := req.URL.String()
	method := req.Method

	for key, values := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header[key] = values
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    target,
	}).Debug("HTTP request started")

	resp, err := c.send(req)
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		// 429: Retry-After 존중 후 딱 한 번만 재시도
		wait := c.retryAfter(resp.Header.Get("Retry-After"))
		drain(resp)

		c.logger.WithFields(map[string]interface{}{
			"url":   target,
			"delay": wait,
		}).Warn("Rate limited, retrying once")

		if err = sleep(req.Context(), wait); err == nil {
			var retryReq *http.Request
			if retryReq, err = rewind(req); err == nil {
				resp, err = c.send(retryReq)
			}
		}
	}

	duration := time.Since(startTime)

	if err == nil {
		err = c.checkStatus(resp, target)
	}

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      target,
			"duration": duration,
			"error":    err.Error(),
		}).Warn("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         target,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// send waits for the throttles then executes with 5xx/transport retry
func (c *Client) send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", contracts.ErrUnavailable, err)
		}
	}
	if c.rateLimiter != nil && c.rateLimitCfg != nil {
		if err := c.rateLimiter.Wait(ctx, *c.rateLimitCfg); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", contracts.ErrUnavailable, err)
		}
	}

	if !c.retryConfig.Enabled {
		return c.roundTrip(req)
	}
	return c.doWithRetry(req)
}

// doWithRetry executes the request with exponential backoff retry
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	delay := c.retryConfig.InitialDelay
	current := req

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		resp, err = c.roundTrip(current)

		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt == c.retryConfig.MaxRetries || req.Context().Err() != nil {
			break
		}
		if resp != nil {
			drain(resp)
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")

		if serr := sleep(req.Context(), delay); serr != nil {
			return nil, serr
		}
		if current, err = rewind(req); err != nil {
			return nil, err
		}

		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}

	return resp, err
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", contracts.ErrUpstream, err)
	}
	return resp, nil
}

// checkStatus maps a final response to the error taxonomy, closing the body on failure
func (c *Client) checkStatus(resp *http.Response, target string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{
		Code: resp.StatusCode,
		URL:  target,
		Body: strings.TrimSpace(string(body)),
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		statusErr.kind = contracts.ErrNotFound
	case http.StatusTooManyRequests:
		statusErr.kind = contracts.ErrRateLimited
	default:
		statusErr.kind = contracts.ErrUpstream
	}
	return statusErr
}

func (c *Client) retryAfter(header string) time.Duration {
	wait := ParseRetryAfter(header, time.Now())
	if wait <= 0 {
		wait = c.retryConfig.InitialDelay
	}
	if wait > c.maxRetryAfter {
		wait = c.maxRetryAfter
	}
	return wait
}

// ParseRetryAfter reads a Retry-After value in delta-seconds or HTTP-date form
func ParseRetryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// rewind rebuilds the request body so the request can be sent again
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", contracts.ErrUnavailable, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// IsRetryableError checks if a status code is transient
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// StatusCode extracts the HTTP status from err, 0 if none
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}
