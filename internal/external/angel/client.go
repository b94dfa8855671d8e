package angel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/external/lookup"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Platform is the venue name used in candidates and registries
const Platform = "angel"

const defaultBaseURL = "https://republic.com"

// Client quotes private placements from an equity-crowdfunding deal site.
// Company handles are resolved to numeric ids once and cached in the lookup store.
// ⭐ SSOT: 비상장 딜 페이지 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	lookup     *lookup.Store
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new deal-site client
func NewClient(httpClient *httputil.Client, store *lookup.Store, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if store == nil {
		store = lookup.NewMemory(log)
	}
	return &Client{
		httpClient: httpClient,
		lookup:     store,
		logger:     log.Module("angel"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// Platform implements contracts.QuoteAdapter
func (c *Client) Platform() string { return Platform }

// Supports implements contracts.QuoteAdapter
func (c *Client) Supports(kind contracts.InstrumentKind) bool {
	return kind == contracts.KindPrivate
}

type companyRef struct {
	ID   json.Number `json:"id"`
	Slug string      `json:"slug"`
}

// ResolveID maps a company handle to its deal id
func (c *Client) ResolveID(ctx context.Context, handle string) (string, error) {
	return c.lookup.Resolve(ctx, Platform, handle, func(ctx context.Context) (string, error) {
		params := url.Values{}
		params.Set("slug", strings.ToLower(strings.TrimSpace(handle)))

		var ref companyRef
		if err := c.httpClient.GetJSON(ctx, c.baseURL+"/api/v1/companies/lookup?"+params.Encode(), &ref); err != nil {
			return "", fmt.Errorf("resolve %s: %w", handle, err)
		}
		if ref.ID.String() == "" {
			return "", fmt.Errorf("resolve %s: %w", handle, contracts.ErrNotFound)
		}

		c.logger.WithFields(map[string]interface{}{
			"handle": handle,
			"id":     ref.ID.String(),
		}).Debug("Handle resolved")
		return ref.ID.String(), nil
	})
}

// Deal fetches and parses the public deal page
func (c *Client) Deal(ctx context.Context, id string) (*Deal, error) {
	resp, err := c.httpClient.Get(ctx, fmt.Sprintf("%s/companies/%s", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return nil, fmt.Errorf("deal %s: %w", id, err)
	}
	defer resp.Body.Close()

	deal, err := parseDeal(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deal %s: %w", id, err)
	}
	deal.ID = id
	return deal, nil
}

// Quote implements contracts.QuoteAdapter
func (c *Client) Quote(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	if !c.Supports(inst.Kind) {
		return nil, contracts.NewValidationError("candidate.instrument_kind", fmt.Sprintf("angel does not list %s", inst.Kind))
	}

	id, err := c.ResolveID(ctx, inst.Ticker)
	if err != nil {
		return nil, err
	}

	deal, err := c.Deal(ctx, id)
	if err != nil {
		return nil, err
	}
	if deal.Closed {
		return nil, fmt.Errorf("deal %s: %w: offering closed", inst.Ticker, contracts.ErrDataUnavailable)
	}
	if deal.Valuation <= 0 {
		return nil, fmt.Errorf("deal %s: %w", inst.Ticker, contracts.DataUnavailable("valuation"))
	}

	remaining := deal.Remaining()
	quote := &contracts.RawQuote{
		Platform:      Platform,
		Ticker:        inst.Ticker,
		Kind:          contracts.KindPrivate,
		Title:         deal.Name,
		Price:         deal.Valuation,
		Valuation:     deal.Valuation,
		MinInvestment: deal.MinInvestment,
		Remaining:     remaining,
		LiquidityUSD:  remaining,
		Extra: map[string]any{
			"deal_id":    id,
			"raised_usd": deal.Raised,
			"target_usd": deal.Target,
		},
		FetchedAt: c.now(),
	}
	if deal.ClosesAt != nil {
		quote.Extra["closes_at"] = deal.ClosesAt.Format(time.RFC3339)
	}

	c.logger.WithFields(map[string]interface{}{
		"handle":    inst.Ticker,
		"valuation": deal.Valuation,
		"remaining": remaining,
	}).Debug("Quote fetched")

	return quote, nil
}
