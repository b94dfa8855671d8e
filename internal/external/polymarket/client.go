package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
	"github.com/wonny/thesisrouter/pkg/redis"
)

// Platform is the venue name used in candidates and registries
const Platform = "polymarket"

const (
	defaultBaseURL     = "https://gamma-api.polymarket.com"
	defaultSearchLimit = 10
)

// Client handles communication with the Polymarket Gamma API
// ⭐ SSOT: Polymarket Gamma API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Polymarket client.
// cache holds short-lived search results and may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.Module("polymarket"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// Platform implements contracts.QuoteAdapter
func (c *Client) Platform() string { return Platform }

// Supports implements contracts.QuoteAdapter
func (c *Client) Supports(kind contracts.InstrumentKind) bool {
	return kind.IsBinary()
}

// GetMarket resolves a market by slug
func (c *Client) GetMarket(ctx context.Context, slug string) (*Market, error) {
	params := url.Values{}
	params.Set("slug", slug)

	var markets []Market
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/markets?"+params.Encode(), &markets); err != nil {
		return nil, fmt.Errorf("polymarket market %s: %w", slug, err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("polymarket market %s: %w", slug, contracts.ErrNotFound)
	}
	return &markets[0], nil
}

// Quote implements contracts.QuoteAdapter
func (c *Client) Quote(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	if !c.Supports(inst.Kind) {
		return nil, contracts.NewValidationError("candidate.instrument_kind", fmt.Sprintf("polymarket does not list %s", inst.Kind))
	}

	market, err := c.GetMarket(ctx, inst.Ticker)
	if err != nil {
		return nil, err
	}

	quote, err := toQuote(market, inst.Kind)
	if err != nil {
		return nil, fmt.Errorf("polymarket market %s: %w", inst.Ticker, err)
	}
	quote.FetchedAt = c.now()

	c.logger.WithFields(map[string]interface{}{
		"slug":  market.Slug,
		"side":  inst.Kind,
		"price": quote.Price,
	}).Debug("Quote fetched")

	return quote, nil
}

// toQuote picks the buy price of the requested side.
// NO is bought at 1 - best YES bid.
func toQuote(m *Market, kind contracts.InstrumentKind) (*contracts.RawQuote, error) {
	if m.Closed {
		return nil, fmt.Errorf("%w: market closed", contracts.ErrDataUnavailable)
	}
	if !m.isBinary() {
		return nil, fmt.Errorf("%w: market is not a yes/no market", contracts.ErrDataUnavailable)
	}

	var bid, ask, mid float64
	if kind == contracts.KindBinaryNo {
		if m.BestBid > 0 {
			ask = 1 - m.BestBid
		}
		if m.BestAsk > 0 && m.BestAsk < 1 {
			bid = 1 - m.BestAsk
		}
		mid = m.outcomePrice("No")
	} else {
		bid, ask = m.BestBid, m.BestAsk
		mid = m.outcomePrice("Yes")
	}

	price := ask
	if !(price > 0 && price < 1) {
		price = mid
	}
	if !(price > 0 && price < 1) {
		return nil, contracts.DataUnavailable("price")
	}

	return &contracts.RawQuote{
		Platform:     Platform,
		Ticker:       m.Slug,
		Kind:         kind,
		Title:        m.Question,
		Price:        price,
		Bid:          bid,
		Ask:          ask,
		Volume24h:    m.Volume24h,
		OpenInterest: m.OpenInterest,
		LiquidityUSD: m.LiquidityNum,
		Expiry:       m.expiry(),
		Extra: map[string]any{
			"market_id":      m.ID,
			"clob_token_ids": m.ClobTokenIDs,
		},
	}, nil
}

// Search finds open yes/no markets matching query.
// Results are cached for redis.TTLSearch.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Market, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, contracts.NewValidationError("query", "required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if c.cache == nil {
		return c.search(ctx, query, limit)
	}

	var markets []Market
	key := redis.SearchKey(Platform, query) + ":" + strconv.Itoa(limit)
	err := c.cache.GetOrSet(ctx, key, &markets, redis.TTLSearch, func() (interface{}, error) {
		return c.search(ctx, query, limit)
	})
	if err != nil {
		return nil, err
	}
	return markets, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]Market, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit_per_type", strconv.Itoa(limit))
	params.Set("events_status", "active")

	var resp searchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/public-search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("polymarket search %q: %w", query, err)
	}

	markets := make([]Market, 0, limit)
	for _, ev := range resp.Events {
		if ev.Closed {
			continue
		}
		for _, m := range ev.Markets {
			if m.Closed || !m.isBinary() || m.Slug == "" {
				continue
			}
			markets = append(markets, m)
			if len(markets) == limit {
				return markets, nil
			}
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"query":   query,
		"markets": len(markets),
	}).Debug("Search completed")

	return markets, nil
}

// Candidates turns search results into candidate instruments on the thesis side
func (c *Client) Candidates(ctx context.Context, query string, side contracts.Direction, limit int) ([]contracts.CandidateInstrument, error) {
	markets, err := c.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	kind := contracts.KindBinaryYes
	if side == contracts.DirectionShort {
		kind = contracts.KindBinaryNo
	}

	out := make([]contracts.CandidateInstrument, 0, len(markets))
	for _, m := range markets {
		out = append(out, contracts.CandidateInstrument{
			Platform: Platform,
			Ticker:   m.Slug,
			Kind:     kind,
			Expiry:   m.expiry(),
		})
	}
	return out, nil
}
