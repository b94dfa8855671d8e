package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Platform is the venue name used in candidates and registries
const Platform = "kalshi"

const defaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// Client handles communication with the Kalshi trade API
// ⭐ SSOT: Kalshi API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Kalshi client; an empty baseURL uses production
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("kalshi"),
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

// GetMarket fetches a single market by ticker
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	endpoint := fmt.Sprintf("%s/markets/%s", c.baseURL, url.PathEscape(strings.ToUpper(ticker)))

	var resp marketResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("kalshi market %s: %w", ticker, err)
	}
	if resp.Market.Ticker == "" {
		return nil, fmt.Errorf("kalshi market %s: %w", ticker, contracts.ErrNotFound)
	}
	return &resp.Market, nil
}

// Quote implements contracts.QuoteAdapter
func (c *Client) Quote(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	if !c.Supports(inst.Kind) {
		return nil, contracts.NewValidationError("candidate.instrument_kind", fmt.Sprintf("kalshi does not list %s", inst.Kind))
	}

	market, err := c.GetMarket(ctx, inst.Ticker)
	if err != nil {
		return nil, err
	}

	quote, err := toQuote(market, inst.Kind)
	if err != nil {
		return nil, fmt.Errorf("kalshi market %s: %w", inst.Ticker, err)
	}
	quote.FetchedAt = c.now()

	c.logger.WithFields(map[string]interface{}{
		"ticker": market.Ticker,
		"side":   inst.Kind,
		"price":  quote.Price,
	}).Debug("Quote fetched")

	return quote, nil
}

// toQuote converts cents into the buy probability of the requested side
func toQuote(m *Market, kind contracts.InstrumentKind) (*contracts.RawQuote, error) {
	if !m.tradable() {
		return nil, fmt.Errorf("%w: market status %s", contracts.ErrDataUnavailable, m.Status)
	}

	bid, ask := m.YesBid, m.YesAsk
	if kind == contracts.KindBinaryNo {
		bid, ask = m.NoBid, m.NoAsk
		// NO book가 비어있으면 YES 호가로부터 유도
		if ask <= 0 && m.YesBid > 0 {
			ask = 100 - m.YesBid
		}
		if bid <= 0 && m.YesAsk > 0 && m.YesAsk < 100 {
			bid = 100 - m.YesAsk
		}
	}

	price := ask
	if price <= 0 || price >= 100 {
		price = m.LastPrice
		if kind == contracts.KindBinaryNo && price > 0 {
			price = 100 - price
		}
	}
	if price <= 0 || price >= 100 {
		return nil, contracts.DataUnavailable("price")
	}

	prob := cents(price)
	liquidity := cents(m.Liquidity)
	if liquidity <= 0 {
		liquidity = float64(m.OpenInterest) * prob
	}

	return &contracts.RawQuote{
		Platform:     Platform,
		Ticker:       m.Ticker,
		Kind:         kind,
		Title:        m.Title,
		Price:        prob,
		Bid:          cents(bid),
		Ask:          cents(ask),
		Volume24h:    float64(m.Volume24h) * prob,
		OpenInterest: float64(m.OpenInterest) * prob,
		LiquidityUSD: liquidity,
		Expiry:       m.expiry(),
		Extra: map[string]any{
			"event_ticker": m.EventTicker,
			"status":       m.Status,
		},
	}, nil
}

func cents(v int64) float64 {
	return float64(v) / 100
}
