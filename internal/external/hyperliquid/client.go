package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/payoff"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Platform is the venue name used in candidates and registries
const Platform = "hyperliquid"

const (
	defaultBaseURL = "https://api.hyperliquid.xyz"

	// FundingInterval Hyperliquid은 1시간마다 funding 정산
	FundingInterval = time.Hour

	// candleLookback covers the 30-return window with room for missing days
	candleLookback = 45 * 24 * time.Hour
)

// Client handles communication with the Hyperliquid info API
// ⭐ SSOT: Hyperliquid API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new Hyperliquid client; an empty baseURL uses mainnet
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("hyperliquid"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// Platform implements contracts.QuoteAdapter
func (c *Client) Platform() string { return Platform }

// Supports implements contracts.QuoteAdapter
func (c *Client) Supports(kind contracts.InstrumentKind) bool {
	return kind == contracts.KindPerpetual
}

func (c *Client) info(ctx context.Context, req infoRequest, dest interface{}) error {
	return c.httpClient.PostJSONInto(ctx, c.baseURL+"/info", req, dest)
}

// Markets fetches every perpetual with its live context
func (c *Client) Markets(ctx context.Context) ([]Market, error) {
	var raw []json.RawMessage
	if err := c.info(ctx, infoRequest{Type: "metaAndAssetCtxs"}, &raw); err != nil {
		return nil, fmt.Errorf("hyperliquid metaAndAssetCtxs: %w", err)
	}

	markets, err := decodeMetaAndCtxs(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrUpstream, err)
	}
	return markets, nil
}

// Market finds one perpetual by coin
func (c *Client) Market(ctx context.Context, ticker string) (*Market, error) {
	markets, err := c.Markets(ctx)
	if err != nil {
		return nil, err
	}

	coin := coinOf(ticker)
	for i := range markets {
		if strings.EqualFold(markets[i].Asset.Name, coin) && !markets[i].Asset.IsDelisted {
			return &markets[i], nil
		}
	}
	return nil, fmt.Errorf("hyperliquid perp %s: %w", ticker, contracts.ErrNotFound)
}

// DailyCandles fetches daily candles from start until now, oldest first
func (c *Client) DailyCandles(ctx context.Context, coin string, start time.Time) ([]Candle, error) {
	req := infoRequest{
		Type: "candleSnapshot",
		Req: &candleQuery{
			Coin:      coinOf(coin),
			Interval:  "1d",
			StartTime: start.UnixMilli(),
			EndTime:   c.now().UnixMilli(),
		},
	}

	var candles []Candle
	if err := c.info(ctx, req, &candles); err != nil {
		return nil, fmt.Errorf("hyperliquid candles %s: %w", coin, err)
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime < candles[j].OpenTime })
	return candles, nil
}

// Volatility estimates 30-day realized volatility.
// Candle failures degrade to the fallback estimate instead of failing the quote.
func (c *Client) Volatility(ctx context.Context, coin string) contracts.Volatility {
	candles, err := c.DailyCandles(ctx, coin, c.now().Add(-candleLookback))
	if err != nil {
		c.logger.WithError(err).WithField("coin", coin).Warn("Candle fetch failed, using fallback volatility")
		return payoff.RealizedVolatility(nil, payoff.CryptoPeriodsPerYear)
	}

	vol := payoff.RealizedVolatility(closes(candles), payoff.CryptoPeriodsPerYear)
	if vol.Source == contracts.VolFallback {
		c.logger.WithFields(map[string]interface{}{
			"coin":   coin,
			"points": vol.Points,
		}).Warn("Not enough candles, using fallback volatility")
	}
	return vol
}

// Quote implements contracts.QuoteAdapter
func (c *Client) Quote(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	if !c.Supports(inst.Kind) {
		return nil, contracts.NewValidationError("candidate.instrument_kind", fmt.Sprintf("hyperliquid does not list %s", inst.Kind))
	}

	market, err := c.Market(ctx, inst.Ticker)
	if err != nil {
		return nil, err
	}

	quote, err := toQuote(market)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid perp %s: %w", inst.Ticker, err)
	}
	quote.Volatility = c.Volatility(ctx, market.Asset.Name)
	quote.FetchedAt = c.now()

	c.logger.WithFields(map[string]interface{}{
		"coin":       market.Asset.Name,
		"mark":       quote.Price,
		"funding":    *quote.FundingRate,
		"vol_source": quote.Volatility.Source,
	}).Debug("Quote fetched")

	return quote, nil
}

func toQuote(m *Market) (*contracts.RawQuote, error) {
	mark := parseFloat(m.Context.MarkPx)
	if !(mark > 0) || math.IsInf(mark, 1) {
		return nil, contracts.DataUnavailable("mark price")
	}
	funding, err := strconv.ParseFloat(strings.TrimSpace(m.Context.Funding), 64)
	if err != nil || math.IsNaN(funding) || math.IsInf(funding, 0) {
		return nil, contracts.DataUnavailable("funding rate")
	}

	oiUSD := parseFloat(m.Context.OpenInterest) * mark

	quote := &contracts.RawQuote{
		Platform:        Platform,
		Ticker:          m.Asset.Name,
		Kind:            contracts.KindPerpetual,
		Title:           m.Asset.Name + "-PERP",
		Price:           mark,
		Volume24h:       parseFloat(m.Context.DayNtlVlm),
		OpenInterest:    oiUSD,
		LiquidityUSD:    oiUSD,
		FundingRate:     &funding,
		FundingInterval: FundingInterval,
		MaxLeverage:     m.Asset.MaxLeverage,
		Extra: map[string]any{
			"oracle_px": parseFloat(m.Context.OraclePx),
		},
	}
	if m.Context.MidPx != nil {
		quote.Extra["mid_px"] = parseFloat(*m.Context.MidPx)
	}
	return quote, nil
}
