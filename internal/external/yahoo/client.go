package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/internal/payoff"
	"github.com/wonny/thesisrouter/pkg/httputil"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// Platform is the brokerage venue whose listed securities this adapter quotes
const Platform = "robinhood"

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"

	// chartRange covers the 30-return volatility window plus holidays
	chartRange = "3mo"

	// liquidityWindow 평균 거래대금 산출 기간 (거래일)
	liquidityWindow = 20
)

// Client quotes US equities, leveraged ETFs and listed options from Yahoo Finance
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	platform   string
	now        func() time.Time
}

// NewClient creates a new Yahoo Finance client; an empty baseURL uses query1
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		platform:   Platform,
		now:        time.Now,
	}
}

// WithPlatform registers the adapter under another brokerage name
func (c *Client) WithPlatform(name string) *Client {
	if name != "" {
		c.platform = name
	}
	return c
}

// Platform implements contracts.QuoteAdapter
func (c *Client) Platform() string { return c.platform }

// Supports implements contracts.QuoteAdapter
func (c *Client) Supports(kind contracts.InstrumentKind) bool {
	switch kind {
	case contracts.KindEquity, contracts.KindLeveragedETF, contracts.KindOption:
		return true
	default:
		return false
	}
}

// Chart fetches daily bars for symbol
func (c *Client) Chart(ctx context.Context, symbol string) (*Chart, error) {
	params := url.Values{}
	params.Set("range", chartRange)
	params.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, contracts.ErrNotFound)
	}

	chart := resp.Chart.Result[0].toChart()
	if chart.Price <= 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, contracts.DataUnavailable("price"))
	}
	return &chart, nil
}

// Quote implements contracts.QuoteAdapter
func (c *Client) Quote(ctx context.Context, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	symbol := strings.ToUpper(strings.TrimSpace(inst.Ticker))

	var (
		quote *contracts.RawQuote
		err   error
	)
	switch inst.Kind {
	case contracts.KindEquity:
		quote, err = c.equityQuote(ctx, symbol)
	case contracts.KindLeveragedETF:
		quote, err = c.leveragedQuote(ctx, symbol, inst)
	case contracts.KindOption:
		quote, err = c.optionQuote(ctx, symbol, inst)
	default:
		return nil, contracts.NewValidationError("candidate.instrument_kind", fmt.Sprintf("%s does not list %s", c.platform, inst.Kind))
	}
	if err != nil {
		return nil, err
	}

	quote.Platform = c.platform
	quote.Kind = inst.Kind
	quote.FetchedAt = c.now()

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"kind":   inst.Kind,
		"price":  quote.Price,
	}).Debug("Quote fetched")

	return quote, nil
}

func (c *Client) equityQuote(ctx context.Context, symbol string) (*contracts.RawQuote, error) {
	chart, err := c.Chart(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return chartQuote(chart), nil
}

func chartQuote(chart *Chart) *contracts.RawQuote {
	dollarVolume := chart.AverageDollarVolume(liquidityWindow)
	var lastVolume float64
	if n := len(chart.Volume); n > 0 {
		lastVolume = chart.Volume[n-1] * chart.Closes[n-1]
	}

	return &contracts.RawQuote{
		Ticker:       chart.Symbol,
		Title:        chart.Name,
		Price:        chart.Price,
		Volume24h:    lastVolume,
		LiquidityUSD: dollarVolume,
		Volatility:   payoff.RealizedVolatility(chart.Closes, payoff.EquityPeriodsPerYear),
	}
}

func (c *Client) leveragedQuote(ctx context.Context, symbol string, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	chart, err := c.Chart(ctx, symbol)
	if err != nil {
		return nil, err
	}

	quote := chartQuote(chart)
	fund, known := LookupLeveragedFund(symbol)
	switch {
	case known:
		quote.LeverageFactor = fund.Factor
		quote.ExpenseRatio = fund.ExpenseRatio
		quote.Extra = map[string]any{"underlying": fund.Underlying}
	case inst.Leverage > 0:
		quote.LeverageFactor = inst.Leverage
		quote.ExpenseRatio = defaultExpenseRatio
	default:
		return nil, fmt.Errorf("yahoo %s: %w", symbol, contracts.DataUnavailable("leverage_factor"))
	}
	return quote, nil
}

// OptionChain fetches the chain for one expiration (0 = nearest)
func (c *Client) OptionChain(ctx context.Context, symbol string, expiration int64) (*optionChain, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/options/%s", c.baseURL, url.PathEscape(symbol))
	if expiration > 0 {
		endpoint += "?date=" + strconv.FormatInt(expiration, 10)
	}

	var resp optionsResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("yahoo options %s: %w", symbol, err)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("yahoo options %s: %w", symbol, contracts.ErrNotFound)
	}
	return &resp.OptionChain.Result[0], nil
}

func (c *Client) optionQuote(ctx context.Context, symbol string, inst contracts.CandidateInstrument) (*contracts.RawQuote, error) {
	chain, err := c.OptionChain(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}

	expiration, ok := pickExpiration(chain.ExpirationDates, inst.Expiry)
	if !ok {
		return nil, fmt.Errorf("yahoo options %s: no expiration on or after requested date: %w", symbol, contracts.ErrNotFound)
	}
	if len(chain.Options) == 0 || chain.Options[0].ExpirationDate != expiration {
		if chain, err = c.OptionChain(ctx, symbol, expiration); err != nil {
			return nil, err
		}
	}
	if len(chain.Options) == 0 {
		return nil, fmt.Errorf("yahoo options %s: %w", symbol, contracts.ErrNotFound)
	}

	contractsList := chain.Options[0].Calls
	if inst.OptionRight == contracts.OptionPut {
		contractsList = chain.Options[0].Puts
	}
	opt, found := findStrike(contractsList, inst.Strike)
	if !found {
		return nil, fmt.Errorf("yahoo options %s %g %s: %w", symbol, inst.Strike, inst.OptionRight, contracts.ErrNotFound)
	}

	premium := opt.premium()
	if premium <= 0 {
		return nil, fmt.Errorf("yahoo option %s: %w", opt.ContractSymbol, contracts.DataUnavailable("premium"))
	}

	expiry := time.Unix(expiration, 0).UTC()
	quote := &contracts.RawQuote{
		Ticker:       symbol,
		Title:        opt.ContractSymbol,
		Price:        premium,
		Bid:          opt.Bid,
		Ask:          opt.Ask,
		Volume24h:    opt.Volume * premium * 100,
		OpenInterest: opt.OpenInterest * premium * 100,
		LiquidityUSD: opt.OpenInterest * premium * 100,
		Expiry:       &expiry,
		Underlying:   chain.Quote.RegularMarketPrice,
		Strike:       opt.Strike,
		OptionRight:  inst.OptionRight,
		ImpliedVol:   opt.ImpliedVolatility,
		Extra:        map[string]any{"contract_symbol": opt.ContractSymbol},
	}

	// IV가 없으면 기초자산 실현 변동성 사용
	if quote.ImpliedVol <= 0 {
		if chart, err := c.Chart(ctx, symbol); err == nil {
			quote.Volatility = payoff.RealizedVolatility(chart.Closes, payoff.EquityPeriodsPerYear)
			if quote.Underlying <= 0 {
				quote.Underlying = chart.Price
			}
		} else {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Underlying chart failed, using fallback volatility")
			quote.Volatility = payoff.RealizedVolatility(nil, payoff.EquityPeriodsPerYear)
		}
	}
	return quote, nil
}

func findStrike(list []OptionContract, strike float64) (OptionContract, bool) {
	for _, o := range list {
		if math.Abs(o.Strike-strike) < 1e-6 {
			return o, true
		}
	}
	return OptionContract{}, false
}
