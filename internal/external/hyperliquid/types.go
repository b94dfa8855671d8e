package hyperliquid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// infoRequest is the body of POST /info
type infoRequest struct {
	Type string       `json:"type"`
	Req  *candleQuery `json:"req,omitempty"`
}

type candleQuery struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// Asset is one perpetual listed in the exchange universe
type Asset struct {
	Name        string  `json:"name"`
	SzDecimals  int     `json:"szDecimals"`
	MaxLeverage float64 `json:"maxLeverage"`
	IsDelisted  bool    `json:"isDelisted"`
}

type meta struct {
	Universe []Asset `json:"universe"`
}

// AssetContext is the live state of one perpetual. Numbers arrive as strings.
type AssetContext struct {
	Funding      string  `json:"funding"`
	OpenInterest string  `json:"openInterest"`
	MarkPx       string  `json:"markPx"`
	MidPx        *string `json:"midPx"`
	OraclePx     string  `json:"oraclePx"`
	DayNtlVlm    string  `json:"dayNtlVlm"`
	Premium      *string `json:"premium"`
}

// Candle is one OHLCV bar from candleSnapshot
type Candle struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Coin      string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Trades    int64  `json:"n"`
}

// Market pairs an asset with its context
type Market struct {
	Asset   Asset
	Context AssetContext
}

// decodeMetaAndCtxs splits the [meta, [ctx...]] tuple.
// Contexts are index-aligned with meta.universe.
func decodeMetaAndCtxs(raw []json.RawMessage) ([]Market, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("metaAndAssetCtxs: expected 2 elements, got %d", len(raw))
	}

	var m meta
	if err := json.Unmarshal(raw[0], &m); err != nil {
		return nil, fmt.Errorf("metaAndAssetCtxs meta: %w", err)
	}
	var ctxs []AssetContext
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return nil, fmt.Errorf("metaAndAssetCtxs contexts: %w", err)
	}
	if len(ctxs) < len(m.Universe) {
		return nil, fmt.Errorf("metaAndAssetCtxs: %d assets but %d contexts", len(m.Universe), len(ctxs))
	}

	markets := make([]Market, len(m.Universe))
	for i, asset := range m.Universe {
		markets[i] = Market{Asset: asset, Context: ctxs[i]}
	}
	return markets, nil
}

// coinOf normalizes "btc", "BTC-PERP" and "BTC-USD" to "BTC"
func coinOf(ticker string) string {
	coin := strings.ToUpper(strings.TrimSpace(ticker))
	for _, suffix := range []string{"-PERP", "-USD", "/USD", "-USDC"} {
		coin = strings.TrimSuffix(coin, suffix)
	}
	return coin
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// closes extracts close prices in chronological order
func closes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, parseFloat(c.Close))
	}
	return out
}
