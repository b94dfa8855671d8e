package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Market is the subset of a Gamma market the adapter reads.
// outcomes / outcomePrices arrive as JSON-encoded strings.
type Market struct {
	ID             string  `json:"id"`
	Slug           string  `json:"slug"`
	Question       string  `json:"question"`
	Outcomes       string  `json:"outcomes"`
	OutcomePrices  string  `json:"outcomePrices"`
	BestBid        float64 `json:"bestBid"`
	BestAsk        float64 `json:"bestAsk"`
	LastTradePrice float64 `json:"lastTradePrice"`
	LiquidityNum   float64 `json:"liquidityNum"`
	Volume24h      float64 `json:"volume24hr"`
	OpenInterest   float64 `json:"openInterest"`
	EndDate        string  `json:"endDate"`
	Active         bool    `json:"active"`
	Closed         bool    `json:"closed"`
	ClobTokenIDs   string  `json:"clobTokenIds"`
}

// Event groups markets in search results
type Event struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Closed  bool     `json:"closed"`
	Markets []Market `json:"markets"`
}

type searchResponse struct {
	Events []Event `json:"events"`
}

// outcomePrice returns the mid price listed for an outcome label ("Yes"/"No")
func (m Market) outcomePrice(label string) float64 {
	var names []string
	if err := json.Unmarshal([]byte(m.Outcomes), &names); err != nil {
		return 0
	}
	prices := parseStringList(m.OutcomePrices)
	for i, name := range names {
		if strings.EqualFold(name, label) && i < len(prices) {
			return prices[i]
		}
	}
	return 0
}

// isBinary reports whether the market has exactly the Yes/No outcomes
func (m Market) isBinary() bool {
	var names []string
	if err := json.Unmarshal([]byte(m.Outcomes), &names); err != nil || len(names) != 2 {
		return false
	}
	return strings.EqualFold(names[0], "yes") && strings.EqualFold(names[1], "no")
}

func (m Market) expiry() *time.Time {
	if m.EndDate == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, m.EndDate); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// parseStringList decodes `["0.4","0.6"]` into floats, skipping bad entries
func parseStringList(raw string) []float64 {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		v, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			v = 0
		}
		out = append(out, v)
	}
	return out
}
