package kalshi

import "time"

// marketResponse is the envelope of GET /markets/{ticker}
type marketResponse struct {
	Market Market `json:"market"`
}

// Market is the subset of the Kalshi market object the adapter reads.
// All prices are in cents (1-99); liquidity is in cents.
type Market struct {
	Ticker         string    `json:"ticker"`
	EventTicker    string    `json:"event_ticker"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	YesBid         int64     `json:"yes_bid"`
	YesAsk         int64     `json:"yes_ask"`
	NoBid          int64     `json:"no_bid"`
	NoAsk          int64     `json:"no_ask"`
	LastPrice      int64     `json:"last_price"`
	Volume         int64     `json:"volume"`
	Volume24h      int64     `json:"volume_24h"`
	OpenInterest   int64     `json:"open_interest"`
	Liquidity      int64     `json:"liquidity"`
	CloseTime      time.Time `json:"close_time"`
	ExpirationTime time.Time `json:"expiration_time"`
}

// tradable reports whether new orders are accepted
func (m Market) tradable() bool {
	switch m.Status {
	case "", "open", "active", "initialized":
		return true
	default:
		return false
	}
}

// expiry prefers close_time: trading stops there even if settlement is later
func (m Market) expiry() *time.Time {
	for _, t := range []time.Time{m.CloseTime, m.ExpirationTime} {
		if !t.IsZero() {
			ts := t.UTC()
			return &ts
		}
	}
	return nil
}
