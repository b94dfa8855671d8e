package yahoo

import (
	"strings"
	"time"
)

// chartResponse is the envelope of GET /v8/finance/chart/{symbol}
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartMeta struct {
	Currency           string  `json:"currency"`
	Symbol             string  `json:"symbol"`
	InstrumentType     string  `json:"instrumentType"`
	LongName           string  `json:"longName"`
	ShortName          string  `json:"shortName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

// Chart is a parsed daily price history
type Chart struct {
	Symbol string
	Name   string
	Price  float64
	Closes []float64 // oldest first, gaps dropped
	Volume []float64 // aligned with Closes
}

// toChart drops bars with a missing close
func (r chartResult) toChart() Chart {
	chart := Chart{
		Symbol: r.Meta.Symbol,
		Name:   firstNonEmpty(r.Meta.LongName, r.Meta.ShortName, r.Meta.Symbol),
		Price:  r.Meta.RegularMarketPrice,
	}
	if len(r.Indicators.Quote) == 0 {
		return chart
	}

	q := r.Indicators.Quote[0]
	for i, c := range q.Close {
		if c == nil || *c <= 0 {
			continue
		}
		chart.Closes = append(chart.Closes, *c)
		var v float64
		if i < len(q.Volume) && q.Volume[i] != nil {
			v = *q.Volume[i]
		}
		chart.Volume = append(chart.Volume, v)
	}
	if chart.Price <= 0 && len(chart.Closes) > 0 {
		chart.Price = chart.Closes[len(chart.Closes)-1]
	}
	return chart
}

// AverageDollarVolume is the mean close × volume over the last n bars
func (c Chart) AverageDollarVolume(n int) float64 {
	if len(c.Closes) == 0 || n <= 0 {
		return 0
	}
	start := len(c.Closes) - n
	if start < 0 {
		start = 0
	}
	var sum float64
	for i := start; i < len(c.Closes); i++ {
		sum += c.Closes[i] * c.Volume[i]
	}
	return sum / float64(len(c.Closes)-start)
}

// optionsResponse is the envelope of GET /v7/finance/options/{symbol}
type optionsResponse struct {
	OptionChain struct {
		Result []optionChain `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"optionChain"`
}

type optionChain struct {
	UnderlyingSymbol string    `json:"underlyingSymbol"`
	ExpirationDates  []int64   `json:"expirationDates"`
	Strikes          []float64 `json:"strikes"`
	Quote            struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"quote"`
	Options []struct {
		ExpirationDate int64            `json:"expirationDate"`
		Calls          []OptionContract `json:"calls"`
		Puts           []OptionContract `json:"puts"`
	} `json:"options"`
}

// OptionContract is one listed option
type OptionContract struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            float64 `json:"volume"`
	OpenInterest      float64 `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	Expiration        int64   `json:"expiration"`
}

// premium prefers the ask, then the last trade
func (o OptionContract) premium() float64 {
	if o.Ask > 0 {
		return o.Ask
	}
	return o.LastPrice
}

// pickExpiration returns the first listed expiration on or after want,
// or the nearest one when want is nil
func pickExpiration(dates []int64, want *time.Time) (int64, bool) {
	if len(dates) == 0 {
		return 0, false
	}
	if want == nil {
		return dates[0], true
	}
	day := time.Date(want.Year(), want.Month(), want.Day(), 0, 0, 0, 0, time.UTC).Unix()
	for _, d := range dates {
		if d >= day {
			return d, true
		}
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
