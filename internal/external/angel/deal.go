package angel

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// Deal is the parsed state of one private offering
type Deal struct {
	ID            string
	Name          string
	Valuation     float64
	MinInvestment float64
	Raised        float64
	Target        float64
	ClosesAt      *time.Time
	Closed        bool
}

// Remaining is the allocation still open to new investors
func (d *Deal) Remaining() float64 {
	return math.Max(0, d.Target-d.Raised)
}

// parseDeal reads the data-field annotated deal summary
func parseDeal(r io.Reader) (*Deal, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse deal page: %v", contracts.ErrUpstream, err)
	}

	field := func(name string) string {
		return strings.TrimSpace(doc.Find(fmt.Sprintf(`[data-field=%q]`, name)).First().Text())
	}

	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	if name == "" && doc.Find("[data-field]").Length() == 0 {
		return nil, fmt.Errorf("%w: not a deal page", contracts.ErrNotFound)
	}

	deal := &Deal{
		Name:          name,
		Valuation:     parseMoney(field("valuation")),
		MinInvestment: parseMoney(field("min-investment")),
		Raised:        parseMoney(field("raised")),
		Target:        parseMoney(field("target")),
	}

	status := strings.ToLower(field("status"))
	deal.Closed = status == "closed" || status == "funded"

	if raw := field("closes-at"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			deal.ClosesAt = &t
		}
	}

	return deal, nil
}

// parseMoney understands "$25,000,000", "$25M", "$1.2B" and "$500K"
func parseMoney(s string) float64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", ",", "", "USD", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "B"):
		multiplier, s = 1e9, strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		multiplier, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		multiplier, s = 1e3, strings.TrimSuffix(s, "K")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * multiplier
}
