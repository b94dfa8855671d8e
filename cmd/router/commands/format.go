package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRouteResult renders a routing pass as a ranked table
func PrintRouteResult(w io.Writer, thesis contracts.Thesis, res *contracts.RouteResult) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", thesis.Claim)
	PrintSeparator(w)
	fmt.Fprintf(w, "  Thesis    : %s (%s)\n", thesis.ID, orDash(string(thesis.Direction)))
	fmt.Fprintf(w, "  Run ID    : %s\n", res.RunID)
	fmt.Fprintf(w, "  Duration  : %s\n", res.Duration.Round(time.Millisecond))
	PrintSeparator(w)

	if res.HasWinner() {
		fmt.Fprintf(w, "✅ Winner: %s on %s (score %.3f)\n", res.Winner.Name, res.Winner.Platform, res.Winner.Score)
	} else {
		fmt.Fprintf(w, "⚪ No trade: %s\n", res.Reason)
	}
	if o := res.Override; o != nil && o.Replaced {
		fmt.Fprintf(w, "   cross-class override: %s (%.3f) over %s (%.3f)\n", o.ChallengerName, o.ChallengerScore, o.HomeName, o.HomeScore)
	}
	if res.WeakConnection {
		fmt.Fprintln(w, "⚠️  weak thesis connection")
	}
	if res.Rediscovered {
		fmt.Fprintln(w, "   (winner found by rediscovery)")
	}

	if len(res.Ranked) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tNAME\tPLATFORM\tBETA\tCONVEXITY\tTIME COST\tSCORE\tRIGHT\tWRONG\tSTATUS")
		for _, sc := range res.Ranked {
			rank := "-"
			if sc.Rank > 0 {
				rank = fmt.Sprintf("%d", sc.Rank)
			}
			right, wrong := "-", "-"
			if p := sc.Profile; p != nil {
				right = fmt.Sprintf("%+.1f%%", p.ReturnIfRightPct)
				wrong = fmt.Sprintf("%+.1f%%", p.ReturnIfWrongPct)
			}
			status := "ok"
			if sc.Disqualified {
				status = string(sc.DisqualifyReason)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.3f\t%.3f\t%s\t%s\t%s\n",
				rank, sc.Name, sc.Platform, sc.ThesisBeta, sc.Convexity, sc.TimeCost, sc.Score, right, wrong, status)
		}
		tw.Flush()
	}

	if len(res.Dropped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Dropped:")
		for _, d := range res.Dropped {
			fmt.Fprintf(w, "  - %s [%s] %s\n", d.Instrument.Name(), d.Reason, d.Error)
		}
	}
	PrintDoubleSeparator(w)
}

// PrintProfile renders a single normalized quote
func PrintProfile(w io.Writer, q *contracts.RawQuote, p *contracts.ReturnProfile) {
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s %s (%s)\n", p.Platform, p.Ticker, p.Kind)
	if q != nil && q.Title != "" {
		fmt.Fprintf(w, "  %s\n", q.Title)
	}
	PrintSeparator(w)
	fmt.Fprintf(w, "  Right       : %+.2f%%\n", p.ReturnIfRightPct)
	fmt.Fprintf(w, "  Wrong       : %+.2f%%\n", p.ReturnIfWrongPct)
	fmt.Fprintf(w, "  Convexity   : %.3f (raw)\n", p.RawConvexity())
	if p.IsBinaryLeverage() {
		fmt.Fprintln(w, "  Leverage    : binary")
	} else {
		fmt.Fprintf(w, "  Leverage    : %.2fx\n", p.Leverage)
	}
	fmt.Fprintf(w, "  Time cost   : %.4f /yr\n", p.TimeCost)
	fmt.Fprintf(w, "  Horizon     : %s\n", p.TimeHorizon)
	fmt.Fprintf(w, "  Liquidity   : %s (ok=%t)\n", p.LiquidityTier, p.LiquidityOK)
	if p.MarketImpliedProb != nil {
		fmt.Fprintf(w, "  Implied prob: %.1f%%\n", *p.MarketImpliedProb*100)
	}
	if p.Expiry != nil {
		fmt.Fprintf(w, "  Expiry      : %s\n", p.Expiry.Format("2006-01-02 15:04 MST"))
	}

	if len(p.ExecutionDetails) > 0 {
		PrintSeparator(w)
		keys := make([]string, 0, len(p.ExecutionDetails))
		for k := range p.ExecutionDetails {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-18s %v\n", k+":", p.ExecutionDetails[k])
		}
	}
	PrintDoubleSeparator(w)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "\n⚠️  %s\n\n", message)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
