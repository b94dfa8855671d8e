package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "상품 하나를 조회하고 $100 기준 프로파일 출력",
	Long: `단일 후보 상품의 시세를 조회하고 수익 프로파일로 정규화합니다.
점수 계산은 하지 않습니다.

Example:
  go run ./cmd/router quote --platform kalshi --ticker KXFED-25DEC-C25 --kind binary_yes
  go run ./cmd/router quote --platform hyperliquid --ticker ETH --kind perpetual --leverage 5 --direction short
  go run ./cmd/router quote --platform robinhood --ticker NVDA --kind option --strike 200 --right call --expiry 2026-01-16`,
	RunE: runQuote,
}

var (
	quotePlatform  string
	quoteTicker    string
	quoteKind      string
	quoteDirection string
	quoteLeverage  float64
	quoteStrike    float64
	quoteRight     string
	quoteExpiry    string
	quoteJSON      bool
)

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quotePlatform, "platform", "", "venue (kalshi|polymarket|hyperliquid|robinhood|angel)")
	quoteCmd.Flags().StringVar(&quoteTicker, "ticker", "", "venue ticker / slug / handle")
	quoteCmd.Flags().StringVar(&quoteKind, "kind", "", "instrument kind")
	quoteCmd.Flags().StringVar(&quoteDirection, "direction", "", "exposure direction (long|short)")
	quoteCmd.Flags().Float64Var(&quoteLeverage, "leverage", 0, "requested leverage (perpetuals)")
	quoteCmd.Flags().Float64Var(&quoteStrike, "strike", 0, "option strike")
	quoteCmd.Flags().StringVar(&quoteRight, "right", "", "option right (call|put)")
	quoteCmd.Flags().StringVar(&quoteExpiry, "expiry", "", "option expiry (YYYY-MM-DD)")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print quote and profile as JSON")

	quoteCmd.MarkFlagRequired("platform")
	quoteCmd.MarkFlagRequired("ticker")
	quoteCmd.MarkFlagRequired("kind")
}

func runQuote(cmd *cobra.Command, args []string) error {
	inst := contracts.CandidateInstrument{
		Platform:    quotePlatform,
		Ticker:      quoteTicker,
		Kind:        contracts.InstrumentKind(strings.ToLower(quoteKind)),
		Direction:   contracts.Direction(strings.ToLower(quoteDirection)),
		Leverage:    quoteLeverage,
		Strike:      quoteStrike,
		OptionRight: strings.ToLower(quoteRight),
	}
	if quoteExpiry != "" {
		t, err := time.Parse("2006-01-02", quoteExpiry)
		if err != nil {
			return fmt.Errorf("invalid --expiry (expected YYYY-MM-DD): %w", err)
		}
		inst.Expiry = &t
	}
	if err := inst.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Route.Timeout)
	defer cancel()

	q, p, err := a.router.Profile(ctx, inst)
	if err != nil {
		return fmt.Errorf("quote %s (%s): %w", inst.Name(), contracts.Classify(err), err)
	}

	if quoteJSON {
		return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{"quote": q, "profile": p})
	}
	PrintProfile(cmd.OutOrStdout(), q, p)
	return nil
}
