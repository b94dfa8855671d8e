package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "router",
	Short: "Thesis router - thesis → instrument return normalization & ranking",
	Long: `Thesis Router CLI

하나의 thesis 를 여러 venue (Kalshi, Polymarket, Hyperliquid, Robinhood, AngelList)
의 후보 상품으로 동시에 조회하고, $100 기준 수익 프로파일로 정규화한 뒤
convexity × thesis beta 점수로 순위를 매겨 최적의 표현을 고릅니다.

Usage:
  go run ./cmd/router [command]

Examples:
  go run ./cmd/router route -f request.json
  go run ./cmd/router quote --platform hyperliquid --ticker BTC --kind perpetual --leverage 3
  go run ./cmd/router search "fed cut december"
  go run ./cmd/router api
  go run ./cmd/router watch`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "scoring policy YAML (default: STRATEGY_FILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
