package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Polymarket 에서 thesis 후보 검색",
	Long: `자유 텍스트로 활성 바이너리 마켓을 검색해 후보 상품 목록을 출력합니다.
결과는 5분간 캐시됩니다 (Redis 또는 프로세스 내부).

Example:
  go run ./cmd/router search "fed cut december"
  go run ./cmd/router search "bitcoin 150k" --side short --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchSide  string
	searchLimit int
	searchJSON  bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchSide, "side", "long", "thesis side (long → YES, short → NO)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum markets")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print candidates as a RouteRequest-ready JSON array")
}

func runSearch(cmd *cobra.Command, args []string) error {
	side := contracts.Direction(strings.ToLower(searchSide))
	if side != contracts.DirectionLong && side != contracts.DirectionShort {
		return fmt.Errorf("--side must be long or short")
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	cands, err := a.polymarket.Candidates(ctx, query, side, searchLimit)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		return PrintJSON(out, cands)
	}
	if len(cands) == 0 {
		PrintWarning(fmt.Sprintf("No active binary markets for %q", query))
		return nil
	}

	PrintDoubleSeparator(out)
	fmt.Fprintf(out, "  %q → %d candidates\n", query, len(cands))
	PrintSeparator(out)
	for i, c := range cands {
		fmt.Fprintf(out, "%2d. %s\n", i+1, c.Name())
	}
	PrintDoubleSeparator(out)
	return nil
}
