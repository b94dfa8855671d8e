package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/thesisrouter/internal/contracts"
)

// routeCmd represents the route command
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Thesis 하나를 라우팅",
	Long: `RouteRequest JSON 을 읽어 모든 후보를 동시에 조회하고 순위를 출력합니다.

입력 형식:
  {
    "thesis": {"id": "fed-cut", "claim": "...", "direction": "long"},
    "candidates": [
      {"platform": "kalshi", "ticker": "KXFED-25DEC-C25", "instrument_kind": "binary_yes"},
      {"platform": "hyperliquid", "ticker": "BTC", "instrument_kind": "perpetual", "leverage": 3}
    ]
  }

Example:
  go run ./cmd/router route -f request.json
  cat request.json | go run ./cmd/router route --json`,
	RunE: runRoute,
}

var (
	routeFile    string
	routeJSON    bool
	routePublish bool
)

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().StringVarP(&routeFile, "file", "f", "-", "request JSON file ('-' = stdin)")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "print the raw RouteResult JSON")
	routeCmd.Flags().BoolVar(&routePublish, "publish", false, "record the run (audit DB, Kafka) when configured")
}

func runRoute(cmd *cobra.Command, args []string) error {
	req, err := readRouteRequest(cmd.InOrStdin(), routeFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{audit: routePublish, kafka: routePublish})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.router.Route(ctx, req)
	if err != nil {
		return fmt.Errorf("route: %w", err)
	}

	out := cmd.OutOrStdout()
	if routeJSON {
		return PrintJSON(out, result)
	}
	PrintRouteResult(out, req.Thesis, result)
	return nil
}

func readRouteRequest(stdin io.Reader, path string) (contracts.RouteRequest, error) {
	var req contracts.RouteRequest

	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, req.Validate()
}
