package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/thesisrouter/internal/api"
	"github.com/wonny/thesisrouter/internal/api/handlers"
	"github.com/wonny/thesisrouter/internal/api/ws"
	"github.com/wonny/thesisrouter/internal/audit"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health             - Health check
  POST /api/route          - Thesis 라우팅
  POST /api/quote          - 단일 상품 정규화
  GET  /api/search         - Polymarket 후보 검색
  GET  /api/platforms      - 등록된 venue 목록
  GET  /api/runs           - 라우팅 이력 (DATABASE_URL 필요)
  GET  /api/runs/summary   - 라우팅 통계 (DATABASE_URL 필요)
  GET  /api/runs/{id}      - 라우팅 결과 조회 (DATABASE_URL 필요)
  GET  /ws                 - 라우팅 결과 스트림 (websocket)

Example:
  go run ./cmd/router api
  go run ./cmd/router api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Thesis Router API Server ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire core + audit + kafka
	a, err := newApp(ctx, appOptions{audit: true, kafka: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	// 2. Websocket hub (also a result sink)
	hub := ws.NewHub(log)
	go hub.Run(ctx)
	a.router.WithSinks(hub)

	// 3. Handlers
	h := api.Handlers{
		Route: handlers.NewRouteHandler(a.router, a.polymarket, log),
		Hub:   hub,
	}
	if a.auditRepo != nil {
		h.Runs = handlers.NewRunsHandler(a.auditRepo, audit.NewAnalyzer(a.auditRepo, log), log)
	}

	// 4. Server
	server := api.New(a.cfg, log, api.NewRouter(h, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
