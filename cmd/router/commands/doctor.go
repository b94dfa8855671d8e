package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/wonny/thesisrouter/pkg/config"
	"github.com/wonny/thesisrouter/pkg/database"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "설정 및 외부 연결 점검",
	Long: `설정을 로드하고 선택적 의존성 연결 상태를 표시합니다.

이 명령어는:
- 환경변수 / 전략 파일 로드
- Redis 연결 (REDIS_ENABLED)
- 감사 DB 연결 + Health Check (DATABASE_URL)
- Kafka 브로커 연결 (KAFKA_BROKERS)
- handle → id 저장소 경로

Example:
  go run ./cmd/router doctor
  go run ./cmd/router doctor --strategy config/strategy/router_policy.yaml`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Thesis Router Doctor ===")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer a.Close()

	cfg := a.cfg
	fmt.Fprintf(out, "✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Fprintf(out, "   Strategy     : %s (%s)\n", a.strategy.Meta.StrategyID, a.configHash[:12])
	fmt.Fprintf(out, "   Platforms    : %v\n", a.router.Platforms())
	fmt.Fprintf(out, "   Route timeout: %s, concurrency %d\n", cfg.Route.Timeout, cfg.Route.Concurrency)
	fmt.Fprintf(out, "   Lookup store : %s\n", a.lookup.Path())

	switch {
	case a.redis.Enabled():
		fmt.Fprintf(out, "✅ Redis %s:%s\n", cfg.Redis.Host, cfg.Redis.Port)
	case cfg.Redis.Enabled:
		fmt.Fprintf(out, "❌ Redis %s:%s unreachable (in-process cache)\n", cfg.Redis.Host, cfg.Redis.Port)
	default:
		fmt.Fprintln(out, "⚪ Redis disabled (in-process cache)")
	}

	if cfg.Database.Enabled() {
		checkDatabase(ctx, out, cfg)
	} else {
		fmt.Fprintln(out, "⚪ Audit DB disabled (DATABASE_URL not set)")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		conn, err := kafka.DialContext(ctx, "tcp", cfg.Kafka.Brokers[0])
		if err != nil {
			fmt.Fprintf(out, "❌ Kafka %s: %v\n", cfg.Kafka.Brokers[0], err)
		} else {
			conn.Close()
			fmt.Fprintf(out, "✅ Kafka %s → topic %s\n", cfg.Kafka.Brokers[0], cfg.Kafka.Topic)
		}
	} else {
		fmt.Fprintln(out, "⚪ Kafka disabled (KAFKA_BROKERS not set)")
	}

	if cfg.OpenAI.APIKey != "" && a.strategy.Judge.UseLLM {
		fmt.Fprintf(out, "✅ LLM judge (%s)\n", cfg.OpenAI.Model)
	} else {
		fmt.Fprintln(out, "⚪ LLM judge disabled (rule-based)")
	}

	return nil
}

// checkDatabase connects once and reports pool health
func checkDatabase(ctx context.Context, out io.Writer, cfg *config.Config) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(out, "❌ Audit DB %s: %v\n", maskURL(cfg.Database.URL), err)
		return
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ Audit DB %s: %v\n", maskURL(cfg.Database.URL), err)
		return
	}
	fmt.Fprintf(out, "✅ Audit DB %s (%s, %d/%d conns)\n",
		maskURL(cfg.Database.URL), status.ResponseTime, status.AcquiredConns, status.MaxConns)
}

// maskURL hides the password in a connection URL for display
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
