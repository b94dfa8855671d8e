package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/thesisrouter/internal/notify"
	"github.com/wonny/thesisrouter/internal/scheduler"
	"github.com/wonny/thesisrouter/internal/scheduler/jobs"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watchlist 주기적 재라우팅",
	Long: `WATCHLIST_FILE 의 thesis 들을 WATCH_SCHEDULE 마다 다시 라우팅하고,
승자가 바뀌면 Telegram (TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID) 으로 알립니다.
Telegram 이 설정되지 않으면 로그로만 남깁니다.

등록되는 작업:
- watchlist: WATCH_SCHEDULE (기본 15분마다)
- cache_cleanup: 5분마다 (만료된 검색 캐시 정리)

Example:
  go run ./cmd/router watch
  go run ./cmd/router watch --once
  go run ./cmd/router watch --file config/watchlist.yaml --schedule "0 0 * * * *"`,
	RunE: runWatch,
}

var (
	watchFile     string
	watchSchedule string
	watchOnce     bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFile, "file", "", "watchlist YAML (default: WATCHLIST_FILE)")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron expression with seconds (default: WATCH_SCHEDULE)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run one pass and exit")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{audit: true, kafka: true})
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	if watchFile == "" {
		watchFile = a.cfg.WatchlistFile
	}
	if watchSchedule == "" {
		watchSchedule = a.cfg.WatchSchedule
	}

	// 1. Notifier
	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if a.cfg.Telegram.BotToken != "" && a.cfg.Telegram.ChatID != "" {
		tg, err := notify.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, log)
		if err != nil {
			log.WithError(err).Warn("Telegram disabled, logging winner changes only")
		} else {
			notifier = tg
		}
	}

	// 2. Jobs
	watchJob := jobs.NewWatchlistJob(watchFile, watchSchedule, a.router, notifier, log)
	if _, err := jobs.LoadWatchlist(watchFile); err != nil {
		return err
	}

	sched := scheduler.New(log, scheduler.WithJobTimeout(a.cfg.Route.Timeout*10))
	if err := sched.AddJob(watchJob); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewCacheCleanupJob(log, a.searchCache)); err != nil {
		return err
	}

	if watchOnce {
		res, err := sched.RunJobSync(watchJob.Name())
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("watchlist pass failed: %s", res.Error)
		}
		fmt.Printf("✅ Watchlist pass completed in %s\n", res.Duration)
		return nil
	}

	sched.Start()
	// 시작 직후 baseline 기록
	if err := sched.RunJob(watchJob.Name()); err != nil {
		return err
	}

	fmt.Printf("✅ Watching %s on %q (Ctrl+C to stop)\n", watchFile, watchSchedule)
	<-ctx.Done()

	sched.Stop()
	for name, st := range sched.GetJobStats() {
		log.WithFields(map[string]interface{}{
			"job":          name,
			"total_runs":   st.TotalRuns,
			"failures":     st.FailureCount,
			"skipped":      st.SkippedCount,
			"success_rate": st.SuccessRate,
		}).Info("Job stats")
	}
	return nil
}
