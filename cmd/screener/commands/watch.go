package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/watch"
	"github.com/wonny/screener/backend/pkg/redis"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "스냅샷 변경 감시 → 파이프라인 자동 실행",
	Long: `캐시 디렉터리를 감시하다가 장중 스냅샷이 갱신되면 전체 파이프라인을 실행합니다.

트리거 키:
- post_open_signals_
- 945_signals_
- short_interest
- multi_day_levels

키별 쿨다운(기본 WATCH_COOLDOWN=60s) 내 재트리거는 무시합니다.
REDIS_ENABLED=true 이면 쿨다운을 여러 프로세스가 공유합니다.

Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/screener watch
  go run ./cmd/screener watch --cooldown 30s`,
	RunE: runWatch,
}

var (
	watchCooldown time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	// Flags
	watchCmd.Flags().DurationVar(&watchCooldown, "cooldown", 0, "키별 쿨다운 (기본: WATCH_COOLDOWN)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	opts := watch.Options{
		Cooldown: a.config.Pipeline.WatchCooldown,
		Strict:   a.config.Pipeline.StrictValidation,
	}
	if watchCooldown > 0 {
		opts.Cooldown = watchCooldown
	}

	// Shared cooldown (optional)
	client, err := redis.New(a.config)
	if err != nil {
		a.logger.WithError(err).Warn("Redis unavailable, using local cooldown only")
	} else {
		defer client.Close()
		if client.Enabled() {
			opts.Shared = redis.NewRateLimiter(client, "screener")
		}
	}

	w := watch.New(a.store.Dir(), a.orchestrator(), opts, a.metrics, a.logger)

	fmt.Printf("👀 Watching %s (cooldown %s)\n", a.store.Dir(), opts.Cooldown)
	fmt.Println("Press Ctrl+C to stop")

	if err := w.Run(cmd.Context()); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	fmt.Println("\nWatcher stopped")
	return nil
}
