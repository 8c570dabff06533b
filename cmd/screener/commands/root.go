package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cacheDir     string
	strategyPath string
	strict       bool
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Intraday screener - 장 초반 스냅샷 기반 종목 스크리너",
	Long: `Intraday Screener Unified CLI

스냅샷 캐시 디렉터리의 JSON 문서를 읽어 4단계 파이프라인을 실행합니다.
S0 Validate → S1 Enrich → S2 Scoring → S3 Watchlist

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener run
  go run ./cmd/screener run --strict
  go run ./cmd/screener validate
  go run ./cmd/screener watch
  go run ./cmd/screener api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancels cmd.Context() for long-running commands.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags (환경변수보다 우선)
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "snapshot cache directory (default: CACHE_DIR)")
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML (default: STRATEGY_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "strict cache validation (default: STRICT_VALIDATION)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
