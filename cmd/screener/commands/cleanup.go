package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "스냅샷 캐시 정리",
	Long: `보존 기간(기본 SNAPSHOT_RETENTION=120h)보다 오래된 날짜별 스냅샷과
남아 있는 임시 파일(.tmp-*)을 삭제합니다.

날짜 없는 스냅샷(multi_day_levels.json, short_interest.json)은 삭제하지 않습니다.

Example:
  go run ./cmd/screener cleanup --dry-run
  go run ./cmd/screener cleanup --retention 72h`,
	RunE: runCleanup,
}

var (
	cleanupRetention time.Duration
	cleanupDryRun    bool
)

func init() {
	rootCmd.AddCommand(cleanupCmd)

	// Flags
	cleanupCmd.Flags().DurationVar(&cleanupRetention, "retention", 0, "보존 기간 (기본: SNAPSHOT_RETENTION)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "삭제 대상만 출력")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Snapshot Cache Cleanup ===")

	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	retention := a.config.Cache.Retention
	if cleanupRetention > 0 {
		retention = cleanupRetention
	}

	result, err := a.janitor().Sweep(cmd.Context(), retention, cleanupDryRun)
	if err != nil {
		return fmt.Errorf("❌ Failed to sweep cache: %w", err)
	}

	if len(result.Deleted) == 0 {
		PrintSuccess("No snapshots to clean up")
		return nil
	}

	verb := "Deleted"
	if cleanupDryRun {
		verb = "Would delete"
	}

	fmt.Printf("🗑️ %s %d files (retention %s)\n", verb, len(result.Deleted), retention)
	for _, path := range result.Deleted {
		fmt.Printf("   • %s\n", filepath.Base(path))
	}
	fmt.Printf("📊 Remaining snapshots: %d\n", result.Kept)

	for _, e := range result.Errors {
		PrintError(e)
	}

	PrintSuccess("Cleanup complete!")
	return nil
}
