package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/s0_snapshot"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "스냅샷 캐시 상태",
	Long: `종류별 최신 스냅샷 파일과 수정 후 경과 시간을 표시합니다.

--refresh 를 주면 주기적으로 갱신하며 Ctrl+C로 종료합니다.

Example:
  go run ./cmd/screener status
  go run ./cmd/screener status --refresh 5s`,
	RunE: runStatus,
}

var (
	// Status flags
	statusRefresh time.Duration
)

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().DurationVar(&statusRefresh, "refresh", 0, "갱신 간격 (0 = 한 번만 출력)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	if err := displayStatus(a.store); err != nil {
		return err
	}
	if statusRefresh <= 0 {
		return nil
	}

	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			fmt.Println("\n✅ Status monitor stopped")
			return nil

		case <-ticker.C:
			// Clear screen (ANSI escape code)
			fmt.Print("\033[H\033[2J")
			if err := displayStatus(a.store); err != nil {
				return err
			}
		}
	}
}

func displayStatus(store *s0_snapshot.Store) error {
	stamps, err := store.Timestamps()
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	now := store.Now()
	today := store.Today()

	fmt.Println("=== Snapshot Cache Status ===")
	fmt.Printf("Dir: %s | Today: %s | Now: %s\n\n", store.Dir(), today, now.Format("15:04:05 MST"))

	widths := []int{16, 36, 10, 6}
	PrintTableHeader([]string{"KIND", "FILE", "AGE", "TODAY"}, widths)
	for _, kind := range s0_snapshot.AllKinds() {
		fi, ok := stamps[kind]
		if !ok {
			PrintTableRow([]string{string(kind), "-", "-", "❌"}, widths)
			continue
		}
		current := "✅"
		if fi.Date != today {
			current = "⚠️"
		}
		PrintTableRow([]string{string(kind), filepath.Base(fi.Path), formatAge(now.Sub(fi.ModTime)), current}, widths)
	}
	fmt.Println()

	return nil
}
