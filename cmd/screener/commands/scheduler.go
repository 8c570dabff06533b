package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/scheduler"
	"github.com/wonny/screener/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 등록된 작업을 조회합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler list`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업 (America/New_York, 평일):
- pipeline: 09:35:55, 09:46:30, 09:50, 09:55, 10:00-15:55 5분 간격, 16:00
- cache_cleanup: 매일 20:30 (보존 기간 지난 스냅샷 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Screener Scheduler ===")

	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printNextRuns(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// 다음 실행 시각 계산을 위해 잠시 시작
	sched.Start()
	defer sched.Stop()

	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("📊 %s\n", name)
		PrintList(stats[name].Schedules)
		if stats[name].LastError != "" {
			PrintWarning("Last error: " + stats[name].LastError)
		}
	}
	printNextRuns(sched)

	return nil
}

func printNextRuns(sched *scheduler.Scheduler) {
	next := sched.NextRuns()

	fmt.Println("\nNext runs:")
	for _, name := range sched.GetAllJobs() {
		t, ok := next[name]
		if !ok {
			continue
		}
		PrintKeyValue(name, fmt.Sprintf("%s (in %s)", t.Format("2006-01-02 15:04:05 MST"), time.Until(t).Round(time.Second)), 14)
	}
}

func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.config.Location(), a.logger)

	// Register jobs
	if err := sched.AddJob(jobs.NewPipelineJob(a.orchestrator(), a.config.Pipeline.StrictValidation, a.logger)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewCacheCleanupJob(a.janitor(), a.config.Cache.Retention, a.logger)); err != nil {
		return nil, err
	}

	return sched, nil
}
