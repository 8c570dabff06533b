package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/brain"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행",
	Long: `4단계 파이프라인을 순차적으로 실행합니다.

S0 → S1 → S2 → S3

각 단계:
- S0: Validate (스냅샷 캐시 검증)
- S1: Enrich (병합 + 시그널)
- S2: Scoring (티어 점수)
- S3: Watchlist (리스크 차단 + 태그)

앞 단계가 실패하면 이후 단계는 실행하지 않습니다.

Example:
  go run ./cmd/screener run
  go run ./cmd/screener run --strict`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	runConfig := brain.RunConfig{
		RunID:   fmt.Sprintf("cli-%s", time.Now().Format("20060102-150405")),
		Trigger: "cli",
		Strict:  a.config.Pipeline.StrictValidation,
	}

	fmt.Printf("🚀 Starting pipeline run: %s (strict=%v)\n", runConfig.RunID, runConfig.Strict)

	result, err := a.orchestrator().Run(cmd.Context(), runConfig)
	if result != nil {
		printRunResult(result)
	}
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	return nil
}
