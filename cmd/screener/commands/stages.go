package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Single-stage commands: 개별 단계만 실행 (디버깅, 수동 재처리)
var (
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "S0: 스냅샷 캐시 검증",
		Long: `필수 스냅샷의 존재/비어있음/당일 여부를 확인합니다.

--strict 이면 누락/빈/이전 날짜 파일이 하나라도 있을 때 실패합니다.

Example:
  go run ./cmd/screener validate
  go run ./cmd/screener validate --strict`,
		RunE: runValidate,
	}

	enrichCmd = &cobra.Command{
		Use:   "enrich",
		Short: "S1: 스냅샷 병합 + 시그널 도출",
		Long: `universe(또는 당일 enriched)에 장중 스냅샷을 병합하고 시그널을 다시 계산합니다.

Output: enriched_<date>.json

Example:
  go run ./cmd/screener enrich`,
		RunE: runEnrich,
	}

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "S2: 티어 가중치 점수화",
		Long: `당일 enriched 문서를 점수화합니다.

Output: scored_<date>.json

Example:
  go run ./cmd/screener score`,
		RunE: runScore,
	}

	watchlistCmd = &cobra.Command{
		Use:   "watchlist",
		Short: "S3: 워치리스트 생성",
		Long: `당일 scored 문서에서 리스크 차단 후 태그를 붙여 워치리스트를 만듭니다.

Output: autowatchlist_<date>.json

Example:
  go run ./cmd/screener watchlist`,
		RunE: runWatchlist,
	}
)

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(watchlistCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	report, err := a.auditor().Audit(cmd.Context(), a.config.Pipeline.StrictValidation)
	if report != nil {
		printAuditReport(report)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess("Cache validation passed")
	return nil
}

func runEnrich(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	report, err := a.enricher().Run(cmd.Context())
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintStageHeader(contracts.StageEnrich, report.Date)
	PrintKeyValue("Base", report.Base, 10)
	PrintKeyValue("Tickers", fmt.Sprintf("%d", report.Tickers), 10)
	for _, step := range sortedKeys(report.Merged) {
		PrintKeyValue("Merged", fmt.Sprintf("%-18s %d", step, report.Merged[step]), 10)
	}
	if len(report.Skipped) > 0 {
		PrintKeyValue("Skipped", strings.Join(report.Skipped, ", "), 10)
	}
	if len(report.Failed) > 0 {
		PrintWarning("Failed steps (run continued): " + strings.Join(report.Failed, ", "))
	}
	PrintKeyValue("Output", filepath.Base(report.Output), 10)
	PrintKeyValue("Duration", report.Duration.String(), 10)
	PrintDoubleSeparator()

	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	report, err := a.scorer().Run(cmd.Context())
	if err != nil {
		PrintError(err.Error())
		return err
	}

	printStageReport(report)
	return nil
}

func runWatchlist(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	report, err := a.watchlist().Run(cmd.Context())
	if err != nil {
		PrintError(err.Error())
		return err
	}

	printStageReport(report)
	return nil
}
