package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wonny/screener/backend/internal/brain"
	"github.com/wonny/screener/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintStageHeader prints a formatted stage header
func PrintStageHeader(stage contracts.Stage, date string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s  %s\n", stage.ShortName(), stage)
	PrintSeparator()
	fmt.Printf("  Date      : %s\n", date)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

func printAuditReport(report *contracts.AuditReport) {
	PrintStageHeader(contracts.StageValidate, "")
	PrintKeyValue("Strict", fmt.Sprintf("%v", report.Strict), 10)

	widths := []int{16, 8, 8, 8}
	PrintTableHeader([]string{"KIND", "EXISTS", "ENTRIES", "STALE"}, widths)
	for _, f := range report.Files {
		exists := "✅"
		if !f.Exists {
			exists = "❌"
		}
		stale := ""
		if f.Stale {
			stale = "⚠️"
		}
		PrintTableRow([]string{f.Kind, exists, fmt.Sprintf("%d", f.Entries), stale}, widths)
	}

	if len(report.Missing) > 0 {
		PrintWarning("Missing: " + strings.Join(report.Missing, ", "))
	}
	if len(report.Empty) > 0 {
		PrintWarning("Empty: " + strings.Join(report.Empty, ", "))
	}
	if len(report.Stale) > 0 {
		PrintWarning("Stale: " + strings.Join(report.Stale, ", "))
	}
	for _, w := range report.Warnings {
		PrintWarning(w)
	}
	PrintDoubleSeparator()
}

func printStageReport(report *contracts.StageReport) {
	PrintStageHeader(report.Stage, report.Date)
	PrintKeyValue("Input", fmt.Sprintf("%d", report.Input), 10)
	PrintKeyValue("Output", fmt.Sprintf("%d", report.Output), 10)
	PrintKeyValue("File", filepath.Base(report.Path), 10)
	PrintKeyValue("Duration", report.Duration.String(), 10)
	PrintDoubleSeparator()
}

func printRunResult(result *brain.RunResult) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Pipeline Run %s\n", result.RunID)
	PrintSeparator()
	PrintKeyValue("Stages", strings.Join(result.CompletedStages, " → "), 10)
	if result.Enrich != nil {
		PrintKeyValue("Enriched", fmt.Sprintf("%d (base: %s)", result.Enrich.Tickers, result.Enrich.Base), 10)
		if len(result.Enrich.Failed) > 0 {
			PrintKeyValue("Failed", strings.Join(result.Enrich.Failed, ", "), 10)
		}
	}
	if result.Scoring != nil {
		PrintKeyValue("Scored", fmt.Sprintf("%d", result.Scoring.Output), 10)
	}
	if result.Watchlist != nil {
		PrintKeyValue("Watchlist", fmt.Sprintf("%d", result.Watchlist.Output), 10)
	}
	PrintKeyValue("Duration", result.Duration.Round(time.Millisecond).String(), 10)
	PrintSeparator()

	if result.Success {
		PrintSuccess("Pipeline completed")
	} else {
		if result.Audit != nil && !result.Audit.OK() {
			PrintWarning("Missing: " + strings.Join(result.Audit.Missing, ", "))
		}
		PrintError(result.Error)
	}
}

// formatAge renders a duration as "42s", "5m", "3h12m", "2d"
func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
