package s0_snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/screener/backend/pkg/logger"
)

// SweepResult summarizes one janitor pass
type SweepResult struct {
	Deleted []string `json:"deleted"`
	Kept    int      `json:"kept"`
	Errors  []string `json:"errors,omitempty"`
}

// Janitor removes dated snapshots older than the retention window
type Janitor struct {
	store  *Store
	logger *logger.Logger
}

// NewJanitor creates a new janitor
func NewJanitor(store *Store, log *logger.Logger) *Janitor {
	return &Janitor{
		store:  store,
		logger: log,
	}
}

// Sweep deletes dated files whose date is older than retention, plus abandoned temp files
// 날짜 없는 종류(multi_day_levels, short_interest)는 덮어쓰기 방식이라 삭제하지 않음
func (j *Janitor) Sweep(ctx context.Context, retention time.Duration, dryRun bool) (*SweepResult, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be > 0, got %s", retention)
	}

	result := &SweepResult{Deleted: make([]string, 0)}
	now := j.store.Now()
	cutoff := now.Add(-retention).Format(DateLayout)

	for _, kind := range AllKinds() {
		if !kind.Dated() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		files, err := j.store.List(kind)
		if err != nil {
			return result, fmt.Errorf("list %s: %w", kind, err)
		}

		for _, f := range files {
			if f.Date >= cutoff {
				result.Kept++
				continue
			}
			j.remove(f.Path, dryRun, result)
		}
	}

	// 중단된 원자적 쓰기의 잔여 임시 파일
	entries, err := os.ReadDir(j.store.Dir())
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), TempPrefix) {
				continue
			}
			info, err := entry.Info()
			if err != nil || now.Sub(info.ModTime()) < time.Hour {
				continue
			}
			j.remove(filepath.Join(j.store.Dir(), entry.Name()), dryRun, result)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":  cutoff,
		"deleted": len(result.Deleted),
		"kept":    result.Kept,
		"errors":  len(result.Errors),
		"dry_run": dryRun,
	}).Info("Snapshot sweep completed")

	return result, nil
}

func (j *Janitor) remove(path string, dryRun bool, result *SweepResult) {
	if dryRun {
		result.Deleted = append(result.Deleted, path)
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
		j.logger.WithError(err).WithField("path", path).Warn("Failed to delete snapshot")
		return
	}
	result.Deleted = append(result.Deleted, path)
}
