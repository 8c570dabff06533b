package s0_snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// AuditConfig holds cache validation expectations
type AuditConfig struct {
	Expected         []Kind   // kinds that must exist, be non-empty and be from today
	SectorETFs       []string // every ETF expected in the sector quotes
	MinShortInterest int      // fewer entries → warning
}

// DefaultAuditConfig returns the expectations used before scoring
func DefaultAuditConfig(sectorETFs []string) AuditConfig {
	return AuditConfig{
		Expected: []Kind{
			KindUniverse,
			KindPostOpen,
			KindIntradayRange,
			KindMultiDayLevels,
			KindShortInterest,
		},
		SectorETFs:       sectorETFs,
		MinShortInterest: 50,
	}
}

// Auditor validates the snapshot cache before a pipeline run
// ⭐ SSOT: S0 → S1 캐시 검증
type Auditor struct {
	store  *Store
	config AuditConfig
	logger *logger.Logger
}

// NewAuditor creates a new auditor
func NewAuditor(store *Store, config AuditConfig, log *logger.Logger) *Auditor {
	return &Auditor{
		store:  store,
		config: config,
		logger: log,
	}
}

// Audit checks every expected snapshot
// strict: 누락/빈/오래된 파일이 하나라도 있으면 전체 목록을 담은 AuditError 반환
// lenient: 리포트만 반환하고 계속 진행
func (a *Auditor) Audit(ctx context.Context, strict bool) (*contracts.AuditReport, error) {
	report := &contracts.AuditReport{
		Strict:   strict,
		Files:    make([]contracts.FileStatus, 0, len(a.config.Expected)),
		Missing:  make([]string, 0),
		Empty:    make([]string, 0),
		Stale:    make([]string, 0),
		Warnings: make([]string, 0),
	}

	today := a.store.Today()

	for _, kind := range a.config.Expected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status := a.checkFile(kind, today)
		report.Files = append(report.Files, status)

		switch {
		case !status.Exists:
			report.Missing = append(report.Missing, kind.FileName(today))
		case status.Empty:
			report.Empty = append(report.Empty, filepath.Base(status.Path))
		case status.Stale:
			report.Stale = append(report.Stale, filepath.Base(status.Path))
		}
	}

	report.Warnings = append(report.Warnings, a.checkSectors()...)
	report.Warnings = append(report.Warnings, a.checkShortInterest(report.Files)...)

	a.logger.WithFields(map[string]interface{}{
		"stage":    contracts.StageValidate.ShortName(),
		"strict":   strict,
		"missing":  len(report.Missing),
		"empty":    len(report.Empty),
		"stale":    len(report.Stale),
		"warnings": len(report.Warnings),
	}).Info("Cache audit completed")

	for _, w := range report.Warnings {
		a.logger.WithField("warning", w).Warn("Cache audit warning")
	}

	if strict && (!report.OK() || len(report.Stale) > 0) {
		return report, &AuditError{
			Missing: report.Missing,
			Empty:   report.Empty,
			Stale:   report.Stale,
		}
	}

	return report, nil
}

func (a *Auditor) checkFile(kind Kind, today string) contracts.FileStatus {
	status := contracts.FileStatus{
		Kind:     string(kind),
		Required: kind == KindUniverse,
	}

	fi, err := a.store.Latest(kind)
	if err != nil {
		return status
	}

	status.Exists = true
	status.Path = fi.Path
	status.ModTime = fi.ModTime
	status.Stale = fi.Date != today

	entries, err := a.countEntries(kind, fi.Path)
	if err != nil {
		status.Empty = true
		return status
	}
	status.Entries = entries
	status.Empty = entries == 0

	return status
}

// countEntries counts tickers in a document, looking inside the tickers/candles envelope
func (a *Auditor) countEntries(kind Kind, path string) (int, error) {
	var raw map[string]json.RawMessage
	if err := a.store.ReadJSON(path, &raw); err != nil {
		return 0, err
	}

	envelope := ""
	switch kind {
	case KindPostOpen:
		envelope = "tickers"
	case KindIntradayRange:
		envelope = "candles"
	}

	if inner, ok := raw[envelope]; ok && envelope != "" {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(inner, &m); err != nil {
			return 0, fmt.Errorf("%s envelope: %w", envelope, ErrSnapshotMalformed)
		}
		return len(m), nil
	}

	n := 0
	for k := range raw {
		if k != "timestamp" && k != "sectors" {
			n++
		}
	}
	return n, nil
}

// checkSectors verifies every expected ETF has a quote (dedicated snapshot, else post-open)
func (a *Auditor) checkSectors() []string {
	if len(a.config.SectorETFs) == 0 {
		return nil
	}

	quotes, err := a.store.LoadSectors()
	if err != nil {
		post, postErr := a.store.LoadPostOpen()
		if postErr != nil {
			return []string{"no sector quotes available: sector rotation will be skipped"}
		}
		quotes = post.Sectors
	}

	missing := make([]string, 0)
	for _, etf := range a.config.SectorETFs {
		if _, ok := quotes[etf]; !ok {
			missing = append(missing, etf)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []string{fmt.Sprintf("sector quotes missing %d of %d ETFs: %v", len(missing), len(a.config.SectorETFs), missing)}
}

func (a *Auditor) checkShortInterest(files []contracts.FileStatus) []string {
	if a.config.MinShortInterest <= 0 {
		return nil
	}
	for _, f := range files {
		if f.Kind == string(KindShortInterest) && f.Exists && f.Entries < a.config.MinShortInterest {
			return []string{fmt.Sprintf("short interest has %d entries, expected at least %d", f.Entries, a.config.MinShortInterest)}
		}
	}
	return nil
}

// IsValidationFailure reports whether err came from strict validation
func IsValidationFailure(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}
