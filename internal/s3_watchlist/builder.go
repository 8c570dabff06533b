package s3_watchlist

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/strategyconfig"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

// Builder implements S3: risk gate + tags over the scored universe
// ⭐ SSOT: S3 워치리스트 선정은 여기서만
// 점수/시그널은 재계산하지 않음 (S2 결과의 후처리)
type Builder struct {
	store   *s0_snapshot.Store
	config  *strategyconfig.Config
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewBuilder creates a new watchlist builder
func NewBuilder(store *s0_snapshot.Store, cfg *strategyconfig.Config, rec *metrics.Recorder, log *logger.Logger) *Builder {
	return &Builder{
		store:   store,
		config:  cfg,
		metrics: rec,
		logger:  log,
	}
}

// Build returns tagged copies of every non-blocked ticker at or above the watchlist threshold
func (b *Builder) Build(scored *contracts.ScoredUniverse) *contracts.Watchlist {
	wl := &contracts.Watchlist{Entries: make([]*contracts.ScoredTicker, 0, len(scored.Tickers))}
	riskSignals := b.config.Tiers.RiskSignals()

	blocked := 0
	for _, t := range scored.Tickers {
		entry := t.Clone()

		// 2차 차단 판정: S2가 기록한 값과 무관하게 리스크 시그널로 재판정
		entry.IsBlocked = isBlocked(entry.Signals, riskSignals)
		if entry.IsBlocked {
			blocked++
			continue
		}
		if entry.Score < b.config.Watchlist.MinScore {
			continue
		}

		entry.Tags = b.tags(entry)
		wl.Entries = append(wl.Entries, entry)
	}

	b.logger.WithFields(map[string]interface{}{
		"stage":   contracts.StageWatchlist.ShortName(),
		"input":   len(scored.Tickers),
		"entries": len(wl.Entries),
		"blocked": blocked,
	}).Debug("Watchlist pass")

	return wl
}

func isBlocked(signals contracts.Signals, risk []string) bool {
	for _, name := range risk {
		if signals.Truthy(name) {
			return true
		}
	}
	return false
}

// tags keeps upstream tags and adds Strong Setup / Squeeze Watch / Early Watch
func (b *Builder) tags(t *contracts.ScoredTicker) []string {
	tags := make([]string, 0, len(t.Tags)+3)
	add := func(tag string) {
		for _, existing := range tags {
			if existing == tag {
				return
			}
		}
		tags = append(tags, tag)
	}
	for _, tag := range t.Tags {
		add(tag)
	}

	core := 0
	for _, name := range b.config.Watchlist.StrongSetupSignals {
		if t.Signals.Truthy(name) {
			core++
		}
	}
	if core >= b.config.Watchlist.StrongSetupMin {
		add(strategyconfig.TagStrongSetup)
	}
	if t.Signals.Truthy(contracts.SignalSqueezeWatch) {
		add(strategyconfig.TagSqueezeWatch)
	}
	if t.Signals.Truthy(contracts.SignalEarlyMove) {
		add(strategyconfig.TagEarlyWatch)
	}

	return tags
}

// Run builds the watchlist from today's scored universe and writes autowatchlist_<date>.json
func (b *Builder) Run(ctx context.Context) (*contracts.StageReport, error) {
	start := time.Now()
	stage := contracts.StageWatchlist.ShortName()

	fi, err := b.store.Current(s0_snapshot.KindScored)
	if err != nil {
		err = fmt.Errorf("locate scored universe: %w", err)
		b.metrics.RecordStage(stage, time.Since(start).Seconds(), err)
		return nil, err
	}

	var scored contracts.ScoredUniverse
	if err := b.store.ReadJSON(fi.Path, &scored); err != nil {
		err = fmt.Errorf("load scored universe: %w", err)
		b.metrics.RecordStage(stage, time.Since(start).Seconds(), err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wl := b.Build(&scored)

	path, err := b.store.WriteJSON(s0_snapshot.KindWatchlist, wl)
	if err != nil {
		err = fmt.Errorf("write watchlist: %w", err)
		b.metrics.RecordStage(stage, time.Since(start).Seconds(), err)
		return nil, err
	}

	report := &contracts.StageReport{
		Stage:    contracts.StageWatchlist,
		Date:     fi.Date,
		Input:    len(scored.Tickers),
		Output:   len(wl.Entries),
		Path:     path,
		Duration: time.Since(start),
	}
	b.metrics.RecordStage(stage, report.Duration.Seconds(), nil)
	b.metrics.RecordTickers(stage, report.Output)

	b.logger.WithFields(map[string]interface{}{
		"stage":    stage,
		"date":     report.Date,
		"input":    report.Input,
		"entries":  report.Output,
		"output":   path,
		"duration": report.Duration.String(),
	}).Info("Watchlist completed")

	return report, nil
}
