package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

// ErrRunInFlight a pipeline run is already executing in this process
var ErrRunInFlight = errors.New("pipeline run already in flight")

// Orchestrator coordinates the 4-stage pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Stage components
	auditor   contracts.SnapshotAuditor
	enricher  contracts.Enricher
	scorer    contracts.Scorer
	watchlist contracts.WatchlistBuilder

	// 프로세스당 동시 실행 1개
	running sync.Mutex

	metrics *metrics.Recorder
	logger  *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID   string
	Trigger string // cron job name, watched file key, "cli", "api"
	Strict  bool   // strict cache validation aborts before S1
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string                  `json:"run_id"`
	Trigger         string                  `json:"trigger"`
	Success         bool                    `json:"success"`
	Error           string                  `json:"error,omitempty"`
	CompletedStages []string                `json:"completed_stages"`
	Audit           *contracts.AuditReport  `json:"audit,omitempty"`
	Enrich          *contracts.EnrichReport `json:"enrich,omitempty"`
	Scoring         *contracts.StageReport  `json:"scoring,omitempty"`
	Watchlist       *contracts.StageReport  `json:"watchlist,omitempty"`
	Duration        time.Duration           `json:"duration"`
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	auditor contracts.SnapshotAuditor,
	enricher contracts.Enricher,
	scorer contracts.Scorer,
	watchlist contracts.WatchlistBuilder,
	rec *metrics.Recorder,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		auditor:   auditor,
		enricher:  enricher,
		scorer:    scorer,
		watchlist: watchlist,
		metrics:   rec,
		logger:    logger,
	}
}

// Run executes the pipeline strictly in sequence
// S0 → S1 → S2 → S3, 앞 단계 실패 시 이후 단계 실행 안 함
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	log := o.logger.WithRun(config.RunID, config.Trigger)

	if !o.running.TryLock() {
		log.Warn("Pipeline run skipped: another run in flight")
		return nil, ErrRunInFlight
	}
	defer o.running.Unlock()

	startTime := time.Now()

	result := &RunResult{
		RunID:           config.RunID,
		Trigger:         config.Trigger,
		CompletedStages: make([]string, 0, len(contracts.AllStages())),
	}

	log.WithField("strict", config.Strict).Info("Starting pipeline run")

	fail := func(stage contracts.Stage, err error) (*RunResult, error) {
		err = fmt.Errorf("%s failed: %w", stage.ShortName(), err)
		result.Error = err.Error()
		result.Duration = time.Since(startTime)
		o.metrics.RecordStage("pipeline", result.Duration.Seconds(), err)
		log.WithStage(stageLabel(stage)).WithFields(map[string]interface{}{
			"completed": result.CompletedStages,
			"error":     err.Error(),
		}).Error("Pipeline run failed")
		return result, err
	}

	// S0: Cache validation
	report, err := o.auditor.Audit(ctx, config.Strict)
	result.Audit = report
	if err != nil {
		return fail(contracts.StageValidate, err)
	}
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageValidate))

	// S1: Enrichment
	enrich, err := o.enricher.Run(ctx)
	if err != nil {
		return fail(contracts.StageEnrich, err)
	}
	result.Enrich = enrich
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageEnrich))

	// S2: Scoring
	scoring, err := o.scorer.Run(ctx)
	if err != nil {
		return fail(contracts.StageScoring, err)
	}
	result.Scoring = scoring
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageScoring))

	// S3: Watchlist
	wl, err := o.watchlist.Run(ctx)
	if err != nil {
		return fail(contracts.StageWatchlist, err)
	}
	result.Watchlist = wl
	result.CompletedStages = append(result.CompletedStages, stageLabel(contracts.StageWatchlist))

	// Mark success
	result.Success = true
	result.Duration = time.Since(startTime)
	o.metrics.RecordStage("pipeline", result.Duration.Seconds(), nil)

	log.WithFields(map[string]interface{}{
		"duration":  result.Duration.Seconds(),
		"stages":    len(result.CompletedStages),
		"enriched":  enrich.Tickers,
		"scored":    scoring.Output,
		"watchlist": wl.Output,
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// stageLabel returns "S1:ENRICH" style labels
func stageLabel(stage contracts.Stage) string {
	name := string(stage)
	if len(name) > 3 {
		name = name[3:]
	}
	return stage.ShortName() + ":" + name
}
