package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/brain"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/s1_enrich"
	"github.com/wonny/screener/backend/internal/s2_scoring"
	"github.com/wonny/screener/backend/internal/s3_watchlist"
	"github.com/wonny/screener/backend/internal/strategyconfig"
	"github.com/wonny/screener/backend/pkg/config"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

// app holds the dependencies every command shares
type app struct {
	config   *config.Config
	logger   *logger.Logger
	metrics  *metrics.Recorder
	strategy *strategyconfig.Config
	store    *s0_snapshot.Store
}

func initApp(cmd *cobra.Command) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Apply flag overrides
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if strategyPath != "" {
		cfg.Pipeline.StrategyPath = strategyPath
	}
	if cmd.Flags().Changed("strict") {
		cfg.Pipeline.StrictValidation = strict
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 3. Initialize logger
	log := logger.New(cfg)

	// 4. Load strategy (thresholds + tier table)
	strategy, err := strategyconfig.LoadOrDefault(cfg.Pipeline.StrategyPath)
	if err != nil {
		return nil, err
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy config warning")
	}

	hash, _ := strategyconfig.Hash(strategy)
	log.WithFields(map[string]interface{}{
		"cache_dir": cfg.Cache.Dir,
		"strategy":  cfg.Pipeline.StrategyPath,
		"hash":      shortHash(hash),
		"timezone":  cfg.Pipeline.Timezone,
	}).Debug("Screener initialized")

	// 5. Metrics (nil when disabled; Recorder methods are nil-safe)
	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.New()
	}

	return &app{
		config:   cfg,
		logger:   log,
		metrics:  rec,
		strategy: strategy,
		store:    s0_snapshot.NewStore(cfg.Cache.Dir, cfg.Location(), log),
	}, nil
}

func (a *app) auditor() *s0_snapshot.Auditor {
	return s0_snapshot.NewAuditor(a.store, s0_snapshot.DefaultAuditConfig(a.strategy.SectorETFs()), a.logger)
}

func (a *app) enricher() *s1_enrich.Engine {
	return s1_enrich.NewEngine(a.store, a.strategy, a.metrics, a.logger)
}

func (a *app) scorer() *s2_scoring.Scorer {
	return s2_scoring.NewScorer(a.store, a.strategy, a.metrics, a.logger)
}

func (a *app) watchlist() *s3_watchlist.Builder {
	return s3_watchlist.NewBuilder(a.store, a.strategy, a.metrics, a.logger)
}

func (a *app) janitor() *s0_snapshot.Janitor {
	return s0_snapshot.NewJanitor(a.store, a.logger)
}

func (a *app) orchestrator() *brain.Orchestrator {
	return brain.NewOrchestrator(a.auditor(), a.enricher(), a.scorer(), a.watchlist(), a.metrics, a.logger)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
