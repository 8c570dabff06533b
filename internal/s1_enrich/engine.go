package s1_enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/strategyconfig"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

// Step names (logs, report, metrics)
const (
	StepPostOpen      = "post_open"
	StepSectors       = "sectors"
	StepIntradayRange = "intraday_range"
	StepMultiDay      = "multi_day_levels"
	StepShortInterest = "short_interest"
	StepSqueeze       = "squeeze"
	StepSignals       = "signals"
	StepRisk          = "risk"
	StepStamp         = "stamp"
)

// Base document names recorded in the report
const (
	BaseEnriched = "enriched"
	BaseUniverse = "universe"
)

// Inputs is everything one enrichment pass reads; nil means "not available this run"
type Inputs struct {
	Base     *contracts.Universe
	BaseKind string

	PostOpen      *s0_snapshot.PostOpenSnapshot
	Sectors       map[string]s0_snapshot.SectorQuote
	Ranges        map[string]s0_snapshot.IntradayRange
	Levels        map[string]s0_snapshot.Levels
	ShortInterest map[string]*float64
}

// Engine merges snapshots onto the universe and derives signals
// ⭐ SSOT: S1 시그널 도출은 여기서만
type Engine struct {
	store   *s0_snapshot.Store
	config  *strategyconfig.Config
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewEngine creates a new enrichment engine
func NewEngine(store *s0_snapshot.Store, cfg *strategyconfig.Config, rec *metrics.Recorder, log *logger.Logger) *Engine {
	return &Engine{
		store:   store,
		config:  cfg,
		metrics: rec,
		logger:  log,
	}
}

// Run loads today's inputs, enriches and atomically writes enriched_<date>.json
// universe 없음 → ErrMissingUniverse, 아무것도 쓰지 않음
func (e *Engine) Run(ctx context.Context) (*contracts.EnrichReport, error) {
	start := time.Now()

	in, err := e.LoadInputs(ctx)
	if err != nil {
		e.metrics.RecordStage(contracts.StageEnrich.ShortName(), time.Since(start).Seconds(), err)
		return nil, err
	}

	universe, report, err := e.Enrich(ctx, in)
	if err != nil {
		e.metrics.RecordStage(contracts.StageEnrich.ShortName(), time.Since(start).Seconds(), err)
		return nil, err
	}

	path, err := e.store.WriteJSON(s0_snapshot.KindEnriched, universe)
	if err != nil {
		err = fmt.Errorf("write enriched universe: %w", err)
		e.metrics.RecordStage(contracts.StageEnrich.ShortName(), time.Since(start).Seconds(), err)
		return nil, err
	}

	report.Output = path
	report.Duration = time.Since(start)
	e.metrics.RecordStage(contracts.StageEnrich.ShortName(), report.Duration.Seconds(), nil)
	e.metrics.RecordTickers(contracts.StageEnrich.ShortName(), report.Tickers)

	e.logger.WithFields(map[string]interface{}{
		"stage":    contracts.StageEnrich.ShortName(),
		"date":     report.Date,
		"base":     report.Base,
		"tickers":  report.Tickers,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"output":   path,
		"duration": report.Duration.String(),
	}).Info("Enrichment completed")

	return report, nil
}

// LoadInputs reads the base document and every optional snapshot
// 선택 입력은 없거나 깨졌으면 nil (해당 단계 skip)
func (e *Engine) LoadInputs(ctx context.Context) (Inputs, error) {
	var in Inputs

	// 1. 당일 enriched 우선 (증분 재실행), 없으면 universe
	base, _, err := e.store.LoadEnrichedToday()
	switch {
	case err == nil && base.Len() > 0:
		in.Base = base
		in.BaseKind = BaseEnriched
	default:
		if err != nil && !s0_snapshot.IsMissing(err) {
			return in, fmt.Errorf("load enriched base: %w", err)
		}
		universe, _, err := e.store.LoadUniverse()
		if err != nil {
			e.logger.WithError(err).Error("Universe snapshot unavailable, aborting enrichment")
			return in, err
		}
		in.Base = universe
		in.BaseKind = BaseUniverse
	}

	if err := ctx.Err(); err != nil {
		return in, err
	}

	if post, err := e.store.LoadPostOpen(); err == nil {
		in.PostOpen = post
	} else {
		e.logOptional(s0_snapshot.KindPostOpen, err)
	}

	if sectors, err := e.store.LoadSectors(); err == nil {
		in.Sectors = sectors
	} else if errors.Is(err, s0_snapshot.ErrSnapshotMissing) {
		// 전용 섹터 스냅샷은 선택: post-open의 sectors로 대체
		e.logger.WithField("kind", string(s0_snapshot.KindSector)).Debug("No dedicated sector snapshot")
	} else {
		e.logOptional(s0_snapshot.KindSector, err)
	}

	if ranges, err := e.store.LoadIntradayRange(); err == nil {
		in.Ranges = ranges
	} else {
		e.logOptional(s0_snapshot.KindIntradayRange, err)
	}

	if levels, err := e.store.LoadMultiDayLevels(); err == nil {
		in.Levels = levels
	} else {
		e.logOptional(s0_snapshot.KindMultiDayLevels, err)
	}

	if si, err := e.store.LoadShortInterest(); err == nil {
		in.ShortInterest = si
	} else {
		e.logOptional(s0_snapshot.KindShortInterest, err)
	}

	return in, nil
}

func (e *Engine) logOptional(kind s0_snapshot.Kind, err error) {
	e.logger.WithFields(map[string]interface{}{
		"kind":  string(kind),
		"error": err.Error(),
	}).Warn("Optional snapshot unavailable")
}

// Enrich applies every step in fixed order to a copy of in.Base
// 순수 함수: I/O 없음, 입력 universe는 변경하지 않음
func (e *Engine) Enrich(ctx context.Context, in Inputs) (*contracts.Universe, *contracts.EnrichReport, error) {
	if in.Base == nil || in.Base.Len() == 0 {
		return nil, nil, s0_snapshot.ErrMissingUniverse
	}

	start := time.Now()
	now := e.store.Now()

	u := in.Base.Clone()
	report := &contracts.EnrichReport{
		Date:    now.Format(s0_snapshot.DateLayout),
		Base:    in.BaseKind,
		Tickers: u.Len(),
		Merged:  make(map[string]int),
		Skipped: make([]string, 0),
		Failed:  make([]string, 0),
	}

	// 엔진 소유 시그널은 매 실행 초기화 후 재도출 (이전 실행 값 이월 금지)
	resetOwnedSignals(u)

	run := e.newStepRunner(ctx, report)

	// 2. post-open
	run.optional(StepPostOpen, in.PostOpen != nil, func() (int, error) {
		return e.mergePostOpen(u, in.PostOpen), nil
	})

	// 3. sectors: 전용 스냅샷 우선, 없으면 post-open의 sectors
	quotes := in.Sectors
	if len(quotes) == 0 && in.PostOpen != nil {
		quotes = in.PostOpen.Sectors
	}
	run.always(StepSectors, func() (int, error) {
		return e.mergeSectors(u, quotes)
	})

	// 4. 10분 레인지
	run.optional(StepIntradayRange, in.Ranges != nil, func() (int, error) {
		return mergeRanges(u, in.Ranges), nil
	})

	// 5. 10일 고/저 (post-open 값 위에 전용 스냅샷 덮어쓰기)
	run.optional(StepMultiDay, in.Levels != nil, func() (int, error) {
		return mergeLevels(u, in.Levels), nil
	})

	// 6. 공매도 + squeeze 사전 플래그
	run.optional(StepShortInterest, in.ShortInterest != nil, func() (int, error) {
		return mergeShortInterest(u, in.ShortInterest), nil
	})
	run.always(StepSqueeze, func() (int, error) {
		return e.flagSqueeze(u, in.PostOpen), nil
	})

	// 7. 시그널 도출 (top_volume_gainer는 마지막, post-open 플래그 OR)
	run.always(StepSignals, func() (int, error) {
		return e.deriveSignals(u, in.PostOpen), nil
	})

	// 8. 리스크 플래그
	run.always(StepRisk, func() (int, error) {
		return e.flagRisk(u), nil
	})

	// 9. 점수 + 타임스탬프
	run.always(StepStamp, func() (int, error) {
		return e.stamp(u, now), nil
	})

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report.Duration = time.Since(start)
	return u, report, nil
}

// stamp recomputes score/tierHits/reasons from signals and stamps the run time
func (e *Engine) stamp(u *contracts.Universe, now time.Time) int {
	ts := now.Format(time.RFC3339)
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		rec.Score = e.config.Tiers.Score(rec.Signals)
		rec.TierHits = e.config.Tiers.Hits(rec.Signals)
		rec.Reasons = e.config.Tiers.Reasons(rec.TierHits)
		rec.EnrichedTimestamp = ts
		delete(rec.Extra, "yfinance_updated")
		n++
	})
	return n
}
