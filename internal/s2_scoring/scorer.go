package s2_scoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/strategyconfig"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

// Scorer implements S2: tier-weighted scoring of the enriched universe
// ⭐ SSOT: S2 점수화 로직은 여기서만
type Scorer struct {
	store   *s0_snapshot.Store
	config  *strategyconfig.Config
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(store *s0_snapshot.Store, cfg *strategyconfig.Config, rec *metrics.Recorder, log *logger.Logger) *Scorer {
	return &Scorer{
		store:   store,
		config:  cfg,
		metrics: rec,
		logger:  log,
	}
}

// Score retains tickers at or above the minimum score, best first
// isBlocked 종목은 0점 처리가 아니라 아예 제외
// tierHits/reasons/screeners는 매번 signals에서 새로 구성 (누적 금지)
func (s *Scorer) Score(u *contracts.Universe) *contracts.ScoredUniverse {
	tiers := s.config.Tiers
	out := &contracts.ScoredUniverse{Tickers: make([]*contracts.ScoredTicker, 0)}

	blocked, below := 0, 0
	u.Each(func(rec *contracts.TickerRecord) {
		if rec.IsBlocked {
			blocked++
			return
		}

		score := tiers.Score(rec.Signals)
		if score < s.config.Scoring.MinScore {
			below++
			return
		}

		hits := tiers.Hits(rec.Signals)
		out.Tickers = append(out.Tickers, &contracts.ScoredTicker{
			Symbol:    rec.Symbol,
			Score:     score,
			TierHits:  hits,
			Reasons:   tiers.Reasons(hits),
			Screeners: s.screeners(hits, rec),
			Level:     rec.Level,
			Sector:    rec.Sector,
			Tags:      nonNil(rec.Tags),
			Signals:   rec.Signals.Clone(),
		})
	})

	// 점수 내림차순, 동점은 유니버스 순서
	sort.SliceStable(out.Tickers, func(i, j int) bool {
		return out.Tickers[i].Score > out.Tickers[j].Score
	})

	s.logger.WithFields(map[string]interface{}{
		"stage":    contracts.StageScoring.ShortName(),
		"input":    u.Len(),
		"retained": len(out.Tickers),
		"blocked":  blocked,
		"below":    below,
		"min":      s.config.Scoring.MinScore,
	}).Debug("Scoring pass")

	return out
}

// screeners flattens tierHits into name/tier/tooltip triples
func (s *Scorer) screeners(hits contracts.TierHits, rec *contracts.TickerRecord) []contracts.Screener {
	out := make([]contracts.Screener, 0)
	for _, tier := range s.config.Tiers {
		for _, name := range hits[tier.ID] {
			out = append(out, contracts.Screener{
				Name:    name,
				Tier:    tier.ID,
				Tooltip: Tooltip(name, rec),
			})
		}
	}
	return out
}

// Run scores today's enriched universe and writes scored_<date>.json
func (s *Scorer) Run(ctx context.Context) (*contracts.StageReport, error) {
	start := time.Now()
	stage := contracts.StageScoring.ShortName()

	u, fi, err := s.store.LoadEnrichedToday()
	if err != nil {
		err = fmt.Errorf("load enriched universe: %w", err)
		s.metrics.RecordStage(stage, time.Since(start).Seconds(), err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := s.Score(u)

	path, err := s.store.WriteJSON(s0_snapshot.KindScored, scored)
	if err != nil {
		err = fmt.Errorf("write scored universe: %w", err)
		s.metrics.RecordStage(stage, time.Since(start).Seconds(), err)
		return nil, err
	}

	report := &contracts.StageReport{
		Stage:    contracts.StageScoring,
		Date:     fi.Date,
		Input:    u.Len(),
		Output:   len(scored.Tickers),
		Path:     path,
		Duration: time.Since(start),
	}
	s.metrics.RecordStage(stage, report.Duration.Seconds(), nil)
	s.metrics.RecordTickers(stage, report.Output)

	s.logger.WithFields(map[string]interface{}{
		"stage":    stage,
		"date":     report.Date,
		"input":    report.Input,
		"retained": report.Output,
		"output":   path,
		"duration": report.Duration.String(),
	}).Info("Scoring completed")

	return report, nil
}

func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
