package s2_scoring

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/strategyconfig"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

func newTestScorer(t *testing.T) (*Scorer, *s0_snapshot.Store) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 9, 50, 0, 0, loc)

	store := s0_snapshot.NewStore(t.TempDir(), loc, logger.Nop()).
		WithClock(func() time.Time { return now })
	return NewScorer(store, strategyconfig.Default(), metrics.New(), logger.Nop()), store
}

func universeOf(records ...*contracts.TickerRecord) *contracts.Universe {
	u := contracts.NewUniverse()
	for _, r := range records {
		u.Put(r)
	}
	return u
}

func TestScorer_Score(t *testing.T) {
	scorer, _ := newTestScorer(t)

	u := universeOf(
		&contracts.TickerRecord{Symbol: "LOW", Signals: contracts.Signals{"high_volume": true, "near_multi_day_high": true}},
		&contracts.TickerRecord{Symbol: "MID", Level: "L1", Signals: contracts.Signals{"gap_up": true}},
		&contracts.TickerRecord{Symbol: "TOP", Level: "L0", Sector: "Technology", Signals: contracts.Signals{
			"gap_up": true, "high_rel_vol": true, "squeeze_watch": true,
		}},
		&contracts.TickerRecord{Symbol: "BLK", IsBlocked: true, Signals: contracts.Signals{"gap_up": true, "break_above_range": true}},
		&contracts.TickerRecord{Symbol: "TIE", Signals: contracts.Signals{"early_move": 3.2, "near_range_high": true}},
	)

	scored := scorer.Score(u)

	symbols := make([]string, len(scored.Tickers))
	for i, tk := range scored.Tickers {
		symbols[i] = tk.Symbol
	}
	assert.Equal(t, []string{"TOP", "MID", "TIE"}, symbols, "blocked and sub-threshold excluded, ties keep universe order")

	top, _ := scored.Get("TOP")
	assert.Equal(t, 8, top.Score)
	assert.Equal(t, contracts.TierHits{
		"T1": {"gap_up", "high_rel_vol"},
		"T2": {"squeeze_watch"},
		"T3": {},
	}, top.TierHits)
	assert.Equal(t, []string{"T1: gap_up", "T1: high_rel_vol", "T2: squeeze_watch"}, top.Reasons)
	require.Len(t, top.Screeners, 3)
	assert.Equal(t, contracts.Screener{Name: "squeeze_watch", Tier: "T2", Tooltip: "squeeze_watch"}, top.Screeners[2])
	assert.Equal(t, "L0", top.Level)
	assert.Equal(t, "Technology", top.Sector)
	assert.NotNil(t, top.Tags)

	tie, _ := scored.Get("TIE")
	assert.Equal(t, 3, tie.Score)
	assert.Equal(t, []string{"T2: early_move", "T3: near_range_high"}, tie.Reasons)

	_, ok := scored.Get("LOW")
	assert.False(t, ok, "score 2 is below 3")
}

func TestScorer_ScoreIsPure(t *testing.T) {
	scorer, _ := newTestScorer(t)
	rec := &contracts.TickerRecord{
		Symbol:   "AAPL",
		Signals:  contracts.Signals{"gap_up": true, "high_rel_vol": true, "squeeze_watch": true},
		TierHits: contracts.TierHits{"T1": {"stale"}},
		Reasons:  []string{"T1: stale"},
	}
	u := universeOf(rec)

	first := scorer.Score(u)
	second := scorer.Score(u)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	got, _ := first.Get("AAPL")
	assert.Equal(t, 8, got.Score)
	assert.NotContains(t, got.Reasons, "T1: stale", "rebuilt from scratch")

	// 출력 수정이 입력에 새지 않음
	got.Signals["gap_up"] = false
	assert.Equal(t, true, rec.Signals["gap_up"])
}

func TestScorer_RiskPenalty(t *testing.T) {
	scorer, _ := newTestScorer(t)
	u := universeOf(&contracts.TickerRecord{Symbol: "RISK", Signals: contracts.Signals{
		"gap_up": true, "break_above_range": true, "low_liquidity": true,
	}})

	got, ok := scorer.Score(u).Get("RISK")
	require.True(t, ok)
	assert.Equal(t, 3, got.Score)
	assert.NotContains(t, got.TierHits, "risk", "risk tier is not a tierHits key")
	assert.True(t, got.Signals.Truthy("low_liquidity"))
}

func TestScorer_Run(t *testing.T) {
	scorer, store := newTestScorer(t)

	_, err := scorer.Run(context.Background())
	assert.ErrorIs(t, err, s0_snapshot.ErrSnapshotMissing)

	u := universeOf(
		&contracts.TickerRecord{Symbol: "AAPL", Signals: contracts.Signals{"gap_up": true, "high_rel_vol": true}},
		&contracts.TickerRecord{Symbol: "MSFT", Signals: contracts.Signals{}},
	)
	_, err = store.WriteJSON(s0_snapshot.KindEnriched, u)
	require.NoError(t, err)

	report, err := scorer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, contracts.StageScoring, report.Stage)
	assert.Equal(t, 2, report.Input)
	assert.Equal(t, 1, report.Output)

	data, err := os.ReadFile(report.Path)
	require.NoError(t, err)

	var scored contracts.ScoredUniverse
	require.NoError(t, json.Unmarshal(data, &scored))
	aapl, ok := scored.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 6, aapl.Score)
	assert.Equal(t, []string{"gap_up", "high_rel_vol"}, aapl.TierHits["T1"])
}
