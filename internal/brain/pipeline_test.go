package brain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/s1_enrich"
	"github.com/wonny/screener/backend/internal/s2_scoring"
	"github.com/wonny/screener/backend/internal/s3_watchlist"
	"github.com/wonny/screener/backend/internal/strategyconfig"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
)

// newPipeline wires the real S0-S3 stages over a temp cache dir at 09:46:30 ET
func newPipeline(t *testing.T) (*Orchestrator, *s0_snapshot.Store) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 9, 46, 30, 0, loc)

	log := logger.Nop()
	rec := metrics.New()
	cfg := strategyconfig.Default()
	store := s0_snapshot.NewStore(t.TempDir(), loc, log).
		WithClock(func() time.Time { return now })

	orch := NewOrchestrator(
		s0_snapshot.NewAuditor(store, s0_snapshot.DefaultAuditConfig(cfg.SectorETFs()), log),
		s1_enrich.NewEngine(store, cfg, rec, log),
		s2_scoring.NewScorer(store, cfg, rec, log),
		s3_watchlist.NewBuilder(store, cfg, rec, log),
		rec,
		log,
	)
	return orch, store
}

func writeSnapshot(t *testing.T, store *s0_snapshot.Store, name, content string) {
	t.Helper()
	path := filepath.Join(store.Dir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	now := store.Now()
	require.NoError(t, os.Chtimes(path, now, now))
}

func TestPipeline_EndToEnd(t *testing.T) {
	orch, store := newPipeline(t)
	writeSnapshot(t, store, "universe_2026-03-10.json", `{"AAPL": {"level": "L0"}}`)
	writeSnapshot(t, store, "post_open_signals_2026-03-10.json", `{
		"tickers": {"AAPL": {"open_price": 190, "pd_hi": 185, "last_price": 192, "rel_vol": 2.0, "pct_change": 1.2}}
	}`)

	result, err := orch.Run(context.Background(), RunConfig{RunID: "e2e", Trigger: "test"})
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, []string{"S0:VALIDATE", "S1:ENRICH", "S2:SCORING", "S3:WATCHLIST"}, result.CompletedStages)
	assert.False(t, result.Audit.OK(), "lenient audit reports the optional snapshots it could not find")

	// S1: enriched
	enriched := contracts.NewUniverse()
	require.NoError(t, store.ReadJSON(store.Path(s0_snapshot.KindEnriched, store.Today()), enriched))
	aapl, ok := enriched.Get("AAPL")
	require.True(t, ok)
	assert.True(t, aapl.Signals.Truthy(contracts.SignalGapUp))
	assert.True(t, aapl.Signals.Truthy(contracts.SignalHighRelVol))
	assert.False(t, aapl.Signals.Truthy(contracts.SignalGapDown))

	// S2: scored
	scored := &contracts.ScoredUniverse{}
	require.NoError(t, store.ReadJSON(result.Scoring.Path, scored))
	row, ok := scored.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 6, row.Score)
	assert.Equal(t, []string{"gap_up", "high_rel_vol"}, row.TierHits["T1"])

	// S3: watchlist
	wl := &contracts.Watchlist{}
	require.NoError(t, store.ReadJSON(result.Watchlist.Path, wl))
	entry, ok := wl.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 6, entry.Score)
	assert.Equal(t, []string{"gap_up", "high_rel_vol"}, entry.TierHits["T1"])
	assert.Equal(t, []string{strategyconfig.TagStrongSetup}, entry.Tags)
}

func TestPipeline_StrictAbortsWithoutOutputs(t *testing.T) {
	orch, store := newPipeline(t)
	writeSnapshot(t, store, "universe_2026-03-10.json", `{"AAPL": {"level": "L0"}}`)

	result, err := orch.Run(context.Background(), RunConfig{RunID: "e2e-strict", Trigger: "test", Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, s0_snapshot.ErrValidationFailed)
	assert.False(t, result.Success)
	assert.Empty(t, result.CompletedStages)

	_, err = store.Latest(s0_snapshot.KindEnriched)
	assert.ErrorIs(t, err, s0_snapshot.ErrSnapshotMissing, "no enriched document written")
}

func TestPipeline_MissingUniverse(t *testing.T) {
	orch, _ := newPipeline(t)

	result, err := orch.Run(context.Background(), RunConfig{RunID: "e2e-empty", Trigger: "test"})
	require.Error(t, err)
	assert.ErrorIs(t, err, s0_snapshot.ErrMissingUniverse)
	assert.Equal(t, []string{"S0:VALIDATE"}, result.CompletedStages)
}
