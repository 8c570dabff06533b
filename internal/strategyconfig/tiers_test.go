package strategyconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/screener/backend/internal/contracts"
)

func TestTiers_Score(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		name    string
		signals contracts.Signals
		want    int
	}{
		{
			name:    "gap + rel vol + squeeze",
			signals: contracts.Signals{"gap_up": true, "high_rel_vol": true, "squeeze_watch": true},
			want:    8,
		},
		{
			name:    "false values ignored",
			signals: contracts.Signals{"gap_up": false, "high_volume": true},
			want:    1,
		},
		{
			name:    "numeric early move counts",
			signals: contracts.Signals{"early_move": 3.1},
			want:    2,
		},
		{
			name:    "risk penalty",
			signals: contracts.Signals{"gap_up": true, "low_liquidity": true, "wide_spread": true},
			want:    -3,
		},
		{
			name:    "unknown signals ignored",
			signals: contracts.Signals{"lunar_phase": true},
			want:    0,
		},
		{
			name:    "empty",
			signals: contracts.Signals{},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tiers.Score(tt.signals))
			// Pure: repeated calls agree
			assert.Equal(t, tiers.Score(tt.signals), tiers.Score(tt.signals))
		})
	}
}

func TestTiers_HitsAndReasons(t *testing.T) {
	tiers := DefaultTiers()
	signals := contracts.Signals{
		"high_rel_vol":      true,
		"gap_up":            true,
		"strong_sector":     true,
		"top_volume_gainer": true,
		"low_liquidity":     true,
	}

	hits := tiers.Hits(signals)

	// Tier-table order, not insertion order
	assert.Equal(t, []string{"gap_up", "high_rel_vol"}, hits["T1"])
	assert.Equal(t, []string{"strong_sector"}, hits["T2"])
	assert.Equal(t, []string{"top_volume_gainer"}, hits["T3"])
	assert.NotContains(t, hits, "risk")

	reasons := tiers.Reasons(hits)
	assert.Equal(t, []string{
		"T1: gap_up",
		"T1: high_rel_vol",
		"T2: strong_sector",
		"T3: top_volume_gainer",
	}, reasons)
}

func TestTiers_HitsAlwaysHasScoringKeys(t *testing.T) {
	hits := DefaultTiers().Hits(contracts.Signals{})

	for _, id := range []string{"T1", "T2", "T3"} {
		assert.Contains(t, hits, id)
		assert.Empty(t, hits[id])
	}
}

func TestTiers_TierOfAndRisk(t *testing.T) {
	tiers := DefaultTiers()

	tier, ok := tiers.TierOf("squeeze_watch")
	assert.True(t, ok)
	assert.Equal(t, "T2", tier.ID)

	_, ok = tiers.TierOf("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"low_liquidity", "wide_spread"}, tiers.RiskSignals())
	assert.Equal(t, 6*3+4*2+7*1, tiers.MaxScore())
}
