package strategyconfig

import (
	"sort"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Config는 인트라데이 스크리너의 임계값/티어 가중치 전체 설정
// 전역 상수 대신 주입되는 설정 객체 (테스트에서 임계값 오버라이드)
type Config struct {
	Meta       Meta              `yaml:"meta" json:"meta"`
	Thresholds Thresholds        `yaml:"thresholds" json:"thresholds"`
	Squeeze    Squeeze           `yaml:"squeeze" json:"squeeze"`
	Risk       Risk              `yaml:"risk" json:"risk"`
	Tiers      Tiers             `yaml:"tiers" json:"tiers" validate:"dive"`
	Scoring    Scoring           `yaml:"scoring" json:"scoring"`
	Watchlist  Watchlist         `yaml:"watchlist" json:"watchlist"`
	Sectors    map[string]string `yaml:"sectors" json:"sectors"` // sector name → ETF
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id" default:"intraday_screener" validate:"required"`
	Version    string `yaml:"version" json:"version" default:"1"`
	Timezone   string `yaml:"timezone" json:"timezone" default:"America/New_York" validate:"required"`
}

// Thresholds S1: 시그널 도출 임계값
type Thresholds struct {
	GapBandPct            float64 `yaml:"gap_band_pct" json:"gap_band_pct" default:"0.01" validate:"gte=0,lt=1"`                       // prev_close 대비 갭 밴드 (pd_hi/pd_lo 없을 때)
	HighRelVol            float64 `yaml:"high_rel_vol" json:"high_rel_vol" default:"1.5" validate:"gt=0"`                             // strict >
	EarlyMovePct          float64 `yaml:"early_move_pct" json:"early_move_pct" default:"2.5" validate:"gt=0"`                         // |early_percent_move| >=
	NearMultiDayPct       float64 `yaml:"near_multi_day_pct" json:"near_multi_day_pct" default:"0.02" validate:"gte=0,lt=1"`          // 10D 고/저가 근접 밴드
	HighVolumeAbs         float64 `yaml:"high_volume_abs" json:"high_volume_abs" default:"1000000" validate:"gt=0"`                   // vol_latest >=
	HighVolumeAvgMultiple float64 `yaml:"high_volume_avg_multiple" json:"high_volume_avg_multiple" default:"2" validate:"gt=0"`       // vol_latest >= N * avg_vol_10d
	NoBreakoutBandPct     float64 `yaml:"no_breakout_band_pct" json:"no_breakout_band_pct" default:"0.01" validate:"gte=0,lt=1"`      // 레인지 ±밴드
	NoBreakoutMaxWidthPct float64 `yaml:"no_breakout_max_width_pct" json:"no_breakout_max_width_pct" default:"0.02" validate:"gt=0"` // (hi-lo)/lo <
	TopVolumeGainers      int     `yaml:"top_volume_gainers" json:"top_volume_gainers" default:"5" validate:"gte=0"`
	StrongSectors         int     `yaml:"strong_sectors" json:"strong_sectors" default:"2" validate:"gte=0"`
	WeakSectors           int     `yaml:"weak_sectors" json:"weak_sectors" default:"2" validate:"gte=0"`
}

// Squeeze squeeze_watch 사전 플래그 임계값 (단일 정규 세트)
type Squeeze struct {
	MinShortPct     float64 `yaml:"min_short_pct" json:"min_short_pct" default:"0.10" validate:"gt=0,lte=1"` // shortPercentOfFloat >= (비율)
	MinRelVol       float64 `yaml:"min_rel_vol" json:"min_rel_vol" default:"1.0" validate:"gte=0"`           // rel_vol >
	MinAbsPctChange float64 `yaml:"min_abs_pct_change" json:"min_abs_pct_change" default:"1.0" validate:"gte=0"`
}

// Risk 리스크 플래그 임계값
type Risk struct {
	MinAvgVolume float64 `yaml:"min_avg_volume" json:"min_avg_volume" default:"500000" validate:"gt=0"` // 미만 → low_liquidity
	MaxSpread    float64 `yaml:"max_spread" json:"max_spread" default:"0.30" validate:"gt=0"`           // 초과 → wide_spread
}

// Scoring S2 설정
type Scoring struct {
	MinScore int `yaml:"min_score" json:"min_score" default:"3"`
}

// Watchlist S3 설정
type Watchlist struct {
	MinScore           int      `yaml:"min_score" json:"min_score" default:"3"`
	StrongSetupMin     int      `yaml:"strong_setup_min" json:"strong_setup_min" default:"2" validate:"gte=1"`
	StrongSetupSignals []string `yaml:"strong_setup_signals" json:"strong_setup_signals"`
}

// Watchlist tags
const (
	TagStrongSetup  = "Strong Setup"
	TagSqueezeWatch = "Squeeze Watch"
	TagEarlyWatch   = "Early Watch"
)

// DefaultTiers returns the fixed tier weight table
func DefaultTiers() Tiers {
	return Tiers{
		{ID: "T1", Weight: 3, Signals: []string{
			contracts.SignalGapUp,
			contracts.SignalGapDown,
			contracts.SignalBreakAboveRange,
			contracts.SignalBreakBelowRange,
			contracts.SignalHighRelVol,
			contracts.SignalMomentumConfluence,
		}},
		{ID: "T2", Weight: 2, Signals: []string{
			contracts.SignalEarlyMove,
			contracts.SignalSqueezeWatch,
			contracts.SignalStrongSector,
			contracts.SignalWeakSector,
		}},
		{ID: "T3", Weight: 1, Signals: []string{
			contracts.SignalNearRangeHigh,
			contracts.SignalNearRangeLow,
			contracts.SignalHighVolume,
			contracts.SignalTopVolumeGainer,
			contracts.SignalNearMultiDayHigh,
			contracts.SignalNearMultiDayLow,
			contracts.SignalHighVolumeNoBreakout,
		}},
		{ID: "risk", Weight: -3, Signals: []string{
			contracts.SignalLowLiquidity,
			contracts.SignalWideSpread,
		}},
	}
}

// DefaultSectors returns sector name → SPDR sector ETF
func DefaultSectors() map[string]string {
	return map[string]string{
		"Financial Services":     "XLF",
		"Technology":             "XLK",
		"Energy":                 "XLE",
		"Healthcare":             "XLV",
		"Consumer Cyclical":      "XLY",
		"Industrials":            "XLI",
		"Consumer Defensive":     "XLP",
		"Utilities":              "XLU",
		"Real Estate":            "XLRE",
		"Basic Materials":        "XLB",
		"Communication Services": "XLC",
	}
}

// DefaultStrongSetupSignals returns the core tier-1 signals counted for "Strong Setup"
func DefaultStrongSetupSignals() []string {
	return []string{
		contracts.SignalGapUp,
		contracts.SignalGapDown,
		contracts.SignalBreakAboveRange,
		contracts.SignalBreakBelowRange,
		contracts.SignalHighRelVol,
	}
}

// SectorETFs returns the configured ETF symbols (audit 기대 목록)
func (c *Config) SectorETFs() []string {
	seen := make(map[string]bool, len(c.Sectors))
	etfs := make([]string, 0, len(c.Sectors))
	for _, etf := range c.Sectors {
		if !seen[etf] {
			seen[etf] = true
			etfs = append(etfs, etf)
		}
	}
	sort.Strings(etfs)
	return etfs
}
