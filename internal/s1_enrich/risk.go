package s1_enrich

import (
	"github.com/wonny/screener/backend/internal/contracts"
)

// flagRisk sets low_liquidity / wide_spread (score-independent, used to block)
func (e *Engine) flagRisk(u *contracts.Universe) int {
	risk := e.config.Risk
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		low := IsLowLiquidity(rec, risk.MinAvgVolume)
		wide := gt(rec.Spread, risk.MaxSpread)
		setFlag(rec.Signals, contracts.SignalLowLiquidity, low)
		setFlag(rec.Signals, contracts.SignalWideSpread, wide)
		if low || wide {
			n++
		}
	})
	return n
}

// IsLowLiquidity compares the 10-day average volume (or the universe's avg_volume) to min
func IsLowLiquidity(rec *contracts.TickerRecord, min float64) bool {
	avg := rec.AvgVol10D
	if avg == nil {
		avg = rec.AvgVolume
	}
	return avg != nil && *avg < min
}
