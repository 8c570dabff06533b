package s1_enrich

import (
	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
)

// ownedSignals are re-derived by the engine on every run
// 그 외 시그널(momentum_confluence, near_range_high 등)은 입력 그대로 보존
var ownedSignals = []string{
	contracts.SignalGapUp,
	contracts.SignalGapDown,
	contracts.SignalBreakAboveRange,
	contracts.SignalBreakBelowRange,
	contracts.SignalHighRelVol,
	contracts.SignalEarlyMove,
	contracts.SignalSqueezeWatch,
	contracts.SignalStrongSector,
	contracts.SignalWeakSector,
	contracts.SignalHighVolume,
	contracts.SignalTopVolumeGainer,
	contracts.SignalNearMultiDayHigh,
	contracts.SignalNearMultiDayLow,
	contracts.SignalHighVolumeNoBreakout,
	contracts.SignalLowLiquidity,
	contracts.SignalWideSpread,
}

func resetOwnedSignals(u *contracts.Universe) {
	u.Each(func(rec *contracts.TickerRecord) {
		if rec.Signals == nil {
			rec.Signals = contracts.Signals{}
		}
		for _, name := range ownedSignals {
			rec.Signals.Clear(name)
		}
	})
}

// mergePostOpen copies present post-open fields onto universe members
// 스냅샷에 없는 키로 기존 값을 지우지 않음
func (e *Engine) mergePostOpen(u *contracts.Universe, snap *s0_snapshot.PostOpenSnapshot) int {
	if len(snap.Collisions) > 0 {
		e.logger.WithField("symbols", snap.Collisions).
			Warn("Post-open symbols collapsed onto the same normalized key")
	}

	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		t, ok := snap.Tickers[rec.Symbol]
		if !ok {
			return
		}
		n++

		overwrite(&rec.LastPrice, t.LastPrice)
		overwrite(&rec.VolLatest, t.VolLatest)
		overwrite(&rec.PctChange, t.PctChange)
		overwrite(&rec.RelVol, t.RelVol)
		overwrite(&rec.AvgVol10D, t.AvgVol10D)
		overwrite(&rec.OpenPrice, t.OpenPrice)
		overwrite(&rec.PrevClose, t.PrevClose)
		overwrite(&rec.Hi10D, t.Hi10D)
		overwrite(&rec.Lo10D, t.Lo10D)
		overwrite(&rec.PdHi, t.PdHi)
		overwrite(&rec.PdLo, t.PdLo)
		overwrite(&rec.ShortPercentOfFloat, t.ShortPercentOfFloat)
		overwrite(&rec.EarlyPercentMove, t.EarlyPercentMove)
		overwrite(&rec.Spread, t.Spread)
	})
	return n
}

func mergeRanges(u *contracts.Universe, ranges map[string]s0_snapshot.IntradayRange) int {
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		r, ok := ranges[rec.Symbol]
		if !ok {
			return
		}
		n++
		overwrite(&rec.RangeHigh, r.High)
		overwrite(&rec.RangeLow, r.Low)
	})
	return n
}

func mergeLevels(u *contracts.Universe, levels map[string]s0_snapshot.Levels) int {
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		lv, ok := levels[rec.Symbol]
		if !ok {
			return
		}
		n++
		overwrite(&rec.Hi10D, lv.High)
		overwrite(&rec.Lo10D, lv.Low)
	})
	return n
}

func mergeShortInterest(u *contracts.Universe, si map[string]*float64) int {
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		v, ok := si[rec.Symbol]
		if !ok {
			return
		}
		n++
		overwrite(&rec.ShortPercentOfFloat, v)
	})
	return n
}

// overwrite replaces *dst only when src carries a value
func overwrite(dst **float64, src *float64) {
	if src == nil {
		return
	}
	*dst = contracts.CloneFloat(src)
}
