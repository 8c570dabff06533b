package s1_enrich

import (
	"math"
	"sort"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/strategyconfig"
)

// Threshold comparisons: a nil operand never satisfies
func gt(v *float64, threshold float64) bool  { return v != nil && *v > threshold }
func gte(v *float64, threshold float64) bool { return v != nil && *v >= threshold }

// flagSqueeze sets squeeze_watch from short interest, rel_vol and pct_change jointly,
// or from the post-open snapshot's own flag
func (e *Engine) flagSqueeze(u *contracts.Universe, post *s0_snapshot.PostOpenSnapshot) int {
	sq := e.config.Squeeze
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		flagged := IsSqueeze(rec, sq)
		if !flagged && post != nil {
			if t, ok := post.Tickers[rec.Symbol]; ok && t.SqueezeWatch != nil && *t.SqueezeWatch {
				flagged = true
			}
		}
		if flagged {
			rec.Signals.Set(contracts.SignalSqueezeWatch, true)
			n++
		}
	})
	return n
}

// IsSqueeze applies the canonical squeeze thresholds to a record's fields
func IsSqueeze(rec *contracts.TickerRecord, sq strategyconfig.Squeeze) bool {
	if rec.PctChange == nil {
		return false
	}
	return gte(rec.ShortPercentOfFloat, sq.MinShortPct) &&
		gt(rec.RelVol, sq.MinRelVol) &&
		math.Abs(*rec.PctChange) >= sq.MinAbsPctChange
}

// deriveSignals recomputes every comparative signal from the merged fields,
// then ORs in the flags the post-open snapshot already carries
// 멱등: 같은 필드 → 같은 시그널, 여러 번 호출해도 누적 없음
func (e *Engine) deriveSignals(u *contracts.Universe, post *s0_snapshot.PostOpenSnapshot) int {
	th := e.config.Thresholds
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		DeriveRecord(rec, th)
		n++
	})

	// 다른 시그널이 모두 정해진 뒤 유니버스 전체 기준
	for _, sym := range TopVolumeGainers(u, th.TopVolumeGainers) {
		rec, _ := u.Get(sym)
		rec.Signals.Set(contracts.SignalTopVolumeGainer, true)
	}

	if post != nil {
		importPostOpenFlags(u, post)
	}

	return n
}

// importPostOpenFlags ORs the post-open snapshot's own boolean flags into the derived signals
// 도출값이 false여도 post-open이 true면 true (반대 방향으로 지우지 않음)
func importPostOpenFlags(u *contracts.Universe, post *s0_snapshot.PostOpenSnapshot) {
	u.Each(func(rec *contracts.TickerRecord) {
		t, ok := post.Tickers[rec.Symbol]
		if !ok {
			return
		}
		for name, flag := range map[string]*bool{
			contracts.SignalTopVolumeGainer:  t.TopVolumeGainer,
			contracts.SignalNearMultiDayHigh: t.NearMultiDayHigh,
			contracts.SignalNearMultiDayLow:  t.NearMultiDayLow,
		} {
			if flag != nil && *flag {
				rec.Signals.Set(name, true)
			}
		}
	})
}

// DeriveRecord sets the per-record comparative signals
func DeriveRecord(rec *contracts.TickerRecord, th strategyconfig.Thresholds) {
	if rec.Signals == nil {
		rec.Signals = contracts.Signals{}
	}
	s := rec.Signals

	// gap: pd_hi/pd_lo 우선, 없으면 prev_close ± band
	gapUp, gapDown := false, false
	if rec.OpenPrice != nil {
		open := *rec.OpenPrice
		switch {
		case rec.PdHi != nil:
			gapUp = open > *rec.PdHi
		case rec.PrevClose != nil:
			gapUp = open > *rec.PrevClose*(1+th.GapBandPct)
		}
		if !gapUp {
			switch {
			case rec.PdLo != nil:
				gapDown = open < *rec.PdLo
			case rec.PrevClose != nil:
				gapDown = open < *rec.PrevClose*(1-th.GapBandPct)
			}
		}
	}
	setFlag(s, contracts.SignalGapUp, gapUp)
	setFlag(s, contracts.SignalGapDown, gapDown)

	// 10분 레인지 돌파
	breakAbove := rec.LastPrice != nil && rec.RangeHigh != nil && *rec.LastPrice > *rec.RangeHigh
	breakBelow := rec.LastPrice != nil && rec.RangeLow != nil && *rec.LastPrice < *rec.RangeLow
	setFlag(s, contracts.SignalBreakAboveRange, breakAbove)
	setFlag(s, contracts.SignalBreakBelowRange, breakBelow)

	setFlag(s, contracts.SignalHighRelVol, gt(rec.RelVol, th.HighRelVol))

	// early_move는 수치 값 그대로 보관
	if rec.EarlyPercentMove != nil && math.Abs(*rec.EarlyPercentMove) >= th.EarlyMovePct {
		s.Set(contracts.SignalEarlyMove, *rec.EarlyPercentMove)
	} else {
		s.Clear(contracts.SignalEarlyMove)
	}

	// 10일 고/저 근접
	nearHigh := rec.LastPrice != nil && rec.Hi10D != nil && *rec.LastPrice >= *rec.Hi10D*(1-th.NearMultiDayPct)
	nearLow := rec.LastPrice != nil && rec.Lo10D != nil && *rec.LastPrice <= *rec.Lo10D*(1+th.NearMultiDayPct)
	setFlag(s, contracts.SignalNearMultiDayHigh, nearHigh)
	setFlag(s, contracts.SignalNearMultiDayLow, nearLow)

	highVolume := gte(rec.VolLatest, th.HighVolumeAbs) ||
		(rec.VolLatest != nil && rec.AvgVol10D != nil && *rec.AvgVol10D > 0 &&
			*rec.VolLatest >= th.HighVolumeAvgMultiple*(*rec.AvgVol10D))
	setFlag(s, contracts.SignalHighVolume, highVolume)

	setFlag(s, contracts.SignalHighVolumeNoBreakout,
		highVolume && !breakAbove && !breakBelow && inTightRange(rec, th))
}

// inTightRange: price inside the 10-minute range ± band and range width under the cap
func inTightRange(rec *contracts.TickerRecord, th strategyconfig.Thresholds) bool {
	if rec.LastPrice == nil || rec.RangeHigh == nil || rec.RangeLow == nil || *rec.RangeLow <= 0 {
		return false
	}
	last, hi, lo := *rec.LastPrice, *rec.RangeHigh, *rec.RangeLow
	if last < lo*(1-th.NoBreakoutBandPct) || last > hi*(1+th.NoBreakoutBandPct) {
		return false
	}
	return (hi-lo)/lo < th.NoBreakoutMaxWidthPct
}

// TopVolumeGainers returns up to n symbols by vol_latest descending
// 동률은 유니버스 순서 유지 (stable sort), 거래량 없는 종목 제외
func TopVolumeGainers(u *contracts.Universe, n int) []string {
	if n <= 0 {
		return nil
	}

	type entry struct {
		symbol string
		vol    float64
	}
	entries := make([]entry, 0, u.Len())
	u.Each(func(rec *contracts.TickerRecord) {
		if rec.VolLatest != nil && *rec.VolLatest > 0 {
			entries = append(entries, entry{rec.Symbol, *rec.VolLatest})
		}
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].vol > entries[j].vol
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, en := range entries {
		out[i] = en.symbol
	}
	return out
}

func setFlag(s contracts.Signals, name string, on bool) {
	if on {
		s.Set(name, true)
		return
	}
	s.Clear(name)
}
