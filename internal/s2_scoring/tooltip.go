package s2_scoring

import (
	"fmt"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Tooltip returns a display string for a triggered signal
// 필요한 필드가 없거나 템플릿이 없으면 시그널 이름 그대로
func Tooltip(signal string, rec *contracts.TickerRecord) string {
	if rec == nil {
		return signal
	}
	if tip, ok := tooltip(signal, rec); ok {
		return tip
	}
	return signal
}

func tooltip(signal string, r *contracts.TickerRecord) (string, bool) {
	switch signal {
	case contracts.SignalGapUp:
		if both(r.OpenPrice, r.PdHi) {
			return fmt.Sprintf("Opened %.2f above prior-day high %.2f", *r.OpenPrice, *r.PdHi), true
		}
		if both(r.OpenPrice, r.PrevClose) {
			return fmt.Sprintf("Opened %.2f vs previous close %.2f", *r.OpenPrice, *r.PrevClose), true
		}

	case contracts.SignalGapDown:
		if both(r.OpenPrice, r.PdLo) {
			return fmt.Sprintf("Opened %.2f below prior-day low %.2f", *r.OpenPrice, *r.PdLo), true
		}
		if both(r.OpenPrice, r.PrevClose) {
			return fmt.Sprintf("Opened %.2f vs previous close %.2f", *r.OpenPrice, *r.PrevClose), true
		}

	case contracts.SignalBreakAboveRange:
		if both(r.LastPrice, r.RangeHigh) {
			return fmt.Sprintf("Last %.2f above 9:30-9:40 high %.2f", *r.LastPrice, *r.RangeHigh), true
		}

	case contracts.SignalBreakBelowRange:
		if both(r.LastPrice, r.RangeLow) {
			return fmt.Sprintf("Last %.2f below 9:30-9:40 low %.2f", *r.LastPrice, *r.RangeLow), true
		}

	case contracts.SignalHighRelVol:
		if r.RelVol != nil {
			return fmt.Sprintf("Relative volume %.2fx", *r.RelVol), true
		}

	case contracts.SignalEarlyMove:
		if r.EarlyPercentMove != nil {
			return fmt.Sprintf("Early move %+.2f%%", *r.EarlyPercentMove), true
		}

	case contracts.SignalSqueezeWatch:
		if r.ShortPercentOfFloat != nil {
			return fmt.Sprintf("Short interest %.1f%% of float", *r.ShortPercentOfFloat*100), true
		}

	case contracts.SignalStrongSector:
		if r.SectorETF != "" {
			return fmt.Sprintf("%s (%s) is a leading sector today", r.Sector, r.SectorETF), true
		}

	case contracts.SignalWeakSector:
		if r.SectorETF != "" {
			return fmt.Sprintf("%s (%s) is a lagging sector today", r.Sector, r.SectorETF), true
		}

	case contracts.SignalHighVolume, contracts.SignalTopVolumeGainer:
		if r.VolLatest != nil {
			return fmt.Sprintf("Volume %s", humanVolume(*r.VolLatest)), true
		}

	case contracts.SignalNearMultiDayHigh:
		if both(r.LastPrice, r.Hi10D) {
			return fmt.Sprintf("Last %.2f near 10-day high %.2f", *r.LastPrice, *r.Hi10D), true
		}

	case contracts.SignalNearMultiDayLow:
		if both(r.LastPrice, r.Lo10D) {
			return fmt.Sprintf("Last %.2f near 10-day low %.2f", *r.LastPrice, *r.Lo10D), true
		}

	case contracts.SignalHighVolumeNoBreakout:
		if both(r.RangeLow, r.RangeHigh) {
			return fmt.Sprintf("Heavy volume inside range %.2f-%.2f", *r.RangeLow, *r.RangeHigh), true
		}

	case contracts.SignalLowLiquidity:
		if r.AvgVol10D != nil {
			return fmt.Sprintf("Average volume %s", humanVolume(*r.AvgVol10D)), true
		}

	case contracts.SignalWideSpread:
		if r.Spread != nil {
			return fmt.Sprintf("Spread %.2f", *r.Spread), true
		}
	}
	return "", false
}

func both(a, b *float64) bool {
	return a != nil && b != nil
}

func humanVolume(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
