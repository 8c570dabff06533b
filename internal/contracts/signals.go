package contracts

import "sort"

// Signals maps signal name to a boolean or numeric value
// 숫자 값(early_move 등)은 0이 아니면 truthy
type Signals map[string]interface{}

// Signal names
const (
	SignalGapUp                = "gap_up"
	SignalGapDown              = "gap_down"
	SignalBreakAboveRange      = "break_above_range"
	SignalBreakBelowRange      = "break_below_range"
	SignalHighRelVol           = "high_rel_vol"
	SignalMomentumConfluence   = "momentum_confluence"
	SignalEarlyMove            = "early_move"
	SignalSqueezeWatch         = "squeeze_watch"
	SignalStrongSector         = "strong_sector"
	SignalWeakSector           = "weak_sector"
	SignalNearRangeHigh        = "near_range_high"
	SignalNearRangeLow         = "near_range_low"
	SignalHighVolume           = "high_volume"
	SignalTopVolumeGainer      = "top_volume_gainer"
	SignalNearMultiDayHigh     = "near_multi_day_high"
	SignalNearMultiDayLow      = "near_multi_day_low"
	SignalHighVolumeNoBreakout = "high_volume_no_breakout"
	SignalLowLiquidity         = "low_liquidity"
	SignalWideSpread           = "wide_spread"
)

// Truthy reports whether name is present with a truthy value
func (s Signals) Truthy(name string) bool {
	v, ok := s[name]
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		return val != ""
	case nil:
		return false
	default:
		return true
	}
}

// Set stores a signal value
func (s Signals) Set(name string, value interface{}) {
	s[name] = value
}

// Clear removes a signal
func (s Signals) Clear(name string) {
	delete(s, name)
}

// Active returns truthy signal names sorted
func (s Signals) Active() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		if s.Truthy(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns a shallow copy (values are scalars)
func (s Signals) Clone() Signals {
	if s == nil {
		return nil
	}
	out := make(Signals, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
