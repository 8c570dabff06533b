package strategyconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var validate = newValidator()

// newValidator reports field paths with yaml names (e.g. "thresholds.high_rel_vol")
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Field rules (validate 태그) ===
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	// === Meta ===
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", err.Error()}
	}

	// === Tiers ===
	if len(cfg.Tiers) == 0 {
		return ValidationError{"tiers", "required"}
	}
	ids := make(map[string]bool)
	owner := make(map[string]string)
	scoringTiers := 0
	for i, tier := range cfg.Tiers {
		if ids[tier.ID] {
			return ValidationError{fmt.Sprintf("tiers[%d].id", i), fmt.Sprintf("duplicate tier id %q", tier.ID)}
		}
		ids[tier.ID] = true
		if tier.Scoring() {
			scoringTiers++
		}
		for _, name := range tier.Signals {
			if prev, ok := owner[name]; ok {
				return ValidationError{
					Field:   fmt.Sprintf("tiers[%d].signals", i),
					Message: fmt.Sprintf("signal %q already listed in tier %s", name, prev),
				}
			}
			owner[name] = tier.ID
		}
	}
	if scoringTiers == 0 {
		return ValidationError{"tiers", "at least one tier must have a positive weight"}
	}

	// === Watchlist ===
	for i, name := range cfg.Watchlist.StrongSetupSignals {
		if _, ok := owner[name]; !ok {
			return ValidationError{
				Field:   fmt.Sprintf("watchlist.strong_setup_signals[%d]", i),
				Message: fmt.Sprintf("signal %q is not in any tier", name),
			}
		}
	}
	if cfg.Watchlist.StrongSetupMin > len(cfg.Watchlist.StrongSetupSignals) {
		return ValidationError{"watchlist.strong_setup_min", "must be <= len(strong_setup_signals)"}
	}

	// === Sectors ===
	for sector, etf := range cfg.Sectors {
		if strings.TrimSpace(etf) == "" {
			return ValidationError{"sectors." + sector, "etf symbol required"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 점수 하한이 도달 불가
	if cfg.Scoring.MinScore > cfg.Tiers.MaxScore() {
		warnings = append(warnings, Warning{
			Code:    "UNREACHABLE_MIN_SCORE",
			Message: fmt.Sprintf("scoring.min_score=%d exceeds max achievable %d", cfg.Scoring.MinScore, cfg.Tiers.MaxScore()),
		})
	}

	// 워치리스트 하한이 점수화 하한보다 낮으면 효과 없음
	if cfg.Watchlist.MinScore < cfg.Scoring.MinScore {
		warnings = append(warnings, Warning{
			Code:    "WATCHLIST_BELOW_SCORING",
			Message: "watchlist.min_score < scoring.min_score: watchlist threshold has no effect",
		})
	}

	// 티어 가중치는 T1 > T2 > T3 순이어야 자연스러움
	prev := 0
	for i, tier := range cfg.Tiers {
		if !tier.Scoring() {
			continue
		}
		if i > 0 && prev > 0 && tier.Weight >= prev {
			warnings = append(warnings, Warning{
				Code:    "TIER_WEIGHT_ORDER",
				Message: fmt.Sprintf("tier %s weight %d is not below the previous tier", tier.ID, tier.Weight),
			})
		}
		prev = tier.Weight
	}

	// 공매도 비율이 퍼센트 단위로 입력된 것으로 보임
	if cfg.Squeeze.MinShortPct > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_PCT_SCALE",
			Message: "squeeze.min_short_pct > 0.5: shortPercentOfFloat is a fraction (0.10 = 10%)",
		})
	}

	return warnings
}

// === Helper Functions ===

func fieldError(fe validator.FieldError) ValidationError {
	// Namespace: "Config.thresholds.high_rel_vol" → "thresholds.high_rel_vol"
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "required"
	case "gt":
		msg = "must be > " + fe.Param()
	case "gte":
		msg = "must be >= " + fe.Param()
	case "lt":
		msg = "must be < " + fe.Param()
	case "lte":
		msg = "must be <= " + fe.Param()
	case "ne":
		msg = "must not be " + fe.Param()
	case "min":
		msg = "must have at least " + fe.Param() + " item(s)"
	default:
		msg = "failed validation: " + fe.Tag()
	}

	return ValidationError{Field: field, Message: msg}
}
