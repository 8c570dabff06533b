package strategyconfig

import (
	"fmt"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Tier is one weight class of the scoring table
type Tier struct {
	ID      string   `yaml:"id" json:"id" validate:"required"`
	Weight  int      `yaml:"weight" json:"weight" validate:"ne=0"`
	Signals []string `yaml:"signals" json:"signals" validate:"min=1,dive,required"`
}

// Tiers is the ordered tier table; order defines tierHits/reasons order
type Tiers []Tier

// Scoring reports whether the tier feeds tierHits/reasons (risk tiers do not)
func (t Tier) Scoring() bool {
	return t.Weight > 0
}

// Score sums tier weights over truthy signals, each signal counted once
// 순수 함수: 같은 signals → 항상 같은 점수
func (t Tiers) Score(signals contracts.Signals) int {
	seen := make(map[string]bool)
	score := 0
	for _, tier := range t {
		for _, name := range tier.Signals {
			if seen[name] || !signals.Truthy(name) {
				continue
			}
			seen[name] = true
			score += tier.Weight
		}
	}
	return score
}

// Hits rebuilds tierHits from scratch; every scoring tier key is present
func (t Tiers) Hits(signals contracts.Signals) contracts.TierHits {
	hits := make(contracts.TierHits)
	seen := make(map[string]bool)
	for _, tier := range t {
		if !tier.Scoring() {
			continue
		}
		names := make([]string, 0)
		for _, name := range tier.Signals {
			if seen[name] || !signals.Truthy(name) {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		hits[tier.ID] = names
	}
	return hits
}

// Reasons renders "T1: gap_up" strings in tier-table order
func (t Tiers) Reasons(hits contracts.TierHits) []string {
	reasons := make([]string, 0)
	for _, tier := range t {
		for _, name := range hits[tier.ID] {
			reasons = append(reasons, fmt.Sprintf("%s: %s", tier.ID, name))
		}
	}
	return reasons
}

// TierOf returns the first tier listing signal
func (t Tiers) TierOf(signal string) (Tier, bool) {
	for _, tier := range t {
		for _, name := range tier.Signals {
			if name == signal {
				return tier, true
			}
		}
	}
	return Tier{}, false
}

// RiskSignals returns signals of negative-weight tiers
func (t Tiers) RiskSignals() []string {
	out := make([]string, 0)
	for _, tier := range t {
		if tier.Weight < 0 {
			out = append(out, tier.Signals...)
		}
	}
	return out
}

// MaxScore is the best achievable score (all scoring signals truthy)
func (t Tiers) MaxScore() int {
	max := 0
	for _, tier := range t {
		if tier.Weight > 0 {
			max += tier.Weight * len(tier.Signals)
		}
	}
	return max
}
