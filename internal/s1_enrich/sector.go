package s1_enrich

import (
	"sort"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
)

// SectorRank is one sector ETF's change for the day
type SectorRank struct {
	ETF       string
	ChangePct float64
}

// RankSectors orders configured ETFs by percent change, best first (ties by symbol)
func RankSectors(quotes map[string]s0_snapshot.SectorQuote, etfs []string) []SectorRank {
	ranks := make([]SectorRank, 0, len(etfs))
	for _, etf := range etfs {
		q, ok := quotes[etf]
		if !ok {
			continue
		}
		change := q.ChangePct()
		if change == nil {
			continue
		}
		ranks = append(ranks, SectorRank{ETF: etf, ChangePct: *change})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].ChangePct != ranks[j].ChangePct {
			return ranks[i].ChangePct > ranks[j].ChangePct
		}
		return ranks[i].ETF < ranks[j].ETF
	})
	return ranks
}

// StrongWeak splits ranks into the best nStrong and worst nWeak ETFs
// 겹치면 strong 우선
func StrongWeak(ranks []SectorRank, nStrong, nWeak int) (strong, weak map[string]bool) {
	strong = make(map[string]bool)
	weak = make(map[string]bool)

	for i := 0; i < nStrong && i < len(ranks); i++ {
		strong[ranks[i].ETF] = true
	}
	for i := 0; i < nWeak && i < len(ranks); i++ {
		etf := ranks[len(ranks)-1-i].ETF
		if !strong[etf] {
			weak[etf] = true
		}
	}
	return strong, weak
}

// mergeSectors attaches sector_etf by sector name and flags strong/weak sectors
// 시세가 없으면 ETF 매핑만 하고 errSkipped
func (e *Engine) mergeSectors(u *contracts.Universe, quotes map[string]s0_snapshot.SectorQuote) (int, error) {
	n := 0
	u.Each(func(rec *contracts.TickerRecord) {
		if etf, ok := e.config.Sectors[rec.Sector]; ok {
			rec.SectorETF = etf
			n++
		}
	})

	if len(quotes) == 0 {
		return n, errSkipped
	}

	ranks := RankSectors(quotes, e.config.SectorETFs())
	if len(ranks) == 0 {
		return n, errSkipped
	}

	strong, weak := StrongWeak(ranks, e.config.Thresholds.StrongSectors, e.config.Thresholds.WeakSectors)

	u.Each(func(rec *contracts.TickerRecord) {
		switch {
		case rec.SectorETF == "":
		case strong[rec.SectorETF]:
			rec.Signals.Set(contracts.SignalStrongSector, true)
		case weak[rec.SectorETF]:
			rec.Signals.Set(contracts.SignalWeakSector, true)
		}
	})

	e.logger.WithFields(map[string]interface{}{
		"ranked": len(ranks),
		"strong": keys(strong),
		"weak":   keys(weak),
	}).Debug("Sector rotation computed")

	return n, nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
