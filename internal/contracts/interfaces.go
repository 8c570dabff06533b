package contracts

import "context"

// SnapshotAuditor validates the snapshot cache (S0)
// ⭐ SSOT: S0 캐시 검증 인터페이스
type SnapshotAuditor interface {
	Audit(ctx context.Context, strict bool) (*AuditReport, error)
}

// Enricher merges snapshots and derives signals (S1)
// ⭐ SSOT: S1 인리치먼트 인터페이스
type Enricher interface {
	Run(ctx context.Context) (*EnrichReport, error)
}

// Scorer scores the enriched universe (S2)
// ⭐ SSOT: S2 점수화 인터페이스
type Scorer interface {
	Run(ctx context.Context) (*StageReport, error)
}

// WatchlistBuilder builds the final watchlist (S3)
// ⭐ SSOT: S3 워치리스트 인터페이스
type WatchlistBuilder interface {
	Run(ctx context.Context) (*StageReport, error)
}
