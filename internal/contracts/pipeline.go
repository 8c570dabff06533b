package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 산출 파일에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3
//   Validate  Enrich  Scoring  Watchlist

// Stage represents a pipeline stage
type Stage string

const (
	// StageValidate S0: 스냅샷 캐시 검증
	// 책임: 필수/선택 스냅샷 존재, 비어있음, 당일 여부 확인 (strict/lenient)
	// 위치: internal/s0_snapshot/
	StageValidate Stage = "S0_VALIDATE"

	// StageEnrich S1: 스냅샷 병합 + 시그널 도출
	// 책임: post-open/섹터/레인지/다일 레벨/공매도 병합, 시그널 재계산, 리스크 플래그
	// 위치: internal/s1_enrich/
	StageEnrich Stage = "S1_ENRICH"

	// StageScoring S2: 티어 가중치 점수화
	// 책임: 점수 계산, 최소 점수 미만/차단 종목 제외, tierHits/reasons/screeners 재구성
	// 위치: internal/s2_scoring/
	StageScoring Stage = "S2_SCORING"

	// StageWatchlist S3: 최종 워치리스트
	// 책임: 리스크 차단 재판정, 태그 부여
	// 위치: internal/s3_watchlist/
	StageWatchlist Stage = "S3_WATCHLIST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageValidate:
		return "S0"
	case StageEnrich:
		return "S1"
	case StageScoring:
		return "S2"
	case StageWatchlist:
		return "S3"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageValidate,
		StageEnrich,
		StageScoring,
		StageWatchlist,
	}
}
