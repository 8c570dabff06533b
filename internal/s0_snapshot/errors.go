package s0_snapshot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSnapshotMissing optional snapshot absent (or not from today)
	ErrSnapshotMissing = errors.New("snapshot missing")

	// ErrSnapshotMalformed snapshot present but not the expected JSON shape
	ErrSnapshotMalformed = errors.New("snapshot malformed")

	// ErrMissingUniverse no universe snapshot: fatal for the run
	ErrMissingUniverse = errors.New("universe snapshot missing")

	// ErrValidationFailed strict cache validation rejected the run
	ErrValidationFailed = errors.New("cache validation failed")
)

// AuditError lists every expected snapshot that failed strict validation
type AuditError struct {
	Missing []string
	Empty   []string
	Stale   []string
}

func (e *AuditError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing=[%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, fmt.Sprintf("empty=[%s]", strings.Join(e.Empty, ", ")))
	}
	if len(e.Stale) > 0 {
		parts = append(parts, fmt.Sprintf("stale=[%s]", strings.Join(e.Stale, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, " "))
}

// Is makes errors.Is(err, ErrValidationFailed) match
func (e *AuditError) Is(target error) bool {
	return target == ErrValidationFailed
}
