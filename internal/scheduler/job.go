package scheduler

import (
	"context"
	"errors"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedules returns cron expressions with seconds field
	// Examples: "55 35 9 * * MON-FRI" (09:35:55 weekdays)
	//           "@daily", "@every 5m"
	Schedules() []string
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the scheduler skips retries
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retryable reports whether err may succeed on another attempt
func Retryable(err error) bool {
	var p *permanentError
	return !errors.As(err, &p)
}

// historyLimit caps per-job history (장중 5분 간격 ≈ 80회/일)
const historyLimit = 100

// JobResult represents one scheduled execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Permanent bool          `json:"permanent,omitempty"` // 재시도 없이 실패 (입력 스냅샷 누락 등)
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores the latest results of one job
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond historyLimit
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// GetLatestResults returns the latest N results, oldest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Counts returns success and failure totals
func (h *JobHistory) Counts() (success, failure int) {
	for _, result := range h.Results {
		if result.Success {
			success++
		} else {
			failure++
		}
	}
	return success, failure
}

// LastFailure returns the most recent failed result
func (h *JobHistory) LastFailure() (JobResult, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if !h.Results[i].Success {
			return h.Results[i], true
		}
	}
	return JobResult{}, false
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	success, _ := h.Counts()
	return float64(success) / float64(len(h.Results))
}
