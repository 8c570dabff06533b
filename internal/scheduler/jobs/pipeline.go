package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/screener/backend/internal/brain"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/internal/scheduler"
	"github.com/wonny/screener/backend/pkg/logger"
)

// PipelineRunner runs the full S0→S3 pipeline
type PipelineRunner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// 거래소 시간 (America/New_York), 평일만
var pipelineSchedules = []string{
	"55 35 9 * * MON-FRI",     // post-open 스냅샷 직후
	"30 46 9 * * MON-FRI",     // 9:45 스냅샷 직후
	"0 50,55 9 * * MON-FRI",   // 장 초반 5분 간격
	"0 */5 10-15 * * MON-FRI", // 장중 5분 간격
	"0 0 16 * * MON-FRI",      // 종가
}

// PipelineJob runs the screener pipeline during market hours
// ⭐ SSOT: 파이프라인 정기 실행 스케줄은 이 Job에서만
type PipelineJob struct {
	runner PipelineRunner
	strict bool
	now    func() time.Time
	logger *logger.Logger
}

// NewPipelineJob creates a new pipeline job
func NewPipelineJob(runner PipelineRunner, strict bool, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		runner: runner,
		strict: strict,
		now:    time.Now,
		logger: log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "pipeline"
}

// Schedules returns the cron schedules
func (j *PipelineJob) Schedules() []string {
	return pipelineSchedules
}

// Run executes one pipeline run
func (j *PipelineJob) Run(ctx context.Context) error {
	runID := fmt.Sprintf("cron-%s", j.now().Format("20060102-150405"))

	result, err := j.runner.Run(ctx, brain.RunConfig{
		RunID:   runID,
		Trigger: j.Name(),
		Strict:  j.strict,
	})
	if errors.Is(err, brain.ErrRunInFlight) {
		// 다른 트리거가 실행 중, 이번 회차는 건너뜀
		j.logger.WithField("run_id", runID).Info("Pipeline already running, tick skipped")
		return nil
	}
	if err != nil {
		// 입력 누락은 재시도로 해결되지 않음, 다음 회차에서 다시 시도
		if errors.Is(err, s0_snapshot.ErrMissingUniverse) || errors.Is(err, s0_snapshot.ErrValidationFailed) {
			return scheduler.Permanent(err)
		}
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"stages":   result.CompletedStages,
		"duration": result.Duration.String(),
	}).Info("Scheduled pipeline run finished")

	return nil
}
