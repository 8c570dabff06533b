package s1_enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/screener/backend/internal/contracts"
)

// errSkipped marks a step whose input was unavailable; partial work is still kept
var errSkipped = errors.New("input unavailable")

// stepRunner runs enrichment steps under a guard
// 한 단계의 실패(panic 포함)는 기록만 하고 다음 단계를 계속 진행
type stepRunner struct {
	ctx    context.Context
	engine *Engine
	report *contracts.EnrichReport
}

func (e *Engine) newStepRunner(ctx context.Context, report *contracts.EnrichReport) *stepRunner {
	return &stepRunner{ctx: ctx, engine: e, report: report}
}

// optional runs fn only when available, otherwise records the step as skipped
func (r *stepRunner) optional(name string, available bool, fn func() (int, error)) {
	if !available {
		r.skip(name)
		return
	}
	r.always(name, fn)
}

// always runs fn under the guard
func (r *stepRunner) always(name string, fn func() (int, error)) {
	if r.ctx.Err() != nil {
		r.fail(name, r.ctx.Err())
		return
	}

	n, err := guard(fn)
	switch {
	case err == nil:
		r.report.Merged[name] = n
	case errors.Is(err, errSkipped):
		r.report.Merged[name] = n
		r.skip(name)
	default:
		r.fail(name, err)
	}
}

func (r *stepRunner) skip(name string) {
	r.report.Skipped = append(r.report.Skipped, name)
	r.engine.metrics.RecordStepSkipped(name)
	r.engine.logger.WithField("step", name).Info("Enrichment step skipped: input unavailable")
}

func (r *stepRunner) fail(name string, err error) {
	r.report.Failed = append(r.report.Failed, name)
	r.engine.metrics.RecordStepFailure(name)
	r.engine.logger.WithFields(map[string]interface{}{
		"step":  name,
		"error": err.Error(),
	}).Error("Enrichment step failed, continuing with best-available data")
}

// guard converts a panic inside fn into an error
func guard(fn func() (int, error)) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
