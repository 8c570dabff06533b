package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/wonny/screener/backend/internal/brain"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
	"github.com/wonny/screener/backend/pkg/redis"
)

// Trigger decisions (metrics label values)
const (
	DecisionIgnored   = "ignored"
	DecisionTriggered = "triggered"
	DecisionCooldown  = "cooldown"
	DecisionCoalesced = "coalesced"
)

// DefaultTriggerKeys are the snapshot prefixes whose arrival re-runs the pipeline
func DefaultTriggerKeys() []string {
	return []string{
		s0_snapshot.KindPostOpen.Prefix(),
		s0_snapshot.KindIntradayRange.Prefix(),
		s0_snapshot.KindShortInterest.Prefix(),
		s0_snapshot.KindMultiDayLevels.Prefix(),
	}
}

// Runner runs the full pipeline
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// Options configures a Watcher
type Options struct {
	TriggerKeys []string
	Cooldown    time.Duration
	Strict      bool

	// Shared cooldown across processes (optional, fail-open)
	Shared *redis.RateLimiter
}

// Watcher re-runs the pipeline when upstream snapshots change
// ⭐ SSOT: 파일 변경 트리거는 여기서만
// 키별 쿨다운, 실행 중 들어온 트리거는 1건으로 병합
type Watcher struct {
	dir     string
	runner  Runner
	options Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time

	pending chan string

	metrics *metrics.Recorder
	logger  *logger.Logger
}

// New creates a watcher over dir
func New(dir string, runner Runner, opts Options, rec *metrics.Recorder, log *logger.Logger) *Watcher {
	if len(opts.TriggerKeys) == 0 {
		opts.TriggerKeys = DefaultTriggerKeys()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 60 * time.Second
	}
	return &Watcher{
		dir:      dir,
		runner:   runner,
		options:  opts,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
		pending:  make(chan string, 1),
		metrics:  rec,
		logger:   log.WithComponent("watch"),
	}
}

// TriggerKey returns the trigger key a file name belongs to
func (w *Watcher) TriggerKey(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, s0_snapshot.TempPrefix) || !strings.HasSuffix(base, ".json") {
		return "", false
	}
	for _, key := range w.options.TriggerKeys {
		if strings.HasPrefix(base, key) {
			return key, true
		}
	}
	return "", false
}

// Handle decides whether a changed file triggers a pipeline run
func (w *Watcher) Handle(ctx context.Context, name string) string {
	key, ok := w.TriggerKey(name)
	if !ok {
		return DecisionIgnored
	}

	decision := w.decide(ctx, key)
	w.metrics.RecordWatchTrigger(key, decision)

	w.logger.WithFields(map[string]interface{}{
		"file":     filepath.Base(name),
		"key":      key,
		"decision": decision,
	}).Info("Snapshot change detected")

	return decision
}

func (w *Watcher) decide(ctx context.Context, key string) string {
	if !w.limiter(key).AllowN(w.now(), 1) {
		return DecisionCooldown
	}

	if w.options.Shared != nil {
		allowed, _, err := w.options.Shared.Allow(ctx, redis.CooldownConfig(key, w.options.Cooldown))
		if err != nil {
			w.logger.WithError(err).Warn("Shared cooldown check failed, using local cooldown only")
		} else if !allowed {
			return DecisionCooldown
		}
	}

	select {
	case w.pending <- key:
		return DecisionTriggered
	default:
		// 대기 중인 실행이 최신 스냅샷을 읽음
		return DecisionCoalesced
	}
}

func (w *Watcher) limiter(key string) *rate.Limiter {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(w.options.Cooldown), 1)
		w.limiters[key] = l
	}
	return l
}

// Run watches the directory until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	defer wg.Wait()

	w.logger.WithFields(map[string]interface{}{
		"dir":      w.dir,
		"keys":     w.options.TriggerKeys,
		"cooldown": w.options.Cooldown.String(),
	}).Info("Watching snapshot directory")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// 원자적 쓰기는 최종 이름으로 Create 이벤트를 발생시킴
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.Handle(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watcher error")
		}
	}
}

// work drains triggers one run at a time
func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-w.pending:
			w.runPipeline(ctx, key)
		}
	}
}

func (w *Watcher) runPipeline(ctx context.Context, key string) {
	runID := fmt.Sprintf("watch-%s", w.now().Format("20060102-150405"))

	result, err := w.runner.Run(ctx, brain.RunConfig{
		RunID:   runID,
		Trigger: "watch:" + key,
		Strict:  w.options.Strict,
	})
	if errors.Is(err, brain.ErrRunInFlight) {
		w.logger.WithField("key", key).Info("Pipeline already running, trigger dropped")
		return
	}
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"run_id": runID,
			"key":    key,
			"error":  err.Error(),
		}).Error("Triggered pipeline run failed")
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"key":      key,
		"duration": result.Duration.String(),
	}).Info("Triggered pipeline run finished")
}
