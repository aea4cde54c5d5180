package job

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog/log"
)

// Job 排程工作, Run 回傳的錯誤由 Runner 寫進 Sink
type Job interface {
	Name() string
	Sink() *Sink
	Run(ctx context.Context) error
}

type JobObserver interface {
	ObserveJob(job string, ok bool, elapsed time.Duration)
}

// RunState 跨 instance 的執行權與執行紀錄
type RunState interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, job, token string) error
	RecordRun(ctx context.Context, run redis_repo.JobRun) error
}

type noopObserver struct{}

func (noopObserver) ObserveJob(string, bool, time.Duration) {}

// Runner job 的錯誤邊界, 不論 job 成功, 失敗或 panic 都正常返回
type Runner struct {
	observer JobObserver
	state    RunState
	lockTTL  time.Duration
	now      func() time.Time
}

type RunnerOption func(*Runner)

func WithObserver(o JobObserver) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

func WithRunState(state RunState, lockTTL time.Duration) RunnerOption {
	return func(r *Runner) {
		r.state = state
		r.lockTTL = lockTTL
	}
}

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		observer: noopObserver{},
		lockTTL:  10 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 回傳 job 是否成功, 其他 instance 正在執行時略過並回傳 false
func (r *Runner) Run(ctx context.Context, j Job) bool {
	logger := log.With().Str("job", j.Name()).Logger()

	if r.state != nil {
		token, acquired, err := r.state.Acquire(ctx, j.Name(), r.lockTTL)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("job run state unavailable, running without lock")
		case !acquired:
			logger.Info().Msg("job is running elsewhere, skipped")
			return false
		default:
			defer func() {
				if err := r.state.Release(context.WithoutCancel(ctx), j.Name(), token); err != nil {
					logger.Warn().Err(err).Msg("release job lock failed")
				}
			}()
		}
	}

	started := r.now()
	err := safeRun(ctx, j)
	finished := r.now()
	ok := err == nil

	msg := "ok"
	if !ok {
		msg = fmt.Sprintf("Error: %v", err)
		j.Sink().Print(msg)
		logger.Error().Err(err).Msg("job failed")
	}
	r.observer.ObserveJob(j.Name(), ok, finished.Sub(started))

	if r.state != nil {
		run := redis_repo.JobRun{Job: j.Name(), StartedAt: started, FinishedAt: finished, OK: ok, Message: msg}
		if err := r.state.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn().Err(err).Msg("record job run failed")
		}
	}
	return ok
}

func safeRun(ctx context.Context, j Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("job", j.Name()).Bytes("stack", debug.Stack()).Msg("job panic")
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return j.Run(ctx)
}
