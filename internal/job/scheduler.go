package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cronLogger 把 cron 的 log 導到 zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler 依 cron spec 執行 job, 同一個 job 前一次未結束時略過
type Scheduler struct {
	cron      *cron.Cron
	runner    *Runner
	logger    zerolog.Logger
	isRunning atomic.Bool
	stopped   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewScheduler(runner *Runner, logger zerolog.Logger) *Scheduler {
	if runner == nil {
		panic("scheduler dependency runner is nil")
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Register(spec string, j Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runner.Run(s.ctx, j)
	})
	if err != nil {
		return fmt.Errorf("register job %s with spec %q: %w", j.Name(), spec, err)
	}
	s.logger.Info().Str("job", j.Name()).Str("spec", spec).Msg("job registered")
	return nil
}

// Start Stop 之後 job 的 context 已取消, 不能再啟動
func (s *Scheduler) Start() error {
	if s.stopped.Load() {
		return fmt.Errorf("scheduler is stopped")
	}
	if !s.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler is already running")
	}
	s.cron.Start()
	return nil
}

// Stop 不再排入新工作, 等待執行中的 job 結束, 逾時則取消其 context
func (s *Scheduler) Stop(timeout time.Duration) error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil
	}
	s.stopped.Store(true)
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("time out for stop scheduler after %s", timeout)
	}
}
