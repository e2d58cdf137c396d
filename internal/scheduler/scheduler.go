package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용하기 위한 어댑터입니다
type TaskFunc func(ctx context.Context) error

// Execute는 f(ctx)를 호출합니다
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Scheduler는 정해진 주기의 경계 시각마다 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(name string, interval time.Duration, task Task, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.Named("scheduler").With(zap.String("task", name)),
		stopCh:   make(chan struct{}),
	}
}

// Start는 스케줄러를 시작합니다. ctx가 끝나거나 Stop이 호출될 때까지 블록됩니다
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(s.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			start := time.Now()
			if err := s.task.Execute(ctx); err != nil {
				// 에러가 발생해도 계속 실행
				s.logger.Warn("작업 실행 실패", zap.Error(err))
			} else {
				s.logger.Debug("작업 완료", zap.Duration("elapsed", time.Since(start)))
			}

			timer.Reset(s.nextWait())
		}
	}
}

// nextWait는 다음 주기 경계까지 남은 시간을 계산합니다
func (s *Scheduler) nextWait() time.Duration {
	now := time.Now()
	nextRun := now.Truncate(s.interval).Add(s.interval)
	wait := nextRun.Sub(now)

	s.logger.Debug("다음 실행 대기",
		zap.Duration("wait", wait.Round(time.Millisecond)),
		zap.String("nextRun", nextRun.Format("15:04:05")),
	)
	return wait
}

// Stop은 스케줄러를 중지합니다. 여러 번 호출해도 안전합니다
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
