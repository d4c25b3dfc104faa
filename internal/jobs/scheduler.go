// Package jobs 定时任务：周期性刷新未完成任务数量指标。
package jobs

import (
	"context"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/logger"
	"lingua_backend/pkg/monitoring"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// OpenTaskCounter 由 TaskRepository 实现
type OpenTaskCounter interface {
	CountOpenByType(ctx context.Context) (map[model.TaskType]int64, error)
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	counter   OpenTaskCounter
	interval  int
}

func New(counter OpenTaskCounter, intervalMinutes int) *Scheduler {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		counter:   counter,
		interval:  intervalMinutes,
	}
}

// Start 立即执行一次，之后按间隔执行
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Minutes().Do(s.RefreshOpenTasks); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) RefreshOpenTasks() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := s.counter.CountOpenByType(ctx)
	if err != nil {
		logger.Log.Error("Failed to count open tasks", zap.Error(err))
		return
	}
	for taskType, n := range counts {
		monitoring.OpenTasks.WithLabelValues(taskType.String()).Set(float64(n))
	}
}
