package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task фоновая задача, которую планировщик запускает по таймеру
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	tasks    []Task
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(logger *zap.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.runTask(ctx, task)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runTask(ctx, task)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", task.Name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", task.Name))
			return
		}
	}
}

func (s *Scheduler) runTask(ctx context.Context, task Task) {
	if err := task.Run(ctx); err != nil {
		s.logger.Error("Background task failed", zap.String("task", task.Name), zap.Error(err))
	}
}
