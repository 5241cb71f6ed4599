package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatusRefresher пересчитывает статусы мероприятий во всех школах
type StatusRefresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	refresher StatusRefresher
	interval  time.Duration
	logger    *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. interval <= 0 отключает задачу.
func NewScheduler(refresher StatusRefresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Background status refresh disabled")
		return
	}

	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.runStatusRefreshTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

// runStatusRefreshTask периодически обновляет статусы мероприятий
func (s *Scheduler) runStatusRefreshTask(ctx context.Context) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.refreshStatuses(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshStatuses(ctx)
		case <-s.stopChan:
			s.logger.Info("Status refresh task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Status refresh task cancelled")
			return
		}
	}
}

func (s *Scheduler) refreshStatuses(ctx context.Context) {
	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.logger.Error("Failed to refresh event statuses", zap.Error(err))
		return
	}

	s.logger.Debug("Event statuses refreshed")
}
