package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// ScheduledTask — периодическая задача. Every <= 0 отключает задачу.
type ScheduledTask struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Scheduler — запускает задачи по таймеру до отмены контекста.
type Scheduler struct {
	tasks []ScheduledTask
	log   ports.Logger
}

// NewScheduler — конструктор.
func NewScheduler(log ports.Logger, tasks ...ScheduledTask) *Scheduler {
	return &Scheduler{tasks: tasks, log: log}
}

// Run — блокируется до отмены ctx и завершения всех циклов.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, t := range s.tasks {
		if t.Every <= 0 || t.Run == nil {
			s.log.Infof(ctx, "scheduled task %s disabled", t.Name)
			continue
		}
		wg.Add(1)
		go func(t ScheduledTask) {
			defer wg.Done()
			s.loop(ctx, t)
		}(t)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, t ScheduledTask) {
	s.log.Infof(ctx, "scheduled task %s every %s", t.Name, t.Every)
	ticker := time.NewTicker(t.Every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Run(ctx); err != nil {
				if errors.Is(err, domain.ErrConfigNotFound) {
					s.log.Infof(ctx, "scheduled task %s skipped: marketplace is not configured", t.Name)
					continue
				}
				s.log.Warnf(ctx, "scheduled task %s failed: %v", t.Name, err)
			}
		}
	}
}

// PullTask — периодическая постановка pull_orders.
func PullTask(jobs *JobService, every time.Duration) ScheduledTask {
	return ScheduledTask{
		Name:  "pull_orders",
		Every: every,
		Run: func(ctx context.Context) error {
			_, err := jobs.RequestPull(ctx, nil, nil)
			return err
		},
	}
}

// PruneTask — периодическая очистка журнала.
func PruneTask(journal *SyncLogService, every time.Duration, days int) ScheduledTask {
	return ScheduledTask{
		Name:  "prune_sync_logs",
		Every: every,
		Run: func(ctx context.Context) error {
			_, err := journal.Prune(ctx, days)
			return err
		},
	}
}
