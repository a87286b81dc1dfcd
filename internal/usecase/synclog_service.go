package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// DefaultLogRetentionDays — срок хранения журнала по умолчанию.
const DefaultLogRetentionDays = 30

// SyncLogService — журнал синхронизации. Ошибка записи в журнал не прерывает операцию.
type SyncLogService struct {
	repo ports.SyncLogRepository
	log  ports.Logger
	now  func() time.Time
}

// NewSyncLogService — конструктор.
func NewSyncLogService(repo ports.SyncLogRepository, log ports.Logger) *SyncLogService {
	return &SyncLogService{repo: repo, log: log, now: time.Now}
}

// Record — добавить запись; сбой хранилища уходит в лог.
func (s *SyncLogService) Record(ctx context.Context, e *domain.SyncLogEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Append(ctx, e); err != nil {
		s.log.Errorf(ctx, "sync log append op=%s status=%s: %v", e.Operation, e.Status, err)
	}
}

// RecordError — запись об ошибке операции над одной записью.
func (s *SyncLogService) RecordError(ctx context.Context, configID int64, op domain.OperationType, model string, recordID int64, name string, err error) {
	s.Record(ctx, &domain.SyncLogEntry{
		ConfigID:     configID,
		Operation:    op,
		Status:       domain.LogError,
		Message:      domain.UserMessage(err),
		ErrorDetails: err.Error(),
		RecordModel:  model,
		RecordID:     recordID,
		RecordName:   name,
		Processed:    1,
		Failed:       1,
	})
}

func (s *SyncLogService) List(ctx context.Context, f domain.SyncLogFilter) ([]*domain.SyncLogEntry, error) {
	return s.repo.List(ctx, f)
}

// Summary — итоги по статусам, число записей за 24 часа и доля успешных.
func (s *SyncLogService) Summary(ctx context.Context, configID int64) (*domain.SyncLogSummary, error) {
	return s.repo.Summary(ctx, configID, s.now().Add(-24*time.Hour))
}

// Prune — удаляет записи старше days дней (days <= 0 → значение по умолчанию).
func (s *SyncLogService) Prune(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultLogRetentionDays
	}
	before := s.now().AddDate(0, 0, -days)
	n, err := s.repo.DeleteOlderThan(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("prune sync logs: %w", err)
	}
	s.log.Infof(ctx, "sync logs pruned removed=%d older_than=%s", n, before.Format(time.RFC3339))
	return n, nil
}
