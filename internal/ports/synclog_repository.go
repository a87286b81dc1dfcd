package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// SyncLogRepository — журнал синхронизации (только добавление и удаление по возрасту).
type SyncLogRepository interface {
	Append(ctx context.Context, entry *domain.SyncLogEntry) error
	List(ctx context.Context, f domain.SyncLogFilter) ([]*domain.SyncLogEntry, error)
	Summary(ctx context.Context, configID int64, since time.Time) (*domain.SyncLogSummary, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
