package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// SyncTrigger — реакция на внутренние изменения: только постановка задач в очередь.
type SyncTrigger interface {
	OrderChanged(ctx context.Context, order *domain.LedgerOrder)
	StockChanged(ctx context.Context, productIDs []int64)
}
