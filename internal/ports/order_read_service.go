package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// OrderReadService — сервис чтения заказов.
type OrderReadService interface {
	GetOrder(ctx context.Context, externalID string) (*domain.LedgerOrder, error)
	ListOrders(ctx context.Context, limit, offset int) ([]*domain.LedgerOrder, error)
}
