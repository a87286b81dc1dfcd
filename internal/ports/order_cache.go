package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// OrderCache — кэш снимков заказов по external id.
// Требования к реализации: потокобезопасность; доступ по ключу не хуже O(1); возврат копий сущности.
type OrderCache interface {
	// Get — (order, true) при попадании, (nil, false) при промахе/истечении.
	Get(ctx context.Context, externalID string) (*domain.LedgerOrder, bool)

	// Set — сохранить/обновить заказ в кэше.
	Set(ctx context.Context, order *domain.LedgerOrder) error

	// Invalidate — удалить заказ из кэша после изменения.
	Invalidate(ctx context.Context, externalID string)

	// WarmUp — массовая загрузка кэша (например, при старте).
	// Реализация должна поддерживать отмену контекста.
	WarmUp(ctx context.Context, orders []*domain.LedgerOrder) error
}
