package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// OrderRepository — хранилище заказов учётной системы.
// Create и Update атомарны: частично сохранённый заказ не виден другим читателям.
type OrderRepository interface {
	// Create — сохраняет заказ со строками в одной транзакции и проставляет ID.
	Create(ctx context.Context, order *domain.LedgerOrder) error
	// Get — (nil, nil), если заказа нет.
	Get(ctx context.Context, id int64) (*domain.LedgerOrder, error)
	// FindByExternalID — все совпадения, от самого раннего к позднему.
	FindByExternalID(ctx context.Context, externalID string) ([]*domain.LedgerOrder, error)
	// Update — сохраняет шапку заказа и отгрузки.
	Update(ctx context.Context, order *domain.LedgerOrder) error
	// Complete — сохраняет заказ и списывает остатки (productID → delta) одной операцией:
	// при ошибке не меняется ни заказ, ни остатки.
	Complete(ctx context.Context, order *domain.LedgerOrder, stock map[int64]float64) error
	// UpdateSync — только поля синхронизации.
	UpdateSync(ctx context.Context, id int64, upd domain.SyncUpdate) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*domain.LedgerOrder, error)
	LastN(ctx context.Context, n int) ([]*domain.LedgerOrder, error)
}
