package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// ProductRepository — товары поставщика. Find*/Get возвращают (nil, nil) при промахе.
type ProductRepository interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	// ListSyncEnabled — товары с включённой синхронизацией и external id; пустой ids → все.
	ListSyncEnabled(ctx context.Context, ids []int64) ([]*domain.Product, error)
	UpdateSyncState(ctx context.Context, ids []int64, status domain.SyncStatus, syncErr string, at time.Time) error
}
