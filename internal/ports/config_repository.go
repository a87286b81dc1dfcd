package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// ConfigRepository — хранилище единственной конфигурации маркетплейса.
type ConfigRepository interface {
	// Get — активная конфигурация или (nil, nil).
	Get(ctx context.Context) (*domain.MarketplaceConfig, error)
	// Current — конфигурация независимо от флага active или (nil, nil).
	Current(ctx context.Context) (*domain.MarketplaceConfig, error)
	GetByID(ctx context.Context, id int64) (*domain.MarketplaceConfig, error)
	// Create — domain.ErrConfigExists, если конфигурация уже есть.
	Create(ctx context.Context, cfg *domain.MarketplaceConfig) error
	Update(ctx context.Context, cfg *domain.MarketplaceConfig) error
	AddOrdersPulled(ctx context.Context, id int64, n int, at time.Time) error
	AddProductsSynced(ctx context.Context, id int64, n int, at time.Time) error
	SetConnectionStatus(ctx context.Context, id int64, status domain.ConnectionStatus, errMsg string, at time.Time) error
}
