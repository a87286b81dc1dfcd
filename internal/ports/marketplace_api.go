package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// MarketplaceAPI — операции REST API маркетплейса. Ошибки имеют тип *domain.APIError.
type MarketplaceAPI interface {
	UpdateOrderStatus(ctx context.Context, cfg *domain.MarketplaceConfig, upd domain.OrderStatusUpdate) (domain.Envelope, error)
	BulkUpdatePrices(ctx context.Context, cfg *domain.MarketplaceConfig, items []domain.PriceUpdate) (domain.Envelope, error)
	BulkUpdateStock(ctx context.Context, cfg *domain.MarketplaceConfig, items []domain.StockUpdate) (domain.Envelope, error)
	PullOrders(ctx context.Context, cfg *domain.MarketplaceConfig, from, to time.Time, page, perPage int) ([]map[string]any, error)
	TestConnection(ctx context.Context, cfg *domain.MarketplaceConfig) (domain.Envelope, error)
}
