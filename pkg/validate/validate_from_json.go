package validate

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// ValidateOrderFromJSON — нормализация и валидация заказа маркетплейса из JSON.
func ValidateOrderFromJSON(ctx context.Context, normalizer ports.OrderNormalizer, raw []byte) (*domain.NormalizedOrder, error) {
	return normalizer.NormalizePayload(ctx, raw)
}
