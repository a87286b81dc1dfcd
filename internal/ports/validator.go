package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// OrderValidator — проверка инвариантов нормализованного заказа.
type OrderValidator interface {
	Validate(ctx context.Context, order *domain.NormalizedOrder) error
}

// OrderNormalizer — преобразование сырого заказа маркетплейса в каноническое представление.
// Ошибки оборачивают domain.ErrInvalidOrder.
type OrderNormalizer interface {
	NormalizePayload(ctx context.Context, raw []byte) (*domain.NormalizedOrder, error)
	Normalize(ctx context.Context, data map[string]any) (*domain.NormalizedOrder, error)
}
