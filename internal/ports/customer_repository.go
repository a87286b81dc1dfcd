package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// CustomerRepository — поиск и создание покупателей. Find* возвращают (nil, nil) при промахе.
type CustomerRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*domain.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	FindByName(ctx context.Context, name string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, c *domain.Customer) error
}
