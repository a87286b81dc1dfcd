package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

var _ ports.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository — покупатели в памяти.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers []*domain.Customer
	seq       int64
}

func NewCustomerRepository() *CustomerRepository { return &CustomerRepository{} }

func (r *CustomerRepository) FindByExternalID(_ context.Context, externalID string) (*domain.Customer, error) {
	return r.find(func(c *domain.Customer) bool { return externalID != "" && c.ExternalID == externalID }), nil
}

func (r *CustomerRepository) FindByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	return r.find(func(c *domain.Customer) bool { return phone != "" && c.Phone == phone }), nil
}

func (r *CustomerRepository) FindByName(_ context.Context, name string) (*domain.Customer, error) {
	return r.find(func(c *domain.Customer) bool { return name != "" && c.Name == name }), nil
}

func (r *CustomerRepository) Create(_ context.Context, c *domain.Customer) error {
	if c == nil {
		return fmt.Errorf("customer is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	r.customers = append(r.customers, &cp)
	return nil
}

func (r *CustomerRepository) Update(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.customers {
		if stored.ID == c.ID {
			cp := *c
			r.customers[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("%w: customer %d", domain.ErrNotFound, c.ID)
}

// find — первое совпадение в порядке создания.
func (r *CustomerRepository) find(match func(*domain.Customer) bool) *domain.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if match(c) {
			cp := *c
			return &cp
		}
	}
	return nil
}
