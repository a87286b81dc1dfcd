package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

var _ ports.ConfigRepository = (*ConfigRepository)(nil)

// ConfigRepository — единственная конфигурация маркетплейса в памяти.
type ConfigRepository struct {
	mu  sync.RWMutex
	cfg *domain.MarketplaceConfig
}

func NewConfigRepository() *ConfigRepository { return &ConfigRepository{} }

func (r *ConfigRepository) Get(_ context.Context) (*domain.MarketplaceConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil || !r.cfg.Active {
		return nil, nil
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *ConfigRepository) Current(_ context.Context) (*domain.MarketplaceConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, nil
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *ConfigRepository) GetByID(_ context.Context, id int64) (*domain.MarketplaceConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil || r.cfg.ID != id {
		return nil, nil
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *ConfigRepository) Create(_ context.Context, cfg *domain.MarketplaceConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg != nil {
		return domain.ErrConfigExists
	}
	now := time.Now().UTC()
	cfg.ID = 1
	cfg.CreatedAt, cfg.UpdatedAt = now, now
	cp := *cfg
	r.cfg = &cp
	return nil
}

func (r *ConfigRepository) Update(_ context.Context, cfg *domain.MarketplaceConfig) error {
	return r.mutate(cfg.ID, func(c *domain.MarketplaceConfig) {
		created := c.CreatedAt
		*c = *cfg
		c.CreatedAt = created
		c.UpdatedAt = time.Now().UTC()
	})
}

func (r *ConfigRepository) AddOrdersPulled(_ context.Context, id int64, n int, at time.Time) error {
	return r.mutate(id, func(c *domain.MarketplaceConfig) {
		c.TotalOrdersPulled += int64(n)
		t := at
		c.LastOrderPull = &t
	})
}

func (r *ConfigRepository) AddProductsSynced(_ context.Context, id int64, n int, at time.Time) error {
	return r.mutate(id, func(c *domain.MarketplaceConfig) {
		c.TotalProductsSynced += int64(n)
		t := at
		c.LastProductSync = &t
	})
}

func (r *ConfigRepository) SetConnectionStatus(_ context.Context, id int64, status domain.ConnectionStatus, errMsg string, at time.Time) error {
	return r.mutate(id, func(c *domain.MarketplaceConfig) {
		c.ConnectionStatus = status
		c.LastConnectionError = errMsg
		t := at
		c.LastConnectionTest = &t
	})
}

func (r *ConfigRepository) mutate(id int64, fn func(c *domain.MarketplaceConfig)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil || r.cfg.ID != id {
		return fmt.Errorf("%w: id %d", domain.ErrConfigNotFound, id)
	}
	fn(r.cfg)
	return nil
}
