package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

var _ ports.ProductRepository = (*ProductRepository)(nil)

// ProductRepository — товары в памяти, упорядочены по id.
type ProductRepository struct {
	mu       sync.RWMutex
	products []*domain.Product
	seq      int64
}

func NewProductRepository() *ProductRepository { return &ProductRepository{} }

func (r *ProductRepository) Get(_ context.Context, id int64) (*domain.Product, error) {
	return r.find(func(p *domain.Product) bool { return p.ID == id }), nil
}

func (r *ProductRepository) FindByExternalID(_ context.Context, externalID string) (*domain.Product, error) {
	return r.find(func(p *domain.Product) bool { return externalID != "" && p.ExternalID == externalID }), nil
}

func (r *ProductRepository) FindBySKU(_ context.Context, sku string) (*domain.Product, error) {
	return r.find(func(p *domain.Product) bool { return sku != "" && p.SKU == sku }), nil
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = r.seq
	r.products = append(r.products, cloneProduct(p))
	return nil
}

func (r *ProductRepository) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.products {
		if stored.ID == p.ID {
			r.products[i] = cloneProduct(p)
			return nil
		}
	}
	return fmt.Errorf("%w: product %d", domain.ErrNotFound, p.ID)
}

func (r *ProductRepository) ListSyncEnabled(_ context.Context, ids []int64) ([]*domain.Product, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Product
	for _, p := range r.products {
		if !p.SyncEnabled || p.ExternalID == "" {
			continue
		}
		if len(want) > 0 {
			if _, ok := want[p.ID]; !ok {
				continue
			}
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

// adjust — все изменения остатка или ни одного.
func (r *ProductRepository) adjust(deltas map[int64]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[int64]*domain.Product, len(r.products))
	for _, p := range r.products {
		byID[p.ID] = p
	}
	for id := range deltas {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
	}
	for id, delta := range deltas {
		byID[id].Stock += delta
	}
	return nil
}

func (r *ProductRepository) UpdateSyncState(_ context.Context, ids []int64, status domain.SyncStatus, syncErr string, at time.Time) error {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if _, ok := want[p.ID]; !ok {
			continue
		}
		p.SyncStatus = status
		p.SyncError = syncErr
		if status == domain.SyncSynced {
			t := at
			p.LastSyncedAt = &t
		}
	}
	return nil
}

func (r *ProductRepository) find(match func(*domain.Product) bool) *domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if match(p) {
			return cloneProduct(p)
		}
	}
	return nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	if p.LastSyncedAt != nil {
		t := *p.LastSyncedAt
		cp.LastSyncedAt = &t
	}
	return &cp
}
