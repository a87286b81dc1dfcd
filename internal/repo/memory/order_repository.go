// Пакет memory — репозитории в памяти процесса (режим без Postgres и тесты).
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что OrderRepository удовлетворяет интерфейсу OrderRepository.
var _ ports.OrderRepository = (*OrderRepository)(nil)

// OrderRepository — заказы в памяти. Все чтения и записи работают с копиями.
type OrderRepository struct {
	mu       sync.RWMutex
	orders   map[int64]*domain.LedgerOrder
	products *ProductRepository // остатки для Complete; может быть nil
	seq      int64
	now      func() time.Time
}

// NewOrderRepository — products нужен только для списания остатков в Complete.
func NewOrderRepository(products *ProductRepository) *OrderRepository {
	return &OrderRepository{orders: make(map[int64]*domain.LedgerOrder), products: products, now: time.Now}
}

// Create — сохраняет заказ целиком; external id уникален.
func (r *OrderRepository) Create(_ context.Context, order *domain.LedgerOrder) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", domain.ErrInvalidOrder)
	}
	if len(order.Lines) == 0 {
		return domain.ErrNoLines
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ExternalID != "" {
		for _, o := range r.orders {
			if o.ExternalID == order.ExternalID {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateExternalID, order.ExternalID)
			}
		}
	}

	now := r.now().UTC()
	order.ID = r.next()
	if order.Name == "" {
		order.Name = fmt.Sprintf("SO%05d", order.ID)
	}
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Lines {
		order.Lines[i].ID = r.next()
		order.Lines[i].OrderID = order.ID
	}
	r.assignPickingIDs(order)

	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id int64) (*domain.LedgerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

// FindByExternalID — от самого раннего к позднему.
func (r *OrderRepository) FindByExternalID(_ context.Context, externalID string) ([]*domain.LedgerOrder, error) {
	if externalID == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.LedgerOrder
	for _, o := range r.orders {
		if o.ExternalID == externalID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update — шапка и отгрузки; строки заказа не меняются.
func (r *OrderRepository) Update(_ context.Context, order *domain.LedgerOrder) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", domain.ErrInvalidOrder)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, order.ID)
	}
	r.assignPickingIDs(order)
	order.UpdatedAt = r.now().UTC()

	cp := order.Clone()
	cp.Lines = stored.Lines
	cp.CreatedAt = stored.CreatedAt
	r.orders[order.ID] = cp
	return nil
}

// Complete — остатки и заказ меняются под одной блокировкой; ошибка списания оставляет заказ как был.
func (r *OrderRepository) Complete(_ context.Context, order *domain.LedgerOrder, stock map[int64]float64) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", domain.ErrInvalidOrder)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, order.ID)
	}
	if len(stock) > 0 {
		if r.products == nil {
			return fmt.Errorf("order %d: no product storage for stock adjustment", order.ID)
		}
		if err := r.products.adjust(stock); err != nil {
			return err
		}
	}
	r.assignPickingIDs(order)
	order.UpdatedAt = r.now().UTC()

	cp := order.Clone()
	cp.Lines = stored.Lines
	cp.CreatedAt = stored.CreatedAt
	r.orders[order.ID] = cp
	return nil
}

func (r *OrderRepository) UpdateSync(_ context.Context, id int64, upd domain.SyncUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	o.SyncStatus = upd.Status
	o.SyncError = upd.Error
	o.SyncErrorDetails = upd.ErrorDetails
	if upd.MarketplaceStatus != nil {
		o.MarketplaceStatus = *upd.MarketplaceStatus
	}
	if upd.SyncedAt != nil {
		t := *upd.SyncedAt
		o.SyncedAt = &t
	}
	o.UpdatedAt = r.now().UTC()
	return nil
}

func (r *OrderRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

// List — по убыванию id.
func (r *OrderRepository) List(_ context.Context, limit, offset int) ([]*domain.LedgerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sortedDesc()
	if offset >= len(all) {
		return []*domain.LedgerOrder{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*domain.LedgerOrder, 0, end-offset)
	for _, o := range all[offset:end] {
		out = append(out, o.Clone())
	}
	return out, nil
}

// LastN — последние N заказов маркетплейса (для прогрева кэша).
func (r *OrderRepository) LastN(_ context.Context, n int) ([]*domain.LedgerOrder, error) {
	if n <= 0 {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.LedgerOrder
	for _, o := range r.sortedDesc() {
		if strings.TrimSpace(o.ExternalID) == "" {
			continue
		}
		out = append(out, o.Clone())
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func (r *OrderRepository) sortedDesc() []*domain.LedgerOrder {
	all := make([]*domain.LedgerOrder, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

func (r *OrderRepository) assignPickingIDs(order *domain.LedgerOrder) {
	for i := range order.Pickings {
		p := &order.Pickings[i]
		if p.ID == 0 {
			p.ID = r.next()
		}
		p.OrderID = order.ID
		for j := range p.Moves {
			if p.Moves[j].ID == 0 {
				p.Moves[j].ID = r.next()
			}
			p.Moves[j].PickingID = p.ID
		}
	}
}

// next — вызывается под r.mu.
func (r *OrderRepository) next() int64 {
	r.seq++
	return r.seq
}
