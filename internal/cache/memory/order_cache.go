package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

// Проверка, что LRUCacheTTL удовлетворяет интерфейсу OrderCache.
var _ ports.OrderCache = (*LRUCacheTTL)(nil)

type entry struct {
	key       string
	order     *domain.LedgerOrder
	expiresAt time.Time
}

// LRUCacheTTL — снимки заказов по external id с вытеснением LRU и скользящим TTL.
// Заказы без external id не кэшируются.
type LRUCacheTTL struct {
	capacity int
	ttl      time.Duration

	ll    *list.List
	index map[string]*list.Element

	mu sync.Mutex
}

// NewLRUCacheTTL — capacity <= 0 трактуется как 1, ttl <= 0 отключает истечение.
func NewLRUCacheTTL(capacity int, ttl time.Duration) *LRUCacheTTL {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCacheTTL{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

// Get — копия заказа при попадании; истёкшая запись удаляется.
func (c *LRUCacheTTL) Get(_ context.Context, externalID string) (*domain.LedgerOrder, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[externalID]
	if !ok {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	ent := elem.Value.(*entry)
	if ent.expired(now) {
		c.drop(elem, reasonExpired)
		return nil, false
	}
	c.ll.MoveToFront(elem)
	ent.expiresAt = c.deadline(now)

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return ent.order.Clone(), true
}

// Set — добавить или заменить снимок.
func (c *LRUCacheTTL) Set(_ context.Context, order *domain.LedgerOrder) error {
	if !order.IsMarketplaceOrder() {
		return nil
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[order.ExternalID]; ok {
		ent := elem.Value.(*entry)
		ent.order = order.Clone()
		ent.expiresAt = c.deadline(now)
		c.ll.MoveToFront(elem)
		return nil
	}

	c.index[order.ExternalID] = c.ll.PushFront(&entry{
		key:       order.ExternalID,
		order:     order.Clone(),
		expiresAt: c.deadline(now),
	})
	c.shrink(now)
	metrics.CacheSize.Set(float64(len(c.index)))
	return nil
}

// Invalidate — удалить снимок после изменения заказа.
func (c *LRUCacheTTL) Invalidate(_ context.Context, externalID string) {
	if externalID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[externalID]; ok {
		c.drop(elem, reasonInvalidated)
	}
}

// WarmUp — загрузка снимков; прерывается отменой контекста.
func (c *LRUCacheTTL) WarmUp(ctx context.Context, orders []*domain.LedgerOrder) error {
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Set(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

// Len — число записей (включая ещё не вычищенные истёкшие).
func (c *LRUCacheTTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
