package memory

import (
	"container/list"
	"time"

	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

// Причины удаления записи (метка cache_ops).
const (
	reasonEvicted     = "evicted"
	reasonExpired     = "expired"
	reasonInvalidated = "invalidated"
)

// expired — нулевой expiresAt означает запись без TTL.
func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// deadline — срок жизни записи, созданной или прочитанной в now.
func (c *LRUCacheTTL) deadline(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

// drop — удаление из списка и индекса с учётом в метриках.
func (c *LRUCacheTTL) drop(elem *list.Element, reason string) {
	if elem == nil {
		return
	}
	delete(c.index, elem.Value.(*entry).key)
	c.ll.Remove(elem)
	metrics.CacheOps.WithLabelValues(reason).Inc()
	metrics.CacheSize.Set(float64(len(c.index)))
}

// shrink — сначала истёкшие записи с хвоста, затем LRU сверх ёмкости.
func (c *LRUCacheTTL) shrink(now time.Time) {
	for back := c.ll.Back(); back != nil && back.Value.(*entry).expired(now); back = c.ll.Back() {
		c.drop(back, reasonExpired)
	}
	for c.ll.Len() > c.capacity {
		c.drop(c.ll.Back(), reasonEvicted)
	}
}
