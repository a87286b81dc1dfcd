package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

func newOrder(externalID string) *domain.LedgerOrder {
	return &domain.LedgerOrder{
		ExternalID: externalID,
		State:      domain.StateDraft,
		Lines:      []domain.LedgerLine{{Description: "x", Quantity: 1}},
		Pickings:   []domain.Picking{{State: domain.PickingConfirmed, Moves: []domain.Move{{Demand: 1}}}},
	}
}

func TestSetGet_HitMiss(t *testing.T) {
	c := NewLRUCacheTTL(2, 5*time.Minute)
	ctx := context.Background()

	// miss
	if _, ok := c.Get(ctx, "id-1"); ok {
		t.Fatalf("expected miss before Set")
	}

	// hit после Set
	_ = c.Set(ctx, newOrder("id-1"))
	got, ok := c.Get(ctx, "id-1")
	if !ok || got.ExternalID != "id-1" {
		t.Fatalf("expected hit for id-1")
	}
}

func TestSet_SkipsInternalOrders(t *testing.T) {
	c := NewLRUCacheTTL(2, 0)
	ctx := context.Background()

	_ = c.Set(ctx, newOrder(""))
	_ = c.Set(ctx, nil)
	if c.Len() != 0 {
		t.Fatalf("orders without external id must not be cached, len=%d", c.Len())
	}
}

func TestTTL_Expiry(t *testing.T) {
	c := NewLRUCacheTTL(2, 100*time.Millisecond)
	ctx := context.Background()

	_ = c.Set(ctx, newOrder("ttl"))
	if _, ok := c.Get(ctx, "ttl"); !ok {
		t.Fatalf("expected hit right after Set")
	}
	time.Sleep(150 * time.Millisecond)
	if _, ok := c.Get(ctx, "ttl"); ok {
		t.Fatalf("expected miss after TTL expires")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCacheTTL(2, 0) // 0 = без TTL
	ctx := context.Background()

	_ = c.Set(ctx, newOrder("A"))
	_ = c.Set(ctx, newOrder("B"))
	// A сделать «свежим»
	if _, ok := c.Get(ctx, "A"); !ok {
		t.Fatalf("expected hit for A")
	}
	// Добавляем C — вытеснит B (самый старый)
	_ = c.Set(ctx, newOrder("C"))

	if _, ok := c.Get(ctx, "B"); ok {
		t.Fatalf("expected B to be evicted")
	}
	if _, ok := c.Get(ctx, "A"); !ok || c.ll.Len() != 2 {
		t.Fatalf("expected A & C to stay in cache")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewLRUCacheTTL(4, 0)
	ctx := context.Background()

	_ = c.Set(ctx, newOrder("X"))
	c.Invalidate(ctx, "X")
	c.Invalidate(ctx, "missing")
	if _, ok := c.Get(ctx, "X"); ok {
		t.Fatalf("expected miss after Invalidate")
	}
	if len(c.index) != 0 || c.ll.Len() != 0 {
		t.Fatalf("index and list must be empty")
	}
}

func TestWarmUp_StopsOnCancel(t *testing.T) {
	c := NewLRUCacheTTL(10, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.WarmUp(ctx, []*domain.LedgerOrder{newOrder("A")}); err == nil {
		t.Fatalf("expected context error")
	}
	if err := c.WarmUp(context.Background(), []*domain.LedgerOrder{newOrder("A"), newOrder("B")}); err != nil {
		t.Fatalf("warm up: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestCloneImmutability(t *testing.T) {
	c := NewLRUCacheTTL(1, 0)
	ctx := context.Background()
	orig := newOrder("Z")
	_ = c.Set(ctx, orig)

	// меняем исходник после Set — кэш не должен измениться
	orig.Lines[0].Description = "mutated"

	// меняем то, что вернул Get — не должно влиять на кэш
	o1, _ := c.Get(ctx, "Z")
	o1.Pickings[0].Moves[0].Done = 99

	o2, _ := c.Get(ctx, "Z")
	if o2.Lines[0].Description != "x" || o2.Pickings[0].Moves[0].Done != 0 {
		t.Fatalf("cache should return clones, not pointers to internal value")
	}
}
