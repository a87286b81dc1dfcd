package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ledger"
	lockmem "github.com/Gunvolt24/mpsync/internal/lock/memory"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/ports/mocks"
	"github.com/Gunvolt24/mpsync/internal/repo/memory"
	"github.com/Gunvolt24/mpsync/internal/usecase"
)

// env — учётная система в памяти с реальным Ledger и очередью-моком.
type env struct {
	orders    *memory.OrderRepository
	customers *memory.CustomerRepository
	products  *memory.ProductRepository
	configs   *memory.ConfigRepository
	logs      *memory.SyncLogRepository
	queue     *mocks.MockJobQueue
	journal   *usecase.SyncLogService
	ledger    *ledger.Service
	cfg       *domain.MarketplaceConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctrl := gomock.NewController(t)
	products := memory.NewProductRepository()
	e := &env{
		orders:    memory.NewOrderRepository(products),
		customers: memory.NewCustomerRepository(),
		products:  products,
		configs:   memory.NewConfigRepository(),
		logs:      memory.NewSyncLogRepository(),
		queue:     mocks.NewMockJobQueue(ctrl),
	}
	e.journal = usecase.NewSyncLogService(e.logs, noopLogger{})
	e.ledger = ledger.NewService(e.orders, e.products, usecase.NewSyncTrigger(e.queue, noopLogger{}), nil, noopLogger{})

	e.cfg = &domain.MarketplaceConfig{AuthToken: "secret", Active: true}
	e.cfg.ApplyDefaults()
	require.NoError(t, e.configs.Create(context.Background(), e.cfg))
	return e
}

func (e *env) reconciler() *usecase.Reconciler {
	return e.reconcilerWith(e.orders, e.products)
}

func (e *env) reconcilerWith(orders ports.OrderRepository, products ports.ProductRepository) *usecase.Reconciler {
	return usecase.NewReconciler(usecase.ReconcilerDeps{
		Orders:    orders,
		Customers: e.customers,
		Products:  products,
		Ledger:    e.ledger,
		Locker:    lockmem.NewKeyedMutex(),
		Journal:   e.journal,
		Log:       noopLogger{},
	})
}

func (e *env) addProduct(t *testing.T, externalID, sku string, stock float64) *domain.Product {
	t.Helper()
	p := &domain.Product{ExternalID: externalID, SKU: sku, Name: "Product " + sku, Price: decimal.NewFromInt(25), Stock: stock, SyncEnabled: true}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func (e *env) mustFind(t *testing.T, externalID string) *domain.LedgerOrder {
	t.Helper()
	found, err := e.orders.FindByExternalID(context.Background(), externalID)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	return found[0]
}

func (e *env) journalEntries(t *testing.T, op domain.OperationType) []*domain.SyncLogEntry {
	t.Helper()
	list, err := e.logs.List(context.Background(), domain.SyncLogFilter{Operation: op, Limit: 100})
	require.NoError(t, err)
	return list
}

func normalized(externalID string, st domain.MarketplaceStatus, qty float64, productExternalID string) *domain.NormalizedOrder {
	return &domain.NormalizedOrder{
		ExternalID:    externalID,
		Status:        st,
		RawStatus:     string(st),
		Currency:      "EGP",
		OrderedAt:     time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		DeliveredBy:   domain.DeliveredBySupplier,
		PaymentMethod: domain.PaymentStandard,
		Customer:      domain.CustomerPayload{ExternalID: "R-1", Name: "Retailer One", Phone: "+201000000000"},
		Lines: []domain.NormalizedLine{{
			ExternalProductID: productExternalID,
			Quantity:          qty,
			UnitPrice:         decimal.NewFromInt(25),
			Total:             decimal.NewFromInt(25).Mul(decimal.NewFromFloat(qty)),
		}},
	}
}

// failingProducts — каталог, в котором нельзя создавать товары.
type failingProducts struct {
	*memory.ProductRepository
}

func (failingProducts) Create(context.Context, *domain.Product) error {
	return errors.New("products table is read-only")
}

// duplicatedOrders — хранилище, в котором у external id есть более поздний дубликат.
type duplicatedOrders struct {
	*memory.OrderRepository
}

func (d duplicatedOrders) FindByExternalID(ctx context.Context, externalID string) ([]*domain.LedgerOrder, error) {
	found, err := d.OrderRepository.FindByExternalID(ctx, externalID)
	if err != nil || len(found) == 0 {
		return found, err
	}
	dup := found[0].Clone()
	dup.ID += 1000
	dup.Name = "SO-DUP"
	return append(found, dup), nil
}
