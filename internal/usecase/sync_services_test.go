package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports/mocks"
	"github.com/Gunvolt24/mpsync/internal/usecase"
	"github.com/Gunvolt24/mpsync/pkg/validate"
)

func TestFilterPushable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order *domain.LedgerOrder
		want  bool
	}{
		{"internal order", &domain.LedgerOrder{State: domain.StateSale}, false},
		{"supplier delivery sale", &domain.LedgerOrder{ExternalID: "a", State: domain.StateSale, DeliveredBy: domain.DeliveredBySupplier}, true},
		{"supplier delivery done", &domain.LedgerOrder{ExternalID: "b", State: domain.StateDone, DeliveredBy: domain.DeliveredBySupplier}, true},
		{"marketplace delivery sale", &domain.LedgerOrder{ExternalID: "c", State: domain.StateSale, DeliveredBy: domain.DeliveredByMarketplace}, false},
		{"marketplace delivery done", &domain.LedgerOrder{ExternalID: "d", State: domain.StateDone, DeliveredBy: domain.DeliveredByMarketplace}, false},
		{"marketplace delivery cancel", &domain.LedgerOrder{ExternalID: "e", State: domain.StateCancel, DeliveredBy: domain.DeliveredByMarketplace}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.ShouldPush(tt.order))
			got := usecase.FilterPushable([]*domain.LedgerOrder{tt.order})
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestSyncTrigger_EnqueuesPushAndStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	trigger := usecase.NewSyncTrigger(queue, noopLogger{})
	ctx := context.Background()

	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job domain.Job) error {
		assert.Equal(t, domain.JobPushStatus, job.Kind)
		assert.Equal(t, domain.ChannelOutbound, job.Channel)
		assert.Equal(t, "EXT-1", job.Key)
		assert.NotEmpty(t, job.ID)
		return nil
	})
	trigger.OrderChanged(ctx, &domain.LedgerOrder{ExternalID: "EXT-1", ConfigID: 1, State: domain.StateSale})

	// маркетплейс доставляет сам: подтверждение не отправляется
	trigger.OrderChanged(ctx, &domain.LedgerOrder{ExternalID: "EXT-2", State: domain.StateSale, DeliveredBy: domain.DeliveredByMarketplace})

	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job domain.Job) error {
		assert.Equal(t, domain.JobStockSync, job.Kind)
		var p domain.ProductSyncPayload
		require.NoError(t, json.Unmarshal(job.Payload, &p))
		assert.Equal(t, []int64{4, 5}, p.ProductIDs)
		return errors.New("broker down")
	})
	trigger.StockChanged(ctx, []int64{4, 5})
	trigger.StockChanged(ctx, nil)
}

func TestInternalCompletePushesAndSyncsStock(t *testing.T) {
	e := newEnv(t)
	p := e.addProduct(t, "MP-1", "SKU-1", 10)
	ctx := context.Background()

	_, err := e.reconciler().Reconcile(ctx, e.cfg, normalized("EXT-OP", domain.StatusPending, 2, "MP-1"))
	require.NoError(t, err)
	order := e.mustFind(t, "EXT-OP")

	var kinds []domain.JobKind
	e.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job domain.Job) error {
		kinds = append(kinds, job.Kind)
		return nil
	}).Times(4)

	require.NoError(t, e.ledger.Transition(ctx, order.ID, domain.StateSale, domain.OriginInternal))
	require.NoError(t, e.ledger.Transition(ctx, order.ID, domain.StateDone, domain.OriginInternal))

	assert.Equal(t, []domain.JobKind{domain.JobPushStatus, domain.JobPushStatus, domain.JobPushStatus, domain.JobStockSync}, kinds)
	stored, err := e.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, stored.Stock)
}

func TestStatusPusher_Push(t *testing.T) {
	e := newEnv(t)
	e.addProduct(t, "MP-1", "SKU-1", 10)
	ctx := context.Background()

	in := normalized("EXT-P", domain.StatusDelivered, 1, "MP-1")
	in.PaymentMethod = domain.PaymentInstallment
	in.RetailerOTP = "4321"
	_, err := e.reconciler().Reconcile(ctx, e.cfg, in)
	require.NoError(t, err)

	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	pusher := usecase.NewStatusPusher(e.orders, api, nil, e.journal, noopLogger{})

	api.EXPECT().UpdateOrderStatus(gomock.Any(), e.cfg, domain.OrderStatusUpdate{
		ExternalID:  "EXT-P",
		Status:      domain.StatusDelivered,
		RetailerOTP: "4321",
	}).Return(domain.Envelope{Success: true}, nil)

	require.NoError(t, pusher.Push(ctx, e.cfg, "EXT-P"))
	order := e.mustFind(t, "EXT-P")
	assert.Equal(t, domain.SyncSynced, order.SyncStatus)
	assert.Equal(t, "delivered", order.MarketplaceStatus)

	entries := e.journalEntries(t, domain.OpStatusSync)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogSuccess, entries[0].Status)
}

func TestStatusPusher_APIErrorMarksOrder(t *testing.T) {
	e := newEnv(t)
	e.addProduct(t, "MP-1", "SKU-1", 10)
	ctx := context.Background()

	_, err := e.reconciler().Reconcile(ctx, e.cfg, normalized("EXT-E", domain.StatusApproved, 1, "MP-1"))
	require.NoError(t, err)

	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	pusher := usecase.NewStatusPusher(e.orders, api, nil, e.journal, noopLogger{})
	apiErr := &domain.APIError{Kind: domain.APIErrHTTP, StatusCode: 503, Message: "unavailable"}
	api.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Envelope{}, apiErr)

	err = pusher.Push(ctx, e.cfg, "EXT-E")
	var got *domain.APIError
	require.True(t, errors.As(err, &got))
	assert.False(t, domain.IsPermanent(err))

	order := e.mustFind(t, "EXT-E")
	assert.Equal(t, domain.SyncError, order.SyncStatus)
	assert.Equal(t, "approved", order.MarketplaceStatus)
	assert.NotEmpty(t, order.SyncErrorDetails)
}

func TestStatusPusher_SuppressedForMarketplaceDelivery(t *testing.T) {
	e := newEnv(t)
	e.addProduct(t, "MP-1", "SKU-1", 10)
	ctx := context.Background()

	in := normalized("EXT-M", domain.StatusApproved, 1, "MP-1")
	in.DeliveredBy = domain.DeliveredByMarketplace
	_, err := e.reconciler().Reconcile(ctx, e.cfg, in)
	require.NoError(t, err)

	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	api.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	pusher := usecase.NewStatusPusher(e.orders, api, nil, e.journal, noopLogger{})
	require.NoError(t, pusher.Push(ctx, e.cfg, "EXT-M"))
	require.ErrorIs(t, pusher.Push(ctx, e.cfg, "EXT-404"), domain.ErrNotFound)
}

func rawOrder(id, status string) map[string]any {
	return map[string]any{
		"hashed_id": id,
		"status":    status,
		"retailer": map[string]any{
			"retailer_name":   "Corner Shop",
			"retailer_number": "+201000000001",
			"retailer_code":   "R-77",
		},
		"order_details": []any{
			map[string]any{"supplier_product_id": "MP-1", "amount": float64(2), "selling_price": float64(25)},
		},
	}
}

func newPullService(e *env, api *mocks.MockMarketplaceAPI) *usecase.PullService {
	configs := usecase.NewConfigService(e.configs, api, e.journal, noopLogger{})
	normalizer := validate.NewOrderNormalizer(validate.NewOrderValidator(), noopLogger{})
	return usecase.NewPullService(api, normalizer, e.reconciler(), configs, e.journal, noopLogger{}, 0)
}

func TestPull_EmptyWindowLogsInfo(t *testing.T) {
	e := newEnv(t)
	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	api.EXPECT().PullOrders(gomock.Any(), e.cfg, gomock.Any(), gomock.Any(), 1, domain.DefaultBatchSize).Return(nil, nil)

	stats, err := newPullService(e, api).Pull(context.Background(), e.cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, usecase.PullStats{}, *stats)

	entries := e.journalEntries(t, domain.OpOrderPull)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogInfo, entries[0].Status)
	assert.Equal(t, "No orders found", entries[0].Message)
}

func TestPull_PagesAndCountsResults(t *testing.T) {
	e := newEnv(t)
	e.addProduct(t, "MP-1", "SKU-1", 10)
	e.cfg.BatchSize = 2
	ctx := context.Background()
	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)
	broken := map[string]any{"hashed_id": "BROKEN"}

	gomock.InOrder(
		api.EXPECT().PullOrders(gomock.Any(), e.cfg, from, to, 1, 2).Return([]map[string]any{rawOrder("A", "pending"), rawOrder("B", "approved")}, nil),
		api.EXPECT().PullOrders(gomock.Any(), e.cfg, from, to, 2, 2).Return([]map[string]any{broken}, nil),
	)

	svc := newPullService(e, api)
	stats, err := svc.Pull(ctx, e.cfg, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, usecase.PullStats{Pulled: 3, New: 2, Errors: 1}, *stats)

	api.EXPECT().PullOrders(gomock.Any(), e.cfg, from, to, 1, 2).Return([]map[string]any{rawOrder("A", "pending")}, nil)
	stats, err = svc.Pull(ctx, e.cfg, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, usecase.PullStats{Pulled: 1, Skipped: 1}, *stats)

	stored, err := e.configs.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stored.TotalOrdersPulled)
	assert.NotNil(t, stored.LastOrderPull)
}

func TestPull_APIErrorIsReturned(t *testing.T) {
	e := newEnv(t)
	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	api.EXPECT().PullOrders(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), 1, gomock.Any()).
		Return(nil, &domain.APIError{Kind: domain.APIErrTimeout, Message: "Request timeout"})

	_, err := newPullService(e, api).Pull(context.Background(), e.cfg, nil, nil)
	require.Error(t, err)

	entries := e.journalEntries(t, domain.OpOrderPull)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogError, entries[0].Status)
}

func TestProductSync_BatchesAndPartialFailure(t *testing.T) {
	e := newEnv(t)
	e.cfg.BatchSize = 2
	ctx := context.Background()
	for _, id := range []string{"MP-1", "MP-2", "MP-3"} {
		e.addProduct(t, id, "SKU-"+id, 3.7)
	}

	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	configs := usecase.NewConfigService(e.configs, api, e.journal, noopLogger{})
	svc := usecase.NewProductSyncService(e.products, api, configs, e.journal, noopLogger{})

	gomock.InOrder(
		api.EXPECT().BulkUpdateStock(gomock.Any(), e.cfg, gomock.Len(2)).DoAndReturn(
			func(_ context.Context, _ *domain.MarketplaceConfig, items []domain.StockUpdate) (domain.Envelope, error) {
				assert.Equal(t, 3, items[0].Quantity)
				return domain.Envelope{Success: true}, nil
			}),
		api.EXPECT().BulkUpdateStock(gomock.Any(), e.cfg, gomock.Len(1)).
			Return(domain.Envelope{}, &domain.APIError{Kind: domain.APIErrHTTP, StatusCode: 500, Message: "boom"}),
	)

	stats, err := svc.SyncStock(ctx, e.cfg, nil)
	require.Error(t, err)
	assert.Equal(t, usecase.ProductSyncStats{Total: 3, Succeeded: 2, Failed: 1}, *stats)

	entries := e.journalEntries(t, domain.OpStockSync)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogWarning, entries[0].Status)

	failed, err := e.products.FindByExternalID(ctx, "MP-3")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncError, failed.SyncStatus)
}

func TestProductSync_NothingToSync(t *testing.T) {
	e := newEnv(t)
	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	configs := usecase.NewConfigService(e.configs, api, e.journal, noopLogger{})
	svc := usecase.NewProductSyncService(e.products, api, configs, e.journal, noopLogger{})

	stats, err := svc.SyncPrices(context.Background(), e.cfg, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}
