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
	"github.com/Gunvolt24/mpsync/internal/repo/memory"
	"github.com/Gunvolt24/mpsync/internal/usecase"
	"github.com/Gunvolt24/mpsync/pkg/validate"
)

func newDispatcher(e *env, api *mocks.MockMarketplaceAPI) *usecase.JobDispatcher {
	configs := usecase.NewConfigService(e.configs, api, e.journal, noopLogger{})
	normalizer := validate.NewOrderNormalizer(validate.NewOrderValidator(), noopLogger{})
	reconciler := e.reconciler()
	return usecase.NewJobDispatcher(usecase.JobDispatcherDeps{
		Configs:     configs,
		Normalizer:  normalizer,
		Reconciler:  reconciler,
		Pusher:      usecase.NewStatusPusher(e.orders, api, nil, e.journal, noopLogger{}),
		Puller:      usecase.NewPullService(api, normalizer, reconciler, configs, e.journal, noopLogger{}, 0),
		ProductSync: usecase.NewProductSyncService(e.products, api, configs, e.journal, noopLogger{}),
		Journal:     e.journal,
		Log:         noopLogger{},
	})
}

func TestNewJob_Channels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    domain.JobKind
		channel string
	}{
		{domain.JobInboundOrder, domain.ChannelInbound},
		{domain.JobInboundStatus, domain.ChannelInbound},
		{domain.JobPushStatus, domain.ChannelOutbound},
		{domain.JobPullOrders, domain.ChannelSync},
		{domain.JobProductSync, domain.ChannelSync},
		{domain.JobStockSync, domain.ChannelSync},
	}
	for _, tt := range tests {
		job, err := usecase.NewJob(tt.kind, "k", 1, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.channel, job.Channel, tt.kind)
		assert.Zero(t, job.Attempt)
	}

	raw := json.RawMessage(`{"hashed_id":"X"}`)
	job, err := usecase.NewJob(domain.JobInboundOrder, "X", 1, raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(job.Payload))
}

func TestJobService_AcceptOrder(t *testing.T) {
	e := newEnv(t)
	configs := usecase.NewConfigService(e.configs, nil, e.journal, noopLogger{})
	svc := usecase.NewJobService(configs, e.queue, noopLogger{})
	ctx := context.Background()

	_, err := svc.AcceptOrder(ctx, []byte("{"))
	require.ErrorIs(t, err, domain.ErrInvalidOrder)
	_, err = svc.AcceptOrder(ctx, []byte(`"text"`))
	require.ErrorIs(t, err, domain.ErrInvalidOrder)

	e.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, job domain.Job) error {
		assert.Equal(t, domain.JobInboundOrder, job.Kind)
		assert.Equal(t, "H-42", job.Key)
		assert.Equal(t, e.cfg.ID, job.ConfigID)
		return nil
	})
	id, err := svc.AcceptOrder(ctx, []byte(`[{"hashed_id":"H-42"}]`))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	e.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	_, err = svc.AcceptStatus(ctx, "H-42", "approved")
	require.Error(t, err)

	_, err = svc.AcceptStatus(ctx, "", "approved")
	require.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestJobService_RequiresActiveConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Times(0)

	configs := usecase.NewConfigService(memory.NewConfigRepository(), nil, nil, noopLogger{})
	svc := usecase.NewJobService(configs, queue, noopLogger{})

	_, err := svc.RequestPull(context.Background(), nil, nil)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestDispatcher_InboundOrder(t *testing.T) {
	e := newEnv(t)
	e.addProduct(t, "MP-1", "SKU-1", 10)
	d := newDispatcher(e, mocks.NewMockMarketplaceAPI(gomock.NewController(t)))
	ctx := context.Background()

	raw, err := json.Marshal(rawOrder("H-1", "approved"))
	require.NoError(t, err)
	job, err := usecase.NewJob(domain.JobInboundOrder, "H-1", e.cfg.ID, json.RawMessage(raw))
	require.NoError(t, err)

	require.NoError(t, d.HandleJob(ctx, job))
	require.NoError(t, d.HandleJob(ctx, job)) // повторная доставка
	assert.Equal(t, domain.StateSale, e.mustFind(t, "H-1").State)

	status, err := usecase.NewJob(domain.JobInboundStatus, "H-1", e.cfg.ID, domain.StatusUpdatePayload{OrderID: "H-1", Status: "cancelled"})
	require.NoError(t, err)
	require.NoError(t, d.HandleJob(ctx, status))
	assert.Equal(t, domain.StateCancel, e.mustFind(t, "H-1").State)
}

func TestDispatcher_PermanentErrors(t *testing.T) {
	e := newEnv(t)
	d := newDispatcher(e, mocks.NewMockMarketplaceAPI(gomock.NewController(t)))
	ctx := context.Background()

	tests := []struct {
		name string
		job  domain.Job
	}{
		{"unknown kind", domain.Job{ID: "1", Kind: "reindex"}},
		{"broken payload", domain.Job{ID: "2", Kind: domain.JobInboundStatus, Payload: json.RawMessage(`[1]`)}},
		{"empty status", domain.Job{ID: "3", Kind: domain.JobInboundStatus, Payload: json.RawMessage(`{"order_id":"x"}`)}},
		{"invalid order", domain.Job{ID: "4", Kind: domain.JobInboundOrder, Payload: json.RawMessage(`{"hashed_id":"x"}`)}},
		{"missing order", domain.Job{ID: "5", Kind: domain.JobInboundStatus, Payload: json.RawMessage(`{"order_id":"nope","status":"approved"}`)}},
	}
	for _, tt := range tests {
		err := d.HandleJob(ctx, tt.job)
		require.Error(t, err, tt.name)
		assert.True(t, domain.IsPermanent(err), "%s: %v", tt.name, err)
	}
}

func TestDispatcher_PushUsesJobKey(t *testing.T) {
	e := newEnv(t)
	e.addProduct(t, "MP-1", "SKU-1", 10)
	api := mocks.NewMockMarketplaceAPI(gomock.NewController(t))
	d := newDispatcher(e, api)
	ctx := context.Background()

	_, err := e.reconciler().Reconcile(ctx, e.cfg, normalized("EXT-K", domain.StatusApproved, 1, "MP-1"))
	require.NoError(t, err)

	api.EXPECT().UpdateOrderStatus(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.MarketplaceConfig, upd domain.OrderStatusUpdate) (domain.Envelope, error) {
			assert.Equal(t, "EXT-K", upd.ExternalID)
			assert.Equal(t, domain.StatusApproved, upd.Status)
			return domain.Envelope{Success: true}, nil
		})
	require.NoError(t, d.HandleJob(ctx, domain.Job{ID: "p", Kind: domain.JobPushStatus, Key: "EXT-K", ConfigID: e.cfg.ID}))
}

func TestDispatcher_MaxAttemptsAndExhausted(t *testing.T) {
	e := newEnv(t)
	d := newDispatcher(e, mocks.NewMockMarketplaceAPI(gomock.NewController(t)))
	ctx := context.Background()

	retries := 2
	configs := usecase.NewConfigService(e.configs, nil, e.journal, noopLogger{})
	_, err := configs.Update(ctx, usecase.ConfigPatch{RetryAttempts: &retries})
	require.NoError(t, err)

	job := domain.Job{ID: "j", Kind: domain.JobPushStatus, Key: "EXT-X", ConfigID: e.cfg.ID, Attempt: 2}
	assert.Equal(t, 3, d.MaxAttempts(ctx, job))
	assert.Equal(t, domain.DefaultRetryAttempts+1, d.MaxAttempts(ctx, domain.Job{ConfigID: 999}))

	d.OnExhausted(ctx, job, errors.New("API Error 503: unavailable"))
	entries := e.journalEntries(t, domain.OpStatusSync)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogError, entries[0].Status)
	assert.Equal(t, "EXT-X", entries[0].RecordName)
}

func TestConfigService_Lifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockMarketplaceAPI(ctrl)
	logs := memory.NewSyncLogRepository()
	repo := memory.NewConfigRepository()
	svc := usecase.NewConfigService(repo, api, usecase.NewSyncLogService(logs, noopLogger{}), noopLogger{})
	ctx := context.Background()

	_, err := svc.Active(ctx)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)

	require.NoError(t, svc.Seed(ctx, &domain.MarketplaceConfig{AuthToken: "tok", BaseURL: "https://mp.example.com/api", Active: true}))
	require.NoError(t, svc.Seed(ctx, &domain.MarketplaceConfig{AuthToken: "other", Active: true}))

	cfg, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example.com/api/", cfg.BaseURL)
	assert.Equal(t, "tok", cfg.AuthToken)

	err = svc.Create(ctx, &domain.MarketplaceConfig{AuthToken: "x"})
	require.ErrorIs(t, err, domain.ErrConfigExists)

	bad := "ftp://nope"
	_, err = svc.Update(ctx, usecase.ConfigPatch{BaseURL: &bad})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	off := false
	_, err = svc.Update(ctx, usecase.ConfigPatch{Active: &off})
	require.NoError(t, err)
	_, err = svc.Active(ctx)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
	_, err = svc.Current(ctx)
	require.NoError(t, err)
}

func TestConfigService_TestConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockMarketplaceAPI(ctrl)
	logs := memory.NewSyncLogRepository()
	repo := memory.NewConfigRepository()
	svc := usecase.NewConfigService(repo, api, usecase.NewSyncLogService(logs, noopLogger{}), noopLogger{})
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, &domain.MarketplaceConfig{AuthToken: "tok", Active: true}))

	api.EXPECT().TestConnection(gomock.Any(), gomock.Any()).
		Return(domain.Envelope{}, &domain.APIError{Kind: domain.APIErrHTTP, StatusCode: 401, Message: "unauthorized"})
	res, err := svc.TestConnection(ctx)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.ConnectionError, res.Status)
	assert.Contains(t, res.Message, "401")

	api.EXPECT().TestConnection(gomock.Any(), gomock.Any()).Return(domain.Envelope{Success: true}, nil)
	res, err = svc.TestConnection(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)

	cfg, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionOK, cfg.ConnectionStatus)
	assert.NotNil(t, cfg.LastConnectionTest)

	entries, err := logs.List(ctx, domain.SyncLogFilter{Operation: domain.OpConnectionTest, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSyncLogService_PruneAndSummary(t *testing.T) {
	logs := memory.NewSyncLogRepository()
	svc := usecase.NewSyncLogService(logs, noopLogger{})
	ctx := context.Background()

	require.NoError(t, logs.Append(ctx, &domain.SyncLogEntry{ConfigID: 1, Operation: domain.OpOrderPull, Status: domain.LogSuccess, CreatedAt: time.Now().AddDate(0, 0, -40)}))
	svc.Record(ctx, &domain.SyncLogEntry{ConfigID: 1, Operation: domain.OpOrderPull, Status: domain.LogSuccess})
	svc.RecordError(ctx, 1, domain.OpStatusSync, "order", 7, "SO00007", errors.New("boom"))

	sum, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.Total)
	assert.EqualValues(t, 2, sum.Recent24h)

	n, err := svc.Prune(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestScheduler_RunsTasksUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)

	s := usecase.NewScheduler(noopLogger{},
		usecase.ScheduledTask{Name: "tick", Every: 10 * time.Millisecond, Run: func(context.Context) error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return domain.ErrConfigNotFound
		}},
		usecase.ScheduledTask{Name: "off", Every: 0},
	)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatalf("task did not run")
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop")
	}
}
