//go:build integration

package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/mpsync/internal/app"
	cachemem "github.com/Gunvolt24/mpsync/internal/cache/memory"
	"github.com/Gunvolt24/mpsync/internal/domain"
	lockmem "github.com/Gunvolt24/mpsync/internal/lock/memory"
	"github.com/Gunvolt24/mpsync/internal/marketplace"
	queuemem "github.com/Gunvolt24/mpsync/internal/queue/memory"
	pgrepo "github.com/Gunvolt24/mpsync/internal/repo/postgres"
	"github.com/Gunvolt24/mpsync/internal/testutil"
	rest "github.com/Gunvolt24/mpsync/internal/transport/http"
	"github.com/Gunvolt24/mpsync/pkg/logger"
)

// marketplaceStub — отвечает success=true и запоминает пути запросов.
type marketplaceStub struct {
	mu    sync.Mutex
	paths []string
}

func (m *marketplaceStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.paths = append(m.paths, r.URL.Path)
	m.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
}

func (m *marketplaceStub) count(fragment string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.paths {
		if strings.Contains(p, fragment) {
			n++
		}
	}
	return n
}

// e2e — Postgres + очередь в памяти + заглушка маркетплейса + HTTP.
type e2e struct {
	api    *httptest.Server
	stub   *marketplaceStub
	client *http.Client
}

func startE2E(t *testing.T) *e2e {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	pg, stop, err := testutil.StartPostgresTC(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stop(context.Background()) })
	require.NoError(t, pgrepo.Migrate(ctx, pg.Pool))

	logg, cleanup, err := logger.NewZapLogger(false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })

	stub := &marketplaceStub{}
	mp := httptest.NewServer(stub)
	t.Cleanup(mp.Close)

	q := queuemem.NewQueue(64)
	core := app.NewCore(app.CoreDeps{
		Storage:      app.PostgresStorage(pg.Pool),
		Queue:        q,
		Locker:       lockmem.NewKeyedMutex(),
		Cache:        cachemem.NewLRUCacheTTL(100, time.Minute),
		API:          marketplace.NewClient(mp.Client(), logg),
		PullLookback: time.Hour,
		Log:          logg,
	})
	require.NoError(t, core.Configs.Create(ctx, &domain.MarketplaceConfig{
		BaseURL:       mp.URL + "/api/v1/",
		AuthToken:     "token",
		RetryAttempts: 1,
		Active:        true,
	}))

	workers := queuemem.NewConsumer(q, queuemem.ConsumerConfig{
		Workers:      2,
		RetryInitial: 10 * time.Millisecond,
		RetryMax:     50 * time.Millisecond,
	}, core.Dispatcher, logg)
	runCtx, stopWorkers := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = workers.Run(runCtx)
	}()
	t.Cleanup(func() {
		stopWorkers()
		<-done
	})

	r := rest.NewRouter(rest.NewHandler(core.HTTPServices(), logg, 5*time.Second), "")
	api := httptest.NewServer(r)
	t.Cleanup(api.Close)

	return &e2e{api: api, stub: stub, client: api.Client()}
}

func (e *e2e) post(t *testing.T, path string, body []byte) *http.Response {
	t.Helper()
	resp, err := e.client.Post(e.api.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// order — текущее состояние заказа через GET /orders/:id (nil при 404).
func (e *e2e) order(t *testing.T, externalID string) *domain.LedgerOrder {
	t.Helper()
	resp, err := e.client.Get(e.api.URL + "/orders/" + externalID)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var o domain.LedgerOrder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	return &o
}

func (e *e2e) waitState(t *testing.T, externalID string, want domain.OrderState) *domain.LedgerOrder {
	t.Helper()
	var last *domain.LedgerOrder
	require.Eventually(t, func() bool {
		last = e.order(t, externalID)
		return last != nil && last.State == want
	}, 15*time.Second, 100*time.Millisecond, "order %s never reached %s", externalID, want)
	return last
}

// Webhook → очередь → сверка → GET /orders/:id.
func TestHTTP_WebhookOrder_Reconciled_TC(t *testing.T) {
	e := startE2E(t)
	id := "E2E-" + testutil.UniqSuffix()

	resp := e.post(t, "/webhook/orders", testutil.MakeRawOrderJSON(id, "approved", 2))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	o := e.waitState(t, id, domain.StateSale)
	require.Equal(t, domain.SyncSynced, o.SyncStatus)
	require.Len(t, o.Lines, 1)
	require.NotEmpty(t, o.Pickings)

	// повторная доставка того же webhook-а не создаёт дубль
	resp = e.post(t, "/webhook/orders", testutil.MakeRawOrderJSON(id, "approved", 2))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, o.ID, e.order(t, id).ID)

	// входящие изменения не отправляются обратно
	require.Zero(t, e.stub.count("update-order-status"))
}

// Статус из webhook-а применяется к существующему заказу.
func TestHTTP_WebhookStatus_Delivered_TC(t *testing.T) {
	e := startE2E(t)
	id := "E2E-" + testutil.UniqSuffix()

	e.post(t, "/webhook/orders", testutil.MakeRawOrderJSON(id, "approved", 1))
	e.waitState(t, id, domain.StateSale)

	body, _ := json.Marshal(map[string]string{"order_id": id, "status": "delivered"})
	resp := e.post(t, "/webhook/status", body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	o := e.waitState(t, id, domain.StateDone)
	require.Equal(t, string(domain.StatusDelivered), o.MarketplaceStatus)
}

// Отмена оператором уходит на маркетплейс.
func TestHTTP_OperatorCancel_PushedOutbound_TC(t *testing.T) {
	e := startE2E(t)
	id := "E2E-" + testutil.UniqSuffix()

	e.post(t, "/webhook/orders", testutil.MakeRawOrderJSON(id, "pending", 1))
	e.waitState(t, id, domain.StateDraft)

	resp := e.post(t, "/orders/"+id+"/cancel", []byte(`{"reason":"out_of_stock"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e.waitState(t, id, domain.StateCancel)
	require.Eventually(t, func() bool {
		return e.stub.count("update-order-status/"+id) == 1
	}, 10*time.Second, 100*time.Millisecond)
}

// GET /orders/:id — 404 когда заказа нет.
func TestHTTP_GetOrder_NotFound_TC(t *testing.T) {
	e := startE2E(t)
	require.Nil(t, e.order(t, "missing-"+testutil.UniqSuffix()))
}
