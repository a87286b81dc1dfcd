//go:build !integration

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// --- Бенчмарки ---

// GetOrder (снимок из кэша сервиса) — LEAN vs FULL пайплайн
func BenchmarkHTTP_GetOrder(b *testing.B) {
	ord := benchOrder(1)
	h := NewHandler(Services{Orders: svcOne{o: ord}}, nopLogger{}, 2*time.Second)

	lean := makeLeanRouter(h)
	full := makeFullRouter(h)

	b.Run("lean/no-mw", func(b *testing.B) {
		benchServe(b, lean, http.MethodGet, "/orders/"+ord.ExternalID, "", http.StatusOK)
	})
	b.Run("full/prod-mw", func(b *testing.B) {
		benchServe(b, full, http.MethodGet, "/orders/"+ord.ExternalID, "", http.StatusOK)
	})
}

// Потолок без маршалинга: тот же заказ, заранее закодированный JSON
func BenchmarkHTTP_GetOrder_PreMarshaledBytes(b *testing.B) {
	raw, _ := json.Marshal(benchOrder(1))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/orders/:external_id", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", raw)
	})

	benchServe(b, r, http.MethodGet, "/orders/ext-1", "", http.StatusOK)
}

// Пагинация: 10/50/100 — рост аллокаций и времени
func BenchmarkHTTP_ListOrders(b *testing.B) {
	for _, n := range []int{10, 50, 100} {
		b.Run("N="+strconv.Itoa(n), func(b *testing.B) {
			list := make([]*domain.LedgerOrder, 0, n)
			for i := 0; i < n; i++ {
				list = append(list, benchOrder(i+1))
			}
			h := NewHandler(Services{Orders: svcList{list: list}}, nopLogger{}, 2*time.Second)

			benchServe(b, makeLeanRouter(h), http.MethodGet, "/orders?limit="+strconv.Itoa(n), "", http.StatusOK)
		})
	}
}

// Приём webhook-а: чтение тела и постановка задачи
func BenchmarkHTTP_WebhookOrders(b *testing.B) {
	h := NewHandler(Services{Jobs: nopJobs{}}, nopLogger{}, 2*time.Second)
	body := `{"hashed_id":"H-1","status":"pending","order_details":[{"supplier_product_id":"P-1","amount":2,"selling_price":"10.5"}]}`

	benchServe(b, makeFullRouter(h), http.MethodPost, "/webhook/orders", body, http.StatusAccepted)
}

// Ошибочный путь (404): "цена" роутера и 404-хендлера
func BenchmarkHTTP_404(b *testing.B) {
	h := NewHandler(Services{Orders: svcOne{o: benchOrder(1)}}, nopLogger{}, 2*time.Second)
	benchServe(b, makeLeanRouter(h), http.MethodGet, "/nope", "", http.StatusNotFound)
}

// --- nopLogger — логгер, который не делает ничего. ---

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// --- Стабы ---

type svcOne struct{ o *domain.LedgerOrder }

func (s svcOne) GetOrder(context.Context, string) (*domain.LedgerOrder, error) { return s.o, nil }
func (s svcOne) ListOrders(context.Context, int, int) ([]*domain.LedgerOrder, error) {
	return []*domain.LedgerOrder{s.o}, nil
}

// заранее подготовленная выборка N элементов (без аллокаций на каждом вызове)
type svcList struct{ list []*domain.LedgerOrder }

func (s svcList) GetOrder(context.Context, string) (*domain.LedgerOrder, error) { return s.list[0], nil }
func (s svcList) ListOrders(context.Context, int, int) ([]*domain.LedgerOrder, error) {
	return s.list, nil
}

type nopJobs struct{}

func (nopJobs) AcceptOrder(context.Context, []byte) (string, error)          { return "job", nil }
func (nopJobs) AcceptStatus(context.Context, string, string) (string, error) { return "job", nil }
func (nopJobs) RequestPull(context.Context, *time.Time, *time.Time) (string, error) {
	return "job", nil
}
func (nopJobs) RequestProductSync(context.Context, bool, []int64) (string, error) { return "job", nil }
func (nopJobs) RequestPush(context.Context, string) (string, error)               { return "job", nil }

// --- функции-помощники ---

func benchOrder(i int) *domain.LedgerOrder {
	price := decimal.RequireFromString("10.25")
	return &domain.LedgerOrder{
		ID:          int64(i),
		Name:        fmt.Sprintf("SO%05d", i),
		ExternalID:  fmt.Sprintf("ext-%d", i),
		State:       domain.StateSale,
		Currency:    "EGP",
		AmountTotal: price.Mul(decimal.NewFromInt(3)),
		Lines: []domain.LedgerLine{
			{ProductID: 1, Description: "Tea", Quantity: 3, UnitPrice: price, Total: price.Mul(decimal.NewFromInt(3))},
		},
		Pickings: []domain.Picking{
			{State: domain.PickingConfirmed, Moves: []domain.Move{{ProductID: 1, Demand: 3}}},
		},
	}
}

func makeLeanRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New() // без Recovery/otel/logger — меньше аллокаций
	r.GET("/orders", h.listOrders)
	r.GET("/orders/:external_id", h.getOrder)
	return r
}

func makeFullRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	// prod пайплайн из NewRouter
	return NewRouter(h, "")
}

func benchServe(b *testing.B, r *gin.Engine, method, path, body string, wantCode int) {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()

	// Параллельный режим ближе к реальности без TCP
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			var rd io.Reader = http.NoBody
			if body != "" {
				rd = strings.NewReader(body)
			}
			req, _ := http.NewRequest(method, path, rd)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			_, _ = io.Copy(io.Discard, w.Body)
			if w.Code != wantCode {
				b.Fatalf("status=%d", w.Code)
			}
		}
	})
}
