package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/usecase"
	"github.com/Gunvolt24/mpsync/pkg/httpx"
)

// OrderActions — действия оператора над заказом (origin=internal).
type OrderActions interface {
	Confirm(ctx context.Context, externalID string) error
	Assign(ctx context.Context, externalID string) ([]string, error)
	Deliver(ctx context.Context, externalID string) error
	Cancel(ctx context.Context, externalID string, reason domain.CancellationReason) error
	CancelDiagnostics(ctx context.Context, externalID string) ([]string, error)
}

// JobSubmitter — постановка асинхронных задач.
type JobSubmitter interface {
	AcceptOrder(ctx context.Context, raw []byte) (string, error)
	AcceptStatus(ctx context.Context, orderID, status string) (string, error)
	RequestPull(ctx context.Context, from, to *time.Time) (string, error)
	RequestProductSync(ctx context.Context, stock bool, ids []int64) (string, error)
	RequestPush(ctx context.Context, externalID string) (string, error)
}

// ConfigAdmin — управление конфигурацией маркетплейса.
type ConfigAdmin interface {
	Current(ctx context.Context) (*domain.MarketplaceConfig, error)
	Create(ctx context.Context, cfg *domain.MarketplaceConfig) error
	Update(ctx context.Context, patch usecase.ConfigPatch) (*domain.MarketplaceConfig, error)
	TestConnection(ctx context.Context) (*usecase.ConnectionResult, error)
}

// SyncJournal — чтение и очистка журнала синхронизации.
type SyncJournal interface {
	List(ctx context.Context, f domain.SyncLogFilter) ([]*domain.SyncLogEntry, error)
	Summary(ctx context.Context, configID int64) (*domain.SyncLogSummary, error)
	Prune(ctx context.Context, days int) (int64, error)
}

// Services — зависимости обработчиков.
type Services struct {
	Orders  ports.OrderReadService
	Actions OrderActions
	Jobs    JobSubmitter
	Configs ConfigAdmin
	Journal SyncJournal
}

// Handler — HTTP-обработчики поверх сервисов.
type Handler struct {
	Services
	log     ports.Logger
	timeout time.Duration // таймаут обработки запроса (0 → без таймаута)
}

// NewHandler — конструктор.
func NewHandler(s Services, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{Services: s, log: log, timeout: timeout}
}

// reqCtx — контекст запроса с таймаутом обработчика.
func (h *Handler) reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail — классифицированная ошибка клиенту, подробности в лог.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Errorf(c.Request.Context(), "%s failed: %v", op, err)
	} else {
		h.log.Warnf(c.Request.Context(), "%s rejected: %v", op, err)
	}
	msg := domain.UserMessage(err)
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(code, gin.H{"error": msg})
}

// statusOf — HTTP-код по классу ошибки.
func statusOf(err error) int {
	var conflict *domain.StateConflictError
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConfigNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrConfigExists),
		errors.Is(err, domain.ErrDuplicateExternalID),
		errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func accepted(c *gin.Context, jobID string) {
	c.Set(httpx.KeyJobID, jobID)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "job_id": jobID})
}
