package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// JobService — постановка задач из webhook-ов, API оператора и планировщика.
// Тяжёлая работа выполняется асинхронно обработчиком очереди.
type JobService struct {
	configs *ConfigService
	queue   ports.JobQueue
	log     ports.Logger
}

// NewJobService — конструктор.
func NewJobService(configs *ConfigService, queue ports.JobQueue, log ports.Logger) *JobService {
	return &JobService{configs: configs, queue: queue, log: log}
}

// AcceptOrder — webhook заказа: проверка JSON и постановка inbound_order.
func (s *JobService) AcceptOrder(ctx context.Context, raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return "", fmt.Errorf("%w: invalid json", domain.ErrInvalidOrder)
	}
	if raw[0] != '{' && raw[0] != '[' {
		return "", fmt.Errorf("%w: order must be an object or a list", domain.ErrInvalidOrder)
	}
	return s.enqueue(ctx, domain.JobInboundOrder, payloadExternalID(raw), json.RawMessage(raw))
}

// AcceptStatus — webhook статуса {order_id, status}.
func (s *JobService) AcceptStatus(ctx context.Context, orderID, status string) (string, error) {
	orderID, status = strings.TrimSpace(orderID), strings.TrimSpace(status)
	if orderID == "" || status == "" {
		return "", fmt.Errorf("%w: order_id and status are required", domain.ErrInvalidOrder)
	}
	return s.enqueue(ctx, domain.JobInboundStatus, orderID, domain.StatusUpdatePayload{OrderID: orderID, Status: status})
}

// RequestPull — выгрузка заказов за период (nil → окно по умолчанию).
func (s *JobService) RequestPull(ctx context.Context, from, to *time.Time) (string, error) {
	return s.enqueue(ctx, domain.JobPullOrders, "", domain.PullOrdersPayload{From: from, To: to})
}

// RequestProductSync — цены (stock=false) или остатки (stock=true).
func (s *JobService) RequestProductSync(ctx context.Context, stock bool, ids []int64) (string, error) {
	kind := domain.JobProductSync
	if stock {
		kind = domain.JobStockSync
	}
	return s.enqueue(ctx, kind, "", domain.ProductSyncPayload{ProductIDs: ids})
}

// RequestPush — ручная отправка статуса заказа.
func (s *JobService) RequestPush(ctx context.Context, externalID string) (string, error) {
	if externalID == "" {
		return "", fmt.Errorf("%w: external id is required", domain.ErrInvalidOrder)
	}
	return s.enqueue(ctx, domain.JobPushStatus, externalID, domain.PushStatusPayload{ExternalID: externalID})
}

func (s *JobService) enqueue(ctx context.Context, kind domain.JobKind, key string, payload any) (string, error) {
	cfg, err := s.configs.Active(ctx)
	if err != nil {
		return "", err
	}
	job, err := NewJob(kind, key, cfg.ID, payload)
	if err != nil {
		return "", err
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", kind, err)
	}
	s.log.Infof(ctx, "job enqueued kind=%s key=%s job_id=%s", kind, key, job.ID)
	return job.ID, nil
}

// payloadExternalID — external id для ключа партиционирования (пусто, если не найден).
func payloadExternalID(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, k := range []string{"external_order_id", "hashed_id"} {
		switch id := m[k].(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return fmt.Sprintf("%.0f", id)
		}
	}
	return ""
}
