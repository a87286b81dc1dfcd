package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/status"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

// StatusPusher — отправка текущего статуса заказа на маркетплейс.
type StatusPusher struct {
	orders  ports.OrderRepository
	api     ports.MarketplaceAPI
	cache   ports.OrderCache
	journal *SyncLogService
	log     ports.Logger
	now     func() time.Time
}

// NewStatusPusher — cache может быть nil.
func NewStatusPusher(orders ports.OrderRepository, api ports.MarketplaceAPI, cache ports.OrderCache, journal *SyncLogService, log ports.Logger) *StatusPusher {
	return &StatusPusher{orders: orders, api: api, cache: cache, journal: journal, log: log, now: time.Now}
}

// Push — syncing → UpdateOrderStatus → synced/error. Ошибка API возвращается как есть,
// чтобы слой задач мог повторить временные сбои.
func (p *StatusPusher) Push(ctx context.Context, cfg *domain.MarketplaceConfig, externalID string) error {
	found, err := p.orders.FindByExternalID(ctx, externalID)
	if err != nil {
		return fmt.Errorf("find order %s: %w", externalID, err)
	}
	if len(found) == 0 {
		return fmt.Errorf("push order %s: %w", externalID, domain.ErrNotFound)
	}
	order := found[0]

	if !ShouldPush(order) {
		metrics.OutboundPushes.WithLabelValues("suppressed").Inc()
		p.log.Infof(ctx, "push skipped order=%s state=%s delivered_by=%s", externalID, order.State, order.DeliveredBy)
		return nil
	}

	mpStatus, ok := status.Combined(order.State, status.DeliveryState(order.Pickings))
	if !ok {
		return fmt.Errorf("%w: order %s has unmapped state %q", domain.ErrInvalidOrder, externalID, order.State)
	}

	if err := p.orders.UpdateSync(ctx, order.ID, domain.SyncUpdate{Status: domain.SyncSyncing}); err != nil {
		return fmt.Errorf("mark order %s syncing: %w", externalID, err)
	}
	defer p.invalidate(ctx, externalID)

	upd := domain.OrderStatusUpdate{
		ExternalID:         externalID,
		Status:             mpStatus,
		CancellationReason: order.CancellationReason,
	}
	if mpStatus == domain.StatusDelivered && order.PaymentMethod.RequiresOTP() {
		upd.RetailerOTP = order.RetailerOTP
	}

	start := p.now()
	env, apiErr := p.api.UpdateOrderStatus(ctx, cfg, upd)
	entry := &domain.SyncLogEntry{
		ConfigID:     cfg.ID,
		Operation:    domain.OpStatusSync,
		RecordModel:  "order",
		RecordID:     order.ID,
		RecordName:   order.Name,
		RequestData:  marshalQuiet(map[string]any{"status": mpStatus, "hashed_id": externalID}),
		ResponseData: marshalQuiet(env),
		Duration:     p.now().Sub(start),
		Processed:    1,
	}

	if apiErr != nil {
		metrics.OutboundPushes.WithLabelValues("error").Inc()
		if err := p.orders.UpdateSync(ctx, order.ID, domain.SyncUpdate{
			Status:       domain.SyncError,
			Error:        domain.UserMessage(apiErr),
			ErrorDetails: apiErr.Error(),
		}); err != nil {
			p.log.Errorf(ctx, "mark order %s sync error: %v", externalID, err)
		}
		entry.Status = domain.LogError
		entry.Message = fmt.Sprintf("Failed to push status %s for order %s", mpStatus, order.Name)
		entry.ErrorDetails = apiErr.Error()
		entry.Failed = 1
		p.journal.Record(ctx, entry)
		return fmt.Errorf("push order %s: %w", externalID, apiErr)
	}

	now := p.now().UTC()
	pushed := string(mpStatus)
	if err := p.orders.UpdateSync(ctx, order.ID, domain.SyncUpdate{
		Status:            domain.SyncSynced,
		MarketplaceStatus: &pushed,
		SyncedAt:          &now,
	}); err != nil {
		return fmt.Errorf("mark order %s synced: %w", externalID, err)
	}
	metrics.OutboundPushes.WithLabelValues("synced").Inc()

	entry.Status = domain.LogSuccess
	entry.Message = fmt.Sprintf("Order %s status pushed: %s", order.Name, mpStatus)
	entry.Succeeded = 1
	p.journal.Record(ctx, entry)
	p.log.Infof(ctx, "order %s pushed status=%s", externalID, mpStatus)
	return nil
}

func (p *StatusPusher) invalidate(ctx context.Context, externalID string) {
	if p.cache != nil {
		p.cache.Invalidate(ctx, externalID)
	}
}

// marshalQuiet — JSON для журнала; ошибка сериализации даёт пустую строку.
func marshalQuiet(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
