package usecase

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

// Проверка, что SyncTrigger удовлетворяет интерфейсу SyncTrigger.
var _ ports.SyncTrigger = (*SyncTrigger)(nil)

// SyncTrigger — ставит исходящую синхронизацию в очередь и сразу возвращает управление.
// Ошибки постановки только логируются: изменяющая операция не должна из-за них падать.
type SyncTrigger struct {
	queue ports.JobQueue
	log   ports.Logger
}

// NewSyncTrigger — конструктор.
func NewSyncTrigger(queue ports.JobQueue, log ports.Logger) *SyncTrigger {
	return &SyncTrigger{queue: queue, log: log}
}

// ShouldPush — заказ маркетплейса; при доставке маркетплейсом отправляется только отмена.
func ShouldPush(order *domain.LedgerOrder) bool {
	if !order.IsMarketplaceOrder() {
		return false
	}
	if order.DeliveredBy == domain.DeliveredByMarketplace {
		return order.State == domain.StateCancel
	}
	return true
}

// FilterPushable — заказы, для которых нужна исходящая синхронизация.
func FilterPushable(orders []*domain.LedgerOrder) []*domain.LedgerOrder {
	out := make([]*domain.LedgerOrder, 0, len(orders))
	for _, o := range orders {
		if ShouldPush(o) {
			out = append(out, o)
		}
	}
	return out
}

// OrderChanged — push_status по external id.
func (t *SyncTrigger) OrderChanged(ctx context.Context, order *domain.LedgerOrder) {
	if !ShouldPush(order) {
		if order.IsMarketplaceOrder() {
			metrics.OutboundPushes.WithLabelValues("suppressed").Inc()
			t.log.Infof(ctx, "outbound push suppressed order=%s state=%s delivered_by=%s", order.ExternalID, order.State, order.DeliveredBy)
		}
		return
	}
	job, err := NewJob(domain.JobPushStatus, order.ExternalID, order.ConfigID, domain.PushStatusPayload{ExternalID: order.ExternalID})
	if err != nil {
		t.log.Errorf(ctx, "build push job order=%s: %v", order.ExternalID, err)
		return
	}
	if err := t.queue.Enqueue(ctx, job); err != nil {
		t.log.Errorf(ctx, "enqueue push job order=%s: %v", order.ExternalID, err)
		return
	}
	t.log.Infof(ctx, "push job enqueued order=%s job_id=%s", order.ExternalID, job.ID)
}

// StockChanged — stock_sync по затронутым товарам.
func (t *SyncTrigger) StockChanged(ctx context.Context, productIDs []int64) {
	if len(productIDs) == 0 {
		return
	}
	job, err := NewJob(domain.JobStockSync, "", 0, domain.ProductSyncPayload{ProductIDs: productIDs})
	if err != nil {
		t.log.Errorf(ctx, "build stock sync job: %v", err)
		return
	}
	if err := t.queue.Enqueue(ctx, job); err != nil {
		t.log.Errorf(ctx, "enqueue stock sync job products=%v: %v", productIDs, err)
	}
}
