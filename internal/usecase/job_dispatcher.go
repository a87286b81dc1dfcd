package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что JobDispatcher удовлетворяет интерфейсу JobHandler.
var _ ports.JobHandler = (*JobDispatcher)(nil)

// JobDispatcher — маршрутизация задач очереди к сервисам.
type JobDispatcher struct {
	configs     *ConfigService
	normalizer  ports.OrderNormalizer
	reconciler  *Reconciler
	pusher      *StatusPusher
	puller      *PullService
	productSync *ProductSyncService
	journal     *SyncLogService
	log         ports.Logger
}

// JobDispatcherDeps — зависимости JobDispatcher.
type JobDispatcherDeps struct {
	Configs     *ConfigService
	Normalizer  ports.OrderNormalizer
	Reconciler  *Reconciler
	Pusher      *StatusPusher
	Puller      *PullService
	ProductSync *ProductSyncService
	Journal     *SyncLogService
	Log         ports.Logger
}

// NewJobDispatcher — DI-конструктор.
func NewJobDispatcher(d JobDispatcherDeps) *JobDispatcher {
	return &JobDispatcher{
		configs:     d.Configs,
		normalizer:  d.Normalizer,
		reconciler:  d.Reconciler,
		pusher:      d.Pusher,
		puller:      d.Puller,
		productSync: d.ProductSync,
		journal:     d.Journal,
		log:         d.Log,
	}
}

// HandleJob — выполнить задачу. Постоянные ошибки распознаются domain.IsPermanent.
func (d *JobDispatcher) HandleJob(ctx context.Context, job domain.Job) error {
	cfg, err := d.configs.Resolve(ctx, job.ConfigID)
	if err != nil {
		return fmt.Errorf("job %s (%s): %w", job.ID, job.Kind, err)
	}

	switch job.Kind {
	case domain.JobInboundOrder:
		order, err := d.normalizer.NormalizePayload(ctx, job.Payload)
		if err != nil {
			d.journal.RecordError(ctx, cfg.ID, domain.OpOrderPull, "order", 0, job.Key, err)
			return err
		}
		_, err = d.reconciler.Reconcile(ctx, cfg, order)
		return err

	case domain.JobInboundStatus:
		var p domain.StatusUpdatePayload
		if err := decodePayload(job, &p); err != nil {
			return err
		}
		if p.OrderID == "" || p.Status == "" {
			return fmt.Errorf("%w: %s requires order_id and status", domain.ErrInvalidJob, job.Kind)
		}
		_, err := d.reconciler.ApplyStatus(ctx, cfg, p.OrderID, p.Status)
		return err

	case domain.JobPushStatus:
		var p domain.PushStatusPayload
		if err := decodePayload(job, &p); err != nil {
			return err
		}
		if p.ExternalID == "" {
			p.ExternalID = job.Key
		}
		return d.pusher.Push(ctx, cfg, p.ExternalID)

	case domain.JobPullOrders:
		var p domain.PullOrdersPayload
		if err := decodePayload(job, &p); err != nil {
			return err
		}
		_, err := d.puller.Pull(ctx, cfg, p.From, p.To)
		return err

	case domain.JobProductSync, domain.JobStockSync:
		var p domain.ProductSyncPayload
		if err := decodePayload(job, &p); err != nil {
			return err
		}
		if job.Kind == domain.JobStockSync {
			_, err = d.productSync.SyncStock(ctx, cfg, p.ProductIDs)
		} else {
			_, err = d.productSync.SyncPrices(ctx, cfg, p.ProductIDs)
		}
		return err

	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidJob, job.Kind)
	}
}

// MaxAttempts — retry_attempts+1 из конфигурации задачи.
func (d *JobDispatcher) MaxAttempts(ctx context.Context, job domain.Job) int {
	cfg, err := d.configs.Resolve(ctx, job.ConfigID)
	if err != nil {
		return domain.DefaultRetryAttempts + 1
	}
	return cfg.MaxAttempts()
}

// OnExhausted — запись об окончательном провале задачи.
func (d *JobDispatcher) OnExhausted(ctx context.Context, job domain.Job, err error) {
	d.log.Errorf(ctx, "job %s kind=%s key=%s exhausted after %d attempts: %v", job.ID, job.Kind, job.Key, job.Attempt+1, err)
	d.journal.Record(ctx, &domain.SyncLogEntry{
		ConfigID:     job.ConfigID,
		Operation:    operationOf(job.Kind),
		Status:       domain.LogError,
		Message:      fmt.Sprintf("Job %s failed permanently after %d attempts", job.Kind, job.Attempt+1),
		ErrorDetails: err.Error(),
		RecordName:   job.Key,
		RequestData:  string(job.Payload),
		Failed:       1,
	})
}

func decodePayload(job domain.Job, dst any) error {
	if len(job.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(job.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s payload: %v", domain.ErrInvalidJob, job.Kind, err)
	}
	return nil
}

func operationOf(kind domain.JobKind) domain.OperationType {
	switch kind {
	case domain.JobPushStatus:
		return domain.OpStatusSync
	case domain.JobProductSync:
		return domain.OpProductSync
	case domain.JobStockSync:
		return domain.OpStockSync
	default:
		return domain.OpOrderPull
	}
}
