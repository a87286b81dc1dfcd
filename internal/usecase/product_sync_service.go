package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// ProductSyncStats — итоги синхронизации товаров.
type ProductSyncStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ProductSyncService — массовая отправка цен и остатков пачками по cfg.BatchSize.
type ProductSyncService struct {
	products ports.ProductRepository
	api      ports.MarketplaceAPI
	configs  *ConfigService
	journal  *SyncLogService
	log      ports.Logger
	now      func() time.Time
}

// NewProductSyncService — конструктор.
func NewProductSyncService(products ports.ProductRepository, api ports.MarketplaceAPI, configs *ConfigService, journal *SyncLogService, log ports.Logger) *ProductSyncService {
	return &ProductSyncService{products: products, api: api, configs: configs, journal: journal, log: log, now: time.Now}
}

// SyncPrices — цены товаров с включённой синхронизацией (пустой ids → все).
func (s *ProductSyncService) SyncPrices(ctx context.Context, cfg *domain.MarketplaceConfig, ids []int64) (*ProductSyncStats, error) {
	return s.sync(ctx, cfg, ids, domain.OpProductSync, func(batch []*domain.Product) (domain.Envelope, error) {
		items := make([]domain.PriceUpdate, 0, len(batch))
		for _, p := range batch {
			items = append(items, domain.PriceUpdate{ExternalProductID: p.ExternalID, Price: p.Price})
		}
		return s.api.BulkUpdatePrices(ctx, cfg, items)
	})
}

// SyncStock — остатки (дробная часть отбрасывается, отрицательные → 0).
func (s *ProductSyncService) SyncStock(ctx context.Context, cfg *domain.MarketplaceConfig, ids []int64) (*ProductSyncStats, error) {
	return s.sync(ctx, cfg, ids, domain.OpStockSync, func(batch []*domain.Product) (domain.Envelope, error) {
		items := make([]domain.StockUpdate, 0, len(batch))
		for _, p := range batch {
			items = append(items, domain.StockUpdate{ExternalProductID: p.ExternalID, Quantity: stockQuantity(p.Stock)})
		}
		return s.api.BulkUpdateStock(ctx, cfg, items)
	})
}

type bulkSender func(batch []*domain.Product) (domain.Envelope, error)

// sync — пачки отправляются независимо; возвращается последняя ошибка пачки.
func (s *ProductSyncService) sync(ctx context.Context, cfg *domain.MarketplaceConfig, ids []int64, op domain.OperationType, send bulkSender) (*ProductSyncStats, error) {
	began := s.now()
	products, err := s.products.ListSyncEnabled(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list products for %s: %w", op, err)
	}

	stats := &ProductSyncStats{Total: len(products)}
	if len(products) == 0 {
		s.journal.Record(ctx, &domain.SyncLogEntry{ConfigID: cfg.ID, Operation: op, Status: domain.LogInfo, Message: "No products to sync"})
		return stats, nil
	}

	size := cfg.BatchSize
	if size <= 0 {
		size = domain.DefaultBatchSize
	}

	var lastErr error
	var details []string
	for startIdx := 0; startIdx < len(products); startIdx += size {
		batch := products[startIdx:min(startIdx+size, len(products))]
		batchIDs := productIDs(batch)

		if err := s.products.UpdateSyncState(ctx, batchIDs, domain.SyncSyncing, "", s.now().UTC()); err != nil {
			return stats, fmt.Errorf("mark products syncing: %w", err)
		}

		_, sendErr := send(batch)
		if sendErr != nil {
			stats.Failed += len(batch)
			lastErr = sendErr
			details = append(details, sendErr.Error())
			if err := s.products.UpdateSyncState(ctx, batchIDs, domain.SyncError, domain.UserMessage(sendErr), s.now().UTC()); err != nil {
				s.log.Errorf(ctx, "mark products sync error: %v", err)
			}
			s.log.Warnf(ctx, "%s batch of %d failed: %v", op, len(batch), sendErr)
			continue
		}

		stats.Succeeded += len(batch)
		if err := s.products.UpdateSyncState(ctx, batchIDs, domain.SyncSynced, "", s.now().UTC()); err != nil {
			s.log.Errorf(ctx, "mark products synced: %v", err)
		}
	}

	entry := &domain.SyncLogEntry{
		ConfigID:  cfg.ID,
		Operation: op,
		Status:    domain.LogSuccess,
		Message:   fmt.Sprintf("Synced %d of %d products", stats.Succeeded, stats.Total),
		Duration:  s.now().Sub(began),
		Processed: stats.Total,
		Succeeded: stats.Succeeded,
		Failed:    stats.Failed,
	}
	switch {
	case stats.Succeeded == 0:
		entry.Status = domain.LogError
	case stats.Failed > 0:
		entry.Status = domain.LogWarning
	}
	if len(details) > 0 {
		entry.ErrorDetails = strings.Join(details, "; ")
	}
	s.journal.Record(ctx, entry)
	if stats.Succeeded > 0 {
		s.configs.RecordProductSync(ctx, cfg, stats.Succeeded)
	}
	s.log.Infof(ctx, "%s done config=%d total=%d ok=%d failed=%d", op, cfg.ID, stats.Total, stats.Succeeded, stats.Failed)

	if lastErr != nil {
		return stats, fmt.Errorf("%s: %d of %d products failed: %w", op, stats.Failed, stats.Total, lastErr)
	}
	return stats, nil
}

func productIDs(ps []*domain.Product) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func stockQuantity(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v))
}
