package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

const (
	// DefaultPullLookback — окно выгрузки по умолчанию.
	DefaultPullLookback = 24 * time.Hour
	maxPullPages        = 1000
)

// PullStats — итоги одной выгрузки.
type PullStats struct {
	Pulled  int `json:"pulled"`
	New     int `json:"new"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// PullService — постраничная выгрузка заказов и сверка каждого из них.
// Ошибка одного заказа не прерывает выгрузку.
type PullService struct {
	api        ports.MarketplaceAPI
	normalizer ports.OrderNormalizer
	reconciler *Reconciler
	configs    *ConfigService
	journal    *SyncLogService
	log        ports.Logger
	lookback   time.Duration
	now        func() time.Time
}

// NewPullService — lookback <= 0 → DefaultPullLookback.
func NewPullService(api ports.MarketplaceAPI, normalizer ports.OrderNormalizer, reconciler *Reconciler, configs *ConfigService, journal *SyncLogService, log ports.Logger, lookback time.Duration) *PullService {
	if lookback <= 0 {
		lookback = DefaultPullLookback
	}
	return &PullService{
		api:        api,
		normalizer: normalizer,
		reconciler: reconciler,
		configs:    configs,
		journal:    journal,
		log:        log,
		lookback:   lookback,
		now:        time.Now,
	}
}

// Pull — страницы по cfg.BatchSize до первой неполной. Пустые границы → [now-lookback, now].
// Ошибка API возвращается (повтор решает слой задач); уже сверенные заказы при повторе будут skipped.
func (s *PullService) Pull(ctx context.Context, cfg *domain.MarketplaceConfig, from, to *time.Time) (*PullStats, error) {
	end := s.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.Add(-s.lookback)
	if from != nil {
		start = from.UTC()
	}
	perPage := cfg.BatchSize
	if perPage <= 0 {
		perPage = domain.DefaultBatchSize
	}

	began := s.now()
	stats := &PullStats{}
	for page := 1; page <= maxPullPages; page++ {
		items, err := s.api.PullOrders(ctx, cfg, start, end, page, perPage)
		if err != nil {
			s.journal.Record(ctx, &domain.SyncLogEntry{
				ConfigID:     cfg.ID,
				Operation:    domain.OpOrderPull,
				Status:       domain.LogError,
				Message:      fmt.Sprintf("Order pull failed on page %d", page),
				ErrorDetails: err.Error(),
				Duration:     s.now().Sub(began),
				Processed:    stats.Pulled,
				Succeeded:    stats.New + stats.Updated + stats.Skipped,
				Failed:       stats.Errors,
			})
			return stats, fmt.Errorf("pull orders page %d: %w", page, err)
		}

		for _, raw := range items {
			stats.Pulled++
			s.process(ctx, cfg, raw, stats)
		}
		if len(items) < perPage {
			break
		}
	}

	s.finish(ctx, cfg, stats, start, end, s.now().Sub(began))
	return stats, nil
}

func (s *PullService) process(ctx context.Context, cfg *domain.MarketplaceConfig, raw map[string]any, stats *PullStats) {
	order, err := s.normalizer.Normalize(ctx, raw)
	if err != nil {
		stats.Errors++
		name, _ := raw["external_order_id"].(string)
		s.journal.RecordError(ctx, cfg.ID, domain.OpOrderPull, "order", 0, name, err)
		return
	}

	res, err := s.reconciler.Reconcile(ctx, cfg, order)
	if err != nil {
		stats.Errors++
		return
	}
	switch res {
	case domain.ResultCreated:
		stats.New++
	case domain.ResultUpdated:
		stats.Updated++
	case domain.ResultSkipped:
		stats.Skipped++
	}
}

// finish — итоговая запись журнала и статистика конфигурации.
func (s *PullService) finish(ctx context.Context, cfg *domain.MarketplaceConfig, stats *PullStats, from, to time.Time, took time.Duration) {
	ok := stats.New + stats.Updated + stats.Skipped
	entry := &domain.SyncLogEntry{
		ConfigID:    cfg.ID,
		Operation:   domain.OpOrderPull,
		RequestData: marshalQuiet(map[string]string{"from": from.Format(time.RFC3339), "to": to.Format(time.RFC3339)}),
		Duration:    took,
		Processed:   stats.Pulled,
		Succeeded:   ok,
		Failed:      stats.Errors,
	}
	switch {
	case stats.Pulled == 0:
		entry.Status = domain.LogInfo
		entry.Message = "No orders found"
	case ok == 0:
		entry.Status = domain.LogError
		entry.Message = fmt.Sprintf("Order pull failed: %d errors", stats.Errors)
	default:
		entry.Status = domain.LogSuccess
		entry.Message = fmt.Sprintf("Pulled %d orders: %d new, %d updated, %d skipped, %d errors",
			stats.Pulled, stats.New, stats.Updated, stats.Skipped, stats.Errors)
	}
	s.journal.Record(ctx, entry)
	s.configs.RecordPull(ctx, cfg, stats.Pulled)
	s.log.Infof(ctx, "order pull done config=%d pulled=%d new=%d updated=%d skipped=%d errors=%d took=%s",
		cfg.ID, stats.Pulled, stats.New, stats.Updated, stats.Skipped, stats.Errors, took)
}
