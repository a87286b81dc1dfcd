package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что OrderService удовлетворяет интерфейсу OrderReadService.
var _ ports.OrderReadService = (*OrderService)(nil)

// OrderService — чтение заказов (через кэш) и действия оператора.
// Действия оператора идут с origin=internal и запускают исходящую синхронизацию.
type OrderService struct {
	repo   ports.OrderRepository // прямой доступ к хранилищу
	cache  ports.OrderCache      // снимки по external id
	ledger ports.Ledger
	locker ports.Locker
	log    ports.Logger
}

// NewOrderService — DI-конструктор.
func NewOrderService(
	repo ports.OrderRepository,
	cache ports.OrderCache,
	ledger ports.Ledger,
	locker ports.Locker,
	log ports.Logger,
) *OrderService {
	return &OrderService{
		repo:   repo,
		cache:  cache,
		ledger: ledger,
		locker: locker,
		log:    log,
	}
}

// GetOrder — сначала кэш, при промахе — хранилище с записью в кэш.
// Возвращает (nil, nil), если заказа нет.
func (s *OrderService) GetOrder(ctx context.Context, externalID string) (*domain.LedgerOrder, error) {
	if order, found := s.cache.Get(ctx, externalID); found {
		s.log.Infof(ctx, "cache hit for order=%s", externalID)
		return order, nil
	}
	s.log.Infof(ctx, "cache miss for order=%s", externalID)

	start := time.Now()
	order, err := s.find(ctx, externalID)
	if err != nil {
		s.log.Errorf(ctx, "repo.FindByExternalID failed order=%s err=%v", externalID, err)
		return nil, err
	}
	if order != nil {
		if setErr := s.cache.Set(ctx, order); setErr != nil {
			s.log.Warnf(ctx, "cache.Set failed order=%s err=%v", externalID, setErr)
		}
	}

	s.log.Infof(ctx, "db fetch order=%s took=%s", externalID, time.Since(start))
	return order, nil
}

// ListOrders — проксирование в репозиторий (пагинация уже проверена на верхнем уровне).
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]*domain.LedgerOrder, error) {
	return s.repo.List(ctx, limit, offset)
}

// WarmUpCache — прогрев кэша последними N заказами маркетплейса.
// Если n <= 0, прогрев не выполняется (но это не ошибка).
func (s *OrderService) WarmUpCache(ctx context.Context, n int) error {
	if n <= 0 {
		s.log.Warnf(ctx, "cache warm-up skipped: n <= 0 (n=%d)", n)
		return nil
	}

	start := time.Now()
	list, err := s.repo.LastN(ctx, n)
	if err != nil {
		s.log.Errorf(ctx, "repo.LastN failed n=%d err=%v", n, err)
		return err
	}
	if warmUpErr := s.cache.WarmUp(ctx, list); warmUpErr != nil {
		s.log.Warnf(ctx, "cache.WarmUp failed err=%v", warmUpErr)
	}
	s.log.Infof(ctx, "cache warmed with %d orders in %s", len(list), time.Since(start))
	return nil
}

// Confirm — подтверждение оператором.
func (s *OrderService) Confirm(ctx context.Context, externalID string) error {
	return s.withOrder(ctx, externalID, func(o *domain.LedgerOrder) error {
		return s.ledger.Confirm(ctx, o.ID, domain.OriginInternal)
	})
}

// Assign — резервирование; нехватка остатка возвращается предупреждениями.
func (s *OrderService) Assign(ctx context.Context, externalID string) ([]string, error) {
	var warnings []string
	err := s.withOrder(ctx, externalID, func(o *domain.LedgerOrder) error {
		ws, err := s.ledger.Assign(ctx, o.ID, domain.OriginInternal)
		for _, w := range ws {
			warnings = append(warnings, w.Error())
		}
		return err
	})
	return warnings, err
}

// Deliver — выполнение отгрузок; заказ становится done.
func (s *OrderService) Deliver(ctx context.Context, externalID string) error {
	return s.withOrder(ctx, externalID, func(o *domain.LedgerOrder) error {
		return s.ledger.Transition(ctx, o.ID, domain.StateDone, domain.OriginInternal)
	})
}

// Cancel — отмена с указанной причиной (пустая → причина заказа или по умолчанию).
func (s *OrderService) Cancel(ctx context.Context, externalID string, reason domain.CancellationReason) error {
	if reason != "" && !domain.ValidCancellationReason(reason) {
		return fmt.Errorf("%w: unknown cancellation reason %q", domain.ErrInvalidOrder, reason)
	}
	return s.withOrder(ctx, externalID, func(o *domain.LedgerOrder) error {
		if reason != "" && o.CancellationReason != reason {
			o.CancellationReason = reason
			if err := s.repo.Update(ctx, o); err != nil {
				return fmt.Errorf("save cancellation reason: %w", err)
			}
		}
		return s.ledger.Cancel(ctx, o.ID, domain.OriginInternal)
	})
}

// CancelDiagnostics — причины, блокирующие отмену.
func (s *OrderService) CancelDiagnostics(ctx context.Context, externalID string) ([]string, error) {
	order, err := s.mustFind(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return s.ledger.CancelDiagnostics(ctx, order.ID)
}

// withOrder — действие под блокировкой external id (та же, что у сверки).
func (s *OrderService) withOrder(ctx context.Context, externalID string, fn func(o *domain.LedgerOrder) error) error {
	unlock, err := s.locker.Lock(ctx, externalID)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			s.log.Warnf(ctx, "unlock %s: %v", externalID, err)
		}
	}()

	order, err := s.mustFind(ctx, externalID)
	if err != nil {
		return err
	}
	if err := fn(order); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, externalID)
	return nil
}

func (s *OrderService) mustFind(ctx context.Context, externalID string) (*domain.LedgerOrder, error) {
	order, err := s.find(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", externalID, domain.ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) find(ctx context.Context, externalID string) (*domain.LedgerOrder, error) {
	found, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}
