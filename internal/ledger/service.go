// Пакет ledger — жизненный цикл заказа и отгрузок в учётной системе.
// Изменения с origin=internal ставят исходящую синхронизацию в очередь,
// изменения с origin=external — никогда.
package ledger

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что Service удовлетворяет интерфейсу Ledger.
var _ ports.Ledger = (*Service)(nil)

// Service — операции над заказом; сериализация по заказу обеспечивается вызывающей стороной.
type Service struct {
	orders   ports.OrderRepository
	products ports.ProductRepository
	trigger  ports.SyncTrigger
	cache    ports.OrderCache
	log      ports.Logger
}

// NewService — cache может быть nil.
func NewService(orders ports.OrderRepository, products ports.ProductRepository, trigger ports.SyncTrigger, cache ports.OrderCache, log ports.Logger) *Service {
	return &Service{orders: orders, products: products, trigger: trigger, cache: cache, log: log}
}

// Confirm — draft/sent → sale и исходящая отгрузка (по движению на строку).
// Для уже подтверждённого заказа ничего не делает.
func (s *Service) Confirm(ctx context.Context, orderID int64, origin domain.Origin) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if order.State == domain.StateSale {
		return nil
	}
	if err := s.allow(ctx, order, domain.StateSale); err != nil {
		return err
	}

	order.State = domain.StateSale
	order.Pickings = append(order.Pickings, outgoingPicking(order))
	return s.save(ctx, order, origin)
}

// Assign — резервирует остаток под отгрузки confirmed/waiting.
// Нехватка остатка не ошибка: отгрузка остаётся waiting, причина уходит в warnings.
func (s *Service) Assign(ctx context.Context, orderID int64, origin domain.Origin) ([]error, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.State != domain.StateSale {
		return nil, s.refuse(ctx, order, order.State, "order is not confirmed")
	}

	var warnings []error
	changed := false
	for i := range order.Pickings {
		p := &order.Pickings[i]
		if p.State != domain.PickingConfirmed && p.State != domain.PickingWaiting {
			continue
		}
		state, short, err := s.reserve(ctx, p)
		if err != nil {
			return warnings, err
		}
		if len(short) > 0 {
			warn := fmt.Errorf("picking %d: insufficient stock for products %v", p.ID, short)
			warnings = append(warnings, warn)
			s.log.Warnf(ctx, "order %s: %v", order.Name, warn)
		}
		if p.State != state {
			p.State = state
			changed = true
		}
	}
	if !changed {
		return warnings, nil
	}
	return warnings, s.save(ctx, order, origin)
}

// Complete — выполняет движения (done = demand), списывает остаток и закрывает отгрузки.
// Остатки и заказ сохраняются одной операцией репозитория.
// Заказ становится done, когда все неотменённые отгрузки выполнены.
func (s *Service) Complete(ctx context.Context, orderID int64, origin domain.Origin) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if order.State == domain.StateDone {
		return nil
	}
	if err := s.allow(ctx, order, domain.StateDone); err != nil {
		return err
	}

	stock := make(map[int64]float64)
	for i := range order.Pickings {
		p := &order.Pickings[i]
		if !pending(p.State) {
			continue
		}
		for j := range p.Moves {
			m := &p.Moves[j]
			if !pending(m.State) {
				continue
			}
			stock[m.ProductID] -= m.Demand
			m.Done = m.Demand
			m.State = domain.PickingDone
		}
		p.State = domain.PickingDone
	}

	if allDone(order.Pickings) {
		order.State = domain.StateDone
	}
	if err := s.orders.Complete(ctx, order, stock); err != nil {
		return fmt.Errorf("complete order %s: %w", order.Name, err)
	}
	s.saved(ctx, order, origin)
	if origin == domain.OriginInternal && len(stock) > 0 {
		s.trigger.StockChanged(ctx, stockIDs(stock))
	}
	return nil
}

// Cancel — отменяет заказ и все невыполненные отгрузки, если нет блокирующих причин.
func (s *Service) Cancel(ctx context.Context, orderID int64, origin domain.Origin) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if order.State == domain.StateCancel {
		return nil
	}
	if reasons := cancelBlockers(order); len(reasons) > 0 {
		return s.refuse(ctx, order, domain.StateCancel, reasons...)
	}
	if err := s.allow(ctx, order, domain.StateCancel); err != nil {
		return err
	}

	order.State = domain.StateCancel
	for i := range order.Pickings {
		p := &order.Pickings[i]
		if p.State == domain.PickingDone {
			continue
		}
		p.State = domain.PickingCancel
		for j := range p.Moves {
			if p.Moves[j].State != domain.PickingDone {
				p.Moves[j].State = domain.PickingCancel
			}
		}
	}
	return s.save(ctx, order, origin)
}

// Transition — переход по таблице состояний; sale/done/cancel выполняются
// соответствующими операциями. Переход в текущее состояние ничего не делает.
func (s *Service) Transition(ctx context.Context, orderID int64, to domain.OrderState, origin domain.Origin) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if order.State == to {
		return nil
	}
	if err := s.allow(ctx, order, to); err != nil {
		return err
	}

	switch to {
	case domain.StateSale:
		return s.Confirm(ctx, orderID, origin)
	case domain.StateDone:
		if _, err := s.Assign(ctx, orderID, origin); err != nil {
			return err
		}
		return s.Complete(ctx, orderID, origin)
	case domain.StateCancel:
		return s.Cancel(ctx, orderID, origin)
	default:
		return s.refuse(ctx, order, to)
	}
}

// CancelDiagnostics — причины, по которым заказ нельзя отменить (пусто — можно).
func (s *Service) CancelDiagnostics(ctx context.Context, orderID int64) ([]string, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	reasons := cancelBlockers(order)
	if order.State == domain.StateDone {
		reasons = append(reasons, "order is already done")
	}
	return reasons, nil
}

func (s *Service) load(ctx context.Context, orderID int64) (*domain.LedgerOrder, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}

// save — запись заказа и его последствия.
func (s *Service) save(ctx context.Context, order *domain.LedgerOrder, origin domain.Origin) error {
	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("save order %s: %w", order.Name, err)
	}
	s.saved(ctx, order, origin)
	return nil
}

// saved — сброс кэша и (для internal) постановка исходящей синхронизации.
func (s *Service) saved(ctx context.Context, order *domain.LedgerOrder, origin domain.Origin) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, order.ExternalID)
	}
	if origin == domain.OriginInternal {
		s.trigger.OrderChanged(ctx, order)
	}
}

func (s *Service) allow(ctx context.Context, order *domain.LedgerOrder, to domain.OrderState) error {
	if CanTransition(order.State, to) {
		return nil
	}
	return s.refuse(ctx, order, to)
}

func (s *Service) refuse(ctx context.Context, order *domain.LedgerOrder, to domain.OrderState, reasons ...string) error {
	err := &domain.StateConflictError{OrderID: order.ID, From: order.State, To: to, Reasons: reasons}
	s.log.Warnf(ctx, "%v", err)
	return err
}

// reserve — assigned, если остатка хватает на все движения, иначе waiting и список товаров с нехваткой.
func (s *Service) reserve(ctx context.Context, p *domain.Picking) (domain.PickingState, []int64, error) {
	var short []int64
	for j := range p.Moves {
		m := &p.Moves[j]
		product, err := s.products.Get(ctx, m.ProductID)
		if err != nil {
			return p.State, nil, fmt.Errorf("load product %d: %w", m.ProductID, err)
		}
		if product == nil || product.Stock < m.Demand {
			short = append(short, m.ProductID)
			m.State = domain.PickingWaiting
			continue
		}
		m.State = domain.PickingAssigned
	}
	if len(short) > 0 {
		return domain.PickingWaiting, short, nil
	}
	return domain.PickingAssigned, nil, nil
}
