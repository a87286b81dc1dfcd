// Пакет status — чистые функции преобразования состояний заказа
// между учётной системой и словарём статусов маркетплейса.
package status

import "github.com/Gunvolt24/mpsync/internal/domain"

var outbound = map[domain.OrderState]domain.MarketplaceStatus{
	domain.StateDraft:  domain.StatusPending,
	domain.StateSent:   domain.StatusPending,
	domain.StateSale:   domain.StatusApproved,
	domain.StateDone:   domain.StatusDelivered,
	domain.StateCancel: domain.StatusCancelledBySupplier,
}

// Outbound — состояние заказа → статус маркетплейса по фиксированной таблице.
func Outbound(state domain.OrderState) (domain.MarketplaceStatus, bool) {
	s, ok := outbound[state]
	return s, ok
}

// Combined — учитывает прогресс отгрузки: подтверждённый заказ с выполненной
// отгрузкой → assigned_to_salesman, завершённый → delivered.
func Combined(state domain.OrderState, delivery domain.PickingState) (domain.MarketplaceStatus, bool) {
	switch state {
	case domain.StateCancel:
		return domain.StatusCancelledBySupplier, true
	case domain.StateDraft, domain.StateSent:
		return domain.StatusPending, true
	case domain.StateSale:
		if delivery == domain.PickingDone {
			return domain.StatusAssignedToSalesman, true
		}
		return domain.StatusApproved, true
	case domain.StateDone:
		return domain.StatusDelivered, true
	default:
		return domain.StatusUnknown, false
	}
}

var deliveryRank = map[domain.PickingState]int{
	domain.PickingDraft:     1,
	domain.PickingWaiting:   2,
	domain.PickingConfirmed: 3,
	domain.PickingAssigned:  4,
	domain.PickingDone:      5,
}

// DeliveryState — самое продвинутое состояние среди неотменённых отгрузок
// (done > assigned > confirmed > waiting > draft).
func DeliveryState(pickings []domain.Picking) domain.PickingState {
	best := domain.PickingNone
	bestRank := 0
	for i := range pickings {
		r := deliveryRank[pickings[i].State]
		if r > bestRank {
			best, bestRank = pickings[i].State, r
		}
	}
	return best
}

// InboundTable — настраиваемая таблица статус маркетплейса → состояние заказа.
type InboundTable struct {
	m map[domain.MarketplaceStatus]domain.OrderState
}

// DefaultInbound — таблица по умолчанию.
func DefaultInbound() map[domain.MarketplaceStatus]domain.OrderState {
	return map[domain.MarketplaceStatus]domain.OrderState{
		domain.StatusPending:             domain.StateDraft,
		domain.StatusApproved:            domain.StateSale,
		domain.StatusAssignedToSalesman:  domain.StateSale,
		domain.StatusDelivered:           domain.StateDone,
		domain.StatusCancelled:           domain.StateCancel,
		domain.StatusCancelledByRetailer: domain.StateCancel,
		domain.StatusCancelledBySupplier: domain.StateCancel,
		domain.StatusReturn:              domain.StateDone,
	}
}

// NewInboundTable — таблица по умолчанию с переопределениями (ключ — статус, значение — состояние).
// Неизвестные ключи и значения игнорируются.
func NewInboundTable(overrides map[string]string) *InboundTable {
	m := DefaultInbound()
	for k, v := range overrides {
		st, ok := domain.ParseMarketplaceStatus(k)
		if !ok {
			continue
		}
		switch state := domain.OrderState(v); state {
		case domain.StateDraft, domain.StateSent, domain.StateSale, domain.StateDone, domain.StateCancel:
			m[st] = state
		}
	}
	return &InboundTable{m: m}
}

// Map — никогда не падает: неизвестный статус → draft.
func (t *InboundTable) Map(s domain.MarketplaceStatus) domain.OrderState {
	if state, ok := t.m[s]; ok {
		return state
	}
	return domain.StateDraft
}
