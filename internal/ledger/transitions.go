package ledger

import (
	"fmt"
	"sort"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

var transitions = map[domain.OrderState][]domain.OrderState{
	domain.StateDraft: {domain.StateSale, domain.StateCancel},
	domain.StateSent:  {domain.StateSale, domain.StateCancel},
	domain.StateSale:  {domain.StateDone, domain.StateCancel},
}

// CanTransition — разрешён ли переход from → to. done и cancel конечные.
func CanTransition(from, to domain.OrderState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// cancelBlockers — счёт выставлен, отгрузка выполнена, заказ заблокирован.
func cancelBlockers(order *domain.LedgerOrder) []string {
	var reasons []string
	if order.Invoiced {
		reasons = append(reasons, "order is invoiced")
	}
	for i := range order.Pickings {
		if order.Pickings[i].State == domain.PickingDone {
			reasons = append(reasons, fmt.Sprintf("picking %d is already delivered", order.Pickings[i].ID))
		}
	}
	if order.Locked {
		reasons = append(reasons, "order is locked")
	}
	return reasons
}

// outgoingPicking — отгрузка confirmed с движением на каждую строку.
func outgoingPicking(order *domain.LedgerOrder) domain.Picking {
	p := domain.Picking{OrderID: order.ID, State: domain.PickingConfirmed}
	for _, l := range order.Lines {
		p.Moves = append(p.Moves, domain.Move{
			ProductID: l.ProductID,
			Demand:    l.Quantity,
			State:     domain.PickingConfirmed,
		})
	}
	return p
}

func pending(s domain.PickingState) bool {
	return s == domain.PickingConfirmed || s == domain.PickingWaiting || s == domain.PickingAssigned
}

// allDone — все неотменённые отгрузки выполнены (без отгрузок — тоже done).
func allDone(pickings []domain.Picking) bool {
	for i := range pickings {
		if pickings[i].State != domain.PickingDone && pickings[i].State != domain.PickingCancel {
			return false
		}
	}
	return true
}

// stockIDs — товары со списанием, по возрастанию id.
func stockIDs(stock map[int64]float64) []int64 {
	out := make([]int64, 0, len(stock))
	for id := range stock {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
