package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// Ledger — операции жизненного цикла заказа и отгрузок.
// origin=internal запускает исходящую синхронизацию, origin=external нет.
type Ledger interface {
	Confirm(ctx context.Context, orderID int64, origin domain.Origin) error
	// Assign — ошибки отдельных отгрузок возвращаются как предупреждения и не прерывают операцию.
	Assign(ctx context.Context, orderID int64, origin domain.Origin) (warnings []error, err error)
	Complete(ctx context.Context, orderID int64, origin domain.Origin) error
	Cancel(ctx context.Context, orderID int64, origin domain.Origin) error
	Transition(ctx context.Context, orderID int64, to domain.OrderState, origin domain.Origin) error
	CancelDiagnostics(ctx context.Context, orderID int64) ([]string, error)
}
