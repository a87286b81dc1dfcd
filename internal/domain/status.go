package domain

import "strings"

// OrderState — состояние заказа в учётной системе.
type OrderState string

const (
	StateDraft  OrderState = "draft"
	StateSent   OrderState = "sent"
	StateSale   OrderState = "sale"
	StateDone   OrderState = "done"
	StateCancel OrderState = "cancel"
)

// IsTerminal — done и cancel конечные.
func (s OrderState) IsTerminal() bool { return s == StateDone || s == StateCancel }

// IsInitial — заказ ещё не подтверждён.
func (s OrderState) IsInitial() bool { return s == StateDraft || s == StateSent }

// MarketplaceStatus — закрытый набор статусов маркетплейса.
type MarketplaceStatus string

const (
	StatusUnknown             MarketplaceStatus = ""
	StatusPending             MarketplaceStatus = "pending"
	StatusApproved            MarketplaceStatus = "approved"
	StatusAssignedToSalesman  MarketplaceStatus = "assigned_to_salesman"
	StatusDelivered           MarketplaceStatus = "delivered"
	StatusCancelled           MarketplaceStatus = "cancelled"
	StatusCancelledByRetailer MarketplaceStatus = "cancelled_by_retailer"
	StatusCancelledBySupplier MarketplaceStatus = "cancelled_by_supplier"
	StatusReturn              MarketplaceStatus = "return"
)

var knownStatuses = map[MarketplaceStatus]struct{}{
	StatusPending:             {},
	StatusApproved:            {},
	StatusAssignedToSalesman:  {},
	StatusDelivered:           {},
	StatusCancelled:           {},
	StatusCancelledByRetailer: {},
	StatusCancelledBySupplier: {},
	StatusReturn:              {},
}

// ParseMarketplaceStatus — разбор строки статуса; неизвестное значение → (StatusUnknown, false).
func ParseMarketplaceStatus(raw string) (MarketplaceStatus, bool) {
	s := MarketplaceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownStatuses[s]; ok {
		return s, true
	}
	return StatusUnknown, false
}

// IsCancellation — любой из вариантов отмены.
func (s MarketplaceStatus) IsCancellation() bool {
	switch s {
	case StatusCancelled, StatusCancelledByRetailer, StatusCancelledBySupplier:
		return true
	}
	return false
}

func (s MarketplaceStatus) String() string {
	if s == StatusUnknown {
		return "unknown"
	}
	return string(s)
}

// SyncStatus — состояние синхронизации заказа/товара с маркетплейсом.
type SyncStatus string

const (
	SyncNotSynced SyncStatus = "not_synced"
	SyncSyncing   SyncStatus = "syncing"
	SyncSynced    SyncStatus = "synced"
	SyncError     SyncStatus = "error"
)

// DeliveredBy — кто отвечает за доставку.
type DeliveredBy string

const (
	DeliveredBySupplier    DeliveredBy = "supplier"
	DeliveredByMarketplace DeliveredBy = "marketplace"
)

// Проводные значения delivered_by.
const (
	WireDeliveredBySupplier    = "delivered_by_supplier"
	WireDeliveredByMarketplace = "delivered_by_cartona"
)

// ParseDeliveredBy — неизвестное значение трактуется как supplier.
func ParseDeliveredBy(raw string) DeliveredBy {
	if strings.TrimSpace(raw) == WireDeliveredByMarketplace {
		return DeliveredByMarketplace
	}
	return DeliveredBySupplier
}

// PaymentMethod — классификация способа оплаты.
type PaymentMethod string

const (
	PaymentStandard      PaymentMethod = "standard"
	PaymentInstallment   PaymentMethod = "installment"
	PaymentWalletTopUp   PaymentMethod = "wallet_top_up"
	PaymentCartonaCredit PaymentMethod = "cartona_credit"
)

// RequiresOTP — для доставленных заказов с этими способами оплаты нужен retailer_otp.
func (p PaymentMethod) RequiresOTP() bool {
	return p == PaymentInstallment || p == PaymentWalletTopUp
}

// PickingState — состояние документа отгрузки.
type PickingState string

const (
	PickingNone      PickingState = ""
	PickingDraft     PickingState = "draft"
	PickingWaiting   PickingState = "waiting"
	PickingConfirmed PickingState = "confirmed"
	PickingAssigned  PickingState = "assigned"
	PickingDone      PickingState = "done"
	PickingCancel    PickingState = "cancel"
)

// Origin — источник изменения заказа. External-изменения не отправляются обратно на маркетплейс.
type Origin string

const (
	OriginExternal Origin = "external"
	OriginInternal Origin = "internal"
)

// ReconcileResult — итог сверки одного заказа.
type ReconcileResult string

const (
	ResultCreated ReconcileResult = "created"
	ResultUpdated ReconcileResult = "updated"
	ResultSkipped ReconcileResult = "skipped"
	ResultFailed  ReconcileResult = "failed"
)

// CancellationReason — допустимые причины отмены поставщиком.
type CancellationReason string

const (
	ReasonOutOfStock            CancellationReason = "out_of_stock"
	ReasonCannotDeliver         CancellationReason = "cannot_deliver_the_order"
	ReasonDelayedOrder          CancellationReason = "delayed_order"
	ReasonSupplierAskedToCancel CancellationReason = "supplier_asked_me_to_cancel"
	ReasonExpiredProducts       CancellationReason = "expired_products"
	ReasonMissingItems          CancellationReason = "missing_items"
)

// DefaultCancellationReason — причина по умолчанию.
const DefaultCancellationReason = ReasonSupplierAskedToCancel

// ValidCancellationReason — проверка причины отмены.
func ValidCancellationReason(r CancellationReason) bool {
	switch r {
	case ReasonOutOfStock, ReasonCannotDeliver, ReasonDelayedOrder,
		ReasonSupplierAskedToCancel, ReasonExpiredProducts, ReasonMissingItems:
		return true
	}
	return false
}
