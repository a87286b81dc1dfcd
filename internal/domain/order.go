package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedOrder — каноническое представление входящего заказа маркетплейса.
type NormalizedOrder struct {
	ExternalID    string            `json:"external_order_id"`
	Status        MarketplaceStatus `json:"status"`
	RawStatus     string            `json:"raw_status"`
	OrderNumber   string            `json:"order_number,omitempty"`
	Currency      string            `json:"currency"`
	OrderedAt     time.Time         `json:"ordered_at"`
	DeliveredBy   DeliveredBy       `json:"delivered_by"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	RetailerOTP   string            `json:"retailer_otp,omitempty"`
	Customer      CustomerPayload   `json:"customer"`
	Lines         []NormalizedLine  `json:"lines"`
}

// CustomerPayload — данные покупателя из заказа.
type CustomerPayload struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// NormalizedLine — строка входящего заказа.
type NormalizedLine struct {
	ExternalProductID   string          `json:"supplier_product_id"`
	SKU                 string          `json:"sku,omitempty"`
	Name                string          `json:"name,omitempty"`
	Quantity            float64         `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Total               decimal.Decimal `json:"total"`
	ExternalLineID      string          `json:"external_line_id,omitempty"`
	BaseProductID       string          `json:"base_product_id,omitempty"`
	Unit                string          `json:"unit,omitempty"`
	UnitCount           float64         `json:"unit_count,omitempty"`
	SupplierDiscount    decimal.Decimal `json:"supplier_discount"`
	MarketplaceDiscount decimal.Decimal `json:"marketplace_discount"`
	Comment             string          `json:"comment,omitempty"`
}

// LedgerOrder — заказ в учётной системе.
type LedgerOrder struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	ExternalID         string             `json:"external_id,omitempty"`
	ConfigID           int64              `json:"config_id,omitempty"`
	CustomerID         int64              `json:"customer_id"`
	State              OrderState         `json:"state"`
	MarketplaceStatus  string             `json:"marketplace_status,omitempty"`
	SyncStatus         SyncStatus         `json:"sync_status"`
	SyncError          string             `json:"sync_error,omitempty"`
	SyncErrorDetails   string             `json:"sync_error_details,omitempty"`
	SyncedAt           *time.Time         `json:"synced_at,omitempty"`
	DeliveredBy        DeliveredBy        `json:"delivered_by"`
	PaymentMethod      PaymentMethod      `json:"payment_method"`
	RetailerOTP        string             `json:"-"`
	CancellationReason CancellationReason `json:"cancellation_reason,omitempty"`
	OrderNumber        string             `json:"order_number,omitempty"`
	Origin             string             `json:"origin,omitempty"`
	Currency           string             `json:"currency"`
	AmountTotal        decimal.Decimal    `json:"amount_total"`
	Invoiced           bool               `json:"invoiced"`
	Locked             bool               `json:"locked"`
	OrderedAt          time.Time          `json:"ordered_at"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Lines              []LedgerLine       `json:"lines"`
	Pickings           []Picking          `json:"pickings"`
}

// IsMarketplaceOrder — заказ пришёл с маркетплейса.
func (o *LedgerOrder) IsMarketplaceOrder() bool { return o != nil && o.ExternalID != "" }

// LedgerLine — строка заказа в учётной системе.
type LedgerLine struct {
	ID                  int64           `json:"id"`
	OrderID             int64           `json:"order_id"`
	ProductID           int64           `json:"product_id"`
	ExternalLineID      string          `json:"external_line_id,omitempty"`
	Description         string          `json:"description"`
	Quantity            float64         `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Total               decimal.Decimal `json:"total"`
	SupplierDiscount    decimal.Decimal `json:"supplier_discount"`
	MarketplaceDiscount decimal.Decimal `json:"marketplace_discount"`
	Comment             string          `json:"comment,omitempty"`
}

// Picking — документ отгрузки (исходящая доставка).
type Picking struct {
	ID      int64        `json:"id"`
	OrderID int64        `json:"order_id"`
	State   PickingState `json:"state"`
	Moves   []Move       `json:"moves"`
}

// Move — движение товара внутри отгрузки.
type Move struct {
	ID        int64        `json:"id"`
	PickingID int64        `json:"picking_id"`
	ProductID int64        `json:"product_id"`
	Demand    float64      `json:"demand"`
	Done      float64      `json:"done"`
	State     PickingState `json:"state"`
}

// Customer — покупатель (ритейлер).
type Customer struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Product — товар поставщика.
type Product struct {
	ID           int64           `json:"id"`
	ExternalID   string          `json:"external_id,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        float64         `json:"stock"`
	SyncEnabled  bool            `json:"sync_enabled"`
	SyncStatus   SyncStatus      `json:"sync_status"`
	SyncError    string          `json:"sync_error,omitempty"`
	LastSyncedAt *time.Time      `json:"last_synced_at,omitempty"`
}

// SyncUpdate — изменение полей синхронизации заказа. nil-поля не меняются.
type SyncUpdate struct {
	Status            SyncStatus
	MarketplaceStatus *string
	Error             string
	ErrorDetails      string
	SyncedAt          *time.Time
}

// Clone — глубокая копия заказа (строки, отгрузки и движения).
func (o *LedgerOrder) Clone() *LedgerOrder {
	if o == nil {
		return nil
	}
	cp := *o
	if o.SyncedAt != nil {
		t := *o.SyncedAt
		cp.SyncedAt = &t
	}
	if o.Lines != nil {
		cp.Lines = make([]LedgerLine, len(o.Lines))
		copy(cp.Lines, o.Lines)
	}
	if o.Pickings != nil {
		cp.Pickings = make([]Picking, len(o.Pickings))
		for i := range o.Pickings {
			p := o.Pickings[i]
			if p.Moves != nil {
				p.Moves = append([]Move(nil), p.Moves...)
			}
			cp.Pickings[i] = p
		}
	}
	return &cp
}
