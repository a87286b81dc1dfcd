package domain

import "github.com/shopspring/decimal"

// Envelope — единый формат ответа маркетплейса {success, data, error}.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OrderStatusUpdate — исходящее обновление статуса одного заказа.
type OrderStatusUpdate struct {
	ExternalID         string
	Status             MarketplaceStatus
	RetailerOTP        string
	CancellationReason CancellationReason
}

// PriceUpdate — элемент массового обновления цен.
type PriceUpdate struct {
	ExternalProductID string
	Price             decimal.Decimal
}

// StockUpdate — элемент массового обновления остатков.
type StockUpdate struct {
	ExternalProductID string
	Quantity          int
}
