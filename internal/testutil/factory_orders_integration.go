//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/shopspring/decimal"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// MakeLedgerOrder — заказ учётной системы с одной строкой; customerID и productID должны существовать в БД.
func MakeLedgerOrder(customerID, productID int64, opts ...func(*domain.LedgerOrder)) domain.LedgerOrder {
	now := time.Now().UTC().Truncate(time.Second)
	o := domain.LedgerOrder{
		ExternalID:    "ext-" + UniqSuffix(),
		CustomerID:    customerID,
		State:         domain.StateDraft,
		SyncStatus:    domain.SyncSynced,
		DeliveredBy:   domain.DeliveredBySupplier,
		PaymentMethod: domain.PaymentStandard,
		Origin:        string(domain.OriginExternal),
		Currency:      "EGP",
		AmountTotal:   decimal.RequireFromString("30.75"),
		OrderedAt:     now,
		Lines: []domain.LedgerLine{
			{
				ProductID:   productID,
				Description: "Tea",
				Quantity:    3,
				UnitPrice:   decimal.RequireFromString("10.25"),
				Total:       decimal.RequireFromString("30.75"),
			},
		},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithExternalID — переопределить external id.
func WithExternalID(id string) func(*domain.LedgerOrder) {
	return func(o *domain.LedgerOrder) { o.ExternalID = id }
}

// WithPicking — добавить отгрузку с одним движением по каждой строке.
func WithPicking(state domain.PickingState) func(*domain.LedgerOrder) {
	return func(o *domain.LedgerOrder) {
		p := domain.Picking{State: state}
		for _, l := range o.Lines {
			p.Moves = append(p.Moves, domain.Move{ProductID: l.ProductID, Demand: l.Quantity, State: state})
		}
		o.Pickings = append(o.Pickings, p)
	}
}

// MakeRawOrder — сырой заказ маркетплейса в формате webhook/pull.
func MakeRawOrder(externalID, status string, qty float64) map[string]any {
	return map[string]any{
		"external_order_id": externalID,
		"receipt_id":        "R-" + externalID,
		"status":            status,
		"delivered_by":      domain.WireDeliveredBySupplier,
		"created_at":        time.Now().UTC().Format(time.RFC3339),
		"retailer": map[string]any{
			"retailer_code":   "c-" + externalID,
			"retailer_name":   "Shop " + externalID,
			"retailer_number": "+20100",
		},
		"order_details": []any{
			map[string]any{
				"id":                  "L-" + externalID,
				"supplier_product_id": "P-" + UniqSuffix(),
				"product_name":        "Tea",
				"amount":              qty,
				"selling_price":       "10.25",
			},
		},
	}
}

// MakeRawOrderJSON — то же, сериализованное в JSON.
func MakeRawOrderJSON(externalID, status string, qty float64) []byte {
	b, _ := json.Marshal(MakeRawOrder(externalID, status, qty))
	return b
}
