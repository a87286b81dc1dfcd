package validate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/pkg/validate"
	"github.com/shopspring/decimal"
)

func validOrder() *domain.NormalizedOrder {
	return &domain.NormalizedOrder{
		ExternalID:    "ext-1",
		Status:        domain.StatusPending,
		RawStatus:     "pending",
		OrderNumber:   "R-1",
		Currency:      "EGP",
		DeliveredBy:   domain.DeliveredBySupplier,
		PaymentMethod: domain.PaymentStandard,
		Customer: domain.CustomerPayload{
			ExternalID: "retailer_42",
			Name:       "Shop",
		},
		Lines: []domain.NormalizedLine{
			{ExternalProductID: "P-1", SKU: "P-1", Quantity: 2, UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(20)},
		},
	}
}

func TestOrderValidator_Validate(t *testing.T) {
	v := validate.NewOrderValidator()
	ctx := context.Background()

	t.Run("valid order", func(t *testing.T) {
		if err := v.Validate(ctx, validOrder()); err != nil {
			t.Fatalf("expected valid order, got: %v", err)
		}
	})

	t.Run("nil order", func(t *testing.T) {
		if err := v.Validate(ctx, nil); !errors.Is(err, validate.ErrInvalidOrder) {
			t.Fatalf("expected ErrInvalidOrder, got: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(o *domain.NormalizedOrder)
	}{
		{"empty external id", func(o *domain.NormalizedOrder) { o.ExternalID = "  " }},
		{"empty currency", func(o *domain.NormalizedOrder) { o.Currency = "" }},
		{"unknown delivered_by", func(o *domain.NormalizedOrder) { o.DeliveredBy = "drone" }},
		{"unknown payment", func(o *domain.NormalizedOrder) { o.PaymentMethod = "barter" }},
		{"empty customer name", func(o *domain.NormalizedOrder) { o.Customer.Name = "" }},
		{"empty customer id", func(o *domain.NormalizedOrder) { o.Customer.ExternalID = "" }},
		{"no lines", func(o *domain.NormalizedOrder) { o.Lines = nil }},
		{"line without product", func(o *domain.NormalizedOrder) { o.Lines[0].ExternalProductID = "" }},
		{"negative quantity", func(o *domain.NormalizedOrder) { o.Lines[0].Quantity = -1 }},
		{"negative price", func(o *domain.NormalizedOrder) { o.Lines[0].UnitPrice = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(o)
			if err := v.Validate(ctx, o); !errors.Is(err, validate.ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got: %v", err)
			}
		})
	}

	t.Run("zero quantity is allowed", func(t *testing.T) {
		o := validOrder()
		o.Lines[0].Quantity = 0
		if err := v.Validate(ctx, o); err != nil {
			t.Fatalf("expected valid order, got: %v", err)
		}
	})
}
