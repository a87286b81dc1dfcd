package validate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/pkg/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{ warns int }

func (*quietLogger) Infof(context.Context, string, ...any)    {}
func (l *quietLogger) Warnf(context.Context, string, ...any) { l.warns++ }
func (*quietLogger) Errorf(context.Context, string, ...any)   {}

func newNormalizer() (*validate.OrderNormalizer, *quietLogger) {
	log := &quietLogger{}
	return validate.NewOrderNormalizer(validate.NewOrderValidator(), log), log
}

const fullPayload = `{
  "external_order_id": "ORD-100",
  "receipt_id": "R-100",
  "status": "Approved",
  "created_at": "2025-03-01 10:15:00",
  "delivered_by": "delivered_by_cartona",
  "installment_cost": 0,
  "wallet_top_up": 15.5,
  "pickup_otp": "4321",
  "retailer": {
    "retailer_code": "77",
    "retailer_name": "Corner Shop",
    "retailer_number": "+20 111",
    "retailer_address": "Main st 1",
    "address_notes": "2nd floor"
  },
  "order_details": [
    {"id": "L1", "supplier_product_id": "P-1", "product_name": "Tea", "amount": 3, "selling_price": "10.25",
     "applied_supplier_discount": 1, "applied_cartona_discount": "0.5", "unit": "box", "comment": "fragile"},
    {"supplier_product_id": "P-2", "amount": "2"},
    {"product_name": "no id", "amount": 1}
  ]
}`

func TestNormalizePayload_FullOrder(t *testing.T) {
	n, log := newNormalizer()

	o, err := n.NormalizePayload(context.Background(), []byte(fullPayload))
	require.NoError(t, err)

	assert.Equal(t, "ORD-100", o.ExternalID)
	assert.Equal(t, "R-100", o.OrderNumber)
	assert.Equal(t, domain.StatusApproved, o.Status)
	assert.Equal(t, "Approved", o.RawStatus)
	assert.Equal(t, "EGP", o.Currency)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC), o.OrderedAt)
	assert.Equal(t, domain.DeliveredByMarketplace, o.DeliveredBy)
	assert.Equal(t, domain.PaymentWalletTopUp, o.PaymentMethod)
	assert.Equal(t, "4321", o.RetailerOTP)

	assert.Equal(t, "retailer_77", o.Customer.ExternalID)
	assert.Equal(t, "Corner Shop", o.Customer.Name)
	assert.Equal(t, "Main st 1, 2nd floor", o.Customer.Address)

	require.Len(t, o.Lines, 2)
	l := o.Lines[0]
	assert.Equal(t, "P-1", l.ExternalProductID)
	assert.Equal(t, "P-1", l.SKU)
	assert.Equal(t, "L1", l.ExternalLineID)
	assert.Equal(t, 3.0, l.Quantity)
	assert.Equal(t, "10.25", l.UnitPrice.String())
	assert.Equal(t, "30.75", l.Total.String())
	assert.Equal(t, "0.5", l.MarketplaceDiscount.String())
	assert.Equal(t, 1.0, l.UnitCount)
	assert.True(t, o.Lines[1].UnitPrice.IsZero())

	// третья строка без supplier_product_id отброшена с предупреждением
	assert.Equal(t, 1, log.warns)
}

func TestNormalizePayload_ListTakesFirst(t *testing.T) {
	n, log := newNormalizer()
	raw := `[` + fullPayload + `, {"external_order_id": "ignored"}]`

	o, err := n.NormalizePayload(context.Background(), []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "ORD-100", o.ExternalID)
	assert.GreaterOrEqual(t, log.warns, 2)
}

func TestNormalizePayload_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty list", `[]`},
		{"scalar", `"order"`},
		{"broken json", `{`},
		{"missing keys", `{"status": "pending"}`},
		{"empty details", `{"external_order_id": "X", "retailer": {}, "order_details": []}`},
		{"only invalid lines", `{"external_order_id": "X", "retailer": {}, "order_details": [{"amount": 1}]}`},
		{"negative amount", `{"external_order_id": "X", "retailer": {}, "order_details": [{"supplier_product_id": "P", "amount": -2}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			n, _ := newNormalizer()
			o, err := n.NormalizePayload(context.Background(), []byte(tt.raw))
			assert.Nil(t, o)
			assert.True(t, errors.Is(err, validate.ErrInvalidOrder), "got %v", err)
		})
	}
}

func TestNormalize_MissingKeysListed(t *testing.T) {
	n, _ := newNormalizer()
	_, err := n.Normalize(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external_order_id, retailer, order_details")
}

func TestNormalize_Defaults(t *testing.T) {
	n, _ := newNormalizer()
	raw := `{"hashed_id": "H-1", "retailer": {}, "order_details": [{"supplier_product_id": "P", "amount": 1}]}`

	o, err := n.NormalizePayload(context.Background(), []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "H-1", o.ExternalID)
	assert.Equal(t, "H-1", o.OrderNumber)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.DeliveredBySupplier, o.DeliveredBy)
	assert.Equal(t, domain.PaymentStandard, o.PaymentMethod)
	assert.Equal(t, "Marketplace Customer", o.Customer.Name)
	assert.False(t, o.OrderedAt.IsZero())
}

func TestNormalize_UnknownStatusKept(t *testing.T) {
	n, log := newNormalizer()
	raw := `{"external_order_id": "X", "status": "teleported", "retailer": {"name": "A"},
	         "order_details": [{"supplier_product_id": "P", "amount": 1}]}`

	o, err := n.NormalizePayload(context.Background(), []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnknown, o.Status)
	assert.Equal(t, "teleported", o.RawStatus)
	assert.Equal(t, 1, log.warns)
}

func TestNormalize_PaymentPriority(t *testing.T) {
	tests := []struct {
		name   string
		fields string
		want   domain.PaymentMethod
	}{
		{"installment wins", `"installment_cost": 1, "wallet_top_up": 5`, domain.PaymentInstallment},
		{"wallet", `"wallet_top_up": "3"`, domain.PaymentWalletTopUp},
		{"credit", `"cartona_credit": 7`, domain.PaymentCartonaCredit},
		{"zeroes", `"installment_cost": 0, "cartona_credit": 0`, domain.PaymentStandard},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			n, _ := newNormalizer()
			raw := `{"external_order_id": "X", ` + tt.fields + `, "retailer": {},
			         "order_details": [{"supplier_product_id": "P", "amount": 1}]}`
			o, err := n.NormalizePayload(context.Background(), []byte(raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.PaymentMethod)
		})
	}
}

func TestCustomerExternalID(t *testing.T) {
	tests := []struct {
		code, name, phone string
		want              string
	}{
		{"15", "Shop", "+2010", "retailer_15"},
		{"", "Big Shop", "+20 10", "retailer_Big_Shop_20_10"},
		{"", "Big Shop", "", "retailer_Big_Shop"},
		{"", "", "+2010", "retailer_2010"},
		{"", "", "", "retailer_Marketplace_Customer"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validate.CustomerExternalID(tt.code, tt.name, tt.phone))
	}
}
