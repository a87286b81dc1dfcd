package validate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

func newTestNormalizer() *OrderNormalizer {
	return NewOrderNormalizer(NewOrderValidator(), nopLogger{})
}

func TestValidateOrderFromJSON_OK(t *testing.T) {
	ctx := context.Background()

	order, err := ValidateOrderFromJSON(ctx, newTestNormalizer(), []byte(minimalOrderJSON("ext-1", "P-1", "2")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ExternalID != "ext-1" {
		t.Fatalf("unexpected external id: %s", order.ExternalID)
	}
}

func TestValidateOrderFromJSON_TrailingData(t *testing.T) {
	ctx := context.Background()

	raw := minimalOrderJSON("ext-3", "P-1", "1") + "{}"
	_, err := ValidateOrderFromJSON(ctx, newTestNormalizer(), []byte(raw))
	if err == nil || !strings.Contains(err.Error(), "trailing data") {
		t.Fatalf("expected trailing data error, got: %v", err)
	}
}

func TestValidateOrderFromJSON_BrokenJSON(t *testing.T) {
	ctx := context.Background()

	_, err := ValidateOrderFromJSON(ctx, newTestNormalizer(), []byte(`{"external_order_id":`))
	if !errors.Is(err, ErrInvalidOrder) || !strings.Contains(err.Error(), "invalid json") {
		t.Fatalf("expected invalid json error, got: %v", err)
	}
}

func TestValidateOrderFromJSON_NoValidLines(t *testing.T) {
	ctx := context.Background()

	// строка без supplier_product_id отбрасывается, других строк нет
	raw := minimalOrderJSON("ext-4", "", "1")
	_, err := ValidateOrderFromJSON(ctx, newTestNormalizer(), []byte(raw))
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got: %v", err)
	}
}

// ---- helpers ----

func minimalOrderJSON(externalID, productID, amount string) string {
	return `{
  "external_order_id": "` + externalID + `",
  "status": "pending",
  "retailer": {"retailer_name": "Shop One", "retailer_number": "+20 100"},
  "order_details": [
    {"supplier_product_id": "` + productID + `", "amount": ` + amount + `, "selling_price": 12.5}
  ]
}`
}
