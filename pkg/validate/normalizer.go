package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/shopspring/decimal"
)

// Проверка, что OrderNormalizer удовлетворяет интерфейсу OrderNormalizer.
var _ ports.OrderNormalizer = (*OrderNormalizer)(nil)

const (
	defaultCurrency     = "EGP"
	defaultCustomerName = "Marketplace Customer"
)

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// OrderNormalizer — приводит сырой заказ маркетплейса к domain.NormalizedOrder.
// Ошибки всегда оборачивают ErrInvalidOrder; паники нет.
type OrderNormalizer struct {
	validator ports.OrderValidator
	log       ports.Logger
	now       func() time.Time
}

// NewOrderNormalizer — конструктор.
func NewOrderNormalizer(validator ports.OrderValidator, log ports.Logger) *OrderNormalizer {
	return &OrderNormalizer{validator: validator, log: log, now: time.Now}
}

// NormalizePayload — разбирает JSON (объект или массив) и нормализует заказ.
// Из массива берётся только первый элемент.
func (n *OrderNormalizer) NormalizePayload(ctx context.Context, raw []byte) (*domain.NormalizedOrder, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		n.log.Warnf(ctx, "invalid order json: %v", err)
		return nil, fmt.Errorf("%w: invalid json: %v", ErrInvalidOrder, err)
	}
	if dec.More() {
		n.log.Warnf(ctx, "invalid order json: trailing data")
		return nil, fmt.Errorf("%w: invalid json: trailing data", ErrInvalidOrder)
	}

	switch t := v.(type) {
	case map[string]any:
		return n.Normalize(ctx, t)
	case []any:
		if len(t) == 0 {
			n.log.Warnf(ctx, "order payload is an empty list")
			return nil, fmt.Errorf("%w: empty order list", ErrInvalidOrder)
		}
		if len(t) > 1 {
			n.log.Warnf(ctx, "order payload list has %d elements, only the first is processed", len(t))
		}
		m, ok := t[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: order must be an object, got %T", ErrInvalidOrder, t[0])
		}
		return n.Normalize(ctx, m)
	default:
		return nil, fmt.Errorf("%w: order must be an object, got %T", ErrInvalidOrder, v)
	}
}

// Normalize — проверка обязательных ключей и построение канонического заказа.
func (n *OrderNormalizer) Normalize(ctx context.Context, data map[string]any) (*domain.NormalizedOrder, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: empty order", ErrInvalidOrder)
	}

	externalID := firstString(data, "external_order_id", "hashed_id")
	retailer, retailerOK := data["retailer"].(map[string]any)
	details, detailsOK := data["order_details"].([]any)

	var missing []string
	if externalID == "" {
		missing = append(missing, "external_order_id")
	}
	if !retailerOK {
		missing = append(missing, "retailer")
	}
	if !detailsOK || len(details) == 0 {
		missing = append(missing, "order_details")
	}
	if len(missing) > 0 {
		n.log.Warnf(ctx, "order rejected: missing required keys %v", missing)
		return nil, fmt.Errorf("%w: missing required keys: %s", ErrInvalidOrder, strings.Join(missing, ", "))
	}

	rawStatus := firstString(data, "status")
	st := domain.StatusPending
	if rawStatus != "" {
		parsed, ok := domain.ParseMarketplaceStatus(rawStatus)
		if !ok {
			n.log.Warnf(ctx, "order %s: unknown marketplace status %q", externalID, rawStatus)
		}
		st = parsed
	} else {
		rawStatus = string(domain.StatusPending)
	}

	order := &domain.NormalizedOrder{
		ExternalID:    externalID,
		Status:        st,
		RawStatus:     rawStatus,
		OrderNumber:   firstString(data, "receipt_id"),
		Currency:      defaultCurrency,
		OrderedAt:     n.parseTime(data["created_at"]),
		DeliveredBy:   domain.ParseDeliveredBy(firstString(data, "delivered_by")),
		PaymentMethod: paymentMethod(data),
		RetailerOTP:   firstString(data, "pickup_otp"),
		Customer:      customerFrom(retailer),
	}
	if order.OrderNumber == "" {
		order.OrderNumber = externalID
	}
	if c := firstString(data, "currency"); c != "" {
		order.Currency = strings.ToUpper(c)
	}

	for i, item := range details {
		m, ok := item.(map[string]any)
		if !ok {
			n.log.Warnf(ctx, "order %s: order_details[%d] is not an object, skipped", externalID, i)
			continue
		}
		line, err := normalizeLine(m)
		if err != nil {
			n.log.Warnf(ctx, "order %s: order_details[%d] skipped: %v", externalID, i, err)
			continue
		}
		order.Lines = append(order.Lines, line)
	}
	if len(order.Lines) == 0 {
		n.log.Warnf(ctx, "order %s rejected: no valid order lines", externalID)
		return nil, fmt.Errorf("%w: no valid order lines", ErrInvalidOrder)
	}

	if err := n.validator.Validate(ctx, order); err != nil {
		n.log.Warnf(ctx, "order %s rejected: %v", externalID, err)
		return nil, err
	}
	return order, nil
}

func normalizeLine(m map[string]any) (domain.NormalizedLine, error) {
	productID := firstString(m, "supplier_product_id")
	if productID == "" {
		return domain.NormalizedLine{}, fmt.Errorf("supplier_product_id is required")
	}
	qty, ok := toFloat(m["amount"])
	if !ok {
		return domain.NormalizedLine{}, fmt.Errorf("amount is required")
	}
	if qty < 0 {
		return domain.NormalizedLine{}, fmt.Errorf("amount must not be negative")
	}

	price, ok := toDecimal(m["selling_price"])
	if !ok {
		price = decimal.Zero
	}
	unitCount, ok := toFloat(m["unit_count"])
	if !ok {
		unitCount = 1
	}
	supplierDiscount, _ := toDecimal(m["applied_supplier_discount"])
	marketplaceDiscount, _ := toDecimal(m["applied_cartona_discount"])

	sku := firstString(m, "sku")
	if sku == "" {
		sku = productID
	}

	return domain.NormalizedLine{
		ExternalProductID:   productID,
		SKU:                 sku,
		Name:                firstString(m, "product_name"),
		Quantity:            qty,
		UnitPrice:           price,
		Total:               price.Mul(decimal.NewFromFloat(qty)),
		ExternalLineID:      firstString(m, "id"),
		BaseProductID:       firstString(m, "base_product_id"),
		Unit:                firstString(m, "unit"),
		UnitCount:           unitCount,
		SupplierDiscount:    supplierDiscount,
		MarketplaceDiscount: marketplaceDiscount,
		Comment:             firstString(m, "comment"),
	}, nil
}

// customerFrom — имя и детерминированный external id покупателя.
func customerFrom(r map[string]any) domain.CustomerPayload {
	name := firstString(r, "retailer_name", "name", "customer_name")
	phone := firstString(r, "retailer_number", "phone", "retailer_phone")
	code := firstString(r, "retailer_code", "id", "retailer_id")

	c := domain.CustomerPayload{
		Name:    name,
		Phone:   phone,
		Email:   firstString(r, "retailer_email", "email"),
		Address: joinNonEmpty(", ", firstString(r, "retailer_address", "address"), firstString(r, "address_notes")),
	}
	c.ExternalID = CustomerExternalID(code, name, phone)
	if c.Name == "" {
		c.Name = defaultCustomerName
	}
	return c
}

// CustomerExternalID — код → имя+телефон → имя → телефон.
// Функция детерминирована: один и тот же покупатель всегда получает один id.
func CustomerExternalID(code, name, phone string) string {
	switch {
	case code != "":
		return "retailer_" + code
	case name != "" && phone != "":
		return cleanID("retailer_" + name + "_" + phone)
	case name != "":
		return cleanID("retailer_" + name)
	case phone != "":
		return cleanID("retailer_" + phone)
	default:
		return cleanID("retailer_" + defaultCustomerName)
	}
}

func cleanID(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "+", ""), " ", "_")
}

// paymentMethod — installment > wallet_top_up > cartona_credit > standard.
func paymentMethod(data map[string]any) domain.PaymentMethod {
	switch {
	case positive(data["installment_cost"]):
		return domain.PaymentInstallment
	case positive(data["wallet_top_up"]):
		return domain.PaymentWalletTopUp
	case positive(data["cartona_credit"]):
		return domain.PaymentCartonaCredit
	default:
		return domain.PaymentStandard
	}
}

func (n *OrderNormalizer) parseTime(v any) time.Time {
	s, ok := v.(string)
	if ok && s != "" {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return n.now().UTC()
}

func positive(v any) bool {
	f, ok := toFloat(v)
	return ok && f > 0
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
