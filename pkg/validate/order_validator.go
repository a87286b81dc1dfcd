package validate

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что OrderValidator удовлетворяет интерфейсу OrderValidator.
var _ ports.OrderValidator = (*OrderValidator)(nil)

// ErrInvalidOrder — базовая (sentinel error) ошибка валидации.
var ErrInvalidOrder = domain.ErrInvalidOrder

// OrderValidator — проверка инвариантов нормализованного заказа.
type OrderValidator struct{}

// NewOrderValidator — конструктор OrderValidator.
// Возвращает ErrInvalidOrder (с обёрнутой причиной) при любой проблеме.
func NewOrderValidator() *OrderValidator { return &OrderValidator{} }

// Validate — проверяет корректность полей заказа.
func (v *OrderValidator) Validate(_ context.Context, order *domain.NormalizedOrder) error {
	if err := v.validateCore(order); err != nil {
		return err
	}
	if err := v.validateCustomer(&order.Customer); err != nil {
		return err
	}
	return v.validateLines(order.Lines)
}

// validateCore — основные поля заказа.
func (v *OrderValidator) validateCore(order *domain.NormalizedOrder) error {
	if order == nil {
		return fmt.Errorf("%w: заказ не может быть nil", ErrInvalidOrder)
	}
	if strings.TrimSpace(order.ExternalID) == "" {
		return fmt.Errorf("%w: external_order_id обязателен", ErrInvalidOrder)
	}
	if order.Currency == "" {
		return fmt.Errorf("%w: currency обязателен", ErrInvalidOrder)
	}
	switch order.DeliveredBy {
	case domain.DeliveredBySupplier, domain.DeliveredByMarketplace:
	default:
		return fmt.Errorf("%w: delivered_by некорректен: %q", ErrInvalidOrder, order.DeliveredBy)
	}
	switch order.PaymentMethod {
	case domain.PaymentStandard, domain.PaymentInstallment, domain.PaymentWalletTopUp, domain.PaymentCartonaCredit:
	default:
		return fmt.Errorf("%w: payment_method некорректен: %q", ErrInvalidOrder, order.PaymentMethod)
	}
	return nil
}

// Валидация покупателя
func (v *OrderValidator) validateCustomer(c *domain.CustomerPayload) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: retailer name обязателен", ErrInvalidOrder)
	}
	if strings.TrimSpace(c.ExternalID) == "" {
		return fmt.Errorf("%w: retailer external id обязателен", ErrInvalidOrder)
	}
	return nil
}

// Валидация строк
func (v *OrderValidator) validateLines(lines []domain.NormalizedLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: заказ должен содержать хотя бы одну строку", ErrInvalidOrder)
	}
	for i := range lines {
		l := &lines[i]
		if strings.TrimSpace(l.ExternalProductID) == "" {
			return fmt.Errorf("%w: lines[%d].supplier_product_id обязателен", ErrInvalidOrder, i)
		}
		if l.Quantity < 0 || math.IsNaN(l.Quantity) || math.IsInf(l.Quantity, 0) {
			return fmt.Errorf("%w: lines[%d].quantity должен быть неотрицательным", ErrInvalidOrder, i)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: lines[%d].unit_price должен быть неотрицательным", ErrInvalidOrder, i)
		}
	}
	return nil
}
