package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

const (
	endpointUpdateStatus = "order/update-order-status/"
	endpointBulkUpdate   = "supplier-product/bulk-update"
	endpointPullOrders   = "order/pull-orders"
	endpointProducts     = "supplier-product"

	isoLayout = "2006-01-02T15:04:05Z07:00"
)

// UpdateOrderStatus — POST order/update-order-status/{id} с телом {status, hashed_id}.
// retailer_otp добавляется для delivered, cancellation_reason для cancelled_by_supplier.
func (c *Client) UpdateOrderStatus(ctx context.Context, cfg *domain.MarketplaceConfig, upd domain.OrderStatusUpdate) (domain.Envelope, error) {
	if upd.ExternalID == "" {
		return domain.Envelope{Success: false, Error: "external order id is required"},
			&domain.APIError{Kind: domain.APIErrRequest, Message: "external order id is required"}
	}

	body := map[string]any{
		"status":    string(upd.Status),
		"hashed_id": upd.ExternalID,
	}
	if upd.Status == domain.StatusDelivered && upd.RetailerOTP != "" {
		body["retailer_otp"] = upd.RetailerOTP
	}
	if upd.Status == domain.StatusCancelledBySupplier {
		reason := upd.CancellationReason
		if !domain.ValidCancellationReason(reason) {
			reason = domain.DefaultCancellationReason
		}
		body["cancellation_reason"] = string(reason)
	}

	res := c.Call(ctx, cfg, Request{
		Op:       "update_order_status",
		Endpoint: endpointUpdateStatus + url.PathEscape(upd.ExternalID),
		Method:   http.MethodPost,
		Body:     body,
	})
	return envelopeOrError(res)
}

// BulkUpdatePrices — массовое обновление цен (selling_price передаётся строкой).
func (c *Client) BulkUpdatePrices(ctx context.Context, cfg *domain.MarketplaceConfig, items []domain.PriceUpdate) (domain.Envelope, error) {
	payload := make([]map[string]any, 0, len(items))
	for _, it := range items {
		payload = append(payload, map[string]any{
			"supplier_product_id": it.ExternalProductID,
			"selling_price":       it.Price.String(),
		})
	}
	res := c.Call(ctx, cfg, Request{Op: "bulk_update_prices", Endpoint: endpointBulkUpdate, Method: http.MethodPost, Body: payload})
	return envelopeOrError(res)
}

// BulkUpdateStock — массовое обновление остатков.
func (c *Client) BulkUpdateStock(ctx context.Context, cfg *domain.MarketplaceConfig, items []domain.StockUpdate) (domain.Envelope, error) {
	payload := make([]map[string]any, 0, len(items))
	for _, it := range items {
		payload = append(payload, map[string]any{
			"supplier_product_id":      it.ExternalProductID,
			"available_stock_quantity": it.Quantity,
		})
	}
	res := c.Call(ctx, cfg, Request{Op: "bulk_update_stock", Endpoint: endpointBulkUpdate, Method: http.MethodPost, Body: payload})
	return envelopeOrError(res)
}

// PullOrders — одна страница заказов за период [from, to].
func (c *Client) PullOrders(ctx context.Context, cfg *domain.MarketplaceConfig, from, to time.Time, page, perPage int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("from", from.UTC().Format(isoLayout))
	q.Set("to", to.UTC().Format(isoLayout))

	res := c.Call(ctx, cfg, Request{Op: "pull_orders", Endpoint: endpointPullOrders, Method: http.MethodGet, Query: q})
	env, err := envelopeOrError(res)
	if err != nil {
		return nil, err
	}
	return ordersFromData(env.Data)
}

// TestConnection — GET supplier-product?page=1&per_page=1.
func (c *Client) TestConnection(ctx context.Context, cfg *domain.MarketplaceConfig) (domain.Envelope, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("per_page", "1")
	res := c.Call(ctx, cfg, Request{Op: "test_connection", Endpoint: endpointProducts, Method: http.MethodGet, Query: q})
	return envelopeOrError(res)
}

// ConnectionMessage — понятное сообщение о результате проверки соединения.
func ConnectionMessage(err error) string {
	if err == nil {
		return "Connection successful"
	}
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Sprintf("Connection failed: %v", err)
	}
	switch {
	case apiErr.Kind == domain.APIErrTimeout:
		return "Connection timed out: the marketplace did not respond in time"
	case apiErr.Kind == domain.APIErrConnection:
		return "Connection error: cannot reach the marketplace, check the base URL and network"
	case apiErr.StatusCode == http.StatusBadRequest:
		return "Invalid credentials or malformed request (400)"
	case apiErr.StatusCode == http.StatusUnauthorized:
		return "Authentication failed: invalid auth token (401)"
	case apiErr.StatusCode == http.StatusForbidden:
		return "Access forbidden: token has no access to this resource (403)"
	case apiErr.StatusCode == http.StatusNotFound:
		return "Endpoint not found: check the base URL (404)"
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return "Rate limited by the marketplace, try again later (429)"
	case apiErr.StatusCode >= http.StatusInternalServerError:
		return fmt.Sprintf("Marketplace server error (%d)", apiErr.StatusCode)
	default:
		return fmt.Sprintf("Connection failed: %s", apiErr.Error())
	}
}

// envelopeOrError — HTTP-ошибка или success=false превращаются в *domain.APIError.
func envelopeOrError(res Result) (domain.Envelope, error) {
	env := res.Envelope()
	if res.Err != nil {
		return env, res.Err
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "marketplace rejected the request"
		}
		return env, &domain.APIError{Kind: domain.APIErrRejected, StatusCode: res.StatusCode, Message: msg, Detail: env.Data}
	}
	return env, nil
}

// ordersFromData — data может быть массивом или объектом с ключом data/orders.
func ordersFromData(data any) ([]map[string]any, error) {
	var list []any
	switch t := data.(type) {
	case nil:
		return nil, nil
	case []any:
		list = t
	case map[string]any:
		switch inner := firstNonNil(t["data"], t["orders"]).(type) {
		case []any:
			list = inner
		case nil:
			return nil, nil
		default:
			return nil, &domain.APIError{Kind: domain.APIErrDecode, Message: fmt.Sprintf("unexpected orders payload %T", inner)}
		}
	default:
		return nil, &domain.APIError{Kind: domain.APIErrDecode, Message: fmt.Sprintf("unexpected orders payload %T", data)}
	}

	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &domain.APIError{Kind: domain.APIErrDecode, Message: fmt.Sprintf("order #%d is %T, want object", i+1, item)}
		}
		out = append(out, m)
	}
	return out, nil
}

func firstNonNil(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
