package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobKind — вид асинхронной задачи.
type JobKind string

const (
	JobInboundOrder  JobKind = "inbound_order"
	JobInboundStatus JobKind = "inbound_status"
	JobPushStatus    JobKind = "push_status"
	JobPullOrders    JobKind = "pull_orders"
	JobProductSync   JobKind = "product_sync"
	JobStockSync     JobKind = "stock_sync"
)

// Каналы очереди задач.
const (
	ChannelInbound  = "inbound"
	ChannelOutbound = "outbound"
	ChannelSync     = "sync"
)

// Job — единица асинхронной работы. Attempt начинается с 0.
type Job struct {
	ID         string          `json:"id"`
	Kind       JobKind         `json:"kind"`
	Channel    string          `json:"channel"`
	Key        string          `json:"key,omitempty"`
	ConfigID   int64           `json:"config_id,omitempty"`
	Attempt    int             `json:"attempt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Validate — минимальная проверка задачи, прочитанной из очереди.
func (j *Job) Validate() error {
	switch {
	case j.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidJob)
	case j.Kind == "":
		return fmt.Errorf("%w: empty kind", ErrInvalidJob)
	case j.Attempt < 0:
		return fmt.Errorf("%w: negative attempt %d", ErrInvalidJob, j.Attempt)
	}
	return nil
}

// StatusUpdatePayload — тело задачи inbound_status.
type StatusUpdatePayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// PushStatusPayload — тело задачи push_status.
type PushStatusPayload struct {
	ExternalID string `json:"external_id"`
}

// PullOrdersPayload — тело задачи pull_orders (пустые границы → окно по умолчанию).
type PullOrdersPayload struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// ProductSyncPayload — тело задач product_sync/stock_sync (пусто → все включённые товары).
type ProductSyncPayload struct {
	ProductIDs []int64 `json:"product_ids,omitempty"`
}
