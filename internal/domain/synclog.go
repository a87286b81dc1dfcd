package domain

import "time"

// OperationType — тип операции синхронизации.
type OperationType string

const (
	OpProductSync    OperationType = "product_sync"
	OpStockSync      OperationType = "stock_sync"
	OpOrderPull      OperationType = "order_pull"
	OpStatusSync     OperationType = "status_sync"
	OpConnectionTest OperationType = "connection_test"
	OpBulkOperation  OperationType = "bulk_operation"
)

// LogStatus — итог операции.
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogError   LogStatus = "error"
	LogWarning LogStatus = "warning"
	LogInfo    LogStatus = "info"
)

// SyncLogEntry — неизменяемая запись журнала синхронизации.
type SyncLogEntry struct {
	ID           int64         `json:"id"`
	ConfigID     int64         `json:"config_id,omitempty"`
	Operation    OperationType `json:"operation"`
	Status       LogStatus     `json:"status"`
	Message      string        `json:"message"`
	ErrorDetails string        `json:"error_details,omitempty"`
	RecordModel  string        `json:"record_model,omitempty"`
	RecordID     int64         `json:"record_id,omitempty"`
	RecordName   string        `json:"record_name,omitempty"`
	RequestData  string        `json:"request_data,omitempty"`
	ResponseData string        `json:"response_data,omitempty"`
	Duration     time.Duration `json:"duration"`
	Processed    int           `json:"processed"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	CreatedAt    time.Time     `json:"created_at"`
}

// State — failed для ошибок, done для остальных.
func (e *SyncLogEntry) State() string {
	if e.Status == LogError {
		return "failed"
	}
	return "done"
}

// SyncLogFilter — фильтр выборки журнала.
type SyncLogFilter struct {
	ConfigID  int64
	Operation OperationType
	Status    LogStatus
	Limit     int
	Offset    int
}

// SyncLogSummary — сводка по журналу.
type SyncLogSummary struct {
	Total       int64               `json:"total"`
	ByStatus    map[LogStatus]int64 `json:"by_status"`
	Recent24h   int64               `json:"recent_24h"`
	SuccessRate float64             `json:"success_rate"`
}
