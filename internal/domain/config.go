package domain

import (
	"fmt"
	"strings"
	"time"
)

// Значения конфигурации маркетплейса по умолчанию.
const (
	DefaultBaseURL       = "https://supplier-integrations.cartona.com/api/v1/"
	DefaultAuthHeader    = "AuthorizationToken"
	DefaultBatchSize     = 100
	MaxBatchSize         = 1000
	DefaultRetryAttempts = 3
	DefaultTimeout       = 30 * time.Second
)

// ConnectionStatus — результат последней проверки соединения.
type ConnectionStatus string

const (
	ConnectionNotTested ConnectionStatus = "not_tested"
	ConnectionOK        ConnectionStatus = "connected"
	ConnectionError     ConnectionStatus = "error"
)

// MarketplaceConfig — единственная активная конфигурация интеграции.
// Во время синхронизации не изменяется и передаётся явно в каждый компонент.
type MarketplaceConfig struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	BaseURL       string        `json:"base_url"`
	AuthToken     string        `json:"-"`
	AuthHeader    string        `json:"auth_header"`
	BatchSize     int           `json:"batch_size"`
	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	Active        bool          `json:"active"`

	TotalProductsSynced int64            `json:"total_products_synced"`
	TotalOrdersPulled   int64            `json:"total_orders_pulled"`
	LastOrderPull       *time.Time       `json:"last_order_pull,omitempty"`
	LastProductSync     *time.Time       `json:"last_product_sync,omitempty"`
	ConnectionStatus    ConnectionStatus `json:"connection_status"`
	LastConnectionTest  *time.Time       `json:"last_connection_test,omitempty"`
	LastConnectionError string           `json:"last_connection_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyDefaults — заполняет пустые поля значениями по умолчанию.
func (c *MarketplaceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "Cartona"
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.AuthHeader == "" {
		c.AuthHeader = DefaultAuthHeader
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ConnectionStatus == "" {
		c.ConnectionStatus = ConnectionNotTested
	}
}

// Validate — проверка и нормализация полей (base_url всегда заканчивается на "/").
func (c *MarketplaceConfig) Validate() error {
	base := strings.TrimSpace(c.BaseURL)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("%w: base_url must start with http:// or https://", ErrInvalidConfig)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	c.BaseURL = base

	if strings.TrimSpace(c.AuthToken) == "" {
		return fmt.Errorf("%w: auth token is required", ErrInvalidConfig)
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch_size must be between 1 and %d", ErrInvalidConfig, MaxBatchSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry_attempts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// MaxAttempts — общее число попыток задачи (первая + повторы).
func (c *MarketplaceConfig) MaxAttempts() int {
	if c == nil || c.RetryAttempts < 0 {
		return 1
	}
	return c.RetryAttempts + 1
}
