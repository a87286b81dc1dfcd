package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.ConfigRepository = (*ConfigRepository)(nil)

// ConfigRepository — единственная конфигурация маркетплейса (уникальный индекс singleton).
type ConfigRepository struct {
	pool *pgxpool.Pool
}

func NewConfigRepository(pool *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

const configColumns = `
	id, name, base_url, auth_token, auth_header, batch_size, timeout_ms, retry_attempts, active,
	total_products_synced, total_orders_pulled, last_order_pull, last_product_sync,
	connection_status, last_connection_test, last_connection_error, created_at, updated_at`

// Get — активная конфигурация или (nil, nil).
func (r *ConfigRepository) Get(ctx context.Context) (*domain.MarketplaceConfig, error) {
	return r.findOne(ctx, `SELECT `+configColumns+` FROM marketplace_configs WHERE active ORDER BY id LIMIT 1`)
}

func (r *ConfigRepository) Current(ctx context.Context) (*domain.MarketplaceConfig, error) {
	return r.findOne(ctx, `SELECT `+configColumns+` FROM marketplace_configs ORDER BY id LIMIT 1`)
}

func (r *ConfigRepository) GetByID(ctx context.Context, id int64) (*domain.MarketplaceConfig, error) {
	return r.findOne(ctx, `SELECT `+configColumns+` FROM marketplace_configs WHERE id = $1`, id)
}

// Create — вторая конфигурация отклоняется индексом singleton.
func (r *ConfigRepository) Create(ctx context.Context, cfg *domain.MarketplaceConfig) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO marketplace_configs (
			name, base_url, auth_token, auth_header, batch_size, timeout_ms, retry_attempts, active, connection_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		cfg.Name, cfg.BaseURL, cfg.AuthToken, cfg.AuthHeader, cfg.BatchSize, cfg.Timeout.Milliseconds(),
		cfg.RetryAttempts, cfg.Active, connectionStatus(cfg.ConnectionStatus),
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConfigExists
	}
	if err != nil {
		return fmt.Errorf("insert config: %w", err)
	}
	return nil
}

// Update — редактируемые поля; статистика меняется отдельными методами.
func (r *ConfigRepository) Update(ctx context.Context, cfg *domain.MarketplaceConfig) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE marketplace_configs SET
			name = $2, base_url = $3, auth_token = $4, auth_header = $5,
			batch_size = $6, timeout_ms = $7, retry_attempts = $8, active = $9,
			updated_at = now()
		WHERE id = $1
	`, cfg.ID, cfg.Name, cfg.BaseURL, cfg.AuthToken, cfg.AuthHeader,
		cfg.BatchSize, cfg.Timeout.Milliseconds(), cfg.RetryAttempts, cfg.Active)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return notFoundIfEmpty(tag.RowsAffected(), cfg.ID)
}

func (r *ConfigRepository) AddOrdersPulled(ctx context.Context, id int64, n int, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE marketplace_configs
		SET total_orders_pulled = total_orders_pulled + $2, last_order_pull = $3, updated_at = now()
		WHERE id = $1
	`, id, n, at)
	if err != nil {
		return fmt.Errorf("update orders pulled: %w", err)
	}
	return notFoundIfEmpty(tag.RowsAffected(), id)
}

func (r *ConfigRepository) AddProductsSynced(ctx context.Context, id int64, n int, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE marketplace_configs
		SET total_products_synced = total_products_synced + $2, last_product_sync = $3, updated_at = now()
		WHERE id = $1
	`, id, n, at)
	if err != nil {
		return fmt.Errorf("update products synced: %w", err)
	}
	return notFoundIfEmpty(tag.RowsAffected(), id)
}

func (r *ConfigRepository) SetConnectionStatus(ctx context.Context, id int64, status domain.ConnectionStatus, errMsg string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE marketplace_configs
		SET connection_status = $2, last_connection_error = $3, last_connection_test = $4, updated_at = now()
		WHERE id = $1
	`, id, status, errMsg, at)
	if err != nil {
		return fmt.Errorf("update connection status: %w", err)
	}
	return notFoundIfEmpty(tag.RowsAffected(), id)
}

func (r *ConfigRepository) findOne(ctx context.Context, sql string, args ...any) (*domain.MarketplaceConfig, error) {
	cfg, err := scanConfig(r.pool.QueryRow(ctx, sql, args...))
	if errNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select config: %w", err)
	}
	return cfg, nil
}

func scanConfig(row pgx.Row) (*domain.MarketplaceConfig, error) {
	var (
		cfg       domain.MarketplaceConfig
		timeoutMS int64
	)
	if err := row.Scan(
		&cfg.ID, &cfg.Name, &cfg.BaseURL, &cfg.AuthToken, &cfg.AuthHeader, &cfg.BatchSize, &timeoutMS, &cfg.RetryAttempts, &cfg.Active,
		&cfg.TotalProductsSynced, &cfg.TotalOrdersPulled, &cfg.LastOrderPull, &cfg.LastProductSync,
		&cfg.ConnectionStatus, &cfg.LastConnectionTest, &cfg.LastConnectionError, &cfg.CreatedAt, &cfg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutMS) * time.Millisecond
	return &cfg, nil
}

func notFoundIfEmpty(affected, id int64) error {
	if affected == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrConfigNotFound, id)
	}
	return nil
}

func connectionStatus(s domain.ConnectionStatus) domain.ConnectionStatus {
	if s == "" {
		return domain.ConnectionNotTested
	}
	return s
}
