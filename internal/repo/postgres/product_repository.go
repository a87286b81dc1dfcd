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

var _ ports.ProductRepository = (*ProductRepository)(nil)

// ProductRepository — товары поставщика на Postgres.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, external_id, sku, name, price::text, stock, sync_enabled, sync_status, sync_error, last_synced_at`

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *ProductRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Product, error) {
	if externalID == "" {
		return nil, nil
	}
	return r.findOne(ctx, `external_id = $1`, externalID)
}

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	if sku == "" {
		return nil, nil
	}
	return r.findOne(ctx, `sku = $1`, sku)
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (external_id, sku, name, price, stock, sync_enabled, sync_status, sync_error, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.ExternalID, p.SKU, p.Name, numeric(p.Price), p.Stock, p.SyncEnabled, syncStatus(p.SyncStatus), p.SyncError, p.LastSyncedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET
			external_id = $2, sku = $3, name = $4, price = $5, stock = $6,
			sync_enabled = $7, sync_status = $8, sync_error = $9, last_synced_at = $10
		WHERE id = $1
	`, p.ID, p.ExternalID, p.SKU, p.Name, numeric(p.Price), p.Stock, p.SyncEnabled, syncStatus(p.SyncStatus), p.SyncError, p.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, p.ID)
	}
	return nil
}

// ListSyncEnabled — пустой ids → все включённые товары с external id.
func (r *ProductRepository) ListSyncEnabled(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sync_enabled AND external_id <> ''
			AND (cardinality($1::bigint[]) = 0 OR id = ANY($1::bigint[]))
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products rows: %w", err)
	}
	return out, nil
}

// UpdateSyncState — last_synced_at меняется только при успешной синхронизации.
func (r *ProductRepository) UpdateSyncState(ctx context.Context, ids []int64, status domain.SyncStatus, syncErr string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE products SET
			sync_status = $2,
			sync_error = $3,
			last_synced_at = CASE WHEN $2 = 'synced' THEN $4 ELSE last_synced_at END
		WHERE id = ANY($1::bigint[])
	`, ids, status, syncErr, at)
	if err != nil {
		return fmt.Errorf("update products sync state: %w", err)
	}
	return nil
}

func (r *ProductRepository) findOne(ctx context.Context, where string, arg any) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+where+` ORDER BY id LIMIT 1`, arg))
	if errNoRows(err) {
		return nil, nil
	}
	return p, err
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.ExternalID, &p.SKU, &p.Name, &price, &p.Stock,
		&p.SyncEnabled, &p.SyncStatus, &p.SyncError, &p.LastSyncedAt); err != nil {
		if errNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	d, err := parseDecimal(price)
	if err != nil {
		return nil, err
	}
	p.Price = d
	return &p, nil
}

func syncStatus(s domain.SyncStatus) domain.SyncStatus {
	if s == "" {
		return domain.SyncNotSynced
	}
	return s
}
