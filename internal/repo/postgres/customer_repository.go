package postgres

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository — покупатели на Postgres.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id, external_id, name, phone, email, address, created_at`

func (r *CustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Customer, error) {
	if externalID == "" {
		return nil, nil
	}
	return r.findOne(ctx, `external_id = $1`, externalID)
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	if phone == "" {
		return nil, nil
	}
	return r.findOne(ctx, `phone = $1`, phone)
}

func (r *CustomerRepository) FindByName(ctx context.Context, name string) (*domain.Customer, error) {
	if name == "" {
		return nil, nil
	}
	return r.findOne(ctx, `name = $1`, name)
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (external_id, name, phone, email, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.ExternalID, c.Name, c.Phone, c.Email, c.Address).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET external_id = $2, name = $3, phone = $4, email = $5, address = $6
		WHERE id = $1
	`, c.ID, c.ExternalID, c.Name, c.Phone, c.Email, c.Address)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", domain.ErrNotFound, c.ID)
	}
	return nil
}

// findOne — первое совпадение по порядку создания.
func (r *CustomerRepository) findOne(ctx context.Context, where string, arg any) (*domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+where+` ORDER BY id LIMIT 1`, arg,
	).Scan(&c.ID, &c.ExternalID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
	if errNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return &c, nil
}
