package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Проверка, что OrderRepository удовлетворяет интерфейсу OrderRepository.
var _ ports.OrderRepository = (*OrderRepository)(nil)

// OrderRepository — реализация репозитория заказов на Postgres (pgxpool).
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository - конструктор OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository { return &OrderRepository{pool: pool} }

const orderColumns = `
	id, name, external_id, config_id, customer_id, state, marketplace_status,
	sync_status, sync_error, sync_error_details, synced_at, delivered_by, payment_method,
	retailer_otp, cancellation_reason, order_number, origin, currency, amount_total::text,
	invoiced, locked, ordered_at, created_at, updated_at`

// Create — транзакционно сохраняет заказ, строки и отгрузки.
// Любая ошибка откатывает всё: заказ без строк не виден другим читателям.
func (r *OrderRepository) Create(ctx context.Context, order *domain.LedgerOrder) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", domain.ErrInvalidOrder)
	}
	if len(order.Lines) == 0 {
		return domain.ErrNoLines
	}

	transaction, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, transaction)

	// 1) orders — шапка заказа.
	err = transaction.QueryRow(ctx, `
		INSERT INTO orders (
			name, external_id, config_id, customer_id, state, marketplace_status,
			sync_status, sync_error, sync_error_details, synced_at, delivered_by, payment_method,
			retailer_otp, cancellation_reason, order_number, origin, currency, amount_total,
			invoiced, locked, ordered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18::numeric, $19, $20, $21)
		RETURNING id, created_at, updated_at
	`,
		order.Name, order.ExternalID, nullableID(order.ConfigID), order.CustomerID, order.State, order.MarketplaceStatus,
		order.SyncStatus, order.SyncError, order.SyncErrorDetails, order.SyncedAt, order.DeliveredBy, order.PaymentMethod,
		order.RetailerOTP, order.CancellationReason, order.OrderNumber, order.Origin, order.Currency, numeric(order.AmountTotal),
		order.Invoiced, order.Locked, orderedAt(order.OrderedAt),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateExternalID, order.ExternalID)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	// 2) Имя по id, если не задано.
	if order.Name == "" {
		order.Name = fmt.Sprintf("SO%05d", order.ID)
		if _, err = transaction.Exec(ctx, `UPDATE orders SET name = $2 WHERE id = $1`, order.ID, order.Name); err != nil {
			return fmt.Errorf("set order name: %w", err)
		}
	}

	// 3) order_lines — через COPY.
	if err = copyLines(ctx, transaction, order); err != nil {
		return err
	}

	// 4) pickings/moves.
	if err = savePickings(ctx, transaction, order); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get — заказ по id. Если не нашли, возвращает (nil, nil).
func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.LedgerOrder, error) {
	orders, err := r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

// FindByExternalID — все заказы с этим external id, от раннего к позднему.
func (r *OrderRepository) FindByExternalID(ctx context.Context, externalID string) ([]*domain.LedgerOrder, error) {
	if externalID == "" {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE external_id = $1
		ORDER BY created_at, id
	`, externalID)
}

// Update — шапка заказа и отгрузки (новые вставляются, существующие обновляются) в одной транзакции.
func (r *OrderRepository) Update(ctx context.Context, order *domain.LedgerOrder) error {
	return r.Complete(ctx, order, nil)
}

// Complete — списание остатков и запись заказа в одной транзакции.
// Повтор после ошибки не спишет остаток дважды: без коммита ничего не меняется.
func (r *OrderRepository) Complete(ctx context.Context, order *domain.LedgerOrder, stock map[int64]float64) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", domain.ErrInvalidOrder)
	}

	transaction, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, transaction)

	for productID, delta := range stock {
		tag, err := transaction.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, productID, delta)
		if err != nil {
			return fmt.Errorf("adjust stock product %d: %w", productID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
		}
	}

	if err = updateOrder(ctx, transaction, order); err != nil {
		return err
	}
	if err = savePickings(ctx, transaction, order); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func updateOrder(ctx context.Context, q querier, order *domain.LedgerOrder) error {
	tag, err := q.Exec(ctx, `
		UPDATE orders SET
			customer_id = $2,
			state = $3,
			marketplace_status = $4,
			sync_status = $5,
			sync_error = $6,
			sync_error_details = $7,
			synced_at = $8,
			delivered_by = $9,
			payment_method = $10,
			retailer_otp = $11,
			cancellation_reason = $12,
			order_number = $13,
			origin = $14,
			amount_total = $15::numeric,
			invoiced = $16,
			locked = $17,
			updated_at = now()
		WHERE id = $1
	`,
		order.ID, order.CustomerID, order.State, order.MarketplaceStatus,
		order.SyncStatus, order.SyncError, order.SyncErrorDetails, order.SyncedAt,
		order.DeliveredBy, order.PaymentMethod, order.RetailerOTP, order.CancellationReason,
		order.OrderNumber, order.Origin, numeric(order.AmountTotal), order.Invoiced, order.Locked,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, order.ID)
	}
	return nil
}

// UpdateSync — только поля синхронизации; nil-поля SyncUpdate не трогаются.
func (r *OrderRepository) UpdateSync(ctx context.Context, id int64, upd domain.SyncUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			sync_status = $2,
			sync_error = $3,
			sync_error_details = $4,
			marketplace_status = COALESCE($5::text, marketplace_status),
			synced_at = COALESCE($6::timestamptz, synced_at),
			updated_at = now()
		WHERE id = $1
	`, id, upd.Status, upd.Error, upd.ErrorDetails, upd.MarketplaceStatus, upd.SyncedAt)
	if err != nil {
		return fmt.Errorf("update order sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	return nil
}

// Delete — удаляет заказ; строки и отгрузки удаляются каскадно.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// List — постраничный список заказов (новые первыми).
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]*domain.LedgerOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
}

// LastN — последние N заказов маркетплейса (для прогрева кэша).
func (r *OrderRepository) LastN(ctx context.Context, n int) ([]*domain.LedgerOrder, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE external_id <> ''
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, n)
}

// query — выборка шапок и догрузка строк/отгрузок/движений тремя запросами на страницу,
// склейка в памяти с сохранением порядка базового SELECT.
func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.LedgerOrder, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []*domain.LedgerOrder
		ids    []int64
	)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := loadChildren(ctx, r.pool, orders, ids); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.LedgerOrder, error) {
	var (
		order    domain.LedgerOrder
		configID *int64
		amount   string
	)
	if err := row.Scan(
		&order.ID, &order.Name, &order.ExternalID, &configID, &order.CustomerID, &order.State, &order.MarketplaceStatus,
		&order.SyncStatus, &order.SyncError, &order.SyncErrorDetails, &order.SyncedAt, &order.DeliveredBy, &order.PaymentMethod,
		&order.RetailerOTP, &order.CancellationReason, &order.OrderNumber, &order.Origin, &order.Currency, &amount,
		&order.Invoiced, &order.Locked, &order.OrderedAt, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if configID != nil {
		order.ConfigID = *configID
	}
	total, err := parseDecimal(amount)
	if err != nil {
		return nil, err
	}
	order.AmountTotal = total
	return &order, nil
}

func loadChildren(ctx context.Context, q querier, orders []*domain.LedgerOrder, ids []int64) error {
	byID := make(map[int64]*domain.LedgerOrder, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}

	// 1) Строки.
	lRows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, external_line_id, description, quantity,
			unit_price::text, total::text, supplier_discount::text, marketplace_discount::text, comment
		FROM order_lines
		WHERE order_id = ANY($1::bigint[])
		ORDER BY order_id, id
	`, ids)
	if err != nil {
		return fmt.Errorf("select lines: %w", err)
	}
	for lRows.Next() {
		var (
			line                          domain.LedgerLine
			price, total, supDisc, mpDisc string
		)
		if err := lRows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ExternalLineID, &line.Description, &line.Quantity,
			&price, &total, &supDisc, &mpDisc, &line.Comment,
		); err != nil {
			lRows.Close()
			return fmt.Errorf("scan line: %w", err)
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{{&line.UnitPrice, price}, {&line.Total, total}, {&line.SupplierDiscount, supDisc}, {&line.MarketplaceDiscount, mpDisc}} {
			d, err := parseDecimal(f.src)
			if err != nil {
				lRows.Close()
				return err
			}
			*f.dst = d
		}
		if o := byID[line.OrderID]; o != nil {
			o.Lines = append(o.Lines, line)
		}
	}
	if err := lRows.Err(); err != nil {
		lRows.Close()
		return fmt.Errorf("lines rows: %w", err)
	}
	lRows.Close()

	// 2) Отгрузки.
	pickingOwner := make(map[int64]*domain.LedgerOrder)
	var pickingIDs []int64
	pRows, err := q.Query(ctx, `
		SELECT id, order_id, state
		FROM pickings
		WHERE order_id = ANY($1::bigint[])
		ORDER BY order_id, id
	`, ids)
	if err != nil {
		return fmt.Errorf("select pickings: %w", err)
	}
	for pRows.Next() {
		var p domain.Picking
		if err := pRows.Scan(&p.ID, &p.OrderID, &p.State); err != nil {
			pRows.Close()
			return fmt.Errorf("scan picking: %w", err)
		}
		if o := byID[p.OrderID]; o != nil {
			o.Pickings = append(o.Pickings, p)
			pickingOwner[p.ID] = o
			pickingIDs = append(pickingIDs, p.ID)
		}
	}
	if err := pRows.Err(); err != nil {
		pRows.Close()
		return fmt.Errorf("pickings rows: %w", err)
	}
	pRows.Close()
	if len(pickingIDs) == 0 {
		return nil
	}

	// 3) Движения.
	mRows, err := q.Query(ctx, `
		SELECT id, picking_id, product_id, demand, done, state
		FROM moves
		WHERE picking_id = ANY($1::bigint[])
		ORDER BY picking_id, id
	`, pickingIDs)
	if err != nil {
		return fmt.Errorf("select moves: %w", err)
	}
	defer mRows.Close()
	for mRows.Next() {
		var m domain.Move
		if err := mRows.Scan(&m.ID, &m.PickingID, &m.ProductID, &m.Demand, &m.Done, &m.State); err != nil {
			return fmt.Errorf("scan move: %w", err)
		}
		o := pickingOwner[m.PickingID]
		if o == nil {
			continue
		}
		for i := range o.Pickings {
			if o.Pickings[i].ID == m.PickingID {
				o.Pickings[i].Moves = append(o.Pickings[i].Moves, m)
				break
			}
		}
	}
	if err := mRows.Err(); err != nil {
		return fmt.Errorf("moves rows: %w", err)
	}
	return nil
}

// copyLines — вставка строк через COPY (CopyFromRows), затем чтение присвоенных id в порядке вставки.
func copyLines(ctx context.Context, tx pgx.Tx, order *domain.LedgerOrder) error {
	rows := make([][]any, 0, len(order.Lines))
	for _, l := range order.Lines {
		rows = append(rows, []any{
			order.ID, l.ProductID, l.ExternalLineID, l.Description, l.Quantity,
			numeric(l.UnitPrice), numeric(l.Total), numeric(l.SupplierDiscount), numeric(l.MarketplaceDiscount), l.Comment,
		})
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"order_lines"},
		[]string{
			"order_id", "product_id", "external_line_id", "description", "quantity",
			"unit_price", "total", "supplier_discount", "marketplace_discount", "comment",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy lines: %w", err)
	}

	idRows, err := tx.Query(ctx, `SELECT id FROM order_lines WHERE order_id = $1 ORDER BY id`, order.ID)
	if err != nil {
		return fmt.Errorf("select line ids: %w", err)
	}
	defer idRows.Close()
	for i := 0; idRows.Next(); i++ {
		if i >= len(order.Lines) {
			break
		}
		if err := idRows.Scan(&order.Lines[i].ID); err != nil {
			return fmt.Errorf("scan line id: %w", err)
		}
		order.Lines[i].OrderID = order.ID
	}
	return idRows.Err()
}

// savePickings — вставка новых (ID == 0) и обновление существующих отгрузок и движений.
func savePickings(ctx context.Context, q querier, order *domain.LedgerOrder) error {
	for i := range order.Pickings {
		p := &order.Pickings[i]
		p.OrderID = order.ID
		if p.ID == 0 {
			if err := q.QueryRow(ctx,
				`INSERT INTO pickings (order_id, state) VALUES ($1, $2) RETURNING id`,
				order.ID, p.State,
			).Scan(&p.ID); err != nil {
				return fmt.Errorf("insert picking: %w", err)
			}
		} else if _, err := q.Exec(ctx,
			`UPDATE pickings SET state = $2 WHERE id = $1 AND order_id = $3`,
			p.ID, p.State, order.ID,
		); err != nil {
			return fmt.Errorf("update picking: %w", err)
		}

		for j := range p.Moves {
			m := &p.Moves[j]
			m.PickingID = p.ID
			if m.ID == 0 {
				if err := q.QueryRow(ctx, `
					INSERT INTO moves (picking_id, product_id, demand, done, state)
					VALUES ($1, $2, $3, $4, $5) RETURNING id
				`, p.ID, m.ProductID, m.Demand, m.Done, m.State).Scan(&m.ID); err != nil {
					return fmt.Errorf("insert move: %w", err)
				}
				continue
			}
			if _, err := q.Exec(ctx,
				`UPDATE moves SET demand = $2, done = $3, state = $4 WHERE id = $1`,
				m.ID, m.Demand, m.Done, m.State,
			); err != nil {
				return fmt.Errorf("update move: %w", err)
			}
		}
	}
	return nil
}

func orderedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
