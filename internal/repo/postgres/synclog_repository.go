package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.SyncLogRepository = (*SyncLogRepository)(nil)

// SyncLogRepository — журнал синхронизации на Postgres.
type SyncLogRepository struct {
	pool *pgxpool.Pool
}

func NewSyncLogRepository(pool *pgxpool.Pool) *SyncLogRepository {
	return &SyncLogRepository{pool: pool}
}

func (r *SyncLogRepository) Append(ctx context.Context, e *domain.SyncLogEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sync_logs (
			config_id, operation, status, message, error_details, record_model, record_id, record_name,
			request_data, response_data, duration_ms, processed, succeeded, failed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`,
		nullableID(e.ConfigID), e.Operation, e.Status, e.Message, e.ErrorDetails, e.RecordModel, e.RecordID, e.RecordName,
		e.RequestData, e.ResponseData, e.Duration.Milliseconds(), e.Processed, e.Succeeded, e.Failed,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

// List — новые записи первыми; пустые поля фильтра не ограничивают выборку.
func (r *SyncLogRepository) List(ctx context.Context, f domain.SyncLogFilter) ([]*domain.SyncLogEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(config_id, 0), operation, status, message, error_details, record_model, record_id,
			record_name, request_data, response_data, duration_ms, processed, succeeded, failed, created_at
		FROM sync_logs
		WHERE ($1 = 0 OR config_id = $1)
			AND ($2 = '' OR operation = $2)
			AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`, f.ConfigID, string(f.Operation), string(f.Status), limit, max(f.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("select sync logs: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.SyncLogEntry, 0, limit)
	for rows.Next() {
		var (
			e  domain.SyncLogEntry
			ms int64
		)
		if err := rows.Scan(
			&e.ID, &e.ConfigID, &e.Operation, &e.Status, &e.Message, &e.ErrorDetails, &e.RecordModel, &e.RecordID,
			&e.RecordName, &e.RequestData, &e.ResponseData, &ms, &e.Processed, &e.Succeeded, &e.Failed, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sync log rows: %w", err)
	}
	return out, nil
}

func (r *SyncLogRepository) Summary(ctx context.Context, configID int64, since time.Time) (*domain.SyncLogSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*), count(*) FILTER (WHERE created_at >= $2)
		FROM sync_logs
		WHERE ($1 = 0 OR config_id = $1)
		GROUP BY status
	`, configID, since)
	if err != nil {
		return nil, fmt.Errorf("select sync log summary: %w", err)
	}
	defer rows.Close()

	s := &domain.SyncLogSummary{ByStatus: make(map[domain.LogStatus]int64)}
	for rows.Next() {
		var (
			status        domain.LogStatus
			total, recent int64
		)
		if err := rows.Scan(&status, &total, &recent); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.ByStatus[status] = total
		s.Total += total
		s.Recent24h += recent
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summary rows: %w", err)
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.ByStatus[domain.LogSuccess]) / float64(s.Total) * 100
	}
	return s, nil
}

func (r *SyncLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sync_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete sync logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
