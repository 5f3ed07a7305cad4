package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// IdempotencyRepository stores the first response per key.
type IdempotencyRepository interface {
	// Get returns the stored record matching the full tuple, or pgx.ErrNoRows.
	Get(ctx context.Context, key, method, path, bodyHash string) (*domain.IdempotencyRecord, error)
	// Insert persists a record. A duplicate-key failure surfaces as a unique
	// violation the caller may choose to swallow.
	Insert(ctx context.Context, record *domain.IdempotencyRecord) error
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository builds repository.
func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

func (r *idempotencyRepository) Get(ctx context.Context, key, method, path, bodyHash string) (*domain.IdempotencyRecord, error) {
	const query = `
        SELECT key, user_id, method, path, body_hash, status_code, response_body, created_at
        FROM idempotency_keys
        WHERE key=$1 AND method=$2 AND path=$3 AND body_hash=$4`
	var record domain.IdempotencyRecord
	if err := r.pool.QueryRow(ctx, query, key, method, path, bodyHash).Scan(
		&record.Key,
		&record.UserID,
		&record.Method,
		&record.Path,
		&record.BodyHash,
		&record.StatusCode,
		&record.ResponseBody,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *idempotencyRepository) Insert(ctx context.Context, record *domain.IdempotencyRecord) error {
	const query = `
        INSERT INTO idempotency_keys (key, user_id, method, path, body_hash, status_code, response_body)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		record.Key,
		record.UserID,
		record.Method,
		record.Path,
		record.BodyHash,
		record.StatusCode,
		record.ResponseBody,
	).Scan(&record.CreatedAt)
}
