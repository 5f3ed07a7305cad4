package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// TimelineRepository stores append-only audit entries.
type TimelineRepository interface {
	Create(ctx context.Context, entry *domain.TimelineEntry) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TimelineEntry, error)
}

type timelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository builds repository.
func NewTimelineRepository(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepository{pool: pool}
}

func (r *timelineRepository) Create(ctx context.Context, entry *domain.TimelineEntry) error {
	const query = `
        INSERT INTO timeline (ticket_id, action, actor_id, meta)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.Action,
		entry.ActorID,
		entry.Meta,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *timelineRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TimelineEntry, error) {
	const query = `
        SELECT id, ticket_id, action, actor_id, meta, created_at
        FROM timeline WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Action,
			&entry.ActorID,
			&entry.Meta,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
