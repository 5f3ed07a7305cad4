package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// TicketFilter captures listing parameters. Exactly one of AuthorID or
// AssigneeID is set for non-admin callers; admins set neither.
type TicketFilter struct {
	AuthorID   *int64
	AssigneeID *int64
	Search     string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateVersioned applies the update only when the stored version equals
	// expectedVersion, incrementing it by one. Returns pgx.ErrNoRows when the
	// compare-and-swap loses.
	UpdateVersioned(ctx context.Context, id, expectedVersion int64, status string, assignedTo *int64) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, priority, status, assigned_to, sla_deadline, created_at, updated_at, version, author_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, assigned_to, sla_deadline, author_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at, version`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.SLADeadline,
		ticket.AuthorID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.Version)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateVersioned(ctx context.Context, id, expectedVersion int64, status string, assignedTo *int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$1, assigned_to=$2, updated_at=NOW(), version=version+1
        WHERE id=$3 AND version=$4
        RETURNING %s`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, status, assignedTo, id, expectedVersion), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}
	join := ""

	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("t.author_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		join = `
            LEFT JOIN LATERAL (
                SELECT message FROM comments c
                WHERE c.ticket_id = t.id
                ORDER BY c.created_at DESC, c.id DESC
                LIMIT 1
            ) lc ON true`
		args = append(args, "%"+search+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(t.title ILIKE %s OR t.description ILIKE %s OR COALESCE(lc.message, '') ILIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	cols := strings.ReplaceAll(ticketColumns, ", ", ", t.")
	query := fmt.Sprintf(`SELECT t.%s FROM tickets t%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		cols, join, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type ticketScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row ticketScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.SLADeadline,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Version,
		&ticket.AuthorID,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
