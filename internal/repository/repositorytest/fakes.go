// Package repositorytest provides in-memory repository implementations for
// service and handler tests. The fakes mirror the Postgres behavior the
// callers rely on: assigned ids, creation timestamps, unique violations and
// pgx.ErrNoRows misses.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/repository"
)

var (
	_ repository.UserRepository        = (*Users)(nil)
	_ repository.TicketRepository      = (*Tickets)(nil)
	_ repository.CommentRepository     = (*Comments)(nil)
	_ repository.TimelineRepository    = (*Timeline)(nil)
	_ repository.IdempotencyRepository = (*Idempotency)(nil)
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
}

// NewUsers builds an empty fake.
func NewUsers() *Users {
	return &Users{byID: make(map[int64]domain.User)}
}

func (f *Users) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.byID[user.ID] = *user
	return nil
}

func (f *Users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (f *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *Users) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

// Comments is an in-memory repository.CommentRepository.
type Comments struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.Comment
}

// NewComments builds an empty fake.
func NewComments() *Comments {
	return &Comments{}
}

func (f *Comments) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	comment.ID = f.nextID
	comment.CreatedAt = time.Now()
	f.items = append(f.items, *comment)
	return nil
}

func (f *Comments) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, comment := range f.items {
		if comment.ID == id {
			c := comment
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *Comments) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Comment
	for _, comment := range f.items {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

func (f *Comments) latestMessage(ticketID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := ""
	var latest int64
	for _, comment := range f.items {
		if comment.TicketID == ticketID && comment.ID >= latest {
			latest = comment.ID
			msg = comment.Message
		}
	}
	return msg
}

// Tickets is an in-memory repository.TicketRepository. It consults the
// comment fake for latest-comment search, like the SQL lateral join does.
type Tickets struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]domain.Ticket
	comments *Comments
}

// NewTickets builds an empty fake.
func NewTickets(comments *Comments) *Tickets {
	return &Tickets{byID: make(map[int64]domain.Ticket), comments: comments}
}

func (f *Tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ticket.ID = f.nextID
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	f.byID[ticket.ID] = *ticket
	return nil
}

func (f *Tickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (f *Tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	all := make([]domain.Ticket, 0, len(f.byID))
	for _, ticket := range f.byID {
		all = append(all, ticket)
	}
	f.mu.Unlock()

	var matched []domain.Ticket
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, ticket := range all {
		if filter.AuthorID != nil && ticket.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssigneeID) {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(ticket.Title) + "\n" + strings.ToLower(ticket.Description)
			if f.comments != nil {
				haystack += "\n" + strings.ToLower(f.comments.latestMessage(ticket.ID))
			}
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, ticket)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *Tickets) UpdateVersioned(_ context.Context, id, expectedVersion int64, status string, assignedTo *int64) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.byID[id]
	if !ok || ticket.Version != expectedVersion {
		return nil, pgx.ErrNoRows
	}
	ticket.Status = status
	ticket.AssignedTo = assignedTo
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	f.byID[id] = ticket
	return &ticket, nil
}

// Timeline is an in-memory repository.TimelineRepository.
type Timeline struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.TimelineEntry
}

// NewTimeline builds an empty fake.
func NewTimeline() *Timeline {
	return &Timeline{}
}

func (f *Timeline) Create(_ context.Context, entry *domain.TimelineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	entry.ID = f.nextID
	entry.CreatedAt = time.Now()
	f.items = append(f.items, *entry)
	return nil
}

func (f *Timeline) ListByTicket(_ context.Context, ticketID int64) ([]domain.TimelineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.TimelineEntry
	for _, entry := range f.items {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// Idempotency is an in-memory repository.IdempotencyRepository. The key
// alone is the primary key; lookups match the full tuple.
type Idempotency struct {
	mu    sync.Mutex
	byKey map[string]domain.IdempotencyRecord
}

// NewIdempotency builds an empty fake.
func NewIdempotency() *Idempotency {
	return &Idempotency{byKey: make(map[string]domain.IdempotencyRecord)}
}

func (f *Idempotency) Get(_ context.Context, key, method, path, bodyHash string) (*domain.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byKey[key]
	if !ok || record.Method != method || record.Path != path || record.BodyHash != bodyHash {
		return nil, pgx.ErrNoRows
	}
	return &record, nil
}

func (f *Idempotency) Insert(_ context.Context, record *domain.IdempotencyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byKey[record.Key]; ok {
		return uniqueViolation("idempotency_keys_pkey")
	}
	record.CreatedAt = time.Now()
	f.byKey[record.Key] = *record
	return nil
}
