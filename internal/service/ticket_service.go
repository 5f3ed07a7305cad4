package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

// ListLimitDefault and ListLimitMax bound page sizes.
const (
	ListLimitDefault = 20
	ListLimitMax     = 100
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	timeline   repository.TimelineRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CommentRepo  repository.CommentRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketListQuery describes listing parameters.
type TicketListQuery struct {
	Search string
	Limit  int
	Offset int
}

// TicketUpdateInput carries the PATCH body. Nil fields were absent from the
// request and are left unchanged.
type TicketUpdateInput struct {
	Status     *string
	AssignedTo *int64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		comments:   deps.CommentRepo,
		timeline:   deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// Create creates a ticket owned by the caller. The SLA deadline derives from
// priority, status starts open and version starts at 1. The create_ticket
// timeline entry is a best-effort second write.
func (s *TicketService) Create(ctx context.Context, caller *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		SLADeadline: domain.SLADeadline(input.Priority, s.now()),
		AuthorID:    caller.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.appendTimeline(ctx, ticket.ID, domain.ActionCreateTicket, caller.ID, map[string]any{
		"title":    ticket.Title,
		"priority": string(ticket.Priority),
	}); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  &caller.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: string(ticket.Priority),
		},
	})
	return ticket, nil
}

// List returns one page of tickets visible to the caller, newest first, with
// the offset of the next page when one exists. One extra row is fetched to
// decide whether a next page exists.
func (s *TicketService) List(ctx context.Context, caller *domain.User, query TicketListQuery) ([]domain.Ticket, *int, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = ListLimitDefault
	}
	if limit > ListLimitMax {
		limit = ListLimitMax
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	filter := repository.TicketFilter{
		Search: query.Search,
		Limit:  limit + 1,
		Offset: offset,
	}
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		filter.AssigneeID = &caller.ID
	default:
		filter.AuthorID = &caller.ID
	}

	rows, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	var nextOffset *int
	if len(rows) > limit {
		rows = rows[:limit]
		next := offset + limit
		nextOffset = &next
	}
	return rows, nextOffset, nil
}

// Get returns a ticket with its comments and timeline. A missing ticket and
// one the caller may not view are indistinguishable.
func (s *TicketService) Get(ctx context.Context, caller *domain.User, ticketID int64) (*domain.Ticket, []domain.Comment, []domain.TimelineEntry, error) {
	ticket, err := s.visibleTicket(ctx, caller, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	timeline, err := s.timeline.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return ticket, comments, timeline, nil
}

// Update mutates status and/or assignee under optimistic concurrency. The
// caller presents the version it last observed; a mismatch, whether detected
// up front or lost in the compare-and-swap race, is a VERSION_CONFLICT and
// leaves the ticket untouched.
func (s *TicketService) Update(ctx context.Context, caller *domain.User, ticketID, expectedVersion int64, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.modifiableTicket(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}

	if expectedVersion <= 0 {
		return nil, apperrors.NewFieldRequired("If-Match", "If-Match header required with version")
	}
	if expectedVersion != ticket.Version {
		return nil, apperrors.NewVersionConflict("Stale version")
	}

	if input.AssignedTo != nil && caller.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("Only admin can assign")
	}
	if input.Status != nil && caller.Role == domain.RoleUser {
		if *input.Status != domain.TicketStatusOpen && *input.Status != "closed" {
			return nil, apperrors.NewForbidden("Users can only set basic status")
		}
	}

	newAssigned := ticket.AssignedTo
	if input.AssignedTo != nil {
		exists, err := s.users.Exists(ctx, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NewInvalidField("assigned_to", "assigned_to invalid")
		}
		newAssigned = input.AssignedTo
	}

	newStatus := ticket.Status
	if input.Status != nil {
		newStatus = *input.Status
	}

	updated, err := s.tickets.UpdateVersioned(ctx, ticket.ID, expectedVersion, newStatus, newAssigned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewVersionConflict("Stale version")
		}
		return nil, err
	}

	if input.Status != nil {
		if err := s.appendTimeline(ctx, ticket.ID, domain.ActionUpdateStatus, caller.ID, map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		}); err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  &caller.ID,
			Payload:  events.StatusChangedPayload{From: ticket.Status, To: newStatus},
		})
	}
	if input.AssignedTo != nil {
		if err := s.appendTimeline(ctx, ticket.ID, domain.ActionAssignAgent, caller.ID, map[string]any{
			"from": ticket.AssignedTo,
			"to":   *input.AssignedTo,
		}); err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			ActorID:  &caller.ID,
			Payload:  events.AssignedPayload{AssigneeID: *input.AssignedTo},
		})
	}

	return updated, nil
}

func (s *TicketService) visibleTicket(ctx context.Context, caller *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket")
		}
		return nil, err
	}
	if !ticket.CanView(caller) {
		return nil, apperrors.NewNotFound("Ticket")
	}
	return ticket, nil
}

// modifiableTicket is the write-side counterpart of visibleTicket: agents may
// update tickets that are not assigned to them even though they cannot read
// them back.
func (s *TicketService) modifiableTicket(ctx context.Context, caller *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket")
		}
		return nil, err
	}
	if !ticket.CanModify(caller) {
		return nil, apperrors.NewNotFound("Ticket")
	}
	return ticket, nil
}

func (s *TicketService) appendTimeline(ctx context.Context, ticketID int64, action domain.TimelineAction, actorID int64, meta map[string]any) error {
	entry := &domain.TimelineEntry{
		TicketID: ticketID,
		Action:   action,
		ActorID:  &actorID,
		Meta:     meta,
	}
	return s.timeline.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
