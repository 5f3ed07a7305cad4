package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

// CommentService coordinates threaded comment creation.
type CommentService struct {
	tickets    *TicketService
	comments   repository.CommentRepository
	timeline   repository.TimelineRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(tickets *TicketService, comments repository.CommentRepository, timeline repository.TimelineRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{
		tickets:    tickets,
		comments:   comments,
		timeline:   timeline,
		dispatcher: dispatcher,
	}
}

// Add creates a comment on a visible ticket. A parent comment, when given,
// must exist and belong to the same ticket. The add_comment timeline entry
// references the new comment id.
func (s *CommentService) Add(ctx context.Context, caller *domain.User, ticketID int64, message string, parentCommentID *int64) (*domain.Comment, error) {
	ticket, err := s.tickets.visibleTicket(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}

	if parentCommentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentCommentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewInvalidField("parent_comment_id", "Invalid parent_comment_id")
			}
			return nil, err
		}
		if parent.TicketID != ticket.ID {
			return nil, apperrors.NewInvalidField("parent_comment_id", "Invalid parent_comment_id")
		}
	}

	comment := &domain.Comment{
		TicketID:        ticket.ID,
		Message:         message,
		AuthorID:        caller.ID,
		ParentCommentID: parentCommentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.tickets.appendTimeline(ctx, ticket.ID, domain.ActionAddComment, caller.ID, map[string]any{
		"comment_id": comment.ID,
	}); err != nil {
		return nil, err
	}

	s.tickets.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  &caller.ID,
		Payload:  events.CommentAddedPayload{CommentID: comment.ID},
	})
	return comment, nil
}
