package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload for PATCH. Absent fields stay unchanged.
type UpdateTicketRequest struct {
	Status     *string `json:"status"`
	AssignedTo *int64  `json:"assigned_to"`
}

// TicketResponse is the wire shape of a ticket. SLABreached is derived at
// read time from the deadline, never stored.
type TicketResponse struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      string                `json:"status"`
	AssignedTo  *int64                `json:"assigned_to"`
	SLADeadline time.Time             `json:"sla_deadline"`
	SLABreached bool                  `json:"sla_breached"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Version     int64                 `json:"version"`
	AuthorID    int64                 `json:"author_id"`
}

// TicketListResponse is one page of tickets. NextOffset is null on the last
// page.
type TicketListResponse struct {
	Items      []TicketResponse `json:"items"`
	NextOffset *int             `json:"next_offset"`
}

// TicketDetailResponse bundles a ticket with its thread and audit trail.
type TicketDetailResponse struct {
	Ticket   TicketResponse     `json:"ticket"`
	Comments []CommentResponse  `json:"comments"`
	Timeline []TimelineResponse `json:"timeline"`
}

// TimelineResponse is the wire shape of an audit entry.
type TimelineResponse struct {
	ID        int64          `json:"id"`
	TicketID  int64          `json:"ticket_id"`
	Action    string         `json:"action"`
	ActorID   *int64         `json:"actor_id"`
	Meta      map[string]any `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTicketResponse maps a domain ticket, computing sla_breached at now.
func NewTicketResponse(ticket *domain.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		AssignedTo:  ticket.AssignedTo,
		SLADeadline: ticket.SLADeadline,
		SLABreached: ticket.SLABreached(now),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		Version:     ticket.Version,
		AuthorID:    ticket.AuthorID,
	}
}

// NewTimelineResponse maps a domain timeline entry.
func NewTimelineResponse(entry *domain.TimelineEntry) TimelineResponse {
	return TimelineResponse{
		ID:        entry.ID,
		TicketID:  entry.TicketID,
		Action:    string(entry.Action),
		ActorID:   entry.ActorID,
		Meta:      entry.Meta,
		CreatedAt: entry.CreatedAt,
	}
}
