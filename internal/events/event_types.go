package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventCommentAdded        EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   *int64      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload accompanies EventTicketCreated.
type TicketCreatedPayload struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

// StatusChangedPayload accompanies EventTicketStatusChanged.
type StatusChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// AssignedPayload accompanies EventTicketAssigned.
type AssignedPayload struct {
	AssigneeID int64 `json:"assignee_id"`
}

// CommentAddedPayload accompanies EventCommentAdded.
type CommentAddedPayload struct {
	CommentID int64 `json:"comment_id"`
}
