package domain

import "time"

// TimelineAction tags what happened in an audit entry.
type TimelineAction string

const (
	ActionCreateTicket TimelineAction = "create_ticket"
	ActionUpdateStatus TimelineAction = "update_status"
	ActionAssignAgent  TimelineAction = "assign_agent"
	ActionAddComment   TimelineAction = "add_comment"
)

// TimelineEntry is an append-only audit record for a ticket. Entries are
// ordered by creation time and never mutated.
type TimelineEntry struct {
	ID        int64
	TicketID  int64
	Action    TimelineAction
	ActorID   *int64
	Meta      map[string]any
	CreatedAt time.Time
}
