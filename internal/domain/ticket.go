package domain

import "time"

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityLow    TicketPriority = "Low"
)

// ValidPriority reports whether the value is one of the three priorities.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// TicketStatusOpen is the status assigned to newly created tickets. Status is
// otherwise a free-form string.
const TicketStatusOpen = "open"

// Ticket is the aggregate for support requests. Version increments by exactly
// one on every successful mutation; all mutations are compare-and-swap on it.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Priority    TicketPriority
	Status      string
	AssignedTo  *int64
	SLADeadline time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	AuthorID    int64
}

// SLABreached reports whether the deadline has passed at the given instant.
// Always computed at read time, never stored.
func (t *Ticket) SLABreached(now time.Time) bool {
	return t.SLADeadline.Before(now)
}

// SLADeadline derives the resolution deadline for a priority.
func SLADeadline(priority TicketPriority, now time.Time) time.Time {
	var hours time.Duration
	switch priority {
	case TicketPriorityHigh:
		hours = 24
	case TicketPriorityMedium:
		hours = 48
	default:
		hours = 72
	}
	return now.Add(hours * time.Hour)
}

// CanView is the role-dependent visibility predicate: admins see every ticket,
// agents see tickets assigned to them, users see tickets they authored.
func (t *Ticket) CanView(user *User) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case RoleAdmin:
		return true
	case RoleAgent:
		return t.AssignedTo != nil && *t.AssignedTo == user.ID
	default:
		return t.AuthorID == user.ID
	}
}

// CanModify gates updates. Staff work any ticket regardless of assignment;
// plain users only touch tickets they authored.
func (t *Ticket) CanModify(user *User) bool {
	if user == nil {
		return false
	}
	if user.Role == RoleAdmin || user.Role == RoleAgent {
		return true
	}
	return t.AuthorID == user.ID
}
