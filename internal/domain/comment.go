package domain

import "time"

// Comment is a message on a ticket thread. Comments form a tree through
// ParentCommentID; a parent must belong to the same ticket. Comments are
// never mutated or deleted.
type Comment struct {
	ID              int64
	TicketID        int64
	Message         string
	AuthorID        int64
	ParentCommentID *int64
	CreatedAt       time.Time
}
