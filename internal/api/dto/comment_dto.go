package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message         string `json:"message"`
	ParentCommentID *int64 `json:"parent_comment_id"`
}

// CommentResponse is the wire shape of a comment.
type CommentResponse struct {
	ID              int64     `json:"id"`
	TicketID        int64     `json:"ticket_id"`
	Message         string    `json:"message"`
	AuthorID        int64     `json:"author_id"`
	ParentCommentID *int64    `json:"parent_comment_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:              comment.ID,
		TicketID:        comment.TicketID,
		Message:         comment.Message,
		AuthorID:        comment.AuthorID,
		ParentCommentID: comment.ParentCommentID,
		CreatedAt:       comment.CreatedAt,
	}
}
