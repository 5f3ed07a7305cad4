package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/dto"
	"github.com/spec-kit/helpdesk-api/internal/service"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

// CommentsHandler manages ticket thread endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// Create POST /api/tickets/:id/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewFieldRequired("body", "Invalid JSON body")
	}
	if req.Message == "" {
		return apperrors.NewFieldRequired("message", "Message is required")
	}

	comment, err := h.service.Add(c.UserContext(), caller, ticketID, req.Message, req.ParentCommentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCommentResponse(comment))
}
