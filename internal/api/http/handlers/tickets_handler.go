package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/dto"
	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/service"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewFieldRequired("body", "Invalid JSON body")
	}
	if req.Title == "" {
		return apperrors.NewFieldRequired("title", "Title is required")
	}
	if req.Description == "" {
		return apperrors.NewFieldRequired("description", "Description is required")
	}
	if !domain.ValidPriority(req.Priority) {
		return apperrors.NewFieldRequired("priority", "Priority is required")
	}

	ticket, err := h.service.Create(c.UserContext(), caller, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket, time.Now()))
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	query := service.TicketListQuery{
		Search: c.Query("search"),
		Limit:  parseInt(c.Query("limit"), service.ListLimitDefault),
		Offset: parseInt(c.Query("offset"), 0),
	}

	tickets, nextOffset, err := h.service.List(c.UserContext(), caller, query)
	if err != nil {
		return err
	}

	now := time.Now()
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i], now))
	}
	return c.JSON(dto.TicketListResponse{Items: items, NextOffset: nextOffset})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	ticket, comments, timeline, err := h.service.Get(c.UserContext(), caller, ticketID)
	if err != nil {
		return err
	}

	commentItems := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		commentItems = append(commentItems, dto.NewCommentResponse(&comments[i]))
	}
	timelineItems := make([]dto.TimelineResponse, 0, len(timeline))
	for i := range timeline {
		timelineItems = append(timelineItems, dto.NewTimelineResponse(&timeline[i]))
	}
	return c.JSON(dto.TicketDetailResponse{
		Ticket:   dto.NewTicketResponse(ticket, time.Now()),
		Comments: commentItems,
		Timeline: timelineItems,
	})
}

// Update PATCH /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewFieldRequired("body", "Invalid JSON body")
	}

	// Absent or non-numeric If-Match parses to zero; the service rejects it.
	expectedVersion, _ := strconv.ParseInt(c.Get(fiber.HeaderIfMatch), 10, 64)

	ticket, err := h.service.Update(c.UserContext(), caller, ticketID, expectedVersion, service.TicketUpdateInput{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket, time.Now()))
}

func callerFromContext(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Authorization required")
	}
	return &domain.User{
		ID:    principal.UserID,
		Email: principal.Email,
		Role:  principal.Role,
	}, nil
}

// parseTicketID treats a malformed id as a ticket that does not exist.
func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("Ticket")
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
