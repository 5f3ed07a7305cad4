package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/dto"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/service"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewFieldRequired("body", "Invalid JSON body")
	}
	if req.Email == "" {
		return apperrors.NewFieldRequired("email", "Email is required")
	}
	if req.Password == "" {
		return apperrors.NewFieldRequired("password", "Password is required")
	}
	if !domain.ValidRole(req.Role) {
		return apperrors.NewFieldRequired("role", "Role is required")
	}

	user, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewFieldRequired("body", "Invalid JSON body")
	}
	if req.Email == "" {
		return apperrors.NewFieldRequired("email", "Email is required")
	}
	if req.Password == "" {
		return apperrors.NewFieldRequired("password", "Password is required")
	}

	user, token, _, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{Token: token, User: dto.NewUserResponse(user)})
}
