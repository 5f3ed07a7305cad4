package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/observability"
	"github.com/spec-kit/helpdesk-api/internal/ratelimit"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

// MiddlewareConfig bundles dependencies for the global middleware chain.
type MiddlewareConfig struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Timeout time.Duration
	Tokens  *auth.TokenManager
	Limiter ratelimit.Limiter
}

// RegisterMiddlewares attaches the global chain: timeout, request logging,
// uniform error responder, optional auth, rate limiting. The error responder
// sits inside the logger so logged statuses reflect the rendered envelope;
// optional auth runs before the limiter so requests can be keyed by user id.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	app.Use(auth.Optional(cfg.Tokens))
	app.Use(rateLimitMiddleware(cfg.Limiter))
}

// NotFoundHandler terminates unmatched routes with the uniform envelope.
func NotFoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{"code": "NOT_FOUND", "message": "Not found"},
		})
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				writeDomainError(c, apperrors.ToDomainError(err), logger, metrics)
				err = nil
			}
		}()
		return c.Next()
	}
}

func rateLimitMiddleware(limiter ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if principal, ok := auth.PrincipalFromContext(c); ok {
			key = fmt.Sprintf("u:%d", principal.UserID)
		}
		allowed, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !allowed {
			return apperrors.NewRateLimited()
		}
		return c.Next()
	}
}

// writeDomainError renders the uniform envelope {error:{code,message,field?}}
// and records the failure.
func writeDomainError(c *fiber.Ctx, domainErr *apperrors.DomainError, logger *zap.Logger, metrics *observability.Metrics) {
	metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	inner := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if domainErr.Field != "" {
		inner["field"] = domainErr.Field
	}
	if domainErr.HTTPStatus >= 500 {
		logger.Error("request failed", zap.Error(domainErr))
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"error": inner})
}
