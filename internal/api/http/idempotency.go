package http

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/observability"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayHeader         = "X-Idempotent-Replay"
)

// Idempotency intercepts POST requests. A stored (key, method, path,
// body-hash) match replays the recorded status and body verbatim and
// short-circuits the handler; a miss runs the handler and then persists
// whatever response it emitted, error envelopes included. A duplicate-key
// insert loss to a concurrent request with the same key is swallowed: the
// winner's record is authoritative.
func Idempotency(records repository.IdempotencyRepository, logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return apperrors.NewFieldRequired(idempotencyKeyHeader, "Idempotency key required")
		}

		sum := sha256.Sum256(c.Body())
		bodyHash := hex.EncodeToString(sum[:])
		method := c.Method()
		path := c.Path()

		stored, err := records.Get(c.UserContext(), key, method, path, bodyHash)
		if err == nil {
			c.Set(replayHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(stored.StatusCode).SendString(stored.ResponseBody)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if err := c.Next(); err != nil {
			// Render the uniform envelope here so the recorded body matches
			// what the client receives.
			writeDomainError(c, apperrors.ToDomainError(err), logger, metrics)
		}

		var userID *int64
		if principal, ok := auth.PrincipalFromContext(c); ok {
			id := principal.UserID
			userID = &id
		}
		record := &domain.IdempotencyRecord{
			Key:          key,
			UserID:       userID,
			Method:       method,
			Path:         path,
			BodyHash:     bodyHash,
			StatusCode:   c.Response().StatusCode(),
			ResponseBody: string(c.Response().Body()),
		}
		if err := records.Insert(c.UserContext(), record); err != nil {
			if !apperrors.IsUniqueViolation(err) {
				logger.Warn("idempotency record insert failed", zap.Error(err))
			}
		}
		return nil
	}
}
