package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestConstructorsMapCodesAndStatuses(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewFieldRequired("title", "Title is required"), "FIELD_REQUIRED", http.StatusBadRequest},
		{NewInvalidField("assigned_to", "assigned_to invalid"), "INVALID_FIELD", http.StatusBadRequest},
		{NewUnauthorized("Authorization required"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("Only admin can assign"), "FORBIDDEN", http.StatusForbidden},
		{NewNotFound("Ticket"), "NOT_FOUND", http.StatusNotFound},
		{NewVersionConflict("Stale version"), "VERSION_CONFLICT", http.StatusConflict},
		{NewEmailTaken(), "EMAIL_TAKEN", http.StatusConflict},
		{NewInvalidCredentials(), "INVALID_CREDENTIALS", http.StatusUnauthorized},
		{NewRateLimited(), "RATE_LIMIT", http.StatusTooManyRequests},
		{NewInternalError(nil), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		require.Equal(t, tc.code, de.Code)
		require.Equal(t, tc.status, de.HTTPStatus)
	}
}

func TestFieldIsCarried(t *testing.T) {
	de := ToDomainError(NewFieldRequired("If-Match", "If-Match header required with version"))
	require.Equal(t, "If-Match", de.Field)
}

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	de := ToDomainError(fmt.Errorf("get ticket: %w", pgx.ErrNoRows))
	require.Equal(t, "NOT_FOUND", de.Code)
	require.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)
	require.Equal(t, "INTERNAL_SERVER_ERROR", de.Code)
	require.ErrorIs(t, de, cause)
	// internals are not leaked to the client-facing message
	require.Equal(t, "Unexpected error", de.Message)
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("boom")))
}
