package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DomainError standardizes application errors. Field names the offending
// request field or header when one exists.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Field      string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

// NewFieldRequired reports a missing mandatory field or header.
func NewFieldRequired(field, message string) error {
	return &DomainError{Code: "FIELD_REQUIRED", Message: message, HTTPStatus: http.StatusBadRequest, Field: field}
}

// NewInvalidField reports a present but unusable field value.
func NewInvalidField(field, message string) error {
	return &DomainError{Code: "INVALID_FIELD", Message: message, HTTPStatus: http.StatusBadRequest, Field: field}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewVersionConflict(message string) error {
	return NewDomainError("VERSION_CONFLICT", message, http.StatusConflict)
}

func NewEmailTaken() error {
	return NewDomainError("EMAIL_TAKEN", "Email already registered", http.StatusConflict)
}

func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
}

func NewRateLimited() error {
	return NewDomainError("RATE_LIMIT", "Too many requests", http.StatusTooManyRequests)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Unexpected error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Storage constraint errors are translated at the boundary.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ToDomainError converts generic errors to DomainError. Unknown failures map
// to INTERNAL_SERVER_ERROR without leaking internals.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource").(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Unexpected error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}
