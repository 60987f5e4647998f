package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes exposed in the response envelope.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeAccountLocked        = "ACCOUNT_LOCKED"
	CodeAccountInactive      = "ACCOUNT_INACTIVE"
	CodeSessionInvalid       = "SESSION_INVALID"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeReferentialIntegrity = "REFERENTIAL_INTEGRITY"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
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
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewInvalidCredentials(details map[string]any) error {
	return NewDomainError(CodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized, details)
}

// NewAccountLocked reports a lockout with the whole minutes left to wait.
func NewAccountLocked(retryAfterMinutes int) error {
	return NewDomainError(CodeAccountLocked,
		fmt.Sprintf("account locked, retry in %d minutes", retryAfterMinutes),
		http.StatusLocked,
		map[string]any{"retry_after_minutes": retryAfterMinutes},
	)
}

func NewAccountInactive() error {
	return NewDomainError(CodeAccountInactive, "account is inactive", http.StatusUnauthorized, nil)
}

func NewSessionInvalid() error {
	return NewDomainError(CodeSessionInvalid, "session expired or invalid", http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusBadRequest, details)
}

func NewReferentialIntegrity(message string, details map[string]any) error {
	return NewDomainError(CodeReferentialIntegrity, message, http.StatusBadRequest, details)
}

func NewInvalidTransition(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidTransition, message, http.StatusConflict, details)
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "too many requests, slow down", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Constraint names from the schema mapped to client-facing messages.
var constraintMessages = map[string]string{
	"users_email_key":         "email already registered",
	"groups_name_key":         "group name already exists",
	"roles_name_key":          "role name already exists",
	"assets_code_key":         "asset code already in use",
	"sessions_token_hash_key": "session token collision",
	"users_group_id_fkey":     "group still has users assigned",
	"users_role_fkey":         "role is still assigned to users",
	"tickets_asset_id_fkey":   "asset is referenced by tickets",
}

// ToDomainError converts generic and storage errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewDomainError(CodeNotFound, "resource not found", http.StatusNotFound, nil)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			de := NewConflict(constraintMessage(pgErr.ConstraintName, "resource already exists"), nil).(*DomainError)
			de.Err = err
			return de
		case pgForeignKeyViolation:
			de := NewReferentialIntegrity(constraintMessage(pgErr.ConstraintName, "resource is referenced by other records"), nil).(*DomainError)
			de.Err = err
			return de
		}
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts err for the response layer.
func MapError(err error) error {
	if de := ToDomainError(err); de != nil {
		return de
	}
	return nil
}

func constraintMessage(constraint, fallback string) string {
	if msg, ok := constraintMessages[constraint]; ok {
		return msg
	}
	return fallback
}
