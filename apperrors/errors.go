// Package apperrors defines the error kinds every domain operation reports.
//
// Operations never return bare booleans: a failure is always an *Error carrying
// a Kind, so callers (HTTP handlers, workers) can branch on what went wrong with
// errors.Is(err, apperrors.ErrTournamentFull) or Is(err, apperrors.KindNotFound).
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindTournamentFull    Kind = "tournament_full"
	KindAlreadyRegistered Kind = "already_registered"
	KindAlreadySubmitted  Kind = "already_submitted"
	KindNotJoinable       Kind = "not_joinable"
	KindNotFound          Kind = "not_found"
	KindInvalidCurrency   Kind = "invalid_currency"
	KindExternalService   Kind = "external_service_failure"
	KindInternal          Kind = "internal_error"
)

// Sentinels for errors.Is comparisons.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrTournamentFull    = &Error{Kind: KindTournamentFull}
	ErrAlreadyRegistered = &Error{Kind: KindAlreadyRegistered}
	ErrAlreadySubmitted  = &Error{Kind: KindAlreadySubmitted}
	ErrNotJoinable       = &Error{Kind: KindNotJoinable}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidCurrency   = &Error{Kind: KindInvalidCurrency}
	ErrExternalService   = &Error{Kind: KindExternalService}
	ErrInternal          = &Error{Kind: KindInternal}
)

// Error is the discriminated failure returned by services and stores.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// KindOf returns the kind of err, or KindInternal for errors that carry none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind onto the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidCurrency:
		return http.StatusBadRequest
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	case KindTournamentFull, KindAlreadyRegistered, KindAlreadySubmitted:
		return http.StatusConflict
	case KindNotJoinable:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
