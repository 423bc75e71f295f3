// Package gwerrors is the closed error taxonomy surfaced to the router's
// callers (HTTP handler and CLI), per SPEC_FULL.md §7. Adapter-level errors
// never propagate this far raw — they are classified into a
// domain.ErrorKind and folded into attempt records first.
package gwerrors

import (
	"fmt"

	"github.com/driftgate/gateway/internal/domain"
)

// Kind is the stable machine-readable tag attached to every error this
// package produces; the HTTP layer maps it to a status code and the CLI
// maps it to an exit code.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindProviderNotConfigured Kind = "provider_not_configured"
	KindNoAvailableProvider  Kind = "no_available_provider"
	KindAllProvidersFailed   Kind = "all_providers_failed"
	KindDeadlineExceeded     Kind = "deadline_exceeded"
	KindCredentialCorrupt    Kind = "credential_corrupt"
	KindPersistenceError     Kind = "persistence_error"
	KindSuggestionParseError Kind = "suggestion_parse_error"
)

// Error is the concrete type behind every Kind below. Attempts is populated
// only for AllProvidersFailed and DeadlineExceeded.
type Error struct {
	Kind     Kind
	Message  string
	Attempts []domain.AttemptRecord
	cause    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

func InvalidRequest(msg string) *Error        { return newErr(KindInvalidRequest, msg, nil) }
func ProviderNotConfigured(p domain.Provider) *Error {
	return newErr(KindProviderNotConfigured, fmt.Sprintf("provider %q has no credentials", p), nil)
}
func NoAvailableProvider(msg string) *Error { return newErr(KindNoAvailableProvider, msg, nil) }

func AllProvidersFailed(attempts []domain.AttemptRecord) *Error {
	e := newErr(KindAllProvidersFailed, "every candidate returned a non-success", nil)
	e.Attempts = attempts
	return e
}

func DeadlineExceeded(attempts []domain.AttemptRecord) *Error {
	e := newErr(KindDeadlineExceeded, "request-level deadline elapsed", nil)
	e.Attempts = attempts
	return e
}

func CredentialCorrupt(cause error) *Error {
	return newErr(KindCredentialCorrupt, "credential could not be decrypted", cause)
}

func PersistenceError(cause error) *Error {
	return newErr(KindPersistenceError, "persistent store unavailable or constraint violated", cause)
}

func SuggestionParseError(cause error) *Error {
	return newErr(KindSuggestionParseError, "refresh output was not valid JSON", cause)
}

// As reports whether err is a *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
