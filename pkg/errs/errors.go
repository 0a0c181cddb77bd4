// Package errs defines the closed set of error kinds the engine returns.
// Callers branch on kinds structurally; message text is presentation only
// and is never matched against.
package errs

import (
	"errors"
	"net/http"
)

// Kind classifies an engine failure
type Kind int

const (
	// Internal is an unclassified server-side failure
	Internal Kind = iota
	// InvalidIdentity is malformed registration or login input
	InvalidIdentity
	// DuplicateIdentity is a username/email/wallet uniqueness conflict
	DuplicateIdentity
	// InvalidCredentials covers both unknown accounts and bad secrets so
	// callers cannot enumerate accounts
	InvalidCredentials
	// InvalidToken is an unknown, malformed, or already-rotated token
	InvalidToken
	// Expired is a structurally valid token past its expiry
	Expired
	// TokenReuseDetected is a replay of a rotated refresh token; the whole
	// lineage is revoked as a side effect
	TokenReuseDetected
	// InvalidClient is an unknown or revoked SDK client
	InvalidClient
	// Unauthorized is a request lacking a valid caller identity
	Unauthorized
	// Unavailable is a transient upstream failure, safe to retry with backoff
	Unavailable
)

var kindCodes = map[Kind]string{
	Internal:           "INTERNAL",
	InvalidIdentity:    "INVALID_IDENTITY",
	DuplicateIdentity:  "DUPLICATE_IDENTITY",
	InvalidCredentials: "INVALID_CREDENTIALS",
	InvalidToken:       "INVALID_TOKEN",
	Expired:            "TOKEN_EXPIRED",
	TokenReuseDetected: "TOKEN_REUSE_DETECTED",
	InvalidClient:      "INVALID_CLIENT",
	Unauthorized:       "UNAUTHORIZED",
	Unavailable:        "UNAVAILABLE",
}

var kindStatus = map[Kind]int{
	Internal:           http.StatusInternalServerError,
	InvalidIdentity:    http.StatusBadRequest,
	DuplicateIdentity:  http.StatusConflict,
	InvalidCredentials: http.StatusUnauthorized,
	InvalidToken:       http.StatusUnauthorized,
	Expired:            http.StatusUnauthorized,
	TokenReuseDetected: http.StatusForbidden,
	InvalidClient:      http.StatusUnauthorized,
	Unauthorized:       http.StatusUnauthorized,
	Unavailable:        http.StatusServiceUnavailable,
}

// Code returns the stable machine-readable code for the kind
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[Internal]
}

// HTTPStatus returns the HTTP status derived from the kind
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a classified engine error. Message is safe to return to callers;
// Err holds the wrapped cause and is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E creates a classified error with a public message
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error without leaking it to callers
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether the error chain carries the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// PublicMessage returns the caller-safe message for an error chain
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
