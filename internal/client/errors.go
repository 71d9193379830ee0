package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request by how callers are expected to recover.
type Kind int

const (
	// KindValidation is a client-side pre-flight failure; no request was sent.
	KindValidation Kind = iota + 1
	// KindAuthentication is a 401. Handled globally before the caller sees it.
	KindAuthentication
	// KindAuthorization is a 403.
	KindAuthorization
	// KindNotFound is a 404.
	KindNotFound
	// KindRequest is any other 4xx, conflicts included.
	KindRequest
	// KindServer is a 5xx.
	KindServer
	// KindNetwork covers transport failures and timeouts.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindRequest:
		return "request"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrNetwork      = errors.New("network error")
)

// Error is returned for every non-2xx response and for transport failures.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string // server supplied, may be empty
	Body    []byte
	Err     error // transport cause for KindNetwork
}

func (e *Error) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindAuthentication
	case ErrForbidden:
		return e.Kind == KindAuthorization
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindRequest
	}
}

// ValidationError is raised before a request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// KindOf returns the Kind of err, or 0 when err is not a client error.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// ServerMessage returns the server supplied error text carried by err, if any.
func ServerMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return ""
}
