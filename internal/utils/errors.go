package utils

import (
	"errors"
	"net/http"
)

// StatusError is an error that knows which HTTP status it should be answered with.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func NewStatusError(code int, message string) error {
	return &StatusError{Code: code, Message: message}
}

func BadRequest(message string) error { return NewStatusError(http.StatusBadRequest, message) }
func Forbidden(message string) error  { return NewStatusError(http.StatusForbidden, message) }
func NotFound(what string) error      { return NewStatusError(http.StatusNotFound, what+" not found") }
func Conflict(message string) error   { return NewStatusError(http.StatusConflict, message) }

// StatusOf returns the status and message carried by err, or 500 for anything else.
func StatusOf(err error) (int, string) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, se.Message
	}
	return http.StatusInternalServerError, "internal server error"
}
