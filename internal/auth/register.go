package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/amingeek/task-manager/internal/client"
)

// MinPasswordLength is the shortest password accepted at registration, in characters.
const MinPasswordLength = 6

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Validate checks the form before anything is sent.
func (in RegisterInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return client.NewValidationError("username", "username is required")
	case strings.TrimSpace(in.Email) == "":
		return client.NewValidationError("email", "email is required")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		return client.NewValidationError("password", "password must be at least 6 characters")
	case in.Password != in.Confirm:
		return client.NewValidationError("confirm", "passwords do not match")
	}
	return nil
}

// Register validates in, creates the account and starts a session for it.
// A validation failure leaves the store untouched.
func (s *Store) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	gen, notify := s.beginLocked()
	s.mu.Unlock()
	notify()

	res, err := s.api.Register(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		return s.fail(gen, rejectedInput(err))
	}
	return s.complete(ctx, gen, res)
}
