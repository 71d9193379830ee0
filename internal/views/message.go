package views

import (
	"errors"

	"github.com/amingeek/task-manager/internal/auth"
	"github.com/amingeek/task-manager/internal/client"
)

const (
	GenericErrorMessage = "Something went wrong. Please try again."
	networkErrorMessage = "Cannot reach the server. Check your connection and try again."
)

// Message returns the text to show for err: the server's own message when it sent
// one, a generic fallback otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrAlreadyMember):
		return "That user is already a member of this group."
	case errors.Is(err, ErrFileNotDeletable):
		return "Only the uploader or the task creator can delete this file."
	}
	if msg := client.ServerMessage(err); msg != "" {
		return msg
	}
	if client.KindOf(err) == client.KindNetwork {
		return networkErrorMessage
	}
	return GenericErrorMessage
}
