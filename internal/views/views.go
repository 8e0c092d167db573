// Package views holds the screen controllers: the state each screen shows
// and the server operations behind it. They know nothing about rendering,
// so the TUI and the CLI share them.
package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/balkashynov/ems/internal/api"
)

var (
	// ErrCancelled is returned when the user declines a confirmation
	ErrCancelled = errors.New("cancelled")
	// ErrRequired marks a missing form field; wrapped with the field name
	ErrRequired = errors.New("is required")
	// ErrRemoveManager blocks removing a team's current manager
	ErrRemoveManager = errors.New("cannot remove the team manager")
)

// RemoveManagerMessage is shown instead of removing the current manager
const RemoveManagerMessage = "Cannot remove the Team Manager. Please assign a new manager first."

// Confirmer asks the user before a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed approves everything; for scripted use and --yes flags
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Declined rejects everything
var Declined Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })

func confirm(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil || !c.Confirm(ctx, prompt) {
		return ErrCancelled
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s %w", field, ErrRequired)
	}
	return nil
}

// Describe turns an operation error into the one line a screen shows.
// Validation errors read as-is, 4xx responses show the server's detail and
// anything else becomes "Failed to <action>". Cancellation shows nothing.
func Describe(action string, err error) string {
	var apiErr *api.Error
	switch {
	case err == nil, errors.Is(err, ErrCancelled):
		return ""
	case errors.Is(err, ErrRequired):
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	case errors.Is(err, ErrRemoveManager):
		return RemoveManagerMessage
	case errors.As(err, &apiErr) && apiErr.Client():
		return apiErr.Detail
	}
	return "Failed to " + action
}
