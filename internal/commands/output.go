package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

// failure turns an operation error into what main prints. Server-side and
// validation messages read as-is; transport errors keep their cause.
func failure(action string, err error) error {
	msg := views.Describe(action, err)
	if strings.HasPrefix(msg, "Failed to ") {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return errors.New(msg)
}

// cancelled prints the declined-confirmation line; true when err was one
func cancelled(cmd *cobra.Command, err error) bool {
	if !errors.Is(err, views.ErrCancelled) {
		return false
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
	return true
}

func parseID(arg, what string) (int, error) {
	id, err := strconv.ParseUint(arg, 10, 31)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", what, arg)
	}
	return int(id), nil
}

func statusIcon(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return "✅"
	case models.StatusInProgress:
		return "🔄"
	}
	return "⭕"
}

func priorityIcon(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "🔴"
	case models.PriorityLow:
		return "🟢"
	}
	return "🟡"
}

func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func since(t models.Timestamp, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t.Time)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
