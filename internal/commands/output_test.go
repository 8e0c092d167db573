package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

func TestFailure(t *testing.T) {
	err := failure("create team", &api.Error{Status: 409, Detail: "Team name already exists"})
	assert.EqualError(t, err, "Team name already exists")

	cause := &api.Error{Status: 502, Detail: "bad gateway"}
	err = failure("create team", fmt.Errorf("failed to create team: %w", cause))
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to create team: "))

	assert.EqualError(t, failure("sign in", fmt.Errorf("email %w", views.ErrRequired)), "Email is required")
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "task")
	assert.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, bad := range []string{"0", "-1", "x", "99999999999"} {
		_, err := parseID(bad, "team")
		assert.EqualError(t, err, fmt.Sprintf("invalid team ID '%s'", bad))
	}
}

func TestLineReaderConfirm(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"yes":   true,
	} {
		cmd := &cobra.Command{}
		var out bytes.Buffer
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(&out)
		got := newLineReader(cmd).Confirm(context.Background(), "Delete?")
		assert.Equal(t, want, got, "%q", input)
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("y\n"))
	assert.False(t, newLineReader(cmd).Confirm(ctx, "Delete?"))

	assert.True(t, confirmer(cmd, true).Confirm(ctx, "Delete?"), "--yes answers without reading")
}

func TestCancelled(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	assert.False(t, cancelled(cmd, errors.New("boom")))
	assert.Empty(t, out.String())
	assert.True(t, cancelled(cmd, fmt.Errorf("delete: %w", views.ErrCancelled)))
	assert.Equal(t, "Cancelled\n", out.String())
}

func TestSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) models.Timestamp { return models.NewTimestamp(now.Add(-d)) }

	assert.Empty(t, since(models.Timestamp{}, now))
	assert.Equal(t, "just now", since(at(10*time.Second), now))
	assert.Equal(t, "5m ago", since(at(5*time.Minute), now))
	assert.Equal(t, "3h ago", since(at(3*time.Hour), now))
	assert.Equal(t, "2d ago", since(at(50*time.Hour), now))
}

func TestPrintBarsScalesToLargest(t *testing.T) {
	var out bytes.Buffer
	printBars(&out, []string{"ana", "bob"}, []int{4, 2})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, barWidth, strings.Count(lines[0], "█"))
	assert.Equal(t, barWidth/2, strings.Count(lines[1], "█"))

	out.Reset()
	printBars(&out, nil, nil)
	assert.Contains(t, out.String(), "No data")
}
