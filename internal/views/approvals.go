package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
)

// ApprovalsSnapshot lists pending registrations and password resets
type ApprovalsSnapshot struct {
	Pending []models.User
	Resets  []models.PasswordResetRequest
	Loaded  bool
}

// Approvals handles pending users and password reset requests. Successful
// actions edit the local lists instead of refetching.
type Approvals struct {
	client *api.Client
	logger *slog.Logger

	mu      sync.Mutex
	pending []models.User
	resets  []models.PasswordResetRequest
	loaded  bool
	closed  bool
}

// NewApprovals creates the controller; call Load
func NewApprovals(client *api.Client, logger *slog.Logger) *Approvals {
	return &Approvals{client: client, logger: logging.OrDiscard(logger).With("view", "approvals")}
}

// Snapshot copies the current state
func (a *Approvals) Snapshot() ApprovalsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ApprovalsSnapshot{
		Pending: append([]models.User(nil), a.pending...),
		Resets:  append([]models.PasswordResetRequest(nil), a.resets...),
		Loaded:  a.loaded,
	}
}

// Close makes later responses no-ops
func (a *Approvals) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Load fetches both lists concurrently
func (a *Approvals) Load(ctx context.Context) error {
	var (
		pending []models.User
		resets  []models.PasswordResetRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = a.client.PendingUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		resets, err = a.client.PasswordResets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.WarnContext(ctx, "failed to load approvals", "error", err)
		return fmt.Errorf("failed to load pending requests: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.pending = pending
		a.resets = resets
		a.loaded = true
	}
	return nil
}

// Approve activates a pending user and drops it from the list
func (a *Approvals) Approve(ctx context.Context, userID int) error {
	if err := a.client.ApproveUser(ctx, userID); err != nil {
		a.logger.WarnContext(ctx, "failed to approve user", "user", userID, "error", err)
		return fmt.Errorf("failed to approve user: %w", err)
	}
	a.logger.InfoContext(ctx, "user approved", "user", userID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	out := a.pending[:0:0]
	for _, u := range a.pending {
		if u.ID != userID {
			out = append(out, u)
		}
	}
	a.pending = out
	return nil
}

// Reset resets a password and drops the request. The temporary password is
// returned once and kept nowhere.
func (a *Approvals) Reset(ctx context.Context, requestID int) (string, error) {
	temp, err := a.client.ResetPassword(ctx, requestID)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to reset password", "request", requestID, "error", err)
		return "", fmt.Errorf("failed to reset password: %w", err)
	}
	a.logger.InfoContext(ctx, "password reset", "request", requestID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return temp, nil
	}
	out := a.resets[:0:0]
	for _, r := range a.resets {
		if r.ID != requestID {
			out = append(out, r)
		}
	}
	a.resets = out
	return temp, nil
}
