package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
)

// UsersSnapshot is the admin user directory
type UsersSnapshot struct {
	Users  []models.User
	Filter api.UserFilter
	Loaded bool
}

// Users is the server-filtered user directory. The list is always exactly
// what the server returned for the latest filter.
type Users struct {
	client *api.Client
	logger *slog.Logger

	mu     sync.Mutex
	users  []models.User
	filter api.UserFilter
	seq    uint64
	loaded bool
	closed bool
}

// NewUsers creates an empty directory; call Load
func NewUsers(client *api.Client, logger *slog.Logger) *Users {
	return &Users{client: client, logger: logging.OrDiscard(logger).With("view", "users")}
}

// Snapshot copies the current state
func (u *Users) Snapshot() UsersSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UsersSnapshot{Users: append([]models.User(nil), u.users...), Filter: u.filter, Loaded: u.loaded}
}

// Close makes later responses no-ops
func (u *Users) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
}

// SetFilter records the filter and fetches. A response for a filter that
// has since been replaced is dropped.
func (u *Users) SetFilter(ctx context.Context, filter api.UserFilter) error {
	u.mu.Lock()
	u.filter = filter
	u.seq++
	seq := u.seq
	u.mu.Unlock()

	users, err := u.client.ListUsers(ctx, filter)
	if err != nil {
		u.logger.WarnContext(ctx, "failed to load users", "query", filter.Query(), "error", err)
		return fmt.Errorf("failed to load users: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed || seq != u.seq {
		u.logger.DebugContext(ctx, "dropping stale user list", "query", filter.Query())
		return nil
	}
	u.users = users
	u.loaded = true
	return nil
}

// Load refetches with the current filter
func (u *Users) Load(ctx context.Context) error {
	u.mu.Lock()
	filter := u.filter
	u.mu.Unlock()
	return u.SetFilter(ctx, filter)
}

// Delete asks first, then refetches
func (u *Users) Delete(ctx context.Context, c Confirmer, userID int) error {
	if err := confirm(ctx, c, "Delete this user? This cannot be undone."); err != nil {
		return err
	}
	if err := u.client.DeleteUser(ctx, userID); err != nil {
		u.logger.WarnContext(ctx, "failed to delete user", "user", userID, "error", err)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	u.logger.InfoContext(ctx, "user deleted", "user", userID)
	return u.Load(ctx)
}

// CreateUser validates and submits the admin create-user form. An empty
// role means employee.
func CreateUser(ctx context.Context, client *api.Client, req api.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	for _, f := range []struct{ name, value string }{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
	} {
		if err := required(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if req.Role == "" {
		req.Role = models.RoleEmployee
	}
	role, ok := models.ParseRole(string(req.Role))
	if !ok {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}
	req.Role = role

	user, err := client.CreateUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
