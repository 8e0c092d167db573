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

// TaskFilter picks which team tasks are listed
type TaskFilter int

const (
	// FilterActive hides completed tasks
	FilterActive TaskFilter = iota
	FilterAll
)

func (f TaskFilter) String() string {
	if f == FilterAll {
		return "all"
	}
	return "active"
}

// TeamDetailSnapshot is one team with everything its screen needs
type TeamDetailSnapshot struct {
	Team       *models.Team
	Users      []models.User
	Candidates []models.User
	Tasks      []models.Task
	Filter     TaskFilter
	Loaded     bool
	Deleted    bool
}

// TeamDetail manages one team's members, manager and tasks
type TeamDetail struct {
	client *api.Client
	logger *slog.Logger
	teamID int

	mu      sync.Mutex
	team    *models.Team
	users   []models.User
	filter  TaskFilter
	loaded  bool
	closed  bool
	deleted bool
}

// NewTeamDetail creates the controller for teamID; call Load
func NewTeamDetail(client *api.Client, logger *slog.Logger, teamID int) *TeamDetail {
	return &TeamDetail{
		client: client,
		teamID: teamID,
		logger: logging.OrDiscard(logger).With("view", "team_detail", "team", teamID),
	}
}

// TeamID is the team this controller manages
func (d *TeamDetail) TeamID() int {
	return d.teamID
}

// Close makes later responses no-ops
func (d *TeamDetail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Snapshot copies the current state and applies the task filter
func (d *TeamDetail) Snapshot() TeamDetailSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := TeamDetailSnapshot{
		Users:   append([]models.User(nil), d.users...),
		Filter:  d.filter,
		Loaded:  d.loaded,
		Deleted: d.deleted,
	}
	if d.team == nil {
		return snap
	}
	team := *d.team
	snap.Team = &team
	for _, u := range d.users {
		if u.TeamName != team.Name {
			snap.Candidates = append(snap.Candidates, u)
		}
	}
	for _, t := range team.Tasks {
		if d.filter == FilterAll || !t.IsCompleted() {
			snap.Tasks = append(snap.Tasks, t)
		}
	}
	return snap
}

// SetFilter switches between active and all tasks
func (d *TeamDetail) SetFilter(f TaskFilter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = f
}

// Load fetches the team and the user directory concurrently. If either
// fails nothing is replaced.
func (d *TeamDetail) Load(ctx context.Context) error {
	var (
		team  *models.Team
		users []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		team, err = d.client.GetTeam(gctx, d.teamID)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = d.client.ListUsers(gctx, api.UserFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		d.logger.WarnContext(ctx, "failed to load team", "error", err)
		return fmt.Errorf("failed to load team: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.team = team
	d.users = users
	d.loaded = true
	return nil
}

func (d *TeamDetail) current() *models.Team {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.team
}

// AddMember adds one user, then refetches
func (d *TeamDetail) AddMember(ctx context.Context, userID int) error {
	if err := d.client.AddMembers(ctx, d.teamID, userID); err != nil {
		d.logger.WarnContext(ctx, "failed to add member", "user", userID, "error", err)
		return fmt.Errorf("failed to add member: %w", err)
	}
	d.logger.InfoContext(ctx, "member added", "user", userID)
	return d.Load(ctx)
}

// RemoveMember refuses to remove the current manager without calling the
// server, then asks before removing anyone else
func (d *TeamDetail) RemoveMember(ctx context.Context, c Confirmer, userID int) error {
	if team := d.current(); team != nil && team.IsManager(userID) {
		return ErrRemoveManager
	}
	if err := confirm(ctx, c, "Remove user from team?"); err != nil {
		return err
	}
	if err := d.client.RemoveMember(ctx, d.teamID, userID); err != nil {
		d.logger.WarnContext(ctx, "failed to remove member", "user", userID, "error", err)
		return fmt.Errorf("failed to remove member: %w", err)
	}
	d.logger.InfoContext(ctx, "member removed", "user", userID)
	return d.Load(ctx)
}

// AssignManager sets the team's manager. The returned warning is non-empty
// when the new manager is not a member of the team.
func (d *TeamDetail) AssignManager(ctx context.Context, userID int) (warning string, err error) {
	if team := d.current(); team != nil && !team.HasMember(userID) {
		warning = "The new manager is not a member of this team."
	}
	if err := d.client.AssignManager(ctx, d.teamID, userID); err != nil {
		d.logger.WarnContext(ctx, "failed to assign manager", "user", userID, "error", err)
		return "", fmt.Errorf("failed to assign manager: %w", err)
	}
	d.logger.InfoContext(ctx, "manager assigned", "user", userID)
	return warning, d.Load(ctx)
}

// Delete asks first. A deleted team's screen should close.
func (d *TeamDetail) Delete(ctx context.Context, c Confirmer) error {
	if err := confirm(ctx, c, "Delete this team? Members will be unassigned."); err != nil {
		return err
	}
	if err := d.client.DeleteTeam(ctx, d.teamID); err != nil {
		d.logger.WarnContext(ctx, "failed to delete team", "error", err)
		return fmt.Errorf("failed to delete team: %w", err)
	}
	d.logger.InfoContext(ctx, "team deleted")
	d.mu.Lock()
	d.deleted = true
	d.closed = true
	d.mu.Unlock()
	return nil
}
