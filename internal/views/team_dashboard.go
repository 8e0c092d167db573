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

// TeamDashboardSnapshot is the caller's own team
type TeamDashboardSnapshot struct {
	Team   *models.Team
	Loaded bool
}

// TeamDashboard shows the caller's team and assigns tasks within it
type TeamDashboard struct {
	client *api.Client
	logger *slog.Logger

	mu     sync.Mutex
	team   *models.Team
	loaded bool
	closed bool
}

// NewTeamDashboard creates the controller; call Load
func NewTeamDashboard(client *api.Client, logger *slog.Logger) *TeamDashboard {
	return &TeamDashboard{client: client, logger: logging.OrDiscard(logger).With("view", "team_dashboard")}
}

// Snapshot copies the current state
func (t *TeamDashboard) Snapshot() TeamDashboardSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := TeamDashboardSnapshot{Loaded: t.loaded}
	if t.team != nil {
		team := *t.team
		snap.Team = &team
	}
	return snap
}

// Close makes later responses no-ops
func (t *TeamDashboard) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// Load fetches GET /teams/my-team
func (t *TeamDashboard) Load(ctx context.Context) error {
	team, err := t.client.MyTeam(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "failed to load team", "error", err)
		return fmt.Errorf("failed to load team: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.team = team
		t.loaded = true
	}
	return nil
}

// Assign creates a task in the team, for one member or (nil) the whole team
func (t *TeamDashboard) Assign(ctx context.Context, title, description string, userID *int) (*models.Task, error) {
	t.mu.Lock()
	team := t.team
	t.mu.Unlock()
	if team == nil {
		return nil, fmt.Errorf("team is not loaded")
	}
	title = strings.TrimSpace(title)
	if err := required("title", title); err != nil {
		return nil, err
	}
	teamID := team.ID
	task, err := t.client.CreateTask(ctx, api.CreateTaskRequest{
		Title:       title,
		Description: strings.TrimSpace(description),
		TeamID:      &teamID,
		UserID:      userID,
	})
	if err != nil {
		t.logger.WarnContext(ctx, "failed to assign task", "error", err)
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	t.logger.InfoContext(ctx, "task assigned", "task", task.ID)
	return task, t.Load(ctx)
}
