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

// TeamsSnapshot is the admin team list
type TeamsSnapshot struct {
	Teams  []models.Team
	Loaded bool
}

// Teams lists, creates and deletes teams
type Teams struct {
	client *api.Client
	logger *slog.Logger

	mu     sync.Mutex
	teams  []models.Team
	loaded bool
	closed bool
}

// NewTeams creates an empty team list
func NewTeams(client *api.Client, logger *slog.Logger) *Teams {
	return &Teams{client: client, logger: logging.OrDiscard(logger).With("view", "teams")}
}

// Snapshot copies the current state
func (t *Teams) Snapshot() TeamsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TeamsSnapshot{Teams: append([]models.Team(nil), t.teams...), Loaded: t.loaded}
}

// Close makes later responses no-ops
func (t *Teams) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// Load replaces the list with GET /teams/
func (t *Teams) Load(ctx context.Context) error {
	teams, err := t.client.ListTeams(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "failed to load teams", "error", err)
		return fmt.Errorf("failed to load teams: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.teams = teams
		t.loaded = true
	}
	return nil
}

// Create requires a name, then refetches the list
func (t *Teams) Create(ctx context.Context, name, description string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if err := required("team name", name); err != nil {
		return nil, err
	}
	team, err := t.client.CreateTeam(ctx, api.CreateTeamRequest{Name: name, Description: strings.TrimSpace(description)})
	if err != nil {
		t.logger.WarnContext(ctx, "failed to create team", "name", name, "error", err)
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	t.logger.InfoContext(ctx, "team created", "team", team.ID, "name", team.Name)
	return team, t.Load(ctx)
}

// Delete asks first, then refetches the list
func (t *Teams) Delete(ctx context.Context, c Confirmer, teamID int) error {
	if err := confirm(ctx, c, "Delete this team? Members will be unassigned."); err != nil {
		return err
	}
	if err := t.client.DeleteTeam(ctx, teamID); err != nil {
		t.logger.WarnContext(ctx, "failed to delete team", "team", teamID, "error", err)
		return fmt.Errorf("failed to delete team: %w", err)
	}
	t.logger.InfoContext(ctx, "team deleted", "team", teamID)
	return t.Load(ctx)
}
