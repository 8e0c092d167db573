package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/parser"
)

// TaskForm is the raw task-creation form
type TaskForm struct {
	Title       string
	Description string
	Priority    string
	Deadline    string
	TeamID      *int
	UserID      *int
}

// request validates the form into an API payload
func (f TaskForm) request(now time.Time) (api.CreateTaskRequest, error) {
	req := api.CreateTaskRequest{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Priority:    models.PriorityMedium,
		TeamID:      f.TeamID,
		UserID:      f.UserID,
	}
	if err := required("title", req.Title); err != nil {
		return req, err
	}
	if strings.TrimSpace(f.Priority) != "" {
		p, ok := models.ParsePriority(f.Priority)
		if !ok {
			return req, fmt.Errorf("invalid priority %q, use low, medium or high", f.Priority)
		}
		req.Priority = p
	}
	deadline, err := parser.ParseDeadline(f.Deadline, now)
	if err != nil {
		return req, fmt.Errorf("invalid deadline: %w", err)
	}
	req.Deadline = deadline
	return req, nil
}

// CreateTaskSnapshot holds the choices the form offers
type CreateTaskSnapshot struct {
	Teams   []models.Team
	Team    *models.Team
	Members []models.User
	Loaded  bool
}

// CreateTask backs the create-task form. Admins pick any team; managers are
// pinned to their own.
type CreateTask struct {
	client *api.Client
	logger *slog.Logger
	role   models.Role
	now    func() time.Time

	mu     sync.Mutex
	teams  []models.Team
	teamID *int
	loaded bool
	closed bool
}

// NewCreateTask creates the form controller for a user of role
func NewCreateTask(client *api.Client, logger *slog.Logger, role models.Role) *CreateTask {
	return &CreateTask{
		client: client,
		role:   role,
		now:    time.Now,
		logger: logging.OrDiscard(logger).With("view", "create_task"),
	}
}

// Close makes later responses no-ops
func (c *CreateTask) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// teamChoices lists the teams a role may file tasks under: every team for
// admins, the own team for everyone else
func teamChoices(ctx context.Context, client *api.Client, logger *slog.Logger, role models.Role) ([]models.Team, error) {
	if role == models.RoleAdmin {
		all, err := client.ListTeams(ctx)
		if err != nil {
			logger.WarnContext(ctx, "failed to load teams", "error", err)
			return nil, fmt.Errorf("failed to load teams: %w", err)
		}
		return all, nil
	}
	mine, err := client.MyTeam(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to load own team", "error", err)
		return nil, fmt.Errorf("could not load team info: %w", err)
	}
	return []models.Team{*mine}, nil
}

// Load fetches the team choices: every team for admins, the own team for managers
func (c *CreateTask) Load(ctx context.Context) error {
	teams, err := teamChoices(ctx, c.client, c.logger, c.role)
	if err != nil {
		return err
	}
	var pinned *int
	if c.role != models.RoleAdmin {
		id := teams[0].ID
		pinned = &id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.teams = teams
	if pinned != nil {
		c.teamID = pinned
	}
	c.loaded = true
	return nil
}

// SelectTeam picks the team whose members become assignee choices. Ignored
// for managers.
func (c *CreateTask) SelectTeam(teamID *int) {
	if c.role != models.RoleAdmin {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teamID = teamID
}

// Snapshot copies the current state
func (c *CreateTask) Snapshot() CreateTaskSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := CreateTaskSnapshot{Teams: append([]models.Team(nil), c.teams...), Loaded: c.loaded}
	if c.teamID == nil {
		return snap
	}
	for _, t := range c.teams {
		if t.ID == *c.teamID {
			team := t
			snap.Team = &team
			snap.Members = append([]models.User(nil), t.Members...)
		}
	}
	return snap
}

// Submit validates the form and creates the task. Managers always create
// in their own team.
func (c *CreateTask) Submit(ctx context.Context, form TaskForm) (*models.Task, error) {
	c.mu.Lock()
	selected := c.teamID
	c.mu.Unlock()

	if c.role != models.RoleAdmin {
		form.TeamID = selected
	} else if form.TeamID == nil {
		form.TeamID = selected
	}
	req, err := form.request(c.now())
	if err != nil {
		return nil, err
	}
	task, err := c.client.CreateTask(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to create task", "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	c.logger.InfoContext(ctx, "task created", "task", task.ID)
	return task, nil
}
