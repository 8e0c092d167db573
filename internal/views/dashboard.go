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

// DashboardSnapshot is what the task board renders
type DashboardSnapshot struct {
	Tasks    []models.Task
	Selected *models.Task
	History  []models.TaskHistoryEntry
	Teams    []models.Team // assignment choices, see LoadTeams
	Loaded   bool
}

// Dashboard is the task board and task editor. Every edit commits to the
// server right away and refetches the list; nothing is edited locally.
type Dashboard struct {
	client *api.Client
	logger *slog.Logger

	mu       sync.Mutex
	tasks    []models.Task
	selected int
	history  []models.TaskHistoryEntry
	histSeq  uint64
	teams    []models.Team
	loaded   bool
	closed   bool
}

// NewDashboard creates an empty board; call Load
func NewDashboard(client *api.Client, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		client: client,
		logger: logging.OrDiscard(logger).With("view", "dashboard"),
	}
}

// Snapshot copies the current state
func (d *Dashboard) Snapshot() DashboardSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := DashboardSnapshot{
		Tasks:   append([]models.Task(nil), d.tasks...),
		History: append([]models.TaskHistoryEntry(nil), d.history...),
		Teams:   append([]models.Team(nil), d.teams...),
		Loaded:  d.loaded,
	}
	if t, ok := d.find(d.selected); ok {
		snap.Selected = &t
	}
	return snap
}

// find looks up a task by id; callers hold d.mu
func (d *Dashboard) find(id int) (models.Task, bool) {
	if id == 0 {
		return models.Task{}, false
	}
	for _, t := range d.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Task returns a loaded task by id
func (d *Dashboard) Task(id int) (models.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.find(id)
}

// Close makes later responses no-ops
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Load replaces the list with GET /tasks/. A selected task that vanished is
// deselected. On failure the previous list stays.
func (d *Dashboard) Load(ctx context.Context) error {
	tasks, err := d.client.ListTasks(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to load tasks", "error", err)
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.tasks = tasks
	d.loaded = true
	if _, ok := d.find(d.selected); !ok {
		d.clearSelection()
	}
	return nil
}

// clearSelection drops the selection and its history; callers hold d.mu
func (d *Dashboard) clearSelection() {
	d.selected = 0
	d.history = nil
	d.histSeq++
}

// Select opens a task and fetches its history. History from an earlier
// selection that arrives late is dropped.
func (d *Dashboard) Select(ctx context.Context, taskID int) error {
	d.mu.Lock()
	if d.selected != taskID {
		d.history = nil
	}
	d.selected = taskID
	d.histSeq++
	seq := d.histSeq
	d.mu.Unlock()

	history, err := d.client.TaskHistory(ctx, taskID)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to load history", "task", taskID, "error", err)
		return fmt.Errorf("failed to load task history: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || seq != d.histSeq {
		return nil
	}
	d.history = history
	return nil
}

// Deselect closes the editor and clears history
func (d *Dashboard) Deselect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSelection()
}

// refresh refetches the list and, if taskID is still open, its history
func (d *Dashboard) refresh(ctx context.Context, taskID int) error {
	if err := d.Load(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	reselect := d.selected == taskID && taskID != 0
	d.mu.Unlock()
	if reselect {
		return d.Select(ctx, taskID)
	}
	return nil
}

// UpdateField commits a partial update and refetches
func (d *Dashboard) UpdateField(ctx context.Context, taskID int, update api.TaskUpdate) error {
	if update.Empty() {
		return nil
	}
	if update.Title != nil {
		if err := required("title", *update.Title); err != nil {
			return err
		}
	}
	if err := d.client.UpdateTask(ctx, taskID, update); err != nil {
		d.logger.WarnContext(ctx, "failed to update task", "task", taskID, "error", err)
		return fmt.Errorf("failed to update task: %w", err)
	}
	d.logger.InfoContext(ctx, "task updated", "task", taskID)
	return d.refresh(ctx, taskID)
}

// LoadTeams fetches the teams a task can be moved to, with their members as
// assignee choices
func (d *Dashboard) LoadTeams(ctx context.Context, role models.Role) error {
	teams, err := teamChoices(ctx, d.client, d.logger, role)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.teams = teams
	}
	return nil
}

// Members lists the assignee choices for teamID from the loaded teams
func (d *Dashboard) Members(teamID int) []models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.teams {
		if t.ID == teamID {
			return append([]models.User(nil), t.Members...)
		}
	}
	return nil
}

// SetStatus uses the dedicated status endpoint
func (d *Dashboard) SetStatus(ctx context.Context, taskID int, status models.Status) error {
	if err := d.client.UpdateTaskStatus(ctx, taskID, status); err != nil {
		d.logger.WarnContext(ctx, "failed to update status", "task", taskID, "error", err)
		return fmt.Errorf("failed to update status: %w", err)
	}
	d.logger.InfoContext(ctx, "task status changed", "task", taskID, "status", status)
	return d.refresh(ctx, taskID)
}

// Complete marks a task Completed
func (d *Dashboard) Complete(ctx context.Context, taskID int) error {
	return d.SetStatus(ctx, taskID, models.StatusCompleted)
}

// QuickCreate adds an unassigned task from the board
func (d *Dashboard) QuickCreate(ctx context.Context, req api.CreateTaskRequest) (*models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := required("title", req.Title); err != nil {
		return nil, err
	}
	task, err := d.client.CreateTask(ctx, req)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to create task", "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	d.logger.InfoContext(ctx, "task created", "task", task.ID)
	return task, d.Load(ctx)
}

// AddSubtask rejects blank titles without a request
func (d *Dashboard) AddSubtask(ctx context.Context, taskID int, title string) error {
	title = strings.TrimSpace(title)
	if err := required("subtask title", title); err != nil {
		return err
	}
	if _, err := d.client.AddSubtask(ctx, taskID, title); err != nil {
		d.logger.WarnContext(ctx, "failed to add subtask", "task", taskID, "error", err)
		return fmt.Errorf("failed to add subtask: %w", err)
	}
	return d.refresh(ctx, taskID)
}

// ToggleSubtask flips completion, sending the title along as the backend
// expects
func (d *Dashboard) ToggleSubtask(ctx context.Context, taskID, subtaskID int) error {
	d.mu.Lock()
	task, ok := d.find(taskID)
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("task %d is not loaded", taskID)
	}
	for _, st := range task.Subtasks {
		if st.ID != subtaskID {
			continue
		}
		if err := d.client.UpdateSubtask(ctx, subtaskID, st.Title, !st.IsCompleted); err != nil {
			d.logger.WarnContext(ctx, "failed to update subtask", "subtask", subtaskID, "error", err)
			return fmt.Errorf("failed to update subtask: %w", err)
		}
		return d.refresh(ctx, taskID)
	}
	return fmt.Errorf("subtask %d is not part of task %d", subtaskID, taskID)
}

// DeleteSubtask asks first
func (d *Dashboard) DeleteSubtask(ctx context.Context, c Confirmer, taskID, subtaskID int) error {
	if err := confirm(ctx, c, "Delete this subtask?"); err != nil {
		return err
	}
	if err := d.client.DeleteSubtask(ctx, subtaskID); err != nil {
		d.logger.WarnContext(ctx, "failed to delete subtask", "subtask", subtaskID, "error", err)
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	return d.refresh(ctx, taskID)
}

// DeleteTask asks first; an open editor on the task is closed
func (d *Dashboard) DeleteTask(ctx context.Context, c Confirmer, taskID int) error {
	if err := confirm(ctx, c, "Delete this task?"); err != nil {
		return err
	}
	if err := d.client.DeleteTask(ctx, taskID); err != nil {
		d.logger.WarnContext(ctx, "failed to delete task", "task", taskID, "error", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}
	d.logger.InfoContext(ctx, "task deleted", "task", taskID)
	d.mu.Lock()
	if d.selected == taskID {
		d.clearSelection()
	}
	d.mu.Unlock()
	return d.Load(ctx)
}
