package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/balkashynov/ems/internal/models"
)

// CreateTaskRequest is the task-creation payload. Nil team and user leave the
// task unassigned.
type CreateTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Priority    models.Priority `json:"priority,omitempty"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	TeamID      *int            `json:"team_id,omitempty"`
	UserID      *int            `json:"user_id,omitempty"`
}

// TaskUpdate is a partial update: only non-nil fields are sent. ClearTeam and
// ClearAssignee send an explicit null.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *models.Status
	Priority      *models.Priority
	Deadline      *time.Time
	TeamID        *int
	UserID        *int
	ClearTeam     bool
	ClearAssignee bool
	ClearDeadline bool
}

// MarshalJSON emits only the fields being changed
func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Status != nil {
		m["status"] = *u.Status
	}
	if u.Priority != nil {
		m["priority"] = *u.Priority
	}
	switch {
	case u.ClearDeadline:
		m["deadline"] = nil
	case u.Deadline != nil:
		m["deadline"] = u.Deadline.Format(time.RFC3339)
	}
	switch {
	case u.ClearTeam:
		m["team_id"] = nil
	case u.TeamID != nil:
		m["team_id"] = *u.TeamID
	}
	switch {
	case u.ClearAssignee:
		m["user_id"] = nil
	case u.UserID != nil:
		m["user_id"] = *u.UserID
	}
	return json.Marshal(m)
}

// Empty reports whether the update changes nothing
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Priority == nil &&
		u.Deadline == nil && u.TeamID == nil && u.UserID == nil &&
		!u.ClearTeam && !u.ClearAssignee && !u.ClearDeadline
}

type subtaskPayload struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// ListTasks calls GET /tasks/
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := c.do(ctx, http.MethodGet, "/tasks/", nil, &out)
	return out, err
}

// CreateTask calls POST /tasks/
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask calls PUT /tasks/{id} with a partial body
func (c *Client) UpdateTask(ctx context.Context, taskID int, update TaskUpdate) error {
	return c.do(ctx, http.MethodPut, "/tasks/"+escape(taskID), update, nil)
}

// UpdateTaskStatus calls PUT /tasks/{id}/status
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int, status models.Status) error {
	return c.do(ctx, http.MethodPut, "/tasks/"+escape(taskID)+"/status", map[string]models.Status{"status": status}, nil)
}

// DeleteTask calls DELETE /tasks/{id}
func (c *Client) DeleteTask(ctx context.Context, taskID int) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+escape(taskID), nil, nil)
}

// TaskHistory calls GET /tasks/{id}/history
func (c *Client) TaskHistory(ctx context.Context, taskID int) ([]models.TaskHistoryEntry, error) {
	var out []models.TaskHistoryEntry
	err := c.do(ctx, http.MethodGet, "/tasks/"+escape(taskID)+"/history", nil, &out)
	return out, err
}

// AddSubtask calls POST /tasks/{id}/subtasks
func (c *Client) AddSubtask(ctx context.Context, taskID int, title string) (*models.Subtask, error) {
	var out models.Subtask
	if err := c.do(ctx, http.MethodPost, "/tasks/"+escape(taskID)+"/subtasks", map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSubtask calls PUT /subtasks/{id}. The endpoint needs both fields.
func (c *Client) UpdateSubtask(ctx context.Context, subtaskID int, title string, completed bool) error {
	return c.do(ctx, http.MethodPut, "/subtasks/"+escape(subtaskID), subtaskPayload{Title: title, IsCompleted: completed}, nil)
}

// DeleteSubtask calls DELETE /subtasks/{id}
func (c *Client) DeleteSubtask(ctx context.Context, subtaskID int) error {
	return c.do(ctx, http.MethodDelete, "/subtasks/"+escape(subtaskID), nil, nil)
}
