package models

import (
	"encoding/json"
	"math"
	"strings"
)

// Status is the canonical task status. The backend has been seen emitting
// both "Completed" and "completed"; decoding folds every casing onto the
// constants below so comparisons never depend on server casing.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status in workflow order
var Statuses = []Status{StatusOpen, StatusInProgress, StatusCompleted}

// ParseStatus folds case, spaces, underscores and hyphens. Unknown input
// is returned unchanged with ok=false.
func ParseStatus(s string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "open", "todo", "to do":
		return StatusOpen, true
	case "in progress", "inprogress":
		return StatusInProgress, true
	case "completed", "complete", "done":
		return StatusCompleted, true
	}
	return Status(s), false
}

// UnmarshalJSON canonicalizes the incoming status
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s, _ = ParseStatus(raw)
	return nil
}

// Next cycles Open -> In Progress -> Completed -> Open
func (s Status) Next() Status {
	for i, candidate := range Statuses {
		if candidate == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusOpen
}

// Priority is the canonical lowercase task priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts low/medium/high, med and 1/2/3 in any case
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "1":
		return PriorityLow, true
	case "medium", "med", "2":
		return PriorityMedium, true
	case "high", "3":
		return PriorityHigh, true
	}
	return Priority(s), false
}

// UnmarshalJSON canonicalizes the incoming priority
func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p, _ = ParsePriority(raw)
	return nil
}

// Next cycles low -> medium -> high -> low
func (p Priority) Next() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

// Task is a unit of work, optionally owned by a team and assigned to a user
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Deadline    Timestamp `json:"deadline"`
	TeamID      *int      `json:"team_id,omitempty"`
	UserID      *int      `json:"user_id,omitempty"`
	Subtasks    []Subtask `json:"subtasks"`
}

// IsCompleted compares against the canonical status
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsUnassigned is true when the task has neither a team nor an assignee
func (t Task) IsUnassigned() bool {
	return t.TeamID == nil && t.UserID == nil
}

// CompletedSubtasks counts finished subtasks
func (t Task) CompletedSubtasks() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.IsCompleted {
			n++
		}
	}
	return n
}

// Progress is the completed subtask share as a whole percent, 0 with no subtasks
func (t Task) Progress() int {
	return Progress(t.CompletedSubtasks(), len(t.Subtasks))
}

// Progress rounds completed/total to the nearest whole percent
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// Subtask is a checklist item owned by exactly one task
type Subtask struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// TaskHistoryEntry is one server-generated, append-only audit record
type TaskHistoryEntry struct {
	ID           int       `json:"id"`
	TaskID       int       `json:"task_id"`
	Action       string    `json:"action"`
	FieldChanged string    `json:"field_changed,omitempty"`
	OldValue     string    `json:"old_value,omitempty"`
	NewValue     string    `json:"new_value,omitempty"`
	Timestamp    Timestamp `json:"timestamp"`
	User         *User     `json:"user,omitempty"`
	UserUsername string    `json:"user_username,omitempty"`
}

// Author names whoever made the change
func (h TaskHistoryEntry) Author() string {
	if h.User != nil {
		return h.User.DisplayName()
	}
	if h.UserUsername != "" {
		return h.UserUsername
	}
	return "system"
}
