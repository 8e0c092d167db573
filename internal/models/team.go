package models

// Team groups users under an optional manager
type Team struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ManagerID   *int      `json:"manager_id,omitempty"`
	Manager     *User     `json:"manager,omitempty"`
	Members     []User    `json:"members"`
	Tasks       []Task    `json:"tasks,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

// IsManager reports whether userID is the team's current manager
func (t Team) IsManager(userID int) bool {
	return t.ManagerID != nil && *t.ManagerID == userID
}

// HasMember reports whether userID is in Members
func (t Team) HasMember(userID int) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// Member looks up a member by id
func (t Team) Member(userID int) (User, bool) {
	for _, m := range t.Members {
		if m.ID == userID {
			return m, true
		}
	}
	return User{}, false
}

// Notification is a per-user message; only is_read is client-mutable
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt Timestamp `json:"created_at"`
}

// UserTaskCount is one row of the tasks-per-user report
type UserTaskCount struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	TaskCount int    `json:"task_count"`
}

// TeamTaskCount is one row of the per-team workload report
type TeamTaskCount struct {
	TeamID    int    `json:"team_id"`
	TeamName  string `json:"team_name"`
	TaskCount int    `json:"task_count"`
}

// Workload is the workload-distribution report
type Workload struct {
	Teams    []TeamTaskCount `json:"teams"`
	TopUsers []UserTaskCount `json:"top_users"`
}
