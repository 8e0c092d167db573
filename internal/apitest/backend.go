// Package apitest is an in-memory EMS backend served over httptest, used by
// tests that exercise the client against real HTTP round trips.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/balkashynov/ems/internal/models"
)

// SigningKey signs the tokens the fake backend issues
var SigningKey = []byte("apitest-signing-key")

// Request is one recorded call
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
}

type account struct {
	user     models.User
	password string
	active   bool
}

type team struct {
	id          int
	name        string
	description string
	managerID   *int
	members     []int
	createdAt   time.Time
}

// Backend is a stateful fake of the EMS REST API
type Backend struct {
	// TokenTTL is the lifetime of issued tokens
	TokenTTL time.Duration

	mu            sync.Mutex
	noProfile     bool
	server        *httptest.Server
	nextID        int
	accounts      map[int]*account
	teams         map[int]*team
	tasks         map[int]*models.Task
	taskCreator   map[int]int
	subtaskOwner  map[int]int
	history       map[int][]models.TaskHistoryEntry
	notifications map[int][]models.Notification
	resets        []models.PasswordResetRequest
	requests      []Request
	holds         map[string]chan struct{}
}

// New starts a backend that shuts down with the test
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		TokenTTL:      30 * time.Minute,
		nextID:        100,
		accounts:      map[int]*account{},
		teams:         map[int]*team{},
		tasks:         map[int]*models.Task{},
		taskCreator:   map[int]int{},
		subtaskOwner:  map[int]int{},
		history:       map[int][]models.TaskHistoryEntry{},
		notifications: map[int][]models.Notification{},
		holds:         map[string]chan struct{}{},
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// DisableProfileRoute makes GET /auth/me answer 404
func (b *Backend) DisableProfileRoute() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noProfile = true
}

// URL is the backend's base URL
func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) id() int {
	b.nextID++
	return b.nextID
}

// AddUser creates an active account
func (b *Backend) AddUser(username, email, password string, role models.Role) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := models.User{
		ID:        b.id(),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: models.NewTimestamp(time.Now().UTC()),
		IsActive:  true,
	}
	b.accounts[u.ID] = &account{user: u, password: password, active: true}
	return u
}

// AddTeam creates a team with the given members and optional manager
func (b *Backend) AddTeam(name string, managerID *int, memberIDs ...int) models.Team {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := &team{id: b.id(), name: name, managerID: managerID, createdAt: time.Now().UTC()}
	b.teams[t.id] = t
	for _, id := range memberIDs {
		b.addMember(t, id)
	}
	return b.teamView(t, true)
}

// AddTask stores a task as if created by creatorID
func (b *Backend) AddTask(creatorID int, task models.Task) models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	task.ID = b.id()
	if task.Status == "" {
		task.Status = models.StatusOpen
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	for i := range task.Subtasks {
		task.Subtasks[i].ID = b.id()
		b.subtaskOwner[task.Subtasks[i].ID] = task.ID
	}
	t := task
	b.tasks[t.ID] = &t
	b.taskCreator[t.ID] = creatorID
	b.record(t.ID, creatorID, "created", "", "", "")
	return t
}

// Notify queues a notification for userID and returns it
func (b *Backend) Notify(userID int, title, message string) models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := models.Notification{
		ID:        b.id(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: models.NewTimestamp(time.Now().UTC()),
	}
	b.notifications[userID] = append([]models.Notification{n}, b.notifications[userID]...)
	return n
}

// Notifications returns the stored notifications for userID
func (b *Backend) Notifications(userID int) []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Notification(nil), b.notifications[userID]...)
}

// Token issues a signed bearer token for userID
func (b *Backend) Token(userID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token(b.accounts[userID].user, time.Now().Add(b.TokenTTL))
}

// ExpiredToken issues a token for userID that expired an hour ago
func (b *Backend) ExpiredToken(userID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token(b.accounts[userID].user, time.Now().Add(-time.Hour))
}

func (b *Backend) token(u models.User, exp time.Time) string {
	claims := jwt.MapClaims{
		"sub":     u.Email,
		"role":    string(u.Role),
		"user_id": u.ID,
		"exp":     exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(SigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}

// Requests returns every recorded call
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count counts recorded calls matching method and path
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests forgets recorded calls
func (b *Backend) ResetRequests() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// Hold blocks requests to "METHOD /path" until the returned release is
// called. path may carry a query string to hold only that exact request.
func (b *Backend) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[method+" "+path] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.holds, method+" "+path)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Task returns the stored task
func (b *Backend) Task(id int) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

// Team returns the stored team as the API would render it
func (b *Backend) Team(id int) (models.Team, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.teams[id]
	if !ok {
		return models.Team{}, false
	}
	return b.teamView(t, true), true
}

type handler func(w http.ResponseWriter, r *http.Request, me *account)

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	open := func(pattern string, h handler) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) { h(w, r, nil) })
	}
	authed := func(pattern string, h handler, roles ...models.Role) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			me := b.authenticate(r)
			if me == nil {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			if len(roles) > 0 && !me.user.Role.In(roles...) {
				writeDetail(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			h(w, r, me)
		})
	}

	open("POST /auth/login", b.login)
	open("POST /auth/register", b.register)
	open("POST /auth/forgot-password", b.forgotPassword)
	authed("GET /auth/me", b.me)
	authed("DELETE /auth/{id}", b.deleteUser, models.RoleAdmin)

	authed("GET /admin/users", b.listUsers, models.RoleAdmin, models.RoleManager)
	authed("POST /admin/users", b.createUser, models.RoleAdmin)
	authed("GET /admin/pending-users", b.pendingUsers, models.RoleAdmin)
	authed("PUT /admin/approve-user/{id}", b.approveUser, models.RoleAdmin)
	authed("GET /admin/password-resets", b.passwordResets, models.RoleAdmin)
	authed("POST /admin/password-resets/{id}/reset", b.resetPassword, models.RoleAdmin)

	authed("GET /teams/{$}", b.listTeams)
	authed("POST /teams/{$}", b.createTeam, models.RoleAdmin)
	authed("GET /teams/my-team", b.myTeam)
	authed("GET /teams/{id}", b.getTeam)
	authed("DELETE /teams/{id}", b.deleteTeam, models.RoleAdmin)
	authed("PUT /teams/{id}/members", b.addMembers, models.RoleAdmin)
	authed("DELETE /teams/{id}/members/{userID}", b.removeMember, models.RoleAdmin)
	authed("PUT /teams/{id}/manager", b.assignManager, models.RoleAdmin)

	authed("GET /tasks/{$}", b.listTasks)
	authed("POST /tasks/{$}", b.createTask, models.RoleAdmin, models.RoleManager)
	authed("PUT /tasks/{id}", b.updateTask)
	authed("PUT /tasks/{id}/status", b.updateStatus)
	authed("DELETE /tasks/{id}", b.deleteTask, models.RoleAdmin, models.RoleManager)
	authed("GET /tasks/{id}/history", b.taskHistory)
	authed("POST /tasks/{id}/subtasks", b.addSubtask)
	authed("PUT /subtasks/{id}", b.updateSubtask)
	authed("DELETE /subtasks/{id}", b.deleteSubtask)

	authed("GET /notifications/{$}", b.listNotifications)
	authed("PUT /notifications/{id}/read", b.markRead)
	authed("PUT /notifications/read-all", b.markAllRead)

	authed("GET /reports/tasks-per-user", b.tasksPerUser, models.RoleAdmin, models.RoleManager)
	authed("GET /reports/workload-distribution", b.workload, models.RoleAdmin, models.RoleManager)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, RawQuery: r.URL.RawQuery, Body: string(body)})
		hold, ok := b.holds[r.Method+" "+r.URL.RequestURI()]
		if !ok {
			hold = b.holds[r.Method+" "+r.URL.Path]
		}
		noProfile := b.noProfile
		b.mu.Unlock()

		if hold != nil {
			<-hold
		}
		if noProfile && r.URL.Path == "/auth/me" {
			http.NotFound(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(r *http.Request) *account {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return SigningKey, nil })
	if err != nil {
		return nil
	}
	sub, _ := claims.GetSubject()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.Email == sub && a.active {
			return a
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return 0, false
	}
	return id, true
}

// record appends a history entry; callers hold b.mu
func (b *Backend) record(taskID, userID int, action, field, oldValue, newValue string) {
	entry := models.TaskHistoryEntry{
		ID:           b.id(),
		TaskID:       taskID,
		Action:       action,
		FieldChanged: field,
		OldValue:     oldValue,
		NewValue:     newValue,
		Timestamp:    models.NewTimestamp(time.Now().UTC()),
	}
	if a, ok := b.accounts[userID]; ok {
		u := a.user
		entry.User = &u
	}
	b.history[taskID] = append(b.history[taskID], entry)
}

// teamView renders a team; callers hold b.mu
func (b *Backend) teamView(t *team, withTasks bool) models.Team {
	out := models.Team{
		ID:          t.id,
		Name:        t.name,
		Description: t.description,
		ManagerID:   t.managerID,
		Members:     []models.User{},
		CreatedAt:   models.NewTimestamp(t.createdAt),
	}
	if t.managerID != nil {
		if a, ok := b.accounts[*t.managerID]; ok {
			u := a.user
			out.Manager = &u
		}
	}
	for _, id := range t.members {
		if a, ok := b.accounts[id]; ok {
			out.Members = append(out.Members, a.user)
		}
	}
	if withTasks {
		for _, task := range b.sortedTasks() {
			if task.TeamID != nil && *task.TeamID == t.id {
				out.Tasks = append(out.Tasks, *task)
			}
		}
	}
	return out
}

func (b *Backend) sortedTasks() []*models.Task {
	out := make([]*models.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// addMember moves userID into t; callers hold b.mu
func (b *Backend) addMember(t *team, userID int) {
	a, ok := b.accounts[userID]
	if !ok {
		return
	}
	for _, other := range b.teams {
		if other.id != t.id {
			other.members = without(other.members, userID)
		}
	}
	for _, id := range t.members {
		if id == userID {
			return
		}
	}
	t.members = append(t.members, userID)
	a.user.TeamName = t.name
}

func without(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request, _ *account) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.Email != email {
			continue
		}
		if a.password != password {
			break
		}
		if !a.active {
			writeDetail(w, http.StatusForbidden, "Account pending admin approval")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": b.token(a.user, time.Now().Add(b.TokenTTL)),
			"token_type":   "bearer",
		})
		return
	}
	writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request, _ *account) {
	var req struct {
		Username     string `json:"username"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		DOB          string `json:"dob"`
		MobileNumber string `json:"mobile_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.Email == req.Email {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	u := models.User{
		ID:           b.id(),
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		Role:         models.RoleEmployee,
		DOB:          req.DOB,
		MobileNumber: req.MobileNumber,
		CreatedAt:    models.NewTimestamp(time.Now().UTC()),
	}
	b.accounts[u.ID] = &account{user: u, password: req.Password}
	writeJSON(w, http.StatusCreated, u)
}

func (b *Backend) forgotPassword(w http.ResponseWriter, r *http.Request, _ *account) {
	var req struct {
		Email string `json:"email"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.Email == req.Email {
			u := a.user
			b.resets = append(b.resets, models.PasswordResetRequest{
				ID:        b.id(),
				UserID:    u.ID,
				Email:     u.Email,
				Status:    "pending",
				CreatedAt: models.NewTimestamp(time.Now().UTC()),
				User:      &u,
			})
		}
	}
	// Same answer whether or not the email exists
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the email exists, an admin will reset the password"})
}

func (b *Backend) me(w http.ResponseWriter, _ *http.Request, me *account) {
	writeJSON(w, http.StatusOK, me.user)
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[id]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	delete(b.accounts, id)
	for _, t := range b.teams {
		t.members = without(t.members, id)
		if t.managerID != nil && *t.managerID == id {
			t.managerID = nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request, _ *account) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	role := r.URL.Query().Get("role")

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.User{}
	for _, a := range b.accounts {
		if !a.active {
			continue
		}
		if role != "" && string(a.user.Role) != role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.user.Username+" "+a.user.Email), search) {
			continue
		}
		out = append(out, a.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createUser(w http.ResponseWriter, r *http.Request, _ *account) {
	var req struct {
		Username string      `json:"username"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.Email == req.Email {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	u := models.User{ID: b.id(), Username: req.Username, Email: req.Email, Role: req.Role, IsActive: true,
		CreatedAt: models.NewTimestamp(time.Now().UTC())}
	b.accounts[u.ID] = &account{user: u, password: req.Password, active: true}
	writeJSON(w, http.StatusCreated, u)
}

func (b *Backend) pendingUsers(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.User{}
	for _, a := range b.accounts {
		if !a.active {
			out = append(out, a.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) approveUser(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	a.active = true
	a.user.IsActive = true
	writeJSON(w, http.StatusOK, a.user)
}

func (b *Backend) passwordResets(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.PasswordResetRequest{}
	for _, req := range b.resets {
		if req.Status == "pending" {
			out = append(out, req)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) resetPassword(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.resets {
		req := &b.resets[i]
		if req.ID != id || req.Status != "pending" {
			continue
		}
		temp := fmt.Sprintf("tmp-%d-%d", req.UserID, b.id())
		if a, ok := b.accounts[req.UserID]; ok {
			a.password = temp
		}
		req.Status = "processed"
		writeJSON(w, http.StatusOK, map[string]string{"temp_password": temp})
		return
	}
	writeDetail(w, http.StatusNotFound, "Reset request not found")
}

func (b *Backend) listTeams(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Team{}
	for _, t := range b.teams {
		out = append(out, b.teamView(t, false))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createTeam(w http.ResponseWriter, r *http.Request, _ *account) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.teams {
		if t.name == req.Name {
			writeDetail(w, http.StatusBadRequest, "Team name already exists")
			return
		}
	}
	t := &team{id: b.id(), name: req.Name, description: req.Description, createdAt: time.Now().UTC()}
	b.teams[t.id] = t
	writeJSON(w, http.StatusCreated, b.teamView(t, false))
}

func (b *Backend) myTeam(w http.ResponseWriter, _ *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.teams {
		if (t.managerID != nil && *t.managerID == me.user.ID) || contains(t.members, me.user.ID) {
			writeJSON(w, http.StatusOK, b.teamView(t, true))
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "You are not part of a team")
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (b *Backend) getTeam(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.teams[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	writeJSON(w, http.StatusOK, b.teamView(t, true))
}

func (b *Backend) deleteTeam(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.teams[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	for _, m := range t.members {
		if a, ok := b.accounts[m]; ok {
			a.user.TeamName = ""
		}
	}
	delete(b.teams, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Team deleted"})
}

func (b *Backend) addMembers(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var ids []int
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "body must be a list of user ids")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.teams[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	for _, uid := range ids {
		b.addMember(t, uid)
	}
	writeJSON(w, http.StatusOK, b.teamView(t, true))
}

func (b *Backend) removeMember(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.teams[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	if t.managerID != nil && *t.managerID == userID {
		writeDetail(w, http.StatusBadRequest, "Cannot remove the team manager")
		return
	}
	t.members = without(t.members, userID)
	if a, ok := b.accounts[userID]; ok {
		a.user.TeamName = ""
	}
	writeJSON(w, http.StatusOK, b.teamView(t, true))
}

func (b *Backend) assignManager(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	managerID, err := strconv.Atoi(r.URL.Query().Get("manager_id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "manager_id is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.teams[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	if _, ok := b.accounts[managerID]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	t.managerID = &managerID
	b.addMember(t, managerID)
	writeJSON(w, http.StatusOK, b.teamView(t, true))
}

// visible applies GET /tasks/ scoping; callers hold b.mu
func (b *Backend) visible(task *models.Task, me *account) bool {
	if me.user.Role == models.RoleAdmin || b.taskCreator[task.ID] == me.user.ID {
		return true
	}
	if task.UserID != nil && *task.UserID == me.user.ID {
		return true
	}
	if task.TeamID != nil {
		if t, ok := b.teams[*task.TeamID]; ok {
			return contains(t.members, me.user.ID) || (t.managerID != nil && *t.managerID == me.user.ID)
		}
	}
	return false
}

func (b *Backend) listTasks(w http.ResponseWriter, _ *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Task{}
	for _, t := range b.sortedTasks() {
		if b.visible(t, me) {
			out = append(out, *t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createTask(w http.ResponseWriter, r *http.Request, me *account) {
	var req struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Priority    models.Priority  `json:"priority"`
		Deadline    models.Timestamp `json:"deadline"`
		TeamID      *int             `json:"team_id"`
		UserID      *int             `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.TeamID != nil {
		if _, ok := b.teams[*req.TeamID]; !ok {
			writeDetail(w, http.StatusNotFound, "Team not found")
			return
		}
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	task := &models.Task{
		ID:          b.id(),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusOpen,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		TeamID:      req.TeamID,
		UserID:      req.UserID,
		Subtasks:    []models.Subtask{},
	}
	b.tasks[task.ID] = task
	b.taskCreator[task.ID] = me.user.ID
	b.record(task.ID, me.user.ID, "created", "", "", "")
	if task.UserID != nil {
		b.notifications[*task.UserID] = append([]models.Notification{{
			ID: b.id(), UserID: *task.UserID, Title: "New task assigned", Message: task.Title,
			CreatedAt: models.NewTimestamp(time.Now().UTC()),
		}}, b.notifications[*task.UserID]...)
	}
	writeJSON(w, http.StatusOK, task)
}

func (b *Backend) findTask(w http.ResponseWriter, r *http.Request, me *account) *models.Task {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil
	}
	task, ok := b.tasks[id]
	if !ok || !b.visible(task, me) {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return nil
	}
	return task
}

func intString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func (b *Backend) updateTask(w http.ResponseWriter, r *http.Request, me *account) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.findTask(w, r, me)
	if task == nil {
		return
	}
	for name, raw := range fields {
		switch name {
		case "title":
			var v string
			json.Unmarshal(raw, &v)
			b.record(task.ID, me.user.ID, "updated", name, task.Title, v)
			task.Title = v
		case "description":
			var v string
			json.Unmarshal(raw, &v)
			b.record(task.ID, me.user.ID, "updated", name, task.Description, v)
			task.Description = v
		case "status":
			var v models.Status
			json.Unmarshal(raw, &v)
			b.record(task.ID, me.user.ID, "updated", name, string(task.Status), string(v))
			task.Status = v
		case "priority":
			var v models.Priority
			json.Unmarshal(raw, &v)
			b.record(task.ID, me.user.ID, "updated", name, string(task.Priority), string(v))
			task.Priority = v
		case "deadline":
			var v models.Timestamp
			json.Unmarshal(raw, &v)
			task.Deadline = v
			b.record(task.ID, me.user.ID, "updated", name, "", string(raw))
		case "team_id":
			var v *int
			json.Unmarshal(raw, &v)
			b.record(task.ID, me.user.ID, "updated", name, intString(task.TeamID), intString(v))
			task.TeamID = v
		case "user_id":
			var v *int
			json.Unmarshal(raw, &v)
			b.record(task.ID, me.user.ID, "updated", name, intString(task.UserID), intString(v))
			task.UserID = v
		}
	}
	writeJSON(w, http.StatusOK, task)
}

func (b *Backend) updateStatus(w http.ResponseWriter, r *http.Request, me *account) {
	var req struct {
		Status models.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "status is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.findTask(w, r, me)
	if task == nil {
		return
	}
	b.record(task.ID, me.user.ID, "status_changed", "status", string(task.Status), string(req.Status))
	task.Status = req.Status
	writeJSON(w, http.StatusOK, task)
}

func (b *Backend) deleteTask(w http.ResponseWriter, r *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.findTask(w, r, me)
	if task == nil {
		return
	}
	delete(b.tasks, task.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (b *Backend) taskHistory(w http.ResponseWriter, r *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.findTask(w, r, me)
	if task == nil {
		return
	}
	out := append([]models.TaskHistoryEntry{}, b.history[task.ID]...)
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) addSubtask(w http.ResponseWriter, r *http.Request, me *account) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.findTask(w, r, me)
	if task == nil {
		return
	}
	st := models.Subtask{ID: b.id(), Title: req.Title}
	task.Subtasks = append(task.Subtasks, st)
	b.subtaskOwner[st.ID] = task.ID
	b.record(task.ID, me.user.ID, "subtask_added", "subtasks", "", st.Title)
	writeJSON(w, http.StatusOK, st)
}

func (b *Backend) subtask(w http.ResponseWriter, r *http.Request) (*models.Task, int) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, -1
	}
	task, ok := b.tasks[b.subtaskOwner[id]]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Subtask not found")
		return nil, -1
	}
	for i, st := range task.Subtasks {
		if st.ID == id {
			return task, i
		}
	}
	writeDetail(w, http.StatusNotFound, "Subtask not found")
	return nil, -1
}

func (b *Backend) updateSubtask(w http.ResponseWriter, r *http.Request, me *account) {
	var req struct {
		Title       *string `json:"title"`
		IsCompleted *bool   `json:"is_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == nil || req.IsCompleted == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "title and is_completed are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	task, i := b.subtask(w, r)
	if task == nil {
		return
	}
	st := &task.Subtasks[i]
	b.record(task.ID, me.user.ID, "subtask_updated", "subtasks", strconv.FormatBool(st.IsCompleted), strconv.FormatBool(*req.IsCompleted))
	st.Title = *req.Title
	st.IsCompleted = *req.IsCompleted
	writeJSON(w, http.StatusOK, st)
}

func (b *Backend) deleteSubtask(w http.ResponseWriter, r *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task, i := b.subtask(w, r)
	if task == nil {
		return
	}
	b.record(task.ID, me.user.ID, "subtask_deleted", "subtasks", task.Subtasks[i].Title, "")
	delete(b.subtaskOwner, task.Subtasks[i].ID)
	task.Subtasks = append(task.Subtasks[:i], task.Subtasks[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Subtask deleted"})
}

func (b *Backend) listNotifications(w http.ResponseWriter, _ *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]models.Notification{}, b.notifications[me.user.ID]...)
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) markRead(w http.ResponseWriter, r *http.Request, me *account) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notifications[me.user.ID] {
		n := &b.notifications[me.user.ID][i]
		if n.ID == id {
			n.IsRead = true
			writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Notification not found")
}

func (b *Backend) markAllRead(w http.ResponseWriter, _ *http.Request, me *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notifications[me.user.ID] {
		b.notifications[me.user.ID][i].IsRead = true
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (b *Backend) tasksPerUser(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.userCounts())
}

// userCounts counts assigned tasks per account; callers hold b.mu
func (b *Backend) userCounts() []models.UserTaskCount {
	out := []models.UserTaskCount{}
	for _, a := range b.accounts {
		n := 0
		for _, t := range b.tasks {
			if t.UserID != nil && *t.UserID == a.user.ID {
				n++
			}
		}
		out = append(out, models.UserTaskCount{UserID: a.user.ID, Username: a.user.Username, TaskCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (b *Backend) workload(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := models.Workload{Teams: []models.TeamTaskCount{}}
	for _, t := range b.teams {
		n := 0
		for _, task := range b.tasks {
			if task.TeamID != nil && *task.TeamID == t.id {
				n++
			}
		}
		out.Teams = append(out.Teams, models.TeamTaskCount{TeamID: t.id, TeamName: t.name, TaskCount: n})
	}
	sort.Slice(out.Teams, func(i, j int) bool { return out.Teams[i].TeamID < out.Teams[j].TeamID })
	users := b.userCounts()
	sort.SliceStable(users, func(i, j int) bool { return users[i].TaskCount > users[j].TaskCount })
	if len(users) > 10 {
		users = users[:10]
	}
	out.TopUsers = users
	writeJSON(w, http.StatusOK, out)
}
