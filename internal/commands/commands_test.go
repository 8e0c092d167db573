package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/apitest"
	"github.com/balkashynov/ems/internal/models"
)

// cli runs the real command tree against a fake backend with its own
// data directory, so the stored session carries over between calls
type cli struct {
	t       *testing.T
	backend *apitest.Backend
	config  string
}

func newCLI(t *testing.T, b *apitest.Backend) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EMS_DATA_DIR", dir)
	t.Setenv("EMS_API_URL", "")
	return &cli{t: t, backend: b, config: filepath.Join(dir, "config.yaml")}
}

// resetFlags puts every flag back to its default; cobra keeps parsed
// values in package variables between Execute calls
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func (c *cli) exec(stdin string, args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config", c.config, "--api-url", c.backend.URL()))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// run executes args and fails the test on error
func (c *cli) run(args ...string) string {
	c.t.Helper()
	out, err := c.exec("", args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *cli) login(email string) {
	c.t.Helper()
	c.run("login", "--email", email, "--password", "pw")
}

func TestLoginWhoamiLogout(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	c := newCLI(t, b)

	_, err := c.exec("", "whoami")
	require.ErrorIs(t, err, errNotLoggedIn)

	out := c.run("login", "-e", "root@example.com", "-p", "pw")
	assert.Contains(t, out, "Signed in as root (admin)")

	out = c.run("whoami")
	assert.Contains(t, out, "root@example.com")
	assert.Contains(t, out, b.URL())

	assert.Contains(t, c.run("logout"), "Signed out root")
	_, err = c.exec("", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
	assert.Contains(t, c.run("logout"), "Not signed in")
}

func TestLoginReadsStdinAndRemembersEmail(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	c := newCLI(t, b)

	out, err := c.exec("kim@example.com\npw\n", "login", "--remember")
	require.NoError(t, err)
	assert.Contains(t, out, "Email: ")
	assert.Contains(t, out, "Signed in as kim")

	c.run("logout")
	// the remembered email is used, only the password is asked for
	out, err = c.exec("pw\n", "login")
	require.NoError(t, err)
	assert.NotContains(t, out, "Email: ")
	assert.Contains(t, out, "Signed in as kim")
}

func TestLoginFailure(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	c := newCLI(t, b)

	_, err := c.exec("", "login", "-e", "root@example.com", "-p", "nope")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", err.Error())

	_, err = c.exec("", "login", "-e", "root@example.com", "-p", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read password")
}

func TestRegisterAndForgotPassword(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	c := newCLI(t, b)

	_, err := c.exec("\nx@example.com\nhunter2\n", "register")
	require.Error(t, err)
	assert.Equal(t, "Username is required", err.Error())
	assert.Zero(t, b.Count(http.MethodPost, "/auth/register"))

	out := c.run("register", "-u", "newbie", "-e", "newbie@example.com", "-p", "hunter2")
	assert.Contains(t, out, "Registration submitted")
	assert.Equal(t, 1, b.Count(http.MethodPost, "/auth/register"))

	out = c.run("forgot-password", "kim@example.com")
	assert.Contains(t, out, "Reset request sent")
	assert.Equal(t, 1, b.Count(http.MethodPost, "/auth/forgot-password"))
}

func TestTasksAddListDone(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	c := newCLI(t, b)
	c.login("root@example.com")

	assert.Contains(t, c.run("tasks", "ls"), "No tasks found")

	out := c.run("tasks", "add", "Write", "report", "+high", "due:3days")
	require.Contains(t, out, `New task "Write report" added - ID: `)
	id, err := strconv.Atoi(strings.TrimSpace(out[strings.LastIndex(out, " ")+1:]))
	require.NoError(t, err)

	out = c.run("tasks", "ls")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "🔴")
	assert.Contains(t, out, "1 task")

	out = c.run("tasks", "done", strconv.Itoa(id))
	assert.Contains(t, out, fmt.Sprintf("Task #%d: Write report is now Completed", id))
	task, ok := b.Task(id)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, task.Status)

	assert.Contains(t, c.run("tasks", "ls", "--status", "open"), "No tasks found")
	assert.Contains(t, c.run("tasks", "ls", "--status", "done"), "Write report")

	out = c.run("tasks", "status", strconv.Itoa(id), "in-progress")
	assert.Contains(t, out, "is now In Progress")

	out = c.run("tasks", "show", strconv.Itoa(id))
	assert.Contains(t, out, "Status:      In Progress")
	assert.Contains(t, out, "History:")
	assert.Contains(t, out, "status_changed status: Completed → In Progress by root")
}

func TestTasksRejectsBadInput(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	c := newCLI(t, b)
	c.login("root@example.com")

	_, err := c.exec("", "tasks", "add", "Oops +urgent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid priority 'urgent'")
	assert.Zero(t, b.Count(http.MethodPost, "/tasks/"))

	_, err = c.exec("", "tasks", "done", "abc")
	assert.EqualError(t, err, "invalid task ID 'abc'")
	_, err = c.exec("", "tasks", "status", "1", "sideways")
	assert.ErrorContains(t, err, "invalid status 'sideways'")
	_, err = c.exec("", "tasks", "ls", "--status", "sideways")
	assert.ErrorContains(t, err, "invalid status")
}

func TestTasksRemoveAsksFirst(t *testing.T) {
	b := apitest.New(t)
	root := b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	task := b.AddTask(root.ID, models.Task{Title: "Old"})
	c := newCLI(t, b)
	c.login("root@example.com")
	id := strconv.Itoa(task.ID)

	out, err := c.exec("n\n", "tasks", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Delete this task?")
	assert.Contains(t, out, "Cancelled")
	_, ok := b.Task(task.ID)
	require.True(t, ok)

	out, err = c.exec("y\n", "tasks", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted task #"+id)
	_, ok = b.Task(task.ID)
	assert.False(t, ok)

	other := b.AddTask(root.ID, models.Task{Title: "Older"})
	out = c.run("tasks", "rm", "--yes", strconv.Itoa(other.ID))
	assert.NotContains(t, out, "[y/N]")
	_, ok = b.Task(other.ID)
	assert.False(t, ok)
}

func TestTasksCreateForTeam(t *testing.T) {
	b := apitest.New(t)
	mgr := b.AddUser("mgr", "mgr@example.com", "pw", models.RoleManager)
	kim := b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	team := b.AddTeam("Core", &mgr.ID, mgr.ID, kim.ID)
	c := newCLI(t, b)

	c.login("kim@example.com")
	_, err := c.exec("", "tasks", "create", "Sneaky")
	assert.EqualError(t, err, "employee users cannot do this")

	c.login("mgr@example.com")
	out := c.run("tasks", "create", "Ship it", "--assignee", strconv.Itoa(kim.ID), "-p", "high", "--due", "tomorrow")
	assert.Contains(t, out, `New task "Ship it" added`)

	detail, ok := b.Team(team.ID)
	require.True(t, ok)
	require.Len(t, detail.Tasks, 1)
	got := detail.Tasks[0]
	require.NotNil(t, got.UserID)
	assert.Equal(t, kim.ID, *got.UserID)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.False(t, got.Deadline.IsZero())

	_, err = c.exec("", "tasks", "create", "Bad", "-p", "urgent")
	assert.ErrorContains(t, err, "invalid priority")
}

func TestTasksAssign(t *testing.T) {
	b := apitest.New(t)
	root := b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	kim := b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	team := b.AddTeam("Core", nil, kim.ID)
	task := b.AddTask(root.ID, models.Task{Title: "Ship it"})
	c := newCLI(t, b)

	c.login("kim@example.com")
	_, err := c.exec("", "tasks", "assign", strconv.Itoa(task.ID), "--team", strconv.Itoa(team.ID))
	assert.EqualError(t, err, "employee users cannot do this")

	c.login("root@example.com")
	_, err = c.exec("", "tasks", "assign", strconv.Itoa(task.ID))
	assert.EqualError(t, err, "give --team, --assignee or both")

	out := c.run("tasks", "assign", strconv.Itoa(task.ID), "--team", strconv.Itoa(team.ID), "--assignee", strconv.Itoa(kim.ID))
	assert.Contains(t, out, "Ship it")
	assert.Contains(t, out, "team #"+strconv.Itoa(team.ID))
	got, _ := b.Task(task.ID)
	require.NotNil(t, got.TeamID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, team.ID, *got.TeamID)
	assert.Equal(t, kim.ID, *got.UserID)

	out = c.run("tasks", "assign", strconv.Itoa(task.ID), "--assignee", "0")
	assert.Contains(t, out, "unassigned")
	got, _ = b.Task(task.ID)
	assert.Nil(t, got.UserID)
	require.NotNil(t, got.TeamID)
}

func TestUsersListAndManage(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	b.AddUser("ana", "ana@example.com", "pw", models.RoleManager)
	b.AddUser("bob", "bob@example.com", "pw", models.RoleEmployee)
	c := newCLI(t, b)
	c.login("root@example.com")

	out := c.run("users", "ls", "--search", "ana")
	assert.Contains(t, out, "ana@example.com")
	assert.NotContains(t, out, "bob@example.com")
	assert.Contains(t, out, "1 user")

	out = c.run("users", "ls", "--role", "EMPLOYEE")
	assert.Contains(t, out, "bob@example.com")
	assert.NotContains(t, out, "ana@example.com")

	_, err := c.exec("", "users", "ls", "--role", "boss")
	assert.ErrorContains(t, err, "invalid role 'boss'")

	out = c.run("users", "create", "-u", "lee", "-e", "lee@example.com", "-p", "pw", "--role", "manager")
	assert.Contains(t, out, "User lee created as manager")

	_, err = c.exec("", "users", "create", "-e", "x@example.com", "-p", "pw")
	assert.EqualError(t, err, "Username is required")

	out = c.run("users", "ls", "--search", "lee")
	id := strings.Fields(out)[0][1:]
	out = c.run("users", "rm", "-y", id)
	assert.Contains(t, out, "Deleted user #"+id)
	assert.Contains(t, c.run("users", "ls", "--search", "lee"), "No users found")

	c.login("bob@example.com")
	_, err = c.exec("", "users", "ls")
	assert.EqualError(t, err, "employee users cannot do this")
}

func TestTeamsLifecycle(t *testing.T) {
	b := apitest.New(t)
	b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	kim := b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	c := newCLI(t, b)
	c.login("root@example.com")

	assert.Contains(t, c.run("teams", "ls"), "No teams yet")

	out := c.run("teams", "create", "Platform", "-d", "Infra and tooling")
	require.Contains(t, out, `Team "Platform" created - ID: `)
	teamID := strings.TrimSpace(out[strings.LastIndex(out, " ")+1:])
	userID := strconv.Itoa(kim.ID)

	assert.Contains(t, c.run("teams", "add-member", teamID, userID), "kim added to Platform")
	assert.Contains(t, c.run("teams", "set-manager", teamID, userID), "kim is now the manager of Platform")

	out = c.run("teams", "show", teamID)
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "Infra and tooling")
	assert.Contains(t, out, "kim <kim@example.com> ⭐ manager")

	assert.Contains(t, c.run("teams", "ls"), "managed by kim")

	_, err := c.exec("", "teams", "remove-member", "-y", teamID, userID)
	assert.EqualError(t, err, "Cannot remove the Team Manager. Please assign a new manager first.")

	out, err = c.exec("n\n", "teams", "rm", teamID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	c.run("teams", "rm", "--yes", teamID)
	id, _ := strconv.Atoi(teamID)
	_, ok := b.Team(id)
	assert.False(t, ok)
}

func TestTeamsMine(t *testing.T) {
	b := apitest.New(t)
	mgr := b.AddUser("mgr", "mgr@example.com", "pw", models.RoleManager)
	kim := b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	b.AddUser("solo", "solo@example.com", "pw", models.RoleEmployee)
	team := b.AddTeam("Core", &mgr.ID, mgr.ID, kim.ID)
	b.AddTask(mgr.ID, models.Task{Title: "Standup notes", TeamID: &team.ID, UserID: &kim.ID})
	c := newCLI(t, b)

	c.login("kim@example.com")
	out := c.run("teams", "mine")
	assert.Contains(t, out, "Core")
	assert.Contains(t, out, "Standup notes (kim)")

	c.login("solo@example.com")
	_, err := c.exec("", "teams", "mine")
	assert.EqualError(t, err, "You are not part of a team")
}

func TestPendingApproveAndReset(t *testing.T) {
	b := apitest.New(t)
	root := b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	ctx := context.Background()
	anon := api.New(b.URL())
	newbie, err := anon.Register(ctx, api.RegisterRequest{Username: "newbie", Email: "newbie@example.com", Password: "hunter2"})
	require.NoError(t, err)
	require.NoError(t, anon.ForgotPassword(ctx, "kim@example.com"))
	resets, err := anon.WithToken(b.Token(root.ID)).PasswordResets(ctx)
	require.NoError(t, err)
	require.Len(t, resets, 1)

	c := newCLI(t, b)
	c.login("root@example.com")

	out := c.run("pending", "ls")
	assert.Contains(t, out, "Pending users (1)")
	assert.Contains(t, out, "newbie@example.com")
	assert.Contains(t, out, "Password resets (1)")
	assert.Contains(t, out, "kim@example.com")

	assert.Contains(t, c.run("pending", "approve", strconv.Itoa(newbie.ID)), "newbie approved")

	out = c.run("pending", "reset", strconv.Itoa(resets[0].ID))
	assert.Contains(t, out, "Temporary password for kim@example.com")
	temp := strings.TrimSpace(out[strings.Index(out, "\n")+1:])
	require.NotEmpty(t, temp)

	out = c.run("pending", "ls")
	assert.Contains(t, out, "Pending users (0)")
	assert.Contains(t, out, "Password resets (0)")

	c.run("logout")
	c.run("login", "-e", "kim@example.com", "-p", temp)
}

func TestReports(t *testing.T) {
	b := apitest.New(t)
	root := b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	kim := b.AddUser("kim", "kim@example.com", "pw", models.RoleEmployee)
	b.AddTask(root.ID, models.Task{Title: "one", UserID: &root.ID})
	b.AddTask(root.ID, models.Task{Title: "two", UserID: &root.ID})
	c := newCLI(t, b)

	c.login("root@example.com")
	out := c.run("reports")
	assert.Contains(t, out, "Tasks per user")
	assert.Contains(t, out, "Workload by team")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, strings.Repeat("█", barWidth))

	c.login(kim.Email)
	_, err := c.exec("", "reports")
	assert.EqualError(t, err, "employee users cannot do this")
}

func TestInbox(t *testing.T) {
	b := apitest.New(t)
	root := b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	first := b.Notify(root.ID, "Task assigned", "Write report")
	b.Notify(root.ID, "Task updated", "Plan sprint")
	c := newCLI(t, b)
	c.login("root@example.com")

	out := c.run("inbox", "ls")
	assert.Contains(t, out, "Task assigned: Write report")
	assert.Contains(t, out, "2 unread")

	out = c.run("inbox", "read", strconv.Itoa(first.ID))
	assert.Contains(t, out, fmt.Sprintf("Notification #%d marked as read", first.ID))
	assert.Contains(t, c.run("inbox", "ls"), "1 unread")
	assert.NotContains(t, c.run("inbox", "ls", "--unread"), "Write report")

	_, err := c.exec("", "inbox", "read")
	assert.EqualError(t, err, "give a notification ID or --all")

	c.run("inbox", "read", "--all")
	for _, n := range b.Notifications(root.ID) {
		assert.True(t, n.IsRead, n.Title)
	}
	assert.Contains(t, c.run("inbox", "ls", "-u"), "No notifications")
}

func TestHelpAndVersion(t *testing.T) {
	c := newCLI(t, apitest.New(t))

	out := c.run("help")
	assert.Contains(t, out, "ems - Employee & task management from the terminal")
	assert.Contains(t, out, "tasks add <task>")
	assert.Contains(t, out, "Example: ems tasks add")

	SetVersion("1.2.3", "abc123", "today")
	t.Cleanup(func() { SetVersion("dev", "none", "unknown") })
	assert.Contains(t, c.run("version"), "ems 1.2.3 (commit abc123, built today)")
}

func TestBadAPIURL(t *testing.T) {
	c := newCLI(t, apitest.New(t))
	resetFlags(rootCmd)
	rootCmd.SetArgs([]string{"whoami", "--config", c.config, "--api-url", "ftp://nope"})
	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "api_url must start with http:// or https://")
}
