package views

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/apitest"
	"github.com/balkashynov/ems/internal/models"
)

func clientFor(b *apitest.Backend, userID int) *api.Client {
	return api.New(b.URL(), api.WithTokenSource(api.StaticToken(b.Token(userID))))
}

func newBoard(t *testing.T) (*apitest.Backend, *Dashboard, models.User) {
	t.Helper()
	b := apitest.New(t)
	boss := b.AddUser("boss", "boss@example.com", "pw", models.RoleManager)
	d := NewDashboard(clientFor(b, boss.ID), nil)
	return b, d, boss
}

func TestCreateUnassignedTaskAndTrackSubtaskProgress(t *testing.T) {
	b, d, _ := newBoard(t)
	ctx := context.Background()

	task, err := d.QuickCreate(ctx, api.CreateTaskRequest{Title: "Quarterly report"})
	require.NoError(t, err)

	snap := d.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.True(t, snap.Tasks[0].IsUnassigned())
	assert.Equal(t, models.StatusOpen, snap.Tasks[0].Status)

	require.NoError(t, d.Select(ctx, task.ID))
	for _, title := range []string{"Draft", "Review", "Publish"} {
		require.NoError(t, d.AddSubtask(ctx, task.ID, title))
	}
	got, ok := d.Task(task.ID)
	require.True(t, ok)
	require.Len(t, got.Subtasks, 3)

	require.NoError(t, d.ToggleSubtask(ctx, task.ID, got.Subtasks[0].ID))
	got, _ = d.Task(task.ID)
	assert.Equal(t, 33, got.Progress())

	require.NoError(t, d.DeleteSubtask(ctx, Confirmed, task.ID, got.Subtasks[2].ID))
	got, _ = d.Task(task.ID)
	assert.Len(t, got.Subtasks, 2)
	assert.Equal(t, 50, got.Progress())

	// every edit is followed by a list refetch
	assert.Equal(t, 6, b.Count(http.MethodGet, "/tasks/"))
}

func TestToggleSubtaskSendsTitle(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	task := b.AddTask(boss.ID, models.Task{Title: "t", Subtasks: []models.Subtask{{Title: "only"}}})
	require.NoError(t, d.Load(ctx))

	st := task.Subtasks[0]
	require.NoError(t, d.ToggleSubtask(ctx, task.ID, st.ID))

	var body string
	for _, r := range b.Requests() {
		if r.Method == http.MethodPut && r.Path == "/subtasks/"+itoa(st.ID) {
			body = r.Body
		}
	}
	assert.JSONEq(t, `{"title":"only","is_completed":true}`, body)
	got, _ := d.Task(task.ID)
	assert.Equal(t, 100, got.Progress())
}

func TestAddSubtaskRejectsBlankTitleWithoutRequest(t *testing.T) {
	b, d, boss := newBoard(t)
	task := b.AddTask(boss.ID, models.Task{Title: "t"})
	b.ResetRequests()

	err := d.AddSubtask(context.Background(), task.ID, "   ")
	assert.True(t, errors.Is(err, ErrRequired))
	assert.Equal(t, "Subtask title is required", Describe("add subtask", err))
	assert.Empty(t, b.Requests())
}

func TestSelectLoadsHistoryAndDeselectClearsIt(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	task := b.AddTask(boss.ID, models.Task{Title: "t"})
	require.NoError(t, d.Load(ctx))

	require.NoError(t, d.Select(ctx, task.ID))
	snap := d.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, task.ID, snap.Selected.ID)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "created", snap.History[0].Action)
	assert.Equal(t, "boss", snap.History[0].Author())

	title := "renamed"
	require.NoError(t, d.UpdateField(ctx, task.ID, api.TaskUpdate{Title: &title}))
	snap = d.Snapshot()
	assert.Equal(t, "renamed", snap.Selected.Title)
	assert.Len(t, snap.History, 2)

	d.Deselect()
	snap = d.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.History)
}

func TestLateHistoryFromPreviousSelectionIsDropped(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	first := b.AddTask(boss.ID, models.Task{Title: "first"})
	second := b.AddTask(boss.ID, models.Task{Title: "second"})
	require.NoError(t, d.Load(ctx))

	release := b.Hold(http.MethodGet, "/tasks/"+itoa(first.ID)+"/history")
	defer release()
	done := make(chan error, 1)
	go func() { done <- d.Select(ctx, first.ID) }()
	require.Eventually(t, func() bool {
		return b.Count(http.MethodGet, "/tasks/"+itoa(first.ID)+"/history") == 1
	}, waitFor, tickEvery)

	require.NoError(t, d.Select(ctx, second.ID))
	release()
	require.NoError(t, <-done)

	snap := d.Snapshot()
	assert.Equal(t, second.ID, snap.Selected.ID)
	require.Len(t, snap.History, 1)
	assert.Equal(t, second.ID, snap.History[0].TaskID)
}

func TestStatusAndComplete(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	task := b.AddTask(boss.ID, models.Task{Title: "t"})
	require.NoError(t, d.Load(ctx))

	require.NoError(t, d.SetStatus(ctx, task.ID, models.StatusInProgress))
	got, _ := d.Task(task.ID)
	assert.Equal(t, models.StatusInProgress, got.Status)

	require.NoError(t, d.Complete(ctx, task.ID))
	got, _ = d.Task(task.ID)
	assert.True(t, got.IsCompleted())
	assert.Equal(t, 2, b.Count(http.MethodPut, "/tasks/"+itoa(task.ID)+"/status"))
}

func TestUpdateFieldClearsAssignment(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	team := b.AddTeam("Core", &boss.ID, boss.ID)
	task := b.AddTask(boss.ID, models.Task{Title: "t", TeamID: &team.ID, UserID: &boss.ID})
	require.NoError(t, d.Load(ctx))

	require.NoError(t, d.UpdateField(ctx, task.ID, api.TaskUpdate{ClearTeam: true, ClearAssignee: true}))
	got, ok := b.Task(task.ID)
	require.True(t, ok)
	assert.True(t, got.IsUnassigned())

	empty := ""
	err := d.UpdateField(ctx, task.ID, api.TaskUpdate{Title: &empty})
	assert.ErrorIs(t, err, ErrRequired)
	assert.NoError(t, d.UpdateField(ctx, task.ID, api.TaskUpdate{}))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	task := b.AddTask(boss.ID, models.Task{Title: "t", Subtasks: []models.Subtask{{Title: "s"}}})
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.Select(ctx, task.ID))
	b.ResetRequests()

	err := d.DeleteSubtask(ctx, Declined, task.ID, task.Subtasks[0].ID)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, Describe("delete subtask", err))
	assert.ErrorIs(t, d.DeleteTask(ctx, nil, task.ID), ErrCancelled)
	assert.Empty(t, b.Requests())

	var prompt string
	ask := ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return true
	})
	require.NoError(t, d.DeleteTask(ctx, ask, task.ID))
	assert.Equal(t, "Delete this task?", prompt)
	snap := d.Snapshot()
	assert.Empty(t, snap.Tasks)
	assert.Nil(t, snap.Selected)
}

func TestLoadFailureKeepsPreviousList(t *testing.T) {
	b, d, boss := newBoard(t)
	ctx := context.Background()
	b.AddTask(boss.ID, models.Task{Title: "t"})
	require.NoError(t, d.Load(ctx))

	broken := NewDashboard(api.New(b.URL(), api.WithTokenSource(api.StaticToken("bogus"))), nil)
	err := broken.Load(ctx)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "Could not validate credentials", Describe("load tasks", err))
	assert.False(t, broken.Snapshot().Loaded)

	d.Close()
	b.AddTask(boss.ID, models.Task{Title: "late"})
	require.NoError(t, d.Load(ctx))
	assert.Len(t, d.Snapshot().Tasks, 1)
}

func TestAssignMovesTaskToTeamAndMember(t *testing.T) {
	b := apitest.New(t)
	admin := b.AddUser("root", "root@example.com", "pw", models.RoleAdmin)
	ana := b.AddUser("ana", "ana@example.com", "pw", models.RoleEmployee)
	team := b.AddTeam("Core", nil, ana.ID)
	task := b.AddTask(admin.ID, models.Task{Title: "t"})
	d := NewDashboard(clientFor(b, admin.ID), nil)
	ctx := context.Background()
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.Select(ctx, task.ID))

	require.NoError(t, d.LoadTeams(ctx, models.RoleAdmin))
	require.Len(t, d.Snapshot().Teams, 1)
	members := d.Members(team.ID)
	require.Len(t, members, 1)
	assert.Equal(t, ana.ID, members[0].ID)
	assert.Nil(t, d.Members(9999))

	b.ResetRequests()
	require.NoError(t, d.UpdateField(ctx, task.ID, api.TaskUpdate{TeamID: &team.ID, UserID: &ana.ID}))

	var body string
	for _, r := range b.Requests() {
		if r.Method == http.MethodPut && r.Path == "/tasks/"+itoa(task.ID) {
			body = r.Body
		}
	}
	assert.JSONEq(t, `{"team_id":`+itoa(team.ID)+`,"user_id":`+itoa(ana.ID)+`}`, body)
	assert.Equal(t, 1, b.Count(http.MethodGet, "/tasks/"))

	snap := d.Snapshot()
	require.NotNil(t, snap.Selected)
	require.NotNil(t, snap.Selected.TeamID)
	require.NotNil(t, snap.Selected.UserID)
	assert.Equal(t, team.ID, *snap.Selected.TeamID)
	assert.Equal(t, ana.ID, *snap.Selected.UserID)
	assert.Len(t, snap.History, 3)

	require.NoError(t, d.UpdateField(ctx, task.ID, api.TaskUpdate{ClearAssignee: true}))
	got, _ := b.Task(task.ID)
	assert.Equal(t, team.ID, *got.TeamID)
	assert.Nil(t, got.UserID)
}

func TestLoadTeamsForManagerIsOwnTeam(t *testing.T) {
	b, d, boss := newBoard(t)
	team := b.AddTeam("Core", &boss.ID, boss.ID)
	b.AddTeam("Other", nil)

	require.NoError(t, d.LoadTeams(context.Background(), models.RoleManager))
	teams := d.Snapshot().Teams
	require.Len(t, teams, 1)
	assert.Equal(t, team.ID, teams[0].ID)
}
