package views

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/ems/internal/apitest"
	"github.com/balkashynov/ems/internal/models"
)

const (
	waitFor   = time.Second
	tickEvery = 5 * time.Millisecond
)

func itoa(n int) string { return strconv.Itoa(n) }

type teamFixture struct {
	b       *apitest.Backend
	admin   models.User
	manager models.User
	member  models.User
	outside models.User
	team    models.Team
}

func newTeamFixture(t *testing.T) teamFixture {
	t.Helper()
	b := apitest.New(t)
	f := teamFixture{
		b:       b,
		admin:   b.AddUser("root", "root@example.com", "pw", models.RoleAdmin),
		manager: b.AddUser("mia", "mia@example.com", "pw", models.RoleManager),
		member:  b.AddUser("eli", "eli@example.com", "pw", models.RoleEmployee),
		outside: b.AddUser("ola", "ola@example.com", "pw", models.RoleEmployee),
	}
	f.team = b.AddTeam("Platform", &f.manager.ID, f.manager.ID, f.member.ID)
	return f
}

func TestTeamsCreateAndDelete(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	teams := NewTeams(clientFor(f.b, f.admin.ID), nil)
	require.NoError(t, teams.Load(ctx))
	require.Len(t, teams.Snapshot().Teams, 1)

	f.b.ResetRequests()
	_, err := teams.Create(ctx, "  ", "no name")
	assert.ErrorIs(t, err, ErrRequired)
	assert.Empty(t, f.b.Requests())

	created, err := teams.Create(ctx, "Data", "pipelines")
	require.NoError(t, err)
	assert.Equal(t, "Data", created.Name)
	assert.Len(t, teams.Snapshot().Teams, 2)

	_, err = teams.Create(ctx, "Data", "")
	assert.Equal(t, "Team name already exists", Describe("create team", err))

	assert.ErrorIs(t, teams.Delete(ctx, Declined, created.ID), ErrCancelled)
	require.NoError(t, teams.Delete(ctx, Confirmed, created.ID))
	assert.Len(t, teams.Snapshot().Teams, 1)
}

func TestTeamDetailLoadsTeamAndUsersConcurrently(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	b := f.b
	b.AddTask(f.admin.ID, models.Task{Title: "open", TeamID: &f.team.ID})
	b.AddTask(f.admin.ID, models.Task{Title: "done", TeamID: &f.team.ID, Status: models.StatusCompleted})

	d := NewTeamDetail(clientFor(b, f.admin.ID), nil, f.team.ID)
	require.NoError(t, d.Load(ctx))
	assert.Equal(t, 1, b.Count(http.MethodGet, "/teams/"+itoa(f.team.ID)))
	assert.Equal(t, 1, b.Count(http.MethodGet, "/admin/users"))

	snap := d.Snapshot()
	require.NotNil(t, snap.Team)
	assert.Equal(t, "Platform", snap.Team.Name)
	assert.Len(t, snap.Users, 4)

	var candidates []string
	for _, u := range snap.Candidates {
		candidates = append(candidates, u.Username)
	}
	assert.ElementsMatch(t, []string{"root", "ola"}, candidates)

	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "open", snap.Tasks[0].Title)
	d.SetFilter(FilterAll)
	assert.Len(t, d.Snapshot().Tasks, 2)
}

func TestTeamDetailMissingTeam(t *testing.T) {
	f := newTeamFixture(t)
	d := NewTeamDetail(clientFor(f.b, f.admin.ID), nil, 9999)
	err := d.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Team not found", Describe("load team", err))
	assert.Nil(t, d.Snapshot().Team)
}

func TestRemovingManagerIsBlockedWithoutRequest(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	d := NewTeamDetail(clientFor(f.b, f.admin.ID), nil, f.team.ID)
	require.NoError(t, d.Load(ctx))
	f.b.ResetRequests()

	err := d.RemoveMember(ctx, Confirmed, f.manager.ID)
	assert.ErrorIs(t, err, ErrRemoveManager)
	assert.Equal(t, "Cannot remove the Team Manager. Please assign a new manager first.", Describe("remove member", err))
	assert.Empty(t, f.b.Requests())
}

func TestAddAndRemoveMemberRefetch(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	d := NewTeamDetail(clientFor(f.b, f.admin.ID), nil, f.team.ID)
	require.NoError(t, d.Load(ctx))

	require.NoError(t, d.AddMember(ctx, f.outside.ID))
	snap := d.Snapshot()
	assert.True(t, snap.Team.HasMember(f.outside.ID))
	for _, u := range snap.Candidates {
		assert.NotEqual(t, f.outside.ID, u.ID)
	}

	assert.ErrorIs(t, d.RemoveMember(ctx, Declined, f.outside.ID), ErrCancelled)
	require.NoError(t, d.RemoveMember(ctx, Confirmed, f.outside.ID))
	assert.False(t, d.Snapshot().Team.HasMember(f.outside.ID))
	assert.Equal(t, 3, f.b.Count(http.MethodGet, "/teams/"+itoa(f.team.ID)))
}

func TestAssignManagerWarnsForNonMember(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	d := NewTeamDetail(clientFor(f.b, f.admin.ID), nil, f.team.ID)
	require.NoError(t, d.Load(ctx))

	warning, err := d.AssignManager(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.True(t, d.Snapshot().Team.IsManager(f.member.ID))

	warning, err = d.AssignManager(ctx, f.outside.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, warning)

	var query string
	for _, r := range f.b.Requests() {
		if r.Method == http.MethodPut && r.Path == "/teams/"+itoa(f.team.ID)+"/manager" {
			query = r.RawQuery
		}
	}
	assert.Equal(t, "manager_id="+itoa(f.outside.ID), query)
}

func TestDeleteTeamClosesDetail(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	d := NewTeamDetail(clientFor(f.b, f.admin.ID), nil, f.team.ID)
	require.NoError(t, d.Load(ctx))

	require.NoError(t, d.Delete(ctx, Confirmed))
	assert.True(t, d.Snapshot().Deleted)
	_, ok := f.b.Team(f.team.ID)
	assert.False(t, ok)
}

func TestTeamDashboardAssign(t *testing.T) {
	f := newTeamFixture(t)
	ctx := context.Background()
	td := NewTeamDashboard(clientFor(f.b, f.manager.ID), nil)

	_, err := td.Assign(ctx, "x", "", nil)
	assert.Error(t, err)

	require.NoError(t, td.Load(ctx))
	snap := td.Snapshot()
	require.NotNil(t, snap.Team)
	assert.Equal(t, f.team.ID, snap.Team.ID)

	task, err := td.Assign(ctx, "Rotate keys", "before friday", &f.member.ID)
	require.NoError(t, err)
	require.NotNil(t, task.TeamID)
	assert.Equal(t, f.team.ID, *task.TeamID)
	assert.Len(t, td.Snapshot().Team.Tasks, 1)

	employee := NewTeamDashboard(clientFor(f.b, f.member.ID), nil)
	require.NoError(t, employee.Load(ctx))
	_, err = employee.Assign(ctx, "Nope", "", nil)
	assert.Equal(t, "Not enough permissions", Describe("assign task", err))

	lonely := NewTeamDashboard(clientFor(f.b, f.outside.ID), nil)
	err = lonely.Load(ctx)
	assert.Equal(t, "You are not part of a team", Describe("load team", err))
}
