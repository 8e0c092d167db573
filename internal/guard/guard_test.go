package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/session"
)

func as(role models.Role) session.State {
	return session.State{User: &models.User{ID: 1, Email: "x@example.com", Role: role}, Token: "t"}
}

func TestDecide(t *testing.T) {
	admins := []models.Role{models.RoleAdmin}

	assert.Equal(t, Pending, Decide(session.State{Loading: true}, admins))
	assert.Equal(t, Pending, Decide(session.State{Loading: true, User: &models.User{Role: models.RoleAdmin}}, admins))
	assert.Equal(t, RedirectLogin, Decide(session.State{}, nil))
	assert.Equal(t, RedirectHome, Decide(as(models.RoleEmployee), admins))
	assert.Equal(t, Render, Decide(as(models.RoleAdmin), admins))
	assert.Equal(t, Render, Decide(as(models.RoleEmployee), nil))
}

func TestResolveMatrix(t *testing.T) {
	cases := []struct {
		path                     string
		employee, manager, admin string
	}{
		{"/", "/", "/", "/"},
		{"/profile", "/profile", "/profile", "/profile"},
		{"/users", "/", "/", "/users"},
		{"/admin/users/create", "/", "/", "/admin/users/create"},
		{"/admin/pending-users", "/", "/", "/admin/pending-users"},
		{"/admin/teams", "/", "/", "/admin/teams"},
		{"/admin/teams/create", "/", "/", "/admin/teams/create"},
		{"/admin/teams/7", "/", "/", "/admin/teams/7"},
		{"/tasks/create", "/", "/tasks/create", "/tasks/create"},
		{"/tasks/12", "/tasks/12", "/tasks/12", "/tasks/12"},
		{"/team-dashboard", "/team-dashboard", "/team-dashboard", "/"},
		{"/reports", "/", "/reports", "/reports"},
		{"/nowhere", "/", "/", "/"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, _ := Resolve(as(models.RoleEmployee), tc.path)
			assert.Equal(t, tc.employee, got, "employee")
			got, _ = Resolve(as(models.RoleManager), tc.path)
			assert.Equal(t, tc.manager, got, "manager")
			got, _ = Resolve(as(models.RoleAdmin), tc.path)
			assert.Equal(t, tc.admin, got, "admin")
		})
	}
}

func TestResolveAnonymous(t *testing.T) {
	for _, path := range []string{"/", "/users", "/tasks/create", "/admin/teams/3", "/unknown"} {
		got, d := Resolve(session.State{}, path)
		assert.Equal(t, PathLogin, got, path)
		assert.Equal(t, RedirectLogin, d, path)
	}
	for _, path := range []string{"/login", "/register", "/forgot-password"} {
		got, d := Resolve(session.State{}, path)
		assert.Equal(t, path, got)
		assert.Equal(t, Render, d)
	}
}

func TestResolveWhileLoadingDoesNotRedirect(t *testing.T) {
	got, d := Resolve(session.State{Loading: true}, "/users")
	assert.Equal(t, "/users", got)
	assert.Equal(t, Pending, d)
}

func TestMatchParamsAndLiterals(t *testing.T) {
	r, params, ok := Match("/admin/teams/42")
	assert.True(t, ok)
	assert.Equal(t, PathTeamDetail, r.Path)
	assert.Equal(t, "42", params["id"])

	r, params, ok = Match("/admin/teams/create/")
	assert.True(t, ok)
	assert.Equal(t, PathCreateTeam, r.Path)
	assert.Empty(t, params)

	_, _, ok = Match("/admin/teams/4/extra")
	assert.False(t, ok)

	r, _, ok = Match("/users?search=ana")
	assert.True(t, ok)
	assert.Equal(t, PathUsers, r.Path)
}

func TestAllowed(t *testing.T) {
	emp := &models.User{Role: models.RoleEmployee}
	mgr := &models.User{Role: models.RoleManager}

	assert.True(t, Allowed(emp, PathTeamDashboard))
	assert.False(t, Allowed(emp, PathReports))
	assert.True(t, Allowed(mgr, PathCreateTask))
	assert.False(t, Allowed(mgr, PathUsers))
	assert.False(t, Allowed(nil, PathHome))
	assert.True(t, Allowed(nil, PathLogin))
	assert.False(t, Allowed(emp, "/bogus"))
}

func TestFill(t *testing.T) {
	assert.Equal(t, "/admin/teams/9", Fill(PathTeamDetail, "id", "9"))
}
