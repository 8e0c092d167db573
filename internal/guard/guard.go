// Package guard decides, from the session snapshot alone, whether a route
// renders or redirects.
package guard

import (
	"strings"

	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/session"
)

// Decision is the outcome of a guard check
type Decision int

const (
	// Pending means the session is still loading; render nothing yet
	Pending Decision = iota
	Render
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Well-known paths
const (
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathForgotPassword = "/forgot-password"
	PathHome           = "/"
	PathProfile        = "/profile"
	PathUsers          = "/users"
	PathCreateUser     = "/admin/users/create"
	PathPendingUsers   = "/admin/pending-users"
	PathTeams          = "/admin/teams"
	PathCreateTeam     = "/admin/teams/create"
	PathTeamDetail     = "/admin/teams/:id"
	PathCreateTask     = "/tasks/create"
	PathTask           = "/tasks/:id"
	PathTeamDashboard  = "/team-dashboard"
	PathReports        = "/reports"
)

// Route is one entry of the route table. Public routes skip the guard; a
// protected route with no roles admits any authenticated user.
type Route struct {
	Path   string
	Public bool
	Roles  []models.Role
}

var (
	admin          = []models.Role{models.RoleAdmin}
	adminOrManager = []models.Role{models.RoleAdmin, models.RoleManager}
)

// Routes is the client route table
var Routes = []Route{
	{Path: PathLogin, Public: true},
	{Path: PathRegister, Public: true},
	{Path: PathForgotPassword, Public: true},
	{Path: PathHome},
	{Path: PathProfile},
	{Path: PathUsers, Roles: admin},
	{Path: PathCreateUser, Roles: admin},
	{Path: PathPendingUsers, Roles: admin},
	{Path: PathTeams, Roles: admin},
	{Path: PathCreateTeam, Roles: admin},
	{Path: PathTeamDetail, Roles: admin},
	{Path: PathCreateTask, Roles: adminOrManager},
	{Path: PathTask},
	{Path: PathTeamDashboard, Roles: []models.Role{models.RoleManager, models.RoleEmployee}},
	{Path: PathReports, Roles: adminOrManager},
}

// Decide is the pure guard: loading waits, anonymous goes to login, a role
// outside roles goes home. Empty roles admit any authenticated user.
func Decide(st session.State, roles []models.Role) Decision {
	switch {
	case st.Loading:
		return Pending
	case st.User == nil:
		return RedirectLogin
	case len(roles) > 0 && !st.User.Role.In(roles...):
		return RedirectHome
	}
	return Render
}

// Match finds the route for path and extracts its parameters. Literal
// routes win over parameterised ones.
func Match(path string) (Route, map[string]string, bool) {
	path = normalize(path)
	var (
		best   Route
		params map[string]string
		found  bool
	)
	for _, r := range Routes {
		p, ok := match(r.Path, path)
		if !ok {
			continue
		}
		if len(p) == 0 {
			return r, nil, true
		}
		if !found {
			best, params, found = r, p, true
		}
	}
	return best, params, found
}

func match(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range ps {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[name] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// Resolve returns where a navigation to path ends up, and the decision that
// got it there. Unknown paths resolve to home first; Pending keeps the path.
func Resolve(st session.State, path string) (string, Decision) {
	path = normalize(path)
	r, _, ok := Match(path)
	if !ok {
		path = PathHome
		r, _, _ = Match(path)
	}
	if r.Public {
		return path, Render
	}
	d := Decide(st, r.Roles)
	switch d {
	case RedirectLogin:
		return PathLogin, d
	case RedirectHome:
		return PathHome, d
	}
	return path, d
}

// Allowed reports whether user may open path, for hiding navigation entries
func Allowed(user *models.User, path string) bool {
	r, _, ok := Match(path)
	if !ok {
		return false
	}
	if r.Public {
		return true
	}
	return Decide(session.State{User: user}, r.Roles) == Render
}

// Fill substitutes params into a route pattern, e.g. Fill(PathTeamDetail, "id", "4")
func Fill(pattern string, kv ...string) string {
	out := pattern
	for i := 0; i+1 < len(kv); i += 2 {
		out = strings.Replace(out, ":"+kv[i], kv[i+1], 1)
	}
	return out
}
