package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// profileScreen shows the signed-in user; it has nothing to load
type profileScreen struct {
	env *env
}

func newProfileScreen(e *env) Screen {
	return profileScreen{env: e}
}

func (s profileScreen) Init() tea.Cmd                    { return nil }
func (s profileScreen) Update(tea.Msg) (Screen, tea.Cmd) { return s, nil }
func (s profileScreen) Capturing() bool                  { return false }
func (s profileScreen) Close()                           {}
func (s profileScreen) Help() string                     { return "backspace back" }

func (s profileScreen) View(width, height int) string {
	u := s.env.user()
	if u == nil {
		return panel(width, height, true, mutedStyle.Render("Not signed in"))
	}
	joined := ""
	if t := u.CreatedAt.Ptr(); t != nil {
		joined = t.Local().Format("02/01/2006")
	}
	status := successStyle.Render("active")
	if !u.IsActive {
		status = warningStyle.Render("pending approval")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("👤 " + u.DisplayName()))
	b.WriteString("\n\n")
	for _, line := range []string{
		field("Username", u.Username),
		field("Name", u.Name),
		field("Email", u.Email),
		field("Role", string(u.Role)),
		field("Team", u.TeamName),
		field("Date of birth", u.DOB),
		field("Mobile", u.MobileNumber),
		field("Member since", joined),
		labelStyle.Render("Status: ") + status,
	} {
		b.WriteString(line + "\n")
	}
	return panel(width, height, true, strings.TrimRight(b.String(), "\n"))
}
