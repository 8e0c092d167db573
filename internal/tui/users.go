package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

const promptSearch = iota

type usersScreen struct {
	env    *env
	users  *views.Users
	pager  pager
	prompt *prompt
	flash  flash
}

func newUsersScreen(e *env) Screen {
	return usersScreen{env: e, users: views.NewUsers(e.client, e.logger), pager: newPager(10)}
}

func (s usersScreen) Init() tea.Cmd {
	return s.env.do(s.users, "load users", s.users.Load)
}

func (s usersScreen) Capturing() bool { return s.prompt != nil }
func (s usersScreen) Close()          { s.users.Close() }

func (s usersScreen) Help() string {
	if s.prompt != nil {
		return "enter search · esc cancel"
	}
	return "↑/↓ nav · / search · f role filter · x clear filter · n new user · D delete · r reload"
}

// nextRole cycles the role filter through "any" and every role
func nextRole(r models.Role) models.Role {
	if r == "" {
		return models.Roles[0]
	}
	for i, candidate := range models.Roles {
		if candidate == r && i+1 < len(models.Roles) {
			return models.Roles[i+1]
		}
	}
	return ""
}

func (s usersScreen) setFilter(filter api.UserFilter) tea.Cmd {
	return s.env.do(s.users, "load users", func(ctx context.Context) error {
		return s.users.SetFilter(ctx, filter)
	})
}

func (s usersScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	snap := s.users.Snapshot()
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.pager = s.pager.resize(msg.Height-8, len(snap.Users))
		return s, nil
	case doneMsg:
		if msg.owner == s.users {
			s.flash.result(msg.action, msg.err, msg.note)
			s.pager = s.pager.clamp(len(s.users.Snapshot().Users))
		}
		return s, nil
	case tea.KeyMsg:
		if s.prompt != nil {
			cmd, submitted, cancelled := s.prompt.update(msg)
			switch {
			case cancelled:
				s.prompt = nil
			case submitted:
				filter := snap.Filter
				filter.Search = strings.TrimSpace(s.prompt.value())
				s.prompt = nil
				return s, s.setFilter(filter)
			}
			return s, cmd
		}
		return s.handleKey(msg, snap)
	}
	return s, nil
}

func (s usersScreen) handleKey(msg tea.KeyMsg, snap views.UsersSnapshot) (Screen, tea.Cmd) {
	if p, moved := s.pager.handleKey(msg.String(), len(snap.Users)); moved {
		s.pager = p
		return s, nil
	}
	switch msg.String() {
	case "/":
		var cmd tea.Cmd
		s.prompt, cmd = newPrompt(promptSearch, 0, "Search:", "username or email", snap.Filter.Search)
		return s, cmd
	case "f":
		filter := snap.Filter
		filter.Role = nextRole(filter.Role)
		return s, s.setFilter(filter)
	case "x":
		return s, s.setFilter(api.UserFilter{})
	case "r":
		return s, s.env.do(s.users, "load users", s.users.Load)
	case "n":
		return s, navigate(guard.PathCreateUser)
	case "D":
		if len(snap.Users) == 0 {
			return s, nil
		}
		id := snap.Users[s.pager.clamp(len(snap.Users)).selected].ID
		return s, s.env.do(s.users, "delete user", func(ctx context.Context) error {
			return s.users.Delete(ctx, s.env.confirm, id)
		})
	}
	return s, nil
}

func (s usersScreen) View(width, height int) string {
	snap := s.users.Snapshot()
	s.pager = s.pager.clamp(len(snap.Users))

	bodyHeight := height - 2
	if s.prompt != nil {
		bodyHeight--
	}
	leftWidth := width * 60 / 100
	rightWidth := width - leftWidth - 1

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("👥 Users (%d)", len(snap.Users))))
	role := "any"
	if snap.Filter.Role != "" {
		role = string(snap.Filter.Role)
	}
	b.WriteString("  " + labelStyle.Render(fmt.Sprintf("search: %q · role: %s", snap.Filter.Search, role)))
	b.WriteString("\n\n")
	switch {
	case !snap.Loaded:
		b.WriteString(mutedStyle.Render("Loading users..."))
	case len(snap.Users) == 0:
		b.WriteString(mutedStyle.Render("No users match"))
	default:
		nameWidth := leftWidth / 3
		rows := make([]string, len(snap.Users))
		for i, u := range snap.Users {
			rows[i] = fmt.Sprintf("%-4d %-*s %-9s %s", u.ID, nameWidth, truncate(u.Username, nameWidth), u.Role, truncate(u.Email, leftWidth-nameWidth-22))
		}
		b.WriteString(s.pager.render(rows, true, s.env.shimmer.Render))
	}
	left := panel(leftWidth, bodyHeight, true, b.String())

	var detail string
	if len(snap.Users) > 0 {
		u := snap.Users[s.pager.selected]
		detail = strings.Join([]string{
			headerStyle.Render(u.DisplayName()),
			"",
			field("Name", u.Name),
			field("Email", u.Email),
			field("Role", string(u.Role)),
			field("Team", u.TeamName),
			field("Mobile", u.MobileNumber),
			field("Active", fmt.Sprint(u.IsActive)),
		}, "\n")
	}
	right := panel(rightWidth, bodyHeight, false, detail)

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)}
	if s.prompt != nil {
		parts = append(parts, s.prompt.view(width))
	}
	parts = append(parts, s.flash.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

const (
	cuUsername = iota
	cuName
	cuEmail
	cuPassword
	cuRole
)

type createUserScreen struct {
	env   *env
	owner any
	form  form
	flash flash
}

func newCreateUserScreen(e *env) Screen {
	roles := make([]string, len(models.Roles))
	for i, r := range models.Roles {
		roles[i] = string(r)
	}
	f := newForm(
		textField("Username", "required", 50),
		textField("Full name", "optional", 100),
		textField("Email", "required", 254),
		passwordField("Password"),
		choiceField("Role", roles...),
	)
	return createUserScreen{env: e, owner: newOwner(), form: f}
}

func (s createUserScreen) Init() tea.Cmd   { return s.form.Init() }
func (s createUserScreen) Capturing() bool { return true }
func (s createUserScreen) Close()          {}
func (s createUserScreen) Help() string {
	return "tab next · ←/→ role · enter/ctrl+s create · esc back"
}

func (s createUserScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(msg.Width / 2)
		return s, nil
	case doneMsg:
		if msg.owner == s.owner {
			s.flash.result(msg.action, msg.err, msg.note)
			if msg.err == nil {
				return s, s.form.Reset()
			}
		}
		return s, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, back
		}
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	s.form, cmd, submit = s.form.Update(msg)
	if !submit {
		return s, cmd
	}
	req := api.CreateUserRequest{
		Username: s.form.Value(cuUsername),
		Name:     s.form.Value(cuName),
		Email:    s.form.Value(cuEmail),
		Password: s.form.Raw(cuPassword),
		Role:     models.Roles[s.form.Choice(cuRole)],
	}
	return s, s.env.doNote(s.owner, "create user", func(ctx context.Context) (string, error) {
		u, err := views.CreateUser(ctx, s.env.client, req)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("User %s created as %s", u.Username, u.Role), nil
	})
}

func (s createUserScreen) View(width, height int) string {
	body := headerStyle.Render("➕ Create user") + "\n\n" + s.form.View()
	if f := s.flash.View(); f != "" {
		body += "\n\n" + f
	}
	return panel(width, height, true, body)
}
