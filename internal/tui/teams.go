package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/views"
)

type teamsScreen struct {
	env   *env
	teams *views.Teams
	pager pager
	flash flash
}

func newTeamsScreen(e *env) Screen {
	return teamsScreen{env: e, teams: views.NewTeams(e.client, e.logger), pager: newPager(10)}
}

func (s teamsScreen) Init() tea.Cmd {
	return s.env.do(s.teams, "load teams", s.teams.Load)
}

func (s teamsScreen) Capturing() bool { return false }
func (s teamsScreen) Close()          { s.teams.Close() }
func (s teamsScreen) Help() string {
	return "↑/↓ nav · enter open · n new team · D delete · r reload"
}

func (s teamsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	teams := s.teams.Snapshot().Teams
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.pager = s.pager.resize(msg.Height-8, len(teams))
	case doneMsg:
		if msg.owner == s.teams {
			s.flash.result(msg.action, msg.err, "")
			s.pager = s.pager.clamp(len(s.teams.Snapshot().Teams))
		}
	case tea.KeyMsg:
		if p, moved := s.pager.handleKey(msg.String(), len(teams)); moved {
			s.pager = p
			return s, nil
		}
		switch msg.String() {
		case "r":
			return s, s.env.do(s.teams, "load teams", s.teams.Load)
		case "n":
			return s, navigate(guard.PathCreateTeam)
		}
		if len(teams) == 0 {
			return s, nil
		}
		team := teams[s.pager.clamp(len(teams)).selected]
		switch msg.String() {
		case "enter":
			return s, navigate(guard.Fill(guard.PathTeamDetail, "id", fmt.Sprint(team.ID)))
		case "D":
			return s, s.env.do(s.teams, "delete team", func(ctx context.Context) error {
				return s.teams.Delete(ctx, s.env.confirm, team.ID)
			})
		}
	}
	return s, nil
}

func (s teamsScreen) View(width, height int) string {
	snap := s.teams.Snapshot()
	s.pager = s.pager.clamp(len(snap.Teams))

	rows := make([]string, len(snap.Teams))
	for i, t := range snap.Teams {
		manager := "no manager"
		if t.Manager != nil {
			manager = t.Manager.DisplayName()
		}
		rows[i] = fmt.Sprintf("%-4d %-24s %2d members  %s", t.ID, truncate(t.Name, 24), len(t.Members), manager)
	}
	body := section("🏢 Teams", len(snap.Teams), snap.Loaded, s.pager.render(rows, true, s.env.shimmer.Render))
	if len(snap.Teams) > 0 {
		if d := snap.Teams[s.pager.selected].Description; d != "" {
			body += "\n\n" + mutedStyle.Width(width-6).Render(d)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, panel(width, height-2, true, body), s.flash.View())
}

type createTeamScreen struct {
	env   *env
	teams *views.Teams
	form  form
	flash flash
}

func newCreateTeamScreen(e *env) Screen {
	return createTeamScreen{
		env:   e,
		teams: views.NewTeams(e.client, e.logger),
		form: newForm(
			textField("Name", "required", 100),
			textField("Description", "optional", 500),
		),
	}
}

func (s createTeamScreen) Init() tea.Cmd   { return s.form.Init() }
func (s createTeamScreen) Capturing() bool { return true }
func (s createTeamScreen) Close()          { s.teams.Close() }
func (s createTeamScreen) Help() string    { return "tab next · enter/ctrl+s create · esc back" }

func (s createTeamScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(msg.Width / 2)
		return s, nil
	case doneMsg:
		if msg.owner != s.teams {
			return s, nil
		}
		if msg.err != nil {
			s.flash.result(msg.action, msg.err, "")
			return s, nil
		}
		// the detail screen is where members get added next
		return s, navigate(msg.note)
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
	name, desc := s.form.Value(0), s.form.Value(1)
	return s, s.env.doNote(s.teams, "create team", func(ctx context.Context) (string, error) {
		team, err := s.teams.Create(ctx, name, desc)
		if err != nil {
			return "", err
		}
		return guard.Fill(guard.PathTeamDetail, "id", fmt.Sprint(team.ID)), nil
	})
}

func (s createTeamScreen) View(width, height int) string {
	body := headerStyle.Render("➕ Create team") + "\n\n" + s.form.View()
	if f := s.flash.View(); f != "" {
		body += "\n\n" + f
	}
	return panel(width, height, true, body)
}

// memberLine renders a member row, tagging the manager
func memberLine(name, email string, manager bool) string {
	line := fmt.Sprintf("%-16s %s", truncate(name, 16), email)
	if manager {
		line += " ★"
	}
	return strings.TrimSpace(line)
}
