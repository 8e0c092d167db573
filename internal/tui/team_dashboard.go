package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/views"
)

const (
	tdTitle = iota
	tdDescription
	tdAssignee
)

// teamDashboardScreen is the manager's view of their own team
type teamDashboardScreen struct {
	env     *env
	board   *views.TeamDashboard
	tasks   pager
	form    form
	editing bool
	flash   flash
}

func newTeamDashboardScreen(e *env) Screen {
	return teamDashboardScreen{
		env:   e,
		board: views.NewTeamDashboard(e.client, e.logger),
		tasks: newPager(10),
		form: newForm(
			textField("Title", "required", 200),
			textField("Description", "optional", 1000),
			choiceField("Assignee", "whole team"),
		),
	}
}

func (s teamDashboardScreen) Init() tea.Cmd {
	return s.env.do(s.board, "load team", s.board.Load)
}

func (s teamDashboardScreen) Capturing() bool { return s.editing }
func (s teamDashboardScreen) Close()          { s.board.Close() }

func (s teamDashboardScreen) Help() string {
	if s.editing {
		return "tab next · ←/→ assignee · enter/ctrl+s assign · esc cancel"
	}
	return "↑/↓ nav · a assign task · r reload"
}

func (s *teamDashboardScreen) syncAssignees() {
	snap := s.board.Snapshot()
	opts := []string{"whole team"}
	if snap.Team != nil {
		for _, u := range snap.Team.Members {
			opts = append(opts, u.DisplayName())
		}
	}
	s.form.SetOptions(tdAssignee, opts)
}

func (s teamDashboardScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	snap := s.board.Snapshot()
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(msg.Width / 2)
		return s, nil
	case doneMsg:
		if msg.owner != s.board {
			return s, nil
		}
		s.flash.result(msg.action, msg.err, msg.note)
		s.syncAssignees()
		if msg.action == "assign task" && msg.err == nil {
			s.editing = false
			return s, s.form.Reset()
		}
		return s, nil
	case tea.KeyMsg:
		if !s.editing {
			return s.handleKey(msg.String(), snap)
		}
		if msg.String() == "esc" {
			s.editing = false
			return s, nil
		}
	}
	if !s.editing {
		return s, nil
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	s.form, cmd, submit = s.form.Update(msg)
	if !submit || snap.Team == nil {
		return s, cmd
	}
	title, desc := s.form.Value(tdTitle), s.form.Value(tdDescription)
	var userID *int
	if i := s.form.Choice(tdAssignee) - 1; i >= 0 && i < len(snap.Team.Members) {
		id := snap.Team.Members[i].ID
		userID = &id
	}
	return s, s.env.doNote(s.board, "assign task", func(ctx context.Context) (string, error) {
		task, err := s.board.Assign(ctx, title, desc, userID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task %q assigned - ID: %d", task.Title, task.ID), nil
	})
}

func (s teamDashboardScreen) handleKey(key string, snap views.TeamDashboardSnapshot) (Screen, tea.Cmd) {
	var n int
	if snap.Team != nil {
		n = len(snap.Team.Tasks)
	}
	if p, moved := s.tasks.handleKey(key, n); moved {
		s.tasks = p
		return s, nil
	}
	switch key {
	case "r":
		return s, s.env.do(s.board, "load team", s.board.Load)
	case "a":
		if snap.Team == nil {
			return s, nil
		}
		s.editing = true
		s.flash.clear()
		return s, s.form.Reset()
	}
	return s, nil
}

func (s teamDashboardScreen) View(width, height int) string {
	snap := s.board.Snapshot()
	if snap.Team == nil {
		body := mutedStyle.Render("Loading team...")
		switch {
		case s.flash.err:
			body = s.flash.View()
		case snap.Loaded:
			body = mutedStyle.Render("You are not managing a team yet")
		}
		return panel(width, height-2, true, body)
	}
	team := snap.Team
	s.tasks = s.tasks.clamp(len(team.Tasks))
	leftWidth := width * 40 / 100
	bodyHeight := height - 2

	var info strings.Builder
	info.WriteString(headerStyle.Render("🏢 " + team.Name))
	info.WriteString("\n")
	if team.Description != "" {
		info.WriteString(mutedStyle.Width(leftWidth-4).Render(team.Description) + "\n")
	}
	info.WriteString("\n" + labelStyle.Render(fmt.Sprintf("👥 Members (%d)", len(team.Members))) + "\n")
	for _, u := range team.Members {
		info.WriteString(memberLine(u.DisplayName(), "", team.IsManager(u.ID)) + "\n")
	}
	left := panel(leftWidth, bodyHeight, false, info.String())

	var right string
	if s.editing {
		right = headerStyle.Render("📌 Assign task") + "\n\n" + s.form.View()
	} else {
		titleWidth := max(width-leftWidth-36, 10)
		rows := make([]string, len(team.Tasks))
		for i, t := range team.Tasks {
			who := "team"
			if t.UserID != nil {
				if u, ok := team.Member(*t.UserID); ok {
					who = u.DisplayName()
				}
			}
			rows[i] = fmt.Sprintf("%s %-*s %s", statusBadge(t.Status), titleWidth, truncate(t.Title, titleWidth), truncate(who, 14))
		}
		right = section("📋 Team tasks", len(rows), snap.Loaded, s.tasks.render(rows, true, nil))
	}
	right = panel(width-leftWidth-1, bodyHeight, true, right)

	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right), s.flash.View())
}
