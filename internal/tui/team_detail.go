package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

const (
	paneMembers = iota
	paneCandidates
	paneTasks
	paneCount
)

type teamDetailScreen struct {
	env    *env
	detail *views.TeamDetail

	pane  int
	panes [paneCount]pager
	flash flash
}

func newTeamDetailScreen(e *env, teamID int) Screen {
	s := teamDetailScreen{env: e, detail: views.NewTeamDetail(e.client, e.logger, teamID)}
	for i := range s.panes {
		s.panes[i] = newPager(8)
	}
	return s
}

func (s teamDetailScreen) Init() tea.Cmd {
	return s.env.do(s.detail, "load team", s.detail.Load)
}

func (s teamDetailScreen) Capturing() bool { return false }
func (s teamDetailScreen) Close()          { s.detail.Close() }

func (s teamDetailScreen) Help() string {
	switch s.pane {
	case paneMembers:
		return "tab pane · ↑/↓ nav · m make manager · x remove · D delete team · r reload"
	case paneCandidates:
		return "tab pane · ↑/↓ nav · enter add to team · m make manager · D delete team"
	}
	return "tab pane · ↑/↓ nav · enter edit task · f active/all · D delete team · r reload"
}

func (s teamDetailScreen) rows(snap views.TeamDetailSnapshot, pane int) int {
	switch pane {
	case paneMembers:
		if snap.Team == nil {
			return 0
		}
		return len(snap.Team.Members)
	case paneCandidates:
		return len(snap.Candidates)
	}
	return len(snap.Tasks)
}

func (s teamDetailScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	snap := s.detail.Snapshot()
	switch msg := msg.(type) {
	case doneMsg:
		if msg.owner != s.detail {
			return s, nil
		}
		if snap.Deleted {
			return s, navigate(guard.PathTeams)
		}
		s.flash.result(msg.action, msg.err, msg.note)
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg.String(), snap)
	}
	return s, nil
}

func (s teamDetailScreen) handleKey(key string, snap views.TeamDetailSnapshot) (Screen, tea.Cmd) {
	switch key {
	case "tab":
		s.pane = (s.pane + 1) % paneCount
		return s, nil
	case "shift+tab":
		s.pane = (s.pane + paneCount - 1) % paneCount
		return s, nil
	case "r":
		return s, s.env.do(s.detail, "load team", s.detail.Load)
	case "f":
		if snap.Filter == views.FilterActive {
			s.detail.SetFilter(views.FilterAll)
		} else {
			s.detail.SetFilter(views.FilterActive)
		}
		return s, nil
	case "D":
		if snap.Team == nil {
			return s, nil
		}
		return s, s.env.do(s.detail, "delete team", func(ctx context.Context) error {
			return s.detail.Delete(ctx, s.env.confirm)
		})
	}

	n := s.rows(snap, s.pane)
	if p, moved := s.panes[s.pane].handleKey(key, n); moved {
		s.panes[s.pane] = p
		return s, nil
	}
	if n == 0 || snap.Team == nil {
		return s, nil
	}
	i := s.panes[s.pane].clamp(n).selected

	var user models.User
	switch s.pane {
	case paneMembers:
		user = snap.Team.Members[i]
	case paneCandidates:
		user = snap.Candidates[i]
	default:
		if key == "enter" {
			return s, navigate(guard.Fill(guard.PathTask, "id", fmt.Sprint(snap.Tasks[i].ID)))
		}
		return s, nil
	}
	id := user.ID

	switch {
	case key == "m":
		return s, s.env.doNote(s.detail, "assign manager", func(ctx context.Context) (string, error) {
			warning, err := s.detail.AssignManager(ctx, id)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(fmt.Sprintf("%s is now the manager. %s", user.DisplayName(), warning)), nil
		})
	case key == "x" && s.pane == paneMembers:
		return s, s.env.do(s.detail, "remove member", func(ctx context.Context) error {
			return s.detail.RemoveMember(ctx, s.env.confirm, id)
		})
	case (key == "enter" || key == "a") && s.pane == paneCandidates:
		return s, s.env.doNote(s.detail, "add member", func(ctx context.Context) (string, error) {
			if err := s.detail.AddMember(ctx, id); err != nil {
				return "", err
			}
			return user.DisplayName() + " added to the team", nil
		})
	}
	return s, nil
}

func (s teamDetailScreen) View(width, height int) string {
	snap := s.detail.Snapshot()
	if snap.Team == nil {
		body := mutedStyle.Render("Loading team...")
		if s.flash.err {
			body = s.flash.View()
		}
		return panel(width, height-2, true, body)
	}
	team := snap.Team
	for p := range s.panes {
		s.panes[p] = s.panes[p].clamp(s.rows(snap, p))
	}

	manager := "none"
	if team.Manager != nil {
		manager = team.Manager.DisplayName()
	} else if team.ManagerID != nil {
		if m, ok := team.Member(*team.ManagerID); ok {
			manager = m.DisplayName()
		}
	}
	header := headerStyle.Render("🏢 "+team.Name) + "  " + labelStyle.Render("manager: "+manager)
	if team.Description != "" {
		header += "\n" + mutedStyle.Render(truncate(team.Description, width-4))
	}

	colWidth := (width - 2) / 3
	bodyHeight := height - lipgloss.Height(header) - 2

	members := make([]string, len(team.Members))
	for i, u := range team.Members {
		members[i] = memberLine(u.DisplayName(), truncate(u.Email, colWidth-24), team.IsManager(u.ID))
	}
	candidates := make([]string, len(snap.Candidates))
	for i, u := range snap.Candidates {
		current := u.TeamName
		if current == "" {
			current = "no team"
		}
		candidates[i] = fmt.Sprintf("%-16s %s", truncate(u.DisplayName(), 16), truncate(current, colWidth-24))
	}
	tasks := make([]string, len(snap.Tasks))
	for i, t := range snap.Tasks {
		mark := "○"
		if t.IsCompleted() {
			mark = "✓"
		}
		tasks[i] = fmt.Sprintf("%s %s", mark, truncate(t.Title, colWidth-8))
	}

	cols := lipgloss.JoinHorizontal(lipgloss.Top,
		panel(colWidth, bodyHeight, s.pane == paneMembers,
			section("👥 Members", len(members), snap.Loaded, s.panes[paneMembers].render(members, s.pane == paneMembers, nil))),
		" ",
		panel(colWidth, bodyHeight, s.pane == paneCandidates,
			section("➕ Add members", len(candidates), snap.Loaded, s.panes[paneCandidates].render(candidates, s.pane == paneCandidates, nil))),
		" ",
		panel(width-2*colWidth-2, bodyHeight, s.pane == paneTasks,
			section(fmt.Sprintf("📋 Tasks [%s]", snap.Filter), len(tasks), snap.Loaded, s.panes[paneTasks].render(tasks, s.pane == paneTasks, nil))),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, cols, s.flash.View())
}
