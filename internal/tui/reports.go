package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

type reportsScreen struct {
	env     *env
	reports *views.Reports
	flash   flash
}

func newReportsScreen(e *env) Screen {
	return reportsScreen{env: e, reports: views.NewReports(e.client, e.logger)}
}

func (s reportsScreen) Init() tea.Cmd {
	return s.env.do(s.reports, "load reports", s.reports.Load)
}

func (s reportsScreen) Capturing() bool { return false }
func (s reportsScreen) Close()          { s.reports.Close() }
func (s reportsScreen) Help() string    { return "r reload" }

func (s reportsScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		if msg.owner == s.reports {
			s.flash.result(msg.action, msg.err, "")
		}
	case tea.KeyMsg:
		if msg.String() == "r" {
			return s, s.env.do(s.reports, "load reports", s.reports.Load)
		}
	}
	return s, nil
}

// bars renders one labelled bar per row, scaled to the largest count
func bars(labels []string, counts []int, width int) string {
	top := 0
	for _, c := range counts {
		top = max(top, c)
	}
	barWidth := max(width-28, 5)
	lines := make([]string, len(labels))
	for i, label := range labels {
		percent := 0
		if top > 0 {
			percent = counts[i] * 100 / top
		}
		lines[i] = fmt.Sprintf("%-16s %s %3d", truncate(label, 16), progressBar(percent, barWidth), counts[i])
	}
	return strings.Join(lines, "\n")
}

func userBars(rows []models.UserTaskCount, width int) string {
	labels := make([]string, len(rows))
	counts := make([]int, len(rows))
	for i, r := range rows {
		labels[i], counts[i] = r.Username, r.TaskCount
	}
	return bars(labels, counts, width)
}

func (s reportsScreen) View(width, height int) string {
	snap := s.reports.Snapshot()
	half := (width - 1) / 2
	bodyHeight := height - 2

	left := section("📊 Tasks per user", len(snap.PerUser), snap.Loaded, userBars(snap.PerUser, half-4))

	var right string
	if snap.Workload == nil {
		right = section("⚖️ Workload by team", 0, snap.Loaded, "")
	} else {
		labels := make([]string, len(snap.Workload.Teams))
		counts := make([]int, len(snap.Workload.Teams))
		for i, t := range snap.Workload.Teams {
			labels[i], counts[i] = t.TeamName, t.TaskCount
		}
		right = section("⚖️ Workload by team", len(labels), snap.Loaded, bars(labels, counts, width-half-5))
		if len(snap.Workload.TopUsers) > 0 {
			right += "\n\n" + headerStyle.Render("🏆 Busiest users") + "\n\n" + userBars(snap.Workload.TopUsers, width-half-5)
		}
	}

	cols := lipgloss.JoinHorizontal(lipgloss.Top,
		panel(half, bodyHeight, true, left),
		" ",
		panel(width-half-1, bodyHeight, false, right),
	)
	return lipgloss.JoinVertical(lipgloss.Left, cols, s.flash.View())
}
