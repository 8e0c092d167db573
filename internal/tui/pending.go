package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/views"
)

// copyToClipboard is swapped in tests; headless CI has no clipboard
var copyToClipboard = clipboard.WriteAll

type pendingScreen struct {
	env       *env
	approvals *views.Approvals

	focusResets bool
	users       pager
	resets      pager
	temp        string // temporary password from the last reset
	tempFor     string
	flash       flash
}

func newPendingScreen(e *env) Screen {
	return pendingScreen{
		env:       e,
		approvals: views.NewApprovals(e.client, e.logger),
		users:     newPager(8),
		resets:    newPager(8),
	}
}

func (s pendingScreen) Init() tea.Cmd {
	return s.env.do(s.approvals, "load pending requests", s.approvals.Load)
}

func (s pendingScreen) Capturing() bool { return false }
func (s pendingScreen) Close()          { s.approvals.Close() }

func (s pendingScreen) Help() string {
	if s.temp != "" {
		return "y copy password · esc hide · tab switch list · r reload"
	}
	return "↑/↓ nav · tab switch list · enter approve/reset · r reload"
}

func (s pendingScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	snap := s.approvals.Snapshot()
	switch msg := msg.(type) {
	case doneMsg:
		if msg.owner != s.approvals {
			return s, nil
		}
		if msg.action == "reset password" && msg.err == nil {
			s.temp = msg.note
			s.flash.clear()
			return s, nil
		}
		s.flash.result(msg.action, msg.err, "")
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg, snap)
	}
	return s, nil
}

func (s pendingScreen) handleKey(msg tea.KeyMsg, snap views.ApprovalsSnapshot) (Screen, tea.Cmd) {
	key := msg.String()
	switch key {
	case "tab":
		s.focusResets = !s.focusResets
		return s, nil
	case "r":
		return s, s.env.do(s.approvals, "load pending requests", s.approvals.Load)
	case "y":
		if s.temp == "" {
			return s, nil
		}
		if err := copyToClipboard(s.temp); err != nil {
			s.env.logger.Warn("clipboard unavailable", "error", err)
			s.flash = flash{text: "Could not copy to clipboard", err: true}
		} else {
			s.flash = flash{text: "Temporary password copied"}
		}
		return s, nil
	case "esc":
		s.temp, s.tempFor = "", ""
		s.flash.clear()
		return s, nil
	}

	if !s.focusResets {
		if p, moved := s.users.handleKey(key, len(snap.Pending)); moved {
			s.users = p
			return s, nil
		}
		if (key == "enter" || key == "a") && len(snap.Pending) > 0 {
			u := snap.Pending[s.users.clamp(len(snap.Pending)).selected]
			return s, s.env.doNote(s.approvals, "approve user", func(ctx context.Context) (string, error) {
				if err := s.approvals.Approve(ctx, u.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("%s approved", u.DisplayName()), nil
			})
		}
		return s, nil
	}

	if p, moved := s.resets.handleKey(key, len(snap.Resets)); moved {
		s.resets = p
		return s, nil
	}
	if key == "enter" && len(snap.Resets) > 0 {
		req := snap.Resets[s.resets.clamp(len(snap.Resets)).selected]
		s.tempFor = req.Email
		return s, s.env.doNote(s.approvals, "reset password", func(ctx context.Context) (string, error) {
			return s.approvals.Reset(ctx, req.ID)
		})
	}
	return s, nil
}

func (s pendingScreen) View(width, height int) string {
	snap := s.approvals.Snapshot()
	s.users = s.users.clamp(len(snap.Pending))
	s.resets = s.resets.clamp(len(snap.Resets))

	half := (width - 1) / 2
	bodyHeight := height - 2
	if s.temp != "" {
		bodyHeight -= 5
	}

	userRows := make([]string, len(snap.Pending))
	for i, u := range snap.Pending {
		userRows[i] = fmt.Sprintf("%-16s %s", truncate(u.Username, 16), truncate(u.Email, half-24))
	}
	resetRows := make([]string, len(snap.Resets))
	for i, r := range snap.Resets {
		when := ""
		if t := r.CreatedAt.Ptr(); t != nil {
			when = t.Local().Format("02/01 15:04")
		}
		resetRows[i] = fmt.Sprintf("%-11s %s", when, truncate(r.Email, half-20))
	}

	left := panel(half, bodyHeight, !s.focusResets,
		section("⏳ Pending approvals", len(snap.Pending), snap.Loaded, s.users.render(userRows, !s.focusResets, nil)))
	right := panel(width-half-1, bodyHeight, s.focusResets,
		section("🔑 Password resets", len(snap.Resets), snap.Loaded, s.resets.render(resetRows, s.focusResets, nil)))

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)}
	if s.temp != "" {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorWarning)).
			Padding(0, 1).
			Render(fmt.Sprintf("Temporary password for %s: %s\n%s",
				s.tempFor, selectedStyle.Render(s.temp),
				mutedStyle.Render("Shown once. Press y to copy, esc to hide.")))
		parts = append(parts, box)
	}
	parts = append(parts, s.flash.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// section renders a titled list body with loading and empty states
func section(title string, n int, loaded bool, rows string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", title, n)))
	b.WriteString("\n\n")
	switch {
	case !loaded:
		b.WriteString(mutedStyle.Render("Loading..."))
	case n == 0:
		b.WriteString(mutedStyle.Render("Nothing waiting"))
	default:
		b.WriteString(rows)
	}
	return b.String()
}
