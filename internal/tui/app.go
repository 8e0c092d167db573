package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/guard"
)

// Screen is one route's model. Capturing is true while a text input has
// focus, which turns off the app's single-key shortcuts.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	Help() string
	Capturing() bool
	Close()
}

// navEntry is a navbar item; entries the user may not open are hidden
type navEntry struct {
	label string
	path  string
}

var navEntries = []navEntry{
	{"Dashboard", guard.PathHome},
	{"My Team", guard.PathTeamDashboard},
	{"New Task", guard.PathCreateTask},
	{"Users", guard.PathUsers},
	{"Pending", guard.PathPendingUsers},
	{"Teams", guard.PathTeams},
	{"Reports", guard.PathReports},
	{"Profile", guard.PathProfile},
}

// App is the root model: router, navbar, notification inbox, toasts and
// the confirmation modal around the current screen
type App struct {
	env    *env
	width  int
	height int

	want    string // last requested path, re-resolved on session change
	path    string // path of the screen being shown, "" while pending
	history []string
	screen  Screen

	modal    *confirmMsg
	modalYes bool
	queued   []confirmMsg // prompts waiting behind the open modal

	inbox     inbox
	showInbox bool
}

func newApp(e *env, start string) App {
	if start == "" {
		start = guard.PathHome
	}
	return App{env: e, want: start, inbox: newInbox(e)}
}

// Init restores the saved session; the first screen is picked when it ends
func (m App) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return bootstrapMsg{err: m.env.session.Bootstrap(m.env.ctx)} },
		m.env.shimmer.TickCmd(),
	)
}

// Path is the path of the screen being shown
func (m App) Path() string {
	return m.path
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.forward(msg)

	case shimmerTickMsg:
		m.env.shimmer.Advance(m.env.now())
		return m, m.env.shimmer.TickCmd()

	case bootstrapMsg:
		if msg.err != nil {
			m.env.logger.Warn("session restore failed", "error", msg.err)
		}
		return m.navigate(m.want, false)

	case sessionMsg:
		return m.navigate(m.want, false)

	case navigateMsg:
		return m.navigate(msg.path, true)

	case backMsg:
		return m.back()

	case confirmMsg:
		if m.modal != nil {
			m.queued = append(m.queued[:len(m.queued):len(m.queued)], msg)
			return m, nil
		}
		m.modal = &msg
		m.modalYes = false
		return m, nil

	case notificationsMsg, toastsMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if done, ok := msg.(doneMsg); ok && done.owner == inboxOwner {
		m.inbox = m.inbox.done(done)
		return m, nil
	}
	return m.forward(msg)
}

func (m App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.screen == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

func (m App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}
	if m.modal != nil {
		return m.handleModalKey(key)
	}
	if m.showInbox {
		switch key {
		case "esc", "N":
			m.showInbox = false
			return m, nil
		}
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd
	}
	if m.screen != nil && m.screen.Capturing() {
		return m.forward(msg)
	}

	authed := m.env.session.State().Authenticated()
	switch key {
	case "q":
		return m.quit()
	case "backspace":
		return m.back()
	case "N":
		if authed {
			m.showInbox = true
			return m, nil
		}
	case "L":
		if authed {
			m.env.session.Logout()
			return m.navigate(m.want, false)
		}
	}
	if authed && len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		entries := m.visibleEntries()
		if i := int(key[0] - '1'); i < len(entries) {
			return m.navigate(entries[i].path, true)
		}
	}
	return m.forward(msg)
}

func (m App) handleModalKey(key string) (tea.Model, tea.Cmd) {
	answer := func(ok bool) (tea.Model, tea.Cmd) {
		m.modal.reply <- ok
		m.modal = nil
		if len(m.queued) > 0 {
			next := m.queued[0]
			m.queued = m.queued[1:]
			m.modal = &next
			m.modalYes = false
		}
		return m, nil
	}
	switch key {
	case "left", "right", "tab":
		m.modalYes = !m.modalYes
	case "y", "Y":
		return answer(true)
	case "n", "N", "esc":
		return answer(false)
	case "enter":
		return answer(m.modalYes)
	}
	return m, nil
}

func (m App) quit() (tea.Model, tea.Cmd) {
	if m.modal != nil {
		m.modal.reply <- false
		m.modal = nil
	}
	for _, q := range m.queued {
		q.reply <- false
	}
	m.queued = nil
	if m.screen != nil {
		m.screen.Close()
	}
	return m, tea.Quit
}

// navigate runs path through the guard and swaps the screen when the
// resolved path differs from the one shown
func (m App) navigate(path string, push bool) (App, tea.Cmd) {
	st := m.env.session.State()
	resolved, decision := guard.Resolve(st, path)
	m.want = resolved
	if decision == guard.Pending {
		m.want = path
		m.setScreen("", nil)
		return m, nil
	}
	if resolved == m.path && m.screen != nil {
		return m, nil
	}

	route, params, _ := guard.Match(resolved)
	if push && m.path != "" && !isPublic(m.path) {
		m.history = append(m.history, m.path)
	}
	m.env.logger.Debug("navigate", "path", path, "resolved", resolved, "decision", decision.String())
	m.setScreen(resolved, m.build(route, params))
	cmds := []tea.Cmd{m.screen.Init()}
	if m.width > 0 {
		var cmd tea.Cmd
		m.screen, cmd = m.screen.Update(tea.WindowSizeMsg{Width: m.width, Height: m.bodyHeight()})
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *App) setScreen(path string, s Screen) {
	if m.screen != nil {
		m.screen.Close()
	}
	m.path = path
	m.screen = s
	if !m.env.session.State().Authenticated() {
		m.history = nil
		m.showInbox = false
	}
}

func (m App) back() (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.navigate(prev, false)
}

func isPublic(path string) bool {
	r, _, ok := guard.Match(path)
	return ok && r.Public
}

func (m App) build(r guard.Route, params map[string]string) Screen {
	e := m.env
	switch r.Path {
	case guard.PathLogin:
		return newLoginScreen(e)
	case guard.PathRegister:
		return newRegisterScreen(e)
	case guard.PathForgotPassword:
		return newForgotScreen(e)
	case guard.PathProfile:
		return newProfileScreen(e)
	case guard.PathUsers:
		return newUsersScreen(e)
	case guard.PathCreateUser:
		return newCreateUserScreen(e)
	case guard.PathPendingUsers:
		return newPendingScreen(e)
	case guard.PathTeams:
		return newTeamsScreen(e)
	case guard.PathCreateTeam:
		return newCreateTeamScreen(e)
	case guard.PathTeamDetail:
		id, _ := strconv.Atoi(params["id"])
		return newTeamDetailScreen(e, id)
	case guard.PathCreateTask:
		return newCreateTaskScreen(e)
	case guard.PathTask:
		id, _ := strconv.Atoi(params["id"])
		return newTaskScreen(e, id)
	case guard.PathTeamDashboard:
		return newTeamDashboardScreen(e)
	case guard.PathReports:
		return newReportsScreen(e)
	}
	return newDashboardScreen(e)
}

func (m App) visibleEntries() []navEntry {
	user := m.env.user()
	var out []navEntry
	for _, entry := range navEntries {
		if guard.Allowed(user, entry.path) {
			out = append(out, entry)
		}
	}
	return out
}

const chromeHeight = 4 // navbar, its rule, help bar, status gap

func (m App) bodyHeight() int {
	h := m.height - chromeHeight - m.toastHeight()
	if h < 5 {
		h = 5
	}
	return h
}

func (m App) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.modal != nil {
		return m.renderModal()
	}

	var body, help string
	switch {
	case m.screen == nil:
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center,
			mutedStyle.Render("Restoring session..."))
	case m.showInbox:
		body = m.inbox.View(m.width, m.bodyHeight())
		help = "↑/↓ nav · enter mark read · A mark all read · esc close"
	default:
		body = m.screen.View(m.width, m.bodyHeight())
		help = m.screen.Help()
		if m.env.session.State().Authenticated() && !m.screen.Capturing() {
			help += " · 1-9 menu · N inbox · L logout · q quit"
		}
	}

	parts := []string{m.renderNavbar(), body}
	if toasts := m.renderToasts(); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, helpBar(m.width, help))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m App) renderNavbar() string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorAccentMain)).
		Padding(0, 1).
		Render("EMS")

	st := m.env.session.State()
	if !st.Authenticated() {
		return logo + "\n" + mutedStyle.Render(strings.Repeat("─", m.width))
	}

	items := []string{logo}
	for i, entry := range m.visibleEntries() {
		label := fmt.Sprintf("%d %s", i+1, entry.label)
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(ColorSecondaryText))
		if entry.path == m.path {
			style = style.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true).Underline(true)
		}
		items = append(items, style.Render(label))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Center, items...)

	bell := "🔔"
	if n := m.env.poller.Unread(); n > 0 {
		bell = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInfo)).Bold(true).
			Render(fmt.Sprintf("🔔 %d", n))
	}
	right := bell + "  " + labelStyle.Render(fmt.Sprintf("%s (%s)", st.User.DisplayName(), st.User.Role))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n" +
		mutedStyle.Render(strings.Repeat("─", m.width))
}

func (m App) toastHeight() int {
	if m.env.toaster == nil {
		return 0
	}
	return len(m.env.toaster.List()) * 4
}

func (m App) renderToasts() string {
	if m.env.toaster == nil {
		return ""
	}
	toasts := m.env.toaster.List()
	if len(toasts) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentBright)).
		Background(lipgloss.Color(ColorCardBackground)).
		Padding(0, 1).
		Width(44)
	var cards []string
	for _, t := range toasts {
		cards = append(cards, style.Render(
			headerStyle.Render(truncate(t.Title, 40))+"\n"+textStyle.Render(truncate(t.Message, 40))))
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, cards...))
}

func (m App) renderModal() string {
	yes := lipgloss.NewStyle().Padding(0, 2)
	no := lipgloss.NewStyle().Padding(0, 2)
	if m.modalYes {
		yes = yes.Background(lipgloss.Color(ColorAccentBright)).Foreground(lipgloss.Color("#000000")).Bold(true)
	} else {
		no = no.Background(lipgloss.Color(ColorError)).Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	}

	var b strings.Builder
	b.WriteString(m.modal.prompt)
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, yes.Render("Yes"), "   ", no.Render("No")))
	b.WriteString("\n\n")
	b.WriteString("← → or Y/N to choose, Enter to confirm\nEsc to cancel")

	modal := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentBright)).
		Background(lipgloss.Color(ColorCardBackground)).
		Padding(1).
		Align(lipgloss.Center).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
