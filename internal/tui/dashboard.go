package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/parser"
	"github.com/balkashynov/ems/internal/views"
)

const (
	promptQuickAdd = iota
	promptTitle
	promptDescription
	promptDeadline
	promptSubtask
)

const (
	pickTeam = iota + 1
	pickAssignee
)

// Focus is the dashboard panel receiving navigation keys
type Focus int

const (
	FocusTasks Focus = iota
	FocusSubtasks
)

type dashboardScreen struct {
	env   *env
	board *views.Dashboard

	width  int
	height int
	pager  pager
	focus  Focus
	sub    int // subtask cursor
	prompt *prompt
	picker *picker
	hist   viewport.Model
	flash  flash

	open     int // task to select once the list loads
	wantPick int // picker to show once teams load
	pickFor  int
}

func newDashboardScreen(e *env) Screen {
	return dashboardScreen{
		env:   e,
		board: views.NewDashboard(e.client, e.logger),
		pager: newPager(10),
		hist:  viewport.New(40, 6),
	}
}

// newTaskScreen is the dashboard with taskID opened in the editor
func newTaskScreen(e *env, taskID int) Screen {
	s := newDashboardScreen(e).(dashboardScreen)
	s.open = taskID
	return s
}

func (s dashboardScreen) Init() tea.Cmd {
	return s.env.do(s.board, "load tasks", s.board.Load)
}

func (s dashboardScreen) Capturing() bool { return s.prompt != nil || s.picker != nil }

func (s dashboardScreen) Close() { s.board.Close() }

func (s dashboardScreen) Help() string {
	if s.prompt != nil {
		if s.prompt.kind == promptQuickAdd {
			return "enter create · esc cancel · e.g. Write report +high due:friday_or_3days"
		}
		return "enter save · esc cancel"
	}
	if s.picker != nil {
		return "←/→ choose · enter assign · esc cancel"
	}
	if s.focus == FocusSubtasks {
		return "↑/↓ subtask · space toggle · x delete · a add · tab tasks · pgup/pgdn history"
	}
	return "↑/↓ nav · ←/→ page · enter open · n new · s status · c complete · p priority · t title · e desc · w deadline · g team · o assignee · u unassign · a subtask · tab subtasks · D delete · r reload"
}

// current is the highlighted task
func (s dashboardScreen) current() (models.Task, bool) {
	tasks := s.board.Snapshot().Tasks
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	p := s.pager.clamp(len(tasks))
	return tasks[p.selected], true
}

func (s dashboardScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		s.pager = s.pager.resize(s.height-8, len(s.board.Snapshot().Tasks))
		s.hist.Width = s.width*40/100 - 6
		s.hist.Height = max(3, s.height/3)
		s.syncHistory()
		return s, nil

	case doneMsg:
		if msg.owner != s.board {
			return s, nil
		}
		s.flash.result(msg.action, msg.err, msg.note)
		s.pager = s.pager.clamp(len(s.board.Snapshot().Tasks))
		s.syncHistory()
		switch msg.action {
		case "load tasks":
			if s.open != 0 && msg.err == nil {
				return s.openTask()
			}
		case "load teams":
			kind := s.wantPick
			s.wantPick = 0
			if kind != 0 && msg.err == nil {
				return s.openPicker(kind)
			}
		}
		return s, nil

	case tea.KeyMsg:
		if s.prompt != nil {
			return s.updatePrompt(msg)
		}
		if s.picker != nil {
			return s.updatePicker(msg.String())
		}
		return s.handleKey(msg)
	}

	if s.prompt != nil {
		cmd, _, _ := s.prompt.update(msg)
		return s, cmd
	}
	return s, nil
}

func (s dashboardScreen) handleKey(msg tea.KeyMsg) (Screen, tea.Cmd) {
	key := msg.String()
	tasks := s.board.Snapshot().Tasks
	task, ok := s.current()

	switch key {
	case "pgup":
		s.syncHistory()
		s.hist.ScrollUp(3)
		return s, nil
	case "pgdown":
		s.syncHistory()
		s.hist.ScrollDown(3)
		return s, nil
	case "tab":
		if s.focus == FocusTasks && ok && len(task.Subtasks) > 0 {
			s.focus = FocusSubtasks
			s.sub = 0
		} else {
			s.focus = FocusTasks
		}
		return s, nil
	case "r":
		return s, s.env.do(s.board, "load tasks", s.board.Load)
	case "n":
		return s.openPrompt(promptQuickAdd, 0, "New task:", "title +priority due:3days", "")
	}

	if s.focus == FocusSubtasks && ok {
		return s.handleSubtaskKey(key, task)
	}

	if p, moved := s.pager.handleKey(key, len(tasks)); moved {
		if p.selected != s.pager.selected {
			s.env.shimmer.Reset()
		}
		s.pager = p
		return s, nil
	}
	if !ok {
		return s, nil
	}

	id := task.ID
	switch key {
	case "enter":
		return s, s.env.do(s.board, "load task history", func(ctx context.Context) error {
			return s.board.Select(ctx, id)
		})
	case "esc":
		s.board.Deselect()
		s.syncHistory()
		return s, nil
	case "s":
		next := task.Status.Next()
		return s, s.env.do(s.board, "update status", func(ctx context.Context) error {
			return s.board.SetStatus(ctx, id, next)
		})
	case "c":
		return s, s.env.do(s.board, "mark complete", func(ctx context.Context) error {
			return s.board.Complete(ctx, id)
		})
	case "p":
		next := task.Priority.Next()
		return s, s.env.do(s.board, "update priority", func(ctx context.Context) error {
			return s.board.UpdateField(ctx, id, api.TaskUpdate{Priority: &next})
		})
	case "u":
		if task.IsUnassigned() {
			return s, nil
		}
		return s, s.env.do(s.board, "unassign task", func(ctx context.Context) error {
			return s.board.UpdateField(ctx, id, api.TaskUpdate{ClearTeam: true, ClearAssignee: true})
		})
	case "g", "o":
		if !guard.Allowed(s.env.user(), guard.PathCreateTask) {
			return s, nil
		}
		kind := pickTeam
		if key == "o" {
			if task.TeamID == nil {
				s.flash = flash{text: "Put the task in a team first (g)", err: true}
				return s, nil
			}
			kind = pickAssignee
		}
		s.wantPick, s.pickFor = kind, id
		role := s.env.role()
		return s, s.env.do(s.board, "load teams", func(ctx context.Context) error {
			return s.board.LoadTeams(ctx, role)
		})
	case "t":
		return s.openPrompt(promptTitle, id, "Title:", "task title", task.Title)
	case "e":
		return s.openPrompt(promptDescription, id, "Description:", "empty clears", task.Description)
	case "w":
		current := ""
		if d := task.Deadline.Ptr(); d != nil {
			current = d.In(s.env.now().Location()).Format("02/01/2006")
		}
		return s.openPrompt(promptDeadline, id, "Deadline:", "dd/mm/yyyy, tomorrow, 3 days; empty clears", current)
	case "a":
		return s.openPrompt(promptSubtask, id, "Subtask:", "subtask title", "")
	case "D":
		return s, s.env.do(s.board, "delete task", func(ctx context.Context) error {
			return s.board.DeleteTask(ctx, s.env.confirm, id)
		})
	case "T":
		if task.TeamID != nil && guard.Allowed(s.env.user(), guard.PathTeamDetail) {
			return s, navigate(guard.Fill(guard.PathTeamDetail, "id", fmt.Sprint(*task.TeamID)))
		}
	}
	return s, nil
}

func (s dashboardScreen) handleSubtaskKey(key string, task models.Task) (Screen, tea.Cmd) {
	n := len(task.Subtasks)
	if s.sub >= n {
		s.sub = n - 1
	}
	if s.sub < 0 {
		s.sub = 0
	}
	switch key {
	case "up", "k":
		if s.sub > 0 {
			s.sub--
		}
	case "down", "j":
		if s.sub < n-1 {
			s.sub++
		}
	case "esc":
		s.focus = FocusTasks
	case "a":
		return s.openPrompt(promptSubtask, task.ID, "Subtask:", "subtask title", "")
	case " ", "space", "enter":
		if n == 0 {
			return s, nil
		}
		taskID, subID := task.ID, task.Subtasks[s.sub].ID
		return s, s.env.do(s.board, "update subtask", func(ctx context.Context) error {
			return s.board.ToggleSubtask(ctx, taskID, subID)
		})
	case "x":
		if n == 0 {
			return s, nil
		}
		taskID, subID := task.ID, task.Subtasks[s.sub].ID
		return s, s.env.do(s.board, "delete subtask", func(ctx context.Context) error {
			return s.board.DeleteSubtask(ctx, s.env.confirm, taskID, subID)
		})
	}
	return s, nil
}

// openTask moves the cursor to the task the screen was opened for
func (s dashboardScreen) openTask() (Screen, tea.Cmd) {
	id := s.open
	s.open = 0
	for i, t := range s.board.Snapshot().Tasks {
		if t.ID == id {
			s.pager.selected = i
			s.pager = s.pager.clamp(i + 1)
			return s, s.env.do(s.board, "load task history", func(ctx context.Context) error {
				return s.board.Select(ctx, id)
			})
		}
	}
	s.flash = flash{text: fmt.Sprintf("Task #%d not found", id), err: true}
	return s, nil
}

// openPicker offers teams, or the members of the task's team, from the
// teams just loaded
func (s dashboardScreen) openPicker(kind int) (Screen, tea.Cmd) {
	task, ok := s.board.Task(s.pickFor)
	if !ok {
		return s, nil
	}
	var options []pickOption
	if kind == pickTeam {
		if s.env.role() == models.RoleAdmin {
			options = append(options, pickOption{label: "no team"})
		}
		for _, t := range s.board.Snapshot().Teams {
			id := t.ID
			options = append(options, pickOption{label: t.Name, id: &id})
		}
		s.picker = newPicker(kind, task.ID, "Team:", options, task.TeamID)
	} else {
		options = append(options, pickOption{label: "unassigned"})
		if task.TeamID != nil {
			for _, u := range s.board.Members(*task.TeamID) {
				id := u.ID
				options = append(options, pickOption{label: u.DisplayName(), id: &id})
			}
		}
		s.picker = newPicker(kind, task.ID, "Assignee:", options, task.UserID)
	}
	s.flash.clear()
	return s, nil
}

func (s dashboardScreen) updatePicker(key string) (Screen, tea.Cmd) {
	chosen, cancelled := s.picker.update(key)
	if cancelled {
		s.picker = nil
		return s, nil
	}
	if chosen == nil {
		return s, nil
	}
	p := s.picker
	s.picker = nil
	id := p.target

	var update api.TaskUpdate
	action := "assign team"
	if p.kind == pickTeam {
		update.TeamID, update.ClearTeam = chosen.id, chosen.id == nil
	} else {
		action = "assign task"
		update.UserID, update.ClearAssignee = chosen.id, chosen.id == nil
	}
	return s, s.env.do(s.board, action, func(ctx context.Context) error {
		return s.board.UpdateField(ctx, id, update)
	})
}

func (s dashboardScreen) openPrompt(kind, target int, label, placeholder, value string) (Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.prompt, cmd = newPrompt(kind, target, label, placeholder, value)
	s.flash.clear()
	return s, cmd
}

func (s dashboardScreen) updatePrompt(msg tea.KeyMsg) (Screen, tea.Cmd) {
	cmd, submitted, cancelled := s.prompt.update(msg)
	if cancelled {
		s.prompt = nil
		return s, nil
	}
	if !submitted {
		return s, cmd
	}
	p := s.prompt
	s.prompt = nil
	value := strings.TrimSpace(p.value())
	id := p.target

	switch p.kind {
	case promptQuickAdd:
		q := parser.ParseQuickAdd(value, s.env.now())
		if len(q.Errors) > 0 {
			s.flash = flash{text: strings.Join(q.Errors, "; "), err: true}
			return s, nil
		}
		req := api.CreateTaskRequest{Title: q.Title, Priority: q.Priority, Deadline: q.Deadline}
		return s, s.env.doNote(s.board, "create task", func(ctx context.Context) (string, error) {
			task, err := s.board.QuickCreate(ctx, req)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("New task %q added - ID: %d", task.Title, task.ID), nil
		})
	case promptTitle:
		return s, s.env.do(s.board, "update title", func(ctx context.Context) error {
			return s.board.UpdateField(ctx, id, api.TaskUpdate{Title: &value})
		})
	case promptDescription:
		return s, s.env.do(s.board, "update description", func(ctx context.Context) error {
			return s.board.UpdateField(ctx, id, api.TaskUpdate{Description: &value})
		})
	case promptDeadline:
		update := api.TaskUpdate{ClearDeadline: value == ""}
		if value != "" {
			deadline, err := parser.ParseDeadline(value, s.env.now())
			if err != nil {
				s.flash = flash{text: "Invalid deadline: " + err.Error(), err: true}
				return s, nil
			}
			update.Deadline = deadline
		}
		return s, s.env.do(s.board, "update deadline", func(ctx context.Context) error {
			return s.board.UpdateField(ctx, id, update)
		})
	case promptSubtask:
		return s, s.env.do(s.board, "add subtask", func(ctx context.Context) error {
			return s.board.AddSubtask(ctx, id, value)
		})
	}
	return s, nil
}

// syncHistory loads the selected task's history into the viewport
func (s *dashboardScreen) syncHistory() {
	snap := s.board.Snapshot()
	if snap.Selected == nil {
		s.hist.SetContent(mutedStyle.Render("enter to load history"))
		s.hist.GotoTop()
		return
	}
	var b strings.Builder
	now := s.env.now()
	for i := len(snap.History) - 1; i >= 0; i-- {
		h := snap.History[i]
		when := ""
		if t := h.Timestamp.Ptr(); t != nil {
			when = t.In(now.Location()).Format("02/01 15:04")
		}
		line := fmt.Sprintf("%s %s %s", when, h.Author(), h.Action)
		if h.FieldChanged != "" {
			line += fmt.Sprintf(" %s: %s → %s", h.FieldChanged, orNone(h.OldValue), orNone(h.NewValue))
		}
		b.WriteString(truncate(line, s.hist.Width) + "\n")
	}
	if len(snap.History) == 0 {
		b.WriteString(mutedStyle.Render("No history yet"))
	}
	s.hist.SetContent(strings.TrimRight(b.String(), "\n"))
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func (s dashboardScreen) View(width, height int) string {
	snap := s.board.Snapshot()
	s.pager = s.pager.clamp(len(snap.Tasks))

	bodyHeight := height - 2
	if s.prompt != nil || s.picker != nil {
		bodyHeight--
	}
	leftWidth := width * 60 / 100
	rightWidth := width - leftWidth - 1

	left := panel(leftWidth, bodyHeight, s.focus == FocusTasks, s.renderTasks(snap, leftWidth))
	right := panel(rightWidth, bodyHeight, s.focus == FocusSubtasks, s.renderDetails(snap, rightWidth))

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)}
	if s.prompt != nil {
		parts = append(parts, s.prompt.view(width))
	}
	if s.picker != nil {
		parts = append(parts, s.picker.view(width))
	}
	parts = append(parts, s.flash.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s dashboardScreen) renderTasks(snap views.DashboardSnapshot, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("📋 Tasks (%d)", len(snap.Tasks))))
	b.WriteString("\n\n")
	if !snap.Loaded {
		b.WriteString(mutedStyle.Render("Loading tasks..."))
		return b.String()
	}
	if len(snap.Tasks) == 0 {
		b.WriteString(mutedStyle.Render("No tasks found. Press n to add one."))
		return b.String()
	}

	titleWidth := width - 30
	if titleWidth < 10 {
		titleWidth = 10
	}
	rows := make([]string, len(snap.Tasks))
	for i, t := range snap.Tasks {
		mark := "○"
		switch t.Status {
		case models.StatusCompleted:
			mark = "✓"
		case models.StatusInProgress:
			mark = "▶"
		}
		due := ""
		if d := t.Deadline.Ptr(); d != nil {
			due = d.In(s.env.now().Location()).Format("02/01")
		}
		rows[i] = fmt.Sprintf("%s %-4d %-*s %-6s %5s", mark, t.ID, titleWidth, truncate(t.Title, titleWidth), t.Priority, due)
	}
	b.WriteString(s.pager.render(rows, s.focus == FocusTasks, s.env.shimmer.Render))
	return b.String()
}

func (s dashboardScreen) renderDetails(snap views.DashboardSnapshot, width int) string {
	task, ok := s.current()
	if !ok {
		return headerStyle.Render("📝 Details") + "\n\n" + mutedStyle.Render("Nothing selected")
	}
	now := s.env.now()

	var b strings.Builder
	b.WriteString(headerStyle.Render(truncate(task.Title, width-6)))
	b.WriteString("\n")
	b.WriteString(statusBadge(task.Status) + "  " + priorityBadge(task.Priority))
	if due := parser.FormatDeadline(task.Deadline.Ptr(), now); due != "" {
		b.WriteString("  " + labelStyle.Render(due))
	}
	b.WriteString("\n")

	switch {
	case task.IsUnassigned():
		b.WriteString(mutedStyle.Render("Unassigned"))
	default:
		var parts []string
		if task.TeamID != nil {
			parts = append(parts, teamLabel(snap.Teams, *task.TeamID))
		}
		if task.UserID != nil {
			parts = append(parts, assigneeLabel(snap.Teams, *task.UserID))
		}
		b.WriteString(labelStyle.Render(strings.Join(parts, " · ")))
	}
	b.WriteString("\n\n")
	if task.Description != "" {
		b.WriteString(textStyle.Width(width - 6).Render(task.Description))
		b.WriteString("\n\n")
	}

	b.WriteString(labelStyle.Render(fmt.Sprintf("Subtasks %d/%d ", task.CompletedSubtasks(), len(task.Subtasks))))
	b.WriteString(progressBar(task.Progress(), 12))
	b.WriteString(labelStyle.Render(fmt.Sprintf(" %d%%", task.Progress())))
	b.WriteString("\n")
	for i, st := range task.Subtasks {
		box := "[ ]"
		if st.IsCompleted {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, truncate(st.Title, width-12))
		if s.focus == FocusSubtasks && i == s.sub {
			b.WriteString("▸ " + selectedStyle.Render(line))
		} else {
			b.WriteString("  " + textStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + headerStyle.Render("🕘 History") + "\n")
	if snap.Selected != nil && snap.Selected.ID == task.ID {
		b.WriteString(s.hist.View())
	} else {
		b.WriteString(mutedStyle.Render("enter to load history"))
	}
	return b.String()
}

func teamLabel(teams []models.Team, id int) string {
	for _, t := range teams {
		if t.ID == id {
			return "Team " + t.Name
		}
	}
	return fmt.Sprintf("Team #%d", id)
}

func assigneeLabel(teams []models.Team, id int) string {
	for _, t := range teams {
		if m, ok := t.Member(id); ok {
			return "Assignee " + m.DisplayName()
		}
	}
	return fmt.Sprintf("Assignee #%d", id)
}
