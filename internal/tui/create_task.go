package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

const (
	ctTitle = iota
	ctDescription
	ctPriority
	ctDeadline
	ctTeam
	ctAssignee
)

// createTaskScreen lets admins pick any team and managers assign within
// their own team
type createTaskScreen struct {
	env   *env
	ctl   *views.CreateTask
	form  form
	flash flash
}

func newCreateTaskScreen(e *env) Screen {
	priorities := make([]string, len(models.Priorities))
	for i, p := range models.Priorities {
		priorities[i] = string(p)
	}
	f := newForm(
		textField("Title", "required", 200),
		textField("Description", "optional", 1000),
		choiceField("Priority", priorities...),
		textField("Deadline", "dd/mm/yyyy, tomorrow, 3 days (optional)", 50),
		choiceField("Team", "loading..."),
		choiceField("Assignee", "unassigned"),
	)
	f.SetChoice(ctPriority, 1)
	return createTaskScreen{env: e, ctl: views.NewCreateTask(e.client, e.logger, e.role()), form: f}
}

func (s createTaskScreen) Init() tea.Cmd {
	return tea.Batch(s.form.Init(), s.env.do(s.ctl, "load teams", s.ctl.Load))
}

func (s createTaskScreen) Capturing() bool { return true }
func (s createTaskScreen) Close()          { s.ctl.Close() }
func (s createTaskScreen) Help() string {
	return "tab next · ←/→ choose · enter/ctrl+s create · esc back"
}

// teamOptions lists "no team" first for admins; managers only see their team
func (s createTaskScreen) teamOptions(snap views.CreateTaskSnapshot) []string {
	var opts []string
	if s.env.role() == models.RoleAdmin {
		opts = append(opts, "no team")
	}
	for _, t := range snap.Teams {
		opts = append(opts, t.Name)
	}
	return opts
}

func (s createTaskScreen) selectedTeam(snap views.CreateTaskSnapshot) *int {
	i := s.form.Choice(ctTeam)
	if s.env.role() == models.RoleAdmin {
		i--
	}
	if i < 0 || i >= len(snap.Teams) {
		return nil
	}
	id := snap.Teams[i].ID
	return &id
}

// syncChoices refreshes team and assignee options from the controller
func (s *createTaskScreen) syncChoices() {
	snap := s.ctl.Snapshot()
	if !snap.Loaded {
		return
	}
	s.form.SetOptions(ctTeam, s.teamOptions(snap))
	s.ctl.SelectTeam(s.selectedTeam(snap))

	snap = s.ctl.Snapshot()
	assignees := []string{"unassigned"}
	for _, u := range snap.Members {
		assignees = append(assignees, u.DisplayName())
	}
	s.form.SetOptions(ctAssignee, assignees)
}

func (s createTaskScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(msg.Width / 2)
		return s, nil
	case doneMsg:
		if msg.owner != s.ctl {
			return s, nil
		}
		s.flash.result(msg.action, msg.err, msg.note)
		s.syncChoices()
		if msg.action == "create task" && msg.err == nil {
			return s, s.form.Reset()
		}
		return s, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, back
		}
	}

	team := s.form.Choice(ctTeam)
	var (
		cmd    tea.Cmd
		submit bool
	)
	s.form, cmd, submit = s.form.Update(msg)
	if s.form.Choice(ctTeam) != team {
		s.syncChoices()
	}
	if !submit {
		return s, cmd
	}

	snap := s.ctl.Snapshot()
	tf := views.TaskForm{
		Title:       s.form.Value(ctTitle),
		Description: s.form.Value(ctDescription),
		Priority:    string(models.Priorities[s.form.Choice(ctPriority)]),
		Deadline:    s.form.Value(ctDeadline),
		TeamID:      s.selectedTeam(snap),
	}
	if i := s.form.Choice(ctAssignee) - 1; i >= 0 && i < len(snap.Members) {
		id := snap.Members[i].ID
		tf.UserID = &id
	}
	return s, s.env.doNote(s.ctl, "create task", func(ctx context.Context) (string, error) {
		task, err := s.ctl.Submit(ctx, tf)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("New task %q added - ID: %d", task.Title, task.ID), nil
	})
}

func (s createTaskScreen) View(width, height int) string {
	body := headerStyle.Render("➕ New task") + "\n\n" + s.form.View()
	if !s.ctl.Snapshot().Loaded && !s.flash.err {
		body += "\n\n" + mutedStyle.Render("Loading teams...")
	}
	if f := s.flash.View(); f != "" {
		body += "\n\n" + f
	}
	return panel(width, height, true, body)
}
