package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/parser"
	"github.com/balkashynov/ems/internal/views"
)

var (
	tasksStatus string
	tasksYes    bool

	addDescription string

	createForm     views.TaskForm
	createTeam     int
	createAssignee int

	assignTeam     int
	assignAssignee int
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task", "t"},
	Short:   "List and manage your tasks",
}

var tasksListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List your tasks",
	Args:    cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.user(); err != nil {
			return err
		}
		var want models.Status
		if tasksStatus != "" {
			s, ok := models.ParseStatus(tasksStatus)
			if !ok {
				return fmt.Errorf("invalid status '%s', use open, in-progress or completed", tasksStatus)
			}
			want = s
		}

		board := views.NewDashboard(st.client, st.logger)
		defer board.Close()
		if err := board.Load(cmd.Context()); err != nil {
			return failure("load tasks", err)
		}

		out := cmd.OutOrStdout()
		now := time.Now()
		shown := 0
		for _, t := range board.Snapshot().Tasks {
			if want != "" && t.Status != want {
				continue
			}
			shown++
			line := fmt.Sprintf("%s #%-4d %s %s", statusIcon(t.Status), t.ID, priorityIcon(t.Priority), t.Title)
			if len(t.Subtasks) > 0 {
				line += fmt.Sprintf(" [%d/%d]", t.CompletedSubtasks(), len(t.Subtasks))
			}
			if due := parser.FormatDeadline(t.Deadline.Ptr(), now); due != "" && !t.IsCompleted() {
				line += "  " + due
			}
			fmt.Fprintln(out, line)
		}
		if shown == 0 {
			fmt.Fprintln(out, "No tasks found")
			return nil
		}
		fmt.Fprintf(out, "\n%s\n", plural(shown, "task"))
		return nil
	}),
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <task>",
	Short: "Create a task with quick-add syntax",
	Long: `Create an unassigned task from one line.

Syntax: "title +priority due:deadline"
  +high, +med, +low, +1..+3     priority
  due:tomorrow, due:3days       deadline (use _ for spaces: due:2_weeks)
  due:15/12/2026, due:2026-12-15`,
	Example: `  ems tasks add "Write quarterly report +high due:friday_or_3days"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.user(); err != nil {
			return err
		}
		q := parser.ParseQuickAdd(strings.Join(args, " "), time.Now())
		if len(q.Errors) > 0 {
			return errors.New(strings.Join(q.Errors, "; "))
		}

		board := views.NewDashboard(st.client, st.logger)
		defer board.Close()
		task, err := board.QuickCreate(cmd.Context(), api.CreateTaskRequest{
			Title:       q.Title,
			Description: addDescription,
			Priority:    q.Priority,
			Deadline:    q.Deadline,
		})
		if err != nil {
			return failure("create task", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ New task %q added - ID: %d\n", task.Title, task.ID)
		return nil
	}),
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task for a team or a user (managers and admins)",
	Long: `Create a task with a team and an assignee. Managers always create in their
own team; admins may pick any team or none.`,
	Args: cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		u, err := st.require(guard.PathCreateTask)
		if err != nil {
			return err
		}
		ctl := views.NewCreateTask(st.client, st.logger, u.Role)
		defer ctl.Close()
		if err := ctl.Load(cmd.Context()); err != nil {
			return failure("load teams", err)
		}

		form := createForm
		form.Title = args[0]
		if createTeam > 0 {
			id := createTeam
			form.TeamID = &id
			ctl.SelectTeam(&id)
		}
		if createAssignee > 0 {
			id := createAssignee
			form.UserID = &id
		}

		task, err := ctl.Submit(cmd.Context(), form)
		if err != nil {
			return failure("create task", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ New task %q added - ID: %d\n", task.Title, task.ID)
		return nil
	}),
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		return setStatus(cmd, st, args[0], models.StatusCompleted)
	}),
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <task-id> <open|in-progress|completed>",
	Short: "Change a task's status",
	Args:  cobra.ExactArgs(2),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		status, ok := models.ParseStatus(args[1])
		if !ok {
			return fmt.Errorf("invalid status '%s', use open, in-progress or completed", args[1])
		}
		return setStatus(cmd, st, args[0], status)
	}),
}

func setStatus(cmd *cobra.Command, st *stack, arg string, status models.Status) error {
	if _, err := st.user(); err != nil {
		return err
	}
	id, err := parseID(arg, "task")
	if err != nil {
		return err
	}
	board := views.NewDashboard(st.client, st.logger)
	defer board.Close()
	if err := board.SetStatus(cmd.Context(), id, status); err != nil {
		return failure("update status", err)
	}
	title := fmt.Sprintf("#%d", id)
	if t, ok := board.Task(id); ok {
		title = fmt.Sprintf("#%d: %s", id, t.Title)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Task %s is now %s\n", statusIcon(status), title, status)
	return nil
}

var tasksAssignCmd = &cobra.Command{
	Use:   "assign <task-id>",
	Short: "Move a task to a team or assignee",
	Long:  "Move a task to a team and/or assignee. Pass 0 to clear either one.",
	Args:  cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathCreateTask); err != nil {
			return err
		}
		id, err := parseID(args[0], "task")
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if !flags.Changed("team") && !flags.Changed("assignee") {
			return errors.New("give --team, --assignee or both")
		}

		var update api.TaskUpdate
		var changes []string
		if flags.Changed("team") {
			switch {
			case assignTeam < 0:
				return fmt.Errorf("invalid team ID '%d'", assignTeam)
			case assignTeam == 0:
				update.ClearTeam = true
				changes = append(changes, "no team")
			default:
				team := assignTeam
				update.TeamID = &team
				changes = append(changes, fmt.Sprintf("team #%d", team))
			}
		}
		if flags.Changed("assignee") {
			switch {
			case assignAssignee < 0:
				return fmt.Errorf("invalid user ID '%d'", assignAssignee)
			case assignAssignee == 0:
				update.ClearAssignee = true
				changes = append(changes, "unassigned")
			default:
				user := assignAssignee
				update.UserID = &user
				changes = append(changes, fmt.Sprintf("assigned to #%d", user))
			}
		}

		board := views.NewDashboard(st.client, st.logger)
		defer board.Close()
		if err := board.UpdateField(cmd.Context(), id, update); err != nil {
			return failure("update task", err)
		}
		title := fmt.Sprintf("#%d", id)
		if t, ok := board.Task(id); ok {
			title = fmt.Sprintf("#%d: %s", id, t.Title)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "👥 Task %s: %s\n", title, strings.Join(changes, ", "))
		return nil
	}),
}

var tasksRemoveCmd = &cobra.Command{
	Use:     "rm <task-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.user(); err != nil {
			return err
		}
		id, err := parseID(args[0], "task")
		if err != nil {
			return err
		}
		board := views.NewDashboard(st.client, st.logger)
		defer board.Close()
		if err := board.DeleteTask(cmd.Context(), confirmer(cmd, tasksYes), id); err != nil {
			if cancelled(cmd, err) {
				return nil
			}
			return failure("delete task", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted task #%d\n", id)
		return nil
	}),
}

var tasksShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task with its subtasks and history",
	Args:  cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.user(); err != nil {
			return err
		}
		id, err := parseID(args[0], "task")
		if err != nil {
			return err
		}
		board := views.NewDashboard(st.client, st.logger)
		defer board.Close()
		if err := board.Load(cmd.Context()); err != nil {
			return failure("load tasks", err)
		}
		task, ok := board.Task(id)
		if !ok {
			return fmt.Errorf("task #%d not found", id)
		}
		if err := board.Select(cmd.Context(), id); err != nil {
			return failure("load task history", err)
		}
		printTask(cmd, task, board.Snapshot().History)
		return nil
	}),
}

func printTask(cmd *cobra.Command, t models.Task, history []models.TaskHistoryEntry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s #%d %s\n", statusIcon(t.Status), t.ID, t.Title)
	fmt.Fprintf(out, "Status:      %s\n", t.Status)
	fmt.Fprintf(out, "Priority:    %s %s\n", priorityIcon(t.Priority), t.Priority)
	fmt.Fprintf(out, "Deadline:    %s\n", orDash(parser.FormatDeadline(t.Deadline.Ptr(), time.Now())))
	if t.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", t.Description)
	}

	if len(t.Subtasks) > 0 {
		fmt.Fprintf(out, "\nSubtasks (%d/%d):\n", t.CompletedSubtasks(), len(t.Subtasks))
		for _, s := range t.Subtasks {
			box := "[ ]"
			if s.IsCompleted {
				box = "[x]"
			}
			fmt.Fprintf(out, "  %s %s\n", box, s.Title)
		}
	}

	if len(history) > 0 {
		fmt.Fprintln(out, "\nHistory:")
		for _, h := range history {
			fmt.Fprintf(out, "  %s  %s\n", formatTime(h.Timestamp), historyLine(h))
		}
	}
}

func historyLine(h models.TaskHistoryEntry) string {
	who := h.UserUsername
	if who == "" && h.User != nil {
		who = h.User.DisplayName()
	}
	line := h.Action
	if h.FieldChanged != "" {
		line = fmt.Sprintf("%s %s: %s → %s", h.Action, h.FieldChanged, orDash(h.OldValue), orDash(h.NewValue))
	}
	if who != "" {
		line += " by " + who
	}
	return line
}

func init() {
	tasksListCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status: open|in-progress|completed")
	tasksAddCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task description")
	tasksRemoveCmd.Flags().BoolVarP(&tasksYes, "yes", "y", false, "skip the confirmation")

	tasksCreateCmd.Flags().StringVarP(&createForm.Description, "description", "d", "", "task description")
	tasksCreateCmd.Flags().StringVarP(&createForm.Priority, "priority", "p", "", "low|medium|high (default medium)")
	tasksCreateCmd.Flags().StringVar(&createForm.Deadline, "due", "", "deadline, e.g. tomorrow, 3days, 15/12/2026")
	tasksCreateCmd.Flags().IntVar(&createTeam, "team", 0, "team ID (admins only; managers use their own team)")
	tasksCreateCmd.Flags().IntVar(&createAssignee, "assignee", 0, "user ID to assign")
	tasksAssignCmd.Flags().IntVar(&assignTeam, "team", 0, "team ID, 0 clears")
	tasksAssignCmd.Flags().IntVar(&assignAssignee, "assignee", 0, "user ID, 0 clears")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksStatusCmd)
	tasksCmd.AddCommand(tasksAssignCmd)
	tasksCmd.AddCommand(tasksRemoveCmd)
	tasksCmd.AddCommand(tasksShowCmd)
}
