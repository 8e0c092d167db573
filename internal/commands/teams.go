package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

var (
	teamsYes         bool
	teamsAll         bool
	teamsDescription string
)

var teamsCmd = &cobra.Command{
	Use:     "teams",
	Aliases: []string{"team"},
	Short:   "Manage teams (admins); 'teams mine' for your own team",
}

var teamsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List teams",
	Args:    cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathTeams); err != nil {
			return err
		}
		teams := views.NewTeams(st.client, st.logger)
		defer teams.Close()
		if err := teams.Load(cmd.Context()); err != nil {
			return failure("load teams", err)
		}

		out := cmd.OutOrStdout()
		list := teams.Snapshot().Teams
		if len(list) == 0 {
			fmt.Fprintln(out, "No teams yet")
			return nil
		}
		for _, t := range list {
			manager := "no manager"
			if t.Manager != nil {
				manager = "managed by " + t.Manager.DisplayName()
			}
			fmt.Fprintf(out, "#%-4d %-20s %s, %s\n", t.ID, t.Name, plural(len(t.Members), "member"), manager)
		}
		return nil
	}),
}

var teamsShowCmd = &cobra.Command{
	Use:   "show <team-id>",
	Short: "Show a team's members and tasks",
	Args:  cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathTeams); err != nil {
			return err
		}
		id, err := parseID(args[0], "team")
		if err != nil {
			return err
		}
		detail := views.NewTeamDetail(st.client, st.logger, id)
		defer detail.Close()
		if teamsAll {
			detail.SetFilter(views.FilterAll)
		}
		if err := detail.Load(cmd.Context()); err != nil {
			return failure("load team", err)
		}
		snap := detail.Snapshot()
		printTeam(cmd, *snap.Team, snap.Tasks, snap.Filter)
		return nil
	}),
}

var teamsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show the team you manage or belong to",
	Args:  cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathTeamDashboard); err != nil {
			return err
		}
		board := views.NewTeamDashboard(st.client, st.logger)
		defer board.Close()
		if err := board.Load(cmd.Context()); err != nil {
			return failure("load team", err)
		}
		team := board.Snapshot().Team
		if team == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "You are not in a team yet")
			return nil
		}
		printTeam(cmd, *team, team.Tasks, views.FilterAll)
		return nil
	}),
}

func printTeam(cmd *cobra.Command, team models.Team, tasks []models.Task, filter views.TaskFilter) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "👥 %s (#%d)\n", team.Name, team.ID)
	if team.Description != "" {
		fmt.Fprintln(out, team.Description)
	}

	fmt.Fprintf(out, "\nMembers (%d):\n", len(team.Members))
	for _, m := range team.Members {
		badge := ""
		if team.IsManager(m.ID) {
			badge = " ⭐ manager"
		}
		fmt.Fprintf(out, "  #%-4d %s <%s>%s\n", m.ID, m.DisplayName(), m.Email, badge)
	}

	fmt.Fprintf(out, "\nTasks (%s, %d):\n", filter, len(tasks))
	for _, t := range tasks {
		assignee := "whole team"
		if t.UserID != nil {
			assignee = fmt.Sprintf("user #%d", *t.UserID)
			if m, ok := team.Member(*t.UserID); ok {
				assignee = m.DisplayName()
			}
		}
		fmt.Fprintf(out, "  %s #%-4d %s (%s)\n", statusIcon(t.Status), t.ID, t.Title, assignee)
	}
}

var teamsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a team",
	Args:  cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathCreateTeam); err != nil {
			return err
		}
		teams := views.NewTeams(st.client, st.logger)
		defer teams.Close()
		team, err := teams.Create(cmd.Context(), args[0], teamsDescription)
		if err != nil {
			return failure("create team", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Team %q created - ID: %d\n", team.Name, team.ID)
		return nil
	}),
}

var teamsRemoveCmd = &cobra.Command{
	Use:     "rm <team-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a team; members become unassigned",
	Args:    cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathTeams); err != nil {
			return err
		}
		id, err := parseID(args[0], "team")
		if err != nil {
			return err
		}
		teams := views.NewTeams(st.client, st.logger)
		defer teams.Close()
		if err := teams.Delete(cmd.Context(), confirmer(cmd, teamsYes), id); err != nil {
			if cancelled(cmd, err) {
				return nil
			}
			return failure("delete team", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted team #%d\n", id)
		return nil
	}),
}

// teamMemberCommand builds the commands that act on one team and one user
func teamMemberCommand(use, short, action string, run func(cmd *cobra.Command, d *views.TeamDetail, userID int) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
			if _, err := st.require(guard.PathTeams); err != nil {
				return err
			}
			teamID, err := parseID(args[0], "team")
			if err != nil {
				return err
			}
			userID, err := parseID(args[1], "user")
			if err != nil {
				return err
			}
			detail := views.NewTeamDetail(st.client, st.logger, teamID)
			defer detail.Close()
			if err := detail.Load(cmd.Context()); err != nil {
				return failure("load team", err)
			}
			note, err := run(cmd, detail, userID)
			if err != nil {
				if cancelled(cmd, err) {
					return nil
				}
				return failure(action, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), note)
			return nil
		}),
	}
}

var teamsAddMemberCmd = teamMemberCommand("add-member <team-id> <user-id>", "Add a user to a team", "add member",
	func(cmd *cobra.Command, d *views.TeamDetail, userID int) (string, error) {
		if err := d.AddMember(cmd.Context(), userID); err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ %s added to %s", memberName(d, userID), d.Snapshot().Team.Name), nil
	})

var teamsRemoveMemberCmd = teamMemberCommand("remove-member <team-id> <user-id>", "Remove a user from a team", "remove member",
	func(cmd *cobra.Command, d *views.TeamDetail, userID int) (string, error) {
		name := memberName(d, userID)
		if err := d.RemoveMember(cmd.Context(), confirmer(cmd, teamsYes), userID); err != nil {
			return "", err
		}
		return fmt.Sprintf("👋 %s removed from %s", name, d.Snapshot().Team.Name), nil
	})

var teamsSetManagerCmd = teamMemberCommand("set-manager <team-id> <user-id>", "Make a user the team's manager", "assign manager",
	func(cmd *cobra.Command, d *views.TeamDetail, userID int) (string, error) {
		warning, err := d.AssignManager(cmd.Context(), userID)
		if err != nil {
			return "", err
		}
		note := fmt.Sprintf("⭐ %s is now the manager of %s", memberName(d, userID), d.Snapshot().Team.Name)
		if warning != "" {
			note += "\n⚠️  " + warning
		}
		return note, nil
	})

// memberName resolves a user from the loaded directory
func memberName(d *views.TeamDetail, userID int) string {
	for _, u := range d.Snapshot().Users {
		if u.ID == userID {
			return u.DisplayName()
		}
	}
	return fmt.Sprintf("user #%d", userID)
}

func init() {
	teamsShowCmd.Flags().BoolVarP(&teamsAll, "all", "a", false, "include completed tasks")
	teamsCreateCmd.Flags().StringVarP(&teamsDescription, "description", "d", "", "team description")
	teamsRemoveCmd.Flags().BoolVarP(&teamsYes, "yes", "y", false, "skip the confirmation")
	teamsRemoveMemberCmd.Flags().BoolVarP(&teamsYes, "yes", "y", false, "skip the confirmation")

	teamsCmd.AddCommand(teamsListCmd)
	teamsCmd.AddCommand(teamsShowCmd)
	teamsCmd.AddCommand(teamsMineCmd)
	teamsCmd.AddCommand(teamsCreateCmd)
	teamsCmd.AddCommand(teamsRemoveCmd)
	teamsCmd.AddCommand(teamsAddMemberCmd)
	teamsCmd.AddCommand(teamsRemoveMemberCmd)
	teamsCmd.AddCommand(teamsSetManagerCmd)
}
