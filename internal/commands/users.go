package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/views"
)

var (
	usersSearch string
	usersRole   string
	usersYes    bool

	newUser     api.CreateUserRequest
	newUserRole string
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Browse and manage users (admins)",
}

var usersListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List users, filtered on the server",
	Args:    cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathUsers); err != nil {
			return err
		}
		filter := api.UserFilter{Search: usersSearch}
		if usersRole != "" {
			role, ok := models.ParseRole(usersRole)
			if !ok {
				return fmt.Errorf("invalid role '%s', use employee, manager or admin", usersRole)
			}
			filter.Role = role
		}

		users := views.NewUsers(st.client, st.logger)
		defer users.Close()
		if err := users.SetFilter(cmd.Context(), filter); err != nil {
			return failure("load users", err)
		}

		out := cmd.OutOrStdout()
		list := users.Snapshot().Users
		if len(list) == 0 {
			fmt.Fprintln(out, "No users found")
			return nil
		}
		for _, u := range list {
			fmt.Fprintf(out, "#%-4d %-16s %-28s %-9s %s\n", u.ID, u.DisplayName(), u.Email, u.Role, orDash(u.TeamName))
		}
		fmt.Fprintf(out, "\n%s\n", plural(len(list), "user"))
		return nil
	}),
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an active user (admins)",
	Args:  cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathCreateUser); err != nil {
			return err
		}
		req := newUser
		if newUserRole != "" {
			role, ok := models.ParseRole(newUserRole)
			if !ok {
				return fmt.Errorf("invalid role '%s', use employee, manager or admin", newUserRole)
			}
			req.Role = role
		}
		u, err := views.CreateUser(cmd.Context(), st.client, req)
		if err != nil {
			return failure("create user", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ User %s created as %s - ID: %d\n", u.DisplayName(), u.Role, u.ID)
		return nil
	}),
}

var usersRemoveCmd = &cobra.Command{
	Use:     "rm <user-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a user (admins)",
	Args:    cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		me, err := st.require(guard.PathCreateUser)
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "user")
		if err != nil {
			return err
		}
		if id == me.ID {
			return fmt.Errorf("you cannot delete your own account")
		}
		users := views.NewUsers(st.client, st.logger)
		defer users.Close()
		if err := users.Delete(cmd.Context(), confirmer(cmd, usersYes), id); err != nil {
			if cancelled(cmd, err) {
				return nil
			}
			return failure("delete user", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted user #%d\n", id)
		return nil
	}),
}

func init() {
	usersListCmd.Flags().StringVarP(&usersSearch, "search", "s", "", "match username, name or email")
	usersListCmd.Flags().StringVar(&usersRole, "role", "", "employee|manager|admin")

	usersCreateCmd.Flags().StringVarP(&newUser.Username, "username", "u", "", "username")
	usersCreateCmd.Flags().StringVar(&newUser.Name, "name", "", "full name")
	usersCreateCmd.Flags().StringVarP(&newUser.Email, "email", "e", "", "email")
	usersCreateCmd.Flags().StringVarP(&newUser.Password, "password", "p", "", "initial password")
	usersCreateCmd.Flags().StringVar(&newUserRole, "role", "", "employee|manager|admin (default employee)")

	usersRemoveCmd.Flags().BoolVarP(&usersYes, "yes", "y", false, "skip the confirmation")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersRemoveCmd)
}
