package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/views"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Approve registrations and password resets (admins)",
}

func loadApprovals(cmd *cobra.Command, st *stack) (*views.Approvals, error) {
	if _, err := st.require(guard.PathPendingUsers); err != nil {
		return nil, err
	}
	a := views.NewApprovals(st.client, st.logger)
	if err := a.Load(cmd.Context()); err != nil {
		a.Close()
		return nil, failure("load pending requests", err)
	}
	return a, nil
}

var pendingListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List pending users and reset requests",
	Args:    cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		a, err := loadApprovals(cmd, st)
		if err != nil {
			return err
		}
		defer a.Close()
		snap := a.Snapshot()
		out := cmd.OutOrStdout()
		now := time.Now()

		fmt.Fprintf(out, "⏳ Pending users (%d)\n", len(snap.Pending))
		for _, u := range snap.Pending {
			fmt.Fprintf(out, "  #%-4d %-16s %s %s\n", u.ID, u.DisplayName(), u.Email, since(u.CreatedAt, now))
		}
		fmt.Fprintf(out, "\n🔑 Password resets (%d)\n", len(snap.Resets))
		for _, r := range snap.Resets {
			fmt.Fprintf(out, "  #%-4d %s %s\n", r.ID, r.Email, since(r.CreatedAt, now))
		}
		return nil
	}),
}

var pendingApproveCmd = &cobra.Command{
	Use:   "approve <user-id>",
	Short: "Activate a pending user",
	Args:  cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		id, err := parseID(args[0], "user")
		if err != nil {
			return err
		}
		a, err := loadApprovals(cmd, st)
		if err != nil {
			return err
		}
		defer a.Close()

		name := fmt.Sprintf("User #%d", id)
		for _, u := range a.Snapshot().Pending {
			if u.ID == id {
				name = u.DisplayName()
			}
		}
		if err := a.Approve(cmd.Context(), id); err != nil {
			return failure("approve user", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s approved\n", name)
		return nil
	}),
}

var pendingResetCmd = &cobra.Command{
	Use:   "reset <request-id>",
	Short: "Reset a password and print the temporary one",
	Long: `Resets the password for a reset request. The temporary password is printed
once; pass it to the user.`,
	Args: cobra.ExactArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		id, err := parseID(args[0], "request")
		if err != nil {
			return err
		}
		a, err := loadApprovals(cmd, st)
		if err != nil {
			return err
		}
		defer a.Close()

		email := fmt.Sprintf("request #%d", id)
		for _, r := range a.Snapshot().Resets {
			if r.ID == id {
				email = r.Email
			}
		}
		temp, err := a.Reset(cmd.Context(), id)
		if err != nil {
			return failure("reset password", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🔑 Temporary password for %s:\n", email)
		fmt.Fprintln(out, temp)
		return nil
	}),
}

func init() {
	pendingCmd.AddCommand(pendingListCmd)
	pendingCmd.AddCommand(pendingApproveCmd)
	pendingCmd.AddCommand(pendingResetCmd)
}
