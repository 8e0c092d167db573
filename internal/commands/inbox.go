package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	inboxUnread bool
	inboxAll    bool
)

var inboxCmd = &cobra.Command{
	Use:     "inbox",
	Aliases: []string{"notifications"},
	Short:   "Read your notifications",
}

var inboxListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List notifications",
	Args:    cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.user(); err != nil {
			return err
		}
		items, err := st.client.ListNotifications(cmd.Context())
		if err != nil {
			return failure("load notifications", err)
		}

		out := cmd.OutOrStdout()
		now := time.Now()
		unread, shown := 0, 0
		for _, n := range items {
			if !n.IsRead {
				unread++
			} else if inboxUnread {
				continue
			}
			shown++
			dot := "  "
			if !n.IsRead {
				dot = "● "
			}
			fmt.Fprintf(out, "%s#%-4d %s: %s  %s\n", dot, n.ID, n.Title, n.Message, since(n.CreatedAt, now))
		}
		if shown == 0 {
			fmt.Fprintln(out, "📭 No notifications")
			return nil
		}
		fmt.Fprintf(out, "\n%d unread\n", unread)
		return nil
	}),
}

var inboxReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark one notification, or --all, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.user(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if inboxAll {
			if err := st.client.MarkAllNotificationsRead(cmd.Context()); err != nil {
				return failure("mark notifications read", err)
			}
			fmt.Fprintln(out, "✅ All notifications marked as read")
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("give a notification ID or --all")
		}
		id, err := parseID(args[0], "notification")
		if err != nil {
			return err
		}
		if err := st.client.MarkNotificationRead(cmd.Context(), id); err != nil {
			return failure("mark notification read", err)
		}
		fmt.Fprintf(out, "✅ Notification #%d marked as read\n", id)
		return nil
	}),
}

func init() {
	inboxListCmd.Flags().BoolVarP(&inboxUnread, "unread", "u", false, "only unread notifications")
	inboxReadCmd.Flags().BoolVarP(&inboxAll, "all", "a", false, "mark every notification as read")

	inboxCmd.AddCommand(inboxListCmd)
	inboxCmd.AddCommand(inboxReadCmd)
}
