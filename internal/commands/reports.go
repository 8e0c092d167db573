package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/views"
)

const barWidth = 30

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show task counts per user and workload per team",
	Args:  cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		if _, err := st.require(guard.PathReports); err != nil {
			return err
		}
		reports := views.NewReports(st.client, st.logger)
		defer reports.Close()
		if err := reports.Load(cmd.Context()); err != nil {
			return failure("load reports", err)
		}
		snap := reports.Snapshot()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "📊 Tasks per user")
		labels, counts := make([]string, len(snap.PerUser)), make([]int, len(snap.PerUser))
		for i, r := range snap.PerUser {
			labels[i], counts[i] = r.Username, r.TaskCount
		}
		printBars(out, labels, counts)

		if snap.Workload == nil {
			return nil
		}
		fmt.Fprintln(out, "\n⚖️  Workload by team")
		labels, counts = make([]string, len(snap.Workload.Teams)), make([]int, len(snap.Workload.Teams))
		for i, t := range snap.Workload.Teams {
			labels[i], counts[i] = t.TeamName, t.TaskCount
		}
		printBars(out, labels, counts)

		if len(snap.Workload.TopUsers) > 0 {
			fmt.Fprintln(out, "\n🏆 Busiest users")
			for i, u := range snap.Workload.TopUsers {
				fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, u.Username, plural(u.TaskCount, "task"))
			}
		}
		return nil
	}),
}

// printBars draws one bar per row, scaled to the largest count
func printBars(w io.Writer, labels []string, counts []int) {
	if len(labels) == 0 {
		fmt.Fprintln(w, "  No data")
		return
	}
	top := 0
	for _, c := range counts {
		top = max(top, c)
	}
	for i, label := range labels {
		n := 0
		if top > 0 {
			n = counts[i] * barWidth / top
		}
		fmt.Fprintf(w, "  %-16s %s%s %d\n", label, strings.Repeat("█", n), strings.Repeat("░", barWidth-n), counts[i])
	}
}
