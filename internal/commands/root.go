package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/notify"
	"github.com/balkashynov/ems/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// global flags
var (
	configPath string
	apiURL     string
	openPath   string
	noMotion   bool
)

var rootCmd = &cobra.Command{
	Use:   "ems",
	Short: "Terminal client for the EMS task management server",
	Long: `ems is a terminal client for the EMS employee and task management server.
Run it without arguments for the full-screen interface, or use the subcommands
below for scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          withStack(runTUI),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ems %s (commit %s, built %s)\n", version, commit, date)
	},
}

func runTUI(cmd *cobra.Command, args []string, st *stack) error {
	toaster := notify.NewToaster(st.cfg.ToastTTL)
	defer toaster.Close()
	poller := notify.NewPoller(st.client, toaster, st.cfg.PollInterval, notify.WithLogger(st.logger))

	shimmer := tui.DefaultShimmerConfig()
	shimmer.ReduceMotion = noMotion

	return tui.Run(cmd.Context(), tui.Options{
		Session: st.session,
		Client:  st.client,
		Poller:  poller,
		Toaster: toaster,
		Logger:  st.logger,
		Shimmer: shimmer,
		Start:   openPath,
	})
}

// withStack wraps a command function to build the client stack first
func withStack(fn func(*cobra.Command, []string, *stack) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		return fn(cmd, args, st)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command; Ctrl+C cancels in-flight requests
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ems/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "server URL, overrides config and EMS_API_URL")
	rootCmd.Flags().StringVar(&openPath, "open", "", "screen to open first, e.g. /reports")
	rootCmd.Flags().BoolVar(&noMotion, "no-motion", false, "disable the shimmer and cursor blink")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
