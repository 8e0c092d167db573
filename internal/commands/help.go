package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for ems",
	Long:  `Display detailed help for all ems commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp(cmd.OutOrStdout())
	},
}

const banner = `
███████╗███╗   ███╗███████╗
██╔════╝████╗ ████║██╔════╝
█████╗  ██╔████╔██║███████╗
██╔══╝  ██║╚██╔╝██║╚════██║
███████╗██║ ╚═╝ ██║███████║
╚══════╝╚═╝     ╚═╝╚══════╝

ems - Employee & task management from the terminal
`

type helpSection struct {
	title    string
	commands []helpCommand
}

type helpCommand struct {
	name        string
	description string
	examples    []string
	flags       []helpFlag
}

type helpFlag struct {
	name        string
	description string
}

var helpSections = []helpSection{
	{
		title: "INTERFACE",
		commands: []helpCommand{
			{
				name:        "ems",
				description: "Open the full-screen interface",
				flags: []helpFlag{
					{"--open <path>", "Screen to open first (/reports, /admin/teams, ...)"},
					{"--no-motion", "No shimmer, no cursor blink"},
				},
				examples: []string{"ems --open /team-dashboard"},
			},
		},
	},
	{
		title: "ACCOUNT",
		commands: []helpCommand{
			{name: "login", description: "Sign in; the session is kept for later commands",
				flags: []helpFlag{{"-e, --email", "Account email"}, {"--remember", "Prefill this email next time"}}},
			{name: "logout", description: "Forget the stored session"},
			{name: "whoami", description: "Show the signed-in user"},
			{name: "register", description: "Request an account (needs admin approval)"},
			{name: "forgot-password [email]", description: "Ask an admin for a temporary password"},
		},
	},
	{
		title: "TASKS",
		commands: []helpCommand{
			{name: "tasks ls", description: "List your tasks",
				flags: []helpFlag{{"--status", "open|in-progress|completed"}}},
			{name: "tasks add <task>", description: "Create a task with quick-add syntax",
				examples: []string{`ems tasks add "Write report +high due:3days"`}},
			{name: "tasks create <title>", description: "Create a team task (managers, admins)",
				flags: []helpFlag{{"--team", "Team ID"}, {"--assignee", "User ID"}, {"-p, --priority", "low|medium|high"}, {"--due", "Deadline"}}},
			{name: "tasks show <id>", description: "Task details, subtasks and history"},
			{name: "tasks done <id>", description: "Mark a task as completed"},
			{name: "tasks status <id> <status>", description: "Change a task's status"},
			{name: "tasks assign <id>", description: "Move a task to a team or assignee (managers, admins)",
				flags: []helpFlag{{"--team", "Team ID, 0 clears"}, {"--assignee", "User ID, 0 clears"}}},
			{name: "tasks rm <id>", description: "Delete a task", flags: []helpFlag{{"-y, --yes", "Skip the confirmation"}}},
		},
	},
	{
		title: "TEAMS & USERS",
		commands: []helpCommand{
			{name: "teams mine", description: "The team you manage or belong to"},
			{name: "teams ls | show <id>", description: "List teams or show one (admins)"},
			{name: "teams create <name>", description: "Create a team"},
			{name: "teams add-member | remove-member | set-manager <team> <user>", description: "Edit membership"},
			{name: "teams rm <id>", description: "Delete a team"},
			{name: "users ls", description: "List users (admins)",
				flags: []helpFlag{{"-s, --search", "Match username, name or email"}, {"--role", "employee|manager|admin"}}},
			{name: "users create | rm", description: "Create or delete a user"},
			{name: "pending ls | approve <user> | reset <request>", description: "Handle registrations and password resets"},
		},
	},
	{
		title: "INSIGHT",
		commands: []helpCommand{
			{name: "reports", description: "Tasks per user and workload per team (managers, admins)"},
			{name: "inbox ls | read <id> [--all]", description: "Your notifications"},
		},
	},
}

func showCustomHelp(w io.Writer) {
	fmt.Fprint(w, banner)
	for _, s := range helpSections {
		fmt.Fprintf(w, "\n%s:\n\n", s.title)
		for _, c := range s.commands {
			fmt.Fprintf(w, "  %-44s %s\n", c.name, c.description)
			for _, f := range c.flags {
				fmt.Fprintf(w, "    %-42s %s\n", f.name, f.description)
			}
			for _, e := range c.examples {
				fmt.Fprintf(w, "    Example: %s\n", e)
			}
		}
	}
	fmt.Fprintln(w, "\nGlobal flags: --config <file>, --api-url <url>. Use 'ems <command> --help' for details.")
}
