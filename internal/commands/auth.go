package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/views"
)

var (
	loginEmail    string
	loginPassword string
	loginRemember bool

	registerReq api.RegisterRequest
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session for later commands",
	Long: `Sign in with email and password. Values not given as flags are read from
stdin. The session is stored locally and reused by every command.`,
	Args: cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		r := newLineReader(cmd)
		email := loginEmail
		if email == "" {
			email = st.session.RememberedEmail()
		}
		email, err := orAsk(r, email, "Email")
		if err != nil {
			return err
		}
		password := loginPassword
		if password == "" {
			if password, err = r.secret("Password"); err != nil {
				return err
			}
		}

		if err := views.Login(cmd.Context(), st.session, email, password, loginRemember); err != nil {
			return failure("sign in", err)
		}
		u := st.session.State().User
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Signed in as %s (%s)\n", u.DisplayName(), u.Role)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		u, err := st.user()
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		st.session.Logout()
		fmt.Fprintf(cmd.OutOrStdout(), "👋 Signed out %s\n", u.DisplayName())
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		u, err := st.user()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "👤 %s\n", u.DisplayName())
		fmt.Fprintf(out, "Email:   %s\n", u.Email)
		fmt.Fprintf(out, "Role:    %s\n", u.Role)
		fmt.Fprintf(out, "Team:    %s\n", orDash(u.TeamName))
		fmt.Fprintf(out, "Server:  %s\n", st.cfg.APIURL)
		return nil
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Request a new account",
	Long:  `Files a registration. The account stays pending until an admin approves it.`,
	Args:  cobra.NoArgs,
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		r := newLineReader(cmd)
		req := registerReq
		var err error
		if req.Username, err = orAsk(r, req.Username, "Username"); err != nil {
			return err
		}
		if req.Email, err = orAsk(r, req.Email, "Email"); err != nil {
			return err
		}
		if req.Password == "" {
			if req.Password, err = r.secret("Password"); err != nil {
				return err
			}
		}

		if _, err := views.Register(cmd.Context(), st.session, req); err != nil {
			return failure("register", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "📝 Registration submitted. An admin must approve it before you can sign in.")
		return nil
	}),
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password [email]",
	Short: "Ask an admin to reset your password",
	Args:  cobra.MaximumNArgs(1),
	RunE: withStack(func(cmd *cobra.Command, args []string, st *stack) error {
		var email string
		if len(args) == 1 {
			email = args[0]
		}
		email, err := orAsk(newLineReader(cmd), email, "Email")
		if err != nil {
			return err
		}
		if err := views.ForgotPassword(cmd.Context(), st.session, email); err != nil {
			return failure("send reset request", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "📨 Reset request sent. An admin will give you a temporary password.")
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (read from stdin when omitted)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "prefill this email next time")

	registerCmd.Flags().StringVarP(&registerReq.Username, "username", "u", "", "username")
	registerCmd.Flags().StringVar(&registerReq.Name, "name", "", "full name")
	registerCmd.Flags().StringVarP(&registerReq.Email, "email", "e", "", "email")
	registerCmd.Flags().StringVarP(&registerReq.Password, "password", "p", "", "password (read from stdin when omitted)")
	registerCmd.Flags().StringVar(&registerReq.DOB, "dob", "", "date of birth")
	registerCmd.Flags().StringVar(&registerReq.MobileNumber, "mobile", "", "mobile number")
}
