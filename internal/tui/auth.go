package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/guard"
	"github.com/balkashynov/ems/internal/views"
)

func newOwner() any { return new(byte) }

// authCard centers a form card on an otherwise empty body
func authCard(width, height int, title, body string) string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(1, 2).
		Width(60).
		Render(headerStyle.Render(title) + "\n\n" + body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

const (
	loginEmail = iota
	loginPassword
	loginRemember
)

type loginScreen struct {
	env   *env
	owner any
	form  form
	flash flash
	busy  bool
}

func newLoginScreen(e *env) Screen {
	f := newForm(
		textField("Email", "you@example.com", 254),
		passwordField("Password"),
		choiceField("Remember me", "yes", "no"),
	)
	if email := e.session.RememberedEmail(); email != "" {
		f.SetValue(loginEmail, email)
	} else {
		f.SetChoice(loginRemember, 1)
	}
	return loginScreen{env: e, owner: newOwner(), form: f}
}

func (s loginScreen) Init() tea.Cmd   { return s.form.Init() }
func (s loginScreen) Capturing() bool { return true }
func (s loginScreen) Close()          {}
func (s loginScreen) Help() string {
	return "tab next · enter/ctrl+s sign in · ctrl+r register · ctrl+f forgot password · ctrl+c quit"
}

func (s loginScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(60)
		return s, nil
	case doneMsg:
		if msg.owner != s.owner {
			return s, nil
		}
		s.busy = false
		if msg.err != nil {
			s.flash.result(msg.action, msg.err, "")
			return s, nil
		}
		return s, navigate(guard.PathHome)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			return s, navigate(guard.PathRegister)
		case "ctrl+f":
			return s, navigate(guard.PathForgotPassword)
		}
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	s.form, cmd, submit = s.form.Update(msg)
	if !submit || s.busy {
		return s, cmd
	}
	s.busy = true
	s.flash.clear()
	email, password := s.form.Value(loginEmail), s.form.Raw(loginPassword)
	remember := s.form.Choice(loginRemember) == 0
	return s, s.env.do(s.owner, "log in", func(ctx context.Context) error {
		return views.Login(ctx, s.env.session, email, password, remember)
	})
}

func (s loginScreen) View(width, height int) string {
	body := s.form.View()
	if s.busy {
		body += "\n\n" + mutedStyle.Render("Signing in...")
	}
	if f := s.flash.View(); f != "" {
		body += "\n\n" + f
	}
	return authCard(width, height, "🔐 Sign in to EMS", body)
}

const (
	regUsername = iota
	regName
	regEmail
	regPassword
	regDOB
	regMobile
)

type registerScreen struct {
	env   *env
	owner any
	form  form
	flash flash
	done  bool
}

func newRegisterScreen(e *env) Screen {
	f := newForm(
		textField("Username", "required", 50),
		textField("Full name", "optional", 100),
		textField("Email", "required", 254),
		passwordField("Password"),
		textField("Date of birth", "yyyy-mm-dd, optional", 10),
		textField("Mobile number", "optional", 20),
	)
	return registerScreen{env: e, owner: newOwner(), form: f}
}

func (s registerScreen) Init() tea.Cmd   { return s.form.Init() }
func (s registerScreen) Capturing() bool { return true }
func (s registerScreen) Close()          {}
func (s registerScreen) Help() string {
	return "tab next · enter/ctrl+s submit · esc back to sign in"
}

func (s registerScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(60)
		return s, nil
	case doneMsg:
		if msg.owner == s.owner {
			s.done = msg.err == nil
			s.flash.result(msg.action, msg.err, "Registration submitted. An admin must approve your account before you can sign in.")
		}
		return s, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, navigate(guard.PathLogin)
		}
		if s.done && msg.String() == "enter" {
			return s, navigate(guard.PathLogin)
		}
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	s.form, cmd, submit = s.form.Update(msg)
	if !submit || s.done {
		return s, cmd
	}
	req := api.RegisterRequest{
		Username:     s.form.Value(regUsername),
		Name:         s.form.Value(regName),
		Email:        s.form.Value(regEmail),
		Password:     s.form.Raw(regPassword),
		DOB:          s.form.Value(regDOB),
		MobileNumber: s.form.Value(regMobile),
	}
	return s, s.env.do(s.owner, "register", func(ctx context.Context) error {
		_, err := views.Register(ctx, s.env.session, req)
		return err
	})
}

func (s registerScreen) View(width, height int) string {
	body := s.form.View()
	if f := s.flash.View(); f != "" {
		body += "\n\n" + f
	}
	if s.done {
		body += "\n" + mutedStyle.Render("enter to return to sign in")
	}
	return authCard(width, height, "📝 Create an account", body)
}

type forgotScreen struct {
	env   *env
	owner any
	form  form
	flash flash
}

func newForgotScreen(e *env) Screen {
	return forgotScreen{env: e, owner: newOwner(), form: newForm(textField("Email", "the address you sign in with", 254))}
}

func (s forgotScreen) Init() tea.Cmd   { return s.form.Init() }
func (s forgotScreen) Capturing() bool { return true }
func (s forgotScreen) Close()          {}
func (s forgotScreen) Help() string    { return "enter submit · esc back to sign in" }

func (s forgotScreen) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.form.SetWidth(60)
		return s, nil
	case doneMsg:
		if msg.owner == s.owner {
			s.flash.result(msg.action, msg.err, "If the address is registered, an admin will send you a temporary password.")
		}
		return s, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, navigate(guard.PathLogin)
		}
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	s.form, cmd, submit = s.form.Update(msg)
	if !submit {
		return s, cmd
	}
	email := s.form.Value(0)
	return s, s.env.do(s.owner, "request password reset", func(ctx context.Context) error {
		return views.ForgotPassword(ctx, s.env.session, email)
	})
}

func (s forgotScreen) View(width, height int) string {
	body := mutedStyle.Render("An admin reviews reset requests and hands out a temporary password.") +
		"\n\n" + s.form.View()
	if f := s.flash.View(); f != "" {
		body += "\n\n" + f
	}
	return authCard(width, height, "🔑 Forgot password", body)
}
