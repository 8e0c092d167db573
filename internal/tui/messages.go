package tui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/notify"
	"github.com/balkashynov/ems/internal/session"
	"github.com/balkashynov/ems/internal/views"
)

// env is what every screen shares
type env struct {
	ctx     context.Context
	session *session.Store
	client  *api.Client
	poller  *notify.Poller
	toaster *notify.Toaster
	logger  *slog.Logger
	confirm views.Confirmer
	shimmer *Shimmer
	now     func() time.Time
}

func (e *env) user() *models.User {
	return e.session.State().User
}

func (e *env) role() models.Role {
	return e.session.State().Role()
}

// sessionMsg carries a session change from the store subscription
type sessionMsg struct{ state session.State }

// bootstrapMsg ends the startup session restore
type bootstrapMsg struct{ err error }

// notificationsMsg and toastsMsg only trigger a redraw
type (
	notificationsMsg struct{}
	toastsMsg        struct{}
)

type navigateMsg struct{ path string }

type backMsg struct{}

// confirmMsg asks the app to open the yes/no modal; the answer goes to reply
type confirmMsg struct {
	prompt string
	reply  chan bool
}

// doneMsg reports an async operation. owner is the controller that started
// it so a screen ignores results addressed to a previous screen.
type doneMsg struct {
	owner  any
	action string
	err    error
	note   string
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

func back() tea.Msg { return backMsg{} }

// do runs fn off the update loop and reports the result
func (e *env) do(owner any, action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{owner: owner, action: action, err: fn(e.ctx)}
	}
}

// doNote is do for operations that produce text to show, such as a
// temporary password
func (e *env) doNote(owner any, action string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		note, err := fn(e.ctx)
		return doneMsg{owner: owner, action: action, err: err, note: note}
	}
}

// flash is the one-line result shown under a screen
type flash struct {
	text string
	err  bool
}

func (f *flash) result(action string, err error, success string) {
	if err != nil {
		f.text, f.err = views.Describe(action, err), true
		return
	}
	f.text, f.err = success, false
}

func (f *flash) clear() {
	f.text, f.err = "", false
}

func (f flash) View() string {
	return statusLine(f.text, f.err)
}

// prompter implements views.Confirmer with the app's modal. Confirm blocks
// the calling command goroutine until the user answers.
type prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (p *prompter) setSend(send func(tea.Msg)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

func (p *prompter) Confirm(ctx context.Context, prompt string) bool {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return false
	}

	reply := make(chan bool, 1)
	send(confirmMsg{prompt: prompt, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
