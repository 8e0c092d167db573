package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/notify"
	"github.com/balkashynov/ems/internal/session"
	"github.com/balkashynov/ems/internal/views"
)

// Options wires the TUI to an already-built client stack
type Options struct {
	Session *session.Store
	Client  *api.Client
	Poller  *notify.Poller
	Toaster *notify.Toaster
	Logger  *slog.Logger
	Shimmer ShimmerConfig
	Start   string // first path to open, "/" when empty
}

func newEnv(ctx context.Context, opts Options, confirm views.Confirmer) *env {
	return &env{
		ctx:     ctx,
		session: opts.Session,
		client:  opts.Client,
		poller:  opts.Poller,
		toaster: opts.Toaster,
		logger:  logging.OrDiscard(opts.Logger),
		confirm: confirm,
		shimmer: NewShimmer(opts.Shimmer),
		now:     time.Now,
	}
}

// Run starts the full-screen client and blocks until the user quits
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.Shimmer.ReduceMotion {
		cursorMode = cursor.CursorStatic
	}

	confirm := &prompter{}
	e := newEnv(ctx, opts, confirm)
	p := tea.NewProgram(newApp(e, opts.Start), tea.WithAltScreen(), tea.WithContext(ctx))

	// Send blocks until the loop reads it, and these callbacks can fire
	// from inside Update (logout, toast dismissal)
	confirm.setSend(p.Send)
	unsubscribe := opts.Session.Subscribe(func(st session.State) {
		go p.Send(sessionMsg{state: st})
	})
	opts.Poller.OnChange(func() { go p.Send(notificationsMsg{}) })
	opts.Toaster.OnChange(func() { go p.Send(toastsMsg{}) })

	detach := opts.Poller.Attach(opts.Session)
	defer func() {
		opts.Poller.OnChange(nil)
		opts.Toaster.OnChange(nil)
		unsubscribe()
		detach()
		opts.Poller.Stop()
		confirm.setSend(nil)
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		fmt.Printf("❌ Error: %v\n", err)
		return err
	}
	if m, ok := final.(App); ok {
		if u := m.env.user(); u != nil {
			fmt.Printf("👋 Bye, %s\n", u.DisplayName())
		}
	}
	return nil
}
