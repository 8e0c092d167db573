package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
	"github.com/balkashynov/ems/internal/session"
)

// DefaultPollInterval is the notification refresh period
const DefaultPollInterval = 30 * time.Second

// API is the slice of the backend the poller needs
type API interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID int) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Sink receives one toast per newly arrived unread notification
type Sink interface {
	Add(title, message string) Toast
}

// Session is what Attach subscribes to
type Session interface {
	State() session.State
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// State of the poller
type State int

const (
	Idle State = iota
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// Poller keeps the signed-in user's notifications fresh
type Poller struct {
	api      API
	sink     Sink
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	userID   int
	gen      uint64
	cancel   context.CancelFunc
	items    []models.Notification
	seen     map[int]bool
	primed   bool
	onChange func()
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithLogger sets the poller's logger
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller creates an idle poller; interval <= 0 uses DefaultPollInterval
func NewPoller(api API, sink Sink, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{api: api, sink: sink, interval: interval, seen: map[int]bool{}}
	for _, o := range opts {
		o(p)
	}
	p.logger = logging.OrDiscard(p.logger).With("component", "notify")
	return p
}

// OnChange registers fn to run whenever the notification list changes
func (p *Poller) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Attach starts polling while st has a user and stops when it has none. The
// current state is applied immediately.
func (p *Poller) Attach(s Session) (detach func()) {
	apply := func(st session.State) {
		if st.User == nil {
			p.Stop()
			return
		}
		p.mu.Lock()
		switched := p.state == Polling && p.userID != st.User.ID
		p.mu.Unlock()
		if switched {
			p.Stop()
		}
		p.start(st.User.ID)
	}
	unsubscribe := s.Subscribe(apply)
	apply(s.State())
	return unsubscribe
}

// Start begins polling: one fetch now, then one per interval. No-op when
// already polling.
func (p *Poller) Start() {
	p.start(0)
}

func (p *Poller) start(userID int) {
	p.mu.Lock()
	if p.state == Polling {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.gen++
	gen := p.gen
	p.state = Polling
	p.userID = userID
	p.cancel = cancel
	p.primed = false
	p.seen = map[int]bool{}
	p.mu.Unlock()

	p.logger.Debug("polling started", "interval", p.interval)
	go p.loop(ctx, gen)
}

// Stop cancels the timer and discards any fetch still in flight. It never
// blocks, so it is safe to call from a session subscriber.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == Idle {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.cancel = nil
	p.gen++
	p.state = Idle
	p.userID = 0
	p.items = nil
	p.seen = map[int]bool{}
	p.primed = false
	fn := p.onChange
	p.mu.Unlock()

	p.logger.Debug("polling stopped")
	if fn != nil {
		fn()
	}
}

// State reports Idle or Polling
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) loop(ctx context.Context, gen uint64) {
	p.fetch(ctx, gen)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, gen)
		}
	}
}

// Refresh fetches now, outside the regular schedule
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Polling {
		p.mu.Unlock()
		return nil
	}
	gen := p.gen
	p.mu.Unlock()
	return p.fetch(ctx, gen)
}

func (p *Poller) fetch(ctx context.Context, gen uint64) error {
	items, err := p.api.ListNotifications(ctx)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return nil
	}
	if err != nil {
		p.mu.Unlock()
		p.logger.Warn("failed to fetch notifications", "error", err)
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	var fresh []models.Notification
	for _, n := range items {
		if p.primed && !p.seen[n.ID] && !n.IsRead {
			fresh = append(fresh, n)
		}
		p.seen[n.ID] = true
	}
	p.primed = true
	p.items = items
	fn := p.onChange
	p.mu.Unlock()

	for _, n := range fresh {
		p.sink.Add(n.Title, n.Message)
	}
	if len(fresh) > 0 {
		p.logger.Info("new notifications", "count", len(fresh))
	}
	if fn != nil {
		fn()
	}
	return nil
}

// Notifications returns the last fetched list
func (p *Poller) Notifications() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.items...)
}

// Unread counts unread notifications in the last fetched list
func (p *Poller) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, item := range p.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// MarkAsRead flips the notification locally, then tells the server. A
// failed call is not rolled back; the next fetch brings the server's view.
func (p *Poller) MarkAsRead(ctx context.Context, id int) error {
	p.update(func(n *models.Notification) bool { return n.ID == id })
	if err := p.api.MarkNotificationRead(ctx, id); err != nil {
		p.logger.Warn("failed to mark notification read", "id", id, "error", err)
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every notification locally, then tells the server
func (p *Poller) MarkAllRead(ctx context.Context) error {
	p.update(func(*models.Notification) bool { return true })
	if err := p.api.MarkAllNotificationsRead(ctx); err != nil {
		p.logger.Warn("failed to mark all notifications read", "error", err)
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

func (p *Poller) update(match func(*models.Notification) bool) {
	p.mu.Lock()
	items := make([]models.Notification, len(p.items))
	copy(items, p.items)
	for i := range items {
		if match(&items[i]) {
			items[i].IsRead = true
		}
	}
	p.items = items
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}
