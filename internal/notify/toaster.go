// Package notify polls the backend for notifications and keeps the
// short-lived toast queue the TUI renders.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultToastTTL is how long a toast stays up
const DefaultToastTTL = 5 * time.Second

// Toast is a transient message
type Toast struct {
	ID        string
	Title     string
	Message   string
	CreatedAt time.Time
}

// Toaster is a FIFO of toasts, each removed by its own timer
type Toaster struct {
	ttl time.Duration

	mu       sync.Mutex
	toasts   []Toast
	timers   map[string]*time.Timer
	onChange func()
	closed   bool
}

// NewToaster creates a toaster; ttl <= 0 uses DefaultToastTTL
func NewToaster(ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &Toaster{ttl: ttl, timers: map[string]*time.Timer{}}
}

// OnChange registers fn to run after every add or removal. fn runs without
// the toaster's lock held, possibly on a timer goroutine.
func (t *Toaster) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Add queues a toast. Duplicates are kept.
func (t *Toaster) Add(title, message string) Toast {
	toast := Toast{ID: uuid.NewString(), Title: title, Message: message, CreatedAt: time.Now()}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return toast
	}
	t.toasts = append(t.toasts, toast)
	t.timers[toast.ID] = time.AfterFunc(t.ttl, func() { t.Dismiss(toast.ID) })
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
	return toast
}

// Dismiss removes a toast early. Unknown ids are ignored.
func (t *Toaster) Dismiss(id string) {
	t.mu.Lock()
	idx := -1
	for i, toast := range t.toasts {
		if toast.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return
	}
	t.toasts = append(t.toasts[:idx:idx], t.toasts[idx+1:]...)
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// List returns the live toasts in insertion order
func (t *Toaster) List() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Toast(nil), t.toasts...)
}

// Close stops every timer and drops the queue. Later Adds are ignored.
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.toasts = nil
	t.closed = true
}
