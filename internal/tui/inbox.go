package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type inboxKey struct{}

var inboxOwner = inboxKey{}

// inbox lists the poller's notifications with per-item and bulk mark-read
type inbox struct {
	env   *env
	pager pager
	flash flash
}

func newInbox(e *env) inbox {
	return inbox{env: e, pager: newPager(10)}
}

func (b inbox) Update(msg tea.KeyMsg) (inbox, tea.Cmd) {
	items := b.env.poller.Notifications()
	b.pager = b.pager.clamp(len(items))
	if p, moved := b.pager.handleKey(msg.String(), len(items)); moved {
		b.pager = p
		return b, nil
	}
	switch msg.String() {
	case "enter":
		if len(items) == 0 {
			return b, nil
		}
		id := items[b.pager.selected].ID
		return b, b.env.do(inboxOwner, "mark notification as read", func(ctx context.Context) error {
			return b.env.poller.MarkAsRead(ctx, id)
		})
	case "A":
		return b, b.env.do(inboxOwner, "mark all as read", b.env.poller.MarkAllRead)
	}
	return b, nil
}

func (b inbox) done(msg doneMsg) inbox {
	b.flash.result(msg.action, msg.err, "")
	return b
}

func (b inbox) View(width, height int) string {
	items := b.env.poller.Notifications()
	b.pager = b.pager.clamp(len(items))

	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("🔔 Notifications (%d unread)", b.env.poller.Unread())))
	s.WriteString("\n\n")
	if len(items) == 0 {
		s.WriteString(mutedStyle.Render("No notifications"))
	}

	rows := make([]string, len(items))
	for i, n := range items {
		mark := "●"
		if n.IsRead {
			mark = "○"
		}
		when := ""
		if t := n.CreatedAt.Ptr(); t != nil {
			when = t.Local().Format("02/01 15:04") + "  "
		}
		rows[i] = fmt.Sprintf("%s %s%s: %s", mark, when, n.Title, truncate(n.Message, width-len(n.Title)-24))
	}
	s.WriteString(b.pager.render(rows, true, nil))
	if f := b.flash.View(); f != "" {
		s.WriteString("\n\n" + f)
	}
	return panel(width, height, true, s.String())
}
