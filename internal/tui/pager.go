package tui

import (
	"fmt"
	"strings"
)

// pager tracks a selected row and the page that shows it
type pager struct {
	selected int
	page     int
	perPage  int
}

func newPager(perPage int) pager {
	if perPage < 1 {
		perPage = 1
	}
	return pager{perPage: perPage}
}

func (p pager) pages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + p.perPage - 1) / p.perPage
}

// clamp keeps the selection inside n rows after the list changes
func (p pager) clamp(n int) pager {
	if p.selected >= n {
		p.selected = n - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
	p.page = p.selected / p.perPage
	return p
}

// resize changes the page size, keeping the selection visible
func (p pager) resize(perPage, n int) pager {
	if perPage < 1 {
		perPage = 1
	}
	p.perPage = perPage
	return p.clamp(n)
}

func (p pager) up(n int) pager {
	if p.selected > 0 {
		p.selected--
	}
	return p.clamp(n)
}

func (p pager) down(n int) pager {
	if p.selected < n-1 {
		p.selected++
	}
	return p.clamp(n)
}

func (p pager) prevPage(n int) pager {
	if p.page > 0 {
		p.selected = (p.page - 1) * p.perPage
	}
	return p.clamp(n)
}

func (p pager) nextPage(n int) pager {
	if p.page < p.pages(n)-1 {
		p.selected = (p.page + 1) * p.perPage
	}
	return p.clamp(n)
}

// bounds returns the visible row range [start, end)
func (p pager) bounds(n int) (int, int) {
	start := p.page * p.perPage
	if start > n {
		start = n
	}
	end := start + p.perPage
	if end > n {
		end = n
	}
	return start, end
}

// handleKey applies navigation keys; moved is false for other keys
func (p pager) handleKey(key string, n int) (pager, bool) {
	switch key {
	case "up", "k":
		return p.up(n), true
	case "down", "j":
		return p.down(n), true
	case "left", "h":
		return p.prevPage(n), true
	case "right", "l":
		return p.nextPage(n), true
	}
	return p, false
}

// render draws the visible rows with the selected one marked. The
// selected row text goes through highlight when it is not nil.
func (p pager) render(rows []string, focused bool, highlight func(string) string) string {
	if len(rows) == 0 {
		return ""
	}
	start, end := p.bounds(len(rows))
	var b strings.Builder
	for i := start; i < end; i++ {
		switch {
		case i == p.selected && focused && highlight != nil:
			b.WriteString("▸ " + highlight(rows[i]))
		case i == p.selected && focused:
			b.WriteString("▸ " + selectedStyle.Render(rows[i]))
		default:
			b.WriteString("  " + textStyle.Render(rows[i]))
		}
		b.WriteString("\n")
	}
	if pages := p.pages(len(rows)); pages > 1 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("page %d/%d", p.page+1, pages)))
	}
	return strings.TrimRight(b.String(), "\n")
}
