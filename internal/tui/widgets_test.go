package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagerPaging(t *testing.T) {
	p := newPager(3)
	n := 7
	assert.Equal(t, 3, p.pages(n))

	for range 4 {
		p = p.down(n)
	}
	assert.Equal(t, 4, p.selected)
	assert.Equal(t, 1, p.page)

	p = p.nextPage(n)
	assert.Equal(t, 6, p.selected)
	p = p.nextPage(n)
	assert.Equal(t, 6, p.selected, "no page after the last")

	p = p.prevPage(n)
	assert.Equal(t, 3, p.selected)

	start, end := p.bounds(n)
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	p = p.clamp(2)
	assert.Equal(t, 1, p.selected)
	assert.Equal(t, 0, p.page)

	p = p.clamp(0)
	assert.Equal(t, 0, p.selected)
}

func TestPagerKeysAndRender(t *testing.T) {
	p := newPager(2)
	rows := []string{"alpha", "beta", "gamma"}

	p, moved := p.handleKey("j", len(rows))
	require.True(t, moved)
	_, moved = p.handleKey("x", len(rows))
	assert.False(t, moved)

	out := p.render(rows, true, strings.ToUpper)
	assert.Contains(t, out, "▸ BETA")
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, "gamma")
	assert.Contains(t, out, "page 1/2")

	p, _ = p.handleKey("right", len(rows))
	assert.Contains(t, p.render(rows, true, nil), "gamma")
	assert.Empty(t, p.render(nil, true, nil))
}

func TestFormNavigationAndSubmit(t *testing.T) {
	f := newForm(
		textField("Name", "", 20),
		choiceField("Level", "low", "high"),
		textField("Note", "", 20),
	)
	update := func(k string) bool {
		var submitted bool
		f, _, submitted = f.Update(keyMsg(k))
		return submitted
	}

	for _, r := range "  Ada " {
		update(string(r))
	}
	assert.Equal(t, "Ada", f.Value(0))
	assert.Equal(t, "  Ada ", f.Raw(0))

	assert.False(t, update("enter"))
	assert.Equal(t, 1, f.focus)
	update("right")
	assert.Equal(t, 1, f.Choice(1))
	update("right")
	assert.Equal(t, 0, f.Choice(1), "choices wrap")
	update("left")
	assert.Equal(t, 1, f.Choice(1))

	update("tab")
	update("x")
	assert.Equal(t, "x", f.Value(2))
	assert.True(t, update("enter"), "enter on the last field submits")

	update("shift+tab")
	assert.Equal(t, 1, f.focus)
	assert.True(t, update("ctrl+s"))

	f.Reset()
	assert.Equal(t, 0, f.focus)
	assert.Empty(t, f.Value(0))
	assert.Equal(t, 1, f.Choice(1), "reset keeps choices")
}

func TestFormSetOptionsKeepsChoiceInRange(t *testing.T) {
	f := newForm(textField("Title", "", 10), choiceField("Team", "a", "b", "c"))
	f.SetChoice(1, 2)
	f.SetChoice(1, 9)
	assert.Equal(t, 2, f.Choice(1))

	f.SetOptions(1, []string{"only"})
	assert.Equal(t, 0, f.Choice(1))
	assert.Contains(t, f.View(), "only")

	f.SetOptions(1, []string{})
	assert.Contains(t, f.View(), "nothing to choose")
}

func TestShimmerAdvanceAndPause(t *testing.T) {
	s := NewShimmer(ShimmerConfig{
		Enabled:      true,
		Speed:        100 * time.Millisecond,
		WidthRatio:   0.25,
		Cycle:        400 * time.Millisecond,
		PauseBetween: time.Second,
	})
	require.True(t, s.Animated())
	require.NotNil(t, s.TickCmd())

	now := time.Now()
	for range 4 {
		s.Advance(now)
	}
	assert.InDelta(t, 1.0, s.pos, 1e-9)
	assert.True(t, s.paused)

	s.Advance(now.Add(500 * time.Millisecond))
	assert.True(t, s.paused, "still inside the pause")

	s.Advance(now.Add(time.Second))
	assert.False(t, s.paused)
	assert.Zero(t, s.pos)

	s.Advance(now)
	s.Reset()
	assert.Zero(t, s.pos)
}

func TestShimmerRenderModes(t *testing.T) {
	off := NewShimmer(ShimmerConfig{})
	assert.False(t, off.Animated())
	assert.Nil(t, off.TickCmd())
	assert.Equal(t, "task", off.Render("task"))
	assert.Empty(t, off.Render(""))

	still := NewShimmer(ShimmerConfig{Enabled: true, ReduceMotion: true, Speed: time.Millisecond})
	assert.False(t, still.Animated())
	assert.Contains(t, still.Render("task"), "task")

	moving := NewShimmer(DefaultShimmerConfig())
	moving.trueColor = true
	out := moving.Render("ab")
	assert.Contains(t, out, "\033[38;2;")
	assert.True(t, strings.HasSuffix(out, "\033[0m"))

	moving.trueColor = false
	assert.Contains(t, moving.Render("ab"), "\033[38;5;")
}

func TestTruncateAndField(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "he...", truncate("hello!", 5))
	assert.Equal(t, "hé", truncate("héllo", 2))
	assert.Equal(t, "hello", truncate("hello", 0))

	assert.Contains(t, field("Team", ""), "none")
	assert.Contains(t, field("Team", "Core"), "Core")
}

func TestPromptSubmitAndCancel(t *testing.T) {
	p, _ := newPrompt(promptTitle, 7, "Title:", "", "old")
	_, submitted, cancelled := p.update(keyMsg("!"))
	assert.False(t, submitted || cancelled)
	assert.Equal(t, "old!", p.value())
	assert.Equal(t, 7, p.target)

	_, submitted, _ = p.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, submitted)
	_, _, cancelled = p.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, cancelled)
}
