package tui

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ShimmerConfig controls the highlight sweep over the selected row
type ShimmerConfig struct {
	Enabled      bool
	ReduceMotion bool // static highlight instead of a sweep
	Speed        time.Duration
	WidthRatio   float64 // highlight width relative to the text
	Cycle        time.Duration
	PauseBetween time.Duration
}

// DefaultShimmerConfig returns the default sweep
func DefaultShimmerConfig() ShimmerConfig {
	return ShimmerConfig{
		Enabled:      true,
		Speed:        100 * time.Millisecond,
		WidthRatio:   0.25,
		Cycle:        1800 * time.Millisecond,
		PauseBetween: 500 * time.Millisecond,
	}
}

// Shimmer is a sweep position advanced by ticks. Progress is a fraction of
// the cycle so one Shimmer serves texts of any length.
type Shimmer struct {
	cfg       ShimmerConfig
	trueColor bool

	pos      float64 // 0..1 across the text, with margins on both sides
	paused   bool
	pausedAt time.Time
}

// NewShimmer creates a shimmer; COLORTERM=truecolor enables the smooth ramp
func NewShimmer(cfg ShimmerConfig) *Shimmer {
	return &Shimmer{
		cfg:       cfg,
		trueColor: os.Getenv("COLORTERM") == "truecolor",
	}
}

// Animated reports whether ticks are needed at all
func (s *Shimmer) Animated() bool {
	return s.cfg.Enabled && !s.cfg.ReduceMotion && s.cfg.Speed > 0
}

type shimmerTickMsg struct{}

// TickCmd schedules the next frame, nil when not animated
func (s *Shimmer) TickCmd() tea.Cmd {
	if !s.Animated() {
		return nil
	}
	return tea.Tick(s.cfg.Speed, func(time.Time) tea.Msg {
		return shimmerTickMsg{}
	})
}

// Advance moves the sweep one frame
func (s *Shimmer) Advance(now time.Time) {
	if !s.Animated() {
		return
	}
	if s.paused {
		if now.Sub(s.pausedAt) >= s.cfg.PauseBetween {
			s.paused = false
			s.pos = 0
		}
		return
	}
	frames := float64(s.cfg.Cycle) / float64(s.cfg.Speed)
	if frames < 1 {
		frames = 1
	}
	s.pos += 1 / frames
	if s.pos >= 1 {
		s.pos = 1
		s.paused = true
		s.pausedAt = now
	}
}

// Reset restarts the sweep, e.g. when the selection moves
func (s *Shimmer) Reset() {
	s.pos = 0
	s.paused = false
}

// center maps the cycle fraction onto a glyph index, starting before the
// first glyph and ending after the last
func (s *Shimmer) center(n int) float64 {
	margin := float64(n) * s.cfg.WidthRatio
	return -margin + s.pos*(float64(n)+2*margin)
}

// Render draws text with the highlight at the current position
func (s *Shimmer) Render(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	if !s.cfg.Enabled {
		return text
	}
	if !s.Animated() {
		return selectedStyle.Render(text)
	}
	if !s.trueColor {
		return s.renderFallback(runes)
	}

	// base #B1B8C7, highlight #EAE6FF
	const (
		baseR, baseG, baseB = 177, 184, 199
		hiR, hiG, hiB       = 234, 230, 255
	)
	sigma := math.Max(1, s.cfg.WidthRatio*float64(len(runes))/2)
	c := s.center(len(runes))

	var b strings.Builder
	for i, r := range runes {
		dx := float64(i) - c
		w := math.Exp(-(dx * dx) / (2 * sigma * sigma))
		fmt.Fprintf(&b, "\033[38;2;%d;%d;%dm%c",
			blend(baseR, hiR, w), blend(baseG, hiG, w), blend(baseB, hiB, w), r)
	}
	b.WriteString("\033[0m")
	return b.String()
}

func blend(from, to int, w float64) int {
	return int(float64(from)*(1-w) + float64(to)*w)
}

func (s *Shimmer) renderFallback(runes []rune) string {
	width := int(s.cfg.WidthRatio * float64(len(runes)))
	if width < 1 {
		width = 1
	}
	start := int(s.center(len(runes))) - width/2

	var b strings.Builder
	for i, r := range runes {
		if i >= start && i < start+width {
			fmt.Fprintf(&b, "\033[38;5;147m%c", r)
		} else {
			fmt.Fprintf(&b, "\033[38;5;250m%c", r)
		}
	}
	b.WriteString("\033[0m")
	return b.String()
}
