// Package ui renders operator-facing console output.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/satreset/internal/core"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
)

// Level is the semantic weight of a console message.
type Level int

const (
	LevelInfo Level = iota
	LevelProgress
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) style() lipgloss.Style {
	switch l {
	case LevelProgress:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case LevelSuccess:
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	case LevelWarn:
		return lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	case LevelError:
		return lipgloss.NewStyle().Foreground(ColorDanger)
	default:
		return lipgloss.NewStyle().Foreground(ColorPrimary)
	}
}

// Render styles msg for level. It has no side effects.
func Render(level Level, msg string) string {
	return level.style().Render(msg)
}

// Printer writes leveled messages, with colour only on a terminal.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter returns a Printer for out. Colour is enabled when out is a
// terminal.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, color: core.IsTerminal(out)}
}

// Print writes msg on its own line.
func (p *Printer) Print(level Level, msg string) {
	if p.color {
		msg = Render(level, msg)
	}
	fmt.Fprintln(p.out, msg)
}

// Prompt writes msg without a trailing newline.
func (p *Printer) Prompt(level Level, msg string) {
	if p.color {
		msg = Render(level, msg)
	}
	fmt.Fprint(p.out, msg)
}

// Printf formats and writes a message.
func (p *Printer) Printf(level Level, format string, args ...any) {
	p.Print(level, fmt.Sprintf(format, args...))
}
