package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/satreset/internal/core"
)

const countdownRefresh = 250 * time.Millisecond

// ErrWaitInterrupted is returned when the operator aborts a countdown.
var ErrWaitInterrupted = errors.New("wait interrupted by operator")

// Countdown blocks for d or until ctx is done. On a terminal it renders a
// progress bar; otherwise it simply waits.
func Countdown(ctx context.Context, out io.Writer, d time.Duration, label string) error {
	if d <= 0 {
		return nil
	}
	if !core.IsTerminal(out) {
		return Sleep(ctx, d)
	}

	m := newCountdownModel(label, d, time.Now())
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(out)).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("countdown display failed: %w", err)
	}
	if cm, ok := final.(countdownModel); ok && cm.interrupted {
		return ErrWaitInterrupted
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ─── Model ───────────────────────────────────────────────────────────────────

type countdownTickMsg time.Time

type countdownModel struct {
	label       string
	total       time.Duration
	start       time.Time
	elapsed     time.Duration
	bar         progress.Model
	done        bool
	interrupted bool
}

func newCountdownModel(label string, total time.Duration, start time.Time) countdownModel {
	return countdownModel{
		label: label,
		total: total,
		start: start,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func countdownTick() tea.Cmd {
	return tea.Tick(countdownRefresh, func(t time.Time) tea.Msg {
		return countdownTickMsg(t)
	})
}

func (m countdownModel) Init() tea.Cmd {
	return countdownTick()
}

func (m countdownModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
	case countdownTickMsg:
		m.elapsed = time.Time(msg).Sub(m.start)
		if m.elapsed >= m.total {
			m.elapsed = m.total
			m.done = true
			return m, tea.Quit
		}
		return m, countdownTick()
	}
	return m, nil
}

func (m countdownModel) percent() float64 {
	if m.total <= 0 {
		return 1
	}
	return float64(m.elapsed) / float64(m.total)
}

func (m countdownModel) View() string {
	if m.done || m.interrupted {
		return ""
	}
	remaining := (m.total - m.elapsed).Round(time.Second)
	var s strings.Builder
	s.WriteString("  ")
	s.WriteString(lipgloss.NewStyle().Foreground(ColorWarning).Render(m.label))
	s.WriteString("\n  ")
	s.WriteString(m.bar.ViewAs(m.percent()))
	s.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Render(fmt.Sprintf("  %s left", remaining)))
	s.WriteString("\n")
	return s.String()
}
