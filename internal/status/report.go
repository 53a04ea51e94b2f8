// Package status renders the read-only disk precheck report.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/satreset/internal/core"
	"github.com/lakshaymaurya-felt/satreset/internal/diskcheck"
	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

const barWidth = 30

var (
	clrGreen  = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	clrYellow = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	clrOrange = lipgloss.AdaptiveColor{Light: "#ea580c", Dark: "#fb923c"}
	clrRed    = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
)

// Render draws one line per monitored directory, its usage relative to the
// free space on the volume, and the precheck verdict.
func Render(snap diskcheck.Snapshot) string {
	var lines []string

	title := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).
		Render(fmt.Sprintf("Free space on %s: %s", snap.Volume, core.FormatSize(snap.Free)))
	lines = append(lines, "", "  "+title, "")

	nameW := 0
	for _, d := range snap.Dirs {
		nameW = max(nameW, len(d.Dir.Path))
	}

	for _, d := range snap.Dirs {
		pct := percentOfFree(d.Used, snap.Free)
		line := fmt.Sprintf("  %-*s %s  %6.1f%%  %s",
			nameW, d.Dir.Path, colorBar(pct, barWidth), pct, core.FormatSize(d.Used))
		if d.Dir.Description != "" {
			line += lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  " + d.Dir.Description)
		}
		lines = append(lines, line)
	}

	if n := snap.Skipped(); n > 0 {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(ui.ColorMuted).
			Render(fmt.Sprintf("  %d unreadable entries were not counted", n)))
	}

	lines = append(lines, "", "  "+verdict(snap))
	return strings.Join(lines, "\n") + "\n"
}

func verdict(snap diskcheck.Snapshot) string {
	if err := snap.Verify(); err != nil {
		return ui.Render(ui.LevelError, "FAIL  "+err.Error())
	}
	return ui.Render(ui.LevelSuccess, "OK    every monitored directory fits in the free space")
}

// percentOfFree is used/free as a percentage. Anything with no free space
// is 100% unless it is empty too.
func percentOfFree(used, free int64) float64 {
	if free <= 0 {
		if used == 0 {
			return 0
		}
		return 100
	}
	return float64(used) / float64(free) * 100
}

// colorBar renders a ████░░░░ bar colored by severity. Values over 100% are
// drawn full.
func colorBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	filled := int(min(pct, 100) / 100 * float64(width))

	barColor := clrGreen
	switch {
	case pct >= 100:
		barColor = clrRed
	case pct >= 75:
		barColor = clrOrange
	case pct >= 50:
		barColor = clrYellow
	}

	fStr := lipgloss.NewStyle().Foreground(barColor).Render(strings.Repeat("█", filled))
	eStr := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(strings.Repeat("░", width-filled))
	return fStr + eStr
}
