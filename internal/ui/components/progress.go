package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/ui/theme"
)

// ProgressBar is a horizontal bar with an optional label and percentage.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a bar filled to percent (0..1).
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: showPercent, Width: width}
}

// View renders the bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result = theme.Body.Render(p.Label) + "  "
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6
	}
	barWidth := max(p.Width-lipgloss.Width(result)-percentWidth, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	result += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowPercent {
		result += theme.Dimmed.Render(fmt.Sprintf("  %3d%%", int(p.Percent*100+0.5)))
	}
	return result
}

// LevelMeter draws the difficulty scale as pips, e.g. "●●●○○ 3/5".
func LevelMeter(level, minLevel, maxLevel int) string {
	var b strings.Builder
	for l := minLevel; l <= maxLevel; l++ {
		if l <= level {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("●"))
		} else {
			b.WriteString(theme.Dimmed.Render("○"))
		}
	}
	return b.String() + theme.Dimmed.Render(fmt.Sprintf(" %d/%d", level, maxLevel))
}
