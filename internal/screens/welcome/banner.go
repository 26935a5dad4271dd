package welcome

import (
	"strings"

	"charm.land/lipgloss/v2"
	figure "github.com/common-nighthawk/go-figure"

	"github.com/abhisek/studyloop/internal/ui/theme"
)

const bannerCompact = "s t u d y l o o p"

// Banner returns the app name as block letters, trailing spaces trimmed.
func Banner() string {
	lines := strings.Split(figure.NewFigure("studyloop", "small", true).String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// RenderBanner styles the banner, falling back to spaced letters when the
// block letters would not fit in width.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	art := Banner()
	if lipgloss.Width(art) > width {
		return style.Render(bannerCompact)
	}
	return style.Render(art)
}
