package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/router"
	"github.com/abhisek/studyloop/internal/screen"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/ui/layout"
	"github.com/abhisek/studyloop/internal/ui/theme"
)

// SummaryScreen shows how a study sitting went.
type SummaryScreen struct {
	summary  *session.Summary
	document string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a summary for a sitting on document.
func New(sum *session.Summary, document string) *SummaryScreen {
	return &SummaryScreen{summary: sum, document: document}
}

func (s *SummaryScreen) Init() tea.Cmd { return nil }

func (s *SummaryScreen) Title() string { return "Summary" }

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Library"},
		{Key: "Esc", Description: "Library"},
	}
}

func (s *SummaryScreen) HandlesEscape() bool { return true }

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc", "q":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Centered(theme.Title, width, "Nice work"))
	b.WriteString("\n")
	if s.document != "" {
		b.WriteString(theme.Centered(theme.Dimmed, width, layout.Truncate(s.document, width-4)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if sum.TotalQuestions == 0 {
		b.WriteString(theme.Centered(theme.Hint, width, "No questions answered this time."))
		return b.String()
	}

	stats := fmt.Sprintf("Questions %d     Correct %d     Accuracy %.0f%%     Time %s",
		sum.TotalQuestions, sum.TotalCorrect, sum.Accuracy*100, clock(sum))
	b.WriteString(theme.Centered(theme.Body, width, stats))
	b.WriteString("\n\n")

	level := fmt.Sprintf("Level %d", sum.EndDifficulty)
	style := theme.Body
	switch {
	case sum.EndDifficulty > sum.StartDifficulty:
		level = fmt.Sprintf("Level %d > %d", sum.StartDifficulty, sum.EndDifficulty)
		style = theme.Correct
	case sum.EndDifficulty < sum.StartDifficulty:
		level = fmt.Sprintf("Level %d > %d", sum.StartDifficulty, sum.EndDifficulty)
		style = theme.Incorrect
	}
	b.WriteString(theme.Centered(style, width, level))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(theme.Centered(theme.Dimmed, width, "Topics"))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	// Leave room for the heading block above.
	rows := max(height-12, 1)
	for i, tr := range sum.TopicResults {
		if i == rows {
			b.WriteString(theme.Centered(theme.Hint, width, fmt.Sprintf("and %d more", len(sum.TopicResults)-rows)))
			break
		}
		line := fmt.Sprintf("%-32s %d/%d", layout.Truncate(tr.Topic, 32), tr.Correct, tr.Total)
		st := theme.Body
		if tr.Correct == tr.Total {
			st = lipgloss.NewStyle().Foreground(theme.Success)
		}
		b.WriteString(theme.Centered(st, width, line))
		b.WriteString("\n")
	}
	return b.String()
}

func clock(sum *session.Summary) string {
	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}
