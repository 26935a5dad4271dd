package study

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/ui/components"
	"github.com/abhisek/studyloop/internal/ui/theme"
)

func (s *StudyScreen) View(width, height int) string {
	if s.confirming {
		return s.renderConfirm(width)
	}

	var b strings.Builder
	b.WriteString(s.renderInfo(width))
	b.WriteString("\n\n")

	switch s.phase {
	case phaseLoading:
		b.WriteString(theme.Centered(theme.Dimmed, width, s.spinner.View()+" Writing a question..."))
	case phaseFailed:
		b.WriteString(theme.Centered(theme.Incorrect, width, s.errMsg))
		b.WriteString("\n\n")
		b.WriteString(theme.Centered(theme.Hint, width, "Press R to try another question."))
	case phaseExhausted:
		b.WriteString(theme.Centered(theme.Title, width, "You've covered this whole document."))
		b.WriteString("\n\n")
		b.WriteString(theme.Centered(theme.Hint, width, "Press Enter to see how it went."))
	default:
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choice.View(width)))
		if s.phase == phaseSubmitting {
			b.WriteString("\n")
			b.WriteString(theme.Centered(theme.Dimmed, width, s.spinner.View()+" Checking..."))
		}
		if s.phase == phaseFeedback {
			b.WriteString("\n")
			b.WriteString(s.renderFeedback(width))
		}
		if s.errMsg != "" {
			b.WriteString("\n")
			b.WriteString(theme.Centered(theme.Incorrect, width, s.errMsg))
		}
	}
	return b.String()
}

// renderInfo is the line above the question: level, streak and count.
func (s *StudyScreen) renderInfo(width int) string {
	if !s.hasProg {
		return ""
	}
	p := s.progress
	left := "  " + components.LevelMeter(p.Difficulty, p.MinDifficulty, p.MaxDifficulty) +
		"  " + theme.Dimmed.Render(string(p.Mood))

	correct := 0
	for _, ev := range s.answered {
		if ev.Correct {
			correct++
		}
	}
	right := theme.Dimmed.Render(fmt.Sprintf("%d/%d this sitting", correct, len(s.answered)))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 2; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}
	return line + "\n" + lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-2, 0)))
}

func (s *StudyScreen) renderFeedback(width int) string {
	var b strings.Builder
	if s.last.Correct {
		b.WriteString(theme.Centered(theme.Correct, width, "Correct!"))
	} else {
		b.WriteString(theme.Centered(theme.Incorrect, width, "Not quite"))
		b.WriteString("\n")
		b.WriteString(theme.Centered(theme.Dimmed, width, fmt.Sprintf("The answer was %s) %s",
			questiongen.OptionLabel(s.item.CorrectIndex), s.item.Options[s.item.CorrectIndex])))
	}
	b.WriteString("\n")

	if s.item.Rationale != "" {
		rationale := lipgloss.NewStyle().
			Width(min(width-8, 72)).
			Foreground(theme.Text).
			Render(s.item.Rationale)
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, rationale))
		b.WriteString("\n")
	}

	switch to := s.progress.Difficulty; {
	case s.levelFrom == 0:
	case to > s.levelFrom:
		b.WriteString("\n")
		b.WriteString(theme.Centered(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), width,
			fmt.Sprintf("Level up! Now at level %d", to)))
	case to < s.levelFrom:
		b.WriteString("\n")
		b.WriteString(theme.Centered(theme.Dimmed, width,
			fmt.Sprintf("Easing off to level %d", to)))
	}
	return b.String()
}

func (s *StudyScreen) renderConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(theme.Centered(theme.Title, width, "Finish studying?"))
	b.WriteString("\n\n")
	b.WriteString(theme.Centered(theme.Body, width,
		fmt.Sprintf("You've answered %d question(s). Your level is saved.", len(s.answered))))
	b.WriteString("\n\n")
	b.WriteString(theme.Centered(theme.Hint, width, "Y to finish, N to keep going"))
	return b.String()
}
