package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/ui/theme"
)

// MultiChoice shows a question's four options and captures one choice.
// It does not grade: the caller reveals the correct option once the answer
// has been recorded.
type MultiChoice struct {
	Item     *questiongen.Item
	Selected int

	// Chosen is the picked option, -1 until the learner commits.
	Chosen int

	revealed bool
	correct  int
}

// NewMultiChoice creates a selector for item.
func NewMultiChoice(item *questiongen.Item) MultiChoice {
	return MultiChoice{Item: item, Chosen: -1}
}

// Committed reports whether the learner has picked an option.
func (m MultiChoice) Committed() bool { return m.Chosen >= 0 }

// Reveal marks the correct option for display.
func (m *MultiChoice) Reveal(correctIndex int) {
	m.revealed = true
	m.correct = correctIndex
}

// Update handles arrows + Enter, and direct picks by letter or number.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Committed() || m.Item == nil {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < questiongen.OptionCount-1 {
			m.Selected++
		}
	case "enter":
		m.Chosen = m.Selected
	default:
		if len(key) != 1 {
			break
		}
		if i, err := questiongen.ParseChoice(key, m.Item); err == nil {
			m.Selected = i
			m.Chosen = i
		}
	}
	return m, nil
}

// View renders the stem and options wrapped to width.
func (m MultiChoice) View(width int) string {
	if m.Item == nil {
		return ""
	}
	textWidth := max(min(width-8, 76), 20)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text).Bold(true).Render(m.Item.Stem))
	b.WriteString("\n\n")

	for i, opt := range m.Item.Options {
		prefix := "  "
		if i == m.Selected && !m.Committed() {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s) %s", prefix, questiongen.OptionLabel(i), opt)
		style := lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text)
		switch {
		case m.revealed && i == m.correct:
			style = style.Foreground(theme.Success).Bold(true)
		case m.revealed && i == m.Chosen:
			style = style.Foreground(theme.Error).Bold(true)
		case m.revealed, m.Committed():
			style = style.Foreground(theme.TextDim)
		case i == m.Selected:
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
