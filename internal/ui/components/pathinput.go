package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyloop/internal/ui/theme"
)

// PathInput is a one-line prompt for a file path.
type PathInput struct {
	Model textinput.Model
	Err   string
}

// NewPathInput creates a focused prompt.
func NewPathInput(placeholder string) PathInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "path: "
	ti.CharLimit = 1024
	ti.Focus()
	return PathInput{Model: ti}
}

// Init starts the cursor blinking.
func (p PathInput) Init() tea.Cmd {
	return p.Model.Focus()
}

// Update forwards input to the text field and clears a stale error.
func (p PathInput) Update(msg tea.Msg) (PathInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		p.Err = ""
	}
	var cmd tea.Cmd
	p.Model, cmd = p.Model.Update(msg)
	return p, cmd
}

// Value returns the trimmed path.
func (p PathInput) Value() string {
	return strings.TrimSpace(p.Model.Value())
}

// View renders the prompt and any error under it.
func (p PathInput) View() string {
	v := p.Model.View()
	if p.Err != "" {
		v += "\n" + theme.Incorrect.Render(p.Err)
	}
	return v
}
