package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyloop/internal/ui/layout"
)

// Screen is one page of the terminal study app.
type Screen interface {
	// Init returns the command to run when the screen becomes active for
	// the first time.
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen body; the app draws header and footer.
	View(width, height int) string

	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put a short status, such as the current
// level, on the right side of the header.
type StatusProvider interface {
	Status() string
}

// Resumer is implemented by screens that reload data when they become
// active again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// EscapeHandler is implemented by screens that want Esc delivered to them
// instead of popping the stack.
type EscapeHandler interface {
	HandlesEscape() bool
}
