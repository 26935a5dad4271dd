// Package library is the start screen: the learner's documents.
package library

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyloop/internal/ingest"
	"github.com/abhisek/studyloop/internal/router"
	"github.com/abhisek/studyloop/internal/screen"
	"github.com/abhisek/studyloop/internal/screens/history"
	"github.com/abhisek/studyloop/internal/screens/study"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/ui/components"
	"github.com/abhisek/studyloop/internal/ui/layout"
	"github.com/abhisek/studyloop/internal/ui/theme"
)

// Catalog lists stored documents.
type Catalog interface {
	List(ctx context.Context) ([]store.DocumentSummary, error)
}

// Importer adds a document from a file.
type Importer interface {
	File(ctx context.Context, path, title string) (*ingest.Result, error)
}

// Deps are the services the library and the screens it opens use.
type Deps struct {
	Catalog  Catalog
	Importer Importer // nil disables adding documents
	Tutor    study.Tutor
	History  history.Source
	UserID   string
}

type listedMsg struct {
	Docs []store.DocumentSummary
	Err  error
}

type importedMsg struct {
	Result *ingest.Result
	Err    error
}

// LibraryScreen lists documents and opens a study loop on the chosen one.
type LibraryScreen struct {
	ctx  context.Context
	deps Deps

	docs      []store.DocumentSummary
	menu      components.Menu
	loaded    bool
	adding    bool
	importing bool
	input     components.PathInput
	notice    string
	errMsg    string
}

var _ screen.Screen = (*LibraryScreen)(nil)
var _ screen.KeyHintProvider = (*LibraryScreen)(nil)
var _ screen.Resumer = (*LibraryScreen)(nil)

// New creates the library screen.
func New(ctx context.Context, deps Deps) *LibraryScreen {
	return &LibraryScreen{ctx: ctx, deps: deps}
}

func (s *LibraryScreen) Init() tea.Cmd { return s.list() }

// Resume reloads the list; a sitting may have just finished.
func (s *LibraryScreen) Resume() tea.Cmd { return s.list() }

func (s *LibraryScreen) Title() string { return "Library" }

func (s *LibraryScreen) HandlesEscape() bool { return s.adding }

func (s *LibraryScreen) KeyHints() []layout.KeyHint {
	if s.adding {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Import"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Study"},
	}
	if s.deps.Importer != nil {
		hints = append(hints, layout.KeyHint{Key: "A", Description: "Add document"})
	}
	return append(hints,
		layout.KeyHint{Key: "H", Description: "History"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"},
	)
}

func (s *LibraryScreen) list() tea.Cmd {
	return func() tea.Msg {
		docs, err := s.deps.Catalog.List(s.ctx)
		return listedMsg{Docs: docs, Err: err}
	}
}

func (s *LibraryScreen) importFile(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := s.deps.Importer.File(s.ctx, path, "")
		return importedMsg{Result: res, Err: err}
	}
}

func (s *LibraryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.docs = msg.Docs
		s.rebuildMenu()
		return s, nil

	case importedMsg:
		s.importing = false
		if msg.Err != nil {
			s.adding = true
			s.input.Err = msg.Err.Error()
			return s, nil
		}
		s.adding = false
		s.notice = fmt.Sprintf("Added %q (%d passages)", msg.Result.Document.Title, len(msg.Result.Chunks))
		return s, s.list()

	case tea.KeyMsg:
		if s.adding {
			return s.updateAdding(msg)
		}
		switch msg.String() {
		case "a":
			if s.deps.Importer == nil {
				return s, nil
			}
			s.adding = true
			s.notice = ""
			s.input = components.NewPathInput("~/notes/chapter1.pdf")
			return s, s.input.Init()
		case "h":
			next := history.New(s.ctx, s.deps.History, s.deps.UserID)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}

	if s.adding {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *LibraryScreen) updateAdding(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.importing {
		return s, nil
	}
	switch msg.String() {
	case "esc":
		s.adding = false
		return s, nil
	case "enter":
		path := s.input.Value()
		if path == "" {
			return s, nil
		}
		s.importing = true
		return s, s.importFile(path)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *LibraryScreen) rebuildMenu() {
	items := make([]components.MenuItem, 0, len(s.docs))
	for _, d := range s.docs {
		next := study.New(s.ctx, s.deps.Tutor, s.deps.UserID, d.ID, d.Title)
		items = append(items, components.MenuItem{
			Label:  layout.Truncate(d.Title, 48),
			Detail: fmt.Sprintf("%d passages  added %s", d.Chunks, d.CreatedAt.Local().Format("Jan 02")),
			Action: func() tea.Cmd {
				return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			},
			Disabled: d.Chunks == 0,
		})
	}
	s.menu.SetItems(items)
}

func (s *LibraryScreen) View(width, height int) string {
	out := "\n"
	switch {
	case s.errMsg != "":
		out += theme.Centered(theme.Incorrect, width, "Error: "+s.errMsg)
	case !s.loaded:
		out += theme.Centered(theme.Dimmed, width, "Loading library...")
	case len(s.docs) == 0:
		out += theme.Centered(theme.Hint, width, "No documents yet.")
		if s.deps.Importer != nil {
			out += "\n" + theme.Centered(theme.Hint, width, "Press A to add a text, Markdown or PDF file.")
		}
	default:
		out += s.menu.View()
	}

	if s.notice != "" {
		out += "\n" + theme.Centered(theme.Correct, width, s.notice)
	}
	if s.adding {
		out += "\n\n" + theme.Card.Render(s.addView())
	}
	return out
}

func (s *LibraryScreen) addView() string {
	if s.importing {
		return theme.Dimmed.Render("Reading and splitting the document...")
	}
	return theme.Title.Render("Add a document") + "\n\n" + s.input.View()
}
