// Package corpus holds study documents, the chunks they are split into,
// and the sources that turn uploaded files into plain text.
package corpus

import (
	"fmt"
	"strings"
	"time"
)

// Document is an ingested study document. It is immutable once saved and
// exclusively owns its chunks.
type Document struct {
	ID        string
	Title     string
	Source    string // original file path or name
	Text      string
	ChunkIDs  []string
	CreatedAt time.Time
}

// Chunk is a bounded, semantically coherent span of a document's text.
// Start and End are byte offsets into Document.Text.
type Chunk struct {
	ID         string
	DocumentID string
	Seq        int
	Text       string
	Start      int
	End        int
	Embedding  []float32
	Keywords   []string
	Topic      string

	// Oversized marks a single unit longer than the target chunk size
	// that was kept whole as its own chunk.
	Oversized bool
}

// Validate checks the chunk against its parent document. A chunk whose span
// falls outside the document text is a programming error upstream.
func (c Chunk) Validate(doc Document) error {
	if c.DocumentID != doc.ID {
		return fmt.Errorf("chunk %s references document %q, not %q", c.ID, c.DocumentID, doc.ID)
	}
	if c.Start < 0 || c.End > len(doc.Text) || c.Start > c.End {
		return fmt.Errorf("chunk %s span [%d,%d) outside document of %d bytes", c.ID, c.Start, c.End, len(doc.Text))
	}
	if strings.TrimSpace(doc.Text[c.Start:c.End]) != c.Text {
		return fmt.Errorf("chunk %s text does not match document span", c.ID)
	}
	return nil
}

// TitleFromPath derives a display title from a file path.
func TitleFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}
