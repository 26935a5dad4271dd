package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned when no Source can read a file.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ExtractionError reports a failure to turn a file into text. Extraction
// failures are surfaced to the caller and never retried here.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Source extracts plain text from a document file.
type Source interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// SourceFor picks a Source based on the file extension.
func SourceFor(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDFSource{}, nil
	case ".txt", ".md", ".text", "":
		return TextSource{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// TextSource reads UTF-8 text files as-is.
type TextSource struct{}

func (TextSource) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	if !utf8.Valid(b) {
		return "", &ExtractionError{Path: path, Err: errors.New("file is not valid UTF-8")}
	}
	return normalizeText(string(b)), nil
}

// PDFSource extracts the text layer of a PDF, one paragraph break per page.
type PDFSource struct{}

func (PDFSource) ExtractText(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	text, err := extractPages(ctx, r)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	return text, nil
}

// ExtractPDF extracts text from an in-memory PDF, e.g. an HTTP upload.
func ExtractPDF(ctx context.Context, name string, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Path: name, Err: err}
	}
	text, err := extractPages(ctx, r)
	if err != nil {
		return "", &ExtractionError{Path: name, Err: err}
	}
	return text, nil
}

func extractPages(ctx context.Context, r *pdf.Reader) (string, error) {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", errors.New("no extractable text (scanned PDF?)")
	}
	return normalizeText(strings.Join(pages, "\n\n")), nil
}

// ReadAllText reads an uploaded plain text body.
func ReadAllText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("body is not valid UTF-8")
	}
	return normalizeText(string(b)), nil
}

// normalizeText unifies line endings and strips NUL bytes left by some
// extractors. It does not touch other whitespace so offsets stay meaningful.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\x00", "")
}
