// Package ingest turns study files into stored, segmented documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyloop/internal/corpus"
)

// ErrEmptyDocument is returned when a file holds no extractable text.
var ErrEmptyDocument = errors.New("document has no text")

// Segmenter splits a document into chunks.
type Segmenter interface {
	Segment(ctx context.Context, doc corpus.Document) ([]corpus.Chunk, error)
}

// Saver persists a document with its chunks in one step.
type Saver interface {
	Save(ctx context.Context, doc corpus.Document, chunks []corpus.Chunk) error
}

// Ingester extracts, segments and stores documents.
type Ingester struct {
	segmenter Segmenter
	docs      Saver
	sourceFor func(path string) (corpus.Source, error)
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an Ingester.
func New(seg Segmenter, docs Saver, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		segmenter: seg,
		docs:      docs,
		sourceFor: corpus.SourceFor,
		logger:    logger,
		now:       time.Now,
	}
}

// Result describes an ingested document.
type Result struct {
	Document  corpus.Document
	Chunks    []corpus.Chunk
	Oversized int
}

// File ingests the file at path. An empty title is derived from the path.
func (in *Ingester) File(ctx context.Context, path, title string) (*Result, error) {
	src, err := in.sourceFor(path)
	if err != nil {
		return nil, err
	}
	text, err := src.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = corpus.TitleFromPath(path)
	}
	return in.Text(ctx, title, path, text)
}

// Text ingests already extracted text. Nothing is stored unless the whole
// document segments successfully.
func (in *Ingester) Text(ctx context.Context, title, source, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}
	doc := corpus.Document{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    source,
		Text:      text,
		CreatedAt: in.now().UTC(),
	}

	start := time.Now()
	chunks, err := in.segmenter.Segment(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", source, err)
	}
	if err := in.docs.Save(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("store %s: %w", source, err)
	}

	res := &Result{Document: doc, Chunks: chunks}
	for _, c := range chunks {
		res.Document.ChunkIDs = append(res.Document.ChunkIDs, c.ID)
		if c.Oversized {
			res.Oversized++
		}
	}
	in.logger.Info("document ingested",
		"document_id", doc.ID,
		"title", title,
		"chunks", len(chunks),
		"oversized", res.Oversized,
		"elapsed", time.Since(start),
	)
	return res, nil
}
