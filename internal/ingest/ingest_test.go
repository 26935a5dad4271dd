package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/corpus"
	"github.com/abhisek/studyloop/internal/embed"
	"github.com/abhisek/studyloop/internal/segment"
	"github.com/abhisek/studyloop/internal/store"
)

func newIngester(t *testing.T) (*Ingester, *store.Store) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := segment.DefaultConfig()
	cfg.TargetChunkSize = 120
	cfg.SimilarityThreshold = 0.2
	seg := segment.New(embed.NewHashEmbedder(embed.DefaultHashDimensions), cfg, logger)
	return New(seg, st.DocumentRepo(), logger), st
}

const notes = `Photosynthesis turns light into chemical energy. Chlorophyll absorbs the light.

The Krebs cycle runs in the mitochondria. It releases carbon dioxide and stores energy.

DNA carries genetic information. Genes are copied into RNA before proteins are built.`

func TestFile_StoresDocumentAndChunks(t *testing.T) {
	in, st := newIngester(t)
	path := filepath.Join(t.TempDir(), "cell_biology.txt")
	require.NoError(t, os.WriteFile(path, []byte(notes), 0o644))

	res, err := in.File(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "cell biology", res.Document.Title)
	require.NotEmpty(t, res.Chunks)
	assert.Len(t, res.Document.ChunkIDs, len(res.Chunks))

	doc, err := st.DocumentRepo().Get(context.Background(), res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, notes, doc.Text)
	assert.Equal(t, res.Document.ChunkIDs, doc.ChunkIDs)

	chunks, err := st.DocumentRepo().Chunks(context.Background(), doc.ID)
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.Seq)
		assert.NoError(t, c.Validate(doc))
		assert.NotEmpty(t, c.Topic)
	}
}

func TestText_EmptyRejected(t *testing.T) {
	in, st := newIngester(t)
	_, err := in.Text(context.Background(), "blank", "blank.txt", " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	docs, err := st.DocumentRepo().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFile_UnsupportedFormat(t *testing.T) {
	in, _ := newIngester(t)
	_, err := in.File(context.Background(), "notes.docx", "")
	assert.ErrorIs(t, err, corpus.ErrUnsupportedFormat)
}

type failingSegmenter struct{}

func (failingSegmenter) Segment(context.Context, corpus.Document) ([]corpus.Chunk, error) {
	return nil, segment.ErrEmbeddingUnavailable
}

func TestText_SegmentationFailureStoresNothing(t *testing.T) {
	_, st := newIngester(t)
	in := New(failingSegmenter{}, st.DocumentRepo(), nil)

	_, err := in.Text(context.Background(), "notes", "notes.txt", notes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, segment.ErrEmbeddingUnavailable))

	docs, err := st.DocumentRepo().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}
