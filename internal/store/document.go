package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/corpus"
)

// DocumentRepo persists documents together with their chunks.
type DocumentRepo struct {
	store *Store
}

// DocumentSummary is a library listing entry.
type DocumentSummary struct {
	ID        string    `sql:"id"`
	Title     string    `sql:"title"`
	Source    string    `sql:"source"`
	CreatedAt time.Time `sql:"created_at"`
	Chunks    int       `sql:"-"`
}

type documentRow struct {
	ID        string    `sql:"id"`
	Title     string    `sql:"title"`
	Source    string    `sql:"source"`
	Text      string    `sql:"text"`
	CreatedAt time.Time `sql:"created_at"`
}

type chunkRow struct {
	ID         string `sql:"id"`
	DocumentID string `sql:"document_id"`
	Seq        int    `sql:"seq"`
	Text       string `sql:"text"`
	Start      int    `sql:"start_offset"`
	End        int    `sql:"end_offset"`
	Embedding  []byte `sql:"embedding"`
	Keywords   string `sql:"keywords"`
	Topic      string `sql:"topic"`
	Oversized  bool   `sql:"oversized"`
}

var chunkColumns = []string{
	"id", "document_id", "seq", "text", "start_offset", "end_offset",
	"embedding", "keywords", "topic", "oversized",
}

// Save stores a document and all of its chunks in one transaction. Every
// chunk must lie inside the document text.
func (r *DocumentRepo) Save(ctx context.Context, doc corpus.Document, chunks []corpus.Chunk) error {
	for _, ch := range chunks {
		if err := ch.Validate(doc); err != nil {
			return fmt.Errorf("save document %s: %w", doc.ID, err)
		}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		insDoc := r.store.builder().Insert(tableDocuments).
			Columns("id", "title", "source", "text", "created_at").
			Values(doc.ID, doc.Title, doc.Source, doc.Text, doc.CreatedAt)
		if _, err := exec(ctx, tx, insDoc); err != nil {
			return fmt.Errorf("save document %s: %w", doc.ID, err)
		}
		if len(chunks) == 0 {
			return nil
		}

		insChunks := r.store.builder().Insert(tableChunks).Columns(chunkColumns...)
		for _, ch := range chunks {
			keywords, err := json.Marshal(ch.Keywords)
			if err != nil {
				return fmt.Errorf("encode keywords for chunk %s: %w", ch.ID, err)
			}
			insChunks.Values(ch.ID, doc.ID, ch.Seq, ch.Text, ch.Start, ch.End,
				encodeVector(ch.Embedding), string(keywords), ch.Topic, ch.Oversized)
		}
		if _, err := exec(ctx, tx, insChunks); err != nil {
			return fmt.Errorf("save chunks of %s: %w", doc.ID, err)
		}
		return nil
	})
}

// Get returns a document with its chunk IDs in reading order.
func (r *DocumentRepo) Get(ctx context.Context, id string) (corpus.Document, error) {
	b := r.store.builder()
	var rows []documentRow
	sel := b.Select("id", "title", "source", "text", "created_at").
		From(b.Table(tableDocuments)).
		Where(entsql.EQ("id", id))
	if err := scanAll(ctx, r.store.db, sel, &rows); err != nil {
		return corpus.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(rows) == 0 {
		return corpus.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	var ids []struct {
		ID string `sql:"id"`
	}
	idSel := b.Select("id").
		From(b.Table(tableChunks)).
		Where(entsql.EQ("document_id", id)).
		OrderBy("seq")
	if err := scanAll(ctx, r.store.db, idSel, &ids); err != nil {
		return corpus.Document{}, fmt.Errorf("list chunk ids of %s: %w", id, err)
	}

	row := rows[0]
	doc := corpus.Document{
		ID:        row.ID,
		Title:     row.Title,
		Source:    row.Source,
		Text:      row.Text,
		CreatedAt: row.CreatedAt,
	}
	for _, c := range ids {
		doc.ChunkIDs = append(doc.ChunkIDs, c.ID)
	}
	return doc, nil
}

// List returns every stored document, newest first, with chunk counts.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentSummary, error) {
	b := r.store.builder()
	var docs []DocumentSummary
	sel := b.Select("id", "title", "source", "created_at").
		From(b.Table(tableDocuments)).
		OrderBy(entsql.Desc("created_at"), "id")
	if err := scanAll(ctx, r.store.db, sel, &docs); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var counts []struct {
		DocumentID string `sql:"document_id"`
		N          int    `sql:"n"`
	}
	countSel := b.Select("document_id", entsql.As(entsql.Count("*"), "n")).
		From(b.Table(tableChunks)).
		GroupBy("document_id")
	if err := scanAll(ctx, r.store.db, countSel, &counts); err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	byDoc := make(map[string]int, len(counts))
	for _, c := range counts {
		byDoc[c.DocumentID] = c.N
	}
	for i := range docs {
		docs[i].Chunks = byDoc[docs[i].ID]
	}
	return docs, nil
}

// Chunks returns a document's chunks in reading order.
func (r *DocumentRepo) Chunks(ctx context.Context, documentID string) ([]corpus.Chunk, error) {
	b := r.store.builder()
	sel := b.Select(chunkColumns...).
		From(b.Table(tableChunks)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("seq")
	return r.queryChunks(ctx, sel)
}

// Chunk returns a single chunk.
func (r *DocumentRepo) Chunk(ctx context.Context, id string) (corpus.Chunk, error) {
	b := r.store.builder()
	sel := b.Select(chunkColumns...).
		From(b.Table(tableChunks)).
		Where(entsql.EQ("id", id))
	chunks, err := r.queryChunks(ctx, sel)
	if err != nil {
		return corpus.Chunk{}, err
	}
	if len(chunks) == 0 {
		return corpus.Chunk{}, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	return chunks[0], nil
}

func (r *DocumentRepo) queryChunks(ctx context.Context, sel *entsql.Selector) ([]corpus.Chunk, error) {
	var rows []chunkRow
	if err := scanAll(ctx, r.store.db, sel, &rows); err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	chunks := make([]corpus.Chunk, 0, len(rows))
	for _, row := range rows {
		ch := corpus.Chunk{
			ID:         row.ID,
			DocumentID: row.DocumentID,
			Seq:        row.Seq,
			Text:       row.Text,
			Start:      row.Start,
			End:        row.End,
			Embedding:  decodeVector(row.Embedding),
			Topic:      row.Topic,
			Oversized:  row.Oversized,
		}
		if row.Keywords != "" {
			if err := json.Unmarshal([]byte(row.Keywords), &ch.Keywords); err != nil {
				return nil, fmt.Errorf("decode keywords for chunk %s: %w", row.ID, err)
			}
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// Delete removes a document. Its chunks and generated questions go with it;
// answer history is kept.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	del := r.store.builder().Delete(tableDocuments).Where(entsql.EQ("id", id))
	res, err := exec(ctx, r.store.db, del)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// encodeVector packs a float32 vector as little-endian bytes.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
