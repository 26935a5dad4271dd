package store

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/studyloop/internal/corpus"
	"github.com/abhisek/studyloop/internal/questiongen"
)

func TestDocumentSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc, _ := seedDocument(t, s, "d1")

	got, err := s.DocumentRepo().Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != doc.Title || got.Text != doc.Text {
		t.Errorf("document = %+v", got)
	}
	if len(got.ChunkIDs) != 2 || got.ChunkIDs[0] != "d1-c0" || got.ChunkIDs[1] != "d1-c1" {
		t.Errorf("chunk ids = %v", got.ChunkIDs)
	}

	chunks, err := s.DocumentRepo().Chunks(ctx, "d1")
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	c0 := chunks[0]
	if c0.Topic != "cells" || c0.End != 27 || len(c0.Keywords) != 2 {
		t.Errorf("chunk 0 = %+v", c0)
	}
	if len(c0.Embedding) != 2 || c0.Embedding[0] != 0.5 || c0.Embedding[1] != -1.25 {
		t.Errorf("embedding = %v", c0.Embedding)
	}
	if chunks[1].Embedding != nil {
		t.Errorf("expected nil embedding, got %v", chunks[1].Embedding)
	}
}

func TestDocumentGetNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.DocumentRepo().Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.DocumentRepo().Chunk(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentSaveRejectsChunkOutsideText(t *testing.T) {
	s := openTestStore(t)
	doc := corpus.Document{ID: "d1", Text: "short"}
	bad := []corpus.Chunk{{ID: "c0", DocumentID: "d1", Text: "short text", Start: 0, End: 40}}

	if err := s.DocumentRepo().Save(context.Background(), doc, bad); err == nil {
		t.Fatal("expected error for chunk span outside document")
	}
	if _, err := s.DocumentRepo().Get(context.Background(), "d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("document must not be stored, got %v", err)
	}
}

func TestDocumentList(t *testing.T) {
	s := openTestStore(t)
	seedDocument(t, s, "d1")
	seedDocument(t, s, "d2")

	docs, err := s.DocumentRepo().List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Chunks != 2 {
			t.Errorf("document %s has %d chunks, want 2", d.ID, d.Chunks)
		}
	}
}

func TestDocumentDeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, chunks := seedDocument(t, s, "d1")

	item := &questiongen.Item{
		ID: "q1", ChunkID: chunks[0].ID, DocumentID: "d1", Difficulty: 1,
		Stem: "What is the unit of life?", Options: [4]string{"Cell", "Atom", "Organ", "Tissue"},
	}
	if err := s.QuestionRepo().Save(ctx, "u1", item); err != nil {
		t.Fatalf("save question: %v", err)
	}
	if _, err := appendEvent(t, ctx, s.HistoryStore(), AnswerEvent{ID: "e1", UserID: "u1", QuestionID: "q1", DocumentID: "d1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DocumentRepo().Delete(ctx, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.DocumentRepo().Chunk(ctx, chunks[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("chunk should be gone, got %v", err)
	}
	if _, err := s.QuestionRepo().Get(ctx, "q1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("question should be gone, got %v", err)
	}
	if _, err := s.HistoryStore().Get(ctx, "e1"); err != nil {
		t.Errorf("history must survive document deletion: %v", err)
	}
	if err := s.DocumentRepo().Delete(ctx, "d1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestQuestionRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, chunks := seedDocument(t, s, "d1")
	repo := s.QuestionRepo()

	stems := []string{"First stem?", "Second stem?", "Third stem?"}
	for i, stem := range stems {
		item := &questiongen.Item{
			ID: string(rune('a' + i)), ChunkID: chunks[0].ID, DocumentID: "d1", Difficulty: 2,
			Stem: stem, Options: [4]string{"w", "x", "y", "z"}, CorrectIndex: 3, Rationale: "because",
		}
		if err := repo.Save(ctx, "u1", item); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	q, err := repo.Get(ctx, "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.UserID != "u1" || q.Options[3] != "z" || q.CorrectIndex != 3 || q.Stem != "Second stem?" {
		t.Errorf("question = %+v", q)
	}

	recent, err := repo.RecentStems(ctx, "u1", "d1", 2)
	if err != nil {
		t.Fatalf("recent stems: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %v", recent)
	}

	other, err := repo.RecentStems(ctx, "u2", "d1", 0)
	if err != nil {
		t.Fatalf("recent stems: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("stems of another learner leaked: %v", other)
	}

	bank, err := repo.ListByDocument(ctx, "d1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bank) != 3 {
		t.Errorf("len(bank) = %d, want 3", len(bank))
	}
}
