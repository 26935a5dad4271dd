package mastery

import (
	"errors"
	"fmt"
	"testing"

	"github.com/abhisek/studyloop/internal/corpus"
)

func chunks(topics ...string) []corpus.Chunk {
	out := make([]corpus.Chunk, len(topics))
	for i, topic := range topics {
		out[i] = corpus.Chunk{ID: fmt.Sprintf("c%d", i), DocumentID: "d", Seq: i, Topic: topic, Text: "text"}
	}
	return out
}

func serve(t *testing.T, c *Controller, s *State, cs []corpus.Chunk, reuse bool) string {
	t.Helper()
	ch, err := c.SelectChunk(s, cs, reuse)
	if err != nil {
		t.Fatalf("SelectChunk: %v", err)
	}
	c.MarkServed(s, ch.ID)
	return ch.ID
}

func TestSelectChunk_EmptyDocument(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	if _, err := c.SelectChunk(&s, nil, true); !errors.Is(err, ErrCorpusExhausted) {
		t.Fatalf("expected ErrCorpusExhausted, got %v", err)
	}
}

func TestSelectChunk_ReadingOrderWithoutMastery(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("a", "b", "c")

	var got []string
	for range cs {
		got = append(got, serve(t, c, &s, cs, false))
	}
	if fmt.Sprint(got) != "[c0 c1 c2]" {
		t.Fatalf("expected reading order, got %v", got)
	}
}

func TestSelectChunk_ExhaustedWithoutReuse(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("a", "b")
	serve(t, c, &s, cs, false)
	serve(t, c, &s, cs, false)

	if _, err := c.SelectChunk(&s, cs, false); !errors.Is(err, ErrCorpusExhausted) {
		t.Fatalf("expected ErrCorpusExhausted, got %v", err)
	}
	for _, ch := range cs {
		if s.Served[ch.ID].Count == 0 {
			t.Fatalf("chunk %s never served", ch.ID)
		}
	}
}

func TestSelectChunk_ReuseLeastRecentAndNeverLast(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("a", "b", "c")
	for range cs {
		serve(t, c, &s, cs, false)
	}

	// All served: c0 is least recent.
	if id := serve(t, c, &s, cs, true); id != "c0" {
		t.Fatalf("expected least recently served c0, got %s", id)
	}
	for i := range 10 {
		prev := s.LastChunkID
		if id := serve(t, c, &s, cs, true); id == prev {
			t.Fatalf("round %d repeated the last chunk %s", i, id)
		}
	}
}

func TestSelectChunk_SingleChunkReuse(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("a")
	serve(t, c, &s, cs, false)

	if _, err := c.SelectChunk(&s, cs, false); !errors.Is(err, ErrCorpusExhausted) {
		t.Fatalf("expected ErrCorpusExhausted without reuse, got %v", err)
	}
	if id := serve(t, c, &s, cs, true); id != "c0" {
		t.Fatalf("expected the only chunk with reuse, got %s", id)
	}
}

func TestSelectChunk_PrefersWeakTopics(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("cells", "energy", "cells", "genetics")

	// Learner keeps missing genetics.
	c.Apply(&s, Outcome{Correct: false, Topic: "genetics"})
	c.Apply(&s, Outcome{Correct: true, Topic: "cells"})

	if id := serve(t, c, &s, cs, false); id != "c3" {
		t.Fatalf("expected the genetics chunk c3, got %s", id)
	}
	// Once the weak topic's chunks are used, reading order resumes after it.
	if id := serve(t, c, &s, cs, false); id != "c0" {
		t.Fatalf("expected wraparound to c0, got %s", id)
	}
}

func TestSelectChunk_StrongTopicsDoNotSkip(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("cells", "energy")
	c.Apply(&s, Outcome{Correct: true, Topic: "energy"})

	if id := serve(t, c, &s, cs, false); id != "c0" {
		t.Fatalf("strong topics should not reorder, got %s", id)
	}
}

func TestSelectChunk_ReuseBreaksTiesOnMastery(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	cs := chunks("cells", "energy", "genetics")
	s.Served = map[string]ServedChunk{
		"c0": {Count: 1, LastServed: 1},
		"c1": {Count: 1, LastServed: 1},
		"c2": {Count: 1, LastServed: 2},
	}
	s.LastChunkID = "c2"
	s.TopicMastery = map[string]float64{"cells": 0.9, "energy": 0.1}

	ch, err := c.SelectChunk(&s, cs, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.ID != "c1" {
		t.Fatalf("expected weaker energy chunk c1, got %s", ch.ID)
	}
}

func TestEncodeDecodeState(t *testing.T) {
	c := newTestController()
	s := c.NewState("u1")
	answer(c, &s, true, true, true, false)
	c.MarkServed(&s, "c7")

	data, err := EncodeState(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeState(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "u1" || got.Difficulty != 2 || got.Window.Len() != 4 || got.Served["c7"].Count != 1 || got.LastChunkID != "c7" {
		t.Fatalf("state did not survive the round trip: %+v", got)
	}

	if _, err := DecodeState([]byte(`{"version": 99}`)); err == nil {
		t.Fatal("expected error for a future record version")
	}
}

func TestSelectChunkAvoiding(t *testing.T) {
	tests := []struct {
		name   string
		served int // chunks served before selecting
		reuse  bool
		avoid  []string
		want   string
	}{
		{"skips a busy fresh chunk", 0, true, []string{"c0"}, "c1"},
		{"skips several busy chunks", 0, true, []string{"c0", "c1"}, "c2"},
		{"everything busy falls back", 0, true, []string{"c0", "c1", "c2"}, "c0"},
		{"busy last fresh chunk without reuse", 2, false, []string{"c2"}, "c2"},
		{"busy last fresh chunk with reuse", 2, true, []string{"c2"}, "c0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController()
			s := c.NewState("u1")
			cs := chunks("a", "b", "c")
			for range tt.served {
				serve(t, c, &s, cs, false)
			}
			avoid := make(map[string]bool)
			for _, id := range tt.avoid {
				avoid[id] = true
			}
			got, err := c.SelectChunkAvoiding(&s, cs, tt.reuse, avoid)
			if err != nil {
				t.Fatalf("SelectChunkAvoiding: %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("picked %s, want %s", got.ID, tt.want)
			}
		})
	}
}
