package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyloop/internal/corpus"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/store"
)

// fakeGenerator returns an item whose first option is correct.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []questiongen.Input
	err   error
	block chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, in questiongen.Input) (*questiongen.Item, error) {
	g.mu.Lock()
	g.calls = append(g.calls, in)
	err, block := g.err, g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &questiongen.Item{
		ID:           uuid.NewString(),
		ChunkID:      in.Chunk.ID,
		DocumentID:   in.Chunk.DocumentID,
		Difficulty:   in.Difficulty,
		Stem:         "What does " + in.Chunk.ID + " say?",
		Options:      [questiongen.OptionCount]string{"right", "wrong a", "wrong b", "wrong c"},
		CorrectIndex: 0,
		Topic:        in.Chunk.Topic,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGenerator) lastCall() questiongen.Input {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// seedDocument stores a document with one chunk per topic.
func seedDocument(t *testing.T, st *store.Store, id string, topics ...string) []corpus.Chunk {
	t.Helper()
	var text strings.Builder
	var chunks []corpus.Chunk
	for i, topic := range topics {
		sentence := fmt.Sprintf("Sentence %d is about %s.", i, topic)
		start := text.Len()
		text.WriteString(sentence)
		chunks = append(chunks, corpus.Chunk{
			ID: fmt.Sprintf("%s-c%d", id, i), DocumentID: id, Seq: i,
			Text: sentence, Start: start, End: start + len(sentence), Topic: topic,
		})
		text.WriteString(" ")
	}
	doc := corpus.Document{ID: id, Title: id, Source: id + ".txt", Text: text.String(), CreatedAt: time.Now().UTC()}
	if err := st.DocumentRepo().Save(context.Background(), doc, chunks); err != nil {
		t.Fatalf("save document: %v", err)
	}
	return chunks
}

type fixture struct {
	st  *store.Store
	gen *fakeGenerator
	orc *Orchestrator
}

func newFixture(t *testing.T, mcfg mastery.Config, cfg Config) *fixture {
	t.Helper()
	st := openTestStore(t)
	gen := &fakeGenerator{}
	deps := StoreDeps(st)
	deps.Generator = gen
	deps.Controller = mastery.New(mcfg)
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	orc, err := New(deps, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(orc.Close)
	return &fixture{st: st, gen: gen, orc: orc}
}

func defaultFixture(t *testing.T) *fixture {
	return newFixture(t, mastery.DefaultConfig(), DefaultConfig())
}

func (f *fixture) next(t *testing.T, user, doc string) *questiongen.Item {
	t.Helper()
	item, err := f.orc.NextQuestion(context.Background(), user, doc)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	return item
}

func (f *fixture) answer(t *testing.T, user string, item *questiongen.Item, correct bool) *AnswerEvent {
	t.Helper()
	chosen := item.CorrectIndex
	if !correct {
		chosen = (chosen + 1) % questiongen.OptionCount
	}
	ev, err := f.orc.SubmitAnswer(context.Background(), Submission{UserID: user, QuestionID: item.ID, Chosen: chosen})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	return ev
}

func TestNextQuestion_ServesFirstChunkAtStartDifficulty(t *testing.T) {
	f := defaultFixture(t)
	chunks := seedDocument(t, f.st, "doc", "cells", "energy", "genes")

	item := f.next(t, "ana", "doc")
	if item.ChunkID != chunks[0].ID {
		t.Errorf("ChunkID = %s, want %s", item.ChunkID, chunks[0].ID)
	}
	if item.Difficulty != 1 {
		t.Errorf("Difficulty = %d, want 1", item.Difficulty)
	}

	got, err := f.st.QuestionRepo().Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("question not stored: %v", err)
	}
	if got.UserID != "ana" {
		t.Errorf("stored UserID = %q", got.UserID)
	}

	s, err := f.orc.Mastery(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if s.Served[chunks[0].ID].Count != 1 || s.LastChunkID != chunks[0].ID {
		t.Errorf("served = %+v last = %s", s.Served, s.LastChunkID)
	}

	second := f.next(t, "ana", "doc")
	if second.ChunkID != chunks[1].ID {
		t.Errorf("second ChunkID = %s, want %s", second.ChunkID, chunks[1].ID)
	}
}

func TestNextQuestion_PassesPriorStems(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy")

	first := f.next(t, "ana", "doc")
	f.next(t, "ana", "doc")

	stems := f.gen.lastCall().PriorStems
	if len(stems) != 1 || stems[0] != first.Stem {
		t.Errorf("PriorStems = %v, want [%q]", stems, first.Stem)
	}
}

func TestNextQuestion_Errors(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	if _, err := f.orc.NextQuestion(ctx, "", "doc"); !errors.Is(err, ErrMissingUser) {
		t.Errorf("missing user: err = %v", err)
	}
	if _, err := f.orc.NextQuestion(ctx, "ana", "nope"); !errors.Is(err, ErrUnknownDocument) {
		t.Errorf("unknown document: err = %v", err)
	}
}

func TestNextQuestion_GenerationFailureLeavesStateAlone(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	f.gen.err = fmt.Errorf("backend down: %w", questiongen.ErrGenerationFailed)

	_, err := f.orc.NextQuestion(context.Background(), "ana", "doc")
	if !errors.Is(err, questiongen.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	s, _ := f.orc.Mastery(context.Background(), "ana")
	if len(s.Served) != 0 || s.Tick != 0 {
		t.Errorf("state changed after failure: %+v", s)
	}
}

func TestNextQuestion_CancelledDuringGeneration(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	f.gen.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.orc.NextQuestion(ctx, "ana", "doc")
		done <- err
	}()
	for f.gen.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	s, _ := f.orc.Mastery(context.Background(), "ana")
	if len(s.Served) != 0 {
		t.Errorf("served = %v, want none", s.Served)
	}
}

func TestNextQuestion_ConcurrentCallsUseDifferentChunks(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy", "genes")
	f.gen.block = make(chan struct{})

	type result struct {
		item *questiongen.Item
		err  error
	}
	results := make(chan result, 2)
	for range 2 {
		go func() {
			item, err := f.orc.NextQuestion(context.Background(), "ana", "doc")
			results <- result{item, err}
		}()
	}
	for f.gen.callCount() < 2 {
		time.Sleep(time.Millisecond)
	}
	close(f.gen.block)

	seen := make(map[string]bool)
	for range 2 {
		r := <-results
		if r.err != nil {
			t.Fatalf("NextQuestion: %v", r.err)
		}
		if seen[r.item.ChunkID] {
			t.Fatalf("chunk %s served to both calls", r.item.ChunkID)
		}
		seen[r.item.ChunkID] = true
	}
	if !seen["doc-c0"] || !seen["doc-c1"] {
		t.Errorf("served %v, want doc-c0 and doc-c1", seen)
	}
}

func TestNextQuestion_FailedGenerationReleasesChunk(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy")

	f.gen.err = errors.New("model offline")
	if _, err := f.orc.NextQuestion(context.Background(), "ana", "doc"); err == nil {
		t.Fatal("expected generation error")
	}
	f.gen.mu.Lock()
	f.gen.err = nil
	f.gen.mu.Unlock()

	if item := f.next(t, "ana", "doc"); item.ChunkID != "doc-c0" {
		t.Errorf("chunk = %s, want doc-c0 after the failed attempt", item.ChunkID)
	}
}

func TestNextQuestion_CancelledGenerationReleasesChunk(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy")
	f.gen.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.orc.NextQuestion(ctx, "ana", "doc")
		done <- err
	}()
	for f.gen.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	f.gen.mu.Lock()
	f.gen.block = nil
	f.gen.mu.Unlock()
	if item := f.next(t, "ana", "doc"); item.ChunkID != "doc-c0" {
		t.Errorf("chunk = %s, want doc-c0 after the cancelled attempt", item.ChunkID)
	}
}

func TestNextQuestion_CorpusExhausted(t *testing.T) {
	mcfg := mastery.DefaultConfig()
	mcfg.AllowReuse = false
	f := newFixture(t, mcfg, DefaultConfig())
	seedDocument(t, f.st, "doc", "cells", "energy")

	f.next(t, "ana", "doc")
	f.next(t, "ana", "doc")
	if _, err := f.orc.NextQuestion(context.Background(), "ana", "doc"); !errors.Is(err, mastery.ErrCorpusExhausted) {
		t.Fatalf("err = %v, want ErrCorpusExhausted", err)
	}
	if n := f.gen.callCount(); n != 2 {
		t.Errorf("generator called %d times, want 2", n)
	}
}

func TestNextQuestion_EmptyDocumentExhausted(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "empty")
	if _, err := f.orc.NextQuestion(context.Background(), "ana", "empty"); !errors.Is(err, mastery.ErrCorpusExhausted) {
		t.Fatalf("err = %v, want ErrCorpusExhausted", err)
	}
}

func TestSubmitAnswer_RecordsAndGrades(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy")

	item := f.next(t, "ana", "doc")
	ev := f.answer(t, "ana", item, false)
	if ev.Correct {
		t.Error("wrong choice graded correct")
	}
	if ev.Topic != "cells" || ev.Difficulty != 1 || ev.DocumentID != "doc" {
		t.Errorf("event = %+v", ev)
	}
	if ev.ID != DeriveEventID("ana", item.ID) {
		t.Errorf("event ID = %s, want derived ID", ev.ID)
	}

	s, _ := f.orc.Mastery(context.Background(), "ana")
	if s.TotalAnswered != 1 || s.TotalCorrect != 0 {
		t.Errorf("totals = %d/%d", s.TotalCorrect, s.TotalAnswered)
	}
	if m := s.TopicMastery["cells"]; m >= 0.5 {
		t.Errorf("cells mastery = %v, want below prior", m)
	}
}

func TestSubmitAnswer_Idempotent(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	ctx := context.Background()

	item := f.next(t, "ana", "doc")
	first := f.answer(t, "ana", item, true)

	// A retry with a different choice still returns the recorded answer.
	again, err := f.orc.SubmitAnswer(ctx, Submission{UserID: "ana", QuestionID: item.ID, Chosen: 3})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.ID != first.ID || again.Sequence != first.Sequence || !again.Correct {
		t.Errorf("resubmit = %+v, want %+v", again, first)
	}

	s, _ := f.orc.Mastery(ctx, "ana")
	if s.TotalAnswered != 1 {
		t.Errorf("TotalAnswered = %d, want 1", s.TotalAnswered)
	}
	events, err := f.st.HistoryStore().Query(ctx, "ana", store.QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("history has %d events, want 1", len(events))
	}
}

func TestSubmitAnswer_ConcurrentDuplicatesCountOnce(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	item := f.next(t, "ana", "doc")

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev, err := f.orc.SubmitAnswer(context.Background(), Submission{EventID: "tap-1", UserID: "ana", QuestionID: item.ID, Chosen: 0})
			if err != nil {
				t.Errorf("SubmitAnswer: %v", err)
				return
			}
			ids[i] = ev.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != "tap-1" {
			t.Errorf("event ID = %q, want tap-1", id)
		}
	}
	s, _ := f.orc.Mastery(context.Background(), "ana")
	if s.TotalAnswered != 1 {
		t.Errorf("TotalAnswered = %d, want 1", s.TotalAnswered)
	}
}

func TestSubmitAnswer_Rejections(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	item := f.next(t, "ana", "doc")

	tests := []struct {
		name string
		sub  Submission
		want error
	}{
		{"missing user", Submission{QuestionID: item.ID}, ErrMissingUser},
		{"choice too high", Submission{UserID: "ana", QuestionID: item.ID, Chosen: 4}, ErrInvalidChoice},
		{"negative choice", Submission{UserID: "ana", QuestionID: item.ID, Chosen: -1}, ErrInvalidChoice},
		{"unknown question", Submission{UserID: "ana", QuestionID: "nope"}, ErrUnknownQuestion},
		{"someone else's question", Submission{UserID: "ben", QuestionID: item.ID}, ErrUnknownQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orc.SubmitAnswer(context.Background(), tt.sub)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	s, _ := f.orc.Mastery(context.Background(), "ana")
	if s.TotalAnswered != 0 {
		t.Errorf("rejected submissions changed state: %d answered", s.TotalAnswered)
	}
}

func TestSubmitAnswer_CancelledContextChangesNothing(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	item := f.next(t, "ana", "doc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.orc.SubmitAnswer(ctx, Submission{UserID: "ana", QuestionID: item.ID}); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	_, err := f.st.HistoryStore().Get(context.Background(), DeriveEventID("ana", item.ID))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("answer recorded despite cancellation (err=%v)", err)
	}
	s, _ := f.orc.Mastery(context.Background(), "ana")
	if s.TotalAnswered != 0 {
		t.Errorf("TotalAnswered = %d, want 0", s.TotalAnswered)
	}
}

func TestDifficultyFollowsStreaks(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "a", "b", "c", "d")

	for i := 0; i < 3; i++ {
		f.answer(t, "ana", f.next(t, "ana", "doc"), true)
	}
	if item := f.next(t, "ana", "doc"); item.Difficulty != 2 {
		t.Fatalf("after 3 correct Difficulty = %d, want 2", item.Difficulty)
	} else {
		f.answer(t, "ana", item, false)
	}
	for i := 0; i < 2; i++ {
		f.answer(t, "ana", f.next(t, "ana", "doc"), false)
	}
	if item := f.next(t, "ana", "doc"); item.Difficulty != 1 {
		t.Fatalf("after 3 incorrect Difficulty = %d, want 1", item.Difficulty)
	}

	events, err := f.st.EventRepo().MasteryEvents(context.Background(), "ana", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("mastery events = %d, want 2", len(events))
	}
}

func TestStatePersistsAcrossOrchestrators(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy")
	item := f.next(t, "ana", "doc")
	f.answer(t, "ana", item, true)

	deps := StoreDeps(f.st)
	deps.Generator = f.gen
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	other, err := New(deps, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	s, err := other.Mastery(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalAnswered != 1 || s.Served[item.ChunkID].Count != 1 {
		t.Errorf("reloaded state = %+v", s)
	}

	// The reloaded orchestrator still honors the first answer's ID.
	ev, err := other.SubmitAnswer(context.Background(), Submission{UserID: "ana", QuestionID: item.ID, Chosen: 2})
	if err != nil || !ev.Correct {
		t.Fatalf("resubmit = %+v, %v", ev, err)
	}
}

func TestUsersProceedIndependently(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells", "energy", "genes")

	users := []string{"ana", "ben", "cai", "dee", "eli"}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				item, err := f.orc.NextQuestion(context.Background(), u, "doc")
				if err != nil {
					t.Errorf("%s NextQuestion: %v", u, err)
					return
				}
				if _, err := f.orc.SubmitAnswer(context.Background(), Submission{UserID: u, QuestionID: item.ID, Chosen: 0}); err != nil {
					t.Errorf("%s SubmitAnswer: %v", u, err)
					return
				}
			}
		}(u)
	}
	wg.Wait()

	for _, u := range users {
		s, _ := f.orc.Mastery(context.Background(), u)
		if s.TotalAnswered != 3 || s.Difficulty != 2 {
			t.Errorf("%s: answered %d difficulty %d, want 3 and 2", u, s.TotalAnswered, s.Difficulty)
		}
	}
}

func TestMasteryReturnsCopy(t *testing.T) {
	f := defaultFixture(t)
	seedDocument(t, f.st, "doc", "cells")
	f.answer(t, "ana", f.next(t, "ana", "doc"), true)

	s, _ := f.orc.Mastery(context.Background(), "ana")
	s.TopicMastery["cells"] = 0
	s.Served["x"] = mastery.ServedChunk{Count: 9}

	again, _ := f.orc.Mastery(context.Background(), "ana")
	if again.TopicMastery["cells"] == 0 {
		t.Error("caller mutation leaked into topic mastery")
	}
	if _, ok := again.Served["x"]; ok {
		t.Error("caller mutation leaked into served chunks")
	}
}

func TestReset(t *testing.T) {
	f := defaultFixture(t)
	chunks := seedDocument(t, f.st, "doc", "cells", "energy")
	f.answer(t, "ana", f.next(t, "ana", "doc"), true)

	if err := f.orc.Reset(context.Background(), "ana"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s, _ := f.orc.Mastery(context.Background(), "ana")
	if s.TotalAnswered != 0 || len(s.Served) != 0 {
		t.Errorf("state after reset = %+v", s)
	}
	if item := f.next(t, "ana", "doc"); item.ChunkID != chunks[0].ID {
		t.Errorf("after reset ChunkID = %s, want %s", item.ChunkID, chunks[0].ID)
	}
	events, _ := f.st.HistoryStore().Query(context.Background(), "ana", store.QueryOpts{})
	if len(events) != 1 {
		t.Errorf("history has %d events after reset, want 1", len(events))
	}
}

func TestPrefetch_ServesPreparedQuestion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefetch = true
	f := newFixture(t, mastery.DefaultConfig(), cfg)
	chunks := seedDocument(t, f.st, "doc", "cells", "energy", "genes")

	f.next(t, "ana", "doc")
	e := f.orc.users.entry("ana")
	var prepared *questiongen.Item
	deadline := time.Now().Add(5 * time.Second)
	for prepared == nil && time.Now().Before(deadline) {
		e.pmu.Lock()
		prepared = e.prefetched
		e.pmu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	if prepared == nil {
		t.Fatal("no question prefetched")
	}
	if prepared.ChunkID != chunks[1].ID {
		t.Errorf("prefetched chunk = %s, want %s", prepared.ChunkID, chunks[1].ID)
	}

	item := f.next(t, "ana", "doc")
	if item.ID != prepared.ID {
		t.Errorf("served %s, want prefetched %s", item.ID, prepared.ID)
	}
	if _, err := f.st.QuestionRepo().Get(context.Background(), item.ID); err != nil {
		t.Errorf("prefetched question not stored: %v", err)
	}
}

func TestPrefetch_DiscardedAfterDifficultyChange(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(t, mastery.DefaultConfig(), cfg)
	seedDocument(t, f.st, "doc", "a", "b", "c", "d")

	for i := 0; i < 3; i++ {
		f.answer(t, "ana", f.next(t, "ana", "doc"), true)
	}
	// Simulate a prefetch made at the old level.
	stale := &questiongen.Item{ID: "stale", DocumentID: "doc", ChunkID: "doc-c3", Difficulty: 1}
	f.orc.users.entry("ana").setPrefetched(stale)

	item := f.next(t, "ana", "doc")
	if item.ID == "stale" || item.Difficulty != 2 {
		t.Errorf("served %s at difficulty %d", item.ID, item.Difficulty)
	}
}

func TestDeriveEventID(t *testing.T) {
	a := DeriveEventID("ana", "q1")
	if a != DeriveEventID("ana", "q1") {
		t.Error("derived ID not stable")
	}
	if a == DeriveEventID("ana", "q2") || a == DeriveEventID("ben", "q1") {
		t.Error("derived IDs collide")
	}
	if DeriveEventID("a", "bq") == DeriveEventID("ab", "q") {
		t.Error("separator missing")
	}
}

func TestProgressOf(t *testing.T) {
	cfg := mastery.DefaultConfig()
	ctrl := mastery.New(cfg)
	s := ctrl.NewState("ana")

	p := ProgressOf(s, cfg)
	if p.CorrectToLevelUp != cfg.StreakLength || p.IncorrectToLevelDown != 0 {
		t.Errorf("fresh progress = %+v", p)
	}
	if p.Mood != mastery.MoodNew {
		t.Errorf("Mood = %q", p.Mood)
	}

	ctrl.Apply(&s, mastery.Outcome{Correct: true, Topic: "cells"})
	p = ProgressOf(s, cfg)
	if p.CorrectToLevelUp != cfg.StreakLength-1 {
		t.Errorf("CorrectToLevelUp = %d", p.CorrectToLevelUp)
	}

	s.Difficulty = cfg.MaxDifficulty
	if p := ProgressOf(s, cfg); p.CorrectToLevelUp != 0 || p.IncorrectToLevelDown != cfg.StreakLength {
		t.Errorf("top-level progress = %+v", p)
	}
}

func TestBuildSummary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []store.AnswerEvent{
		{Topic: "cells", Difficulty: 1, Correct: true, AnsweredAt: t0},
		{Topic: "energy", Difficulty: 1, Correct: false, AnsweredAt: t0.Add(time.Minute)},
		{Topic: "cells", Difficulty: 2, Correct: true, AnsweredAt: t0.Add(3 * time.Minute)},
		{Difficulty: 2, Correct: false, AnsweredAt: t0.Add(4 * time.Minute)},
	}
	sum := BuildSummary(events, 2)
	if sum.TotalQuestions != 4 || sum.TotalCorrect != 2 || sum.Accuracy != 0.5 {
		t.Errorf("totals = %+v", sum)
	}
	if sum.Duration != 4*time.Minute || sum.StartDifficulty != 1 || sum.EndDifficulty != 2 {
		t.Errorf("duration/difficulty = %+v", sum)
	}
	if len(sum.TopicResults) != 3 || sum.TopicResults[0] != (TopicResult{Topic: "cells", Correct: 2, Total: 2}) {
		t.Errorf("TopicResults = %+v", sum.TopicResults)
	}

	if empty := BuildSummary(nil, 1); empty.TotalQuestions != 0 || empty.Accuracy != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}
