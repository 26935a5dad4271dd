// Package session drives the study loop: it picks what to ask, asks the
// question generator for it, and folds answers back into the learner's
// mastery state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyloop/internal/corpus"
	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/worker"
)

// AnswerEvent is a recorded answer.
type AnswerEvent = store.AnswerEvent

// Submission is one answer from a learner. EventID is the idempotency key;
// when empty it is derived from the learner and question, so a question
// counts once per learner.
type Submission struct {
	EventID    string
	UserID     string
	QuestionID string
	Chosen     int
}

// Documents is the read side of the document library.
type Documents interface {
	Get(ctx context.Context, id string) (corpus.Document, error)
	Chunks(ctx context.Context, documentID string) ([]corpus.Chunk, error)
}

// Questions stores served questions.
type Questions interface {
	Save(ctx context.Context, userID string, item *questiongen.Item) error
	Get(ctx context.Context, id string) (*store.Question, error)
	RecentStems(ctx context.Context, userID, documentID string, limit int) ([]string, error)
}

// States persists mastery state per learner.
type States interface {
	Load(ctx context.Context, userID string) (mastery.State, bool, error)
	Save(ctx context.Context, state mastery.State) error
	Delete(ctx context.Context, userID string) error
}

// Answers is the answer history. RecordAnswer must append the event and
// store the new state atomically.
type Answers interface {
	Get(ctx context.Context, id string) (store.AnswerEvent, error)
	RecordAnswer(ctx context.Context, ev store.AnswerEvent, state mastery.State, tr mastery.Transition) (store.AnswerEvent, error)
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Documents  Documents
	Questions  Questions
	States     States
	Answers    Answers
	Generator  questiongen.Generator
	Controller *mastery.Controller
	Logger     *slog.Logger
}

// StoreDeps fills the persistence collaborators from a store.
func StoreDeps(st *store.Store) Deps {
	return Deps{
		Documents: st.DocumentRepo(),
		Questions: st.QuestionRepo(),
		States:    st.MasteryRepo(),
		Answers:   st.HistoryStore(),
	}
}

// Orchestrator serves questions and records answers. It is safe for
// concurrent use: calls for the same learner serialize their state updates,
// different learners proceed independently.
type Orchestrator struct {
	docs      Documents
	questions Questions
	states    States
	answers   Answers
	gen       questiongen.Generator
	ctrl      *mastery.Controller
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time

	users *registry

	pool      *worker.Pool[prefetched]
	collected chan struct{}
}

// New creates an orchestrator. Close must be called when prefetching is
// enabled.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Documents == nil || deps.Questions == nil || deps.States == nil || deps.Answers == nil {
		return nil, fmt.Errorf("session: persistence dependencies are required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("session: question generator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Controller == nil {
		deps.Controller = mastery.New(mastery.DefaultConfig())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	o := &Orchestrator{
		docs:      deps.Documents,
		questions: deps.Questions,
		states:    deps.States,
		answers:   deps.Answers,
		gen:       deps.Generator,
		ctrl:      deps.Controller,
		cfg:       cfg,
		logger:    deps.Logger,
		now:       time.Now,
		users:     newRegistry(),
	}
	if cfg.Prefetch {
		o.pool = worker.NewPool[prefetched](cfg.PrefetchWorkers, cfg.PrefetchWorkers*2)
		o.collected = make(chan struct{})
		go o.collect()
	}
	return o, nil
}

// Close stops background prefetching.
func (o *Orchestrator) Close() {
	if o.pool == nil {
		return
	}
	o.pool.Close()
	<-o.collected
}

// Controller returns the difficulty controller in use.
func (o *Orchestrator) Controller() *mastery.Controller { return o.ctrl }

// NextQuestion returns a new question for the learner from the document,
// pitched at the learner's current difficulty. The learner's state is only
// touched once a valid question exists: a failed or cancelled generation
// leaves it as it was.
func (o *Orchestrator) NextQuestion(ctx context.Context, userID, documentID string) (*questiongen.Item, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	logger := o.logger.With("user_id", userID, "document_id", documentID)

	chunks, err := o.documentChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	e := o.users.entry(userID)
	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	if err := o.ensureLoaded(ctx, e, userID); err != nil {
		e.unlock()
		return nil, err
	}
	if item := o.usablePrefetch(e, documentID, chunks); item != nil {
		err := o.serve(ctx, e, userID, item)
		e.unlock()
		if err != nil {
			return nil, err
		}
		logger.Info("served prefetched question", "question_id", item.ID, "difficulty", item.Difficulty)
		o.schedulePrefetch(userID, documentID)
		return item, nil
	}
	chunk, err := o.ctrl.SelectChunkAvoiding(&e.state, chunks, o.ctrl.Config().AllowReuse, e.busy())
	difficulty := e.state.Difficulty
	if err != nil {
		e.unlock()
		logger.Info("no chunk left to ask about", "error", err)
		return nil, err
	}
	e.claim(chunk.ID)
	e.unlock()

	item, err := o.generate(ctx, userID, chunk, difficulty)
	if err != nil {
		o.releaseChunk(e, chunk.ID)
		logger.Warn("question generation failed", "chunk_id", chunk.ID, "difficulty", difficulty, "error", err)
		return nil, err
	}

	if err := e.lock(ctx); err != nil {
		o.releaseChunk(e, chunk.ID)
		return nil, err
	}
	err = o.serve(ctx, e, userID, item)
	e.release(chunk.ID)
	e.unlock()
	if err != nil {
		return nil, err
	}

	logger.Info("served question",
		"question_id", item.ID,
		"chunk_id", item.ChunkID,
		"difficulty", item.Difficulty,
	)
	o.schedulePrefetch(userID, documentID)
	return item, nil
}

// releaseChunk drops a claim after a failed or abandoned generation. The
// caller's context may be done, so the wait for the lock ignores it.
func (o *Orchestrator) releaseChunk(e *userEntry, chunkID string) {
	_ = e.lock(context.Background())
	e.release(chunkID)
	e.unlock()
}

func (o *Orchestrator) documentChunks(ctx context.Context, documentID string) ([]corpus.Chunk, error) {
	if _, err := o.docs.Get(ctx, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, documentID)
		}
		return nil, err
	}
	chunks, err := o.docs.Chunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	return chunks, nil
}

func (o *Orchestrator) generate(ctx context.Context, userID string, chunk corpus.Chunk, difficulty int) (*questiongen.Item, error) {
	var stems []string
	if o.cfg.PriorStems > 0 {
		var err error
		stems, err = o.questions.RecentStems(ctx, userID, chunk.DocumentID, o.cfg.PriorStems)
		if err != nil {
			return nil, fmt.Errorf("load prior questions: %w", err)
		}
	}
	ctx = llm.WithUser(ctx, userID)
	return o.gen.Generate(ctx, questiongen.Input{
		Chunk:      chunk,
		Difficulty: difficulty,
		PriorStems: stems,
	})
}

// serve stores the item and marks its chunk served. Caller holds e.
func (o *Orchestrator) serve(ctx context.Context, e *userEntry, userID string, item *questiongen.Item) error {
	if err := o.questions.Save(ctx, userID, item); err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	next := e.state.Clone()
	o.ctrl.MarkServed(&next, item.ChunkID)
	if err := o.states.Save(ctx, next); err != nil {
		return fmt.Errorf("save mastery state: %w", err)
	}
	e.state = next
	return nil
}

// SubmitAnswer grades the learner's choice, records the answer and updates
// the learner's mastery state, exactly once per event ID. Resubmitting a
// recorded event returns the recorded event and changes nothing.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sub Submission) (*AnswerEvent, error) {
	if sub.UserID == "" {
		return nil, ErrMissingUser
	}
	if sub.Chosen < 0 || sub.Chosen >= questiongen.OptionCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChoice, sub.Chosen)
	}

	q, err := o.questions.Get(ctx, sub.QuestionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, sub.QuestionID)
	case err != nil:
		return nil, fmt.Errorf("load question: %w", err)
	case q.UserID != sub.UserID:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, sub.QuestionID)
	}

	eventID := sub.EventID
	if eventID == "" {
		eventID = DeriveEventID(sub.UserID, sub.QuestionID)
	}
	logger := o.logger.With("user_id", sub.UserID, "question_id", sub.QuestionID, "event_id", eventID)

	e := o.users.entry(sub.UserID)
	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	defer e.unlock()

	if recorded, ok, err := o.recorded(ctx, eventID); err != nil {
		return nil, err
	} else if ok {
		logger.Info("answer already recorded")
		return &recorded, nil
	}

	if err := o.ensureLoaded(ctx, e, sub.UserID); err != nil {
		return nil, err
	}

	correct := sub.Chosen == q.CorrectIndex
	ev := AnswerEvent{
		ID:         eventID,
		UserID:     sub.UserID,
		QuestionID: q.ID,
		ChunkID:    q.ChunkID,
		DocumentID: q.DocumentID,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		Chosen:     sub.Chosen,
		Correct:    correct,
		AnsweredAt: o.now().UTC(),
	}
	next := e.state.Clone()
	tr := o.ctrl.Apply(&next, mastery.Outcome{Correct: correct, Topic: q.Topic})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, err := o.answers.RecordAnswer(ctx, ev, next, tr)
	if errors.Is(err, store.ErrDuplicateEvent) {
		// Recorded by another process since the check above.
		prior, err := o.answers.Get(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("load recorded answer: %w", err)
		}
		e.loaded = false
		return &prior, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}
	e.state = next

	logger.Info("answer recorded", "correct", correct, "difficulty", next.Difficulty)
	if tr.Changed() {
		logger.Info("difficulty changed", "from", tr.From, "to", tr.To, "reason", tr.Trigger)
		// A prefetched item is pitched at the old level.
		e.setPrefetched(nil)
	}
	return &stored, nil
}

func (o *Orchestrator) recorded(ctx context.Context, eventID string) (store.AnswerEvent, bool, error) {
	ev, err := o.answers.Get(ctx, eventID)
	switch {
	case err == nil:
		return ev, true, nil
	case errors.Is(err, store.ErrNotFound):
		return store.AnswerEvent{}, false, nil
	default:
		return store.AnswerEvent{}, false, fmt.Errorf("check answer history: %w", err)
	}
}

// Mastery returns a copy of the learner's current state.
func (o *Orchestrator) Mastery(ctx context.Context, userID string) (mastery.State, error) {
	if userID == "" {
		return mastery.State{}, ErrMissingUser
	}
	e := o.users.entry(userID)
	if err := e.lock(ctx); err != nil {
		return mastery.State{}, err
	}
	defer e.unlock()
	if err := o.ensureLoaded(ctx, e, userID); err != nil {
		return mastery.State{}, err
	}
	return e.state.Clone(), nil
}

// Reset discards the learner's mastery state. Answer history is kept.
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	e := o.users.entry(userID)
	if err := e.lock(ctx); err != nil {
		return err
	}
	defer e.unlock()
	if err := o.states.Delete(ctx, userID); err != nil {
		return err
	}
	e.state = o.ctrl.NewState(userID)
	e.loaded = true
	e.setPrefetched(nil)
	o.logger.Info("mastery state reset", "user_id", userID)
	return nil
}

// ensureLoaded reads the learner's state on first use. Caller holds e.
func (o *Orchestrator) ensureLoaded(ctx context.Context, e *userEntry, userID string) error {
	if e.loaded {
		return nil
	}
	state, ok, err := o.states.Load(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		state = o.ctrl.NewState(userID)
	}
	o.ctrl.Normalize(&state)
	e.state = state
	e.loaded = true
	return nil
}

var answerNamespace = uuid.MustParse("0b8f4d1e-7c2a-4e39-b5d6-2a9e1f3c8d47")

// DeriveEventID returns the event ID used when a submission carries none.
func DeriveEventID(userID, questionID string) string {
	return uuid.NewSHA1(answerNamespace, []byte(userID+"\x00"+questionID)).String()
}
