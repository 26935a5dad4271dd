package store

import (
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Descending returns the newest events first.
	Descending bool
}

// AnswerEvent is one recorded answer. ID is the idempotency key: a second
// append with the same ID is rejected and the first record stands.
type AnswerEvent struct {
	ID         string    `json:"id"`
	Sequence   int64     `json:"sequence"`
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Topic      string    `json:"topic"`
	Difficulty int       `json:"difficulty"`
	Chosen     int       `json:"chosen"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Accuracy is a correct/total tally.
type Accuracy struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Rate returns the fraction correct, 0 when nothing was answered.
func (a Accuracy) Rate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Total)
}

func (a *Accuracy) add(correct bool) {
	a.Total++
	if correct {
		a.Correct++
	}
}

// Stats is the progress dashboard data for one learner.
type Stats struct {
	Overall      Accuracy            `json:"overall"`
	Recent       Accuracy            `json:"recent"`
	ByDifficulty map[int]Accuracy    `json:"by_difficulty"`
	ByDocument   map[string]Accuracy `json:"by_document"`
	ByTopic      map[string]Accuracy `json:"by_topic"`
}

// RecentWindow is how many of the latest answers Stats.Recent covers.
const RecentWindow = 10

// WeakestDifficulty returns the answered difficulty level with the lowest
// accuracy, the lower level on ties. ok is false when nothing was answered.
func (s Stats) WeakestDifficulty() (level int, ok bool) {
	for d, acc := range s.ByDifficulty {
		if acc.Total == 0 {
			continue
		}
		if !ok {
			level, ok = d, true
			continue
		}
		cur := s.ByDifficulty[level]
		if r := acc.Rate(); r < cur.Rate() || (r == cur.Rate() && d < level) {
			level = d
		}
	}
	return level, ok
}

// LLMRequestEvent is a stored LLM call.
type LLMRequestEvent struct {
	ID           int       `sql:"id"`
	Sequence     int64     `sql:"sequence"`
	Timestamp    time.Time `sql:"timestamp"`
	Provider     string    `sql:"provider"`
	Model        string    `sql:"model"`
	Purpose      string    `sql:"purpose"`
	UserID       string    `sql:"user_id"`
	InputTokens  int       `sql:"input_tokens"`
	OutputTokens int       `sql:"output_tokens"`
	LatencyMs    int64     `sql:"latency_ms"`
	Success      bool      `sql:"success"`
	ErrorMessage string    `sql:"error_message"`
	RequestBody  string    `sql:"request_body"`
	ResponseBody string    `sql:"response_body"`
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// MasteryEvent records a difficulty transition.
type MasteryEvent struct {
	ID            int       `sql:"id"`
	Sequence      int64     `sql:"sequence"`
	Timestamp     time.Time `sql:"timestamp"`
	UserID        string    `sql:"user_id"`
	From          int       `sql:"from_difficulty"`
	To            int       `sql:"to_difficulty"`
	Reason        string    `sql:"reason"`
	AnswerEventID string    `sql:"answer_event_id"`
}
