package mastery

import (
	"cmp"
	"maps"
	"slices"
	"time"
)

// State is one learner's adaptive state. It is mutated only through
// Controller.Apply and Controller.MarkServed.
type State struct {
	UserID     string `json:"user_id"`
	Difficulty int    `json:"difficulty"`
	Window     Window `json:"window"`

	ConsecutiveCorrect   int `json:"consecutive_correct"`
	ConsecutiveIncorrect int `json:"consecutive_incorrect"`

	// TopicMastery maps a topic label to an estimate in [0,1].
	TopicMastery map[string]float64 `json:"topic_mastery"`

	// Served tracks which chunks have been turned into questions.
	Served      map[string]ServedChunk `json:"served"`
	LastChunkID string                 `json:"last_chunk_id,omitempty"`

	// Tick is a logical clock advanced on every serve, used for
	// least-recently-used ordering.
	Tick int64 `json:"tick"`

	TotalAnswered int       `json:"total_answered"`
	TotalCorrect  int       `json:"total_correct"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ServedChunk records how often and how recently a chunk was served.
type ServedChunk struct {
	Count      int   `json:"count"`
	LastServed int64 `json:"last_served"`
}

// Clone returns a deep copy safe to hand to readers.
func (s State) Clone() State {
	s.Window.Outcomes = slices.Clone(s.Window.Outcomes)
	s.TopicMastery = maps.Clone(s.TopicMastery)
	s.Served = maps.Clone(s.Served)
	return s
}

// OverallAccuracy returns the all-time accuracy, 0 with no answers.
func (s State) OverallAccuracy() float64 {
	if s.TotalAnswered == 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalAnswered)
}

// WindowAccuracy returns the accuracy over the rolling window.
func (s State) WindowAccuracy() float64 {
	return s.Window.Accuracy()
}

// WeakestTopics returns up to n topics ordered by ascending mastery, ties
// broken by name.
func (s State) WeakestTopics(n int) []string {
	topics := slices.Collect(maps.Keys(s.TopicMastery))
	slices.SortFunc(topics, func(a, b string) int {
		return cmp.Or(cmp.Compare(s.TopicMastery[a], s.TopicMastery[b]), cmp.Compare(a, b))
	})
	if n >= 0 && len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

// Trigger names why difficulty changed.
type Trigger string

const (
	TriggerNone       Trigger = ""
	TriggerStreakUp   Trigger = "streak-up"
	TriggerStreakDown Trigger = "streak-down"
)

// Transition records the difficulty change caused by one answer.
type Transition struct {
	UserID  string
	From    int
	To      int
	Trigger Trigger
}

// Changed reports whether the difficulty moved.
func (t Transition) Changed() bool { return t.From != t.To }
