package mastery

import (
	"fmt"
	"time"
)

// Config holds the difficulty policy knobs.
type Config struct {
	MinDifficulty   int `yaml:"min_difficulty"`
	MaxDifficulty   int `yaml:"max_difficulty"`
	StartDifficulty int `yaml:"start_difficulty"`

	// WindowSize is the capacity of the rolling accuracy window.
	WindowSize int `yaml:"window_size"`

	// StreakLength is the number of consecutive same-direction answers
	// needed to move difficulty one step.
	StreakLength int `yaml:"streak_length"`

	// TopicAlpha is the weight of the newest answer in a topic's mastery
	// estimate. TopicPrior is the estimate for an unseen topic.
	TopicAlpha float64 `yaml:"topic_alpha"`
	TopicPrior float64 `yaml:"topic_prior"`

	// WeakTopicCount and WeakThreshold pick the topics chunk selection
	// favors: the weakest WeakTopicCount topics scoring below the threshold.
	WeakTopicCount int     `yaml:"weak_topic_count"`
	WeakThreshold  float64 `yaml:"weak_threshold"`

	// AllowReuse lets selection fall back to already-served chunks.
	AllowReuse bool `yaml:"allow_reuse"`
}

// DefaultConfig returns conservative defaults: five levels, a window of
// five and a streak of three.
func DefaultConfig() Config {
	return Config{
		MinDifficulty:   1,
		MaxDifficulty:   5,
		StartDifficulty: 1,
		WindowSize:      5,
		StreakLength:    3,
		TopicAlpha:      0.3,
		TopicPrior:      0.5,
		WeakTopicCount:  2,
		WeakThreshold:   0.6,
		AllowReuse:      true,
	}
}

// Validate returns the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.MinDifficulty < 1:
		return fmt.Errorf("controller.min_difficulty must be at least 1, got %d", c.MinDifficulty)
	case c.MaxDifficulty < c.MinDifficulty:
		return fmt.Errorf("controller.max_difficulty %d is below min_difficulty %d", c.MaxDifficulty, c.MinDifficulty)
	case c.StartDifficulty < c.MinDifficulty || c.StartDifficulty > c.MaxDifficulty:
		return fmt.Errorf("controller.start_difficulty %d is outside [%d,%d]", c.StartDifficulty, c.MinDifficulty, c.MaxDifficulty)
	case c.StreakLength < 1:
		return fmt.Errorf("controller.streak_length must be at least 1, got %d", c.StreakLength)
	case c.WindowSize < c.StreakLength:
		return fmt.Errorf("controller.window_size %d must be at least streak_length %d", c.WindowSize, c.StreakLength)
	case c.TopicAlpha <= 0 || c.TopicAlpha > 1:
		return fmt.Errorf("controller.topic_alpha must be in (0,1], got %v", c.TopicAlpha)
	case c.TopicPrior < 0 || c.TopicPrior > 1:
		return fmt.Errorf("controller.topic_prior must be in [0,1], got %v", c.TopicPrior)
	case c.WeakTopicCount < 0:
		return fmt.Errorf("controller.weak_topic_count must not be negative")
	}
	return nil
}

// Controller applies answer outcomes to learner state and picks what to
// ask next. It holds no per-user data; callers own and serialize State.
type Controller struct {
	cfg Config
	now func() time.Time
}

// New creates a Controller.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg, now: time.Now}
}

// Config returns the controller's policy.
func (c *Controller) Config() Config { return c.cfg }

// NewState returns the initial state for a learner.
func (c *Controller) NewState(userID string) State {
	return State{
		UserID:       userID,
		Difficulty:   c.cfg.StartDifficulty,
		Window:       NewWindow(c.cfg.WindowSize),
		TopicMastery: make(map[string]float64),
		Served:       make(map[string]ServedChunk),
		UpdatedAt:    c.now().UTC(),
	}
}

// Normalize reconciles a loaded state with the current policy: nil maps are
// allocated, the window is resized and difficulty clamped to the bounds.
func (c *Controller) Normalize(s *State) {
	if s.TopicMastery == nil {
		s.TopicMastery = make(map[string]float64)
	}
	if s.Served == nil {
		s.Served = make(map[string]ServedChunk)
	}
	if s.Window.Size != c.cfg.WindowSize {
		s.Window.Resize(c.cfg.WindowSize)
	}
	if s.Difficulty == 0 {
		s.Difficulty = c.cfg.StartDifficulty
	}
	s.Difficulty = c.clamp(s.Difficulty)
}

// Outcome is one graded answer.
type Outcome struct {
	Correct bool
	Topic   string
}

// Apply records an outcome. Difficulty steps up one level after
// StreakLength consecutive correct answers and down one level after
// StreakLength consecutive incorrect ones; the streak counter resets on
// each step, and anything short of a full streak leaves difficulty alone.
func (c *Controller) Apply(s *State, o Outcome) Transition {
	c.Normalize(s)
	t := Transition{UserID: s.UserID, From: s.Difficulty, To: s.Difficulty}

	s.Window.Push(o.Correct)
	s.TotalAnswered++

	if o.Correct {
		s.TotalCorrect++
		s.ConsecutiveCorrect++
		s.ConsecutiveIncorrect = 0
		if s.ConsecutiveCorrect >= c.cfg.StreakLength {
			s.ConsecutiveCorrect = 0
			s.Difficulty = c.clamp(s.Difficulty + 1)
			t.Trigger = TriggerStreakUp
		}
	} else {
		s.ConsecutiveIncorrect++
		s.ConsecutiveCorrect = 0
		if s.ConsecutiveIncorrect >= c.cfg.StreakLength {
			s.ConsecutiveIncorrect = 0
			s.Difficulty = c.clamp(s.Difficulty - 1)
			t.Trigger = TriggerStreakDown
		}
	}
	t.To = s.Difficulty
	if !t.Changed() {
		t.Trigger = TriggerNone
	}

	if o.Topic != "" {
		prev, ok := s.TopicMastery[o.Topic]
		if !ok {
			prev = c.cfg.TopicPrior
		}
		x := 0.0
		if o.Correct {
			x = 1
		}
		s.TopicMastery[o.Topic] = prev + c.cfg.TopicAlpha*(x-prev)
	}

	s.UpdatedAt = c.now().UTC()
	return t
}

func (c *Controller) clamp(d int) int {
	return min(max(d, c.cfg.MinDifficulty), c.cfg.MaxDifficulty)
}
