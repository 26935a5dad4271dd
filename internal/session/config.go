package session

import "fmt"

// Config tunes the orchestrator.
type Config struct {
	// Prefetch pre-generates the learner's next question in the background
	// while the current one is being read.
	Prefetch bool `yaml:"prefetch"`

	// PrefetchWorkers bounds concurrent background generations.
	PrefetchWorkers int `yaml:"prefetch_workers"`

	// PriorStems is how many recent stems are sent to the generator so it
	// avoids repeating itself.
	PriorStems int `yaml:"prior_stems"`
}

// DefaultConfig returns the default orchestrator settings.
func DefaultConfig() Config {
	return Config{
		Prefetch:        false,
		PrefetchWorkers: 2,
		PriorStems:      8,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Prefetch && c.PrefetchWorkers < 1 {
		return fmt.Errorf("session: prefetch_workers must be >= 1 when prefetch is enabled")
	}
	if c.PriorStems < 0 {
		return fmt.Errorf("session: prior_stems must be >= 0")
	}
	return nil
}
