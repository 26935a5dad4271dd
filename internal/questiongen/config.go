package questiongen

import (
	"fmt"
	"time"
)

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every parsed item; the first failure
	// fails the attempt. Nil means DefaultValidators(Grounding).
	Validators []Validator `yaml:"-"`

	// MaxAttempts bounds the number of backend calls per item.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryBackoff is the fixed pause between attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// AttemptTimeout bounds a single backend call. A timed-out attempt is
	// a failed attempt like any other. Zero disables it.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// StructuredOutput sends the item schema to the backend. When false the
	// backend gets a plain-text request and the JSON is extracted from
	// whatever comes back.
	StructuredOutput bool `yaml:"structured_output"`

	// Grounding adds the GroundingValidator to the default chain.
	Grounding bool `yaml:"grounding"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// MaxPriorStems caps how many earlier stems are listed in the prompt.
	MaxPriorStems int `yaml:"max_prior_stems"`
}

// DefaultConfig returns a Config with the standard validator chain and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		RetryBackoff:     500 * time.Millisecond,
		AttemptTimeout:   60 * time.Second,
		StructuredOutput: true,
		MaxTokens:        768,
		Temperature:      0.7,
		MaxPriorStems:    8,
	}
}

// DefaultValidators returns the standard chain: structure, distinctness
// and, optionally, grounding in the chunk text.
func DefaultValidators(grounding bool) []Validator {
	v := []Validator{&StructuralValidator{}, &DistinctnessValidator{}}
	if grounding {
		v = append(v, &GroundingValidator{})
	}
	return v
}

// Validate returns the first inconsistent setting.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("generator.max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryBackoff < 0 || c.AttemptTimeout < 0 {
		return fmt.Errorf("generator durations must not be negative")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("generator.max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("generator.temperature must be in [0,1], got %v", c.Temperature)
	}
	return nil
}
