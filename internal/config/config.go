// Package config assembles the application configuration from defaults, an
// optional YAML file and STUDYLOOP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/studyloop/internal/embed"
	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/logging"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/segment"
	"github.com/abhisek/studyloop/internal/server"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

// Config is the full application configuration.
type Config struct {
	Store      store.Config       `yaml:"store"`
	Logging    logging.Config     `yaml:"logging"`
	Segmenter  segment.Config     `yaml:"segmenter"`
	Embedder   embed.Config       `yaml:"embedder"`
	LLM        llm.Config         `yaml:"llm"`
	Generator  questiongen.Config `yaml:"generator"`
	Controller mastery.Config     `yaml:"controller"`
	Session    session.Config     `yaml:"session"`
	Server     server.Config      `yaml:"server"`

	// User is the learner ID used by CLI commands when --user is absent.
	User string `yaml:"user"`
}

// Default returns every package's defaults.
func Default() Config {
	return Config{
		Store:      store.DefaultConfig(),
		Logging:    logging.DefaultConfig(),
		Segmenter:  segment.DefaultConfig(),
		Embedder:   embed.DefaultConfig(),
		LLM:        llm.DefaultConfig(),
		Generator:  questiongen.DefaultConfig(),
		Controller: mastery.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Server:     server.DefaultConfig(),
		User:       "default",
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first (existing variables win). path names
// the YAML file; empty means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/studyloop/config.yaml, falling back
// to ~/.config. STUDYLOOP_CONFIG overrides both.
func DefaultPath() string {
	if p := os.Getenv("STUDYLOOP_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "studyloop", "config.yaml")
}

// ApplyEnv overrides fields from STUDYLOOP_* environment variables.
func (c *Config) ApplyEnv() {
	c.LLM.ApplyEnv()
	setStr(&c.Store.Driver, "STUDYLOOP_DB_DRIVER")
	setStr(&c.Store.DSN, "STUDYLOOP_DB_DSN")
	setStr(&c.Logging.Level, "STUDYLOOP_LOG_LEVEL")
	setStr(&c.Logging.Format, "STUDYLOOP_LOG_FORMAT")
	setStr(&c.Logging.File, "STUDYLOOP_LOG_FILE")
	setStr(&c.Embedder.Provider, "STUDYLOOP_EMBEDDER")
	setStr(&c.Embedder.OpenAI.APIKey, "STUDYLOOP_OPENAI_API_KEY")
	setStr(&c.Embedder.Gemini.APIKey, "STUDYLOOP_GEMINI_API_KEY")
	setStr(&c.Embedder.Ollama.BaseURL, "STUDYLOOP_EMBED_OLLAMA_URL")
	if v := os.Getenv("STUDYLOOP_REDIS_URL"); v != "" {
		c.Embedder.Cache.Backend = "redis"
		c.Embedder.Cache.RedisURL = v
	}
	setStr(&c.Server.Addr, "STUDYLOOP_ADDR")
	setStr(&c.User, "STUDYLOOP_USER")
	setBool(&c.Session.Prefetch, "STUDYLOOP_PREFETCH")
	setBool(&c.Controller.AllowReuse, "STUDYLOOP_ALLOW_REUSE")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}

// Validate returns the first inconsistency. Backend credentials are checked
// when the backend is built, so commands that never call it run without
// them.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"store", c.Store.Validate},
		{"logging", c.Logging.Validate},
		{"segmenter", c.Segmenter.Validate},
		{"embedder", c.Embedder.Validate},
		{"generator", c.Generator.Validate},
		{"controller", c.Controller.Validate},
		{"session", c.Session.Validate},
		{"server", c.Server.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s config: %w", ch.name, err)
		}
	}
	return nil
}
