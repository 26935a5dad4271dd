package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/config"
	"github.com/abhisek/studyloop/internal/embed"
	"github.com/abhisek/studyloop/internal/ingest"
	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/logging"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/segment"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

// env is what a command runs against: resolved config, logger and an open
// store. Services are built on demand so that commands which never
// generate questions run without LLM credentials.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store
	userID string

	closers []func() error
}

// openEnv loads configuration, applies flag overrides and opens the store.
// With tui set, logs go only to the configured log file so they do not
// draw over the screen.
func openEnv(cmd *cobra.Command, tui bool) (*env, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if db, _ := flags.GetString("db"); db != "" {
		cfg.Store = storeConfigFor(db)
	}
	if lvl, _ := flags.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store.Driver == store.DriverSQLite && cfg.Store.DSN != "" && !strings.HasPrefix(cfg.Store.DSN, "file:") {
		if err := store.EnsureDir(cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	var sink io.Writer = cmd.ErrOrStderr()
	if tui {
		sink = io.Discard
	}
	logger, logCloser, err := logging.New(cfg.Logging, sink)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	st, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		userID:  cfg.User,
		closers: []func() error{logCloser.Close, st.Close},
	}
	if u, _ := flags.GetString("user"); u != "" {
		e.userID = u
	}
	return e, nil
}

// storeConfigFor maps the --db flag to a driver.
func storeConfigFor(db string) store.Config {
	if strings.HasPrefix(db, "postgres://") || strings.HasPrefix(db, "postgresql://") {
		return store.Config{Driver: store.DriverPostgres, DSN: db}
	}
	return store.Config{Driver: store.DriverSQLite, DSN: db}
}

// Close releases everything in reverse order of acquisition.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *env) ingester(ctx context.Context) (*ingest.Ingester, error) {
	emb, closeEmb, err := embed.New(ctx, e.cfg.Embedder, e.logger)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	e.closers = append(e.closers, closeEmb)
	seg := segment.New(emb, e.cfg.Segmenter, e.logger)
	return ingest.New(seg, e.store.DocumentRepo(), e.logger), nil
}

func (e *env) generator(ctx context.Context) (questiongen.Generator, error) {
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.logger)
	if err != nil {
		return nil, fmt.Errorf("question backend: %w", err)
	}
	return questiongen.New(provider, e.cfg.Generator, e.logger), nil
}

// orchestrator builds the session orchestrator. Without generate it cannot
// produce questions but can grade, report and reset.
func (e *env) orchestrator(ctx context.Context, generate bool) (*session.Orchestrator, error) {
	deps := session.StoreDeps(e.store)
	deps.Controller = mastery.New(e.cfg.Controller)
	deps.Logger = e.logger
	deps.Generator = offlineGenerator{}
	cfg := e.cfg.Session
	if generate {
		gen, err := e.generator(ctx)
		if err != nil {
			return nil, err
		}
		deps.Generator = gen
	} else {
		cfg.Prefetch = false
	}

	o, err := session.New(deps, cfg)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() error { o.Close(); return nil })
	return o, nil
}

// offlineGenerator stands in where a command never asks for questions.
type offlineGenerator struct{}

func (offlineGenerator) Generate(context.Context, questiongen.Input) (*questiongen.Item, error) {
	return nil, errors.New("question generation is not available in this command")
}

// withEnv opens an env for the duration of fn.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	e, err := openEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(cmd.Context(), e)
}
