package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Study interactively in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runPlay,
}

// runPlay launches the terminal UI. Without a question backend the library
// still opens; studying reports the configuration error.
func runPlay(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()
	ctx := cmd.Context()

	o, err := e.orchestrator(ctx, true)
	if err != nil {
		cmd.PrintErrln("Question backend not configured:", err)
		cmd.PrintErrln("Set STUDYLOOP_LLM_PROVIDER and its API key to generate questions.")
		if o, err = e.orchestrator(ctx, false); err != nil {
			return err
		}
	}

	opts := app.Options{
		Catalog: e.store.DocumentRepo(),
		Tutor:   o,
		History: e.store.HistoryStore(),
		UserID:  e.userID,
	}
	if in, err := e.ingester(ctx); err == nil {
		opts.Importer = in
	} else {
		e.logger.Warn("document import disabled", "error", err)
	}
	return app.Run(ctx, opts)
}
