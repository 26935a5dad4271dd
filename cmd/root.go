package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studyloop",
	Short: "Adaptive practice questions from your own study material",
	Long: "studyloop turns your notes and PDFs into multiple-choice questions that get\n" +
		"harder as you get them right and easier when you struggle.",
	SilenceUsage: true,
	RunE:         runPlay,
}

// Execute runs the command tree. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default $XDG_CONFIG_HOME/studyloop/config.yaml)")
	pf.String("db", "", "SQLite file or postgres:// URL (overrides config and STUDYLOOP_DB)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.StringP("user", "u", "", "Learner ID (default from config, then \"default\")")

	rootCmd.AddCommand(
		ingestCmd,
		docsCmd,
		nextCmd,
		answerCmd,
		playCmd,
		serveCmd,
		masteryCmd,
		historyCmd,
		worksheetCmd,
		resetCmd,
		llmCmd,
		versionCmd,
	)
}
