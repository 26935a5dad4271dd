package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/export"
	"github.com/abhisek/studyloop/internal/store"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "Show a learner's level, streak and weakest topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			o, err := e.orchestrator(ctx, false)
			if err != nil {
				return err
			}
			if asJSON {
				s, err := o.Mastery(ctx, e.userID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), s)
			}
			p, err := o.Progress(ctx, e.userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Learner:   %s\n", e.userID)
			fmt.Fprintf(out, "Level:     %d (of %d-%d), %s\n", p.Difficulty, p.MinDifficulty, p.MaxDifficulty, p.Mood)
			fmt.Fprintf(out, "Answered:  %d, %.0f%% overall, %.0f%% recently\n", p.Answered, p.OverallAccuracy*100, p.WindowAccuracy*100)
			if p.CorrectToLevelUp > 0 {
				fmt.Fprintf(out, "Next:      %d more correct in a row to level up\n", p.CorrectToLevelUp)
			}
			if len(p.WeakTopics) > 0 {
				fmt.Fprintf(out, "Review:    %s\n", strings.Join(p.WeakTopics, ", "))
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show accuracy statistics and recent answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		exportPath, _ := cmd.Flags().GetString("export")
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			hist := e.store.HistoryStore()
			if exportPath != "" {
				return exportHistory(ctx, cmd, e, exportPath)
			}

			stats, err := hist.Stats(ctx, e.userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if stats.Overall.Total == 0 {
				fmt.Fprintf(out, "%s has not answered anything yet.\n", e.userID)
				return nil
			}
			fmt.Fprintf(out, "Overall        %s\n", rate(stats.Overall))
			fmt.Fprintf(out, "Last %-2d        %s\n", store.RecentWindow, rate(stats.Recent))

			levels := make([]int, 0, len(stats.ByDifficulty))
			for d := range stats.ByDifficulty {
				levels = append(levels, d)
			}
			slices.Sort(levels)
			fmt.Fprintln(out, "\nBy level")
			for _, d := range levels {
				fmt.Fprintf(out, "  L%d           %s\n", d, rate(stats.ByDifficulty[d]))
			}
			if weakest, ok := stats.WeakestDifficulty(); ok {
				fmt.Fprintf(out, "  weakest: L%d\n", weakest)
			}

			events, err := hist.Query(ctx, e.userID, store.QueryOpts{Limit: limit, Descending: true})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nRecent answers")
			for _, ev := range events {
				mark := "✓"
				if !ev.Correct {
					mark = "✗"
				}
				fmt.Fprintf(out, "  %s  L%d  %s  %s\n",
					ev.AnsweredAt.Local().Format("2006-01-02 15:04"), ev.Difficulty, mark, ev.Topic)
			}
			return nil
		})
	},
}

func rate(a store.Accuracy) string {
	return fmt.Sprintf("%3.0f%%  (%d/%d)", a.Rate()*100, a.Correct, a.Total)
}

func exportHistory(ctx context.Context, cmd *cobra.Command, e *env, path string) error {
	events, err := e.store.HistoryStore().Query(ctx, e.userID, store.QueryOpts{})
	if err != nil {
		return err
	}
	docs, err := e.store.DocumentRepo().List(ctx)
	if err != nil {
		return err
	}
	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.ID] = d.Title
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.HistoryWorkbook(f, events, titles); err != nil {
		f.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d answers to %s\n", len(events), path)
	return nil
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a learner's level and served-passage tracking",
	Long: "Reset puts the learner back at the starting level and forgets which passages\n" +
		"were used. Answer history is kept.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			if !yes {
				return fmt.Errorf("this resets %s's progress; re-run with --yes to confirm", e.userID)
			}
			o, err := e.orchestrator(ctx, false)
			if err != nil {
				return err
			}
			if err := o.Reset(ctx, e.userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", e.userID)
			return nil
		})
	},
}

func init() {
	masteryCmd.Flags().Bool("json", false, "Print the full state as JSON")

	historyCmd.Flags().IntP("limit", "n", 20, "Number of recent answers to list")
	historyCmd.Flags().String("export", "", "Write the full history to an .xlsx file instead")

	resetCmd.Flags().BoolP("yes", "y", false, "Confirm the reset")
}
