package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests and usage",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			events, err := e.store.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM requests recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-5s  %-19s  %-12s  %-28s  %6s  %6s  %7s  %s\n",
				"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Fprintln(out, strings.Repeat("─", 100))
			for _, ev := range events {
				if purpose != "" && ev.Purpose != purpose {
					continue
				}
				ok := "✓"
				if !ev.Success {
					ok = "✗"
				}
				fmt.Fprintf(out, "%-5d  %-19s  %-12s  %-28s  %6d  %6d  %7d  %s\n",
					ev.ID,
					ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
					truncate(ev.Purpose, 12),
					truncate(ev.Model, 28),
					ev.InputTokens, ev.OutputTokens, ev.LatencyMs, ok)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			ev, err := e.store.EventRepo().GetLLMEvent(ctx, id)
			if err != nil {
				return err
			}
			if ev == nil {
				return fmt.Errorf("LLM request %d not found", id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %d\n", ev.ID)
			fmt.Fprintf(out, "Time:      %s\n", ev.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Provider:  %s\n", ev.Provider)
			fmt.Fprintf(out, "Model:     %s\n", ev.Model)
			fmt.Fprintf(out, "Purpose:   %s\n", ev.Purpose)
			if ev.UserID != "" {
				fmt.Fprintf(out, "Learner:   %s\n", ev.UserID)
			}
			fmt.Fprintf(out, "Tokens:    %d in / %d out\n", ev.InputTokens, ev.OutputTokens)
			fmt.Fprintf(out, "Latency:   %dms\n", ev.LatencyMs)
			fmt.Fprintf(out, "Success:   %v\n", ev.Success)
			if ev.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", ev.ErrorMessage)
			}
			printBody(out, "REQUEST", ev.RequestBody)
			printBody(out, "RESPONSE", ev.ResponseBody)
			return nil
		})
	},
}

func printBody(out io.Writer, label, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n", sep, label, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(out, body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			events := e.store.EventRepo()
			byPurpose, err := events.LLMUsageByPurpose(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(byPurpose) == 0 {
				fmt.Fprintln(out, "No LLM usage recorded yet.")
				return nil
			}

			rule := strings.Repeat("─", 72)
			fmt.Fprintln(out, "Usage by purpose")
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "%-16s  %6s  %6s  %10s  %10s  %8s\n",
				"Purpose", "Calls", "Failed", "Input", "Output", "Avg ms")
			fmt.Fprintln(out, rule)
			var calls, in, outTok int
			for _, u := range byPurpose {
				fmt.Fprintf(out, "%-16s  %6d  %6d  %10d  %10d  %8d\n",
					truncate(u.Purpose, 16), u.Calls, u.Failures, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
				calls += u.Calls
				in += u.InputTokens
				outTok += u.OutputTokens
			}
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "%-16s  %6d  %6s  %10d  %10d\n", "TOTAL", calls, "", in, outTok)

			byModel, err := events.LLMUsageByModel(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\nEstimated cost (USD)")
			fmt.Fprintln(out, rule)
			for _, u := range byModel {
				cost := "?"
				if c := llm.LookupCost(u.Model); c != nil {
					cost = formatCost(c.Cost(u.InputTokens, u.OutputTokens))
				}
				fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
					truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
			}
			total, unknown, err := events.EstimatedCost(ctx)
			if err != nil {
				return err
			}
			label := "TOTAL"
			if len(unknown) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
			if len(unknown) > 0 {
				fmt.Fprintf(out, "\nNo pricing for: %s\n", strings.Join(unknown, ", "))
			}
			return nil
		})
	},
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (e.g. question-gen)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
