package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/store"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage the document library",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			docs, err := e.store.DocumentRepo().List(ctx)
			if err != nil {
				return fmt.Errorf("list documents: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents yet. Add one with: studyloop ingest <file>")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-10s  %8s  %s\n", "ID", "Added", "Passages", "Title")
			fmt.Fprintln(out, strings.Repeat("─", 90))
			for _, d := range docs {
				fmt.Fprintf(out, "%-36s  %-10s  %8d  %s\n",
					d.ID, d.CreatedAt.Local().Format("2006-01-02"), d.Chunks, d.Title)
			}
			return nil
		})
	},
}

var docsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a document's passages and question bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("questions")
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			repo := e.store.DocumentRepo()
			doc, err := repo.Get(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("document %s not found", args[0])
			}
			if err != nil {
				return err
			}
			chunks, err := repo.Chunks(ctx, doc.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:    %s\n", doc.Title)
			fmt.Fprintf(out, "Source:   %s\n", doc.Source)
			fmt.Fprintf(out, "Added:    %s\n", doc.CreatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "Passages: %d\n\n", len(chunks))
			for _, c := range chunks {
				topic := c.Topic
				if topic == "" {
					topic = "-"
				}
				fmt.Fprintf(out, "  %3d  %-28s  %s\n", c.Seq, truncate(topic, 28), truncate(oneLine(c.Text), 60))
			}

			questions, err := e.store.QuestionRepo().ListByDocument(ctx, doc.ID, limit)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return nil
			}
			fmt.Fprintf(out, "\nQuestion bank (%d shown)\n", len(questions))
			for _, q := range questions {
				fmt.Fprintf(out, "\n  [L%d] %s\n", q.Difficulty, q.Stem)
				for i, opt := range q.Options {
					mark := " "
					if i == q.CorrectIndex {
						mark = "*"
					}
					fmt.Fprintf(out, "     %s %s) %s\n", mark, questiongen.OptionLabel(i), opt)
				}
			}
			return nil
		})
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and its passages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			if err := e.store.DocumentRepo().Delete(ctx, args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("document %s not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}

func init() {
	docsShowCmd.Flags().IntP("questions", "q", 20, "Maximum question bank entries to show (0 = all)")

	docsCmd.AddCommand(docsListCmd, docsShowCmd, docsDeleteCmd)
}
