package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/export"
	"github.com/abhisek/studyloop/internal/questiongen"
)

var worksheetCmd = &cobra.Command{
	Use:   "worksheet",
	Short: "Print a document's question bank as a PDF worksheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		docID, _ := flags.GetString("doc")
		outPath, _ := flags.GetString("out")
		count, _ := flags.GetInt("count")
		withKey, _ := flags.GetBool("key")

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			doc, err := e.store.DocumentRepo().Get(ctx, docID)
			if err != nil {
				return fmt.Errorf("document %s: %w", docID, err)
			}
			questions, err := e.store.QuestionRepo().ListByDocument(ctx, docID, count)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no questions generated for %q yet; study it first or run 'studyloop next'", doc.Title)
			}
			items := make([]questiongen.Item, len(questions))
			for i, q := range questions {
				items[i] = q.Item
			}

			if outPath == "" {
				outPath = doc.Title + ".pdf"
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := export.Worksheet(f, doc.Title, items, withKey); err != nil {
				f.Close()
				return fmt.Errorf("write worksheet: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d questions to %s\n", len(items), outPath)
			return nil
		})
	},
}

func init() {
	worksheetCmd.Flags().StringP("doc", "d", "", "Document ID")
	worksheetCmd.Flags().StringP("out", "o", "", "Output PDF path (default <title>.pdf)")
	worksheetCmd.Flags().IntP("count", "n", 20, "Maximum number of questions (0 = all)")
	worksheetCmd.Flags().Bool("key", true, "Append an answer key page")
	_ = worksheetCmd.MarkFlagRequired("doc")
}
