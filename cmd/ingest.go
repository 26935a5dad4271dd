package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Add text, Markdown or PDF documents to the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if title != "" && len(args) > 1 {
			return fmt.Errorf("--title applies to a single file")
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			in, err := e.ingester(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range args {
				res, err := in.File(ctx, path, title)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s  %s  (%d passages)\n", res.Document.ID, res.Document.Title, len(res.Chunks))
				if res.Oversized > 0 {
					fmt.Fprintf(out, "  note: %d passage(s) are longer than the target size\n", res.Oversized)
				}
			}
			return nil
		})
	},
}

func init() {
	ingestCmd.Flags().StringP("title", "t", "", "Document title (default derived from the file name)")
}
