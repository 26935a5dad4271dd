package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/session"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Generate the next question for a learner from a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, _ := cmd.Flags().GetString("doc")
		asJSON, _ := cmd.Flags().GetBool("json")
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			o, err := e.orchestrator(ctx, true)
			if err != nil {
				return err
			}
			item, err := o.NextQuestion(ctx, e.userID, docID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), questionView{
					ID:         item.ID,
					DocumentID: item.DocumentID,
					Difficulty: item.Difficulty,
					Topic:      item.Topic,
					Stem:       item.Stem,
					Options:    item.Options[:],
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Question %s (level %d)\n\n%s\n\n", item.ID, item.Difficulty, item.Stem)
			for i, opt := range item.Options {
				fmt.Fprintf(out, "  %s) %s\n", questiongen.OptionLabel(i), opt)
			}
			fmt.Fprintf(out, "\nAnswer with: studyloop answer --user %s --question %s --choice <A-D>\n", e.userID, item.ID)
			return nil
		})
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Record a learner's answer to a served question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		questionID, _ := flags.GetString("question")
		choice, _ := flags.GetString("choice")
		eventID, _ := flags.GetString("event-id")
		asJSON, _ := flags.GetBool("json")

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			q, err := e.store.QuestionRepo().Get(ctx, questionID)
			if err != nil {
				return fmt.Errorf("question %s: %w", questionID, err)
			}
			chosen, err := questiongen.ParseChoice(choice, &q.Item)
			if err != nil {
				return err
			}

			o, err := e.orchestrator(ctx, false)
			if err != nil {
				return err
			}
			ev, err := o.SubmitAnswer(ctx, session.Submission{
				EventID:    eventID,
				UserID:     e.userID,
				QuestionID: questionID,
				Chosen:     chosen,
			})
			if err != nil {
				return err
			}
			p, err := o.Progress(ctx, e.userID)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), answerView{
					EventID:      ev.ID,
					Correct:      ev.Correct,
					CorrectIndex: q.CorrectIndex,
					Rationale:    q.Rationale,
					Difficulty:   p.Difficulty,
				})
			}
			out := cmd.OutOrStdout()
			if ev.Correct {
				fmt.Fprintln(out, "Correct!")
			} else {
				fmt.Fprintf(out, "Not quite. The answer was %s) %s\n",
					questiongen.OptionLabel(q.CorrectIndex), q.Options[q.CorrectIndex])
			}
			if q.Rationale != "" {
				fmt.Fprintf(out, "\n%s\n", q.Rationale)
			}
			fmt.Fprintf(out, "\nLevel %d of %d, %s\n", p.Difficulty, p.MaxDifficulty, p.Mood)
			return nil
		})
	},
}

type questionView struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"document_id"`
	Difficulty int      `json:"difficulty"`
	Topic      string   `json:"topic,omitempty"`
	Stem       string   `json:"stem"`
	Options    []string `json:"options"`
}

type answerView struct {
	EventID      string `json:"event_id"`
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	Rationale    string `json:"rationale,omitempty"`
	Difficulty   int    `json:"difficulty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	nextCmd.Flags().StringP("doc", "d", "", "Document ID")
	nextCmd.Flags().Bool("json", false, "Print JSON")
	_ = nextCmd.MarkFlagRequired("doc")

	answerCmd.Flags().StringP("question", "q", "", "Question ID")
	answerCmd.Flags().StringP("choice", "c", "", "Chosen option: letter, number or option text")
	answerCmd.Flags().String("event-id", "", "Idempotency key (default derived from learner and question)")
	answerCmd.Flags().Bool("json", false, "Print JSON")
	_ = answerCmd.MarkFlagRequired("question")
	_ = answerCmd.MarkFlagRequired("choice")
}
