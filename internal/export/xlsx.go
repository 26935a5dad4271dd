// Package export writes learner history and question sets to files for
// sharing and printing.
package export

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/studyloop/internal/questiongen"
	"github.com/abhisek/studyloop/internal/store"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
)

var historyHeader = []any{"Answered at", "Document", "Topic", "Difficulty", "Question", "Choice", "Correct"}

// HistoryWorkbook writes an XLSX workbook with one row per answer and a
// summary sheet of accuracy per difficulty and per document.
func HistoryWorkbook(w io.Writer, events []store.AnswerEvent, titles map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return err
	}
	for i, ev := range events {
		doc := ev.DocumentID
		if t, ok := titles[doc]; ok {
			doc = t
		}
		row := []any{
			ev.AnsweredAt.UTC().Format("2006-01-02 15:04:05"),
			doc,
			ev.Topic,
			ev.Difficulty,
			ev.QuestionID,
			questiongen.OptionLabel(ev.Chosen),
			ev.Correct,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("write history row %d: %w", i, err)
		}
	}
	if err := f.SetCellStyle(historySheet, "A1", "G1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(historySheet, "A", "B", 22); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, store.ComputeStats(events), titles, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, st store.Stats, titles map[string]string, bold int) error {
	rows := [][]any{
		{"", "Correct", "Total", "Accuracy"},
		accuracyRow("Overall", st.Overall),
		accuracyRow("Last "+strconv.Itoa(store.RecentWindow), st.Recent),
		{},
		{"Difficulty"},
	}
	levels := make([]int, 0, len(st.ByDifficulty))
	for d := range st.ByDifficulty {
		levels = append(levels, d)
	}
	slices.Sort(levels)
	for _, d := range levels {
		rows = append(rows, accuracyRow(strconv.Itoa(d), st.ByDifficulty[d]))
	}

	rows = append(rows, []any{}, []any{"Document"})
	docs := make([]string, 0, len(st.ByDocument))
	for id := range st.ByDocument {
		docs = append(docs, id)
	}
	slices.Sort(docs)
	for _, id := range docs {
		name := id
		if t, ok := titles[id]; ok {
			name = t
		}
		rows = append(rows, accuracyRow(name, st.ByDocument[id]))
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "D1", bold); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}

func accuracyRow(label string, a store.Accuracy) []any {
	return []any{label, a.Correct, a.Total, fmt.Sprintf("%.0f%%", a.Rate()*100)}
}
