package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/abhisek/studyloop/internal/questiongen"
)

// Worksheet writes a printable PDF of items, followed by an answer key page
// when withKey is set.
func Worksheet(w io.Writer, title string, items []questiongen.Item, withKey bool) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	pdf.Ln(4)

	for i, it := range items {
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, it.Stem)), "", "L", false)
		pdf.SetFont("Arial", "", 11)
		for j, opt := range it.Options {
			pdf.SetX(24)
			pdf.MultiCell(0, 6, tr(questiongen.OptionLabel(j)+") "+opt), "", "L", false)
		}
		pdf.Ln(4)
	}

	if withKey && len(items) > 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 9, "Answer key")
		pdf.Ln(12)
		for i, it := range items {
			pdf.SetFont("Arial", "B", 11)
			pdf.Cell(14, 6, fmt.Sprintf("%d.", i+1))
			pdf.SetFont("Arial", "", 11)
			line := questiongen.OptionLabel(it.CorrectIndex)
			if it.Rationale != "" {
				line += "  " + it.Rationale
			}
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render worksheet: %w", err)
	}
	return nil
}
