package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/pkordes/eld-logbook/internal/domain"
)

const (
	pdfRowHeight = 7.0
	pdfFontSize  = 10.0
)

// pdfColumnWidths in millimetres; they sum to the A4 printable width.
var pdfColumnWidths = []float64{18, 34, 50, 50, 38}

// WritePDF renders the segments as a single table: a grey header row with
// white-smoke text, centred cells, and a black grid.
func WritePDF(w io.Writer, title string, segments []domain.ActivitySegment) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("eld-logbook", true)
	pdf.SetDrawColor(0, 0, 0)

	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(245, 245, 245)
		for i, h := range Header {
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
		pdf.SetTextColor(0, 0, 0)
	}

	// Repeat the header row on every page.
	pdf.SetHeaderFunc(func() {
		if title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		}
		header()
	})
	pdf.AddPage()

	for _, s := range segments {
		for i, cell := range Row(s) {
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export.WritePDF: %w", err)
	}
	return nil
}
