package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth   = 277.0
	pdfLabelWidth  = 25.0
	pdfHeaderLine  = 8.0
	pdfCellLine    = 4.5
	pdfCellLines   = 4
	pdfCellPadding = 1.0
)

// PDFExporter renders a timetable grid on a landscape A4 page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the grid title and one bordered row per grid row.
func (e *PDFExporter) Render(grid Grid) ([]byte, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, grid.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := (pdfPageWidth - pdfLabelWidth) / float64(len(grid.Columns))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(pdfLabelWidth, pdfHeaderLine, grid.Corner, "1", 0, "C", true, 0, "")
	for _, column := range grid.Columns {
		pdf.CellFormat(colWidth, pdfHeaderLine, column, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	rowHeight := pdfCellLine * pdfCellLines
	for _, row := range grid.Rows {
		x, y := pdf.GetXY()
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(pdfLabelWidth, rowHeight, row.Label, "1", 0, "C", false, 0, "")

		pdf.SetFont("Arial", "", 7)
		for i, cell := range row.Cells {
			cellX := x + pdfLabelWidth + float64(i)*colWidth
			pdf.Rect(cellX, y, colWidth, rowHeight, "D")
			var lines [][]byte
			for _, part := range strings.Split(cell, "\n") {
				lines = append(lines, pdf.SplitLines([]byte(part), colWidth-2*pdfCellPadding)...)
			}
			if len(lines) > pdfCellLines {
				lines = lines[:pdfCellLines]
			}
			for j, line := range lines {
				pdf.SetXY(cellX+pdfCellPadding, y+float64(j)*pdfCellLine)
				pdf.CellFormat(colWidth-2*pdfCellPadding, pdfCellLine, string(line), "", 0, "L", false, 0, "")
			}
		}
		pdf.SetXY(x, y+rowHeight)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
