package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Timetable"

// XLSXExporter renders a timetable grid into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the title in A1, the header on row 2 and one row per grid row after it.
func (e *XLSXExporter) Render(grid Grid) ([]byte, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(grid.Columns) + 1)
	if err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    xlsxBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    xlsxBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("cell style: %w", err)
	}

	if grid.Title != "" {
		_ = f.SetCellValue(xlsxSheet, "A1", grid.Title)
		_ = f.MergeCell(xlsxSheet, "A1", lastCol+"1")
		_ = f.SetCellStyle(xlsxSheet, "A1", lastCol+"1", titleStyle)
	}

	header := make([]interface{}, 0, len(grid.Columns)+1)
	header = append(header, grid.Corner)
	for _, column := range grid.Columns {
		header = append(header, column)
	}
	if err := f.SetSheetRow(xlsxSheet, "A2", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	_ = f.SetCellStyle(xlsxSheet, "A2", lastCol+"2", headerStyle)

	for i, row := range grid.Rows {
		rowNum := i + 3
		values := make([]interface{}, 0, len(row.Cells)+1)
		values = append(values, row.Label)
		for _, cell := range row.Cells {
			values = append(values, cell)
		}
		if err := f.SetSheetRow(xlsxSheet, fmt.Sprintf("A%d", rowNum), &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", rowNum, err)
		}
		_ = f.SetCellStyle(xlsxSheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", lastCol, rowNum), cellStyle)
		_ = f.SetCellStyle(xlsxSheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), headerStyle)
		_ = f.SetRowHeight(xlsxSheet, rowNum, 48)
	}

	_ = f.SetColWidth(xlsxSheet, "A", "A", 14)
	_ = f.SetColWidth(xlsxSheet, "B", lastCol, 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#999999", Style: 1},
		{Type: "top", Color: "#999999", Style: 1},
		{Type: "right", Color: "#999999", Style: 1},
		{Type: "bottom", Color: "#999999", Style: 1},
	}
}
