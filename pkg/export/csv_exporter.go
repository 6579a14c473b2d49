package export

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// CSVExporter renders timetable sessions into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes with a header row even when there are no sessions.
func (e *CSVExporter) Render(rows []SessionRow) ([]byte, error) {
	if rows == nil {
		rows = []SessionRow{}
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return out, nil
}
