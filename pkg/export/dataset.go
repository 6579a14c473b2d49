package export

import "fmt"

// Grid is a weekly timetable laid out as one row per day and one column per slot.
type Grid struct {
	Title   string
	Corner  string
	Columns []string
	Rows    []GridRow
}

// GridRow is one labelled row of cells, aligned with Grid.Columns.
type GridRow struct {
	Label string
	Cells []string
}

// SessionRow is the flat CSV form of one timetable entry.
type SessionRow struct {
	Day     string `csv:"day"`
	Period  int    `csv:"period"`
	Time    string `csv:"time"`
	Course  string `csv:"course"`
	Type    string `csv:"type"`
	Teacher string `csv:"teacher"`
	Room    string `csv:"room"`
}

func (g Grid) validate() error {
	if len(g.Columns) == 0 {
		return fmt.Errorf("grid requires at least one column")
	}
	for _, row := range g.Rows {
		if len(row.Cells) != len(g.Columns) {
			return fmt.Errorf("row %q has %d cells, want %d", row.Label, len(row.Cells), len(g.Columns))
		}
	}
	return nil
}
