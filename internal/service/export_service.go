package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/scheduler"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/export"
)

// Supported export formats.
const (
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

var exportContentTypes = map[string]string{
	ExportFormatPDF:  "application/pdf",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportFormatCSV:  "text/csv",
}

type exportDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type exportTimetableReader interface {
	ListDetailed(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error)
}

type gridRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

type sessionRenderer interface {
	Render(rows []export.SessionRow) ([]byte, error)
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders department timetables as downloadable documents.
type ExportService struct {
	departments exportDepartmentReader
	timetable   exportTimetableReader
	pdf         gridRenderer
	xlsx        gridRenderer
	csv         sessionRenderer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(departments exportDepartmentReader, timetable exportTimetableReader, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		departments: departments,
		timetable:   timetable,
		pdf:         export.NewPDFExporter(),
		xlsx:        export.NewXLSXExporter(),
		csv:         export.NewCSVExporter(),
		validator:   validate,
		logger:      logger,
	}
}

// DepartmentTimetable renders one department's week. PDF is the default format.
func (s *ExportService) DepartmentTimetable(ctx context.Context, departmentID string, query dto.ExportQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = ExportFormatPDF
	}

	department, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		return nil, lookupError(err, "department")
	}
	entries, err := s.timetable.ListDetailed(ctx, models.TimetableFilter{DepartmentID: departmentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	var data []byte
	switch format {
	case ExportFormatCSV:
		data, err = s.csv.Render(sessionRows(entries))
	case ExportFormatXLSX:
		data, err = s.xlsx.Render(departmentGrid(department, entries))
	default:
		data, err = s.pdf.Render(departmentGrid(department, entries))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("timetable exported",
		zap.String("dept_id", department.ID),
		zap.String("format", format),
		zap.Int("entries", len(entries)),
		zap.Int("bytes", len(data)))

	return &ExportFile{
		Filename:    fmt.Sprintf("%s_timetable.%s", sanitizeFilename(department.Code), format),
		ContentType: exportContentTypes[format],
		Data:        data,
	}, nil
}

func departmentGrid(department *models.Department, entries []models.TimetableEntryDetail) export.Grid {
	columns := make([]string, scheduler.SlotsPerDay)
	for slot := scheduler.Slot(0); slot < scheduler.SlotsPerDay; slot++ {
		columns[slot] = slot.Label()
	}

	cells := make(map[scheduler.Day][scheduler.SlotsPerDay][]string, scheduler.DaysPerWeek)
	for _, entry := range entries {
		day, err := scheduler.ParseDay(entry.DayOfWeek)
		if err != nil || !scheduler.Slot(entry.Slot).Valid() {
			continue
		}
		row := cells[day]
		row[entry.Slot] = append(row[entry.Slot], sessionCell(entry))
		cells[day] = row
	}

	rows := make([]export.GridRow, 0, scheduler.DaysPerWeek)
	for _, day := range scheduler.Days() {
		row := export.GridRow{Label: day.String(), Cells: make([]string, scheduler.SlotsPerDay)}
		for slot, sessions := range cells[day] {
			row.Cells[slot] = strings.Join(sessions, "\n")
		}
		rows = append(rows, row)
	}

	return export.Grid{
		Title:   fmt.Sprintf("%s (%s) Timetable", department.Name, department.Code),
		Corner:  "Day",
		Columns: columns,
		Rows:    rows,
	}
}

func sessionCell(entry models.TimetableEntryDetail) string {
	course := entry.CourseName
	if entry.CourseType == models.CourseTypePractical {
		course += " (Lab)"
	}
	return strings.Join([]string{course, entry.TeacherName, entry.ClassroomName}, "\n")
}

func sessionRows(entries []models.TimetableEntryDetail) []export.SessionRow {
	type keyed struct {
		day scheduler.Day
		row export.SessionRow
	}
	ordered := make([]keyed, 0, len(entries))
	for _, entry := range entries {
		day, err := scheduler.ParseDay(entry.DayOfWeek)
		if err != nil {
			continue
		}
		slot := scheduler.Slot(entry.Slot)
		ordered = append(ordered, keyed{day: day, row: export.SessionRow{
			Day:     day.String(),
			Period:  slot.Period(),
			Time:    slot.Label(),
			Course:  entry.CourseName,
			Type:    entry.CourseType,
			Teacher: entry.TeacherName,
			Room:    entry.ClassroomName,
		}})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].day != ordered[j].day {
			return ordered[i].day < ordered[j].day
		}
		return ordered[i].row.Period < ordered[j].row.Period
	})
	rows := make([]export.SessionRow, len(ordered))
	for i, item := range ordered {
		rows[i] = item.row
	}
	return rows
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "department"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 64 {
		return result[:64]
	}
	return result
}
