package dto

import "github.com/lgdark7/timetable/internal/models"

// MoveEntryRequest relocates one timetable entry. An empty TeacherID keeps the current teacher.
type MoveEntryRequest struct {
	DayOfWeek   string `json:"day_of_week" validate:"required"`
	Slot        *int   `json:"slot" validate:"required,min=0,max=6"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	TeacherID   string `json:"teacher_id"`
}

// TimetableQuery filters timetable listings.
type TimetableQuery struct {
	DepartmentID string `form:"dept_id"`
	TeacherID    string `form:"teacher_id"`
	Day          string `form:"day"`
}

// GenerateTimetableQuery selects synchronous or queued generation.
type GenerateTimetableQuery struct {
	Async bool `form:"async"`
}

// ClearTimetableResponse reports how many entries were removed.
type ClearTimetableResponse struct {
	Deleted int64 `json:"deleted"`
}

// MoveConflictResponse is returned with 409 when a move is rejected.
type MoveConflictResponse struct {
	Reason      string                  `json:"reason"`
	Suggestions []models.MoveSuggestion `json:"suggestions"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=pdf xlsx csv"`
}
