package models

import "time"

// TimetableEntry is one persisted (day, slot) booking.
type TimetableEntry struct {
	ID           string    `db:"id" json:"id"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	Slot         int       `db:"slot" json:"slot"`
	DepartmentID string    `db:"dept_id" json:"dept_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TimetableEntryDetail joins display names onto an entry.
type TimetableEntryDetail struct {
	TimetableEntry
	DepartmentCode string `db:"dept_code" json:"dept_code"`
	CourseName     string `db:"course_name" json:"course_name"`
	CourseType     string `db:"course_type" json:"course_type"`
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	ClassroomName  string `db:"classroom_name" json:"classroom_name"`
	ClassroomType  string `db:"classroom_type" json:"classroom_type"`
	SlotLabel      string `db:"-" json:"slot_label"`
}

// TimetableFilter narrows timetable listings.
type TimetableFilter struct {
	DepartmentID string
	TeacherID    string
	DayOfWeek    string
}

// MoveSuggestion is an alternative placement offered after a rejected move.
type MoveSuggestion struct {
	DayOfWeek     string `json:"day_of_week"`
	Slot          int    `json:"slot"`
	SlotLabel     string `json:"slot_label"`
	ClassroomID   string `json:"classroom_id"`
	ClassroomName string `json:"classroom_name"`
}

// MoveConflictError is returned when a requested move violates a constraint.
type MoveConflictError struct {
	Reason      string           `json:"reason"`
	Suggestions []MoveSuggestion `json:"suggestions"`
}

// Error implements the error interface for conflict errors.
func (e *MoveConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Reason
}

// GenerationResult summarises a committed generation run.
type GenerationResult struct {
	Requirements int       `json:"requirements"`
	Entries      int       `json:"entries"`
	Attempts     int       `json:"attempts"`
	DurationMS   int64     `json:"duration_ms"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// GenerationJobStatus enumerates background generation states.
type GenerationJobStatus string

const (
	GenerationJobQueued    GenerationJobStatus = "QUEUED"
	GenerationJobRunning   GenerationJobStatus = "RUNNING"
	GenerationJobSucceeded GenerationJobStatus = "SUCCEEDED"
	GenerationJobFailed    GenerationJobStatus = "FAILED"
)

// GenerationJob tracks an asynchronous generation run.
type GenerationJob struct {
	ID         string              `json:"id"`
	Status     GenerationJobStatus `json:"status"`
	Result     *GenerationResult   `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
	QueuedAt   time.Time           `json:"queued_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// ResourceUsage counts the sessions booked against one teacher, department or room.
type ResourceUsage struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Sessions int    `db:"sessions" json:"sessions"`
}

// DepartmentDensity compares a department's allocated load with the teaching week.
type DepartmentDensity struct {
	DepartmentID     string   `json:"dept_id"`
	DepartmentCode   string   `json:"dept_code"`
	AllocatedCourses int      `json:"allocated_courses"`
	TotalCourses     int      `json:"total_courses"`
	AllocatedHours   int      `json:"allocated_hours"`
	RequiredSlots    int      `json:"required_slots"`
	ScheduledSlots   int      `json:"scheduled_slots"`
	WeeklyCapacity   int      `json:"weekly_capacity"`
	Warnings         []string `json:"warnings,omitempty"`
}

// UtilisationReport aggregates session counts and allocation density.
type UtilisationReport struct {
	Teachers    []ResourceUsage     `json:"teachers"`
	Departments []ResourceUsage     `json:"departments"`
	Classrooms  []ResourceUsage     `json:"classrooms"`
	Density     []DepartmentDensity `json:"density"`
}
