package models

import "time"

// LeaveStatus enumerates the lifecycle of a leave request.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "Pending"
	LeaveStatusApproved LeaveStatus = "Approved"
	LeaveStatusRejected LeaveStatus = "Rejected"
)

// LeaveRequest is a teacher's request for a day off.
type LeaveRequest struct {
	ID            string      `db:"id" json:"id"`
	TeacherID     string      `db:"teacher_id" json:"teacher_id"`
	LeaveDate     time.Time   `db:"leave_date" json:"leave_date"`
	Reason        string      `db:"reason" json:"reason"`
	Status        LeaveStatus `db:"status" json:"status"`
	AdminResponse *string     `db:"admin_response" json:"admin_response,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// LeaveRequestDetail adds the teacher name for listings.
type LeaveRequestDetail struct {
	LeaveRequest
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// LeaveFilter narrows leave listings.
type LeaveFilter struct {
	Status    *LeaveStatus
	TeacherID string
}

// Substitution assigns a substitute to one session of an approved leave. The covered
// session is copied onto the row so it outlives timetable regeneration; TimetableEntryID
// is cleared once the original entry is gone.
type Substitution struct {
	ID                  string    `db:"id" json:"id"`
	LeaveID             string    `db:"leave_id" json:"leave_id"`
	TimetableEntryID    *string   `db:"timetable_entry_id" json:"timetable_entry_id"`
	DayOfWeek           string    `db:"day_of_week" json:"day_of_week"`
	Slot                int       `db:"slot" json:"slot"`
	CourseID            *string   `db:"course_id" json:"course_id,omitempty"`
	ClassroomID         *string   `db:"classroom_id" json:"classroom_id,omitempty"`
	SubstituteTeacherID string    `db:"substitute_teacher_id" json:"substitute_teacher_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// SubstitutionDetail joins the covered session and the people involved.
type SubstitutionDetail struct {
	Substitution
	LeaveDate         time.Time `db:"leave_date" json:"leave_date"`
	CourseName        string    `db:"course_name" json:"course_name"`
	ClassroomName     string    `db:"classroom_name" json:"classroom_name"`
	AbsentTeacherID   string    `db:"absent_teacher_id" json:"absent_teacher_id"`
	AbsentTeacherName string    `db:"absent_teacher_name" json:"absent_teacher_name"`
	SubstituteName    string    `db:"substitute_name" json:"substitute_name"`
}

// LeaveDecision reports the outcome of approving or rejecting a leave.
type LeaveDecision struct {
	Leave         LeaveRequest         `json:"leave"`
	Covered       int                  `json:"covered"`
	Uncovered     int                  `json:"uncovered"`
	Substitutions []SubstitutionDetail `json:"substitutions"`
}
