package models

import "time"

// DefaultWorkloadLimit is the weekly slot-unit limit assigned to new teachers.
const DefaultWorkloadLimit = 20

// Teacher represents an instructor record.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         *string   `db:"email" json:"email,omitempty"`
	DepartmentID  *string   `db:"dept_id" json:"dept_id,omitempty"`
	WorkloadLimit int       `db:"workload_limit" json:"workload_limit"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	DepartmentID string
	Search       string
}
