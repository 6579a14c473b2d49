package models

import "time"

// Course types accepted for courses.
const (
	CourseTypeTheory        = "Theory"
	CourseTypePractical     = "Practical"
	CourseTypeActivityClass = "Activity Class"
)

// Course is a unit of teaching owned by a department.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	DepartmentID string    `db:"dept_id" json:"dept_id"`
	Type         string    `db:"type" json:"type"`
	HoursPerWeek int       `db:"hours_per_week" json:"hours_per_week"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CourseWithAllocations carries the course's allocations in creation order.
type CourseWithAllocations struct {
	Course
	Allocations []Allocation `json:"allocations"`
}

// Allocation assigns a teacher to a course.
type Allocation struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AllocationDetail joins course and teacher names onto an allocation.
type AllocationDetail struct {
	Allocation
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
