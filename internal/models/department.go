package models

import "time"

// Department groups courses scheduled together.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DepartmentWithCourses is a department with its courses and their allocations.
type DepartmentWithCourses struct {
	Department
	Courses []CourseWithAllocations `json:"courses"`
}
