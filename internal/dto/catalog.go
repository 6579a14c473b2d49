package dto

// CreateDepartmentRequest registers a department.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=128"`
	Code string `json:"code" validate:"required,max=16"`
}

// CreateTeacherRequest registers an instructor. WorkloadLimit defaults to 20 slot-units.
type CreateTeacherRequest struct {
	Name          string  `json:"name" validate:"required,max=128"`
	Email         *string `json:"email" validate:"omitempty,email"`
	DepartmentID  *string `json:"dept_id" validate:"omitempty"`
	WorkloadLimit int     `json:"workload_limit" validate:"omitempty,min=1,max=42"`
}

// CreateClassroomRequest registers a classroom or lab.
type CreateClassroomRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
	Type     string `json:"type" validate:"required,oneof=Classroom Lab"`
}

// CreateCourseRequest registers a course under a department.
type CreateCourseRequest struct {
	Name         string `json:"name" validate:"required,max=128"`
	Code         string `json:"code" validate:"required,max=32"`
	DepartmentID string `json:"dept_id" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=Theory Practical 'Activity Class'"`
	HoursPerWeek int    `json:"hours_per_week" validate:"required,min=1,max=42"`
}

// CreateAllocationRequest assigns a teacher to a course.
type CreateAllocationRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// TeacherQuery filters teacher listings.
type TeacherQuery struct {
	DepartmentID string `form:"dept_id"`
	Search       string `form:"search"`
}

// CourseQuery filters course listings.
type CourseQuery struct {
	DepartmentID string `form:"dept_id"`
}

// AllocationQuery filters allocation listings.
type AllocationQuery struct {
	CourseID string `form:"course_id"`
}
