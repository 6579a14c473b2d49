package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lgdark7/timetable/internal/models"
)

// DepartmentRepository manages persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments ordered by code.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, code, created_at FROM departments ORDER BY code ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID fetches a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, code, created_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ExistsByCode checks whether a department already uses the code or name.
func (r *DepartmentRepository) ExistsByCode(ctx context.Context, code, name string) (bool, error) {
	const query = `SELECT 1 FROM departments WHERE LOWER(code) = LOWER($1) OR LOWER(name) = LOWER($2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check department code: %w", err)
	}
	return true, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	if department.CreatedAt.IsZero() {
		department.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO departments (id, name, code, created_at) VALUES (:id, :name, :code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Delete removes a department and, through cascades, everything it owns.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "departments", id)
}

// ListWithCourses loads every department with its courses and their allocations.
// Allocations are ordered by creation so the first one is stable.
func (r *DepartmentRepository) ListWithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error) {
	departments, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		return nil, nil
	}

	const courseQuery = `SELECT id, name, code, dept_id, type, hours_per_week, created_at FROM courses ORDER BY dept_id, created_at ASC, id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, courseQuery); err != nil {
		return nil, fmt.Errorf("list courses for departments: %w", err)
	}

	courseIDs := make([]string, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	allocationsByCourse := make(map[string][]models.Allocation)
	if len(courseIDs) > 0 {
		const allocationQuery = `SELECT id, course_id, teacher_id, created_at FROM allocations WHERE course_id = ANY($1) ORDER BY created_at ASC, id ASC`
		var allocations []models.Allocation
		if err := r.db.SelectContext(ctx, &allocations, allocationQuery, pq.Array(courseIDs)); err != nil {
			return nil, fmt.Errorf("list allocations for courses: %w", err)
		}
		for _, allocation := range allocations {
			allocationsByCourse[allocation.CourseID] = append(allocationsByCourse[allocation.CourseID], allocation)
		}
	}

	coursesByDept := make(map[string][]models.CourseWithAllocations)
	for _, course := range courses {
		coursesByDept[course.DepartmentID] = append(coursesByDept[course.DepartmentID], models.CourseWithAllocations{
			Course:      course,
			Allocations: allocationsByCourse[course.ID],
		})
	}

	result := make([]models.DepartmentWithCourses, 0, len(departments))
	for _, department := range departments {
		result = append(result, models.DepartmentWithCourses{
			Department: department,
			Courses:    coursesByDept[department.ID],
		})
	}
	return result, nil
}

// deleteByID removes one row and reports sql.ErrNoRows when nothing matched.
func deleteByID(ctx context.Context, exec sqlx.ExecerContext, table, id string) error {
	res, err := exec.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
