package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lgdark7/timetable/internal/models"
)

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses, optionally restricted to one department.
func (r *CourseRepository) List(ctx context.Context, departmentID string) ([]models.Course, error) {
	query := `SELECT id, name, code, dept_id, type, hours_per_week, created_at FROM courses`
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE dept_id = $1`
		args = append(args, departmentID)
	}
	query += ` ORDER BY code ASC`

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, code, dept_id, type, hours_per_week, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks whether the course code is taken.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE LOWER(code) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, name, code, dept_id, type, hours_per_week, created_at)
		VALUES (:id, :name, :code, :dept_id, :type, :hours_per_week, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Delete removes a course with its allocations and entries.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "courses", id)
}
