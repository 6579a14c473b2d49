package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lgdark7/timetable/internal/models"
)

const teacherColumns = "id, name, email, dept_id, workload_limit, created_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters ordered by name.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("dept_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC", teacherColumns, base)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmail checks if a teacher already uses the email.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = "SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	if teacher.WorkloadLimit <= 0 {
		teacher.WorkloadLimit = models.DefaultWorkloadLimit
	}

	const query = `INSERT INTO teachers (id, name, email, dept_id, workload_limit, created_at)
		VALUES (:id, :name, :email, :dept_id, :workload_limit, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher together with their allocations and entries.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "teachers", id)
}
