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

// AllocationRepository manages teacher-to-course allocations.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// List returns allocations with course and teacher names.
func (r *AllocationRepository) List(ctx context.Context, courseID string) ([]models.AllocationDetail, error) {
	query := `SELECT a.id, a.course_id, a.teacher_id, a.created_at, c.name AS course_name, t.name AS teacher_name
		FROM allocations a
		JOIN courses c ON c.id = a.course_id
		JOIN teachers t ON t.id = a.teacher_id`
	var args []interface{}
	if courseID != "" {
		query += ` WHERE a.course_id = $1`
		args = append(args, courseID)
	}
	query += ` ORDER BY a.created_at ASC`

	var allocations []models.AllocationDetail
	if err := r.db.SelectContext(ctx, &allocations, query, args...); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

// Exists checks whether the teacher is already allocated to the course.
func (r *AllocationRepository) Exists(ctx context.Context, courseID, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM allocations WHERE course_id = $1 AND teacher_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check allocation: %w", err)
	}
	return true, nil
}

// Create inserts a new allocation.
func (r *AllocationRepository) Create(ctx context.Context, allocation *models.Allocation) error {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO allocations (id, course_id, teacher_id, created_at) VALUES (:id, :course_id, :teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, allocation); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// Delete removes an allocation.
func (r *AllocationRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "allocations", id)
}
