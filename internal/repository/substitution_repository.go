package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lgdark7/timetable/internal/models"
)

const substitutionDetailSelect = `SELECT s.id, s.leave_id, s.timetable_entry_id, s.day_of_week, s.slot, s.course_id, s.classroom_id,
	s.substitute_teacher_id, s.created_at, l.leave_date,
	COALESCE(c.name, '') AS course_name, COALESCE(r.name, '') AS classroom_name,
	l.teacher_id AS absent_teacher_id, a.name AS absent_teacher_name, sub.name AS substitute_name
	FROM substitutions s
	JOIN leave_requests l ON l.id = s.leave_id
	LEFT JOIN courses c ON c.id = s.course_id
	LEFT JOIN classrooms r ON r.id = s.classroom_id
	JOIN teachers a ON a.id = l.teacher_id
	JOIN teachers sub ON sub.id = s.substitute_teacher_id`

// SubstitutionRepository persists substitute assignments.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs a SubstitutionRepository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// ListByDate returns substitutions for approved leaves on date.
func (r *SubstitutionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.SubstitutionDetail, error) {
	return r.listByDate(ctx, r.db, date)
}

// ListByDateWithTx reads the same data inside an approval transaction.
func (r *SubstitutionRepository) ListByDateWithTx(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]models.SubstitutionDetail, error) {
	return r.listByDate(ctx, tx, date)
}

func (r *SubstitutionRepository) listByDate(ctx context.Context, q sqlx.QueryerContext, date time.Time) ([]models.SubstitutionDetail, error) {
	query := substitutionDetailSelect + ` WHERE l.leave_date = $1 AND l.status = $2 ORDER BY s.slot ASC, s.created_at ASC`
	var subs []models.SubstitutionDetail
	if err := sqlx.SelectContext(ctx, q, &subs, query, date, models.LeaveStatusApproved); err != nil {
		return nil, fmt.Errorf("list substitutions: %w", err)
	}
	return subs, nil
}

// ListByLeave returns the substitutions recorded for one leave.
func (r *SubstitutionRepository) ListByLeave(ctx context.Context, leaveID string) ([]models.SubstitutionDetail, error) {
	query := substitutionDetailSelect + ` WHERE s.leave_id = $1 ORDER BY s.slot ASC`
	var subs []models.SubstitutionDetail
	if err := r.db.SelectContext(ctx, &subs, query, leaveID); err != nil {
		return nil, fmt.Errorf("list leave substitutions: %w", err)
	}
	return subs, nil
}

// CreateWithTx inserts substitutions using an existing transaction.
func (r *SubstitutionRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, subs []models.Substitution) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range subs {
		payload := subs[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO substitutions (id, leave_id, timetable_entry_id, day_of_week, slot, course_id, classroom_id, substitute_teacher_id, created_at) VALUES (:id, :leave_id, :timetable_entry_id, :day_of_week, :slot, :course_id, :classroom_id, :substitute_teacher_id, :created_at)`, &payload); err != nil {
			return fmt.Errorf("create substitution: %w", err)
		}
		subs[i] = payload
	}
	return nil
}
