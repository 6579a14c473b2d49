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

const leaveColumns = "id, teacher_id, leave_date, reason, status, admin_response, created_at, updated_at"

// LeaveRepository persists leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs a LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// BeginTxx starts a transaction for approval workflows.
func (r *LeaveRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// Create inserts a new leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = now
	}
	leave.UpdatedAt = now
	if leave.Status == "" {
		leave.Status = models.LeaveStatusPending
	}

	query := fmt.Sprintf("INSERT INTO leave_requests (%s) VALUES (:id, :teacher_id, :leave_date, :reason, :status, :admin_response, :created_at, :updated_at)", leaveColumns)
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// FindByIDForUpdate loads a leave request and locks its row inside tx, so two
// concurrent approvals of the same request serialise.
func (r *LeaveRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE id = $1 FOR UPDATE", leaveColumns)
	var leave models.LeaveRequest
	if err := tx.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// List returns leave requests with teacher names, soonest first.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequestDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("l.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}

	query := `SELECT l.id, l.teacher_id, l.leave_date, l.reason, l.status, l.admin_response, l.created_at, l.updated_at, t.name AS teacher_name
		FROM leave_requests l JOIN teachers t ON t.id = l.teacher_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY l.leave_date ASC, l.created_at ASC"

	var leaves []models.LeaveRequestDetail
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return leaves, nil
}

// ListApprovedTeacherIDs returns teachers with an approved leave on date.
func (r *LeaveRepository) ListApprovedTeacherIDs(ctx context.Context, tx *sqlx.Tx, date time.Time) ([]string, error) {
	const query = `SELECT DISTINCT teacher_id FROM leave_requests WHERE leave_date = $1 AND status = $2`
	var ids []string
	if err := sqlx.SelectContext(ctx, tx, &ids, query, date, models.LeaveStatusApproved); err != nil {
		return nil, fmt.Errorf("list teachers on leave: %w", err)
	}
	return ids, nil
}

// UpdateDecision stores status, reason and admin response.
func (r *LeaveRepository) UpdateDecision(ctx context.Context, exec sqlx.ExtContext, leave *models.LeaveRequest) error {
	leave.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leave_requests SET status = :status, reason = :reason, admin_response = :admin_response, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, leave); err != nil {
		return fmt.Errorf("update leave request: %w", err)
	}
	return nil
}
