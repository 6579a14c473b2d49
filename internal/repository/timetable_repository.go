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

const timetableDetailSelect = `SELECT e.id, e.day_of_week, e.slot, e.dept_id, e.course_id, e.teacher_id, e.classroom_id, e.created_at,
	d.code AS dept_code, c.name AS course_name, c.type AS course_type, t.name AS teacher_name,
	r.name AS classroom_name, r.type AS classroom_type
	FROM timetable_entries e
	JOIN departments d ON d.id = e.dept_id
	JOIN courses c ON c.id = e.course_id
	JOIN teachers t ON t.id = e.teacher_id
	JOIN classrooms r ON r.id = e.classroom_id`

// TimetableRepository persists generated and edited timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListDetailed returns entries with display names, filtered by department, teacher or day.
func (r *TimetableRepository) ListDetailed(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	return r.listDetailed(ctx, r.db, filter)
}

// ListDetailedWithTx reads the same listing inside an existing transaction.
func (r *TimetableRepository) ListDetailedWithTx(ctx context.Context, tx *sqlx.Tx, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction provided")
	}
	return r.listDetailed(ctx, tx, filter)
}

func (r *TimetableRepository) listDetailed(ctx context.Context, q sqlx.QueryerContext, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.dept_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("e.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("e.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	query := timetableDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY d.code ASC, e.slot ASC, e.id ASC"

	var entries []models.TimetableEntryDetail
	if err := sqlx.SelectContext(ctx, q, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// FindDetailByID fetches one entry with display names.
func (r *TimetableRepository) FindDetailByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	var entry models.TimetableEntryDetail
	if err := r.db.GetContext(ctx, &entry, timetableDetailSelect+" WHERE e.id = $1", id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReplaceAll deletes the whole timetable and inserts entries in one transaction.
func (r *TimetableRepository) ReplaceAll(ctx context.Context, entries []models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries`); err != nil {
		return fmt.Errorf("clear timetable: %w", err)
	}
	if err = r.bulkInsertEntries(ctx, tx, entries); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace timetable: %w", err)
	}
	return nil
}

func (r *TimetableRepository) bulkInsertEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_entries (id, day_of_week, slot, dept_id, course_id, teacher_id, classroom_id, created_at) VALUES (:id, :day_of_week, :slot, :dept_id, :course_id, :teacher_id, :classroom_id, :created_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert timetable entry: %w", err)
		}
		entries[i] = payload
	}
	return nil
}

// UpdatePlacement moves an entry to a new day, slot, teacher and room.
func (r *TimetableRepository) UpdatePlacement(ctx context.Context, id, dayOfWeek string, slot int, teacherID, classroomID string) error {
	const query = `UPDATE timetable_entries SET day_of_week = $2, slot = $3, teacher_id = $4, classroom_id = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, dayOfWeek, slot, teacherID, classroomID)
	if err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll clears the timetable and reports how many entries were removed.
func (r *TimetableRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries`)
	if err != nil {
		return 0, fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete timetable: %w", err)
	}
	return affected, nil
}

// Utilisation counts sessions per teacher, department and classroom, including idle ones.
func (r *TimetableRepository) Utilisation(ctx context.Context) (teachers, departments, classrooms []models.ResourceUsage, err error) {
	const teacherQuery = `SELECT t.id, t.name, COUNT(e.id) AS sessions FROM teachers t LEFT JOIN timetable_entries e ON e.teacher_id = t.id GROUP BY t.id, t.name ORDER BY sessions DESC, t.name ASC`
	if err = r.db.SelectContext(ctx, &teachers, teacherQuery); err != nil {
		return nil, nil, nil, fmt.Errorf("teacher utilisation: %w", err)
	}
	const departmentQuery = `SELECT d.id, d.name, COUNT(e.id) AS sessions FROM departments d LEFT JOIN timetable_entries e ON e.dept_id = d.id GROUP BY d.id, d.name ORDER BY sessions DESC, d.name ASC`
	if err = r.db.SelectContext(ctx, &departments, departmentQuery); err != nil {
		return nil, nil, nil, fmt.Errorf("department utilisation: %w", err)
	}
	const classroomQuery = `SELECT r.id, r.name, COUNT(e.id) AS sessions FROM classrooms r LEFT JOIN timetable_entries e ON e.classroom_id = r.id GROUP BY r.id, r.name ORDER BY sessions DESC, r.name ASC`
	if err = r.db.SelectContext(ctx, &classrooms, classroomQuery); err != nil {
		return nil, nil, nil, fmt.Errorf("classroom utilisation: %w", err)
	}
	return teachers, departments, classrooms, nil
}
