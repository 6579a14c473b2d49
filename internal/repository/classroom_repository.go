package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lgdark7/timetable/internal/models"
)

// ClassroomRepository manages persistence for classrooms and labs.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns every room ordered by name.
func (r *ClassroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	const query = `SELECT id, name, capacity, type, created_at FROM classrooms ORDER BY name ASC`
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// FindByID fetches a room by ID.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, name, capacity, type, created_at FROM classrooms WHERE id = $1`
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a new room.
func (r *ClassroomRepository) Create(ctx context.Context, room *models.Classroom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classrooms (id, name, capacity, type, created_at) VALUES (:id, :name, :capacity, :type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// Delete removes a room and the entries booked in it.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "classrooms", id)
}
