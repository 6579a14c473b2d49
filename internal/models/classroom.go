package models

import "time"

// Room types accepted for classrooms.
const (
	RoomTypeClassroom = "Classroom"
	RoomTypeLab       = "Lab"
)

// Classroom is a bookable room.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Type      string    `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
