package scheduler

import (
	"fmt"
	"strings"
)

// CourseType is the closed set of session kinds the engine understands.
type CourseType int

const (
	Theory CourseType = iota
	Practical
	ActivityClass
)

// Stored names for each course type.
const (
	TheoryName        = "Theory"
	PracticalName     = "Practical"
	ActivityClassName = "Activity Class"
)

func (t CourseType) String() string {
	switch t {
	case Theory:
		return TheoryName
	case Practical:
		return PracticalName
	case ActivityClass:
		return ActivityClassName
	}
	panic(fmt.Sprintf("scheduler: unknown course type %d", int(t)))
}

// ParseCourseType resolves the stored course type name.
func ParseCourseType(raw string) (CourseType, error) {
	switch strings.TrimSpace(raw) {
	case TheoryName:
		return Theory, nil
	case PracticalName:
		return Practical, nil
	case ActivityClassName:
		return ActivityClass, nil
	}
	return 0, fmt.Errorf("unknown course type %q", raw)
}

// Duration is the number of contiguous slots one session of this type occupies.
func (t CourseType) Duration() int {
	switch t {
	case Practical:
		return LabBlockLength
	case Theory, ActivityClass:
		return 1
	}
	panic(fmt.Sprintf("scheduler: unknown course type %d", int(t)))
}

// DepartmentCapacity is the number of entries one department may run in parallel
// at a single day and slot when the occupant is of this type.
func DepartmentCapacity(t CourseType) int {
	switch t {
	case Practical:
		return 2
	case Theory, ActivityClass:
		return 1
	}
	panic(fmt.Sprintf("scheduler: unknown course type %d", int(t)))
}

// RoomType distinguishes lecture rooms from labs.
type RoomType int

const (
	ClassroomRoom RoomType = iota
	LabRoom
)

// Stored names for each room type.
const (
	ClassroomRoomName = "Classroom"
	LabRoomName       = "Lab"
)

func (r RoomType) String() string {
	if r == LabRoom {
		return LabRoomName
	}
	return ClassroomRoomName
}

// ParseRoomType maps the stored room type. Anything but "Lab" is a classroom.
func ParseRoomType(raw string) RoomType {
	if strings.TrimSpace(raw) == LabRoomName {
		return LabRoom
	}
	return ClassroomRoom
}

// Serves reports whether a room of this type may host the course type.
func (r RoomType) Serves(t CourseType) bool {
	switch t {
	case Practical:
		return r == LabRoom
	case Theory, ActivityClass:
		return r != LabRoom
	}
	panic(fmt.Sprintf("scheduler: unknown course type %d", int(t)))
}

// Course is the engine view of a course with its allocated teachers in allocation order.
type Course struct {
	ID           string
	Name         string
	Type         CourseType
	HoursPerWeek int
	TeacherIDs   []string
}

// Department groups the courses the engine schedules together.
type Department struct {
	ID      string
	Code    string
	Courses []Course
}

// Teacher is the engine view of an instructor.
type Teacher struct {
	ID            string
	Name          string
	DeptID        string
	WorkloadLimit int
}

// Room is the engine view of a classroom or lab.
type Room struct {
	ID   string
	Name string
	Type RoomType
}

// Snapshot is the set of entities one generation run works from.
type Snapshot struct {
	Departments []Department
	Teachers    []Teacher
	Rooms       []Room
}

// Entry is one scheduled slot. Name fields are optional and only feed conflict reasons.
type Entry struct {
	ID         string
	Day        Day
	Slot       Slot
	DeptID     string
	CourseID   string
	TeacherID  string
	RoomID     string
	CourseType CourseType

	CourseName  string
	TeacherName string
	RoomName    string
}
