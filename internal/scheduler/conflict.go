package scheduler

import "fmt"

// ConflictKind names the constraint a candidate placement violates.
type ConflictKind string

const (
	ConflictNone            ConflictKind = ""
	ConflictTeacher         ConflictKind = "TEACHER_BUSY"
	ConflictRoom            ConflictKind = "ROOM_BUSY"
	ConflictDepartment      ConflictKind = "DEPARTMENT_BUSY"
	ConflictDepartmentLimit ConflictKind = "DEPARTMENT_LIMIT"
)

const (
	reasonDepartmentBusy      = "Department already has 2 concurrent sessions (Practical/Batch limit reached)."
	reasonPracticalLimit      = "Department limit reached (max 2 parallel practical sessions)."
	reasonExclusiveClassLimit = "Department limit reached (Theory classes cannot run parallel to other classes)."
)

// Candidate is a proposed (day, slot, teacher, room) for a department's entry.
type Candidate struct {
	Day       Day
	Slot      Slot
	TeacherID string
	RoomID    string
	DeptID    string
}

// Conflict is the outcome of a check. The zero value means no conflict.
type Conflict struct {
	Kind   ConflictKind
	Reason string
}

// Found reports whether a constraint was violated.
func (c Conflict) Found() bool {
	return c.Kind != ConflictNone
}

// CheckConflict tests the candidate against entries, skipping ignoreID.
// Checks run teacher, room, then department, and the first hit is reported.
// The department threshold of two is type agnostic; CheckMove applies the real cap.
func CheckConflict(entries []Entry, c Candidate, ignoreID string) Conflict {
	if c.TeacherID != "" {
		for _, e := range entries {
			if e.ID == ignoreID && ignoreID != "" {
				continue
			}
			if e.Day == c.Day && e.Slot == c.Slot && e.TeacherID == c.TeacherID {
				return Conflict{
					Kind:   ConflictTeacher,
					Reason: fmt.Sprintf("Teacher %s is already teaching %s in Room %s.", e.TeacherName, e.CourseName, e.RoomName),
				}
			}
		}
	}

	for _, e := range entries {
		if e.ID == ignoreID && ignoreID != "" {
			continue
		}
		if e.Day == c.Day && e.Slot == c.Slot && e.RoomID == c.RoomID {
			return Conflict{
				Kind:   ConflictRoom,
				Reason: fmt.Sprintf("Classroom %s is already occupied by %s (%s).", e.RoomName, e.CourseName, e.TeacherName),
			}
		}
	}

	if departmentLoad(entries, c.Day, c.Slot, c.DeptID, ignoreID) >= 2 {
		return Conflict{Kind: ConflictDepartment, Reason: reasonDepartmentBusy}
	}
	return Conflict{}
}

// CheckMove validates moving entry to candidate, including the department cap
// for the entry's course type. A cell holding a Theory or activity session
// accepts nothing else.
func CheckMove(entries []Entry, entry Entry, c Candidate) Conflict {
	if conflict := CheckConflict(entries, c, entry.ID); conflict.Found() {
		return conflict
	}
	limit := DepartmentCapacity(entry.CourseType)
	for _, e := range entries {
		if e.ID != entry.ID && e.Day == c.Day && e.Slot == c.Slot && e.DeptID == c.DeptID && e.CourseType != Practical {
			limit = 1
			break
		}
	}
	if departmentLoad(entries, c.Day, c.Slot, c.DeptID, entry.ID) < limit {
		return Conflict{}
	}
	if entry.CourseType == Practical && limit == DepartmentCapacity(Practical) {
		return Conflict{Kind: ConflictDepartmentLimit, Reason: reasonPracticalLimit}
	}
	return Conflict{Kind: ConflictDepartmentLimit, Reason: reasonExclusiveClassLimit}
}

func departmentLoad(entries []Entry, day Day, slot Slot, deptID, ignoreID string) int {
	count := 0
	for _, e := range entries {
		if e.ID == ignoreID && ignoreID != "" {
			continue
		}
		if e.Day == day && e.Slot == slot && e.DeptID == deptID {
			count++
		}
	}
	return count
}
