package scheduler

type resourceKey struct {
	Day  Day
	Slot Slot
	ID   string
}

type courseDayKey struct {
	Day      Day
	DeptID   string
	CourseID string
}

type deptDayKey struct {
	Day    Day
	DeptID string
}

type deptCell struct {
	count int
	// exclusive is set once a non-Practical entry occupies the cell.
	exclusive bool
}

// Occupancy tracks which teachers, rooms and departments are busy in each day and slot.
type Occupancy struct {
	teacherBusy  map[resourceKey]bool
	roomBusy     map[resourceKey]bool
	deptSessions map[resourceKey]*deptCell
	courseDay    map[courseDayKey]int
	labStart     map[deptDayKey]Slot
	teacherLoad  map[string]int
}

// NewOccupancy returns an empty occupancy model.
func NewOccupancy() *Occupancy {
	return &Occupancy{
		teacherBusy:  make(map[resourceKey]bool),
		roomBusy:     make(map[resourceKey]bool),
		deptSessions: make(map[resourceKey]*deptCell),
		courseDay:    make(map[courseDayKey]int),
		labStart:     make(map[deptDayKey]Slot),
		teacherLoad:  make(map[string]int),
	}
}

// OccupancyFromEntries rebuilds the model from an already committed schedule.
// Entries whose ID is listed in skip are left out.
func OccupancyFromEntries(entries []Entry, skip ...string) *Occupancy {
	occ := NewOccupancy()
	for _, entry := range entries {
		if skipped(entry.ID, skip) {
			continue
		}
		occ.Claim(entry)
		if entry.CourseType != Practical {
			continue
		}
		key := deptDayKey{Day: entry.Day, DeptID: entry.DeptID}
		if !isLabStart(entry.Slot) {
			continue
		}
		if current, ok := occ.labStart[key]; !ok || entry.Slot < current {
			occ.labStart[key] = entry.Slot
		}
	}
	return occ
}

// TeacherFree reports whether the teacher has nothing at day and slot.
func (o *Occupancy) TeacherFree(day Day, slot Slot, teacherID string) bool {
	return !o.teacherBusy[resourceKey{Day: day, Slot: slot, ID: teacherID}]
}

// RoomFree reports whether the room is unused at day and slot.
func (o *Occupancy) RoomFree(day Day, slot Slot, roomID string) bool {
	return !o.roomBusy[resourceKey{Day: day, Slot: slot, ID: roomID}]
}

// DeptSessions returns how many entries the department runs at day and slot.
func (o *Occupancy) DeptSessions(day Day, slot Slot, deptID string) int {
	if cell := o.deptSessions[resourceKey{Day: day, Slot: slot, ID: deptID}]; cell != nil {
		return cell.count
	}
	return 0
}

// DeptAccepts reports whether another entry of the given type fits under the
// department concurrency cap at day and slot.
func (o *Occupancy) DeptAccepts(day Day, slot Slot, deptID string, t CourseType) bool {
	cell := o.deptSessions[resourceKey{Day: day, Slot: slot, ID: deptID}]
	if cell == nil {
		return true
	}
	if cell.exclusive {
		return false
	}
	return cell.count < DepartmentCapacity(t)
}

// CourseDayCount returns how many slots the course already holds for the department that day.
func (o *Occupancy) CourseDayCount(day Day, deptID, courseID string) int {
	return o.courseDay[courseDayKey{Day: day, DeptID: deptID, CourseID: courseID}]
}

// LabStart returns the start slot of the department's lab block on that day, if any.
func (o *Occupancy) LabStart(day Day, deptID string) (Slot, bool) {
	slot, ok := o.labStart[deptDayKey{Day: day, DeptID: deptID}]
	return slot, ok
}

// MarkLabStart records the department's lab block start for the day.
func (o *Occupancy) MarkLabStart(day Day, deptID string, start Slot) {
	o.labStart[deptDayKey{Day: day, DeptID: deptID}] = start
}

// TeacherLoad returns the number of slot-units claimed by the teacher this week.
func (o *Occupancy) TeacherLoad(teacherID string) int {
	return o.teacherLoad[teacherID]
}

// Admits reports whether entry could sit at day and slot in roomID without a
// teacher, room or department clash. It agrees with CheckMove when the model is
// built from the schedule minus entry.
func (o *Occupancy) Admits(entry Entry, day Day, slot Slot, roomID string) bool {
	if entry.TeacherID != "" && !o.TeacherFree(day, slot, entry.TeacherID) {
		return false
	}
	if !o.RoomFree(day, slot, roomID) {
		return false
	}
	return o.DeptAccepts(day, slot, entry.DeptID, entry.CourseType)
}

// Claim marks every resource used by the entry as busy.
func (o *Occupancy) Claim(entry Entry) {
	if entry.TeacherID != "" {
		o.teacherBusy[resourceKey{Day: entry.Day, Slot: entry.Slot, ID: entry.TeacherID}] = true
		o.teacherLoad[entry.TeacherID]++
	}
	o.roomBusy[resourceKey{Day: entry.Day, Slot: entry.Slot, ID: entry.RoomID}] = true

	deptKey := resourceKey{Day: entry.Day, Slot: entry.Slot, ID: entry.DeptID}
	cell := o.deptSessions[deptKey]
	if cell == nil {
		cell = &deptCell{}
		o.deptSessions[deptKey] = cell
	}
	cell.count++
	if entry.CourseType != Practical {
		cell.exclusive = true
	}

	o.courseDay[courseDayKey{Day: entry.Day, DeptID: entry.DeptID, CourseID: entry.CourseID}]++
}

func isLabStart(slot Slot) bool {
	for _, start := range LabStartSlots {
		if start == slot {
			return true
		}
	}
	return false
}

func skipped(id string, skip []string) bool {
	if id == "" {
		return false
	}
	for _, s := range skip {
		if s == id {
			return true
		}
	}
	return false
}
