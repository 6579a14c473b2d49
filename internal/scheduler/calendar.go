package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Day indexes the teaching week, Monday = 0 through Saturday = 5.
type Day int

// Slot indexes the fixed periods of a teaching day, 0 through 6.
type Slot int

const (
	DaysPerWeek = 6
	SlotsPerDay = 7

	// LabBlockLength is the number of contiguous slots a Practical session occupies.
	LabBlockLength = 3
	// AnchorSlot is period 6, whose instructor is preferred for the activity period.
	AnchorSlot Slot = 5
	// ActivitySlot is period 7, reserved for activity classes.
	ActivitySlot Slot = 6
)

// LabStartSlots lists the only slots a lab block may start at.
var LabStartSlots = []Slot{1, 4}

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var slotLabels = [SlotsPerDay]string{
	"10:00-10:50",
	"10:50-11:40",
	"11:40-12:30",
	"12:30-01:20",
	"02:00-02:50",
	"02:50-03:40",
	"03:40-04:30",
}

// Days returns all teaching days in calendar order.
func Days() []Day {
	days := make([]Day, DaysPerWeek)
	for i := range days {
		days[i] = Day(i)
	}
	return days
}

// Slots returns all slots in period order.
func Slots() []Slot {
	slots := make([]Slot, SlotsPerDay)
	for i := range slots {
		slots[i] = Slot(i)
	}
	return slots
}

// Valid reports whether the day is inside the teaching week.
func (d Day) Valid() bool {
	return d >= 0 && d < DaysPerWeek
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Valid reports whether the slot is one of the fixed periods.
func (s Slot) Valid() bool {
	return s >= 0 && s < SlotsPerDay
}

// Label returns the clock range of the slot.
func (s Slot) Label() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotLabels[s]
}

// Period is the 1-based period number shown to users.
func (s Slot) Period() int {
	return int(s) + 1
}

// ParseDay resolves a case-insensitive weekday name.
func ParseDay(raw string) (Day, error) {
	name := strings.TrimSpace(raw)
	for i, candidate := range dayNames {
		if strings.EqualFold(candidate, name) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", raw)
}

// DayFromWeekday maps a calendar weekday onto the teaching week.
// Sunday has no classes and reports false.
func DayFromWeekday(w time.Weekday) (Day, bool) {
	if w == time.Sunday {
		return 0, false
	}
	return Day(int(w) - 1), true
}
