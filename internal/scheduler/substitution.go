package scheduler

import "math/rand"

// BusySubstitute records a teacher already covering a slot on the leave date.
type BusySubstitute struct {
	Slot      Slot
	TeacherID string
}

// SubstitutionInput is everything the assigner needs for one approved leave.
type SubstitutionInput struct {
	LeaveTeacherID string
	// Affected are the leave teacher's entries on the weekday.
	Affected []Entry
	// DayEntries are all entries on the weekday, for every department.
	DayEntries []Entry
	// Covering lists substitutes already recorded for approved leaves on the same date.
	Covering []BusySubstitute
	// OnLeave are teachers with an approved leave on the same date.
	OnLeave  []string
	Teachers []Teacher
}

// Assignment pairs an affected entry with its substitute.
type Assignment struct {
	Entry      Entry
	Substitute Teacher
}

// SubstitutionResult splits the affected entries into covered and uncovered.
type SubstitutionResult struct {
	Assignments []Assignment
	Uncovered   []Entry
}

// AssignSubstitutes picks a random eligible teacher for every affected entry.
// A teacher picked for a slot in this run is not picked again for the same slot.
func AssignSubstitutes(rng *rand.Rand, in SubstitutionInput) SubstitutionResult {
	if rng == nil {
		rng = NewRand(0)
	}

	busyAt := make(map[Slot]map[string]struct{})
	markBusy := func(slot Slot, teacherID string) {
		if teacherID == "" {
			return
		}
		set, ok := busyAt[slot]
		if !ok {
			set = make(map[string]struct{})
			busyAt[slot] = set
		}
		set[teacherID] = struct{}{}
	}
	for _, e := range in.DayEntries {
		markBusy(e.Slot, e.TeacherID)
	}
	for _, c := range in.Covering {
		markBusy(c.Slot, c.TeacherID)
	}

	away := make(map[string]struct{}, len(in.OnLeave)+1)
	for _, id := range in.OnLeave {
		away[id] = struct{}{}
	}
	away[in.LeaveTeacherID] = struct{}{}

	var result SubstitutionResult
	for _, entry := range in.Affected {
		busy := busyAt[entry.Slot]
		eligible := make([]Teacher, 0, len(in.Teachers))
		for _, teacher := range in.Teachers {
			if _, skip := away[teacher.ID]; skip {
				continue
			}
			if _, skip := busy[teacher.ID]; skip {
				continue
			}
			eligible = append(eligible, teacher)
		}
		if len(eligible) == 0 {
			result.Uncovered = append(result.Uncovered, entry)
			continue
		}
		pick := eligible[rng.Intn(len(eligible))]
		markBusy(entry.Slot, pick.ID)
		result.Assignments = append(result.Assignments, Assignment{Entry: entry, Substitute: pick})
	}
	return result
}
