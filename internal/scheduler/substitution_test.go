package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func substitutionTeachers() []Teacher {
	return []Teacher{
		{ID: "away", Name: "Away"},
		{ID: "busy", Name: "Busy"},
		{ID: "leave", Name: "On Leave"},
		{ID: "covering", Name: "Covering"},
		{ID: "free", Name: "Free"},
	}
}

func TestAssignSubstitutesHonoursExclusions(t *testing.T) {
	affected := []Entry{
		{ID: "e1", Day: 1, Slot: 0, DeptID: "cse", TeacherID: "away", RoomID: "r1"},
	}
	in := SubstitutionInput{
		LeaveTeacherID: "away",
		Affected:       affected,
		DayEntries: append([]Entry{
			{ID: "e2", Day: 1, Slot: 0, DeptID: "ece", TeacherID: "busy", RoomID: "r2"},
		}, affected...),
		Covering: []BusySubstitute{{Slot: 0, TeacherID: "covering"}},
		OnLeave:  []string{"leave"},
		Teachers: substitutionTeachers(),
	}

	for seed := int64(1); seed <= 20; seed++ {
		result := AssignSubstitutes(NewRand(seed), in)
		require.Len(t, result.Assignments, 1)
		assert.Empty(t, result.Uncovered)
		assert.Equal(t, "free", result.Assignments[0].Substitute.ID)
		assert.Equal(t, "e1", result.Assignments[0].Entry.ID)
	}
}

func TestAssignSubstitutesReportsUncovered(t *testing.T) {
	teachers := substitutionTeachers()[:4]
	in := SubstitutionInput{
		LeaveTeacherID: "away",
		Affected:       []Entry{{ID: "e1", Slot: 0, TeacherID: "away"}},
		DayEntries:     []Entry{{ID: "e2", Slot: 0, TeacherID: "busy"}},
		Covering:       []BusySubstitute{{Slot: 0, TeacherID: "covering"}},
		OnLeave:        []string{"leave"},
		Teachers:       teachers,
	}

	result := AssignSubstitutes(NewRand(1), in)
	assert.Empty(t, result.Assignments)
	require.Len(t, result.Uncovered, 1)
	assert.Equal(t, "e1", result.Uncovered[0].ID)
}

func TestAssignSubstitutesOnlyBlocksSameSlot(t *testing.T) {
	in := SubstitutionInput{
		LeaveTeacherID: "away",
		Affected: []Entry{
			{ID: "e1", Slot: 0, TeacherID: "away"},
			{ID: "e2", Slot: 3, TeacherID: "away"},
		},
		Covering: []BusySubstitute{{Slot: 0, TeacherID: "free"}},
		Teachers: []Teacher{{ID: "away"}, {ID: "free"}},
	}

	result := AssignSubstitutes(NewRand(4), in)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "e2", result.Assignments[0].Entry.ID)
	assert.Equal(t, "free", result.Assignments[0].Substitute.ID)
	require.Len(t, result.Uncovered, 1)
	assert.Equal(t, "e1", result.Uncovered[0].ID)
}

func TestAssignSubstitutesNeverDoubleBooksWithinRun(t *testing.T) {
	// Two affected entries at one slot can only come from inconsistent data,
	// but a substitute must still not be used twice.
	in := SubstitutionInput{
		LeaveTeacherID: "away",
		Affected: []Entry{
			{ID: "e1", Slot: 2, TeacherID: "away"},
			{ID: "e2", Slot: 2, TeacherID: "away"},
		},
		Teachers: []Teacher{{ID: "away"}, {ID: "a"}, {ID: "b"}},
	}

	for seed := int64(1); seed <= 20; seed++ {
		result := AssignSubstitutes(NewRand(seed), in)
		require.Len(t, result.Assignments, 2)
		assert.NotEqual(t, result.Assignments[0].Substitute.ID, result.Assignments[1].Substitute.ID)
	}
}
