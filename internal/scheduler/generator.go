package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// ErrNoRequirements is returned when there is nothing to schedule.
var ErrNoRequirements = errors.New("no schedulable requirements")

// UnsatisfiableError reports the requirement whose whole domain was exhausted.
type UnsatisfiableError struct {
	Requirement Requirement
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("unable to place %s session of course %s (%s) for department %s",
		e.Requirement.Type, e.Requirement.CourseName, e.Requirement.CourseID, e.Requirement.DeptID)
}

// Options tunes generator behaviour.
type Options struct {
	// EnforceWorkload rejects placements that take a teacher past a positive workload limit.
	EnforceWorkload bool
}

// NewRand returns a random source for the engine. A zero seed is replaced by the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Generator is a randomized first-fit solver without backtracking.
// It is not safe for concurrent use because it owns its random source.
type Generator struct {
	rng  *rand.Rand
	opts Options
}

// NewGenerator builds a generator drawing from rng.
func NewGenerator(rng *rand.Rand, opts Options) *Generator {
	if rng == nil {
		rng = NewRand(0)
	}
	return &Generator{rng: rng, opts: opts}
}

type placement struct {
	day  Day
	slot Slot
}

type generationRun struct {
	snap     Snapshot
	occ      *Occupancy
	entries  []Entry
	teachers map[string]Teacher
}

// Generate places every requirement or fails as a whole. The returned entries have no IDs.
func (g *Generator) Generate(ctx context.Context, snap Snapshot, reqs []Requirement) ([]Entry, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRequirements
	}

	var mainReqs, activityReqs []Requirement
	for _, req := range reqs {
		switch req.Type {
		case Theory, Practical:
			mainReqs = append(mainReqs, req)
		case ActivityClass:
			activityReqs = append(activityReqs, req)
		default:
			panic(fmt.Sprintf("scheduler: unknown course type %d", int(req.Type)))
		}
	}
	sort.SliceStable(mainReqs, func(i, j int) bool {
		return mainReqs[i].Duration > mainReqs[j].Duration
	})

	run := &generationRun{
		snap:     snap,
		occ:      NewOccupancy(),
		entries:  make([]Entry, 0, TotalDuration(reqs)),
		teachers: make(map[string]Teacher, len(snap.Teachers)),
	}
	for _, teacher := range snap.Teachers {
		run.teachers[teacher.ID] = teacher
	}

	for _, req := range mainReqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !g.placeMain(run, req) {
			return nil, &UnsatisfiableError{Requirement: req}
		}
	}
	for _, req := range activityReqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !g.placeActivity(run, req) {
			return nil, &UnsatisfiableError{Requirement: req}
		}
	}
	return run.entries, nil
}

// GenerateWithRetry reruns Generate with fresh shuffles while the failure is
// Unsatisfiable. It returns the number of attempts made.
func (g *Generator) GenerateWithRetry(ctx context.Context, snap Snapshot, reqs []Requirement, attempts int) ([]Entry, int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		entries, err := g.Generate(ctx, snap, reqs)
		if err == nil {
			return entries, attempt, nil
		}
		var unsat *UnsatisfiableError
		if !errors.As(err, &unsat) {
			return nil, attempt, err
		}
		lastErr = err
	}
	return nil, attempts, lastErr
}

func (g *Generator) mainDomain(req Requirement) []placement {
	if req.Type == Practical {
		domain := make([]placement, 0, DaysPerWeek*len(LabStartSlots))
		for _, day := range Days() {
			for _, start := range LabStartSlots {
				domain = append(domain, placement{day: day, slot: start})
			}
		}
		shuffle(g.rng, domain)
		return domain
	}

	early := make([]placement, 0, DaysPerWeek*(SlotsPerDay-1))
	for _, day := range Days() {
		for slot := Slot(0); slot < ActivitySlot; slot++ {
			early = append(early, placement{day: day, slot: slot})
		}
	}
	shuffle(g.rng, early)

	late := make([]placement, 0, DaysPerWeek)
	for _, day := range Days() {
		late = append(late, placement{day: day, slot: ActivitySlot})
	}
	shuffle(g.rng, late)

	return append(early, late...)
}

func (g *Generator) placeMain(run *generationRun, req Requirement) bool {
	for _, cand := range g.mainDomain(req) {
		if req.Type == Practical {
			if start, ok := run.occ.LabStart(cand.day, req.DeptID); ok && start != cand.slot {
				continue
			}
		} else if run.occ.CourseDayCount(cand.day, req.DeptID, req.CourseID) >= 2 {
			continue
		}

		last := int(cand.slot) + req.Duration - 1
		if last >= SlotsPerDay {
			continue
		}
		if !g.withinWorkload(run, req.TeacherID, req.Duration) {
			continue
		}
		if !g.rangeOpen(run, req, cand) {
			continue
		}

		room, ok := g.pickRoom(run, req.Type, cand.day, cand.slot, req.Duration)
		if !ok {
			continue
		}

		for offset := 0; offset < req.Duration; offset++ {
			g.commit(run, req, req.TeacherID, room, cand.day, cand.slot+Slot(offset))
		}
		if req.Type == Practical {
			run.occ.MarkLabStart(cand.day, req.DeptID, cand.slot)
		}
		return true
	}
	return false
}

func (g *Generator) rangeOpen(run *generationRun, req Requirement, cand placement) bool {
	for offset := 0; offset < req.Duration; offset++ {
		slot := cand.slot + Slot(offset)
		if !run.occ.TeacherFree(cand.day, slot, req.TeacherID) {
			return false
		}
		if !run.occ.DeptAccepts(cand.day, slot, req.DeptID, req.Type) {
			return false
		}
	}
	return true
}

func (g *Generator) pickRoom(run *generationRun, t CourseType, day Day, start Slot, duration int) (Room, bool) {
	candidates := make([]Room, 0, len(run.snap.Rooms))
	for _, room := range run.snap.Rooms {
		if room.Type.Serves(t) {
			candidates = append(candidates, room)
		}
	}
	shuffle(g.rng, candidates)

	for _, room := range candidates {
		free := true
		for offset := 0; offset < duration; offset++ {
			if !run.occ.RoomFree(day, start+Slot(offset), room.ID) {
				free = false
				break
			}
		}
		if free {
			return room, true
		}
	}
	return Room{}, false
}

func (g *Generator) placeActivity(run *generationRun, req Requirement) bool {
	days := Days()
	shuffle(g.rng, days)

	for _, day := range days {
		teacherID := g.activityTeacher(run, req.DeptID, day)
		if teacherID == "" {
			continue
		}
		if !run.occ.TeacherFree(day, ActivitySlot, teacherID) {
			continue
		}
		if run.occ.DeptSessions(day, ActivitySlot, req.DeptID) >= 1 {
			continue
		}
		room, ok := g.pickRoom(run, ActivityClass, day, ActivitySlot, 1)
		if !ok {
			continue
		}
		g.commit(run, req, teacherID, room, day, ActivitySlot)
		return true
	}
	return false
}

// activityTeacher prefers whoever teaches the department in period 6 that day,
// falling back to any free teacher of the department.
func (g *Generator) activityTeacher(run *generationRun, deptID string, day Day) string {
	for _, entry := range run.entries {
		if entry.Day == day && entry.Slot == AnchorSlot && entry.DeptID == deptID {
			if entry.TeacherID != "" && run.occ.TeacherFree(day, ActivitySlot, entry.TeacherID) && g.withinWorkload(run, entry.TeacherID, 1) {
				return entry.TeacherID
			}
			break
		}
	}

	pool := make([]Teacher, 0)
	for _, teacher := range run.snap.Teachers {
		if teacher.DeptID == deptID {
			pool = append(pool, teacher)
		}
	}
	shuffle(g.rng, pool)
	for _, teacher := range pool {
		if run.occ.TeacherFree(day, ActivitySlot, teacher.ID) && g.withinWorkload(run, teacher.ID, 1) {
			return teacher.ID
		}
	}
	return ""
}

func (g *Generator) withinWorkload(run *generationRun, teacherID string, units int) bool {
	if !g.opts.EnforceWorkload || teacherID == "" {
		return true
	}
	teacher, ok := run.teachers[teacherID]
	if !ok || teacher.WorkloadLimit <= 0 {
		return true
	}
	return run.occ.TeacherLoad(teacherID)+units <= teacher.WorkloadLimit
}

func (g *Generator) commit(run *generationRun, req Requirement, teacherID string, room Room, day Day, slot Slot) {
	entry := Entry{
		Day:        day,
		Slot:       slot,
		DeptID:     req.DeptID,
		CourseID:   req.CourseID,
		TeacherID:  teacherID,
		RoomID:     room.ID,
		CourseType: req.Type,
		CourseName: req.CourseName,
		RoomName:   room.Name,
	}
	if teacher, ok := run.teachers[teacherID]; ok {
		entry.TeacherName = teacher.Name
	}
	run.occ.Claim(entry)
	run.entries = append(run.entries, entry)
}

func shuffle[T any](rng *rand.Rand, items []T) {
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}
