package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/scheduler"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/jobs"
)

type stubCatalogReader struct {
	departments []models.DepartmentWithCourses
	err         error
}

func (s *stubCatalogReader) ListWithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error) {
	return s.departments, s.err
}

type stubTeacherReader struct {
	items []models.Teacher
}

func (s *stubTeacherReader) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	return s.items, nil
}

func (s *stubTeacherReader) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for _, teacher := range s.items {
		if teacher.ID == id {
			cp := teacher
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubRoomReader struct {
	items []models.Classroom
}

func (s *stubRoomReader) List(ctx context.Context) ([]models.Classroom, error) {
	return s.items, nil
}

func (s *stubRoomReader) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	for _, room := range s.items {
		if room.ID == id {
			cp := room
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// memoryTimetableStore keeps entries in memory and joins names from the fixture catalog.
type memoryTimetableStore struct {
	mu         sync.Mutex
	entries    []models.TimetableEntry
	catalog    *stubCatalogReader
	teachers   *stubTeacherReader
	rooms      *stubRoomReader
	replaceErr error
	nextID     int
	listCalls  int
}

func (m *memoryTimetableStore) detail(entry models.TimetableEntry) models.TimetableEntryDetail {
	d := models.TimetableEntryDetail{TimetableEntry: entry}
	for _, dept := range m.catalog.departments {
		if dept.ID == entry.DepartmentID {
			d.DepartmentCode = dept.Code
		}
		for _, course := range dept.Courses {
			if course.ID == entry.CourseID {
				d.CourseName = course.Name
				d.CourseType = course.Type
			}
		}
	}
	for _, teacher := range m.teachers.items {
		if teacher.ID == entry.TeacherID {
			d.TeacherName = teacher.Name
		}
	}
	for _, room := range m.rooms.items {
		if room.ID == entry.ClassroomID {
			d.ClassroomName = room.Name
			d.ClassroomType = room.Type
		}
	}
	return d
}

func (m *memoryTimetableStore) ListDetailed(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var result []models.TimetableEntryDetail
	for _, entry := range m.entries {
		if filter.DepartmentID != "" && entry.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.TeacherID != "" && entry.TeacherID != filter.TeacherID {
			continue
		}
		if filter.DayOfWeek != "" && entry.DayOfWeek != filter.DayOfWeek {
			continue
		}
		result = append(result, m.detail(entry))
	}
	return result, nil
}

func (m *memoryTimetableStore) FindDetailByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if entry.ID == id {
			d := m.detail(entry)
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryTimetableStore) ReplaceAll(ctx context.Context, entries []models.TimetableEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	for i := range entries {
		if entries[i].ID == "" {
			m.nextID++
			entries[i].ID = fmt.Sprintf("gen-%d", m.nextID)
		}
	}
	m.entries = append([]models.TimetableEntry(nil), entries...)
	return nil
}

func (m *memoryTimetableStore) UpdatePlacement(ctx context.Context, id, dayOfWeek string, slot int, teacherID, classroomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].DayOfWeek = dayOfWeek
			m.entries[i].Slot = slot
			m.entries[i].TeacherID = teacherID
			m.entries[i].ClassroomID = classroomID
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryTimetableStore) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.entries))
	m.entries = nil
	return n, nil
}

func (m *memoryTimetableStore) Utilisation(ctx context.Context) (teachers, departments, classrooms []models.ResourceUsage, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := func(match func(models.TimetableEntry) bool) int {
		n := 0
		for _, entry := range m.entries {
			if match(entry) {
				n++
			}
		}
		return n
	}
	for _, teacher := range m.teachers.items {
		id := teacher.ID
		teachers = append(teachers, models.ResourceUsage{ID: id, Name: teacher.Name, Sessions: count(func(e models.TimetableEntry) bool { return e.TeacherID == id })})
	}
	for _, dept := range m.catalog.departments {
		id := dept.ID
		departments = append(departments, models.ResourceUsage{ID: id, Name: dept.Name, Sessions: count(func(e models.TimetableEntry) bool { return e.DepartmentID == id })})
	}
	for _, room := range m.rooms.items {
		id := room.ID
		classrooms = append(classrooms, models.ResourceUsage{ID: id, Name: room.Name, Sessions: count(func(e models.TimetableEntry) bool { return e.ClassroomID == id })})
	}
	return teachers, departments, classrooms, nil
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.items == nil {
		m.items = make(map[string][]byte)
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type timetableFixture struct {
	svc      *TimetableService
	store    *memoryTimetableStore
	catalog  *stubCatalogReader
	teachers *stubTeacherReader
	rooms    *stubRoomReader
	cache    *memoryCacheRepo
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	cse := "cse"
	now := time.Now()
	catalog := &stubCatalogReader{departments: []models.DepartmentWithCourses{{
		Department: models.Department{ID: "cse", Name: "Computer Science", Code: "CSE"},
		Courses: []models.CourseWithAllocations{
			{
				Course:      models.Course{ID: "cs101", Name: "Programming", Code: "CS101", DepartmentID: "cse", Type: models.CourseTypeTheory, HoursPerWeek: 2},
				Allocations: []models.Allocation{{ID: "a1", CourseID: "cs101", TeacherID: "smith", CreatedAt: now}},
			},
			{
				Course:      models.Course{ID: "cs101l", Name: "Programming Lab", Code: "CS101L", DepartmentID: "cse", Type: models.CourseTypePractical, HoursPerWeek: 1},
				Allocations: []models.Allocation{{ID: "a2", CourseID: "cs101l", TeacherID: "smith", CreatedAt: now}},
			},
		},
	}}}
	teachers := &stubTeacherReader{items: []models.Teacher{
		{ID: "smith", Name: "Dr. Smith", DepartmentID: &cse, WorkloadLimit: 20},
		{ID: "jones", Name: "Dr. Jones", DepartmentID: &cse, WorkloadLimit: 20},
	}}
	rooms := &stubRoomReader{items: []models.Classroom{
		{ID: "room-101", Name: "Room 101", Capacity: 60, Type: models.RoomTypeClassroom},
		{ID: "room-102", Name: "Room 102", Capacity: 60, Type: models.RoomTypeClassroom},
		{ID: "lab-1", Name: "Lab 1", Capacity: 30, Type: models.RoomTypeLab},
	}}
	store := &memoryTimetableStore{catalog: catalog, teachers: teachers, rooms: rooms}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)

	svc := NewTimetableService(catalog, teachers, rooms, store, cache, NewMetricsService(), nil, zap.NewNop(), TimetableConfig{Seed: 42})
	return &timetableFixture{svc: svc, store: store, catalog: catalog, teachers: teachers, rooms: rooms, cache: cacheRepo}
}

func intPtr(v int) *int { return &v }

func TestTimetableServiceGenerate(t *testing.T) {
	f := newTimetableFixture(t)

	result, err := f.svc.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Requirements)
	assert.Equal(t, 5, result.Entries)
	assert.Equal(t, 1, result.Attempts)
	require.Len(t, f.store.entries, 5)

	var labSlots []int
	for _, entry := range f.store.entries {
		if entry.CourseID == "cs101l" {
			assert.Equal(t, "lab-1", entry.ClassroomID)
			labSlots = append(labSlots, entry.Slot)
		}
	}
	sort.Ints(labSlots)
	require.Len(t, labSlots, 3)
	assert.Contains(t, []int{1, 4}, labSlots[0])
	assert.Equal(t, []int{labSlots[0], labSlots[0] + 1, labSlots[0] + 2}, labSlots)
}

func TestTimetableServiceGenerateEmptyCatalog(t *testing.T) {
	f := newTimetableFixture(t)
	f.catalog.departments[0].Courses[0].Allocations = nil
	f.catalog.departments[0].Courses[1].Allocations = nil
	f.store.entries = []models.TimetableEntry{{ID: "keep"}}

	_, err := f.svc.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Len(t, f.store.entries, 1)
}

func TestTimetableServiceGenerateUnsatisfiableKeepsSchedule(t *testing.T) {
	f := newTimetableFixture(t)
	f.rooms.items = f.rooms.items[:2]
	f.store.entries = []models.TimetableEntry{{ID: "keep"}}

	_, err := f.svc.Generate(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnsatisfiable.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Contains(t, appErr.Message, "Programming Lab")
	var unsat *scheduler.UnsatisfiableError
	assert.True(t, errors.As(err, &unsat))
	assert.Len(t, f.store.entries, 1)
}

func TestTimetableServiceGeneratePersistFailure(t *testing.T) {
	f := newTimetableFixture(t)
	f.store.replaceErr = errors.New("connection reset")

	_, err := f.svc.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func seedMoveSchedule(f *timetableFixture) {
	f.store.entries = []models.TimetableEntry{
		{ID: "e1", DayOfWeek: "Monday", Slot: 0, DepartmentID: "cse", CourseID: "cs101", TeacherID: "smith", ClassroomID: "room-101"},
		{ID: "e2", DayOfWeek: "Monday", Slot: 1, DepartmentID: "cse", CourseID: "cs101", TeacherID: "smith", ClassroomID: "room-101"},
	}
}

func TestTimetableServiceMoveConflictReturnsSuggestions(t *testing.T) {
	f := newTimetableFixture(t)
	seedMoveSchedule(f)
	admin := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}

	_, err := f.svc.MoveEntry(context.Background(), admin, "e2", dto.MoveEntryRequest{DayOfWeek: "monday", Slot: intPtr(0), ClassroomID: "room-102"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "Teacher Dr. Smith is already teaching Programming in Room Room 101.", appErr.Message)

	var conflict *models.MoveConflictError
	require.True(t, errors.As(err, &conflict))
	require.NotEmpty(t, conflict.Suggestions)
	assert.LessOrEqual(t, len(conflict.Suggestions), scheduler.DefaultSuggestionLimit)
	for _, s := range conflict.Suggestions {
		assert.False(t, s.DayOfWeek == "Monday" && s.Slot == 1, "current cell suggested")
		assert.False(t, s.DayOfWeek == "Monday" && s.Slot == 0, "busy cell suggested")
	}

	stored, err := f.store.FindDetailByID(context.Background(), "e2")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Slot)
}

func TestTimetableServiceMoveApplies(t *testing.T) {
	f := newTimetableFixture(t)
	seedMoveSchedule(f)
	teacher := &models.JWTClaims{UserID: "u-smith", Role: models.RoleTeacher, TeacherID: "smith"}

	updated, err := f.svc.MoveEntry(context.Background(), teacher, "e2", dto.MoveEntryRequest{DayOfWeek: "Tuesday", Slot: intPtr(3), ClassroomID: "room-102"})
	require.NoError(t, err)
	assert.Equal(t, "Tuesday", updated.DayOfWeek)
	assert.Equal(t, 3, updated.Slot)
	assert.Equal(t, "room-102", updated.ClassroomID)
	assert.Equal(t, scheduler.Slot(3).Label(), updated.SlotLabel)
}

func TestTimetableServiceMoveRules(t *testing.T) {
	f := newTimetableFixture(t)
	seedMoveSchedule(f)
	ctx := context.Background()
	req := dto.MoveEntryRequest{DayOfWeek: "Tuesday", Slot: intPtr(3), ClassroomID: "room-102"}

	other := &models.JWTClaims{Role: models.RoleTeacher, TeacherID: "jones"}
	_, err := f.svc.MoveEntry(ctx, other, "e2", req)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	owner := &models.JWTClaims{Role: models.RoleTeacher, TeacherID: "smith"}
	reassign := req
	reassign.TeacherID = "jones"
	_, err = f.svc.MoveEntry(ctx, owner, "e2", reassign)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := &models.JWTClaims{Role: models.RoleAdmin}
	_, err = f.svc.MoveEntry(ctx, admin, "missing", req)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.MoveEntry(ctx, admin, "e2", dto.MoveEntryRequest{DayOfWeek: "Sunday", Slot: intPtr(0), ClassroomID: "room-102"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.MoveEntry(ctx, admin, "e2", dto.MoveEntryRequest{DayOfWeek: "Monday", Slot: intPtr(7), ClassroomID: "room-102"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.MoveEntry(ctx, nil, "e2", req)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceListUsesCache(t *testing.T) {
	f := newTimetableFixture(t)
	seedMoveSchedule(f)
	ctx := context.Background()

	entries, hit, err := f.svc.List(ctx, dto.TimetableQuery{DepartmentID: "cse", Day: "monday"})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, entries, 2)
	assert.Equal(t, "10:00-10:50", entries[0].SlotLabel)

	entries, hit, err = f.svc.List(ctx, dto.TimetableQuery{DepartmentID: "cse", Day: "Monday"})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, f.store.listCalls)

	_, err = f.svc.Clear(ctx)
	require.NoError(t, err)
	entries, hit, err = f.svc.List(ctx, dto.TimetableQuery{DepartmentID: "cse", Day: "Monday"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, entries)

	_, _, err = f.svc.List(ctx, dto.TimetableQuery{Day: "Funday"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceReportDensity(t *testing.T) {
	f := newTimetableFixture(t)
	_, err := f.svc.Generate(context.Background())
	require.NoError(t, err)

	report, err := f.svc.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Density, 1)
	density := report.Density[0]
	assert.Equal(t, 2, density.AllocatedCourses)
	assert.Equal(t, 3, density.AllocatedHours)
	assert.Equal(t, 5, density.RequiredSlots)
	assert.Equal(t, 5, density.ScheduledSlots)
	assert.Equal(t, 42, density.WeeklyCapacity)
	assert.Equal(t, []string{"Need 39 more hours to fill the week."}, density.Warnings)

	require.Len(t, report.Teachers, 2)
	assert.Equal(t, 5, report.Teachers[0].Sessions)
}

func TestTimetableServiceBackgroundGeneration(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()

	_, err := f.svc.EnqueueGenerate(ctx)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	queue := &recordingQueue{}
	f.svc.AttachQueue(queue)
	job, err := f.svc.EnqueueGenerate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobQueued, job.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeGenerate, queue.jobs[0].Type)

	require.NoError(t, f.svc.HandleGenerationJob(ctx, queue.jobs[0]))
	status, err := f.svc.JobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobSucceeded, status.Status)
	require.NotNil(t, status.Result)
	assert.Equal(t, 5, status.Result.Entries)
	assert.NotNil(t, status.FinishedAt)

	_, err = f.svc.JobStatus(ctx, "unknown")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceBackgroundGenerationFailure(t *testing.T) {
	f := newTimetableFixture(t)
	f.rooms.items = f.rooms.items[:2]
	queue := &recordingQueue{}
	f.svc.AttachQueue(queue)
	ctx := context.Background()

	job, err := f.svc.EnqueueGenerate(ctx)
	require.NoError(t, err)

	err = f.svc.HandleGenerationJob(ctx, queue.jobs[0])
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))

	status, err := f.svc.JobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobFailed, status.Status)
	assert.Contains(t, status.Error, "Programming Lab")
}

func TestTimetableServiceSeededRunsAreReproducible(t *testing.T) {
	first := newTimetableFixture(t)
	second := newTimetableFixture(t)
	_, err := first.svc.Generate(context.Background())
	require.NoError(t, err)
	_, err = second.svc.Generate(context.Background())
	require.NoError(t, err)

	strip := func(entries []models.TimetableEntry) []models.TimetableEntry {
		out := make([]models.TimetableEntry, len(entries))
		for i, e := range entries {
			e.ID = ""
			out[i] = e
		}
		return out
	}
	assert.Equal(t, strip(first.store.entries), strip(second.store.entries))
}
