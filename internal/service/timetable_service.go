package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/scheduler"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/jobs"
)

// JobTypeGenerate identifies queued generation runs.
const JobTypeGenerate = "timetable.generate"

type timetableCatalogReader interface {
	ListWithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error)
}

type timetableTeacherReader interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type timetableRoomReader interface {
	List(ctx context.Context) ([]models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type timetableStore interface {
	ListDetailed(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableEntryDetail, error)
	FindDetailByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error)
	ReplaceAll(ctx context.Context, entries []models.TimetableEntry) error
	UpdatePlacement(ctx context.Context, id, dayOfWeek string, slot int, teacherID, classroomID string) error
	DeleteAll(ctx context.Context) (int64, error)
	Utilisation(ctx context.Context) (teachers, departments, classrooms []models.ResourceUsage, err error)
}

type generationQueue interface {
	Enqueue(job jobs.Job) error
}

// TimetableConfig tunes generation, moves and background runs.
type TimetableConfig struct {
	Seed            int64
	MaxAttempts     int
	EnforceWorkload bool
	SuggestionLimit int
	JobTTL          time.Duration
}

// TimetableService generates, edits and reports on the weekly timetable.
type TimetableService struct {
	catalog    timetableCatalogReader
	teachers   timetableTeacherReader
	classrooms timetableRoomReader
	entries    timetableStore
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableConfig
	jobs       *generationJobStore
	queue      generationQueue
	newRand    func() *rand.Rand
	now        func() time.Time

	// writeMu serialises operations that rewrite the persisted schedule.
	writeMu sync.Mutex
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	catalog timetableCatalogReader,
	teachers timetableTeacherReader,
	classrooms timetableRoomReader,
	entries timetableStore,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = scheduler.DefaultSuggestionLimit
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	seed := cfg.Seed
	return &TimetableService{
		catalog:    catalog,
		teachers:   teachers,
		classrooms: classrooms,
		entries:    entries,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		jobs:       newGenerationJobStore(cfg.JobTTL),
		newRand:    func() *rand.Rand { return scheduler.NewRand(seed) },
		now:        time.Now,
	}
}

// AttachQueue enables background generation through EnqueueGenerate.
func (s *TimetableService) AttachQueue(queue generationQueue) {
	s.queue = queue
}

// Generate rebuilds the whole timetable and replaces the persisted one atomically.
func (s *TimetableService) Generate(ctx context.Context) (*models.GenerationResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := s.now()
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		s.metrics.ObserveGeneration(GenerationOutcomeError, 0, time.Since(start))
		return nil, err
	}

	reqs := scheduler.ExpandRequirements(snap.Departments)
	if len(reqs) == 0 {
		s.metrics.ObserveGeneration(GenerationOutcomeEmpty, 0, time.Since(start))
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no courses with allocated teachers to schedule")
	}

	generator := scheduler.NewGenerator(s.newRand(), scheduler.Options{EnforceWorkload: s.cfg.EnforceWorkload})
	placed, attempts, err := generator.GenerateWithRetry(ctx, snap, reqs, s.cfg.MaxAttempts)
	if err != nil {
		var unsat *scheduler.UnsatisfiableError
		if errors.As(err, &unsat) {
			s.metrics.ObserveGeneration(GenerationOutcomeUnsatisfiable, attempts, time.Since(start))
			s.logger.Warn("timetable generation failed",
				zap.String("course_id", unsat.Requirement.CourseID),
				zap.String("course", unsat.Requirement.CourseName),
				zap.String("dept_id", unsat.Requirement.DeptID),
				zap.Int("attempts", attempts))
			message := fmt.Sprintf("unable to schedule %s session of course %s", unsat.Requirement.Type, unsat.Requirement.CourseName)
			return nil, appErrors.Wrap(err, appErrors.ErrUnsatisfiable.Code, appErrors.ErrUnsatisfiable.Status, message)
		}
		s.metrics.ObserveGeneration(GenerationOutcomeError, attempts, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation aborted")
	}

	rows := toTimetableEntries(placed)
	if err := s.entries.ReplaceAll(ctx, rows); err != nil {
		s.metrics.ObserveGeneration(GenerationOutcomeError, attempts, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
	}
	s.cache.InvalidateTimetable(ctx)

	duration := time.Since(start)
	s.metrics.ObserveGeneration(GenerationOutcomeSuccess, attempts, duration)
	s.logger.Info("timetable generated",
		zap.Int("requirements", len(reqs)),
		zap.Int("entries", len(rows)),
		zap.Int("attempts", attempts),
		zap.Duration("duration", duration))

	return &models.GenerationResult{
		Requirements: len(reqs),
		Entries:      len(rows),
		Attempts:     attempts,
		DurationMS:   duration.Milliseconds(),
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// EnqueueGenerate schedules a background generation run and returns its job record.
func (s *TimetableService) EnqueueGenerate(ctx context.Context) (*models.GenerationJob, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "background generation is not enabled")
	}
	job := models.GenerationJob{
		ID:       uuid.NewString(),
		Status:   models.GenerationJobQueued,
		QueuedAt: s.now().UTC(),
	}
	s.jobs.Save(job)
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeGenerate}); err != nil {
		s.jobs.Delete(job.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation")
	}
	s.logger.Info("timetable generation queued", zap.String("job_id", job.ID))
	return &job, nil
}

// JobStatus returns a queued or recently finished generation run.
func (s *TimetableService) JobStatus(ctx context.Context, id string) (*models.GenerationJob, error) {
	job, ok := s.jobs.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	return &job, nil
}

// HandleGenerationJob runs a queued generation. Only internal failures are retried.
func (s *TimetableService) HandleGenerationJob(ctx context.Context, job jobs.Job) error {
	s.jobs.Update(job.ID, func(j *models.GenerationJob) {
		j.Status = models.GenerationJobRunning
	})

	result, err := s.Generate(ctx)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrInternal.Code {
			s.jobs.Update(job.ID, func(j *models.GenerationJob) {
				j.Error = err.Error()
			})
			return err
		}
		s.FailGenerationJob(job, err)
		return jobs.Permanent(err)
	}

	finished := s.now().UTC()
	s.jobs.Update(job.ID, func(j *models.GenerationJob) {
		j.Status = models.GenerationJobSucceeded
		j.Result = result
		j.Error = ""
		j.FinishedAt = &finished
	})
	return nil
}

// FailGenerationJob records a run that will not be retried.
func (s *TimetableService) FailGenerationJob(job jobs.Job, err error) {
	finished := s.now().UTC()
	s.jobs.Update(job.ID, func(j *models.GenerationJob) {
		j.Status = models.GenerationJobFailed
		j.Error = appErrors.FromError(err).Message
		j.FinishedAt = &finished
	})
}

// Clear removes every timetable entry.
func (s *TimetableService) Clear(ctx context.Context) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deleted, err := s.entries.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear timetable")
	}
	s.cache.InvalidateTimetable(ctx)
	s.logger.Info("timetable cleared", zap.Int64("deleted", deleted))
	return deleted, nil
}

// List returns timetable entries for the query and whether they came from cache.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableEntryDetail, bool, error) {
	filter := models.TimetableFilter{
		DepartmentID: strings.TrimSpace(query.DepartmentID),
		TeacherID:    strings.TrimSpace(query.TeacherID),
	}
	if query.Day != "" {
		day, err := scheduler.ParseDay(query.Day)
		if err != nil {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "day must be a weekday from Monday to Saturday")
		}
		filter.DayOfWeek = day.String()
	}

	var cached []models.TimetableEntryDetail
	if s.cache.LoadTimetable(ctx, filter, &cached) {
		return cached, true, nil
	}

	entries, err := s.entries.ListDetailed(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	entries = withSlotLabels(entries)
	s.cache.StoreTimetable(ctx, filter, entries)
	return entries, false, nil
}

// MoveEntry relocates one entry after checking it against the persisted schedule.
// A rejected move returns a CONFLICT error wrapping *models.MoveConflictError.
func (s *TimetableService) MoveEntry(ctx context.Context, actor *models.JWTClaims, id string, req dto.MoveEntryRequest) (*models.TimetableEntryDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	day, err := scheduler.ParseDay(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be a weekday from Monday to Saturday")
	}
	slot := scheduler.Slot(*req.Slot)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.entries.FindDetailByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "timetable entry")
	}

	teacherID := current.TeacherID
	if req.TeacherID != "" {
		teacherID = req.TeacherID
	}
	if actor.Role == models.RoleTeacher {
		if actor.TeacherID != current.TeacherID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only move their own sessions")
		}
		if teacherID != current.TeacherID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers cannot reassign a session")
		}
	}
	if teacherID != current.TeacherID {
		if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
			return nil, lookupError(err, "teacher")
		}
	}
	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		return nil, lookupError(err, "classroom")
	}

	details, err := s.entries.ListDetailed(ctx, models.TimetableFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	schedule, err := toEngineEntries(details)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is invalid")
	}
	entry, err := toEngineEntry(*current)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is invalid")
	}
	entry.TeacherID = teacherID

	conflict := scheduler.CheckMove(schedule, entry, scheduler.Candidate{
		Day:       day,
		Slot:      slot,
		TeacherID: teacherID,
		RoomID:    req.ClassroomID,
		DeptID:    current.DepartmentID,
	})
	if conflict.Found() {
		s.metrics.ObserveMove(false)
		suggestions, err := s.suggest(ctx, schedule, entry)
		if err != nil {
			return nil, err
		}
		s.logger.Info("timetable move rejected",
			zap.String("entry_id", id),
			zap.String("kind", string(conflict.Kind)),
			zap.Int("suggestions", len(suggestions)))
		return nil, appErrors.Wrap(&models.MoveConflictError{Reason: conflict.Reason, Suggestions: suggestions},
			appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Reason)
	}

	if err := s.entries.UpdatePlacement(ctx, id, day.String(), int(slot), teacherID, req.ClassroomID); err != nil {
		return nil, lookupError(err, "timetable entry")
	}
	s.cache.InvalidateTimetable(ctx)
	s.metrics.ObserveMove(true)

	updated, err := s.entries.FindDetailByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "timetable entry")
	}
	updated.SlotLabel = scheduler.Slot(updated.Slot).Label()
	s.logger.Info("timetable entry moved", zap.String("entry_id", id), zap.String("day", day.String()), zap.Int("slot", int(slot)))
	return updated, nil
}

func (s *TimetableService) suggest(ctx context.Context, schedule []scheduler.Entry, entry scheduler.Entry) ([]models.MoveSuggestion, error) {
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	found := scheduler.Suggest(s.newRand(), schedule, toEngineRooms(rooms), entry, s.cfg.SuggestionLimit)
	suggestions := make([]models.MoveSuggestion, 0, len(found))
	for _, item := range found {
		suggestions = append(suggestions, models.MoveSuggestion{
			DayOfWeek:     item.Day.String(),
			Slot:          int(item.Slot),
			SlotLabel:     item.Slot.Label(),
			ClassroomID:   item.Room.ID,
			ClassroomName: item.Room.Name,
		})
	}
	return suggestions, nil
}

// Report counts sessions per resource and compares each department's allocated load with the week.
func (s *TimetableService) Report(ctx context.Context) (*models.UtilisationReport, error) {
	teachers, departments, classrooms, err := s.entries.Utilisation(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load utilisation")
	}
	catalog, err := s.catalog.ListWithCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load departments")
	}
	scheduled := make(map[string]int, len(departments))
	for _, usage := range departments {
		scheduled[usage.ID] = usage.Sessions
	}

	density := make([]models.DepartmentDensity, 0, len(catalog))
	for _, dept := range catalog {
		density = append(density, departmentDensity(dept, scheduled[dept.ID]))
	}

	return &models.UtilisationReport{
		Teachers:    teachers,
		Departments: departments,
		Classrooms:  classrooms,
		Density:     density,
	}, nil
}

func departmentDensity(dept models.DepartmentWithCourses, scheduled int) models.DepartmentDensity {
	capacity := scheduler.DaysPerWeek * scheduler.SlotsPerDay
	d := models.DepartmentDensity{
		DepartmentID:   dept.ID,
		DepartmentCode: dept.Code,
		TotalCourses:   len(dept.Courses),
		ScheduledSlots: scheduled,
		WeeklyCapacity: capacity,
	}
	for _, course := range dept.Courses {
		courseType, err := scheduler.ParseCourseType(course.Type)
		if err != nil {
			continue
		}
		if len(course.Allocations) > 0 {
			d.AllocatedCourses++
			d.AllocatedHours += course.HoursPerWeek
		}
		if len(course.Allocations) > 0 || courseType == scheduler.ActivityClass {
			d.RequiredSlots += course.HoursPerWeek * courseType.Duration()
		}
	}
	if d.AllocatedHours < capacity {
		d.Warnings = append(d.Warnings, fmt.Sprintf("Need %d more hours to fill the week.", capacity-d.AllocatedHours))
	}
	if d.RequiredSlots > capacity {
		d.Warnings = append(d.Warnings, fmt.Sprintf("Requires %d slots but the week has %d.", d.RequiredSlots, capacity))
	}
	if scheduled > 0 && scheduled < d.RequiredSlots {
		d.Warnings = append(d.Warnings, fmt.Sprintf("%d slots were not scheduled.", d.RequiredSlots-scheduled))
	}
	return d
}

func (s *TimetableService) loadSnapshot(ctx context.Context) (scheduler.Snapshot, error) {
	catalog, err := s.catalog.ListWithCourses(ctx)
	if err != nil {
		return scheduler.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load departments")
	}
	teachers, err := s.teachers.List(ctx, models.TeacherFilter{})
	if err != nil {
		return scheduler.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.classrooms.List(ctx)
	if err != nil {
		return scheduler.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	snap, err := buildSnapshot(catalog, teachers, rooms)
	if err != nil {
		return scheduler.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "catalog contains an unknown course type")
	}
	return snap, nil
}
