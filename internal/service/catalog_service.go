package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

type departmentStore interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ExistsByCode(ctx context.Context, code, name string) (bool, error)
	Create(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
}

type teacherStore interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type classroomStore interface {
	List(ctx context.Context) ([]models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, room *models.Classroom) error
	Delete(ctx context.Context, id string) error
}

type courseStore interface {
	List(ctx context.Context, departmentID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type allocationStore interface {
	List(ctx context.Context, courseID string) ([]models.AllocationDetail, error)
	Exists(ctx context.Context, courseID, teacherID string) (bool, error)
	Create(ctx context.Context, allocation *models.Allocation) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages the entities the timetable is generated from.
type CatalogService struct {
	departments departmentStore
	teachers    teacherStore
	classrooms  classroomStore
	courses     courseStore
	allocations allocationStore
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(
	departments departmentStore,
	teachers teacherStore,
	classrooms classroomStore,
	courses courseStore,
	allocations allocationStore,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		departments: departments,
		teachers:    teachers,
		classrooms:  classrooms,
		courses:     courses,
		allocations: allocations,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// ListDepartments returns all departments.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	items, err := s.departments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return items, nil
}

// CreateDepartment registers a department with a unique code and name.
func (s *CatalogService) CreateDepartment(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.departments.ExistsByCode(ctx, code, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "department code or name already exists")
	}

	department := &models.Department{Name: name, Code: code}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, appErrors.FromStore(err, "department", "create")
	}
	return department, nil
}

// DeleteDepartment removes a department with its courses, allocations and entries.
func (s *CatalogService) DeleteDepartment(ctx context.Context, id string) error {
	return s.delete(ctx, "department", id, s.departments.Delete)
}

// ListTeachers returns teachers matching the query.
func (s *CatalogService) ListTeachers(ctx context.Context, query dto.TeacherQuery) ([]models.Teacher, error) {
	items, err := s.teachers.List(ctx, models.TeacherFilter{DepartmentID: query.DepartmentID, Search: strings.TrimSpace(query.Search)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return items, nil
}

// CreateTeacher registers an instructor, optionally in a department.
func (s *CatalogService) CreateTeacher(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{Name: strings.TrimSpace(req.Name), WorkloadLimit: req.WorkloadLimit}
	if req.Email != nil {
		email := *req.Email
		exists, err := s.teachers.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		teacher.Email = &email
	}
	if req.DepartmentID != nil && *req.DepartmentID != "" {
		if err := s.ensureDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		deptID := *req.DepartmentID
		teacher.DepartmentID = &deptID
	}

	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.FromStore(err, "teacher", "create")
	}
	return teacher, nil
}

// DeleteTeacher removes a teacher together with their allocations and entries.
func (s *CatalogService) DeleteTeacher(ctx context.Context, id string) error {
	return s.delete(ctx, "teacher", id, s.teachers.Delete)
}

// ListClassrooms returns all rooms.
func (s *CatalogService) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	items, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return items, nil
}

// CreateClassroom registers a classroom or lab.
func (s *CatalogService) CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	room := &models.Classroom{Name: strings.TrimSpace(req.Name), Capacity: req.Capacity, Type: req.Type}
	if err := s.classrooms.Create(ctx, room); err != nil {
		return nil, appErrors.FromStore(err, "classroom", "create")
	}
	return room, nil
}

// DeleteClassroom removes a room and the entries booked in it.
func (s *CatalogService) DeleteClassroom(ctx context.Context, id string) error {
	return s.delete(ctx, "classroom", id, s.classrooms.Delete)
}

// ListCourses returns courses, optionally limited to a department.
func (s *CatalogService) ListCourses(ctx context.Context, query dto.CourseQuery) ([]models.Course, error) {
	items, err := s.courses.List(ctx, query.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return items, nil
}

// CreateCourse registers a course under an existing department.
func (s *CatalogService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.courses.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	course := &models.Course{
		Name:         strings.TrimSpace(req.Name),
		Code:         code,
		DepartmentID: req.DepartmentID,
		Type:         req.Type,
		HoursPerWeek: req.HoursPerWeek,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.FromStore(err, "course", "create")
	}
	return course, nil
}

// DeleteCourse removes a course with its allocations and entries.
func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	return s.delete(ctx, "course", id, s.courses.Delete)
}

// ListAllocations returns allocations, optionally for one course.
func (s *CatalogService) ListAllocations(ctx context.Context, query dto.AllocationQuery) ([]models.AllocationDetail, error) {
	items, err := s.allocations.List(ctx, query.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}
	return items, nil
}

// CreateAllocation assigns a teacher to a course once.
func (s *CatalogService) CreateAllocation(ctx context.Context, req dto.CreateAllocationRequest) (*models.Allocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return nil, lookupError(err, "course")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, lookupError(err, "teacher")
	}
	exists, err := s.allocations.Exists(ctx, req.CourseID, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check allocation")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already allocated to course")
	}

	allocation := &models.Allocation{CourseID: req.CourseID, TeacherID: req.TeacherID}
	if err := s.allocations.Create(ctx, allocation); err != nil {
		return nil, appErrors.FromStore(err, "allocation", "create")
	}
	return allocation, nil
}

// DeleteAllocation removes one allocation. Existing entries are kept until the next generation.
func (s *CatalogService) DeleteAllocation(ctx context.Context, id string) error {
	if err := s.allocations.Delete(ctx, id); err != nil {
		return lookupError(err, "allocation")
	}
	return nil
}

func (s *CatalogService) ensureDepartment(ctx context.Context, id string) error {
	if _, err := s.departments.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return nil
}

// delete runs a cascading delete and drops cached timetable views, since entries may have gone with it.
func (s *CatalogService) delete(ctx context.Context, resource, id string, fn func(context.Context, string) error) error {
	if err := fn(ctx, id); err != nil {
		return lookupError(err, resource)
	}
	s.cache.InvalidateTimetable(ctx)
	s.logger.Info("catalog record deleted", zap.String("resource", resource), zap.String("id", id))
	return nil
}

func lookupError(err error, resource string) error {
	return appErrors.FromStore(err, resource, "load")
}

// normalizeEmail trims and lowercases an optional email, treating blank as absent.
func normalizeEmail(raw *string) *string {
	if raw == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(*raw))
	if email == "" {
		return nil
	}
	return &email
}
