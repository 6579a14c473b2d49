package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

type catalogDepartments struct {
	items    map[string]models.Department
	exists   bool
	existErr error
	created  []*models.Department
}

func (s *catalogDepartments) List(ctx context.Context) ([]models.Department, error) {
	out := make([]models.Department, 0, len(s.items))
	for _, d := range s.items {
		out = append(out, d)
	}
	return out, nil
}

func (s *catalogDepartments) FindByID(ctx context.Context, id string) (*models.Department, error) {
	d, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *catalogDepartments) ExistsByCode(ctx context.Context, code, name string) (bool, error) {
	return s.exists, s.existErr
}

func (s *catalogDepartments) Create(ctx context.Context, department *models.Department) error {
	department.ID = "dept-new"
	s.created = append(s.created, department)
	return nil
}

func (s *catalogDepartments) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type catalogTeachers struct {
	items       map[string]models.Teacher
	emailExists bool
	created     []*models.Teacher
}

func (s *catalogTeachers) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	return nil, nil
}

func (s *catalogTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s *catalogTeachers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.emailExists, nil
}

func (s *catalogTeachers) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.WorkloadLimit == 0 {
		teacher.WorkloadLimit = models.DefaultWorkloadLimit
	}
	s.created = append(s.created, teacher)
	return nil
}

func (s *catalogTeachers) Delete(ctx context.Context, id string) error {
	return errors.New("connection reset")
}

type catalogRooms struct {
	created []*models.Classroom
}

func (s *catalogRooms) List(ctx context.Context) ([]models.Classroom, error) { return nil, nil }

func (s *catalogRooms) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	return nil, sql.ErrNoRows
}

func (s *catalogRooms) Create(ctx context.Context, room *models.Classroom) error {
	s.created = append(s.created, room)
	return nil
}

func (s *catalogRooms) Delete(ctx context.Context, id string) error { return nil }

type catalogCourses struct {
	items      map[string]models.Course
	codeExists bool
	created    []*models.Course
}

func (s *catalogCourses) List(ctx context.Context, departmentID string) ([]models.Course, error) {
	return nil, nil
}

func (s *catalogCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *catalogCourses) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return s.codeExists, nil
}

func (s *catalogCourses) Create(ctx context.Context, course *models.Course) error {
	s.created = append(s.created, course)
	return nil
}

func (s *catalogCourses) Delete(ctx context.Context, id string) error { return nil }

type catalogAllocations struct {
	exists  bool
	created []*models.Allocation
}

func (s *catalogAllocations) List(ctx context.Context, courseID string) ([]models.AllocationDetail, error) {
	return nil, nil
}

func (s *catalogAllocations) Exists(ctx context.Context, courseID, teacherID string) (bool, error) {
	return s.exists, nil
}

func (s *catalogAllocations) Create(ctx context.Context, allocation *models.Allocation) error {
	s.created = append(s.created, allocation)
	return nil
}

func (s *catalogAllocations) Delete(ctx context.Context, id string) error { return sql.ErrNoRows }

type catalogFixture struct {
	svc         *CatalogService
	departments *catalogDepartments
	teachers    *catalogTeachers
	rooms       *catalogRooms
	courses     *catalogCourses
	allocations *catalogAllocations
	cache       *memoryCacheRepo
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		departments: &catalogDepartments{items: map[string]models.Department{"cse": {ID: "cse", Code: "CSE", Name: "Computer Science"}}},
		teachers:    &catalogTeachers{items: map[string]models.Teacher{"smith": {ID: "smith", Name: "Dr. Smith"}}},
		rooms:       &catalogRooms{},
		courses:     &catalogCourses{items: map[string]models.Course{"cs101": {ID: "cs101", Code: "CS101", DepartmentID: "cse"}}},
		allocations: &catalogAllocations{},
		cache:       &memoryCacheRepo{},
	}
	cache := NewCacheService(f.cache, nil, 0, nil, true)
	f.svc = NewCatalogService(f.departments, f.teachers, f.rooms, f.courses, f.allocations, cache, nil, nil)
	return f
}

func TestCatalogServiceCreateDepartment(t *testing.T) {
	f := newCatalogFixture()

	dept, err := f.svc.CreateDepartment(context.Background(), dto.CreateDepartmentRequest{Name: " Electrical ", Code: "eee"})
	require.NoError(t, err)
	assert.Equal(t, "EEE", dept.Code)
	assert.Equal(t, "Electrical", dept.Name)

	f.departments.exists = true
	_, err = f.svc.CreateDepartment(context.Background(), dto.CreateDepartmentRequest{Name: "Electrical", Code: "EEE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = f.svc.CreateDepartment(context.Background(), dto.CreateDepartmentRequest{Name: "No code"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateTeacher(t *testing.T) {
	f := newCatalogFixture()
	email := " Smith@Example.com "
	dept := "cse"

	teacher, err := f.svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{Name: "Dr. Brown", Email: &email, DepartmentID: &dept})
	require.NoError(t, err)
	require.NotNil(t, teacher.Email)
	assert.Equal(t, "smith@example.com", *teacher.Email)
	assert.Equal(t, models.DefaultWorkloadLimit, teacher.WorkloadLimit)
	require.NotNil(t, teacher.DepartmentID)
	assert.Equal(t, "cse", *teacher.DepartmentID)

	missing := "mech"
	_, err = f.svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{Name: "Dr. Green", DepartmentID: &missing})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "department not found")

	f.teachers.emailExists = true
	_, err = f.svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{Name: "Dr. Brown", Email: &email})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateTeacherNormalizesEmailBeforeValidation(t *testing.T) {
	f := newCatalogFixture()

	blank := "   "
	teacher, err := f.svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{Name: "Dr. Grey", Email: &blank})
	require.NoError(t, err)
	assert.Nil(t, teacher.Email)

	padded := "\tGrey@Example.COM\n"
	teacher, err = f.svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{Name: "Dr. Grey", Email: &padded})
	require.NoError(t, err)
	require.NotNil(t, teacher.Email)
	assert.Equal(t, "grey@example.com", *teacher.Email)

	invalid := " not-an-email "
	_, err = f.svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{Name: "Dr. Grey", Email: &invalid})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateCourse(t *testing.T) {
	f := newCatalogFixture()

	course, err := f.svc.CreateCourse(context.Background(), dto.CreateCourseRequest{Name: "Clubs", Code: "act1", DepartmentID: "cse", Type: "Activity Class", HoursPerWeek: 2})
	require.NoError(t, err)
	assert.Equal(t, "ACT1", course.Code)
	assert.Equal(t, models.CourseTypeActivityClass, course.Type)

	_, err = f.svc.CreateCourse(context.Background(), dto.CreateCourseRequest{Name: "Bad", Code: "B1", DepartmentID: "cse", Type: "Seminar", HoursPerWeek: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	f.courses.codeExists = true
	_, err = f.svc.CreateCourse(context.Background(), dto.CreateCourseRequest{Name: "Dup", Code: "CS101", DepartmentID: "cse", Type: "Theory", HoursPerWeek: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceCreateAllocation(t *testing.T) {
	f := newCatalogFixture()

	alloc, err := f.svc.CreateAllocation(context.Background(), dto.CreateAllocationRequest{CourseID: "cs101", TeacherID: "smith"})
	require.NoError(t, err)
	assert.Equal(t, "cs101", alloc.CourseID)

	_, err = f.svc.CreateAllocation(context.Background(), dto.CreateAllocationRequest{CourseID: "cs101", TeacherID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	f.allocations.exists = true
	_, err = f.svc.CreateAllocation(context.Background(), dto.CreateAllocationRequest{CourseID: "cs101", TeacherID: "smith"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceDeleteInvalidatesTimetableCache(t *testing.T) {
	f := newCatalogFixture()
	f.cache.items = map[string][]byte{"timetable:view:dept=:teacher=:day=": []byte("[]")}

	require.NoError(t, f.svc.DeleteDepartment(context.Background(), "cse"))
	assert.Empty(t, f.cache.items)

	err := f.svc.DeleteDepartment(context.Background(), "cse")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = f.svc.DeleteTeacher(context.Background(), "smith")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	err = f.svc.DeleteAllocation(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
