package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/service"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/response"
)

type catalogManager interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	CreateDepartment(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id string) error
	ListTeachers(ctx context.Context, query dto.TeacherQuery) ([]models.Teacher, error)
	CreateTeacher(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error)
	DeleteTeacher(ctx context.Context, id string) error
	ListClassrooms(ctx context.Context) ([]models.Classroom, error)
	CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error)
	DeleteClassroom(ctx context.Context, id string) error
	ListCourses(ctx context.Context, query dto.CourseQuery) ([]models.Course, error)
	CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	ListAllocations(ctx context.Context, query dto.AllocationQuery) ([]models.AllocationDetail, error)
	CreateAllocation(ctx context.Context, req dto.CreateAllocationRequest) (*models.Allocation, error)
	DeleteAllocation(ctx context.Context, id string) error
}

// CatalogHandler exposes departments, teachers, classrooms, courses and allocations.
type CatalogHandler struct {
	service catalogManager
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	items, err := h.service.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /departments [post]
func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	item, err := h.service.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteDepartment godoc
// @Summary Delete department with its courses and timetable entries
// @Tags Catalog
// @Param id path string true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *CatalogHandler) DeleteDepartment(c *gin.Context) {
	h.respondDelete(c, h.service.DeleteDepartment(c.Request.Context(), c.Param("id")))
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Catalog
// @Produce json
// @Param dept_id query string false "Department ID"
// @Param search query string false "Name or email fragment"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *CatalogHandler) ListTeachers(c *gin.Context) {
	var query dto.TeacherQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.ListTeachers(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateTeacher godoc
// @Summary Create teacher
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *CatalogHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	item, err := h.service.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteTeacher godoc
// @Summary Delete teacher with their allocations and timetable entries
// @Tags Catalog
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *CatalogHandler) DeleteTeacher(c *gin.Context) {
	h.respondDelete(c, h.service.DeleteTeacher(c.Request.Context(), c.Param("id")))
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *CatalogHandler) ListClassrooms(c *gin.Context) {
	items, err := h.service.ListClassrooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateClassroom godoc
// @Summary Create classroom or lab
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Router /classrooms [post]
func (h *CatalogHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classroom payload"))
		return
	}
	item, err := h.service.CreateClassroom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteClassroom godoc
// @Summary Delete classroom and the entries booked in it
// @Tags Catalog
// @Param id path string true "Classroom ID"
// @Success 204
// @Router /classrooms/{id} [delete]
func (h *CatalogHandler) DeleteClassroom(c *gin.Context) {
	h.respondDelete(c, h.service.DeleteClassroom(c.Request.Context(), c.Param("id")))
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param dept_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var query dto.CourseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.ListCourses(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	item, err := h.service.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteCourse godoc
// @Summary Delete course with its allocations and entries
// @Tags Catalog
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	h.respondDelete(c, h.service.DeleteCourse(c.Request.Context(), c.Param("id")))
}

// ListAllocations godoc
// @Summary List teacher allocations
// @Tags Catalog
// @Produce json
// @Param course_id query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Router /allocations [get]
func (h *CatalogHandler) ListAllocations(c *gin.Context) {
	var query dto.AllocationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.ListAllocations(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// CreateAllocation godoc
// @Summary Allocate a teacher to a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateAllocationRequest true "Allocation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allocations [post]
func (h *CatalogHandler) CreateAllocation(c *gin.Context) {
	var req dto.CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation payload"))
		return
	}
	item, err := h.service.CreateAllocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// DeleteAllocation godoc
// @Summary Remove an allocation
// @Tags Catalog
// @Param id path string true "Allocation ID"
// @Success 204
// @Router /allocations/{id} [delete]
func (h *CatalogHandler) DeleteAllocation(c *gin.Context) {
	h.respondDelete(c, h.service.DeleteAllocation(c.Request.Context(), c.Param("id")))
}

func (h *CatalogHandler) respondDelete(c *gin.Context, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
