package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/middleware"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/service"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/response"
)

type timetableManager interface {
	Generate(ctx context.Context) (*models.GenerationResult, error)
	EnqueueGenerate(ctx context.Context) (*models.GenerationJob, error)
	JobStatus(ctx context.Context, id string) (*models.GenerationJob, error)
	Clear(ctx context.Context) (int64, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableEntryDetail, bool, error)
	MoveEntry(ctx context.Context, actor *models.JWTClaims, id string, req dto.MoveEntryRequest) (*models.TimetableEntryDetail, error)
	Report(ctx context.Context) (*models.UtilisationReport, error)
}

type timetableExporter interface {
	DepartmentTimetable(ctx context.Context, departmentID string, query dto.ExportQuery) (*service.ExportFile, error)
}

// TimetableHandler exposes generation, viewing, editing and export of the timetable.
type TimetableHandler struct {
	service  timetableManager
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate the weekly timetable
// @Description Replaces the whole timetable. With async=true the run is queued and a job is returned.
// @Tags Timetable
// @Produce json
// @Param async query bool false "Queue the run"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var query dto.GenerateTimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	if query.Async {
		job, err := h.service.EnqueueGenerate(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, job)
		return
	}

	result, err := h.service.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Job godoc
// @Summary Background generation status
// @Tags Timetable
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/jobs/{id} [get]
func (h *TimetableHandler) Job(c *gin.Context) {
	job, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Clear godoc
// @Summary Delete every timetable entry
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable [delete]
func (h *TimetableHandler) Clear(c *gin.Context) {
	deleted, err := h.service.Clear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ClearTimetableResponse{Deleted: deleted})
}

// List godoc
// @Summary List timetable entries
// @Tags Timetable
// @Produce json
// @Param dept_id query string false "Department ID"
// @Param teacher_id query string false "Teacher ID"
// @Param day query string false "Weekday name"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, hit, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetCount(c, len(items))
	response.JSON(c, http.StatusOK, items, middleware.ExtractMeta(c))
}

// Move godoc
// @Summary Move a timetable entry
// @Description Teachers may only move their own sessions. A conflicting move returns 409 with alternative placements.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.MoveEntryRequest true "Target placement"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/{id} [put]
func (h *TimetableHandler) Move(c *gin.Context) {
	var req dto.MoveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}

	entry, err := h.service.MoveEntry(c.Request.Context(), middleware.Claims(c), c.Param("id"), req)
	if err != nil {
		var conflict *models.MoveConflictError
		if errors.As(err, &conflict) {
			response.Conflict(c, dto.MoveConflictResponse{Reason: conflict.Reason, Suggestions: conflict.Suggestions}, err)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// Report godoc
// @Summary Utilisation and allocation density report
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/reports [get]
func (h *TimetableHandler) Report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// ExportDepartment godoc
// @Summary Download a department timetable
// @Tags Timetable
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param id path string true "Department ID"
// @Param format query string false "pdf, xlsx or csv"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /timetable/export/departments/{id} [get]
func (h *TimetableHandler) ExportDepartment(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exporter.DepartmentTimetable(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
