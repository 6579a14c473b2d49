package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lgdark7/timetable/internal/dto"
	"github.com/lgdark7/timetable/internal/middleware"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/service"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/response"
)

type leaveManager interface {
	Request(ctx context.Context, actor *models.JWTClaims, req dto.CreateLeaveRequest) (*models.LeaveRequest, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.LeaveQuery) ([]models.LeaveRequestDetail, error)
	Approve(ctx context.Context, id string) (*models.LeaveDecision, error)
	Reject(ctx context.Context, id string) (*models.LeaveRequest, error)
	Substitutions(ctx context.Context, query dto.SubstitutionQuery) ([]models.SubstitutionDetail, error)
}

// LeaveHandler exposes leave requests and substitution lookups.
type LeaveHandler struct {
	service leaveManager
}

// NewLeaveHandler constructs the handler.
func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Create godoc
// @Summary Request a day of leave
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body dto.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Create(c *gin.Context) {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}
	leave, err := h.service.Request(c.Request.Context(), middleware.Claims(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// List godoc
// @Summary List leave requests
// @Description Teachers only see their own requests.
// @Tags Leave
// @Produce json
// @Param status query string false "Pending, Approved or Rejected"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	var query dto.LeaveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), middleware.Claims(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Approve godoc
// @Summary Approve a pending leave and assign substitutes
// @Tags Leave
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	decision, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision)
}

// Reject godoc
// @Summary Reject a pending leave
// @Tags Leave
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/reject [post]
func (h *LeaveHandler) Reject(c *gin.Context) {
	leave, err := h.service.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave)
}

// Substitutions godoc
// @Summary Substitutions on a date
// @Tags Leave
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *LeaveHandler) Substitutions(c *gin.Context) {
	var query dto.SubstitutionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.Substitutions(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}
