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

type tokenIssuer interface {
	IssueToken(ctx context.Context, req models.IssueTokenRequest) (*dto.TokenResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// IssueToken godoc
// @Summary Issue an access token
// @Description Signs a token for an admin or teacher account.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.IssueTokenRequest true "Token subject"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/tokens [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}

	res, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Me godoc
// @Summary Current principal
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, claims)
}
