package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
	"github.com/the-local-guys/testtag-api/pkg/response"
)

// EnvironmentHandler handles environment template endpoints. Environments are
// strictly per-user, so every operation is scoped to the caller.
type EnvironmentHandler struct {
	service *service.EnvironmentService
}

// NewEnvironmentHandler creates a new environment handler.
func NewEnvironmentHandler(svc *service.EnvironmentService) *EnvironmentHandler {
	return &EnvironmentHandler{service: svc}
}

// List godoc
// @Summary List my environments
// @Tags Environments
// @Produce json
// @Param service_type query string false "Service type filter"
// @Success 200 {object} response.Envelope
// @Router /environments [get]
func (h *EnvironmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var serviceType *models.ServiceType
	if raw := c.Query("service_type"); raw != "" {
		st := models.ServiceType(raw)
		serviceType = &st
	}

	envs, err := h.service.List(c.Request.Context(), claims.UserID, serviceType)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, envs, nil)
}

// Get godoc
// @Summary Get an environment
// @Tags Environments
// @Produce json
// @Param id path string true "Environment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /environments/{id} [get]
func (h *EnvironmentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	env, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, env, nil)
}

// Create godoc
// @Summary Create an environment
// @Tags Environments
// @Accept json
// @Produce json
// @Param payload body service.EnvironmentRequest true "Environment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /environments [post]
func (h *EnvironmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnvironmentRequest
	if !bindJSON(c, &req, "invalid environment payload") {
		return
	}

	env, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, env)
}

// Update godoc
// @Summary Update an environment
// @Tags Environments
// @Accept json
// @Produce json
// @Param id path string true "Environment ID"
// @Param payload body service.EnvironmentRequest true "Environment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /environments/{id} [put]
func (h *EnvironmentHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnvironmentRequest
	if !bindJSON(c, &req, "invalid environment payload") {
		return
	}

	env, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, env, nil)
}

// Delete godoc
// @Summary Delete an environment
// @Tags Environments
// @Produce json
// @Param id path string true "Environment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /environments/{id} [delete]
func (h *EnvironmentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
