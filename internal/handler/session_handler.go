package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
	"github.com/the-local-guys/testtag-api/pkg/response"
)

// SessionHandler handles test session endpoints.
type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// loadAccessible resolves the session and enforces ownership scoping.
func (h *SessionHandler) loadAccessible(c *gin.Context) (*models.TestSession, *models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, nil, false
	}

	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, nil, false
	}

	if !h.service.CanAccessSession(session, claims) {
		response.Error(c, appErrors.ErrForbidden)
		return nil, nil, false
	}
	return session, claims, true
}

// List godoc
// @Summary List sessions
// @Description List test sessions with pagination. Technicians see only their own.
// @Tags Sessions
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param service_type query string false "Service type filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.SessionFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if serviceType := c.Query("service_type"); serviceType != "" {
		st := models.ServiceType(serviceType)
		filter.ServiceType = &st
	}
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	if !models.PermissionsFor(claims.Role).Has(models.PermSessionsAll) {
		filter.UserID = claims.UserID
	}

	sessions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get full session data
// @Description Session detail with ordered results and pass/fail summary
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	if _, _, ok := h.loadAccessible(c); !ok {
		return
	}

	data, err := h.service.GetFullSessionData(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, data, nil)
}

// Create godoc
// @Summary Start a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}

	session, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// Update godoc
// @Summary Update session details
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.UpdateSessionRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	_, claims, ok := h.loadAccessible(c)
	if !ok {
		return
	}

	var req service.UpdateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}

	meta := requestMeta(c)
	session, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID, meta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a session
// @Description Permanently removes the session and all of its results
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	_, claims, ok := h.loadAccessible(c)
	if !ok {
		return
	}

	meta := requestMeta(c)
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, meta); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Summary godoc
// @Summary Session result summary
// @Description Headline pass/fail counts for a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/summary [get]
func (h *SessionHandler) Summary(c *gin.Context) {
	if _, _, ok := h.loadAccessible(c); !ok {
		return
	}

	data, err := h.service.GetFullSessionData(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, data.Summary, nil)
}
