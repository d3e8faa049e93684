package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
	"github.com/the-local-guys/testtag-api/pkg/response"
)

// ResultHandler handles test result endpoints, including asset number
// allocation for the client wizard.
type ResultHandler struct {
	results  *service.ResultService
	assets   *service.AssetService
	sessions *service.SessionService
}

// NewResultHandler creates a new result handler.
func NewResultHandler(results *service.ResultService, assets *service.AssetService, sessions *service.SessionService) *ResultHandler {
	return &ResultHandler{results: results, assets: assets, sessions: sessions}
}

func (h *ResultHandler) sessionAccessible(c *gin.Context, sessionID string) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !h.sessions.CanAccessSession(session, claims) {
		response.Error(c, appErrors.ErrForbidden)
		return nil, false
	}
	return claims, true
}

// List godoc
// @Summary List session results
// @Description Results ordered by numeric asset number ascending
// @Tags Results
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/results [get]
func (h *ResultHandler) List(c *gin.Context) {
	sessionID := c.Param("id")
	if _, ok := h.sessionAccessible(c, sessionID); !ok {
		return
	}

	results, err := h.results.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results, nil)
}

// Create godoc
// @Summary Record a test result
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.ResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/results [post]
func (h *ResultHandler) Create(c *gin.Context) {
	sessionID := c.Param("id")
	if _, ok := h.sessionAccessible(c, sessionID); !ok {
		return
	}

	var req service.ResultRequest
	if !bindJSON(c, &req, "invalid result payload") {
		return
	}

	result, err := h.results.Create(c.Request.Context(), sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// CreateBatch godoc
// @Summary Submit results in bulk
// @Description Items are processed in order; exact duplicates of existing rows are skipped as resubmissions. Returns 200 when everything was skipped and 207 when outcomes are mixed.
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body []service.ResultRequest true "Result payloads"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/results/batch [post]
func (h *ResultHandler) CreateBatch(c *gin.Context) {
	sessionID := c.Param("id")
	if _, ok := h.sessionAccessible(c, sessionID); !ok {
		return
	}

	var reqs []service.ResultRequest
	if !bindJSON(c, &reqs, "invalid batch payload") {
		return
	}

	outcome, err := h.results.CreateBatch(c.Request.Context(), sessionID, reqs)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	switch {
	case outcome.AllFailed():
		status = http.StatusBadRequest
	case outcome.OnlySkipped():
		status = http.StatusOK
	case outcome.Partial():
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, outcome, nil)
}

// Update godoc
// @Summary Update a test result
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param payload body service.ResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /results/{id} [put]
func (h *ResultHandler) Update(c *gin.Context) {
	result, err := h.results.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	claims, ok := h.sessionAccessible(c, result.SessionID)
	if !ok {
		return
	}

	var req service.ResultRequest
	if !bindJSON(c, &req, "invalid result payload") {
		return
	}

	meta := requestMeta(c)
	updated, err := h.results.Update(c.Request.Context(), c.Param("id"), req, claims.UserID, meta)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete a test result
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	result, err := h.results.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	claims, ok := h.sessionAccessible(c, result.SessionID)
	if !ok {
		return
	}

	meta := requestMeta(c)
	if err := h.results.Delete(c.Request.Context(), c.Param("id"), claims.UserID, meta); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// NextAssetNumber godoc
// @Summary Suggest the next free asset number
// @Description Smallest unused number at or above the band start for the cadence
// @Tags Results
// @Produce json
// @Param id path string true "Session ID"
// @Param frequency query string true "Test frequency"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/asset-numbers/next [get]
func (h *ResultHandler) NextAssetNumber(c *gin.Context) {
	sessionID := c.Param("id")
	if _, ok := h.sessionAccessible(c, sessionID); !ok {
		return
	}

	frequency := models.Frequency(c.Query("frequency"))
	next, err := h.assets.NextAssetNumber(c.Request.Context(), sessionID, frequency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"asset_number": next}, nil)
}

// ValidateAssetNumber godoc
// @Summary Validate a candidate asset number
// @Description Checks band membership and in-session uniqueness before the tag is committed
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/asset-numbers/validate [post]
func (h *ResultHandler) ValidateAssetNumber(c *gin.Context) {
	sessionID := c.Param("id")
	if _, ok := h.sessionAccessible(c, sessionID); !ok {
		return
	}

	var req struct {
		AssetNumber     string           `json:"asset_number" binding:"required"`
		Frequency       models.Frequency `json:"frequency" binding:"required"`
		ExcludeResultID string           `json:"exclude_result_id"`
	}
	if !bindJSON(c, &req, "invalid payload") {
		return
	}

	if err := h.assets.ValidateAssetNumber(c.Request.Context(), sessionID, req.AssetNumber, req.Frequency, req.ExcludeResultID); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"valid": true}, nil)
}
