package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
	"github.com/the-local-guys/testtag-api/pkg/response"
)

// FormTypeHandler handles the form type catalogue endpoints. Reads are open
// to all authenticated users; writes are gated by route middleware.
type FormTypeHandler struct {
	service *service.FormTypeService
}

// NewFormTypeHandler creates a new form type handler.
func NewFormTypeHandler(svc *service.FormTypeService) *FormTypeHandler {
	return &FormTypeHandler{service: svc}
}

// List godoc
// @Summary List form types
// @Tags FormTypes
// @Produce json
// @Param service_type query string false "Service type filter"
// @Success 200 {object} response.Envelope
// @Router /form-types [get]
func (h *FormTypeHandler) List(c *gin.Context) {
	var serviceType *models.ServiceType
	if raw := c.Query("service_type"); raw != "" {
		st := models.ServiceType(raw)
		serviceType = &st
	}

	formTypes, err := h.service.List(c.Request.Context(), serviceType)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, formTypes, nil)
}

// Get godoc
// @Summary Get a form type with its items
// @Tags FormTypes
// @Produce json
// @Param id path string true "Form type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /form-types/{id} [get]
func (h *FormTypeHandler) Get(c *gin.Context) {
	formType, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, formType, nil)
}

// Create godoc
// @Summary Create a form type
// @Tags FormTypes
// @Accept json
// @Produce json
// @Param payload body service.FormTypeRequest true "Form type payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /form-types [post]
func (h *FormTypeHandler) Create(c *gin.Context) {
	var req service.FormTypeRequest
	if !bindJSON(c, &req, "invalid form type payload") {
		return
	}

	formType, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, formType)
}

// Update godoc
// @Summary Update a form type
// @Tags FormTypes
// @Accept json
// @Produce json
// @Param id path string true "Form type ID"
// @Param payload body service.FormTypeRequest true "Form type payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /form-types/{id} [put]
func (h *FormTypeHandler) Update(c *gin.Context) {
	var req service.FormTypeRequest
	if !bindJSON(c, &req, "invalid form type payload") {
		return
	}

	formType, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, formType, nil)
}

// Delete godoc
// @Summary Delete a form type
// @Tags FormTypes
// @Produce json
// @Param id path string true "Form type ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /form-types/{id} [delete]
func (h *FormTypeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AddItem godoc
// @Summary Add an item to a form type
// @Tags FormTypes
// @Accept json
// @Produce json
// @Param id path string true "Form type ID"
// @Param payload body service.FormItemRequest true "Form item payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /form-types/{id}/items [post]
func (h *FormTypeHandler) AddItem(c *gin.Context) {
	var req service.FormItemRequest
	if !bindJSON(c, &req, "invalid form item payload") {
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// RemoveItem godoc
// @Summary Remove an item from a form type
// @Tags FormTypes
// @Produce json
// @Param id path string true "Form type ID"
// @Param itemId path string true "Item ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /form-types/{id}/items/{itemId} [delete]
func (h *FormTypeHandler) RemoveItem(c *gin.Context) {
	if err := h.service.RemoveItem(c.Request.Context(), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
