package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	"github.com/maamarmordechaibp/school-management-sub001/internal/service"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/response"
)

// AvailabilityHandler exposes availability window endpoints.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// List godoc
// @Summary List availability windows
// @Tags Availability
// @Produce json
// @Param category query string false "Filter by category (calls or meetings)"
// @Param day query string false "Filter by weekday name"
// @Success 200 {object} response.Envelope
// @Router /availability-windows [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	filter := models.AvailabilityFilter{
		Category:  c.Query("category"),
		DayOfWeek: c.Query("day"),
	}
	windows, err := h.availability.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// Get godoc
// @Summary Get an availability window
// @Tags Availability
// @Produce json
// @Param id path string true "Window ID"
// @Success 200 {object} response.Envelope
// @Router /availability-windows/{id} [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	window, err := h.availability.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Create godoc
// @Summary Create an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityWindowRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Router /availability-windows [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req service.AvailabilityWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	window, err := h.availability.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// Update godoc
// @Summary Update an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Window ID"
// @Param payload body service.AvailabilityWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Router /availability-windows/{id} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	var req service.AvailabilityWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	window, err := h.availability.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Delete godoc
// @Summary Delete an availability window
// @Tags Availability
// @Produce json
// @Param id path string true "Window ID"
// @Success 204
// @Router /availability-windows/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.availability.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
