package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maamarmordechaibp/school-management-sub001/internal/dto"
	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/response"
)

type bulkScheduler interface {
	Preview(ctx context.Context, req dto.BulkSchedulePreviewRequest) (*dto.BulkSchedulePreviewResponse, error)
	Confirm(ctx context.Context, req dto.BulkScheduleConfirmRequest) (*dto.BulkScheduleConfirmResponse, error)
}

type meetingLister interface {
	List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, *models.Pagination, error)
}

// BulkScheduleHandler exposes the bulk scheduling preview/confirm flow.
type BulkScheduleHandler struct {
	bulk     bulkScheduler
	meetings meetingLister
}

// NewBulkScheduleHandler constructs BulkScheduleHandler.
func NewBulkScheduleHandler(bulk bulkScheduler, meetings meetingLister) *BulkScheduleHandler {
	return &BulkScheduleHandler{bulk: bulk, meetings: meetings}
}

// Preview godoc
// @Summary Preview a bulk schedule run
// @Description Packs the roster into availability windows without persisting anything.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BulkSchedulePreviewRequest true "Preview payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/bulk/preview [post]
func (h *BulkScheduleHandler) Preview(c *gin.Context) {
	var req dto.BulkSchedulePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Confirm godoc
// @Summary Persist a previewed bulk schedule run
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BulkScheduleConfirmRequest true "Confirm payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/bulk/confirm [post]
func (h *BulkScheduleHandler) Confirm(c *gin.Context) {
	var req dto.BulkScheduleConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListMeetings godoc
// @Summary List scheduled meetings
// @Tags Scheduling
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /meetings [get]
func (h *BulkScheduleHandler) ListMeetings(c *gin.Context) {
	filter := models.MeetingFilter{
		StudentID: c.Query("studentId"),
		Status:    c.Query("status"),
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must use YYYY-MM-DD"))
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must use YYYY-MM-DD"))
			return
		}
		filter.To = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	meetings, pagination, err := h.meetings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meetings, pagination)
}
