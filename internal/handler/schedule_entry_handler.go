package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/med-schedule-api/internal/models"
	"github.com/noah-isme/med-schedule-api/internal/service"
	appErrors "github.com/noah-isme/med-schedule-api/pkg/errors"
	"github.com/noah-isme/med-schedule-api/pkg/response"
)

// ScheduleEntryHandler manages schedule entry endpoints.
type ScheduleEntryHandler struct {
	service *service.SchedulingService
}

// NewScheduleEntryHandler constructs handler.
func NewScheduleEntryHandler(svc *service.SchedulingService) *ScheduleEntryHandler {
	return &ScheduleEntryHandler{service: svc}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param type query string false "Filter by schedule type"
// @Param courseCode query string false "Filter by course code"
// @Param dateFrom query string false "Start of date range (YYYY-MM-DD)"
// @Param dateTo query string false "End of date range (YYYY-MM-DD)"
// @Param roomId query string false "Filter by room"
// @Param instructorId query string false "Filter by instructor"
// @Param groupId query string false "Filter by student group"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleEntryHandler) List(c *gin.Context) {
	var filter models.ScheduleEntryFilter
	filter.ScheduleType = models.ScheduleType(c.Query("type"))
	filter.CourseCode = c.Query("courseCode")
	filter.RoomID = c.Query("roomId")
	filter.InstructorID = c.Query("instructorId")
	filter.GroupID = c.Query("groupId")
	if raw := c.Query("dateFrom"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if raw := c.Query("dateTo"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateTo = &parsed
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get a schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleEntryHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ScheduleEntryRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope "Conflict or capacity rejection"
// @Router /schedules [post]
func (h *ScheduleEntryHandler) Create(c *gin.Context) {
	var req service.ScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.SubmitCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Replace a schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.ScheduleEntryRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope "Conflict or capacity rejection"
// @Router /schedules/{id} [put]
func (h *ScheduleEntryHandler) Update(c *gin.Context) {
	var req service.ScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.SubmitUpdate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

type confirmStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ConfirmStatus godoc
// @Summary Record the instructor's confirmation status
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body confirmStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/confirmation [patch]
func (h *ScheduleEntryHandler) ConfirmStatus(c *gin.Context) {
	var req confirmStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.ConfirmStatus(c.Request.Context(), c.Param("id"), models.ConfirmationStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete a schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleEntryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
