package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/med-schedule-api/internal/models"
	"github.com/noah-isme/med-schedule-api/internal/service"
	"github.com/noah-isme/med-schedule-api/pkg/response"
)

// StudentGroupHandler exposes the student group catalog.
type StudentGroupHandler struct {
	catalog *service.CatalogService
}

// NewStudentGroupHandler constructs handler.
func NewStudentGroupHandler(catalog *service.CatalogService) *StudentGroupHandler {
	return &StudentGroupHandler{catalog: catalog}
}

// List godoc
// @Summary List student groups
// @Tags Student Groups
// @Produce json
// @Param kind query string false "Filter by group kind"
// @Param semester query int false "Filter by semester"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /student-groups [get]
func (h *StudentGroupHandler) List(c *gin.Context) {
	var filter models.StudentGroupFilter
	filter.Kind = models.GroupKind(c.Query("kind"))
	if semester, err := strconv.Atoi(c.DefaultQuery("semester", "0")); err == nil {
		filter.Semester = semester
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	groups, pagination, err := h.catalog.ListGroups(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, pagination)
}

// Get godoc
// @Summary Get a student group
// @Tags Student Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /student-groups/{id} [get]
func (h *StudentGroupHandler) Get(c *gin.Context) {
	group, err := h.catalog.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Members godoc
// @Summary List member student ids of a group
// @Tags Student Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /student-groups/{id}/members [get]
func (h *StudentGroupHandler) Members(c *gin.Context) {
	members, err := h.catalog.GroupMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// InvalidateMembers godoc
// @Summary Drop the cached roster for a group
// @Tags Student Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 204
// @Router /student-groups/{id}/members/cache [delete]
func (h *StudentGroupHandler) InvalidateMembers(c *gin.Context) {
	if err := h.catalog.InvalidateGroupMembers(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
