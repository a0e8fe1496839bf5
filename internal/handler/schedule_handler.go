package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/aba-scheduler-api/internal/dto"
	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/service"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
	"github.com/brightpath/aba-scheduler-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	GetSchedule(ctx context.Context, id string) (*dto.ScheduleDetailResponse, error)
	ListSchedules(ctx context.Context, filter models.GeneratedScheduleFilter) (*dto.ScheduleListResponse, error)
	ValidateEntry(ctx context.Context, req dto.ValidateEntryRequest) (*dto.ValidateEntryResponse, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, scheduleID, format string) (*service.ExportResult, error)
}

// ScheduleHandler exposes schedule generation and inspection endpoints.
type ScheduleHandler struct {
	generator scheduleGenerator
	exporter  scheduleExporter
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(generator scheduleGenerator, exporter scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, exporter: exporter}
}

// Generate godoc
// @Summary Generate a weekly schedule
// @Description Runs the genetic search over the active roster. An infeasible outcome is returned as data with success=false and the remaining violations.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generation parameters"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Fetch a stored schedule with entries
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	result, err := h.generator.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List stored schedules
// @Tags Schedules
// @Produce json
// @Param teamId query string false "Filter by team"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.GeneratedScheduleFilter{
		TeamID:   c.Query("teamId"),
		Status:   c.Query("status"),
		Page:     atoiOrZero(c.Query("page")),
		PageSize: atoiOrZero(c.Query("pageSize")),
	}
	result, err := h.generator.ListSchedules(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Schedules, &models.Pagination{
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.Total,
	})
}

// ValidateEntry godoc
// @Summary Validate one schedule entry against the rest of a schedule
// @Description Local mode: weekly aggregate rules are skipped so the check stays cheap for interactive edits.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ValidateEntryRequest true "Candidate entry plus current schedule"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/validate-entry [post]
func (h *ScheduleHandler) ValidateEntry(c *gin.Context) {
	var req dto.ValidateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	result, err := h.generator.ValidateEntry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download a stored schedule as CSV or PDF
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Schedule ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /schedules/{id}/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	result, err := h.exporter.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func atoiOrZero(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
