package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/pkg/response"
)

type rosterRegistry interface {
	ListStaff(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
	ListClients(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListQualifications(ctx context.Context) ([]models.InsuranceQualification, error)
}

// RegistryHandler exposes read endpoints over the roster registry.
type RegistryHandler struct {
	registry rosterRegistry
}

// NewRegistryHandler constructs the handler.
func NewRegistryHandler(registry rosterRegistry) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// ListStaff godoc
// @Summary List therapy staff
// @Tags Registry
// @Produce json
// @Param teamId query string false "Filter by team"
// @Param role query string false "Filter by role"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Name search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staff [get]
func (h *RegistryHandler) ListStaff(c *gin.Context) {
	filter := models.StaffFilter{
		TeamID:    c.Query("teamId"),
		Role:      c.Query("role"),
		Active:    parseBoolPtr(c.Query("active")),
		Search:    c.Query("search"),
		Page:      atoiOrZero(c.Query("page")),
		PageSize:  atoiOrZero(c.Query("pageSize")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	staff, total, err := h.registry.ListStaff(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, paginationFor(filter.Page, filter.PageSize, total))
}

// GetStaff godoc
// @Summary Fetch one staff member
// @Tags Registry
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /staff/{id} [get]
func (h *RegistryHandler) GetStaff(c *gin.Context) {
	staff, err := h.registry.GetStaff(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// ListClients godoc
// @Summary List therapy clients
// @Tags Registry
// @Produce json
// @Param teamId query string false "Filter by team"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Name search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clients [get]
func (h *RegistryHandler) ListClients(c *gin.Context) {
	filter := models.ClientFilter{
		TeamID:   c.Query("teamId"),
		Active:   parseBoolPtr(c.Query("active")),
		Search:   c.Query("search"),
		Page:     atoiOrZero(c.Query("page")),
		PageSize: atoiOrZero(c.Query("pageSize")),
	}
	clients, total, err := h.registry.ListClients(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, paginationFor(filter.Page, filter.PageSize, total))
}

// GetClient godoc
// @Summary Fetch one client
// @Tags Registry
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clients/{id} [get]
func (h *RegistryHandler) GetClient(c *gin.Context) {
	client, err := h.registry.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// ListTeams godoc
// @Summary List teams
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teams [get]
func (h *RegistryHandler) ListTeams(c *gin.Context) {
	teams, err := h.registry.ListTeams(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams, nil)
}

// ListQualifications godoc
// @Summary List insurance qualifications
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /qualifications [get]
func (h *RegistryHandler) ListQualifications(c *gin.Context) {
	qualifications, err := h.registry.ListQualifications(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, qualifications, nil)
}

func parseBoolPtr(raw string) *bool {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
