package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// AdminHandler exposes the management endpoints of the console.
type AdminHandler struct {
	admin  *usecase.AdminService
	logger *zap.Logger
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin *usecase.AdminService, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{admin: admin, logger: logger}
}

// RegisterUserRoutes binds /users.
func (h *AdminHandler) RegisterUserRoutes(r *gin.RouterGroup) {
	r.GET("", h.listUsers)
	r.PATCH("/:id/role", h.updateUserRole)
	r.PATCH("/:id/status", h.updateUserStatus)
}

// RegisterApplicationRoutes binds /applications.
func (h *AdminHandler) RegisterApplicationRoutes(r *gin.RouterGroup) {
	r.GET("", h.listApplications)
	r.POST("", h.createApplication)
	r.PATCH("/:id", h.updateApplication)
	r.DELETE("/:id", h.deleteApplication)
}

// RegisterAuditRoutes binds /audit-logs.
func (h *AdminHandler) RegisterAuditRoutes(r *gin.RouterGroup) {
	r.GET("", h.listAuditLogs)
}

// RegisterInsightRoutes binds the analytics and dashboard counters.
func (h *AdminHandler) RegisterInsightRoutes(r *gin.RouterGroup) {
	r.GET("/analytics", h.analytics)
	r.GET("/dashboard/kpis", h.dashboardKPIs)
}

func bindPage(c *gin.Context) PageQuery {
	var q PageQuery
	_ = c.ShouldBindQuery(&q)
	return q
}

// ListUsers godoc
// @Summary List console users
// @Tags Users
// @Produce json
// @Param page query int false "Page (1-1000)"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} domain.Page[domain.DirectoryUser]
// @Router /api/v1/users [get]
func (h *AdminHandler) listUsers(c *gin.Context) {
	q := bindPage(c)
	page, err := h.admin.ListUsers(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UserRoleRequest true "Role"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users/{id}/role [patch]
func (h *AdminHandler) updateUserRole(c *gin.Context) {
	var req UserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}
	if err := h.admin.UpdateUserRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User role updated"})
}

// UpdateUserStatus godoc
// @Summary Activate or suspend a user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UserStatusRequest true "Status"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users/{id}/status [patch]
func (h *AdminHandler) updateUserStatus(c *gin.Context) {
	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}
	if err := h.admin.UpdateUserStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User status updated"})
}

// ListApplications godoc
// @Summary List applications
// @Tags Applications
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Status"
// @Success 200 {object} domain.Page[domain.Application]
// @Router /api/v1/applications [get]
func (h *AdminHandler) listApplications(c *gin.Context) {
	q := bindPage(c)
	page, err := h.admin.ListApplications(c.Request.Context(), q.Page, q.Limit, c.Query("status"))
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateApplication godoc
// @Summary Create an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param request body usecase.ApplicationInput true "Application"
// @Success 201 {object} domain.Application
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/applications [post]
func (h *AdminHandler) createApplication(c *gin.Context) {
	var in usecase.ApplicationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid application payload"))
		return
	}
	app, err := h.admin.CreateApplication(c.Request.Context(), in)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// UpdateApplication godoc
// @Summary Update an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body usecase.ApplicationInput true "Fields to change"
// @Success 200 {object} domain.Application
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/applications/{id} [patch]
func (h *AdminHandler) updateApplication(c *gin.Context) {
	var in usecase.ApplicationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid application payload"))
		return
	}
	app, err := h.admin.UpdateApplication(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// DeleteApplication godoc
// @Summary Delete an application
// @Tags Applications
// @Param id path string true "Application ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/applications/{id} [delete]
func (h *AdminHandler) deleteApplication(c *gin.Context) {
	if err := h.admin.DeleteApplication(c.Request.Context(), c.Param("id")); err != nil {
		respondConsoleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAuditLogs godoc
// @Summary Audit trail
// @Tags Audit
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param action query string false "Action"
// @Param actor query string false "Actor ID"
// @Success 200 {object} domain.Page[domain.AuditLog]
// @Router /api/v1/audit-logs [get]
func (h *AdminHandler) listAuditLogs(c *gin.Context) {
	var q AuditLogQuery
	_ = c.ShouldBindQuery(&q)
	page, err := h.admin.ListAuditLogs(c.Request.Context(), q.Page, q.Limit, q.Action, q.ActorID)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// Analytics godoc
// @Summary Analytics summary
// @Description Defaults to the last 30 days.
// @Tags Analytics
// @Produce json
// @Param start_date query string false "Start (RFC 3339 or YYYY-MM-DD)"
// @Param end_date query string false "End (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {object} domain.AnalyticsSummary
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/analytics [get]
func (h *AdminHandler) analytics(c *gin.Context) {
	var q AnalyticsQuery
	_ = c.ShouldBindQuery(&q)

	start, err := parseDate(q.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid start date"))
		return
	}
	end, err := parseDate(q.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid end date"))
		return
	}

	summary, err := h.admin.Analytics(c.Request.Context(), start, end)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DashboardKPIs godoc
// @Summary Dashboard counters
// @Description Remote failures degrade to zero counters.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardKPIs
// @Router /api/v1/dashboard/kpis [get]
func (h *AdminHandler) dashboardKPIs(c *gin.Context) {
	kpis, err := h.admin.DashboardKPIs(c.Request.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrRemote) {
			h.logger.Warn("dashboard kpis unavailable", zap.Error(err))
			c.JSON(http.StatusOK, domain.DashboardKPIs{})
			return
		}
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}
