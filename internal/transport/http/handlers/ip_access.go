package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// IPAccessHandler exposes IP moderation.
type IPAccessHandler struct {
	ipAccess *usecase.IPAccessService
}

// NewIPAccessHandler constructs IPAccessHandler.
func NewIPAccessHandler(ipAccess *usecase.IPAccessService) *IPAccessHandler {
	return &IPAccessHandler{ipAccess: ipAccess}
}

// RegisterRoutes binds the IP access routes.
func (h *IPAccessHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.PUT("", h.set)
}

// List godoc
// @Summary Moderated IP addresses
// @Tags IP access
// @Produce json
// @Success 200 {array} domain.IPAccess
// @Router /api/v1/ip-access [get]
func (h *IPAccessHandler) list(c *gin.Context) {
	records, err := h.ipAccess.List(c.Request.Context())
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	if records == nil {
		records = []domain.IPAccess{}
	}
	c.JSON(http.StatusOK, records)
}

// Set godoc
// @Summary Set the status of an IP address
// @Tags IP access
// @Accept json
// @Produce json
// @Param request body IPAccessRequest true "IP status"
// @Success 200 {object} domain.IPAccess
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/ip-access [put]
func (h *IPAccessHandler) set(c *gin.Context) {
	var req IPAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid ip access payload"))
		return
	}
	record, err := h.ipAccess.SetStatus(c.Request.Context(), req.IP, req.Status, req.Reason)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
