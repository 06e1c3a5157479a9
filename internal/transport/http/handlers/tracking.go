package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claudemarjean/Ivony/internal/usecase"
)

// TrackingHandler ingests public portal visits and lets admins pause ingestion.
type TrackingHandler struct {
	tracking *usecase.TrackingService
}

// NewTrackingHandler constructs TrackingHandler.
func NewTrackingHandler(tracking *usecase.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// TrackingToggleRequest switches visit ingestion.
type TrackingToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// TrackingStatusResponse reports whether visits are ingested.
type TrackingStatusResponse struct {
	Enabled bool `json:"enabled"`
}

// RegisterPortalRoutes binds the public tracking endpoint.
func (h *TrackingHandler) RegisterPortalRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, middlewares...)
	chain = append(chain, h.track)
	r.POST("/track", chain...)
}

// RegisterAdminRoutes binds the tracking switch.
func (h *TrackingHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("", h.status)
	r.PUT("", h.toggle)
}

// Track godoc
// @Summary Record a portal visit
// @Description Device, browser and OS are derived from the User-Agent header; the address is the client IP.
// @Tags Portal
// @Accept json
// @Produce json
// @Param request body TrackRequest true "Visit"
// @Success 201 {object} TrackResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /portal/v1/track [post]
func (h *TrackingHandler) track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid tracking payload"))
		return
	}

	visit, err := h.tracking.TrackVisit(c.Request.Context(), usecase.VisitInput{
		ApplicationID: req.ApplicationID,
		IP:            c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
		Source:        req.Source,
		URL:           req.URL,
		Authenticated: req.Authenticated,
		Country:       req.Country,
		Region:        req.Region,
		City:          req.City,
	})
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, TrackResponse{ID: visit.ID, IsUnique: visit.IsUnique})
}

// Status godoc
// @Summary Tracking switch state
// @Tags Tracking
// @Produce json
// @Success 200 {object} TrackingStatusResponse
// @Router /api/v1/tracking [get]
func (h *TrackingHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, TrackingStatusResponse{Enabled: h.tracking.Enabled()})
}

// Toggle godoc
// @Summary Switch visit tracking
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body TrackingToggleRequest true "Switch"
// @Success 200 {object} TrackingStatusResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tracking [put]
func (h *TrackingHandler) toggle(c *gin.Context) {
	var req TrackingToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid tracking payload"))
		return
	}
	h.tracking.SetEnabled(*req.Enabled)
	c.JSON(http.StatusOK, TrackingStatusResponse{Enabled: h.tracking.Enabled()})
}
