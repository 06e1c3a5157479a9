package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/claudemarjean/Ivony/internal/consultation"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// ConsultationHandler serves the consultations page data of the bound console.
type ConsultationHandler struct {
	consultations *usecase.ConsultationService
}

// NewConsultationHandler constructs ConsultationHandler.
func NewConsultationHandler(consultations *usecase.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations}
}

// RegisterRoutes binds the consultation routes. The group must require a signed-in console.
func (h *ConsultationHandler) RegisterRoutes(r *gin.RouterGroup, moderate ...gin.HandlerFunc) {
	r.GET("", h.list)
	r.GET("/stats/:applicationID", h.stats)

	chain := append([]gin.HandlerFunc{}, moderate...)
	chain = append(chain, h.delete)
	r.POST("/delete", chain...)
}

func bindFilter(c *gin.Context) (consultation.Filter, bool) {
	var f consultation.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid filter"))
		return f, false
	}
	if f.Period == "" {
		f.Period = consultation.PeriodAll
	}
	return f, true
}

// List godoc
// @Summary Filtered consultations
// @Description Filters the console's consultation dataset and returns the KPIs of the selection.
// @Tags Consultations
// @Produce json
// @Param application_id query string false "Application ID"
// @Param period query string false "today, week, month or all"
// @Param country query string false "Country"
// @Param device query string false "Device type"
// @Param ip_status query string false "mot-a-trouver or blacklist"
// @Param reload query bool false "Reload the dataset"
// @Success 200 {object} usecase.ConsultationView
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/consultations [get]
func (h *ConsultationHandler) list(c *gin.Context) {
	s, ok := boundConsole(c)
	if !ok {
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	reload, _ := strconv.ParseBool(c.Query("reload"))

	ds, err := s.Dataset(c.Request.Context(), reload)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.consultations.View(c.Request.Context(), ds, f))
}

// Delete godoc
// @Summary Soft delete consultations
// @Description Flags the selected consultations as deleted and returns the reloaded view.
// @Tags Consultations
// @Accept json
// @Produce json
// @Param request body DeleteConsultationsRequest true "Consultation IDs"
// @Success 200 {object} usecase.ConsultationView
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/consultations/delete [post]
func (h *ConsultationHandler) delete(c *gin.Context) {
	s, ok := boundConsole(c)
	if !ok {
		return
	}
	var req DeleteConsultationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid delete payload"))
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}

	ds, err := h.consultations.SoftDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	s.SetDataset(ds)
	c.JSON(http.StatusOK, h.consultations.View(c.Request.Context(), ds, f))
}

// Stats godoc
// @Summary Application visit statistics
// @Tags Consultations
// @Produce json
// @Param applicationID path string true "Application ID"
// @Success 200 {object} consultation.Stats
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/consultations/stats/{applicationID} [get]
func (h *ConsultationHandler) stats(c *gin.Context) {
	stats, err := h.consultations.Stats(c.Request.Context(), c.Param("applicationID"))
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
