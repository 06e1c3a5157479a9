package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/console"
	"github.com/claudemarjean/Ivony/internal/navigation"
	"github.com/claudemarjean/Ivony/internal/transport/http/middleware"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// ConsoleHandler exposes sign-in, sign-out and navigation of the bound console.
type ConsoleHandler struct {
	logger *zap.Logger
}

// NewConsoleHandler constructs ConsoleHandler.
func NewConsoleHandler(logger *zap.Logger) *ConsoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleHandler{logger: logger}
}

// RegisterRoutes binds console routes, applying optional middleware ahead of the login handler.
func (h *ConsoleHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)
	r.POST("/logout", h.logout)
	r.GET("/state", h.state)
	r.GET("/navigate", h.navigate)
}

func boundConsole(c *gin.Context) (*console.Session, bool) {
	s, ok := middleware.GetConsole(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "console unavailable"))
		return nil, false
	}
	return s, true
}

// Login godoc
// @Summary Sign the console in
// @Description Validates the credentials, applies the attempt limiter and renders the current location.
// @Tags Console
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/console/login [post]
func (h *ConsoleHandler) login(c *gin.Context) {
	s, ok := boundConsole(c)
	if !ok {
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	if _, err := s.Auth.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		respondConsoleError(c, err)
		return
	}

	page, err := s.Navigator.Refresh(c.Request.Context())
	if err != nil {
		respondConsoleError(c, err)
		return
	}

	st := s.State()
	c.JSON(http.StatusOK, LoginResponse{User: *newUserSummary(st), Page: page})
}

// Logout godoc
// @Summary Sign the console out
// @Description Revokes the remote session on a best-effort basis and always resets the console.
// @Tags Console
// @Produce json
// @Success 200 {object} navigation.Result
// @Router /api/v1/console/logout [post]
func (h *ConsoleHandler) logout(c *gin.Context) {
	s, ok := boundConsole(c)
	if !ok {
		return
	}

	s.Auth.Logout(c.Request.Context())
	page, err := s.Navigator.Refresh(c.Request.Context())
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// State godoc
// @Summary Console state
// @Description Returns the authentication state, the mounted page and the live dashboard counters.
// @Tags Console
// @Produce json
// @Success 200 {object} ConsoleStateResponse
// @Router /api/v1/console/state [get]
func (h *ConsoleHandler) state(c *gin.Context) {
	s, ok := boundConsole(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := s.Auth.Touch(ctx); errors.Is(err, usecase.ErrSessionExpired) {
		h.logger.Info("console idle timeout", zap.String("console_id", s.ID))
	}
	if s.State().IsAuthenticated {
		s.Auth.RestoreSession(ctx)
	}

	st := s.State()
	resp := ConsoleStateResponse{
		IsAuthenticated: st.IsAuthenticated,
		Role:            st.Role,
		User:            newUserSummary(st),
		Profile:         st.Profile,
		Attempts:        st.AuthAttemptCount,
		Location:        s.Navigator.Location(),
	}
	if st.Session != nil && !st.Session.ExpiresAt.IsZero() {
		exp := st.Session.ExpiresAt
		resp.ExpiresAt = &exp
	}
	if current := s.Navigator.Current(); current.Outcome != "" {
		resp.Page = &current
	}
	if dash := s.Dashboard(); dash != nil {
		resp.Dashboard = dash
	}
	c.JSON(http.StatusOK, resp)
}

// Navigate godoc
// @Summary Navigate the console
// @Description Disposes the mounted view, checks access and renders the requested route.
// @Tags Console
// @Produce json
// @Param path query string false "Route path" default(/)
// @Success 200 {object} navigation.Result
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/console/navigate [get]
func (h *ConsoleHandler) navigate(c *gin.Context) {
	s, ok := boundConsole(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := s.Auth.Touch(ctx); errors.Is(err, usecase.ErrSessionExpired) {
		h.logger.Info("console idle timeout", zap.String("console_id", s.ID))
	}

	path := c.DefaultQuery("path", navigation.DefaultPath)
	page, err := s.Navigator.NavigateTo(ctx, path)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
