package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/console"
	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// Messages shown to consoles that are not, or no longer, signed in.
const (
	MessageAuthRequired   = "Authentication required"
	MessageSessionExpired = "Session expired. Please sign in again."
)

// ConsoleCookie describes the cookie carrying the console session id.
type ConsoleCookie struct {
	Name   string
	Secure bool
	MaxAge int
}

// BindConsole attaches the caller's console session, opening a new one when the cookie is
// missing or names a session the registry no longer holds.
func BindConsole(registry *console.Registry, cookie ConsoleCookie, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "ivony_console"
	}

	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie.Name)
		s, err := registry.Get(id)
		if err != nil {
			s, err = registry.Create(c.Request.Context())
			if err != nil {
				log.Error("failed to open console", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "console unavailable"))
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookie.Name, s.ID, cookie.MaxAge, "/", "", cookie.Secure, true)
		}

		c.Set(ConsoleKey, s)
		reqCtx := GetRequestContext(c)
		reqCtx.ConsoleID = s.ID

		ctx := context.WithValue(c.Request.Context(), logger.ConsoleIDKey{}, s.ID)
		ctx = usecase.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetConsole returns the console bound by BindConsole.
func GetConsole(c *gin.Context) (*console.Session, bool) {
	v, ok := c.Get(ConsoleKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*console.Session)
	return s, ok && s != nil
}

// RequireSignedIn enforces the idle timeout and rejects anonymous consoles. The request context
// carries the console's access token and actor afterwards.
func RequireSignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := GetConsole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, MessageAuthRequired))
			return
		}

		if err := s.Auth.Touch(c.Request.Context()); err != nil {
			msg := MessageAuthRequired
			if errors.Is(err, usecase.ErrSessionExpired) {
				msg = MessageSessionExpired
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, msg))
			return
		}

		ctx, err := s.Auth.AuthorizedContext(c.Request.Context())
		if err != nil {
			msg := MessageAuthRequired
			if !errors.Is(err, usecase.ErrNotAuthenticated) {
				msg = "authentication failed"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, msg))
			return
		}

		st := s.State()
		if st.User != nil {
			ctx = usecase.WithActor(ctx, st.User.ID)
			c.Set(UserIDKey, st.User.ID)
			GetRequestContext(c).UserID = st.User.ID
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects signed-in consoles whose role is not one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := GetConsole(c)
		if !ok || !s.State().IsAuthenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, MessageAuthRequired))
			return
		}
		if !s.Auth.RequireRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, "insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetAuthenticatedUserID retrieves the user ID from context (helper for handlers)
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	if id, ok := userID.(string); ok {
		return id, true
	}
	return "", false
}
