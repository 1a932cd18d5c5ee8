package middleware

import (
	"chatbot-retrieval-core/internal/auth"
	"chatbot-retrieval-core/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards routes behind session validation.
type AuthMiddleware struct {
	guard        *auth.SessionGuard
	widgetSecret []byte
}

func NewAuthMiddleware(guard *auth.SessionGuard, widgetSecret []byte) *AuthMiddleware {
	return &AuthMiddleware{
		guard:        guard,
		widgetSecret: widgetSecret,
	}
}

// RequireSession rejects the request unless it carries a live session
// token. A valid pass also extends the session's expiry.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)

		status, session := m.guard.Validate(c.Request.Context(), token)
		switch status {
		case auth.StatusValid:
			c.Set("session", session)
			c.Set("user_id", session.UserID)
			c.Next()
		case auth.StatusExpired:
			utils.RespondWithSessionExpired(c)
			c.Abort()
		case auth.StatusAbsent:
			utils.RespondWithUnauthorized(c, "Authentication token required")
			c.Abort()
		default:
			utils.RespondWithUnauthorized(c, "Invalid authentication token")
			c.Abort()
		}
	}
}

// RequireSessionOrWidget accepts either a live session or a signed
// widget token. Widget callers get tenant identity but no user.
func (m *AuthMiddleware) RequireSessionOrWidget() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)

		status, session := m.guard.Validate(c.Request.Context(), token)
		if status == auth.StatusValid {
			c.Set("session", session)
			c.Set("user_id", session.UserID)
			c.Next()
			return
		}

		if widgetToken := c.GetHeader("X-Widget-Token"); widgetToken != "" && len(m.widgetSecret) > 0 {
			claims, err := auth.ValidateWidgetToken(m.widgetSecret, widgetToken)
			if err == nil {
				c.Set("tenant_id", claims.TenantID)
				c.Next()
				return
			}
		}

		if status == auth.StatusExpired {
			utils.RespondWithSessionExpired(c)
		} else {
			utils.RespondWithUnauthorized(c, "Authentication required")
		}
		c.Abort()
	}
}

// OptionalSession attaches session identity when a valid token is
// present but never blocks the request.
func (m *AuthMiddleware) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token != "" {
			if status, session := m.guard.Validate(c.Request.Context(), token); status == auth.StatusValid {
				c.Set("session", session)
				c.Set("user_id", session.UserID)
			}
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user ID from context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get("user_id"); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}
