package routes

import (
	"net/http"

	"chatbot-retrieval-core/internal/auth"
	"chatbot-retrieval-core/internal/clock"
	"chatbot-retrieval-core/internal/config"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/middleware"
	"chatbot-retrieval-core/models"
	"chatbot-retrieval-core/utils"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, guard *auth.SessionGuard, users store.UserStore) {
	group := router.Group("/auth")

	group.POST("/register", func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if _, err := users.GetByUsername(c.Request.Context(), req.Username); err == nil {
			utils.RespondWithError(c, http.StatusConflict, "username_exists", "Username already exists", nil)
			return
		}

		hashed, err := utils.HashPassword(req.Password, cfg.BcryptCost)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to process registration", nil)
			return
		}

		user := &models.User{
			Username:     req.Username,
			PasswordHash: hashed,
		}
		if err := users.Create(c.Request.Context(), user); err != nil {
			logger.Error("failed to create user", "username", req.Username, "error", err)
			utils.RespondWithInternalError(c, "Failed to create account", nil)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"user_id": user.ID.Hex(), "username": user.Username})
	})

	group.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		user, err := users.GetByUsername(c.Request.Context(), req.Username)
		if err != nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		session, err := guard.Issue(c.Request.Context(), user.ID.Hex())
		if err != nil {
			logger.Error("failed to issue session", "user_id", user.ID, "error", err)
			utils.RespondWithInternalError(c, "Failed to create session", nil)
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			UserID:    session.UserID,
		})
	})

	// Validating a session is itself a use of it, so a passing check
	// pushes the expiry forward.
	group.GET("/session", func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)

		status, session := guard.Validate(c.Request.Context(), token)
		switch status {
		case auth.StatusValid:
			c.JSON(http.StatusOK, models.SessionStatusResponse{
				Status:    status.String(),
				UserID:    session.UserID,
				ExpiresAt: session.ExpiresAt,
			})
		case auth.StatusExpired:
			utils.RespondWithSessionExpired(c)
		case auth.StatusAbsent:
			utils.RespondWithError(c, http.StatusUnauthorized, "token_missing", "Authentication token required", nil)
		default:
			utils.RespondWithError(c, http.StatusUnauthorized, "token_invalid", "Invalid authentication token", nil)
		}
	})

	// Logout is idempotent: revoking an unknown or already revoked token
	// still succeeds. Only a request with no token at all is an error.
	group.POST("/logout", func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "token_missing", "No token supplied", nil)
			return
		}

		if err := guard.Revoke(c.Request.Context(), token); err != nil {
			logger.Error("failed to revoke session", "error", err)
			utils.RespondWithInternalError(c, "Failed to log out", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
	})
}

// SetupWidgetRoutes exposes widget token issuance for embedded, sessionless
// chat surfaces. Issuance itself requires a live session.
func SetupWidgetRoutes(router *gin.Engine, cfg *config.Config, authMw *middleware.AuthMiddleware, clk clock.Clock) {
	group := router.Group("/widget")
	group.Use(authMw.RequireSession())

	group.POST("/token", func(c *gin.Context) {
		if cfg.WidgetSecret == "" {
			utils.RespondWithError(c, http.StatusNotImplemented, "widget_disabled", "Widget tokens are not configured", nil)
			return
		}

		var req struct {
			TenantID string `json:"tenant_id" binding:"required"`
			Origin   string `json:"origin" binding:"required,url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		token, err := auth.IssueWidgetToken([]byte(cfg.WidgetSecret), req.TenantID, req.Origin, clk.Now())
		if err != nil {
			logger.Error("failed to issue widget token", "tenant_id", req.TenantID, "error", err)
			utils.RespondWithInternalError(c, "Failed to issue widget token", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	})
}
