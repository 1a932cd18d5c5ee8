package routes

import (
	"net/http"

	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/middleware"
	"chatbot-retrieval-core/models"
	"chatbot-retrieval-core/utils"

	"github.com/gin-gonic/gin"
)

const defaultTenant = "default"

// preferenceTenant resolves which tenant's preferences the request is
// about. Widget callers carry it in their token, dashboard callers may
// pass ?tenant_id, otherwise the default tenant applies.
func preferenceTenant(c *gin.Context) string {
	if id, exists := c.Get("tenant_id"); exists {
		if str, ok := id.(string); ok && str != "" {
			return str
		}
	}
	if q := c.Query("tenant_id"); q != "" {
		return q
	}
	return defaultTenant
}

func SetupPreferenceRoutes(router *gin.Engine, prefs *store.PreferenceStore, authMw *middleware.AuthMiddleware) {
	group := router.Group("/preferences")
	group.Use(authMw.RequireSession())

	group.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, prefs.Get(c.Request.Context(), preferenceTenant(c)))
	})

	group.PUT("", func(c *gin.Context) {
		var req models.Preferences
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid preferences payload", gin.H{"error": err.Error()})
			return
		}

		merged := prefs.Put(c.Request.Context(), preferenceTenant(c), req)
		c.JSON(http.StatusOK, merged)
	})
}
