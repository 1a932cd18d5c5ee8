package routes

import (
	"net/http"

	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/middleware"
	"chatbot-retrieval-core/models"
	"chatbot-retrieval-core/utils"

	"github.com/gin-gonic/gin"
)

const tenantListLimit = 100

func SetupTenantRoutes(router *gin.Engine, tenants *store.TenantStore, authMw *middleware.AuthMiddleware) {
	group := router.Group("/tenants")
	group.Use(authMw.RequireSession())

	// Provisioning is an upsert. Re-provisioning an existing tenant
	// overwrites its record, so racing calls converge on the last write.
	group.POST("/provision", func(c *gin.Context) {
		var req models.ProvisionTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		tenant := tenants.Provision(c.Request.Context(), models.Tenant{
			ID:   req.ID,
			Name: req.Name,
			Plan: req.Plan,
		})

		c.JSON(http.StatusOK, tenant)
	})

	group.GET("", func(c *gin.Context) {
		listed := tenants.List(c.Request.Context(), tenantListLimit)
		c.JSON(http.StatusOK, gin.H{
			"tenants": listed,
			"count":   len(listed),
		})
	})

	group.GET("/:id", func(c *gin.Context) {
		tenant := tenants.Get(c.Request.Context(), c.Param("id"))
		if tenant == nil {
			utils.RespondWithNotFound(c, "Tenant not found")
			return
		}
		c.JSON(http.StatusOK, tenant)
	})
}
