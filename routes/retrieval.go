package routes

import (
	"errors"
	"net/http"

	"chatbot-retrieval-core/internal/config"
	"chatbot-retrieval-core/middleware"
	"chatbot-retrieval-core/models"
	"chatbot-retrieval-core/services"
	"chatbot-retrieval-core/utils"

	"github.com/gin-gonic/gin"
)

func SetupRetrievalRoutes(router *gin.Engine, cfg *config.Config, retrieval *services.RetrievalService, authMw *middleware.AuthMiddleware) {
	group := router.Group("/retrieval")
	if cfg.RetrievalRequireSession {
		group.Use(authMw.RequireSessionOrWidget())
	} else {
		group.Use(authMw.OptionalSession())
	}

	group.POST("/context", func(c *gin.Context) {
		var req models.ContextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		limit := req.Limit
		if limit <= 0 {
			limit = cfg.ContextLimit
		}

		fragments, err := retrieval.GetContext(c.Request.Context(), req.Query, limit)
		if err != nil {
			if errors.Is(err, services.ErrEmptyQuery) {
				utils.RespondWithBadRequest(c, "Query must not be empty", nil)
				return
			}
			utils.RespondWithInternalError(c, "Retrieval failed", nil)
			return
		}

		c.JSON(http.StatusOK, models.ContextResponse{
			Context: fragments,
			Count:   len(fragments),
		})
	})
}
