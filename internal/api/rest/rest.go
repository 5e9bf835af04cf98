package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/democracy-watch/congress-indexer/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Member endpoints (public read access)
		v1.GET("/members", handler.ListMembers)
		v1.GET("/members/:bioguideId", handler.GetMember)
		v1.GET("/members/:bioguideId/votes", handler.ListMemberVotes)

		// Bill endpoints (public read access)
		v1.GET("/bills", handler.ListBills)
		v1.GET("/bills/:congress/:billType/:billNumber", handler.GetBill)

		// Roll call endpoints (public read access)
		v1.GET("/roll-calls", handler.ListRollCalls)
		v1.GET("/roll-calls/:congress/:chamber/:session/:rollNumber", handler.GetRollCall)

		// District lookup (public read access)
		v1.GET("/districts/:zipCode", handler.GetDistrictByZip)

		// Sync triggers (requires API key authentication)
		v1.POST("/sync/congress", middleware.APIKeyAuth(authCfg), handler.TriggerCongressSync)
		v1.POST("/sync/zip-districts", middleware.APIKeyAuth(authCfg), handler.TriggerZipDistrictSync)
	}
}
