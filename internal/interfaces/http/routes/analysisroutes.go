package routes

import (
	"github.com/gin-gonic/gin"

	domainUsage "chartly/internal/domain/usage"
	analysisHandlers "chartly/internal/interfaces/http/handlers/analysis"
	"chartly/internal/interfaces/http/middleware"
)

// AnalysisRouteConfig holds dependencies for the metered analysis route.
type AnalysisRouteConfig struct {
	AnalysisHandler *analysisHandlers.AnalysisHandler
	RateLimit       *middleware.RateLimitMiddleware
	UsageLimit      *middleware.UsageLimitMiddleware
}

// SetupAnalysisRoutes configures the metered analysis endpoint. Order
// matters: the cheap rate check runs before the quota check so bursts are
// shed without consuming quota.
func SetupAnalysisRoutes(engine *gin.Engine, cfg *AnalysisRouteConfig) {
	analysis := engine.Group("/api/analysis")
	analysis.Use(middleware.RequireIdentity())
	analysis.Use(cfg.RateLimit.Limit("analysis"))
	analysis.Use(cfg.UsageLimit.Gate(domainUsage.ResourceAnalysis))
	{
		analysis.POST("", cfg.AnalysisHandler.Analyze)
	}
}
