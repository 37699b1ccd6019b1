// Package http assembles the gateway's HTTP surface: it wires
// repositories, application services and handlers, and registers routes.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appAnalysis "chartly/internal/application/analysis"
	appBilling "chartly/internal/application/billing"
	appUsage "chartly/internal/application/usage"
	domainBilling "chartly/internal/domain/billing"
	"chartly/internal/infrastructure/config"
	"chartly/internal/infrastructure/payment"
	"chartly/internal/infrastructure/ratelimit"
	"chartly/internal/infrastructure/repository"
	analysisHandlers "chartly/internal/interfaces/http/handlers/analysis"
	billingHandlers "chartly/internal/interfaces/http/handlers/billing"
	"chartly/internal/interfaces/http/middleware"
	"chartly/internal/interfaces/http/routes"
	sharedConfig "chartly/internal/shared/config"
	"chartly/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	logger logger.Interface

	webhookHandler     *billingHandlers.WebhookHandler
	checkoutHandler    *billingHandlers.CheckoutHandler
	entitlementHandler *billingHandlers.EntitlementHandler
	analysisHandler    *analysisHandlers.AnalysisHandler
	rateLimitMW        *middleware.RateLimitMiddleware
	usageLimitMW       *middleware.UsageLimitMiddleware
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	registerValidators()

	prices := buildPriceTable(&cfg.Billing)
	usageLimits := buildUsageLimits(&cfg.Billing)

	ledger := repository.NewBillingEventRepository(db, log)
	mappings := repository.NewCustomerMappingRepository(db, log)
	entitlements := repository.NewEntitlementRepository(db, log)
	counters := repository.NewUsageCounterRepository(db, log)

	gateway := payment.NewStripeClient(&cfg.Billing, log)
	limiter := ratelimit.NewRedisRateLimiter(redisClient)

	reconciler := appBilling.NewReconciler(ledger, mappings, entitlements, prices, log)
	entitlementSvc := appBilling.NewEntitlementService(entitlements, log)
	checkoutSvc := appBilling.NewCheckoutService(gateway, mappings, entitlements, prices, log)
	gatekeeper := appUsage.NewGatekeeper(counters, limiter, entitlementSvc, usageLimits, cfg.Billing.RateLimits, log)

	analyzer := appAnalysis.NewUpstreamAnalyzer(cfg.Server.AnalysisUpstream, log)

	return &Router{
		engine: engine,
		cfg:    cfg,
		logger: log,

		webhookHandler:     billingHandlers.NewWebhookHandler(reconciler, cfg.Billing.WebhookSecret, log),
		checkoutHandler:    billingHandlers.NewCheckoutHandler(checkoutSvc, log),
		entitlementHandler: billingHandlers.NewEntitlementHandler(entitlementSvc, gatekeeper, log),
		analysisHandler:    analysisHandlers.NewAnalysisHandler(analyzer, log),
		rateLimitMW:        middleware.NewRateLimitMiddleware(gatekeeper, log),
		usageLimitMW:       middleware.NewUsageLimitMiddleware(gatekeeper, log),
	}
}

// SetupRoutes installs the middleware chain and registers all routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))

	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupBillingRoutes(r.engine, &routes.BillingRouteConfig{
		WebhookHandler:     r.webhookHandler,
		CheckoutHandler:    r.checkoutHandler,
		EntitlementHandler: r.entitlementHandler,
	})

	routes.SetupAnalysisRoutes(r.engine, &routes.AnalysisRouteConfig{
		AnalysisHandler: r.analysisHandler,
		RateLimit:       r.rateLimitMW,
		UsageLimit:      r.usageLimitMW,
	})
}

// GetEngine returns the underlying Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// registerValidators installs custom binding rules on Gin's validator.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
			return domainBilling.ValidPlans[domainBilling.PlanID(fl.Field().String())]
		})
	}
}

// buildPriceTable translates configured price identifiers into the static
// bidirectional lookup the reconciler and checkout bridge share.
func buildPriceTable(cfg *sharedConfig.BillingConfig) *domainBilling.PriceTable {
	entries := make(map[string]domainBilling.PricePoint)
	for plan, prices := range cfg.Prices {
		planID := domainBilling.PlanID(plan)
		if prices.Monthly != "" {
			entries[prices.Monthly] = domainBilling.PricePoint{PlanID: planID, Period: domainBilling.PeriodMonthly}
		}
		if prices.Yearly != "" {
			entries[prices.Yearly] = domainBilling.PricePoint{PlanID: planID, Period: domainBilling.PeriodYearly}
		}
		if prices.OneTime != "" {
			entries[prices.OneTime] = domainBilling.PricePoint{PlanID: planID, Period: domainBilling.PeriodOneTime}
		}
	}
	return domainBilling.NewPriceTable(entries)
}

func buildUsageLimits(cfg *sharedConfig.BillingConfig) map[domainBilling.PlanID]int64 {
	limits := make(map[domainBilling.PlanID]int64, len(cfg.UsageLimits))
	for plan, limit := range cfg.UsageLimits {
		limits[domainBilling.PlanID(plan)] = limit
	}
	return limits
}
