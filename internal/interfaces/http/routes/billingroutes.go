package routes

import (
	"github.com/gin-gonic/gin"

	billingHandlers "chartly/internal/interfaces/http/handlers/billing"
	"chartly/internal/interfaces/http/middleware"
)

// BillingRouteConfig holds dependencies for billing routes.
type BillingRouteConfig struct {
	WebhookHandler     *billingHandlers.WebhookHandler
	CheckoutHandler    *billingHandlers.CheckoutHandler
	EntitlementHandler *billingHandlers.EntitlementHandler
}

// SetupBillingRoutes configures the webhook sink and the authenticated
// billing endpoints. The webhook route carries no identity middleware:
// the processor authenticates by signature, not by session.
func SetupBillingRoutes(engine *gin.Engine, cfg *BillingRouteConfig) {
	engine.POST("/webhooks/billing", cfg.WebhookHandler.HandleWebhook)

	billing := engine.Group("/api/billing")
	billing.Use(middleware.RequireIdentity())
	{
		billing.POST("/checkout", cfg.CheckoutHandler.StartCheckout)
		billing.POST("/portal", cfg.CheckoutHandler.StartPortal)
		billing.GET("/entitlement", cfg.EntitlementHandler.GetEntitlement)
	}
}
