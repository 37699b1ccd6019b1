package billing

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainBilling "chartly/internal/domain/billing"
	"chartly/internal/interfaces/http/middleware"
	"chartly/internal/shared/logger"
	"chartly/internal/shared/utils"
)

// CheckoutStarter is the slice of the checkout service the handler needs.
type CheckoutStarter interface {
	StartCheckout(ctx context.Context, userID, email string, plan domainBilling.PlanID, period domainBilling.BillingPeriod) (string, error)
	StartPortalSession(ctx context.Context, userID string) (string, error)
}

type CheckoutHandler struct {
	checkout CheckoutStarter
	logger   logger.Interface
}

func NewCheckoutHandler(checkout CheckoutStarter, logger logger.Interface) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type StartCheckoutRequest struct {
	PlanID string `json:"plan_id" binding:"required,plan"`
	Period string `json:"period" binding:"omitempty,oneof=monthly yearly one_time"`
}

type SessionResponse struct {
	URL string `json:"url"`
}

// StartCheckout opens a processor checkout session for the requested plan
// and returns the redirect URL.
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("failed to bind checkout request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	period := domainBilling.BillingPeriod(req.Period)
	if period == "" {
		period = domainBilling.PeriodMonthly
	}

	email := c.GetString("user_email")

	url, err := h.checkout.StartCheckout(c.Request.Context(), userID, email, domainBilling.PlanID(req.PlanID), period)
	if err != nil {
		h.logger.Errorw("failed to start checkout",
			"error", err,
			"user_id", userID,
			"plan_id", req.PlanID,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, SessionResponse{URL: url})
}

// StartPortal opens the processor billing portal for the user's existing
// customer. Users without a billing profile get the distinct 404 so the UI
// routes them to checkout instead.
func (h *CheckoutHandler) StartPortal(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	url, err := h.checkout.StartPortalSession(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warnw("failed to start portal session",
			"error", err,
			"user_id", userID,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, SessionResponse{URL: url})
}
