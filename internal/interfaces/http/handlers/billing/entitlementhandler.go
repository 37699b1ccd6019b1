package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainBilling "chartly/internal/domain/billing"
	domainUsage "chartly/internal/domain/usage"
	"chartly/internal/interfaces/http/middleware"
	"chartly/internal/shared/logger"
	"chartly/internal/shared/utils"
)

// EntitlementReader resolves the user's governing entitlement.
type EntitlementReader interface {
	ActiveEntitlement(ctx context.Context, userID string) (*domainBilling.Entitlement, error)
}

// UsageReader reports current consumption without incrementing.
type UsageReader interface {
	CurrentUsage(ctx context.Context, userID string, resource domainUsage.ResourceType) (domainUsage.Decision, error)
}

type EntitlementHandler struct {
	entitlements EntitlementReader
	usage        UsageReader
	logger       logger.Interface
}

func NewEntitlementHandler(entitlements EntitlementReader, usage UsageReader, logger logger.Interface) *EntitlementHandler {
	return &EntitlementHandler{
		entitlements: entitlements,
		usage:        usage,
		logger:       logger,
	}
}

type EntitlementResponse struct {
	PlanID            string        `json:"plan_id"`
	Status            string        `json:"status,omitempty"`
	PeriodEnd         *string       `json:"period_end,omitempty"`
	CancelAtPeriodEnd bool          `json:"cancel_at_period_end,omitempty"`
	Usage             UsageResponse `json:"usage"`
}

type UsageResponse struct {
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
	ResetAt   string `json:"reset_at"`
}

// GetEntitlement reports the user's current plan with the month's usage
// figures. Users with nothing granted read as the free plan, never as an
// error.
func (h *EntitlementHandler) GetEntitlement(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	entitlement, err := h.entitlements.ActiveEntitlement(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to resolve entitlement", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	usage, err := h.usage.CurrentUsage(c.Request.Context(), userID, domainUsage.ResourceAnalysis)
	if err != nil {
		h.logger.Errorw("failed to read usage", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	response := EntitlementResponse{
		PlanID: string(domainBilling.PlanFree),
		Usage: UsageResponse{
			Used:      usage.Used,
			Limit:     usage.Limit,
			Remaining: usage.Remaining,
			ResetAt:   usage.ResetAt.UTC().Format(time.RFC3339),
		},
	}

	if entitlement != nil {
		response.PlanID = string(entitlement.PlanID())
		response.Status = string(entitlement.Status())
		response.CancelAtPeriodEnd = entitlement.CancelAtPeriodEnd()
		periodEnd := entitlement.PeriodEnd().UTC().Format(time.RFC3339)
		response.PeriodEnd = &periodEnd
	}

	utils.OKResponse(c, response)
}
