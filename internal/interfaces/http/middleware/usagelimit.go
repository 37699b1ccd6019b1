package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainUsage "chartly/internal/domain/usage"
	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
	"chartly/internal/shared/utils"
)

// UsageChecker is the slice of the gatekeeper the usage middleware needs.
type UsageChecker interface {
	CheckUsage(ctx context.Context, userID string, resource domainUsage.ResourceType) (domainUsage.Decision, error)
}

type UsageLimitMiddleware struct {
	checker UsageChecker
	logger  logger.Interface
}

func NewUsageLimitMiddleware(checker UsageChecker, logger logger.Interface) *UsageLimitMiddleware {
	return &UsageLimitMiddleware{
		checker: checker,
		logger:  logger,
	}
}

// Gate consumes one unit of the user's monthly quota for the resource
// before the handler runs. Exhausted quota gets the structured 402 denial.
// A counter store error is a hard 500: unlike the rate limiter, usage must
// never fail open, that would grant more than the user paid for.
func (m *UsageLimitMiddleware) Gate(resource domainUsage.ResourceType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			c.Abort()
			return
		}

		decision, err := m.checker.CheckUsage(c.Request.Context(), userID, resource)
		if err != nil {
			m.logger.Errorw("usage check failed",
				"error", err,
				"resource", resource,
				"user_id", userID,
			)
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to check usage limits")
			c.Abort()
			return
		}

		c.Header("X-Usage-Used", strconv.FormatInt(decision.Used, 10))
		c.Header("X-Usage-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Header("X-Usage-Remaining", strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			utils.ErrorResponseWithError(c, errors.NewUsageLimitError(decision.Used, decision.Limit, decision.ResetAt))
			c.Abort()
			return
		}

		c.Next()
	}
}
