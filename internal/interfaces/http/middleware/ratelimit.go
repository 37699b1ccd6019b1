package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chartly/internal/infrastructure/ratelimit"
	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
	"chartly/internal/shared/utils"
)

// RateChecker is the slice of the gatekeeper the rate middleware needs.
type RateChecker interface {
	CheckRate(ctx context.Context, userID, endpoint string) (ratelimit.Result, error)
}

type RateLimitMiddleware struct {
	checker RateChecker
	logger  logger.Interface
}

func NewRateLimitMiddleware(checker RateChecker, logger logger.Interface) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		checker: checker,
		logger:  logger,
	}
}

// Limit enforces the per-user fixed-window limit configured for the named
// endpoint. Limiter outages fail open inside the checker; the middleware
// only ever sees an allow or a deny.
func (m *RateLimitMiddleware) Limit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			// RequireIdentity runs first on every limited route.
			c.Next()
			return
		}

		result, err := m.checker.CheckRate(c.Request.Context(), userID, endpoint)
		if err != nil {
			m.logger.Errorw("rate check failed",
				"error", err,
				"endpoint", endpoint,
				"user_id", userID,
			)
			c.Next()
			return
		}

		if result.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		}

		if !result.Allowed {
			retryAfter := result.RetryAfter(time.Now())
			secs := int64(retryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			utils.ErrorResponseWithError(c, errors.NewRateLimitedError(retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
