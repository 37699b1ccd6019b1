package errors

import (
	"net/http"
	"time"
)

// Billing-specific error types. These map directly onto the webhook and
// metered-endpoint response contract: server errors force the processor to
// redeliver, everything else is a legitimate business outcome.
const (
	ErrorTypeSignatureInvalid ErrorType = "signature_invalid"
	ErrorTypeUsageLimit       ErrorType = "usage_limit_reached"
	ErrorTypeRateLimited      ErrorType = "rate_limited"
	ErrorTypeNoBillingProfile ErrorType = "no_billing_profile"
	ErrorTypeStoreFailure     ErrorType = "store_failure"
)

// NewSignatureInvalidError rejects an unverifiable webhook delivery.
// Client error on purpose: redelivering a bad signature cannot succeed.
func NewSignatureInvalidError(details ...string) *AppError {
	return newAppError(ErrorTypeSignatureInvalid, http.StatusBadRequest, "webhook signature verification failed", details...)
}

// NewUsageLimitError builds the structured denial for an exhausted monthly
// quota. The figures drive upgrade prompts in the calling UI.
func NewUsageLimitError(used, limit int64, resetAt time.Time) *AppError {
	e := newAppError(ErrorTypeUsageLimit, http.StatusPaymentRequired, "monthly usage limit reached")
	e.WithMeta("used", used)
	e.WithMeta("limit", limit)
	e.WithMeta("reset_at", resetAt.UTC().Format(time.RFC3339))
	return e
}

// NewRateLimitedError builds the structured denial for a tripped
// fixed-window rate limit, with a retry-after hint in seconds.
func NewRateLimitedError(retryAfter time.Duration) *AppError {
	e := newAppError(ErrorTypeRateLimited, http.StatusTooManyRequests, "too many requests")
	secs := int64(retryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	e.WithMeta("retry_after", secs)
	return e
}

// NewNoBillingProfileError signals that the user has no processor customer
// yet. Distinct from a generic not-found so the UI can route to checkout.
func NewNoBillingProfileError() *AppError {
	return newAppError(ErrorTypeNoBillingProfile, http.StatusNotFound, "no billing profile for user")
}

// NewStoreFailureError wraps a storage error that must surface as a server
// error, forcing the processor to redeliver the event.
func NewStoreFailureError(details ...string) *AppError {
	return newAppError(ErrorTypeStoreFailure, http.StatusInternalServerError, "billing store operation failed", details...)
}
