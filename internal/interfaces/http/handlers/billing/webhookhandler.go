// Package billing exposes the HTTP surface of the billing gateway: the
// processor webhook sink, the checkout/portal bridge, and the entitlement
// read endpoint.
package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"

	"chartly/internal/shared/errors"
	"chartly/internal/shared/logger"
	"chartly/internal/shared/utils"
)

const signatureHeader = "Stripe-Signature"

// EventProcessor consumes a verified webhook event.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, eventID, eventType string, createdAt time.Time, payload []byte) error
}

type WebhookHandler struct {
	processor     EventProcessor
	webhookSecret string
	logger        logger.Interface
}

func NewWebhookHandler(processor EventProcessor, webhookSecret string, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		processor:     processor,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleWebhook verifies the delivery signature against the raw body and
// hands the event to the reconciler. Verification runs before any parsing
// or storage: an unverifiable delivery must leave no trace, not even a
// ledger row.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	// The SDK pins a newer API version than the webhook endpoint is
	// configured for; the signature check is what authenticates.
	event, err := webhook.ConstructEventWithOptions(body, c.GetHeader(signatureHeader), h.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.logger.Warnw("webhook signature verification failed",
			"error", err,
			"client_ip", c.ClientIP(),
		)
		utils.ErrorResponseWithError(c, errors.NewSignatureInvalidError())
		return
	}

	err = h.processor.ProcessEvent(
		c.Request.Context(),
		event.ID,
		string(event.Type),
		time.Unix(event.Created, 0).UTC(),
		event.Data.Raw,
	)
	if err != nil {
		h.logger.Errorw("failed to process webhook event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "event processed", nil)
}
