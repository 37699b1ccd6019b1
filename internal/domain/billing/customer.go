package billing

import (
	"context"
	"time"
)

// CustomerMapping links an internal user to the processor's customer id.
// At most one row exists per user; it is created lazily on first checkout
// or on the first webhook event that reveals the customer, and is never
// deleted in normal operation.
type CustomerMapping struct {
	UserID             string
	ExternalCustomerID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CustomerMappingRepository resolves identities in both directions.
// A missing mapping is a normal empty result, not an error.
type CustomerMappingRepository interface {
	// UpsertCustomer creates or replaces the mapping for the user.
	// Last write wins on user_id conflict.
	UpsertCustomer(ctx context.Context, userID, externalCustomerID string) error

	// LookupCustomerByUser returns "" when no mapping exists.
	LookupCustomerByUser(ctx context.Context, userID string) (string, error)

	// LookupUserByCustomer returns "" when no mapping exists.
	LookupUserByCustomer(ctx context.Context, externalCustomerID string) (string, error)
}
