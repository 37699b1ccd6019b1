package billing

import (
	"context"
	"time"
)

// EntitlementRepository persists the canonical entitlement records.
type EntitlementRepository interface {
	// Upsert inserts or overwrites the record keyed by its external
	// subscription id as a single atomic conditional write. Concurrent
	// deliveries for the same subscription must not produce lost updates.
	Upsert(ctx context.Context, e *Entitlement) error

	// GetByExternalSubscriptionID returns ErrEntitlementNotFound when
	// no record exists.
	GetByExternalSubscriptionID(ctx context.Context, externalSubscriptionID string) (*Entitlement, error)

	// GetByUser returns every entitlement record for the user, most
	// recent period first.
	GetByUser(ctx context.Context, userID string) ([]*Entitlement, error)

	// GetGrantedByUser returns the records with an unexpired period at
	// the given instant. Active-plan selection happens in the domain via
	// SelectActive.
	GetGrantedByUser(ctx context.Context, userID string, now time.Time) ([]*Entitlement, error)
}
