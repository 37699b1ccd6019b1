package billing

import "errors"

var (
	// ErrUnmappedCustomer means an event's customer could not be resolved
	// to an internal user. Soft-acknowledged: erroring would make the
	// processor redeliver forever.
	ErrUnmappedCustomer = errors.New("customer has no user mapping")

	// ErrUnknownPrice means an event referenced a price identifier absent
	// from the configured price table. Soft-acknowledged to protect
	// against partial configuration rollouts.
	ErrUnknownPrice = errors.New("price identifier not in price table")

	// ErrPriceNotConfigured means checkout was requested for a plan/period
	// combination with no configured price identifier.
	ErrPriceNotConfigured = errors.New("no price configured for plan and period")

	// ErrNoBillingProfile means the user has no customer mapping yet, so
	// there is nothing to open a billing portal for.
	ErrNoBillingProfile = errors.New("user has no billing profile")

	ErrEntitlementNotFound = errors.New("entitlement not found")
)
