package billing

import (
	"context"
	"fmt"
	"time"

	domainBilling "chartly/internal/domain/billing"
	"chartly/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}

// memLedger is an in-memory event ledger keyed by event id.
type memLedger struct {
	seen map[string]bool
	fail bool
}

func newMemLedger() *memLedger {
	return &memLedger{seen: make(map[string]bool)}
}

func (l *memLedger) Record(ctx context.Context, entry *domainBilling.LedgerEntry) (domainBilling.RecordOutcome, error) {
	if l.fail {
		return 0, fmt.Errorf("ledger unavailable")
	}
	if l.seen[entry.EventID] {
		return domainBilling.RecordDuplicate, nil
	}
	l.seen[entry.EventID] = true
	return domainBilling.RecordInserted, nil
}

// memMappings is an in-memory customer mapping store.
type memMappings struct {
	byUser     map[string]string
	byCustomer map[string]string
	fail       bool
}

func newMemMappings() *memMappings {
	return &memMappings{
		byUser:     make(map[string]string),
		byCustomer: make(map[string]string),
	}
}

func (m *memMappings) UpsertCustomer(ctx context.Context, userID, externalCustomerID string) error {
	if m.fail {
		return fmt.Errorf("mapping store unavailable")
	}
	if old, ok := m.byUser[userID]; ok {
		delete(m.byCustomer, old)
	}
	m.byUser[userID] = externalCustomerID
	m.byCustomer[externalCustomerID] = userID
	return nil
}

func (m *memMappings) LookupCustomerByUser(ctx context.Context, userID string) (string, error) {
	if m.fail {
		return "", fmt.Errorf("mapping store unavailable")
	}
	return m.byUser[userID], nil
}

func (m *memMappings) LookupUserByCustomer(ctx context.Context, externalCustomerID string) (string, error) {
	if m.fail {
		return "", fmt.Errorf("mapping store unavailable")
	}
	return m.byCustomer[externalCustomerID], nil
}

// memEntitlements is an in-memory entitlement store keyed by the external
// subscription id, mirroring the repository's upsert semantics.
type memEntitlements struct {
	records map[string]*domainBilling.Entitlement
	fail    bool
}

func newMemEntitlements() *memEntitlements {
	return &memEntitlements{records: make(map[string]*domainBilling.Entitlement)}
}

func (m *memEntitlements) Upsert(ctx context.Context, e *domainBilling.Entitlement) error {
	if m.fail {
		return fmt.Errorf("entitlement store unavailable")
	}
	m.records[e.ExternalSubscriptionID()] = e
	return nil
}

func (m *memEntitlements) GetByExternalSubscriptionID(ctx context.Context, externalSubscriptionID string) (*domainBilling.Entitlement, error) {
	e, ok := m.records[externalSubscriptionID]
	if !ok {
		return nil, domainBilling.ErrEntitlementNotFound
	}
	return e, nil
}

func (m *memEntitlements) GetByUser(ctx context.Context, userID string) ([]*domainBilling.Entitlement, error) {
	var out []*domainBilling.Entitlement
	for _, e := range m.records {
		if e.UserID() == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEntitlements) GetGrantedByUser(ctx context.Context, userID string, now time.Time) ([]*domainBilling.Entitlement, error) {
	if m.fail {
		return nil, fmt.Errorf("entitlement store unavailable")
	}
	var out []*domainBilling.Entitlement
	for _, e := range m.records {
		if e.UserID() == userID && e.IsGranted(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func testPriceTable() *domainBilling.PriceTable {
	return domainBilling.NewPriceTable(map[string]domainBilling.PricePoint{
		"price_pro_monthly": {PlanID: domainBilling.PlanPro, Period: domainBilling.PeriodMonthly},
		"price_pro_yearly":  {PlanID: domainBilling.PlanPro, Period: domainBilling.PeriodYearly},
		"price_pass":        {PlanID: domainBilling.PlanPass, Period: domainBilling.PeriodOneTime},
		"price_lifetime":    {PlanID: domainBilling.PlanLifetime, Period: domainBilling.PeriodOneTime},
	})
}
