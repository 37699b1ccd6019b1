package billing

import (
	"context"
	"time"
)

// RecordOutcome is the result of recording an inbound billing event.
type RecordOutcome int

const (
	// RecordInserted means the event was seen for the first time.
	RecordInserted RecordOutcome = iota
	// RecordDuplicate means the event was already recorded; the delivery
	// is a processor retry and must be acknowledged without reprocessing.
	RecordDuplicate
)

// LedgerEntry is one write-once row in the billing event ledger, keyed by
// the processor's event identifier.
type LedgerEntry struct {
	EventID   string
	Type      string
	CreatedAt time.Time
	Payload   []byte
}

// EventLedger converts the processor's at-least-once delivery into
// effectively-once processing. Record must never fail on a duplicate key;
// any other storage failure propagates so the caller can force redelivery.
type EventLedger interface {
	Record(ctx context.Context, entry *LedgerEntry) (RecordOutcome, error)
}
