package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic is the Kafka topic ledger events are written to.
const Topic = "ledger_events"

// Event types emitted after a committed ledger mutation.
const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
)

// LedgerEvent describes a committed transaction mutation. Published
// best-effort; consumers must tolerate gaps.
type LedgerEvent struct {
	EventType     string          `json:"event_type"`
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
