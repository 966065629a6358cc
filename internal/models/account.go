package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account groups a user's transactions and carries their running balance.
// Invariant: Balance equals the sum of SignedAmount over the account's
// transactions. All balance changes flow through the ledger service.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
