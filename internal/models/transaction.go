package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType partitions transactions into money coming in and money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a single ledger movement against one account.
// Amount is always positive; the direction comes from Type.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

// SignedAmount is the transaction's contribution to its account balance:
// +Amount for income, -Amount for expense.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
