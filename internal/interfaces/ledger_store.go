package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fintrackhq/fintrack/internal/models"
)

// LedgerStore is the durable home of accounts and transactions. All lookups are
// scoped by the owning user; a row that exists but belongs to someone else is
// reported as not found.
//
// The three *TransactionRow methods mutate a transaction row and apply delta to
// the owning account's balance as one atomic unit. They are called only by the
// ledger service, never by handlers.
type LedgerStore interface {
	CreateAccount(ctx context.Context, acc *models.Account) error
	GetAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, acc *models.Account) error
	// DeleteAccount cascades to the account's transactions.
	DeleteAccount(ctx context.Context, userID, accountID string) error

	CreateTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error
	UpdateTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error
	DeleteTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error

	GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	// GetTransactionsByAccount returns the account's transactions ordered by
	// date descending, ties broken by insertion order.
	GetTransactionsByAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error)
	// GetTransactionsByUser returns every transaction across the user's
	// accounts, in insertion order.
	GetTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

// UserStore is the durable home of user records. DeleteUser cascades to the
// user's accounts and their transactions.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserTaken(ctx context.Context, username, email string) (bool, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error
}
