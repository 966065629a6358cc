package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/interfaces"
	"github.com/fintrackhq/fintrack/internal/models"
)

// Store implements interfaces.LedgerStore and interfaces.UserStore on top of
// Postgres. Each *TransactionRow method wraps the row write and the balance
// update in one SQL transaction, so a failure midway rolls back both and the
// balance invariant is never observable in a torn state.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAccount(ctx context.Context, acc *models.Account) error {
	const query = `INSERT INTO accounts (id, user_id, name, balance, created_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, acc.ID, acc.UserID, acc.Name, acc.Balance, acc.CreatedAt)
	return err
}

func (s *Store) GetAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	const query = `SELECT id, user_id, name, balance, created_at FROM accounts
	WHERE user_id = $1
	ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Balance, &acc.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	const query = `SELECT id, user_id, name, balance, created_at FROM accounts
	WHERE id = $1 AND user_id = $2`

	var acc models.Account
	err := s.db.QueryRowContext(ctx, query, accountID, userID).
		Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Balance, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Store) UpdateAccount(ctx context.Context, acc *models.Account) error {
	const query = `UPDATE accounts SET name = $3, balance = $4
	WHERE id = $1 AND user_id = $2`

	res, err := s.db.ExecContext(ctx, query, acc.ID, acc.UserID, acc.Name, acc.Balance)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	// Transactions go with it via ON DELETE CASCADE.
	const query = `DELETE FROM accounts WHERE id = $1 AND user_id = $2`

	res, err := s.db.ExecContext(ctx, query, accountID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

func (s *Store) CreateTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error {
	const insert = `INSERT INTO transactions (id, account_id, amount, type, description, date)
	VALUES ($1, $2, $3, $4, $5, $6)`

	return s.withBalanceUpdate(ctx, tx.AccountID, delta, func(dbTx *sql.Tx) error {
		_, err := dbTx.ExecContext(ctx, insert, tx.ID, tx.AccountID, tx.Amount, tx.Type, tx.Description, tx.Date)
		return err
	})
}

func (s *Store) UpdateTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error {
	const update = `UPDATE transactions SET amount = $2, type = $3, description = $4
	WHERE id = $1`

	return s.withBalanceUpdate(ctx, tx.AccountID, delta, func(dbTx *sql.Tx) error {
		res, err := dbTx.ExecContext(ctx, update, tx.ID, tx.Amount, tx.Type, tx.Description)
		if err != nil {
			return err
		}
		return oneRow(res, "transaction not found")
	})
}

func (s *Store) DeleteTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error {
	const del = `DELETE FROM transactions WHERE id = $1`

	return s.withBalanceUpdate(ctx, tx.AccountID, delta, func(dbTx *sql.Tx) error {
		res, err := dbTx.ExecContext(ctx, del, tx.ID)
		if err != nil {
			return err
		}
		return oneRow(res, "transaction not found")
	})
}

// withBalanceUpdate runs fn and the account balance adjustment in one SQL
// transaction; both commit or both roll back.
func (s *Store) withBalanceUpdate(ctx context.Context, accountID string, delta decimal.Decimal, fn func(*sql.Tx) error) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = fn(dbTx); err != nil {
		return err
	}

	const balance = `UPDATE accounts SET balance = balance + $2 WHERE id = $1`
	var res sql.Result
	if res, err = dbTx.ExecContext(ctx, balance, accountID, delta); err != nil {
		return err
	}
	if err = oneRow(res, "account not found"); err != nil {
		return err
	}
	return dbTx.Commit()
}

func (s *Store) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	// Ownership resolves through the account join; a foreign transaction looks
	// exactly like a missing one.
	const query = `SELECT t.id, t.account_id, t.amount, t.type, t.description, t.date
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	WHERE t.id = $1 AND a.user_id = $2`

	var tx models.Transaction
	err := s.db.QueryRowContext(ctx, query, transactionID, userID).
		Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Type, &tx.Description, &tx.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transaction not found")
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) GetTransactionsByAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	if _, err := s.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	// seq breaks date ties in insertion order.
	const query = `SELECT id, account_id, amount, type, description, date
	FROM transactions
	WHERE account_id = $1
	ORDER BY date DESC, seq`

	return s.queryTransactions(ctx, query, accountID)
}

func (s *Store) GetTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	const query = `SELECT t.id, t.account_id, t.amount, t.type, t.description, t.date
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	WHERE a.user_id = $1
	ORDER BY t.seq`

	return s.queryTransactions(ctx, query, userID)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Type, &tx.Description, &tx.Date); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func oneRow(res sql.Result, missing string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(missing)
	}
	return nil
}

var (
	_ interfaces.LedgerStore = (*Store)(nil)
	_ interfaces.UserStore   = (*Store)(nil)
)
