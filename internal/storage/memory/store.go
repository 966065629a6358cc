package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/interfaces"
	"github.com/fintrackhq/fintrack/internal/models"
)

// Store is an in-memory implementation of interfaces.LedgerStore and
// interfaces.UserStore. Every method runs inside a single critical section, so
// the row-plus-balance writes are atomic the same way the Postgres store's
// transactions are. It exists for tests and local runs without a database.
type Store struct {
	mu           sync.Mutex
	users        map[string]models.User
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	seq          map[string]int64 // transaction id -> insertion sequence
	nextSeq      int64
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]models.User),
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
		seq:          make(map[string]int64),
	}
}

func (s *Store) CreateAccount(ctx context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[acc.ID] = *acc
	return nil
}

func (s *Store) GetAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Account
	for _, acc := range s.accounts {
		if acc.UserID == userID {
			result = append(result, acc)
		}
	}
	// Map iteration order is random; keep output deterministic.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOwnedAccount(userID, accountID)
}

// getOwnedAccount must be called with the lock held.
func (s *Store) getOwnedAccount(userID, accountID string) (*models.Account, error) {
	acc, ok := s.accounts[accountID]
	if !ok || acc.UserID != userID {
		return nil, apperr.NotFound("account not found")
	}
	copied := acc
	return &copied, nil
}

func (s *Store) UpdateAccount(ctx context.Context, acc *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[acc.ID]
	if !ok || existing.UserID != acc.UserID {
		return apperr.NotFound("account not found")
	}
	s.accounts[acc.ID] = *acc
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteAccountLocked(userID, accountID)
}

func (s *Store) deleteAccountLocked(userID, accountID string) error {
	acc, ok := s.accounts[accountID]
	if !ok || acc.UserID != userID {
		return apperr.NotFound("account not found")
	}
	delete(s.accounts, accountID)
	for id, tx := range s.transactions {
		if tx.AccountID == accountID {
			delete(s.transactions, id)
			delete(s.seq, id)
		}
	}
	return nil
}

func (s *Store) CreateTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[tx.AccountID]
	if !ok {
		return apperr.NotFound("account not found")
	}
	s.transactions[tx.ID] = *tx
	s.nextSeq++
	s.seq[tx.ID] = s.nextSeq
	acc.Balance = acc.Balance.Add(delta)
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) UpdateTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.ID]; !ok {
		return apperr.NotFound("transaction not found")
	}
	acc, ok := s.accounts[tx.AccountID]
	if !ok {
		return apperr.NotFound("account not found")
	}
	s.transactions[tx.ID] = *tx
	acc.Balance = acc.Balance.Add(delta)
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) DeleteTransactionRow(ctx context.Context, tx *models.Transaction, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.ID]; !ok {
		return apperr.NotFound("transaction not found")
	}
	acc, ok := s.accounts[tx.AccountID]
	if !ok {
		return apperr.NotFound("account not found")
	}
	delete(s.transactions, tx.ID)
	delete(s.seq, tx.ID)
	acc.Balance = acc.Balance.Add(delta)
	s.accounts[acc.ID] = acc
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperr.NotFound("transaction not found")
	}
	// Resolve ownership through the account; a foreign transaction looks
	// exactly like a missing one.
	acc, ok := s.accounts[tx.AccountID]
	if !ok || acc.UserID != userID {
		return nil, apperr.NotFound("transaction not found")
	}
	copied := tx
	return &copied, nil
}

func (s *Store) GetTransactionsByAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getOwnedAccount(userID, accountID); err != nil {
		return nil, err
	}
	result := s.collectLocked(func(tx models.Transaction) bool {
		return tx.AccountID == accountID
	})
	// Stable sort over insertion order: equal dates keep their insert order.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *Store) GetTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make(map[string]bool)
	for id, acc := range s.accounts {
		if acc.UserID == userID {
			owned[id] = true
		}
	}
	return s.collectLocked(func(tx models.Transaction) bool {
		return owned[tx.AccountID]
	}), nil
}

// collectLocked returns matching transactions in insertion order. Must be
// called with the lock held.
func (s *Store) collectLocked(match func(models.Transaction) bool) []models.Transaction {
	var result []models.Transaction
	for _, tx := range s.transactions {
		if match(tx) {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})
	return result
}

// Compile-time check: Store implements both store interfaces.
var (
	_ interfaces.LedgerStore = (*Store)(nil)
	_ interfaces.UserStore   = (*Store)(nil)
)
