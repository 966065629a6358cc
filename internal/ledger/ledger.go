// Package ledger is the only path by which accounts and transactions are
// mutated. It guards the balance invariant: an account's balance always equals
// the signed sum of its transactions.
package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/interfaces"
	"github.com/fintrackhq/fintrack/internal/models"
	"github.com/fintrackhq/fintrack/internal/models/events"
)

// Service reconciles every transaction mutation with its account's balance.
// A per-account mutex serializes mutations on the same account, so the classic
// read-modify-write race on the balance cannot lose an update; different
// accounts proceed fully in parallel. The store applies the row change and the
// balance delta as one atomic unit underneath.
type Service struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher // nil disables event publishing
	log       *zap.Logger

	muMap map[string]*sync.Mutex // one mutex per account
	mapMu sync.Mutex             // protects muMap itself
}

func New(store interfaces.LedgerStore, publisher interfaces.EventPublisher, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		log:       log,
		muMap:     make(map[string]*sync.Mutex),
	}
}

func (s *Service) accountLock(accountID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[accountID]; !exists {
		s.muMap[accountID] = &sync.Mutex{}
	}
	return s.muMap[accountID]
}

// AccountPatch is a partial account update. A non-nil Balance overwrites the
// running balance directly, bypassing reconciliation; it is an explicit
// admin-style edit, not a transaction-driven change.
type AccountPatch struct {
	Name    *string
	Balance *decimal.Decimal
}

func (s *Service) CreateAccount(ctx context.Context, userID, name string, initialBalance decimal.Decimal) (*models.Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("account name must not be empty")
	}

	acc := &models.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Balance:   initialBalance,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Service) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	return s.store.GetAccounts(ctx, userID)
}

func (s *Service) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return s.store.GetAccount(ctx, userID, accountID)
}

func (s *Service) UpdateAccount(ctx context.Context, userID, accountID string, patch AccountPatch) (*models.Account, error) {
	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	acc, err := s.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperr.Validation("account name must not be empty")
		}
		acc.Name = *patch.Name
	}
	if patch.Balance != nil {
		acc.Balance = *patch.Balance
	}

	if err := s.store.UpdateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID, accountID string) error {
	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	// The whole aggregate disappears, so no balance bookkeeping is needed;
	// the store cascades the transaction rows.
	return s.store.DeleteAccount(ctx, userID, accountID)
}

// TransactionInput carries the fields of a new transaction. A zero Date means
// "now".
type TransactionInput struct {
	Amount      decimal.Decimal
	Type        models.TransactionType
	Description string
	Date        time.Time
}

// TransactionPatch is a partial transaction update. Amount and Type changes
// re-reconcile the account balance; Description changes have no balance effect.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Type        *models.TransactionType
	Description *string
}

func (s *Service) CreateTransaction(ctx context.Context, userID, accountID string, in TransactionInput) (*models.Transaction, error) {
	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.store.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	if in.Amount.Cmp(decimal.Zero) <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("invalid transaction type, use 'income' or 'expense'")
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	tx := &models.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      in.Amount,
		Type:        in.Type,
		Description: in.Description,
		Date:        date,
	}

	// Row insert and balance adjustment commit together.
	if err := s.store.CreateTransactionRow(ctx, tx, tx.SignedAmount()); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TransactionCreated, userID, tx)
	return tx, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, userID, transactionID string, patch TransactionPatch) (*models.Transaction, error) {
	// First resolution is only to learn the account; the authoritative read
	// happens again under the account lock.
	tx, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	mu := s.accountLock(tx.AccountID)
	mu.Lock()
	defer mu.Unlock()

	tx, err = s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	delta := decimal.Zero
	if patch.Amount != nil || patch.Type != nil {
		updated := *tx
		if patch.Amount != nil {
			updated.Amount = *patch.Amount
		}
		if patch.Type != nil {
			updated.Type = *patch.Type
		}
		if updated.Amount.Cmp(decimal.Zero) <= 0 {
			return nil, apperr.Validation("amount must be positive")
		}
		if !updated.Type.Valid() {
			return nil, apperr.Validation("invalid transaction type, use 'income' or 'expense'")
		}
		// Reverse the old contribution, apply the new one.
		delta = updated.SignedAmount().Sub(tx.SignedAmount())
		tx.Amount = updated.Amount
		tx.Type = updated.Type
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}

	if err := s.store.UpdateTransactionRow(ctx, tx, delta); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TransactionUpdated, userID, tx)
	return tx, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	tx, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	mu := s.accountLock(tx.AccountID)
	mu.Lock()
	defer mu.Unlock()

	tx, err = s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	// Deleting reverses the transaction's contribution before the row goes.
	if err := s.store.DeleteTransactionRow(ctx, tx, tx.SignedAmount().Neg()); err != nil {
		return err
	}
	s.publish(ctx, events.TransactionDeleted, userID, tx)
	return nil
}

func (s *Service) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, transactionID)
}

func (s *Service) ListTransactionsByAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	return s.store.GetTransactionsByAccount(ctx, userID, accountID)
}

// publish emits a ledger event after a committed mutation. Best-effort: a
// broker failure is logged and never rolls back the mutation.
func (s *Service) publish(ctx context.Context, eventType, userID string, tx *models.Transaction) {
	if s.publisher == nil {
		return
	}
	evt := events.LedgerEvent{
		EventType:     eventType,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		UserID:        userID,
		Amount:        tx.Amount,
		Type:          string(tx.Type),
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, tx.AccountID, evt); err != nil {
		s.log.Warn("publish ledger event failed",
			zap.String("event_type", eventType),
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
	}
}
