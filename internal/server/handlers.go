package server

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/analytics"
	"github.com/fintrackhq/fintrack/internal/auth"
	"github.com/fintrackhq/fintrack/internal/ledger"
	"github.com/fintrackhq/fintrack/internal/models"
)

// Handlers holds the request layer's dependencies. It owns no state of its
// own; every operation threads the authenticated userID into the core.
type Handlers struct {
	ledger    *ledger.Service
	analytics *analytics.Engine
	auth      *auth.Service
	log       *zap.Logger
}

func NewHandlers(ledgerSvc *ledger.Service, analyticsEngine *analytics.Engine, authSvc *auth.Service, log *zap.Logger) *Handlers {
	return &Handlers{
		ledger:    ledgerSvc,
		analytics: analyticsEngine,
		auth:      authSvc,
		log:       log,
	}
}

// Response DTOs: amounts and balances are rounded to 2 decimal places here, at
// the presentation boundary, never inside the core.

type accountResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAccountResponse(acc models.Account) accountResponse {
	return accountResponse{
		ID:        acc.ID,
		UserID:    acc.UserID,
		Name:      acc.Name,
		Balance:   acc.Balance.Round(2),
		CreatedAt: acc.CreatedAt,
	}
}

type transactionResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

func toTransactionResponse(tx models.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Amount:      tx.Amount.Round(2),
		Type:        string(tx.Type),
		Description: tx.Description,
		Date:        tx.Date,
	}
}
