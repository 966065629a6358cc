// Package analytics is a read-only consumer of the ledger store. It never
// mutates; every query re-reads current state so results always reflect the
// latest committed ledger.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/interfaces"
	"github.com/fintrackhq/fintrack/internal/models"
)

type Engine struct {
	store interfaces.LedgerStore
	now   func() time.Time // injectable for tests
}

func New(store interfaces.LedgerStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// AccountSummary is the dashboard's per-account line.
type AccountSummary struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type DashboardSummary struct {
	NetWorth           decimal.Decimal      `json:"net_worth"`
	MonthlyIncome      decimal.Decimal      `json:"monthly_income"`
	MonthlyExpense     decimal.Decimal      `json:"monthly_expense"`
	Accounts           []AccountSummary     `json:"accounts"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// DashboardSummary aggregates net worth, the current calendar month's income
// and expense totals, and the five most recent transactions across all of the
// user's accounts.
func (e *Engine) DashboardSummary(ctx context.Context, userID string) (*DashboardSummary, error) {
	accounts, err := e.store.GetAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	netWorth := decimal.Zero
	summaries := make([]AccountSummary, 0, len(accounts))
	for _, acc := range accounts {
		netWorth = netWorth.Add(acc.Balance)
		summaries = append(summaries, AccountSummary{
			ID:      acc.ID,
			Name:    acc.Name,
			Balance: acc.Balance.Round(2),
		})
	}

	txs, err := e.store.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	monthlyIncome, monthlyExpense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.Date.Before(startOfMonth) {
			continue
		}
		if tx.Type == models.TypeIncome {
			monthlyIncome = monthlyIncome.Add(tx.Amount)
		} else {
			monthlyExpense = monthlyExpense.Add(tx.Amount)
		}
	}

	// Stable sort over insertion order: equal dates keep their insert order.
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	if len(txs) > 5 {
		txs = txs[:5]
	}

	return &DashboardSummary{
		NetWorth:           netWorth.Round(2),
		MonthlyIncome:      monthlyIncome.Round(2),
		MonthlyExpense:     monthlyExpense.Round(2),
		Accounts:           summaries,
		RecentTransactions: txs,
	}, nil
}

type Statistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// GeneralStatistics computes descriptive statistics over the amounts of the
// user's transactions, optionally filtered by type (empty filter means all).
// An empty result set is not an error: it yields count 0 and zeros.
func (e *Engine) GeneralStatistics(ctx context.Context, userID string, typeFilter models.TransactionType) (*Statistics, error) {
	if typeFilter != "" && !typeFilter.Valid() {
		return nil, apperr.Validation("invalid transaction type, use 'income' or 'expense'")
	}

	txs, err := e.store.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var amounts []float64
	for _, tx := range txs {
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		amounts = append(amounts, tx.Amount.InexactFloat64())
	}
	if len(amounts) == 0 {
		return &Statistics{}, nil
	}

	sort.Float64s(amounts)
	n := len(amounts)

	sum := 0.0
	for _, v := range amounts {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 1 {
		median = amounts[n/2]
	} else {
		median = (amounts[n/2-1] + amounts[n/2]) / 2
	}

	// Population standard deviation.
	var sq float64
	for _, v := range amounts {
		d := v - mean
		sq += d * d
	}
	stdDev := math.Sqrt(sq / float64(n))

	return &Statistics{
		Count:  n,
		Mean:   round2(mean),
		Median: round2(median),
		Min:    round2(amounts[0]),
		Max:    round2(amounts[n-1]),
		StdDev: round2(stdDev),
	}, nil
}

// round2 rounds at the presentation boundary only; intermediate accumulation
// stays unrounded to avoid drift.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
