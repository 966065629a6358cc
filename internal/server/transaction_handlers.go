package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/ledger"
	"github.com/fintrackhq/fintrack/internal/models"
)

type createTransactionRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date"` // optional, defaults to now
}

func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, apperr.Validation("invalid request body"))
		return
	}

	in := ledger.TransactionInput{
		Amount:      req.Amount,
		Type:        models.TransactionType(req.Type),
		Description: req.Description,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	tx, err := h.ledger.CreateTransaction(r.Context(), uid, req.AccountID, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(*tx))
}

func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	tx, err := h.ledger.GetTransaction(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(*tx))
}

type updateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type"`
	Description *string          `json:"description"`
}

func (h *Handlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, apperr.Validation("invalid request body"))
		return
	}

	patch := ledger.TransactionPatch{
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Type != nil {
		t := models.TransactionType(*req.Type)
		patch.Type = &t
	}

	tx, err := h.ledger.UpdateTransaction(r.Context(), uid, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(*tx))
}

func (h *Handlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	if err := h.ledger.DeleteTransaction(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted and balance reverted"})
}

func (h *Handlers) ListTransactionsByAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	txs, err := h.ledger.ListTransactionsByAccount(r.Context(), uid, chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, resp)
}
