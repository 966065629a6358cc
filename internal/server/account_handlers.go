package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/ledger"
)

type createAccountRequest struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"` // optional, defaults to 0
}

func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, apperr.Validation("invalid request body"))
		return
	}

	acc, err := h.ledger.CreateAccount(r.Context(), uid, req.Name, req.Balance)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(*acc))
}

func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	accounts, err := h.ledger.ListAccounts(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, toAccountResponse(acc))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	acc, err := h.ledger.GetAccount(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(*acc))
}

type updateAccountRequest struct {
	Name    *string          `json:"name"`
	Balance *decimal.Decimal `json:"balance"`
}

func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, apperr.Validation("invalid request body"))
		return
	}

	acc, err := h.ledger.UpdateAccount(r.Context(), uid, chi.URLParam(r, "id"), ledger.AccountPatch{
		Name:    req.Name,
		Balance: req.Balance,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(*acc))
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	if err := h.ledger.DeleteAccount(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
