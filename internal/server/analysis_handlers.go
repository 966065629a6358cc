package server

import (
	"net/http"
	"strconv"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/models"
)

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	summary, err := h.analytics.DashboardSummary(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	typeFilter := models.TransactionType(r.URL.Query().Get("type"))

	stats, err := h.analytics.GeneralStatistics(r.Context(), uid, typeFilter)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Forecast(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	months := 3
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, h.log, apperr.Validation("invalid months parameter"))
			return
		}
		months = n
	}

	forecast, err := h.analytics.ForecastIncome(r.Context(), uid, months)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}
