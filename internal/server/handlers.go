package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
)

// handleHoldings handles GET /api/holdings.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	holdings, err := s.app.Portfolio.Holdings(r.Context(), requestUserID(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// handleBuy handles POST /api/holdings/buy.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var in interfaces.BuyInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	holding, err := s.app.Portfolio.RecordBuy(r.Context(), requestUserID(r), in)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, holding)
}

// handleSell handles POST /api/holdings/sell.
func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var in interfaces.SellInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	result, err := s.app.Portfolio.RecordSell(r.Context(), requestUserID(r), in)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "no holding matches the sell")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleRevalue handles POST /api/holdings/revalue.
func (s *Server) handleRevalue(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	holdings, err := s.app.Portfolio.Revalue(r.Context(), requestUserID(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// handleSummary handles GET /api/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := s.app.Portfolio.Summary(r.Context(), requestUserID(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// handleSeries handles GET /api/series?period=1m.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	period := models.ParsePeriod(r.URL.Query().Get("period"))
	points, err := s.app.Portfolio.Series(r.Context(), requestUserID(r), period)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if points == nil {
		points = []models.SeriesPoint{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"period": string(period),
		"points": points,
	})
}

// handleSeriesChart handles GET /api/series/chart?period=1m, returning PNG.
func (s *Server) handleSeriesChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	period := models.ParsePeriod(r.URL.Query().Get("period"))
	png, err := s.app.Portfolio.SeriesChart(r.Context(), requestUserID(r), period)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleTransactions handles GET /api/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	txs, err := s.app.Portfolio.Transactions(r.Context(), requestUserID(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}
