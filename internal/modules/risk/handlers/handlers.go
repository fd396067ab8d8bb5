// Package handlers provides HTTP handlers for risk calculation requests.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/marketdata"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/internal/modules/risk"
)

// Handler handles risk calculation HTTP requests.
type Handler struct {
	provider *marketdata.Provider
	store    *marketdata.Store
	service  *risk.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new risk handler.
func NewHandler(provider *marketdata.Provider, store *marketdata.Store, service *risk.Service, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		store:    store,
		service:  service,
		validate: validator.New(),
		log:      log.With().Str("handler", "risk").Logger(),
	}
}

// varRequest is the wire form of a calculation request: the engine
// request plus the date range and optional weight scheme that the data
// collaborator resolves before the engine runs.
type varRequest struct {
	risk.Request
	StartDate    string                 `json:"start_date,omitempty"`
	EndDate      string                 `json:"end_date,omitempty"`
	WeightScheme portfolio.WeightScheme `json:"weight_scheme,omitempty" validate:"omitempty,oneof=equal market_cap risk_parity"`
}

// HandleCalculateVaR handles POST /api/risk/var
func (h *Handler) HandleCalculateVaR(w http.ResponseWriter, r *http.Request) {
	var req varRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, table, ok := h.loadSeries(w, req.Symbols, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	if len(req.Weights) == 0 && req.WeightScheme != "" {
		latest := latestPrices(table)
		weights, err := portfolio.WeightsForScheme(req.WeightScheme, series, latest)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		req.Weights = weights
	}

	resp, err := h.service.Calculate(r.Context(), series, req.Request)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeData(w, resp)
}

// HandleGetMetrics handles GET /api/risk/metrics
// Query: symbols (comma separated), start_date, end_date, risk_free_rate
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	riskFree := 0.0
	if raw := r.URL.Query().Get("risk_free_rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid risk_free_rate")
			return
		}
		riskFree = parsed
	}

	series, _, ok := h.loadSeries(w, symbols, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if !ok {
		return
	}

	portfolioReturns, err := series.Weighted(portfolio.EqualWeights(series.NumAssets()))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	metrics, err := portfolio.ComputeMetrics(portfolioReturns, riskFree)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeData(w, map[string]interface{}{
		"symbols": series.Symbols(),
		"periods": series.Periods(),
		"metrics": metrics,
	})
}

// HandleGetCorrelation handles GET /api/risk/correlation
// Query: symbols (comma separated), start_date, end_date
func (h *Handler) HandleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) < 2 {
		h.writeError(w, http.StatusBadRequest, "at least 2 symbols are required")
		return
	}

	series, _, ok := h.loadSeries(w, symbols, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if !ok {
		return
	}

	resp, err := h.service.Calculate(r.Context(), series, risk.Request{
		Symbols:            series.Symbols(),
		PortfolioValue:     1,
		ConfidenceLevel:    0.95,
		TimeHorizonDays:    1,
		Method:             risk.MethodParametric,
		IncludeCorrelation: true,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeData(w, map[string]interface{}{
		"symbols":     resp.Symbols,
		"covariance":  resp.Covariance,
		"correlation": resp.Correlation,
	})
}

// HandleSavePrices handles POST /api/prices/{symbol}
// Body: array of {date, close} observations.
func (h *Handler) HandleSavePrices(w http.ResponseWriter, r *http.Request, symbol string) {
	var prices []marketdata.DailyPrice
	if err := json.NewDecoder(r.Body).Decode(&prices); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(prices) == 0 {
		h.writeError(w, http.StatusBadRequest, "no price observations provided")
		return
	}

	if err := h.store.SavePrices(symbol, prices); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeData(w, map[string]interface{}{
		"symbol": symbol,
		"saved":  len(prices),
	})
}

// loadSeries fetches the aligned price table and derives the log return
// series. On failure it writes the HTTP error and returns ok=false.
func (h *Handler) loadSeries(w http.ResponseWriter, symbols []string, startDate, endDate string) (*returns.Series, *marketdata.PriceTable, bool) {
	table, err := h.provider.GetPriceTable(symbols, startDate, endDate)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, nil, false
	}

	series, err := returns.NewFromPrices(table.Symbols, table.Dates, table.Prices)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, nil, false
	}

	return series, table, true
}

func latestPrices(table *marketdata.PriceTable) []float64 {
	latest := make([]float64, len(table.Symbols))
	last := len(table.Dates) - 1
	for i, symbol := range table.Symbols {
		latest[i] = table.Prices[symbol][last]
	}
	return latest
}

func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}

// writeDomainError maps the engine's error taxonomy onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNumericalInstability), errors.Is(err, domain.ErrSimulation):
		h.log.Error().Err(err).Msg("Calculation failed")
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unexpected error")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp":  time.Now().Format(time.RFC3339),
			"request_id": uuid.New().String(),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
		"metadata": map[string]interface{}{
			"timestamp":  time.Now().Format(time.RFC3339),
			"request_id": uuid.New().String(),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
