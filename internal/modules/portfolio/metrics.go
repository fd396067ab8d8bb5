package portfolio

import (
	"fmt"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/pkg/formulas"
)

// Metrics are the standard performance statistics of a portfolio return
// series. Sharpe is nil when annualized volatility is exactly zero; the
// ratio is undefined in that case and must not be silently NaN-propagated.
type Metrics struct {
	TotalReturn          float64  `json:"total_return"`
	AnnualizedReturn     float64  `json:"annualized_return"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	SharpeRatio          *float64 `json:"sharpe_ratio"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	Skewness             float64  `json:"skewness"`
	ExcessKurtosis       float64  `json:"excess_kurtosis"`
	RiskFreeRate         float64  `json:"risk_free_rate"`
}

// ComputeMetrics calculates performance metrics from a daily portfolio
// return series. riskFreeRate is annualized (0 when not supplied).
func ComputeMetrics(portfolioReturns []float64, riskFreeRate float64) (*Metrics, error) {
	if len(portfolioReturns) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 periods for performance metrics, got %d", domain.ErrInsufficientData, len(portfolioReturns))
	}

	m := &Metrics{
		TotalReturn:          formulas.TotalReturn(portfolioReturns),
		AnnualizedReturn:     formulas.AnnualReturn(portfolioReturns),
		AnnualizedVolatility: formulas.AnnualizedVolatility(portfolioReturns),
		MaxDrawdown:          formulas.MaxDrawdown(portfolioReturns),
		Skewness:             formulas.Skewness(portfolioReturns),
		ExcessKurtosis:       formulas.ExcessKurtosis(portfolioReturns),
		RiskFreeRate:         riskFreeRate,
	}

	if sharpe, ok := formulas.SharpeRatio(portfolioReturns, riskFreeRate); ok {
		m.SharpeRatio = &sharpe
	}

	return m, nil
}
