package risk

import (
	"fmt"
	"math"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/pkg/formulas"
)

// HistoricalVaR estimates VaR by historical simulation: the loss at the
// confidence quantile of the empirical loss distribution, with linear
// interpolation between order statistics.
//
// Input returns are single-day periods, so the one-day estimate is scaled
// to the portfolio horizon by the square-root-of-time rule.
func HistoricalVaR(p *portfolio.Portfolio, series *returns.Series) (*Result, error) {
	portfolioReturns, err := p.Returns(series)
	if err != nil {
		return nil, err
	}
	return historicalVaRFromReturns(portfolioReturns, p.Value(), p.ConfidenceLevel(), p.TimeHorizon())
}

// historicalVaRFromReturns is the quantile core shared with the bootstrap
// module, which feeds it resampled return series.
func historicalVaRFromReturns(portfolioReturns []float64, value, confidence float64, horizonDays int) (*Result, error) {
	if len(portfolioReturns) < 2 {
		return nil, fmt.Errorf("%w: historical VaR needs at least 2 periods, got %d", domain.ErrInsufficientData, len(portfolioReturns))
	}

	scale := math.Sqrt(float64(horizonDays))
	losses := make([]float64, len(portfolioReturns))
	for i, r := range portfolioReturns {
		losses[i] = -r * value * scale
	}

	varEstimate := formulas.EmpiricalQuantile(losses, confidence)
	if varEstimate < 0 {
		// The tail is profitable; by convention VaR is a non-negative loss.
		varEstimate = 0
	}

	return &Result{
		Method:          MethodHistorical,
		VaR:             varEstimate,
		ConfidenceLevel: confidence,
		TimeHorizonDays: horizonDays,
		Distribution:    losses,
	}, nil
}
