package risk

import (
	"fmt"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

// ComponentVaR decomposes total parametric VaR into additive per-asset
// contributions using the Euler allocation principle:
//
//	contribution_i = VaR_total · w_i·(Σw)_i / wᵀΣw
//
// The allocation fractions sum to 1 by construction, so contributions
// sum to total VaR exactly (within floating-point tolerance). This is
// exact only for the parametric method, whose VaR formula is homogeneous
// of degree 1 in the weight vector.
func ComponentVaR(p *portfolio.Portfolio, series *returns.Series, opts CovarianceOptions) (*Decomposition, error) {
	total, err := ParametricVaR(p, series, opts)
	if err != nil {
		return nil, err
	}

	cov, err := estimateCovariance(series, opts)
	if err != nil {
		return nil, err
	}

	weights := p.Weights()
	variance, err := cov.PortfolioVariance(weights)
	if err != nil {
		return nil, err
	}
	if variance <= 0 {
		return nil, fmt.Errorf("%w: portfolio variance %v, cannot allocate VaR", domain.ErrNumericalInstability, variance)
	}

	marginals, err := cov.MarginalContributions(weights)
	if err != nil {
		return nil, err
	}

	symbols := p.Symbols()
	components := make([]Component, len(symbols))
	for i, symbol := range symbols {
		fraction := weights[i] * marginals[i] / variance
		components[i] = Component{
			Symbol:     symbol,
			VaR:        total.VaR * fraction,
			Percentage: fraction * 100,
		}
	}

	return &Decomposition{
		Method:      MethodParametric,
		Approximate: false,
		TotalVaR:    total.VaR,
		Components:  components,
	}, nil
}

// HistoricalComponentVaR approximates a decomposition of historical VaR
// by finite-difference perturbation of each weight. Historical VaR has
// no exact Euler allocation, so the result is always labeled approximate
// and the contributions need not sum exactly to total VaR.
func HistoricalComponentVaR(p *portfolio.Portfolio, series *returns.Series) (*Decomposition, error) {
	total, err := HistoricalVaR(p, series)
	if err != nil {
		return nil, err
	}

	const epsilon = 1e-4

	weights := p.Weights()
	symbols := p.Symbols()
	value := p.Value()
	confidence := p.ConfidenceLevel()
	horizon := p.TimeHorizon()

	components := make([]Component, len(symbols))
	for i, symbol := range symbols {
		// Losses are linear in weights, so the unnormalized bumped
		// vector still yields a meaningful directional derivative.
		bumped := append([]float64(nil), weights...)
		bumped[i] += epsilon

		bumpedReturns, err := series.Weighted(bumped)
		if err != nil {
			return nil, err
		}
		bumpedVaR, err := historicalVaRFromReturns(bumpedReturns, value, confidence, horizon)
		if err != nil {
			return nil, err
		}

		marginal := (bumpedVaR.VaR - total.VaR) / epsilon
		contribution := weights[i] * marginal

		pct := 0.0
		if total.VaR > 0 {
			pct = contribution / total.VaR * 100
		}
		components[i] = Component{
			Symbol:     symbol,
			VaR:        contribution,
			Percentage: pct,
		}
	}

	return &Decomposition{
		Method:      MethodHistorical,
		Approximate: true,
		TotalVaR:    total.VaR,
		Components:  components,
	}, nil
}
