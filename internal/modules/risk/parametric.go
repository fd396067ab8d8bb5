package risk

import (
	"fmt"
	"math"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/covariance"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/pkg/formulas"
)

// CovarianceOptions selects how the covariance matrix feeding the
// parametric and Monte Carlo methods is estimated.
type CovarianceOptions struct {
	// EWMALambda enables exponentially weighted covariance with the
	// given decay when non-nil. Nil means plain sample covariance.
	EWMALambda *float64
	// Shrinkage applies Ledoit-Wolf shrinkage after estimation.
	Shrinkage bool
}

// estimateCovariance builds and validates the covariance matrix for a series.
func estimateCovariance(series *returns.Series, opts CovarianceOptions) (*covariance.Matrix, error) {
	var cov *covariance.Matrix
	var err error

	if opts.EWMALambda != nil {
		cov, err = covariance.EWMA(series, *opts.EWMALambda)
	} else {
		cov, err = covariance.Sample(series)
	}
	if err != nil {
		return nil, err
	}

	if opts.Shrinkage {
		cov, err = covariance.LedoitWolf(cov)
		if err != nil {
			return nil, err
		}
	}

	if err := cov.ValidatePSD(); err != nil {
		return nil, err
	}
	return cov, nil
}

// ParametricVaR estimates VaR under the variance-covariance model:
// portfolio returns are normal with mean μ_p and variance wᵀΣw, and
//
//	VaR = value · (−μ_p·h + z_α·σ_p·√h)
//
// where z_α is the inverse normal quantile at the confidence level.
func ParametricVaR(p *portfolio.Portfolio, series *returns.Series, opts CovarianceOptions) (*Result, error) {
	if series.Periods() < 2 {
		return nil, fmt.Errorf("%w: parametric VaR needs at least 2 periods, got %d", domain.ErrInsufficientData, series.Periods())
	}

	cov, err := estimateCovariance(series, opts)
	if err != nil {
		return nil, err
	}

	portfolioReturns, err := p.Returns(series)
	if err != nil {
		return nil, err
	}

	variance, err := cov.PortfolioVariance(p.Weights())
	if err != nil {
		return nil, err
	}
	if variance < 0 {
		return nil, fmt.Errorf("%w: negative portfolio variance %v", domain.ErrNumericalInstability, variance)
	}

	mu := formulas.Mean(portfolioReturns)
	sigma := math.Sqrt(variance)
	h := float64(p.TimeHorizon())
	z := formulas.NormalQuantile(p.ConfidenceLevel())

	varEstimate := p.Value() * (-mu*h + z*sigma*math.Sqrt(h))
	if varEstimate < 0 {
		varEstimate = 0
	}

	return &Result{
		Method:          MethodParametric,
		VaR:             varEstimate,
		ConfidenceLevel: p.ConfidenceLevel(),
		TimeHorizonDays: p.TimeHorizon(),
	}, nil
}
