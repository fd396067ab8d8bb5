// Package portfolio combines per-asset returns and weights into a single
// portfolio return series and its derived statistics.
package portfolio

import (
	"fmt"
	"math"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

// WeightTolerance is how far the weight sum may drift from 1.0 before
// the portfolio is rejected.
const WeightTolerance = 1e-6

// Portfolio is an immutable set of assets with weights and the risk
// parameters every VaR method consumes. A new parameter set means a new
// Portfolio, nothing is mutated in place.
type Portfolio struct {
	symbols         []string
	weights         []float64
	value           float64
	timeHorizon     int
	confidenceLevel float64
}

// New validates and constructs a Portfolio. Weights must be non-negative
// (short positions are not supported) and sum to 1 within tolerance.
func New(symbols []string, weights []float64, value float64, timeHorizon int, confidenceLevel float64) (*Portfolio, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no assets provided", domain.ErrInvalidParameter)
	}
	if len(weights) != len(symbols) {
		return nil, fmt.Errorf("%w: %d weights for %d assets", domain.ErrInvalidParameter, len(weights), len(symbols))
	}
	if value <= 0 {
		return nil, fmt.Errorf("%w: portfolio value %v must be positive", domain.ErrInvalidParameter, value)
	}
	if timeHorizon < 1 {
		return nil, fmt.Errorf("%w: time horizon %d must be at least 1 day", domain.ErrInvalidParameter, timeHorizon)
	}
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		return nil, fmt.Errorf("%w: confidence level %v must be in (0,1)", domain.ErrInvalidParameter, confidenceLevel)
	}

	sum := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 {
			return nil, fmt.Errorf("%w: weight %v for %s must be non-negative", domain.ErrInvalidParameter, w, symbols[i])
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %v, expected 1.0", domain.ErrInvalidParameter, sum)
	}

	return &Portfolio{
		symbols:         append([]string(nil), symbols...),
		weights:         append([]float64(nil), weights...),
		value:           value,
		timeHorizon:     timeHorizon,
		confidenceLevel: confidenceLevel,
	}, nil
}

// Symbols returns the asset identifiers in weight order.
func (p *Portfolio) Symbols() []string {
	return append([]string(nil), p.symbols...)
}

// Weights returns the weight vector.
func (p *Portfolio) Weights() []float64 {
	return append([]float64(nil), p.weights...)
}

// Value returns the portfolio value in currency units.
func (p *Portfolio) Value() float64 {
	return p.value
}

// TimeHorizon returns the risk horizon in trading days.
func (p *Portfolio) TimeHorizon() int {
	return p.timeHorizon
}

// ConfidenceLevel returns the VaR confidence level.
func (p *Portfolio) ConfidenceLevel() float64 {
	return p.confidenceLevel
}

// Returns collapses the series into the weighted portfolio return series.
// The series asset order must match the portfolio's symbol order.
func (p *Portfolio) Returns(series *returns.Series) ([]float64, error) {
	got := series.Symbols()
	if len(got) != len(p.symbols) {
		return nil, fmt.Errorf("%w: series has %d assets, portfolio has %d", domain.ErrInvalidParameter, len(got), len(p.symbols))
	}
	for i := range got {
		if got[i] != p.symbols[i] {
			return nil, fmt.Errorf("%w: series asset order %v does not match portfolio %v", domain.ErrInvalidParameter, got, p.symbols)
		}
	}
	return series.Weighted(p.weights)
}
