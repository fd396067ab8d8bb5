package portfolio

import (
	"fmt"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/pkg/formulas"
)

// WeightScheme selects how portfolio weights are derived when the caller
// does not supply an explicit weight vector.
type WeightScheme string

const (
	// SchemeEqual assigns 1/N to every asset.
	SchemeEqual WeightScheme = "equal"
	// SchemeMarketCap weights by latest price as a market-cap proxy.
	SchemeMarketCap WeightScheme = "market_cap"
	// SchemeRiskParity weights by inverse volatility.
	SchemeRiskParity WeightScheme = "risk_parity"
)

// EqualWeights returns a 1/N weight vector.
func EqualWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return weights
}

// MarketCapWeights weights assets by their latest price, normalized to
// sum to 1. This is the simplified market-cap proxy: without shares
// outstanding, relative price level stands in for relative size.
func MarketCapWeights(latestPrices []float64) ([]float64, error) {
	if len(latestPrices) == 0 {
		return nil, fmt.Errorf("%w: no prices provided", domain.ErrInvalidParameter)
	}

	total := 0.0
	for _, p := range latestPrices {
		if p <= 0 {
			return nil, fmt.Errorf("%w: non-positive price %v", domain.ErrInvalidParameter, p)
		}
		total += p
	}

	weights := make([]float64, len(latestPrices))
	for i, p := range latestPrices {
		weights[i] = p / total
	}
	return weights, nil
}

// RiskParityWeights weights assets by inverse volatility, normalized to
// sum to 1. Assets with zero volatility are rejected.
func RiskParityWeights(series *returns.Series) ([]float64, error) {
	n := series.NumAssets()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty return series", domain.ErrInvalidParameter)
	}

	invVols := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		sd := formulas.StdDev(series.Asset(i))
		if sd == 0 {
			return nil, fmt.Errorf("%w: asset %s has zero volatility", domain.ErrInvalidParameter, series.Symbols()[i])
		}
		invVols[i] = 1.0 / sd
		total += invVols[i]
	}

	weights := make([]float64, n)
	for i := range invVols {
		weights[i] = invVols[i] / total
	}
	return weights, nil
}

// WeightsForScheme derives a weight vector for the series using the
// requested scheme. latestPrices is only consulted for SchemeMarketCap.
func WeightsForScheme(scheme WeightScheme, series *returns.Series, latestPrices []float64) ([]float64, error) {
	switch scheme {
	case SchemeEqual, "":
		return EqualWeights(series.NumAssets()), nil
	case SchemeMarketCap:
		return MarketCapWeights(latestPrices)
	case SchemeRiskParity:
		return RiskParityWeights(series)
	default:
		return nil, fmt.Errorf("%w: unknown weight scheme %q", domain.ErrInvalidParameter, scheme)
	}
}
