// Package returns provides the aligned per-asset return series that all
// risk calculations consume. A Series is immutable once constructed:
// every asset shares the same gap-free date axis, one log return per
// asset per period.
package returns

import (
	"fmt"
	"math"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/pkg/formulas"
)

// Series is an aligned T×N return matrix: T periods over N assets.
// Data is stored per asset (column-major) so per-asset statistics and
// covariance computation avoid copies.
type Series struct {
	symbols []string
	dates   []string // period end dates, YYYY-MM-DD, ascending
	data    [][]float64
}

// New constructs a Series from per-asset return slices ordered like symbols.
// All slices must have the same length as dates.
func New(symbols []string, dates []string, data [][]float64) (*Series, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols provided", domain.ErrInvalidParameter)
	}
	if len(data) != len(symbols) {
		return nil, fmt.Errorf("%w: %d return columns for %d symbols", domain.ErrInvalidParameter, len(data), len(symbols))
	}

	periods := len(dates)
	for i, col := range data {
		if len(col) != periods {
			return nil, fmt.Errorf("%w: symbol %s has %d returns, expected %d", domain.ErrInvalidParameter, symbols[i], len(col), periods)
		}
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: symbol %s contains non-finite returns", domain.ErrInvalidParameter, symbols[i])
			}
		}
	}

	return &Series{
		symbols: append([]string(nil), symbols...),
		dates:   append([]string(nil), dates...),
		data:    data,
	}, nil
}

// NewFromPrices builds a log-return Series from an aligned price table.
// prices maps symbol to a price slice of length len(dates); the resulting
// series has len(dates)-1 periods. Missing prices must already be filled
// by the data collaborator (see FillMissing).
func NewFromPrices(symbols []string, dates []string, prices map[string][]float64) (*Series, error) {
	if len(dates) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 price dates, got %d", domain.ErrInsufficientData, len(dates))
	}

	data := make([][]float64, len(symbols))
	for i, symbol := range symbols {
		px, ok := prices[symbol]
		if !ok {
			return nil, fmt.Errorf("%w: missing prices for symbol %s", domain.ErrInvalidParameter, symbol)
		}
		if len(px) != len(dates) {
			return nil, fmt.Errorf("%w: symbol %s has %d prices for %d dates", domain.ErrInvalidParameter, symbol, len(px), len(dates))
		}
		for _, p := range px {
			if math.IsNaN(p) || p <= 0 {
				return nil, fmt.Errorf("%w: symbol %s has non-positive or missing prices", domain.ErrInvalidParameter, symbol)
			}
		}
		data[i] = formulas.LogReturns(px)
	}

	return New(symbols, dates[1:], data)
}

// Symbols returns the asset identifiers in column order.
func (s *Series) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Dates returns the period end dates.
func (s *Series) Dates() []string {
	return append([]string(nil), s.dates...)
}

// Periods returns T, the number of return observations per asset.
func (s *Series) Periods() int {
	return len(s.dates)
}

// NumAssets returns N, the number of assets.
func (s *Series) NumAssets() int {
	return len(s.symbols)
}

// Asset returns the return column for asset index i.
func (s *Series) Asset(i int) []float64 {
	return s.data[i]
}

// AssetBySymbol returns the return column for a symbol.
func (s *Series) AssetBySymbol(symbol string) ([]float64, bool) {
	for i, sym := range s.symbols {
		if sym == symbol {
			return s.data[i], true
		}
	}
	return nil, false
}

// Row returns the cross-sectional return vector for period t.
func (s *Series) Row(t int) []float64 {
	row := make([]float64, len(s.data))
	for i := range s.data {
		row[i] = s.data[i][t]
	}
	return row
}

// Means returns the per-asset mean returns, ordered like Symbols.
func (s *Series) Means() []float64 {
	mu := make([]float64, len(s.data))
	for i, col := range s.data {
		mu[i] = formulas.Mean(col)
	}
	return mu
}

// Weighted collapses the series into a single portfolio return series
// r_p(t) = Σ_i w_i·r_i(t). The weight vector must match the asset count.
func (s *Series) Weighted(weights []float64) ([]float64, error) {
	if len(weights) != len(s.symbols) {
		return nil, fmt.Errorf("%w: %d weights for %d assets", domain.ErrInvalidParameter, len(weights), len(s.symbols))
	}

	out := make([]float64, s.Periods())
	for t := range out {
		var sum float64
		for i := range weights {
			sum += weights[i] * s.data[i][t]
		}
		out[t] = sum
	}
	return out, nil
}
