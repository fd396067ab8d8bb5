// Package covariance computes sample and EWMA covariance matrices over
// an aligned return series, plus the derived correlation matrix.
package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

// DefaultEWMALambda is the RiskMetrics decay factor for daily data.
const DefaultEWMALambda = 0.94

// psdTolerance is how far below zero the smallest eigenvalue may sit
// before a matrix is rejected as not positive-semi-definite.
const psdTolerance = 1e-10

// Matrix is a symmetric covariance (or correlation) matrix over an
// ordered asset list. Immutable once constructed.
type Matrix struct {
	symbols []string
	sym     *mat.SymDense
}

// Sample computes the unbiased sample covariance matrix of the series.
// Rejects series with fewer than N+1 periods, since the estimate would
// be rank-deficient.
func Sample(series *returns.Series) (*Matrix, error) {
	n := series.NumAssets()
	t := series.Periods()
	if t < n+1 {
		return nil, fmt.Errorf("%w: %d periods for %d assets, need at least %d", domain.ErrInsufficientData, t, n, n+1)
	}

	// stat.CovarianceMatrix expects observations in rows.
	obs := mat.NewDense(t, n, nil)
	for i := 0; i < n; i++ {
		col := series.Asset(i)
		for k := 0; k < t; k++ {
			obs.Set(k, i, col[k])
		}
	}

	sym := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(sym, obs, nil)

	return &Matrix{symbols: series.Symbols(), sym: sym}, nil
}

// EWMA computes the exponentially weighted covariance matrix
// Σ_t = λ·Σ_{t-1} + (1-λ)·r_t·r_tᵀ, iterated over all periods oldest to
// newest and seeded with the sample covariance. lambda must lie in (0,1).
func EWMA(series *returns.Series, lambda float64) (*Matrix, error) {
	if lambda <= 0 || lambda >= 1 {
		return nil, fmt.Errorf("%w: EWMA lambda %v must be in (0,1)", domain.ErrInvalidParameter, lambda)
	}

	seed, err := Sample(series)
	if err != nil {
		return nil, err
	}

	n := series.NumAssets()
	cur := mat.NewSymDense(n, nil)
	cur.CopySym(seed.sym)

	for t := 0; t < series.Periods(); t++ {
		r := series.Row(t)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := lambda*cur.At(i, j) + (1-lambda)*r[i]*r[j]
				cur.SetSym(i, j, v)
			}
		}
	}

	return &Matrix{symbols: series.Symbols(), sym: cur}, nil
}

// Symbols returns the asset order of the matrix.
func (m *Matrix) Symbols() []string {
	return append([]string(nil), m.symbols...)
}

// Dim returns the number of assets.
func (m *Matrix) Dim() int {
	return len(m.symbols)
}

// At returns the covariance between assets i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// Sym returns the underlying symmetric matrix. Callers must not modify it.
func (m *Matrix) Sym() *mat.SymDense {
	return m.sym
}

// Rows converts the matrix to nested slices for serialization.
func (m *Matrix) Rows() [][]float64 {
	n := m.Dim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.sym.At(i, j)
		}
	}
	return rows
}

// Scale returns a new matrix with every entry multiplied by factor.
// Used for square-root-of-time horizon scaling (factor = horizon days).
func (m *Matrix) Scale(factor float64) *Matrix {
	n := m.Dim()
	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, m.sym.At(i, j)*factor)
		}
	}
	return &Matrix{symbols: m.Symbols(), sym: scaled}
}

// Correlation derives the correlation matrix by normalizing with the
// outer product of asset volatilities. The diagonal is exactly 1.
func (m *Matrix) Correlation() (*Matrix, error) {
	n := m.Dim()
	vols := make([]float64, n)
	for i := 0; i < n; i++ {
		v := m.sym.At(i, i)
		if v < 0 {
			return nil, fmt.Errorf("%w: negative variance for %s", domain.ErrNumericalInstability, m.symbols[i])
		}
		vols[i] = math.Sqrt(v)
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1.0)
		for j := i + 1; j < n; j++ {
			if vols[i] > 0 && vols[j] > 0 {
				corr.SetSym(i, j, m.sym.At(i, j)/(vols[i]*vols[j]))
			}
		}
	}

	return &Matrix{symbols: m.Symbols(), sym: corr}, nil
}

// PortfolioVariance computes wᵀΣw for a weight vector ordered like Symbols.
func (m *Matrix) PortfolioVariance(weights []float64) (float64, error) {
	n := m.Dim()
	if len(weights) != n {
		return 0, fmt.Errorf("%w: %d weights for %d assets", domain.ErrInvalidParameter, len(weights), n)
	}

	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * m.sym.At(i, j)
		}
	}
	return variance, nil
}

// MarginalContributions computes (Σw)_i for each asset, the gradient of
// portfolio variance with respect to weights divided by two. Used by the
// component VaR decomposition.
func (m *Matrix) MarginalContributions(weights []float64) ([]float64, error) {
	n := m.Dim()
	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d assets", domain.ErrInvalidParameter, len(weights), n)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i] += m.sym.At(i, j) * weights[j]
		}
	}
	return out, nil
}

// ValidatePSD rejects matrices with a meaningfully negative eigenvalue,
// which arise from duplicate or collinear assets.
func (m *Matrix) ValidatePSD() error {
	var eig mat.EigenSym
	if ok := eig.Factorize(m.sym, false); !ok {
		return fmt.Errorf("%w: eigendecomposition failed", domain.ErrNumericalInstability)
	}

	values := eig.Values(nil)
	for _, v := range values {
		if v < -psdTolerance {
			return fmt.Errorf("%w: covariance matrix has negative eigenvalue %v", domain.ErrNumericalInstability, v)
		}
	}
	return nil
}
