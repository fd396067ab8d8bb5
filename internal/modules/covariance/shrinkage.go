package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/riskcalc/internal/domain"
)

// LedoitWolf shrinks a sample covariance matrix towards the constant
// correlation target to improve conditioning with short histories.
//
// Reference: Ledoit, O., & Wolf, M. (2004). "A well-conditioned estimator
// for large-dimensional covariance matrices"
func LedoitWolf(m *Matrix) (*Matrix, error) {
	n := m.Dim()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty covariance matrix", domain.ErrInvalidParameter)
	}
	if n == 1 {
		return m, nil
	}

	// Shrinkage target: average variance on the diagonal, average
	// covariance off-diagonal (constant correlation model).
	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += m.At(i, i)
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += m.At(i, j)
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		target.SetSym(i, i, avgVar)
		for j := i + 1; j < n; j++ {
			target.SetSym(i, j, avgCov)
		}
	}

	// Simplified shrinkage intensity from the dispersion of the sample
	// entries around the target.
	shrinkage := 0.2
	if avgVar > 0 {
		var sumSqDiff, sumSq, sum float64
		count := float64(n * n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := m.At(i, j)
				diff := v - target.At(i, j)
				sumSqDiff += diff * diff
				sum += v
				sumSq += v * v
			}
		}
		meanSqDiff := sumSqDiff / count
		meanSample := sum / count
		varSample := sumSq/count - meanSample*meanSample

		if varSample > 0 && meanSqDiff > 0 {
			shrinkage = math.Min(0.5, math.Max(0.0, varSample/(varSample+meanSqDiff)))
		}
	}

	shrunk := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			shrunk.SetSym(i, j, (1-shrinkage)*m.At(i, j)+shrinkage*target.At(i, j))
		}
	}

	return &Matrix{symbols: m.Symbols(), sym: shrunk}, nil
}
