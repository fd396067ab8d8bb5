package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// EmpiricalQuantile returns the p-quantile of the data using linear
// interpolation between order statistics (the R-7 rule: the quantile
// sits at fractional rank p·(n-1)). The input is not modified.
func EmpiricalQuantile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if len(data) == 1 {
		return data[0]
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// NormalQuantile returns the inverse standard normal CDF at p, e.g.
// roughly 1.645 for p=0.95 and 2.326 for p=0.99. Arbitrary confidence
// levels in (0,1) are supported.
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
