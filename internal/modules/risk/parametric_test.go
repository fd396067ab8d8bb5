package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/pkg/formulas"
)

func TestParametricVaRClosedForm(t *testing.T) {
	// Alternating ±2% daily returns: zero mean, sample volatility just
	// above 2%. At 95% one-day, a 1M portfolio carries roughly 33k of VaR
	// (z=1.645 times 2% of 1M).
	rets := alternatingReturns(0.02, 252)
	s := singleAssetSeries(t, rets)
	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	result, err := ParametricVaR(p, s, CovarianceOptions{})
	require.NoError(t, err)

	expected := 1_000_000 * formulas.NormalQuantile(0.95) * formulas.StdDev(rets)
	assert.InDelta(t, expected, result.VaR, 1e-6)
	assert.Greater(t, result.VaR, 31_000.0)
	assert.Less(t, result.VaR, 34_000.0)
	assert.Equal(t, MethodParametric, result.Method)
	assert.Nil(t, result.Distribution)
}

func TestParametricVaRDriftReducesVaR(t *testing.T) {
	base := alternatingReturns(0.02, 252)
	drifted := make([]float64, len(base))
	for i, r := range base {
		drifted[i] = r + 0.001
	}

	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	noDrift, err := ParametricVaR(p, singleAssetSeries(t, base), CovarianceOptions{})
	require.NoError(t, err)
	withDrift, err := ParametricVaR(p, singleAssetSeries(t, drifted), CovarianceOptions{})
	require.NoError(t, err)

	assert.Less(t, withDrift.VaR, noDrift.VaR)
}

func TestParametricVaRHorizonScaling(t *testing.T) {
	rets := alternatingReturns(0.02, 252) // zero mean, so scaling is exact
	s := singleAssetSeries(t, rets)

	oneDay := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)
	fourDay := equalPortfolio(t, []string{"AAA"}, 1_000_000, 4, 0.95)

	r1, err := ParametricVaR(oneDay, s, CovarianceOptions{})
	require.NoError(t, err)
	r4, err := ParametricVaR(fourDay, s, CovarianceOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 2*r1.VaR, r4.VaR, 1e-6)
}

func TestParametricVaRClampsToZero(t *testing.T) {
	// Strong positive drift with tiny volatility pushes the quantile
	// into profit territory; VaR reports zero, not a negative loss.
	rets := make([]float64, 100)
	for i := range rets {
		rets[i] = 0.05
		if i%2 == 0 {
			rets[i] = 0.0501
		}
	}
	s := singleAssetSeries(t, rets)
	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	result, err := ParametricVaR(p, s, CovarianceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.VaR)
}

func TestParametricVaRDiversificationBenefit(t *testing.T) {
	// Two equally volatile assets with low correlation carry less
	// portfolio VaR than either asset alone.
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.02, 0.02}, 400, 11)

	both := equalPortfolio(t, []string{"AAA", "BBB"}, 1_000_000, 1, 0.95)
	combined, err := ParametricVaR(both, s, CovarianceOptions{})
	require.NoError(t, err)

	sdA := formulas.StdDev(s.Asset(0))
	sdB := formulas.StdDev(s.Asset(1))
	muA := formulas.Mean(s.Asset(0))
	muB := formulas.Mean(s.Asset(1))
	z := formulas.NormalQuantile(0.95)
	undiversified := 1_000_000 * (-(muA+muB)/2 + z*(sdA+sdB)/2)

	assert.Less(t, combined.VaR, undiversified)
}

func TestParametricVaRCovarianceOptions(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.02, 0.01}, 300, 13)
	p := equalPortfolio(t, []string{"AAA", "BBB"}, 1_000_000, 1, 0.95)

	lambda := 0.94
	ewma, err := ParametricVaR(p, s, CovarianceOptions{EWMALambda: &lambda})
	require.NoError(t, err)
	assert.Greater(t, ewma.VaR, 0.0)

	shrunk, err := ParametricVaR(p, s, CovarianceOptions{Shrinkage: true})
	require.NoError(t, err)
	assert.Greater(t, shrunk.VaR, 0.0)

	bad := 1.5
	_, err = ParametricVaR(p, s, CovarianceOptions{EWMALambda: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestParametricVaRInsufficientData(t *testing.T) {
	// Two assets over two periods cannot support a covariance estimate.
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.02, 0.02}, 2, 17)
	p := equalPortfolio(t, []string{"AAA", "BBB"}, 1_000_000, 1, 0.95)

	_, err := ParametricVaR(p, s, CovarianceOptions{})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestParametricVaRArbitraryConfidence(t *testing.T) {
	rets := alternatingReturns(0.02, 252)
	s := singleAssetSeries(t, rets)

	// 97.5% sits strictly between the 95% and 99% estimates.
	v := make(map[float64]float64)
	for _, c := range []float64{0.95, 0.975, 0.99} {
		p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, c)
		r, err := ParametricVaR(p, s, CovarianceOptions{})
		require.NoError(t, err)
		v[c] = r.VaR
	}
	assert.Greater(t, v[0.975], v[0.95])
	assert.Greater(t, v[0.99], v[0.975])

	expected := 1_000_000 * formulas.NormalQuantile(0.975) * formulas.StdDev(rets)
	assert.InDelta(t, expected, v[0.975], 1e-6)
	assert.False(t, math.IsNaN(v[0.975]))
}
