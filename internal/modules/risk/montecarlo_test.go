package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcalc/internal/domain"
)

func TestMonteCarloVaRSeedDeterminism(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.02, 0.01}, 300, 19)
	p := equalPortfolio(t, []string{"AAA", "BBB"}, 1_000_000, 1, 0.95)

	opts := MonteCarloOptions{Simulations: 20_000, Seed: seedPtr(42)}

	first, err := MonteCarloVaR(context.Background(), p, s, opts)
	require.NoError(t, err)
	second, err := MonteCarloVaR(context.Background(), p, s, opts)
	require.NoError(t, err)

	// Same seed, bit-identical output, regardless of goroutine scheduling.
	assert.Equal(t, first.VaR, second.VaR)
	assert.Equal(t, first.Distribution, second.Distribution)

	other, err := MonteCarloVaR(context.Background(), p, s, MonteCarloOptions{Simulations: 20_000, Seed: seedPtr(43)})
	require.NoError(t, err)
	assert.NotEqual(t, first.VaR, other.VaR)
}

func TestMonteCarloVaRConvergesToParametric(t *testing.T) {
	// Simulated losses are normal with the same fitted moments the
	// parametric method uses, so with enough draws the two estimates
	// coincide.
	s := syntheticSeries(t, []string{"AAA", "BBB", "CCC"},
		[]float64{0, 0, 0}, []float64{0.02, 0.015, 0.01}, 400, 23)
	p := equalPortfolio(t, []string{"AAA", "BBB", "CCC"}, 1_000_000, 1, 0.95)

	parametric, err := ParametricVaR(p, s, CovarianceOptions{})
	require.NoError(t, err)

	mc, err := MonteCarloVaR(context.Background(), p, s, MonteCarloOptions{
		Simulations: 100_000,
		Seed:        seedPtr(7),
	})
	require.NoError(t, err)

	assert.InEpsilon(t, parametric.VaR, mc.VaR, 0.02)
}

func TestMonteCarloVaRDefaults(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA"}, []float64{0}, []float64{0.02}, 300, 29)
	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	result, err := MonteCarloVaR(context.Background(), p, s, MonteCarloOptions{Seed: seedPtr(1)})
	require.NoError(t, err)

	assert.Equal(t, MethodMonteCarlo, result.Method)
	assert.Len(t, result.Distribution, DefaultSimulations)
	assert.Greater(t, result.VaR, 0.0)
}

func TestMonteCarloVaRHorizonMatchesParametric(t *testing.T) {
	// Horizon scaling enters through the simulated moments, so the
	// multi-day estimate must agree with the closed form at the same
	// horizon, not just at one day.
	s := syntheticSeries(t, []string{"AAA"}, []float64{0}, []float64{0.02}, 300, 31)
	nineDay := equalPortfolio(t, []string{"AAA"}, 1_000_000, 9, 0.95)

	parametric, err := ParametricVaR(nineDay, s, CovarianceOptions{})
	require.NoError(t, err)

	mc, err := MonteCarloVaR(context.Background(), nineDay, s, MonteCarloOptions{Simulations: 50_000, Seed: seedPtr(5)})
	require.NoError(t, err)

	assert.InEpsilon(t, parametric.VaR, mc.VaR, 0.03)
}

func TestMonteCarloVaRInvalidSimulationCount(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA"}, []float64{0}, []float64{0.02}, 300, 37)
	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	_, err := MonteCarloVaR(context.Background(), p, s, MonteCarloOptions{Simulations: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestMonteCarloVaRInsufficientData(t *testing.T) {
	s := singleAssetSeries(t, []float64{0.01})
	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	_, err := MonteCarloVaR(context.Background(), p, s, MonteCarloOptions{})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestMonteCarloVaRCancelledContext(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA"}, []float64{0}, []float64{0.02}, 300, 41)
	p := equalPortfolio(t, []string{"AAA"}, 1_000_000, 1, 0.95)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MonteCarloVaR(ctx, p, s, MonteCarloOptions{Seed: seedPtr(1)})
	assert.ErrorIs(t, err, context.Canceled)
}
