package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

func weightSum(w []float64) float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

func TestEqualWeights(t *testing.T) {
	w := EqualWeights(4)
	require.Len(t, w, 4)
	for _, v := range w {
		assert.InDelta(t, 0.25, v, 1e-15)
	}
}

func TestMarketCapWeights(t *testing.T) {
	w, err := MarketCapWeights([]float64{100, 300})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, w[0], 1e-12)
	assert.InDelta(t, 0.75, w[1], 1e-12)
	assert.InDelta(t, 1.0, weightSum(w), 1e-12)

	_, err = MarketCapWeights(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = MarketCapWeights([]float64{100, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestRiskParityWeights(t *testing.T) {
	// Second asset is twice as volatile, so it gets half the weight of
	// the first.
	low := []float64{0.01, -0.01, 0.01, -0.01}
	high := []float64{0.02, -0.02, 0.02, -0.02}
	s, err := returns.New(
		[]string{"LOW", "HIGH"},
		[]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
		[][]float64{low, high},
	)
	require.NoError(t, err)

	w, err := RiskParityWeights(s)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, weightSum(w), 1e-12)
	assert.InDelta(t, 2.0, w[0]/w[1], 1e-9)
}

func TestRiskParityWeightsZeroVolatility(t *testing.T) {
	s, err := returns.New(
		[]string{"FLAT", "VOL"},
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[][]float64{{0.01, 0.01, 0.01}, {0.02, -0.02, 0.01}},
	)
	require.NoError(t, err)

	_, err = RiskParityWeights(s)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestWeightsForScheme(t *testing.T) {
	s, err := returns.New(
		[]string{"AAA", "BBB"},
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[][]float64{{0.01, -0.02, 0.01}, {0.02, 0.01, -0.01}},
	)
	require.NoError(t, err)

	w, err := WeightsForScheme("", s, nil)
	require.NoError(t, err)
	assert.Equal(t, EqualWeights(2), w)

	w, err = WeightsForScheme(SchemeMarketCap, s, []float64{100, 100})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w[0], 1e-12)

	_, err = WeightsForScheme("momentum", s, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}
