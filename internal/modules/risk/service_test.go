package risk

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskcalc/internal/domain"
)

func newTestService() *Service {
	return NewService(Defaults{}, zerolog.Nop())
}

func threeAssetRequest() Request {
	return Request{
		Symbols:         []string{"AAA", "BBB", "CCC"},
		PortfolioValue:  1_000_000,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
		Method:          MethodAll,
		Seed:            seedPtr(11),
		BootstrapSeed:   seedPtr(12),
	}
}

func TestCalculateAllMethodsAgree(t *testing.T) {
	// Near-normal synthetic returns: the three methodologies estimate the
	// same tail and should land in the same neighborhood.
	s := syntheticSeries(t, []string{"AAA", "BBB", "CCC"},
		[]float64{0, 0, 0}, []float64{0.012, 0.010, 0.008}, 500, 83)

	resp, err := newTestService().Calculate(context.Background(), s, threeAssetRequest())
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, MethodHistorical, resp.Results[0].Method)
	assert.Equal(t, MethodParametric, resp.Results[1].Method)
	assert.Equal(t, MethodMonteCarlo, resp.Results[2].Method)

	for _, r := range resp.Results {
		assert.Greater(t, r.VaR, 0.0, "%s VaR must be positive", r.Method)
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			assert.InEpsilon(t, resp.Results[i].VaR, resp.Results[j].VaR, 0.20,
				"%s and %s estimates diverge", resp.Results[i].Method, resp.Results[j].Method)
		}
	}
}

func TestCalculateSingleMethod(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA"}, []float64{0}, []float64{0.015}, 300, 89)

	req := Request{
		Symbols:         []string{"AAA"},
		PortfolioValue:  500_000,
		ConfidenceLevel: 0.99,
		TimeHorizonDays: 10,
		Method:          MethodHistorical,
	}

	resp, err := newTestService().Calculate(context.Background(), s, req)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, MethodHistorical, resp.Results[0].Method)
	assert.Equal(t, 0.99, resp.Results[0].ConfidenceLevel)
	assert.Equal(t, 10, resp.Results[0].TimeHorizonDays)
	assert.Nil(t, resp.Results[0].Distribution, "distribution is stripped unless requested")
	assert.Equal(t, []string{"AAA"}, resp.Symbols)
}

func TestCalculateIncludeDistribution(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA"}, []float64{0}, []float64{0.015}, 300, 97)

	req := Request{
		Symbols:             []string{"AAA"},
		PortfolioValue:      1_000_000,
		ConfidenceLevel:     0.95,
		TimeHorizonDays:     1,
		Method:              MethodHistorical,
		IncludeDistribution: true,
	}

	resp, err := newTestService().Calculate(context.Background(), s, req)
	require.NoError(t, err)
	assert.Len(t, resp.Results[0].Distribution, s.Periods())
}

func TestCalculateOptionalAnalytics(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.015, 0.01}, 300, 101)

	req := Request{
		Symbols:            []string{"AAA", "BBB"},
		Weights:            []float64{0.6, 0.4},
		PortfolioValue:     1_000_000,
		ConfidenceLevel:    0.95,
		TimeHorizonDays:    1,
		Method:             MethodParametric,
		IncludeComponents:  true,
		IncludeBootstrap:   true,
		BootstrapDraws:     200,
		BootstrapSeed:      seedPtr(5),
		IncludeMetrics:     true,
		IncludeCorrelation: true,
		RiskFreeRate:       0.02,
	}

	resp, err := newTestService().Calculate(context.Background(), s, req)
	require.NoError(t, err)

	require.NotNil(t, resp.Components)
	require.Len(t, resp.Components.Components, 2)
	assert.Equal(t, resp.Results[0].VaR, resp.Components.TotalVaR)

	require.NotNil(t, resp.Bootstrap)
	assert.Equal(t, 200, resp.Bootstrap.Draws)

	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 0.02, resp.Metrics.RiskFreeRate)

	require.Len(t, resp.Correlation, 2)
	require.Len(t, resp.Covariance, 2)
	assert.Equal(t, 1.0, resp.Correlation[0][0])
	assert.Equal(t, 1.0, resp.Correlation[1][1])
}

func TestCalculateDefaultsToEqualWeights(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.015, 0.015}, 300, 103)

	implicit := Request{
		Symbols:         []string{"AAA", "BBB"},
		PortfolioValue:  1_000_000,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
		Method:          MethodParametric,
	}
	explicit := implicit
	explicit.Weights = []float64{0.5, 0.5}

	svc := newTestService()
	a, err := svc.Calculate(context.Background(), s, implicit)
	require.NoError(t, err)
	b, err := svc.Calculate(context.Background(), s, explicit)
	require.NoError(t, err)

	assert.Equal(t, a.Results[0].VaR, b.Results[0].VaR)
}

func TestCalculateValidationErrors(t *testing.T) {
	s := syntheticSeries(t, []string{"AAA", "BBB"}, []float64{0, 0}, []float64{0.015, 0.01}, 300, 107)

	base := Request{
		Symbols:         []string{"AAA", "BBB"},
		PortfolioValue:  1_000_000,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
		Method:          MethodParametric,
	}

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"unknown method", func(r *Request) { r.Method = "cornish_fisher" }},
		{"weights do not sum to 1", func(r *Request) { r.Weights = []float64{0.7, 0.7} }},
		{"negative weight", func(r *Request) { r.Weights = []float64{1.5, -0.5} }},
		{"zero value", func(r *Request) { r.PortfolioValue = 0 }},
		{"confidence out of range", func(r *Request) { r.ConfidenceLevel = 1.0 }},
		{"zero horizon", func(r *Request) { r.TimeHorizonDays = 0 }},
	}

	svc := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Calculate(context.Background(), s, req)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}

func TestCalculateInsufficientDataSurfaces(t *testing.T) {
	s := singleAssetSeries(t, []float64{0.01})

	req := Request{
		Symbols:         []string{"AAA"},
		PortfolioValue:  1_000_000,
		ConfidenceLevel: 0.95,
		TimeHorizonDays: 1,
		Method:          MethodHistorical,
	}

	_, err := newTestService().Calculate(context.Background(), s, req)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
