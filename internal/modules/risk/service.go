package risk

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/covariance"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

// Defaults are fallbacks for method parameters the caller leaves unset.
type Defaults struct {
	Simulations    int
	BootstrapDraws int
	EWMALambda     float64
}

// Request is the full calculation request the presentation layer sends.
// Method-specific parameters are explicit; unset optional values fall
// back to the service defaults.
type Request struct {
	Symbols         []string  `json:"symbols" validate:"required,min=1"`
	Weights         []float64 `json:"weights,omitempty"`
	PortfolioValue  float64   `json:"portfolio_value" validate:"required,gt=0"`
	ConfidenceLevel float64   `json:"confidence_level" validate:"required,gt=0,lt=1"`
	TimeHorizonDays int       `json:"time_horizon_days" validate:"required,gte=1"`
	Method          Method    `json:"method" validate:"required,oneof=historical parametric monte_carlo all"`

	// Parametric / Monte Carlo covariance estimation.
	EWMALambda *float64 `json:"ewma_lambda,omitempty" validate:"omitempty,gt=0,lt=1"`
	Shrinkage  bool     `json:"shrinkage,omitempty"`

	// Monte Carlo.
	Simulations int     `json:"simulations,omitempty" validate:"omitempty,gte=1"`
	Seed        *uint64 `json:"seed,omitempty"`

	// Bootstrap.
	IncludeBootstrap bool    `json:"include_bootstrap,omitempty"`
	BootstrapDraws   int     `json:"bootstrap_draws,omitempty" validate:"omitempty,gte=2"`
	BootstrapSeed    *uint64 `json:"bootstrap_seed,omitempty"`

	// Derived analytics.
	RiskFreeRate        float64 `json:"risk_free_rate,omitempty"`
	IncludeComponents   bool    `json:"include_components,omitempty"`
	IncludeMetrics      bool    `json:"include_metrics,omitempty"`
	IncludeCorrelation  bool    `json:"include_correlation,omitempty"`
	IncludeDistribution bool    `json:"include_distribution,omitempty"`
}

// Response carries every record the presentation layer may render.
type Response struct {
	Results     []Result           `json:"results"`
	Components  *Decomposition     `json:"components,omitempty"`
	Metrics     *portfolio.Metrics `json:"metrics,omitempty"`
	Bootstrap   *BootstrapResult   `json:"bootstrap,omitempty"`
	Symbols     []string           `json:"symbols,omitempty"`
	Covariance  [][]float64        `json:"covariance,omitempty"`
	Correlation [][]float64        `json:"correlation,omitempty"`
}

// Service dispatches calculation requests to the pure method functions.
// It holds no mutable state beyond configuration and a logger, so a
// single instance serves concurrent requests.
type Service struct {
	defaults Defaults
	log      zerolog.Logger
}

// NewService creates the risk calculation service.
func NewService(defaults Defaults, log zerolog.Logger) *Service {
	if defaults.Simulations == 0 {
		defaults.Simulations = DefaultSimulations
	}
	if defaults.BootstrapDraws == 0 {
		defaults.BootstrapDraws = DefaultBootstrapDraws
	}
	if defaults.EWMALambda == 0 {
		defaults.EWMALambda = covariance.DefaultEWMALambda
	}
	return &Service{
		defaults: defaults,
		log:      log.With().Str("component", "risk_service").Logger(),
	}
}

// Calculate runs the requested VaR methods plus optional analytics over
// an aligned return series. Weights default to equal weighting when the
// request omits them. Validation fails fast: no partial results.
func (s *Service) Calculate(ctx context.Context, series *returns.Series, req Request) (*Response, error) {
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown method %q", domain.ErrInvalidParameter, req.Method)
	}

	weights := req.Weights
	if len(weights) == 0 {
		weights = portfolio.EqualWeights(len(req.Symbols))
	}

	p, err := portfolio.New(req.Symbols, weights, req.PortfolioValue, req.TimeHorizonDays, req.ConfidenceLevel)
	if err != nil {
		return nil, err
	}

	covOpts := CovarianceOptions{
		EWMALambda: req.EWMALambda,
		Shrinkage:  req.Shrinkage,
	}

	s.log.Debug().
		Strs("symbols", req.Symbols).
		Str("method", string(req.Method)).
		Float64("confidence", req.ConfidenceLevel).
		Int("horizon_days", req.TimeHorizonDays).
		Msg("Calculating VaR")

	resp := &Response{Symbols: p.Symbols()}

	methods := []Method{req.Method}
	if req.Method == MethodAll {
		methods = []Method{MethodHistorical, MethodParametric, MethodMonteCarlo}
	}

	for _, method := range methods {
		var result *Result
		switch method {
		case MethodHistorical:
			result, err = HistoricalVaR(p, series)
		case MethodParametric:
			result, err = ParametricVaR(p, series, covOpts)
		case MethodMonteCarlo:
			result, err = MonteCarloVaR(ctx, p, series, MonteCarloOptions{
				Simulations: s.simulations(req),
				Seed:        req.Seed,
				Covariance:  covOpts,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("%s VaR: %w", method, err)
		}

		if !req.IncludeDistribution {
			result.Distribution = nil
		}
		resp.Results = append(resp.Results, *result)
	}

	if req.IncludeComponents {
		components, err := ComponentVaR(p, series, covOpts)
		if err != nil {
			return nil, fmt.Errorf("component VaR: %w", err)
		}
		resp.Components = components
	}

	if req.IncludeBootstrap {
		draws := req.BootstrapDraws
		if draws == 0 {
			draws = s.defaults.BootstrapDraws
		}
		bootstrap, err := BootstrapVaR(ctx, p, series, BootstrapOptions{
			Draws: draws,
			Seed:  req.BootstrapSeed,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap VaR: %w", err)
		}
		resp.Bootstrap = bootstrap
	}

	if req.IncludeMetrics {
		portfolioReturns, err := p.Returns(series)
		if err != nil {
			return nil, err
		}
		metrics, err := portfolio.ComputeMetrics(portfolioReturns, req.RiskFreeRate)
		if err != nil {
			return nil, err
		}
		resp.Metrics = metrics
	}

	if req.IncludeCorrelation {
		cov, err := estimateCovariance(series, covOpts)
		if err != nil {
			return nil, err
		}
		corr, err := cov.Correlation()
		if err != nil {
			return nil, err
		}
		resp.Covariance = cov.Rows()
		resp.Correlation = corr.Rows()
	}

	return resp, nil
}

func (s *Service) simulations(req Request) int {
	if req.Simulations > 0 {
		return req.Simulations
	}
	return s.defaults.Simulations
}
