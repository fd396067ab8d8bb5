package risk

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/pkg/formulas"
)

const (
	// DefaultBootstrapDraws is the resample count when the caller does
	// not configure one.
	DefaultBootstrapDraws = 1000

	// bootstrapChunkSize is the number of resamples per worker chunk,
	// with per-chunk RNG streams exactly like the Monte Carlo method.
	bootstrapChunkSize = 128
)

// BootstrapOptions configures the bootstrap-enhanced historical VaR.
type BootstrapOptions struct {
	// Draws is the number of resamples, default 1000.
	Draws int
	// SampleSize is the length of each resample; 0 means the original
	// series length.
	SampleSize int
	// Seed governs reproducibility identically to Monte Carlo.
	Seed *uint64
}

// BootstrapResult summarizes the sampling distribution of the historical
// VaR estimator over resampled return series.
type BootstrapResult struct {
	Mean            float64 `json:"mean"`
	StdDev          float64 `json:"std_dev"`
	CILower         float64 `json:"ci_lower"`
	CIUpper         float64 `json:"ci_upper"`
	Draws           int     `json:"draws"`
	ConfidenceLevel float64 `json:"confidence_level"`
	TimeHorizonDays int     `json:"time_horizon_days"`
}

// BootstrapVaR resamples the portfolio return series with replacement,
// computes a historical VaR estimate per resample, and returns the mean
// and standard deviation of the estimates with a normal 95% confidence
// interval.
func BootstrapVaR(ctx context.Context, p *portfolio.Portfolio, series *returns.Series, opts BootstrapOptions) (*BootstrapResult, error) {
	draws := opts.Draws
	if draws == 0 {
		draws = DefaultBootstrapDraws
	}
	if draws < 2 {
		return nil, fmt.Errorf("%w: bootstrap draw count %d must be at least 2", domain.ErrInvalidParameter, opts.Draws)
	}

	portfolioReturns, err := p.Returns(series)
	if err != nil {
		return nil, err
	}
	if len(portfolioReturns) < 2 {
		return nil, fmt.Errorf("%w: bootstrap needs at least 2 periods, got %d", domain.ErrInsufficientData, len(portfolioReturns))
	}

	sampleSize := opts.SampleSize
	if sampleSize == 0 {
		sampleSize = len(portfolioReturns)
	}
	if sampleSize < 2 {
		return nil, fmt.Errorf("%w: bootstrap sample size %d must be at least 2", domain.ErrInvalidParameter, opts.SampleSize)
	}

	seed := uint64(time.Now().UnixNano())
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	value := p.Value()
	confidence := p.ConfidenceLevel()
	horizon := p.TimeHorizon()

	numChunks := (draws + bootstrapChunkSize - 1) / bootstrapChunkSize
	chunks := make([][]float64, numChunks)

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		if ctx.Err() != nil {
			break
		}

		size := bootstrapChunkSize
		if c == numChunks-1 {
			size = draws - c*bootstrapChunkSize
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(chunk, size int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewPCG(seed, uint64(chunk)+1))
			estimates := make([]float64, 0, size)
			resampled := make([]float64, sampleSize)
			for i := 0; i < size; i++ {
				for j := range resampled {
					resampled[j] = portfolioReturns[rng.IntN(len(portfolioReturns))]
				}
				result, err := historicalVaRFromReturns(resampled, value, confidence, horizon)
				if err != nil {
					continue
				}
				estimates = append(estimates, result.VaR)
			}
			chunks[chunk] = estimates
		}(c, size)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	estimates := make([]float64, 0, draws)
	for _, chunk := range chunks {
		estimates = append(estimates, chunk...)
	}
	if len(estimates) < 2 {
		return nil, fmt.Errorf("%w: bootstrap produced %d usable estimates", domain.ErrSimulation, len(estimates))
	}

	mean := formulas.Mean(estimates)
	sd := formulas.StdDev(estimates)
	z := formulas.NormalQuantile(0.975)

	lower := mean - z*sd
	if lower < 0 {
		lower = 0
	}

	return &BootstrapResult{
		Mean:            mean,
		StdDev:          sd,
		CILower:         lower,
		CIUpper:         mean + z*sd,
		Draws:           len(estimates),
		ConfidenceLevel: confidence,
		TimeHorizonDays: horizon,
	}, nil
}
