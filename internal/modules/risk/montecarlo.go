package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/pkg/formulas"
)

const (
	// DefaultSimulations is the Monte Carlo draw count when the caller
	// does not configure one.
	DefaultSimulations = 10000

	// mcChunkSize is the number of draws per worker chunk. Each chunk
	// owns an RNG stream derived from (seed, chunk index), so results
	// are deterministic for a given seed regardless of scheduling.
	mcChunkSize = 2048

	// minValidFraction is the share of draws that must survive the NaN
	// filter before the batch is rejected as numerically unstable.
	minValidFraction = 0.9
)

// MonteCarloOptions configures the Monte Carlo method. Simulation count
// and seed are explicit inputs, never hidden global state.
type MonteCarloOptions struct {
	// Simulations is the number of independent draws, default 10,000.
	Simulations int
	// Seed makes runs bit-reproducible when set. When nil the generator
	// is time-seeded and the run is still valid, just not reproducible.
	Seed *uint64
	// Covariance selects the Σ estimator shared with the parametric method.
	Covariance CovarianceOptions
}

// MonteCarloVaR estimates VaR by drawing multivariate-normal asset
// return vectors with historical means and covariance, both scaled to
// the portfolio horizon, and taking the empirical quantile of the
// simulated loss distribution.
//
// Draws are embarrassingly parallel: they are split across worker
// chunks and concatenated before the quantile step. Draws that produce
// a NaN loss are discarded; the batch fails only when fewer than 90% of
// draws survive.
func MonteCarloVaR(ctx context.Context, p *portfolio.Portfolio, series *returns.Series, opts MonteCarloOptions) (*Result, error) {
	sims := opts.Simulations
	if sims == 0 {
		sims = DefaultSimulations
	}
	if sims < 1 {
		return nil, fmt.Errorf("%w: simulation count %d must be positive", domain.ErrInvalidParameter, opts.Simulations)
	}
	if series.Periods() < 2 {
		return nil, fmt.Errorf("%w: Monte Carlo needs at least 2 periods to estimate moments, got %d", domain.ErrInsufficientData, series.Periods())
	}

	cov, err := estimateCovariance(series, opts.Covariance)
	if err != nil {
		return nil, err
	}

	h := float64(p.TimeHorizon())
	sigma, err := horizonSigma(cov.Scale(h).Sym())
	if err != nil {
		return nil, err
	}

	mu := series.Means()
	muH := make([]float64, len(mu))
	for i := range mu {
		muH[i] = mu[i] * h
	}

	seed := uint64(time.Now().UnixNano())
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	weights := p.Weights()
	value := p.Value()
	numChunks := (sims + mcChunkSize - 1) / mcChunkSize
	chunks := make([][]float64, numChunks)

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		if ctx.Err() != nil {
			break
		}

		size := mcChunkSize
		if c == numChunks-1 {
			size = sims - c*mcChunkSize
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(chunk, size int) {
			defer wg.Done()
			defer func() { <-sem }()

			src := rand.NewPCG(seed, uint64(chunk)+1)
			dist, ok := distmv.NewNormal(muH, sigma, src)
			if !ok {
				// Leave the chunk empty; the minimum-valid-sample
				// check below decides whether the batch survives.
				return
			}

			losses := make([]float64, 0, size)
			x := make([]float64, len(weights))
			for i := 0; i < size; i++ {
				dist.Rand(x)
				var rp float64
				for j := range weights {
					rp += weights[j] * x[j]
				}
				loss := -rp * value
				if math.IsNaN(loss) || math.IsInf(loss, 0) {
					continue
				}
				losses = append(losses, loss)
			}
			chunks[chunk] = losses
		}(c, size)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	losses := make([]float64, 0, sims)
	for _, chunk := range chunks {
		losses = append(losses, chunk...)
	}

	if len(losses) == 0 {
		return nil, fmt.Errorf("%w: all %d Monte Carlo draws were discarded", domain.ErrSimulation, sims)
	}
	if float64(len(losses)) < minValidFraction*float64(sims) {
		return nil, fmt.Errorf("%w: only %d of %d Monte Carlo draws were usable", domain.ErrNumericalInstability, len(losses), sims)
	}

	varEstimate := formulas.EmpiricalQuantile(losses, p.ConfidenceLevel())
	if varEstimate < 0 {
		varEstimate = 0
	}

	return &Result{
		Method:          MethodMonteCarlo,
		VaR:             varEstimate,
		ConfidenceLevel: p.ConfidenceLevel(),
		TimeHorizonDays: p.TimeHorizon(),
		Distribution:    losses,
	}, nil
}

// horizonSigma validates that Σ is usable for multivariate-normal
// sampling, adding a tiny diagonal ridge once if the Cholesky
// factorization rejects it.
func horizonSigma(sigma *mat.SymDense) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if chol.Factorize(sigma) {
		return sigma, nil
	}

	n := sigma.SymmetricDim()
	maxDiag := 0.0
	for i := 0; i < n; i++ {
		if d := sigma.At(i, i); d > maxDiag {
			maxDiag = d
		}
	}
	if maxDiag <= 0 {
		return nil, fmt.Errorf("%w: covariance matrix is not positive definite", domain.ErrNumericalInstability)
	}

	ridged := mat.NewSymDense(n, nil)
	ridged.CopySym(sigma)
	ridge := 1e-10 * maxDiag
	for i := 0; i < n; i++ {
		ridged.SetSym(i, i, ridged.At(i, i)+ridge)
	}

	if !chol.Factorize(ridged) {
		return nil, fmt.Errorf("%w: covariance matrix is not positive definite after ridging", domain.ErrNumericalInstability)
	}
	return ridged, nil
}
