package risk

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/riskcalc/internal/modules/portfolio"
	"github.com/aristath/riskcalc/internal/modules/returns"
)

func tradingDates(n int) []string {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	dates := make([]string, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}

// syntheticSeries draws independent normal daily returns per asset from a
// fixed generator, so every test run sees the same data.
func syntheticSeries(t *testing.T, symbols []string, mu, sigma []float64, periods int, seed uint64) *returns.Series {
	t.Helper()
	require.Equal(t, len(symbols), len(mu))
	require.Equal(t, len(symbols), len(sigma))

	src := rand.NewPCG(seed, seed+1)
	data := make([][]float64, len(symbols))
	for i := range symbols {
		dist := distuv.Normal{Mu: mu[i], Sigma: sigma[i], Src: src}
		col := make([]float64, periods)
		for k := range col {
			col[k] = dist.Rand()
		}
		data[i] = col
	}

	s, err := returns.New(symbols, tradingDates(periods), data)
	require.NoError(t, err)
	return s
}

func singleAssetSeries(t *testing.T, rets []float64) *returns.Series {
	t.Helper()
	s, err := returns.New([]string{"AAA"}, tradingDates(len(rets)), [][]float64{rets})
	require.NoError(t, err)
	return s
}

func equalPortfolio(t *testing.T, symbols []string, value float64, horizon int, confidence float64) *portfolio.Portfolio {
	t.Helper()
	p, err := portfolio.New(symbols, portfolio.EqualWeights(len(symbols)), value, horizon, confidence)
	require.NoError(t, err)
	return p
}

// alternatingReturns yields +r, -r, +r, ... with zero mean for even n.
func alternatingReturns(r float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = r
		} else {
			out[i] = -r
		}
	}
	return out
}

func seedPtr(v uint64) *uint64 { return &v }
