package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily return series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// LogReturns converts prices to log returns.
// Returns[i] = ln(Price[i+1] / Price[i])
// Non-positive prices yield a zero return for that period.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i] > 0 && prices[i-1] > 0 {
			returns[i-1] = math.Log(prices[i] / prices[i-1])
		}
	}
	return returns
}

// SimpleReturns converts prices to percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// TotalReturn calculates the cumulative compound return of a series:
// (1+r1)*(1+r2)*...*(1+rN) - 1
func TotalReturn(returns []float64) float64 {
	cumulative := 1.0
	for _, r := range returns {
		cumulative *= (1 + r)
	}
	return cumulative - 1
}

// AnnualReturn calculates the annualized compound return from daily returns.
//
// Formula: ((1+r1)*(1+r2)*...*(1+rN))^(252/N) - 1
//
// For very short series (< 3 days) the simple cumulative return is
// returned to avoid extreme annualization.
func AnnualReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}

	cumulative := 1.0 + TotalReturn(returns)

	numPeriods := float64(len(returns))
	if numPeriods < 3 {
		return cumulative - 1
	}

	years := numPeriods / TradingDaysPerYear
	return math.Pow(cumulative, 1.0/years) - 1
}

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
// The second return value is false when volatility is zero, in which
// case the ratio is undefined and must not be used.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) (float64, bool) {
	vol := AnnualizedVolatility(dailyReturns)
	if vol == 0 {
		return 0, false
	}
	excess := Mean(dailyReturns)*TradingDaysPerYear - riskFreeRate
	return excess / vol, true
}

// MaxDrawdown calculates the maximum peak-to-trough decline of the
// cumulative wealth curve W_t = Π(1+r_s), expressed as a positive fraction.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	wealth := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		wealth *= (1 + r)
		if wealth > peak {
			peak = wealth
		}
		if dd := (peak - wealth) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Skewness calculates the sample skewness of a return series.
func Skewness(returns []float64) float64 {
	if len(returns) < 3 {
		return 0
	}
	return stat.Skew(returns, nil)
}

// ExcessKurtosis calculates the sample excess kurtosis of a return series.
func ExcessKurtosis(returns []float64) float64 {
	if len(returns) < 4 {
		return 0
	}
	return stat.ExKurtosis(returns, nil)
}
