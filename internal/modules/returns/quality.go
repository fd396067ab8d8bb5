package returns

import (
	"fmt"
	"math"

	"github.com/aristath/riskcalc/internal/domain"
	"github.com/aristath/riskcalc/pkg/formulas"
)

// MaxMissingFraction is the per-symbol share of missing observations
// above which a price table is rejected instead of filled.
const MaxMissingFraction = 0.1

// FillMissing fills NaN gaps in a price slice using forward-fill, then
// back-fill for leading gaps. A copy is returned; the input is not modified.
func FillMissing(prices []float64) []float64 {
	filled := make([]float64, len(prices))
	copy(filled, prices)

	var lastValid float64
	hasLastValid := false
	for i := 0; i < len(filled); i++ {
		if math.IsNaN(filled[i]) {
			if hasLastValid {
				filled[i] = lastValid
			}
		} else {
			lastValid = filled[i]
			hasLastValid = true
		}
	}

	var nextValid float64
	hasNextValid := false
	for i := len(filled) - 1; i >= 0; i-- {
		if math.IsNaN(filled[i]) {
			if hasNextValid {
				filled[i] = nextValid
			}
		} else {
			nextValid = filled[i]
			hasNextValid = true
		}
	}

	return filled
}

// ValidatePrices checks a price slice for use in return construction:
// enough observations, not too many missing values, and not constant.
func ValidatePrices(symbol string, prices []float64, minObservations int) error {
	if len(prices) == 0 {
		return fmt.Errorf("%w: no prices for symbol %s", domain.ErrInsufficientData, symbol)
	}
	if len(prices) < minObservations {
		return fmt.Errorf("%w: symbol %s has %d observations (minimum %d)", domain.ErrInsufficientData, symbol, len(prices), minObservations)
	}

	missing := 0
	valid := make([]float64, 0, len(prices))
	for _, p := range prices {
		if math.IsNaN(p) {
			missing++
		} else {
			valid = append(valid, p)
		}
	}
	if float64(missing) > MaxMissingFraction*float64(len(prices)) {
		return fmt.Errorf("%w: symbol %s is missing %d of %d observations", domain.ErrInsufficientData, symbol, missing, len(prices))
	}

	if formulas.StdDev(valid) == 0 {
		return fmt.Errorf("%w: symbol %s has constant prices", domain.ErrInvalidParameter, symbol)
	}

	return nil
}

// OutliersIQR flags observations outside [Q1 - 1.5·IQR, Q3 + 1.5·IQR].
func OutliersIQR(data []float64) []bool {
	flags := make([]bool, len(data))
	if len(data) < 4 {
		return flags
	}

	q1 := formulas.EmpiricalQuantile(data, 0.25)
	q3 := formulas.EmpiricalQuantile(data, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	for i, v := range data {
		flags[i] = v < lower || v > upper
	}
	return flags
}

// OutliersZScore flags observations whose absolute z-score exceeds threshold.
func OutliersZScore(data []float64, threshold float64) []bool {
	flags := make([]bool, len(data))
	sd := formulas.StdDev(data)
	if sd == 0 {
		return flags
	}

	mean := formulas.Mean(data)
	for i, v := range data {
		if math.Abs((v-mean)/sd) > threshold {
			flags[i] = true
		}
	}
	return flags
}
