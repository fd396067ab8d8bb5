package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmpiricalQuantile(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		p        float64
		expected float64
	}{
		{"median interpolates between middle values", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"exact order statistic", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"quarter quantile", []float64{1, 2, 3, 4, 5}, 0.25, 2},
		{"unsorted input is handled", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"p=0 returns the minimum", []float64{5, 1, 3}, 0, 1},
		{"p=1 returns the maximum", []float64{5, 1, 3}, 1, 5},
		{"single value", []float64{7}, 0.95, 7},
		{"empty data", nil, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EmpiricalQuantile(tt.data, tt.p), 1e-12)
		})
	}
}

func TestEmpiricalQuantileDoesNotModifyInput(t *testing.T) {
	data := []float64{4, 1, 3, 2}
	EmpiricalQuantile(data, 0.5)
	assert.Equal(t, []float64{4, 1, 3, 2}, data)
}

func TestNormalQuantile(t *testing.T) {
	assert.InDelta(t, 1.6449, NormalQuantile(0.95), 1e-3)
	assert.InDelta(t, 2.3263, NormalQuantile(0.99), 1e-3)
	assert.InDelta(t, 0.0, NormalQuantile(0.5), 1e-12)
	// Symmetry around the median.
	assert.InDelta(t, -NormalQuantile(0.95), NormalQuantile(0.05), 1e-12)
}
