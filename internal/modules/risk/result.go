// Package risk implements the VaR engine: historical simulation,
// parametric (variance-covariance) and Monte Carlo VaR, component VaR
// attribution and bootstrap-enhanced historical VaR. Every calculation
// is a pure function of its inputs; randomized methods take an explicit
// seed instead of relying on hidden generator state.
package risk

// Method tags the VaR methodology that produced a result.
type Method string

const (
	MethodHistorical Method = "historical"
	MethodParametric Method = "parametric"
	MethodMonteCarlo Method = "monte_carlo"
	// MethodAll requests every methodology in a single calculation.
	MethodAll Method = "all"
)

// Valid reports whether the tag names a known methodology.
func (m Method) Valid() bool {
	switch m {
	case MethodHistorical, MethodParametric, MethodMonteCarlo, MethodAll:
		return true
	}
	return false
}

// Result is a point estimate of tail loss, scaled to portfolio value
// and time horizon. VaR is a loss in currency units and never negative.
type Result struct {
	Method          Method  `json:"method"`
	VaR             float64 `json:"var"`
	ConfidenceLevel float64 `json:"confidence_level"`
	TimeHorizonDays int     `json:"time_horizon_days"`
	// Distribution holds the loss distribution (currency units) behind
	// the estimate, when the caller asked to keep it.
	Distribution []float64 `json:"distribution,omitempty"`
}

// Component is one asset's additive share of total portfolio VaR.
type Component struct {
	Symbol     string  `json:"symbol"`
	VaR        float64 `json:"var"`
	Percentage float64 `json:"percentage"`
}

// Decomposition maps total VaR onto per-asset contributions.
// Approximate is true for methods where the Euler allocation does not
// hold exactly and a finite-difference estimate is reported instead.
type Decomposition struct {
	Method      Method      `json:"method"`
	Approximate bool        `json:"approximate"`
	TotalVaR    float64     `json:"total_var"`
	Components  []Component `json:"components"`
}
