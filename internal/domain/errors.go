// Package domain holds pure domain types shared across modules.
// It has no infrastructure dependencies.
package domain

import "errors"

// Error taxonomy for the risk engine. Every failure returned by the
// calculation modules wraps one of these sentinels, so callers can
// classify errors with errors.Is without parsing messages.
var (
	// ErrInvalidParameter covers out-of-range confidence levels,
	// non-positive portfolio values, weight vectors that do not sum
	// to 1, and mismatched asset/weight counts.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientData means too few return periods were supplied
	// for the requested covariance or VaR method.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNumericalInstability means a covariance matrix failed the
	// positive-semi-definite check, or too many simulation draws were
	// discarded as NaN.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrSimulation means Monte Carlo or bootstrap parameters produced
	// an empty or degenerate sample set.
	ErrSimulation = errors.New("degenerate simulation")
)
