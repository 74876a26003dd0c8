package volatility

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "macrostudy/internal/errors"
)

const (
	// DefaultTradingDays annualizes daily variance
	DefaultTradingDays = 252
	// DefaultLambda is the RiskMetrics daily decay factor
	DefaultLambda = 0.94
	// DefaultDDOF is the sample standard deviation correction
	DefaultDDOF = 1

	minObservations = 2
)

// ErrInvalidParameter is returned for a smoothing factor outside (0, 1)
var ErrInvalidParameter = apperrors.NewInvalidParameterError("ewma lambda must be in the open interval (0, 1)", nil)

// Insufficient reports whether v is the insufficient-data sentinel
func Insufficient(v float64) bool {
	return math.IsNaN(v)
}

// RealizedVol returns the annualized sample standard deviation of returns
// with ddof degrees of freedom removed. NaNs are dropped first.
func RealizedVol(returns []float64, tradingDays int, ddof int) float64 {
	r := DropNaN(returns)
	n := len(r)
	if n < minObservations || n-ddof <= 0 {
		return math.NaN()
	}

	// stat.Variance divides by n-1
	variance := stat.Variance(r, nil) * float64(n-1) / float64(n-ddof)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) * math.Sqrt(float64(tradingDays))
}

// EWMAVol returns the annualized exponentially weighted volatility of returns.
// The running variance is seeded with the sample variance of the valid
// observations and updated as var = lam*var + (1-lam)*x^2 in the order given,
// so returns must be chronological.
func EWMAVol(returns []float64, lam float64, tradingDays int) (float64, error) {
	if err := ValidateLambda(lam); err != nil {
		return math.NaN(), err
	}

	r := DropNaN(returns)
	if len(r) < minObservations {
		return math.NaN(), nil
	}

	variance := stat.Variance(r, nil)
	if variance < 0 {
		variance = 0
	}
	for _, x := range r {
		variance = lam*variance + (1-lam)*x*x
	}

	return math.Sqrt(variance * float64(tradingDays)), nil
}

// ValidateLambda checks that lam lies strictly between 0 and 1
func ValidateLambda(lam float64) error {
	if !(lam > 0 && lam < 1) {
		return fmt.Errorf("lambda %v: %w", lam, ErrInvalidParameter)
	}
	return nil
}

// Rolling returns the trailing realized volatility over window observations
// ending at each position. Positions before the first full window, and
// windows with fewer than two valid observations, are NaN.
func Rolling(returns []float64, window, tradingDays int) []float64 {
	out := make([]float64, len(returns))
	for i := range out {
		if window < minObservations || i+1 < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = RealizedVol(returns[i+1-window:i+1], tradingDays, DefaultDDOF)
	}
	return out
}

// DropNaN returns the non-NaN elements of values in order
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
