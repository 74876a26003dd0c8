// Package volatility provides annualized volatility estimators over daily log
// returns: sample (realized) volatility, an exponentially weighted estimator
// and a trailing rolling series.
//
// A NaN result means the window held fewer than two valid observations. It is
// not an error; callers check it with Insufficient before using the value.
package volatility
