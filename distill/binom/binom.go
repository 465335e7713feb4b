// Package binom provides confidence bounds on binomial proportions, as needed
// for error rate estimation over a disclosed bit sample.
package binom

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// A Bound is a point estimate of a binomial proportion together with a
// two-sided confidence interval at level 1-alpha. Callers interested in a
// one-sided bound read only Upper or only Lower.
type Bound struct {
	Successes int
	Trials    int
	Alpha     float64
	Point     float64
	Lower     float64
	Upper     float64
}

// ClopperPearson returns the exact (Beta-quantile) confidence bound for
// observing k successes in n trials.
//
// Degenerate inputs follow the usual conventions: zero trials yields the
// vacuous interval [0, 1], k == 0 pins the lower bound to 0, and k == n pins
// the upper bound to 1.
func ClopperPearson(k, n int, alpha float64) Bound {
	b := Bound{Successes: k, Trials: n, Alpha: alpha, Upper: 1}
	if n == 0 {
		return b
	}
	b.Point = float64(k) / float64(n)
	if k > 0 {
		lo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		b.Lower = lo.Quantile(alpha / 2)
	}
	if k < n {
		hi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		b.Upper = hi.Quantile(1 - alpha/2)
	}
	return b
}

// Wilson returns the normal-approximation (Wilson score) confidence bound for
// observing k successes in n trials. It is interchangeable with ClopperPearson
// wherever an exact Beta quantile is unavailable or too slow, at the cost of
// being approximate for very small n.
func Wilson(k, n int, alpha float64) Bound {
	b := Bound{Successes: k, Trials: n, Alpha: alpha, Upper: 1}
	if n == 0 {
		return b
	}
	p := float64(k) / float64(n)
	b.Point = p
	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	nn := float64(n)
	denom := 1 + z*z/nn
	center := (p + z*z/(2*nn)) / denom
	half := z * math.Sqrt(p*(1-p)/nn+z*z/(4*nn*nn)) / denom
	b.Lower = clamp01(center - half)
	b.Upper = clamp01(center + half)
	if k == 0 {
		b.Lower = 0
	}
	if k == n {
		b.Upper = 1
	}
	return b
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
