package distill

import "math"

// BinaryEntropy returns the Shannon entropy of a Bernoulli(x) variable,
// defined as 0 at the endpoints.
func BinaryEntropy(x float64) float64 {
	if x <= 0 || x >= 1 {
		return 0
	}
	return -x*math.Log2(x) - (1-x)*math.Log2(1-x)
}

// SafetyBits returns the finite-size deduction for a target failure
// probability: ceil(2*log2(1/failureProb)).
func SafetyBits(failureProb float64) int {
	return int(math.Ceil(2 * math.Log2(1/failureProb)))
}

// A Budget gathers everything the security accounting charges against a
// corrected pool: its length, the bounded error rate, the reconciliation
// leakage, and the finite-size safety margin.
type Budget struct {
	PoolLen    int
	QberUpper  float64
	LeakedBits int
	SafetyBits int
}

// FinalLength returns the number of secret bits that may safely be extracted
// from the pool. An adversary is credited with h2(qber) bits of information
// per pool bit, every disclosed parity, and the safety margin. Zero means no
// secure key material remains; callers treat that as an expected terminal
// outcome, not a failure of the arithmetic.
func (b Budget) FinalLength() int {
	rate := 1 - BinaryEntropy(b.QberUpper)
	if rate < 0 {
		rate = 0
	}
	m := int(math.Floor(float64(b.PoolLen)*rate)) - b.LeakedBits - b.SafetyBits
	if m < 0 {
		m = 0
	}
	return m
}
