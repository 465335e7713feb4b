package distill

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/photonkey/distill/distill/binom"
	"github.com/photonkey/distill/distill/bitarray"
)

// Sift discards positions where the two parties' measurement bases disagree,
// along with any positions flagged as dropped, and returns the surviving
// pools for both parties. Returns ErrNoAgreement if nothing survives.
func Sift(a, b, basesA, basesB, dropped bitarray.Dense) (siftedA, siftedB bitarray.Dense, err error) {
	mask := basesA.XNor(basesB)
	if dropped.Size() > 0 {
		mask = mask.And(dropped.Not())
	}
	siftedA = a.Select(mask)
	siftedB = b.Select(mask)
	if siftedA.Size() == 0 {
		return bitarray.Empty(), bitarray.Empty(), ErrNoAgreement
	}
	return siftedA, siftedB, nil
}

// A SampleSplit partitions the indices of a sifted pool into a disclosed test
// sample and a retained key-candidate pool. The two sets are disjoint and
// together cover every index exactly once.
type SampleSplit struct {
	Test     []int
	Retained []int
}

// Split selects a uniformly random sample of round(fraction*n) indices for
// disclosure, at least one and never so many that nothing is retained. A
// single-index pool cannot satisfy both, so it is retained whole and the
// sample comes back empty; EstimateQBER then yields the vacuous [0, 1] bound
// and the QBER threshold aborts the run. The rng carries public randomness:
// both parties are assumed to derive the same split from a shared seed.
func Split(n int, fraction float64, rng *rand.Rand) SampleSplit {
	k := int(math.Round(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}
	perm := rng.Perm(n)
	test := append([]int(nil), perm[:k]...)
	retained := append([]int(nil), perm[k:]...)
	sort.Ints(test)
	sort.Ints(retained)
	return SampleSplit{Test: test, Retained: retained}
}

// EstimateQBER counts bitwise mismatches between the two disclosed samples
// and returns a confidence bound on the underlying error rate, using the
// exact Clopper-Pearson construction. Zero-length samples yield the vacuous
// bound [0, 1].
func EstimateQBER(sampleA, sampleB bitarray.Dense, alpha float64) (binom.Bound, error) {
	if sampleA.Size() != sampleB.Size() {
		return binom.Bound{}, fmt.Errorf("estimating QBER over samples of different length: %d != %d", sampleA.Size(), sampleB.Size())
	}
	mismatches := sampleA.HammingDistance(sampleB)
	return binom.ClopperPearson(mismatches, sampleA.Size(), alpha), nil
}
