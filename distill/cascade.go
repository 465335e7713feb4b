package distill

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/photonkey/distill/distill/bitarray"
	"gopkg.in/op/go-logging.v1"
)

// A reconciler corrects the errors between two correlated pools so that both
// parties end up holding identical bits, at the price of a known number of
// publicly disclosed parity bits.
type reconciler interface {
	// reconcile returns the two pools after correction, equal to one another
	// on success, together with the leakage transcript. Schemes that pay for
	// disclosures by discarding bits may return pools shorter than their
	// inputs. The transcript is populated even on failure, so partially-run
	// reconciliations never under-report what was disclosed.
	reconcile(a, b bitarray.Dense) (ra, rb bitarray.Dense, t *Transcript, err error)
}

// A cascade reconciles via multiple passes of block partition, parity
// comparison and bisection-based single-bit correction. Each pass applies a
// fresh public permutation so that errors a large first-pass block could not
// localize land in different blocks later.
type cascade struct {
	blockSizes []int
	rng        *rand.Rand
	log        *logging.Logger
}

// CascadeSchedule derives a decreasing sequence of block lengths from the
// current best estimate of the error rate: the first pass uses roughly
// 0.73/qber, clamped to [16, n/16], and every following pass halves it,
// bounded below by 8.
func CascadeSchedule(qber float64, n, passes int) []int {
	q := math.Max(qber, 1e-3)
	l := int(math.Ceil(0.73 / q))
	if l < 16 {
		l = 16
	}
	if hi := n / 16; hi >= 16 && l > hi {
		l = hi
	}
	sizes := make([]int, 0, passes)
	for i := 0; i < passes; i++ {
		sizes = append(sizes, l)
		if l > 8 {
			l /= 2
			if l < 8 {
				l = 8
			}
		}
	}
	return sizes
}

func (c cascade) reconcile(a, b bitarray.Dense) (bitarray.Dense, bitarray.Dense, *Transcript, error) {
	t := new(Transcript)
	if a.Size() != b.Size() {
		return bitarray.Empty(), bitarray.Empty(), t, fmt.Errorf("reconciling pools of different length: %d != %d", a.Size(), b.Size())
	}
	n := a.Size()
	x := bitarray.NewDense(b.Data(), n)
	for pass, bs := range c.blockSizes {
		seed := c.rng.Int63()
		perm := rand.New(rand.NewSource(seed)).Perm(n)
		pa := a.Gather(perm)
		px := x.Gather(perm)
		round := Round{Pass: pass, BlockLen: bs, PermSeed: seed}
		for s := 0; s < n; s += bs {
			e := s + bs
			if e > n {
				e = n
			}
			round.BlocksChecked++
			round.LeakedBits++
			if rangeParity(pa, s, e) == rangeParity(px, s, e) {
				continue
			}
			idx := c.bisect(pa, px, s, e, &round.LeakedBits)
			px.Flip(idx)
			x.Flip(perm[idx])
			round.BlocksFixed++
		}
		round.RemainingMismatches = a.HammingDistance(x)
		t.Append(round)
		if c.log != nil {
			c.log.Debugf("cascade pass %d: block=%d fixed=%d remaining=%d leaked=%d",
				pass, bs, round.BlocksFixed, round.RemainingMismatches, t.LeakedBits())
		}
		if round.RemainingMismatches == 0 {
			return a, x, t, nil
		}
	}
	remaining := a.HammingDistance(x)
	if remaining == 0 {
		return a, x, t, nil
	}
	return a, x, t, &MaxPassesError{Passes: len(c.blockSizes), Remaining: remaining}
}

// bisect localizes a single error inside a block of differing parity. Each
// step discloses the parity of the lower half; a mismatch means the error
// lies there. Every disclosure is charged to leak.
func (c cascade) bisect(pa, px bitarray.Dense, lo, hi int, leak *int) int {
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		*leak++
		if rangeParity(pa, lo, mid) != rangeParity(px, lo, mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

func rangeParity(d bitarray.Dense, lo, hi int) bool {
	p := false
	for i := lo; i < hi; i++ {
		if d.Get(i) {
			p = !p
		}
	}
	return p
}
