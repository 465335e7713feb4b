// Package source supplies raw correlated bit pairs for distillation. The
// physical measurement process is outside the pipeline proper; this package
// models it probabilistically, the way a photon-channel simulation would.
package source

import (
	"errors"
	"math/rand"

	"github.com/photonkey/distill/distill/bitarray"
)

// Pairs is one batch of raw material as seen by the distillation harness: the
// two parties' measured bits, their measurement bases, and an optional mask
// of positions lost in the channel.
type Pairs struct {
	A      bitarray.Dense
	B      bitarray.Dense
	BasesA bitarray.Dense
	BasesB bitarray.Dense

	// Dropped marks positions that never arrived. May be empty.
	Dropped bitarray.Dense
}

// SimOpts tunes the simulated channel.
type SimOpts struct {
	// FlipProb is the probability that a bit measured in a matching basis
	// still comes out flipped, i.e. the intrinsic error rate.
	FlipProb float64

	// DropProb is the probability that a position is lost entirely.
	DropProb float64

	// Rand drives every private random value: bit choices, basis choices,
	// noise. It must be distinct from the pipeline's public generator.
	// Required.
	Rand *rand.Rand
}

// NewSimulated produces n raw pairs. Positions measured in differing bases
// carry no correlation, matching-basis positions agree except with
// probability FlipProb, and DropProb of all positions are flagged dropped.
func NewSimulated(n int, opts SimOpts) (Pairs, error) {
	if opts.Rand == nil {
		return Pairs{}, errors.New("must provide Rand")
	}
	if opts.FlipProb < 0 || opts.FlipProb > 1 || opts.DropProb < 0 || opts.DropProb > 1 {
		return Pairs{}, errors.New("probabilities must lie in [0, 1]")
	}
	rng := opts.Rand

	bitsA := make([]byte, bitarray.BytesFor(n))
	basesA := make([]byte, bitarray.BytesFor(n))
	basesB := make([]byte, bitarray.BytesFor(n))
	scramble := make([]byte, bitarray.BytesFor(n))
	rng.Read(bitsA)
	rng.Read(basesA)
	rng.Read(basesB)
	rng.Read(scramble)

	p := Pairs{
		A:      bitarray.NewDense(bitsA, n),
		BasesA: bitarray.NewDense(basesA, n),
		BasesB: bitarray.NewDense(basesB, n),
	}

	// Mismatched bases decorrelate the received bit entirely; matching bases
	// flip it with FlipProb.
	noise := bitarray.Empty()
	for i := 0; i < n; i++ {
		noise.AppendBit(rng.Float64() < opts.FlipProb)
	}
	decorrelated := bitarray.NewDense(scramble, n).And(p.BasesA.XOr(p.BasesB))
	p.B = p.A.XOr(decorrelated).XOr(noise)

	if opts.DropProb > 0 {
		dropped := bitarray.Empty()
		for i := 0; i < n; i++ {
			dropped.AppendBit(rng.Float64() < opts.DropProb)
		}
		p.Dropped = dropped
	}
	return p, nil
}

// NewSifted produces a batch that is already sifted: every position uses
// matching bases, so the pipeline's sift stage keeps all of it. Convenient
// for tests that want exact pool sizes.
func NewSifted(n int, opts SimOpts) (Pairs, error) {
	if opts.Rand == nil {
		return Pairs{}, errors.New("must provide Rand")
	}
	rng := opts.Rand
	bitsA := make([]byte, bitarray.BytesFor(n))
	bases := make([]byte, bitarray.BytesFor(n))
	rng.Read(bitsA)
	rng.Read(bases)
	noise := bitarray.Empty()
	for i := 0; i < n; i++ {
		noise.AppendBit(rng.Float64() < opts.FlipProb)
	}
	a := bitarray.NewDense(bitsA, n)
	basesD := bitarray.NewDense(bases, n)
	return Pairs{
		A:      a,
		B:      a.XOr(noise),
		BasesA: basesD,
		BasesB: basesD,
	}, nil
}
