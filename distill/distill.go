// Package distill turns long, noisy, partially-compromised bit sequences
// shared between two parties into short, information-theoretically secure
// keys. It implements the classical post-processing half of a quantum key
// exchange: sifting, error rate estimation with a statistical confidence
// bound, parity-based reconciliation, and privacy amplification via
// universal hashing, with conservative accounting of every bit disclosed
// along the way.
package distill

import (
	"errors"
	"math/rand"

	"github.com/photonkey/distill/distill/binom"
	"github.com/photonkey/distill/distill/bitarray"
	"github.com/photonkey/distill/distill/source"
	"gopkg.in/op/go-logging.v1"
)

var (
	DefaultSampleFraction = 0.25
	DefaultAlpha          = 0.05
	DefaultQberThreshold  = 0.11
	DefaultFailureProb    = 1e-10
	DefaultMaxPasses      = 4
)

// Stats packages together a collection of potentially interesting metrics
// pertaining to one distillation run.
type Stats struct {
	SiftedBits  int
	SampleSize  int
	QberPoint   float64
	QberUpper   float64
	LeakedBits  int
	Passes      int
	FinalLength int
}

// A Result is the structured outcome of a successful distillation.
type Result struct {
	Key        Key
	Stats      Stats
	Transcript *Transcript
}

// Audit converts the result into its persistable audit record.
func (r Result) Audit() *Audit {
	return &Audit{
		SampleSize:  r.Stats.SampleSize,
		QberPoint:   r.Stats.QberPoint,
		QberUpper:   r.Stats.QberUpper,
		LeakedBits:  r.Stats.LeakedBits,
		Passes:      r.Stats.Passes,
		FinalLength: r.Stats.FinalLength,
		Rounds:      r.Transcript.Rounds(),
	}
}

// An Opts packages together the arguments necessary to construct a Pipeline.
// Rand has no reasonable default and must be provided.
type Opts struct {
	// SampleFraction specifies the proportion of sifted bits to disclose
	// during error rate estimation. Defaults to a quarter.
	SampleFraction float64

	// Alpha is the confidence parameter for the QBER bound: the upper bound
	// holds with confidence 1-Alpha. Defaults to DefaultAlpha.
	Alpha float64

	// QberThreshold aborts the run before reconciliation if the QBER upper
	// bound exceeds it. Defaults to DefaultQberThreshold.
	QberThreshold float64

	// FailureProb is the tolerated probability that the extracted key is
	// distinguishable from uniform. Defaults to DefaultFailureProb.
	FailureProb float64

	// MaxPasses bounds the number of cascade passes when BlockSizes is not
	// given. Defaults to DefaultMaxPasses.
	MaxPasses int

	// BlockSizes overrides the derived cascade block length schedule.
	BlockSizes []int

	// WinnowIters, when non-empty, selects Winnow reconciliation with the
	// given sequence of Hamming parity bit counts instead of cascade.
	WinnowIters []int

	// Rand supplies every public random value the pipeline needs: the
	// sample split, per-pass permutation seeds, and the amplification seed.
	// Both parties are assumed to seed it identically out-of-band. It must
	// never be the generator used for private bit material. Required.
	Rand *rand.Rand

	// Log receives per-stage progress. May be nil.
	Log *logging.Logger
}

// A Pipeline runs the four distillation stages in order over one party's view
// of the raw material. It holds no per-run state and is deterministic given
// the seeds in its Opts.
type Pipeline struct {
	opts Opts
}

// New returns a Pipeline configured per opts, or an error if the options are
// nonsensical.
func New(opts Opts) (*Pipeline, error) {
	if opts.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	if opts.SampleFraction < 0 || opts.SampleFraction >= 1 {
		return nil, errors.New("SampleFraction must lie in [0, 1)")
	}
	if opts.SampleFraction == 0 {
		opts.SampleFraction = DefaultSampleFraction
	}
	if opts.Alpha == 0 {
		opts.Alpha = DefaultAlpha
	}
	if opts.QberThreshold == 0 {
		opts.QberThreshold = DefaultQberThreshold
	}
	if opts.FailureProb == 0 {
		opts.FailureProb = DefaultFailureProb
	}
	if opts.MaxPasses == 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	return &Pipeline{opts: opts}, nil
}

// Run distills a key from one batch of raw correlated pairs. The error kinds
// ErrNoAgreement, QberTooHighError, MaxPassesError and ErrKeyExhausted are
// all terminal for the batch; the first, second and last are recoverable by
// requesting more raw material upstream. Whatever was disclosed before a
// failure is still reported through the returned Result's transcript.
func (p *Pipeline) Run(pairs source.Pairs) (Result, error) {
	var res Result
	res.Transcript = new(Transcript)

	siftedA, siftedB, err := Sift(pairs.A, pairs.B, pairs.BasesA, pairs.BasesB, pairs.Dropped)
	if err != nil {
		return res, err
	}
	res.Stats.SiftedBits = siftedA.Size()

	split := Split(siftedA.Size(), p.opts.SampleFraction, p.opts.Rand)
	testA := siftedA.Gather(split.Test)
	testB := siftedB.Gather(split.Test)
	poolA := siftedA.Gather(split.Retained)
	poolB := siftedB.Gather(split.Retained)

	bound, err := EstimateQBER(testA, testB, p.opts.Alpha)
	if err != nil {
		return res, err
	}
	res.Stats.SampleSize = bound.Trials
	res.Stats.QberPoint = bound.Point
	res.Stats.QberUpper = bound.Upper
	if p.opts.Log != nil {
		p.opts.Log.Infof("estimated QBER %.4f (upper bound %.4f over %d sampled bits)",
			bound.Point, bound.Upper, bound.Trials)
	}
	if bound.Upper > p.opts.QberThreshold {
		return res, &QberTooHighError{Upper: bound.Upper, Threshold: p.opts.QberThreshold}
	}

	safety := SafetyBits(p.opts.FailureProb)
	pre := Budget{PoolLen: poolA.Size(), QberUpper: bound.Upper, SafetyBits: safety}
	if pre.FinalLength() == 0 {
		return res, ErrKeyExhausted
	}

	ra, rb, transcript, recErr := p.reconciler(bound, poolA.Size()).reconcile(poolA, poolB)
	res.Transcript = transcript
	res.Stats.LeakedBits = transcript.LeakedBits()
	res.Stats.Passes = transcript.Passes()
	if recErr != nil {
		return res, recErr
	}

	budget := Budget{
		PoolLen:    ra.Size(),
		QberUpper:  bound.Upper,
		LeakedBits: transcript.LeakedBits(),
		SafetyBits: safety,
	}
	m := budget.FinalLength()
	res.Stats.FinalLength = m
	if m == 0 {
		return res, ErrKeyExhausted
	}

	seedLen := SeedBits(rb.Size(), m)
	seedBytes := make([]byte, bitarray.BytesFor(seedLen))
	p.opts.Rand.Read(seedBytes)
	seed := bitarray.NewDense(seedBytes, seedLen)
	keyBits, err := Amplify(rb, seed, m)
	if err != nil {
		return res, err
	}
	res.Key = NewKey(keyBits)
	if p.opts.Log != nil {
		p.opts.Log.Infof("distilled %d key bits from %d sifted (leaked %d, safety %d)",
			m, res.Stats.SiftedBits, res.Stats.LeakedBits, safety)
	}
	return res, nil
}

func (p *Pipeline) reconciler(bound binom.Bound, poolLen int) reconciler {
	if len(p.opts.WinnowIters) > 0 {
		return winnow{iters: p.opts.WinnowIters, rng: p.opts.Rand, log: p.opts.Log}
	}
	sizes := p.opts.BlockSizes
	if len(sizes) == 0 {
		sizes = CascadeSchedule(bound.Point, poolLen, p.opts.MaxPasses)
	}
	return cascade{blockSizes: sizes, rng: p.opts.Rand, log: p.opts.Log}
}
