package distill

import (
	"math/rand"
	"testing"

	"github.com/photonkey/distill/distill/bitarray"
	"github.com/photonkey/distill/distill/source"
	"github.com/stretchr/testify/require"
)

func simulatedPairs(t *testing.T, n int, flipProb float64, seed int64) source.Pairs {
	t.Helper()
	pairs, err := source.NewSifted(n, source.SimOpts{
		FlipProb: flipProb,
		Rand:     rand.New(rand.NewSource(seed)),
	})
	require.NoError(t, err)
	return pairs
}

func TestPipelineDistillsKey(t *testing.T) {
	pairs := simulatedPairs(t, 16384, 0.01, 1001)
	p, err := New(Opts{
		MaxPasses: 8,
		Rand:      rand.New(rand.NewSource(2001)),
	})
	require.NoError(t, err)

	res, err := p.Run(pairs)
	require.NoError(t, err)

	require.Greater(t, res.Stats.FinalLength, 0)
	require.Equal(t, res.Stats.FinalLength, res.Key.Len())
	require.Equal(t, 16384, res.Stats.SiftedBits)
	require.Greater(t, res.Stats.SampleSize, 0)
	require.Greater(t, res.Stats.QberUpper, res.Stats.QberPoint)
	require.Greater(t, res.Stats.LeakedBits, 0)
	require.GreaterOrEqual(t, res.Stats.Passes, 1)

	// The final key must be strictly shorter than the corrected pool: the
	// whole point is compressing away the adversary's knowledge.
	require.Less(t, res.Stats.FinalLength, res.Stats.SiftedBits-res.Stats.SampleSize)

	audit := res.Audit()
	require.Equal(t, res.Stats.LeakedBits, audit.LeakedBits)
	require.Len(t, audit.Rounds, res.Stats.Passes)
}

func TestPipelineDeterministic(t *testing.T) {
	run := func() string {
		pairs := simulatedPairs(t, 8192, 0.01, 1002)
		p, err := New(Opts{MaxPasses: 8, Rand: rand.New(rand.NewSource(2002))})
		require.NoError(t, err)
		res, err := p.Run(pairs)
		require.NoError(t, err)
		return res.Key.Fingerprint()
	}
	require.Equal(t, run(), run())
}

func TestPipelineWinnow(t *testing.T) {
	pairs := simulatedPairs(t, 8192, 0.005, 1003)
	p, err := New(Opts{
		WinnowIters: []int{3, 3, 3, 4, 6, 7, 7, 7},
		Rand:        rand.New(rand.NewSource(2003)),
	})
	require.NoError(t, err)

	res, err := p.Run(pairs)
	require.NoError(t, err)
	require.Greater(t, res.Stats.FinalLength, 0)
	// Winnow pays in discarded bits, not recorded parity leakage.
	require.Equal(t, 0, res.Stats.LeakedBits)
}

func TestPipelineQberTooHigh(t *testing.T) {
	pairs := simulatedPairs(t, 8192, 0.2, 1004)
	p, err := New(Opts{Rand: rand.New(rand.NewSource(2004))})
	require.NoError(t, err)

	_, err = p.Run(pairs)
	var qe *QberTooHighError
	require.ErrorAs(t, err, &qe)
	require.Greater(t, qe.Upper, qe.Threshold)
}

func TestPipelineKeyExhausted(t *testing.T) {
	// A tiny, noisy pool with a strict failure probability has nothing left
	// after the safety deduction.
	pairs := simulatedPairs(t, 128, 0.05, 1005)
	p, err := New(Opts{
		QberThreshold: 0.9,
		FailureProb:   1e-12,
		Rand:          rand.New(rand.NewSource(2005)),
	})
	require.NoError(t, err)

	_, err = p.Run(pairs)
	require.ErrorIs(t, err, ErrKeyExhausted)
}

func TestPipelineNoAgreement(t *testing.T) {
	n := 64
	ones := bitarray.NewDense(nil, n).Not()
	zeros := bitarray.NewDense(nil, n)
	pairs := source.Pairs{A: zeros, B: zeros, BasesA: zeros, BasesB: ones}
	p, err := New(Opts{Rand: rand.New(rand.NewSource(2006))})
	require.NoError(t, err)

	_, err = p.Run(pairs)
	require.ErrorIs(t, err, ErrNoAgreement)
}

func TestPipelineReconciliationFailureReportsLeakage(t *testing.T) {
	pairs := simulatedPairs(t, 4096, 0.05, 1007)
	p, err := New(Opts{
		QberThreshold: 0.5,
		// One giant block cannot localize dozens of errors.
		BlockSizes: []int{4096},
		Rand:       rand.New(rand.NewSource(2007)),
	})
	require.NoError(t, err)

	res, err := p.Run(pairs)
	var mpe *MaxPassesError
	require.ErrorAs(t, err, &mpe)
	// Even the failed run must account for what it disclosed.
	require.Greater(t, res.Stats.LeakedBits, 0)
	require.Equal(t, res.Stats.LeakedBits, res.Transcript.LeakedBits())
}

func TestNewValidation(t *testing.T) {
	tcs := []struct {
		name string
		opts Opts
	}{
		{name: "missing rand", opts: Opts{}},
		{name: "negative sample fraction", opts: Opts{SampleFraction: -0.1, Rand: rand.New(rand.NewSource(1))}},
		{name: "sample fraction of one", opts: Opts{SampleFraction: 1, Rand: rand.New(rand.NewSource(1))}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.opts)
			require.Error(t, err)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	p, err := New(Opts{Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	require.Equal(t, DefaultSampleFraction, p.opts.SampleFraction)
	require.Equal(t, DefaultAlpha, p.opts.Alpha)
	require.Equal(t, DefaultQberThreshold, p.opts.QberThreshold)
	require.Equal(t, DefaultFailureProb, p.opts.FailureProb)
	require.Equal(t, DefaultMaxPasses, p.opts.MaxPasses)
}
