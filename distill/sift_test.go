package distill

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/photonkey/distill/distill/bitarray"
)

func TestSift(t *testing.T) {
	a := bitarray.NewDense([]byte{0b10110100}, 8)
	b := bitarray.NewDense([]byte{0b10010110}, 8)
	basesA := bitarray.NewDense([]byte{0b11001100}, 8)
	basesB := bitarray.NewDense([]byte{0b11110000}, 8)

	// Bases agree at positions 0, 1, 6, 7.
	siftedA, siftedB, err := Sift(a, b, basesA, basesB, bitarray.Empty())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if siftedA.Size() != 4 || siftedB.Size() != 4 {
		t.Fatalf("sifted sizes (%d, %d), want (4, 4)", siftedA.Size(), siftedB.Size())
	}
	for i, pos := range []int{0, 1, 6, 7} {
		if siftedA.Get(i) != a.Get(pos) {
			t.Errorf("siftedA[%d] != a[%d]", i, pos)
		}
		if siftedB.Get(i) != b.Get(pos) {
			t.Errorf("siftedB[%d] != b[%d]", i, pos)
		}
	}
}

func TestSiftDropped(t *testing.T) {
	a := bitarray.NewDense([]byte{0b1111}, 4)
	b := bitarray.NewDense([]byte{0b1111}, 4)
	bases := bitarray.NewDense([]byte{0b0000}, 4)
	dropped := bitarray.NewDense([]byte{0b0011}, 4)

	siftedA, _, err := Sift(a, b, bases, bases, dropped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if siftedA.Size() != 2 {
		t.Errorf("sifted size == %d with 2 of 4 dropped, want 2", siftedA.Size())
	}
}

func TestSiftNoAgreement(t *testing.T) {
	a := bitarray.NewDense([]byte{0b1111}, 4)
	basesA := bitarray.NewDense([]byte{0b0000}, 4)
	basesB := bitarray.NewDense([]byte{0b1111}, 4)
	_, _, err := Sift(a, a, basesA, basesB, bitarray.Empty())
	if !errors.Is(err, ErrNoAgreement) {
		t.Errorf("sift with disjoint bases returned %v, want ErrNoAgreement", err)
	}
}

func TestSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tcs := []struct {
		name     string
		n        int
		fraction float64
		eTest    int
	}{
		{name: "quarter", n: 1000, fraction: 0.25, eTest: 250},
		{name: "tiny fraction floors to one", n: 100, fraction: 0.001, eTest: 1},
		{name: "full fraction leaves one retained", n: 10, fraction: 0.99, eTest: 9},
		{name: "single index is retained whole", n: 1, fraction: 0.25, eTest: 0},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			split := Split(tc.n, tc.fraction, rng)
			if len(split.Test) != tc.eTest {
				t.Errorf("got %d test indices, want %d", len(split.Test), tc.eTest)
			}
			if len(split.Test)+len(split.Retained) != tc.n {
				t.Errorf("partition covers %d indices, want %d", len(split.Test)+len(split.Retained), tc.n)
			}
			seen := make(map[int]bool, tc.n)
			for _, idx := range append(append([]int(nil), split.Test...), split.Retained...) {
				if idx < 0 || idx >= tc.n {
					t.Errorf("index %d out of range [0, %d)", idx, tc.n)
				}
				if seen[idx] {
					t.Errorf("index %d appears twice", idx)
				}
				seen[idx] = true
			}
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	s1 := Split(512, 0.25, rand.New(rand.NewSource(42)))
	s2 := Split(512, 0.25, rand.New(rand.NewSource(42)))
	if len(s1.Test) != len(s2.Test) {
		t.Fatalf("same seed produced different sample sizes: %d != %d", len(s1.Test), len(s2.Test))
	}
	for i := range s1.Test {
		if s1.Test[i] != s2.Test[i] {
			t.Fatalf("same seed produced different splits at %d: %d != %d", i, s1.Test[i], s2.Test[i])
		}
	}
}

func TestEstimateQBER(t *testing.T) {
	a := bitarray.NewDense([]byte{0b11110000, 0b11110000}, 16)
	b := bitarray.NewDense([]byte{0b11110011, 0b11110000}, 16)
	bound, err := EstimateQBER(a, b, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound.Successes != 2 || bound.Trials != 16 {
		t.Errorf("counted %d/%d mismatches, want 2/16", bound.Successes, bound.Trials)
	}
	if bound.Upper <= bound.Point {
		t.Errorf("upper bound %v not above point estimate %v", bound.Upper, bound.Point)
	}

	if _, err := EstimateQBER(a, bitarray.NewDense(nil, 8), 0.05); err == nil {
		t.Errorf("expected error for mismatched sample lengths")
	}
}
