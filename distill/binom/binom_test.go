package binom

import (
	"fmt"
	"testing"
)

func TestBoundShapes(t *testing.T) {
	for name, f := range map[string]func(int, int, float64) Bound{
		"clopper-pearson": ClopperPearson,
		"wilson":          Wilson,
	} {
		t.Run(name, func(t *testing.T) {
			tcs := []struct {
				name string
				k, n int
			}{
				{name: "no trials", k: 0, n: 0},
				{name: "no successes", k: 0, n: 50},
				{name: "all successes", k: 50, n: 50},
				{name: "interior", k: 7, n: 50},
			}
			for _, tc := range tcs {
				t.Run(tc.name, func(t *testing.T) {
					b := f(tc.k, tc.n, 0.05)
					if b.Lower < 0 || b.Upper > 1 || b.Lower > b.Upper {
						t.Errorf("bound (%v, %v) violates 0 <= lower <= upper <= 1", b.Lower, b.Upper)
					}
					if tc.n == 0 && (b.Lower != 0 || b.Upper != 1) {
						t.Errorf("zero trials yields (%v, %v), want (0, 1)", b.Lower, b.Upper)
					}
					if tc.k == 0 && b.Lower != 0 {
						t.Errorf("zero successes yields lower bound %v, want 0", b.Lower)
					}
					if tc.n > 0 && tc.k == tc.n && b.Upper != 1 {
						t.Errorf("all successes yields upper bound %v, want 1", b.Upper)
					}
				})
			}
		})
	}
}

func TestBoundMonotoneInAlpha(t *testing.T) {
	// Smaller alpha (more confidence) must mean a wider interval.
	alphas := []float64{0.2, 0.1, 0.05, 0.01, 0.001}
	for name, f := range map[string]func(int, int, float64) Bound{
		"clopper-pearson": ClopperPearson,
		"wilson":          Wilson,
	} {
		t.Run(name, func(t *testing.T) {
			for _, kn := range [][2]int{{3, 100}, {40, 100}, {1, 10}} {
				prev := -1.0
				for _, alpha := range alphas {
					b := f(kn[0], kn[1], alpha)
					width := b.Upper - b.Lower
					if width < prev {
						t.Errorf("k=%d n=%d: interval narrowed from %v to %v as alpha fell to %v",
							kn[0], kn[1], prev, width, alpha)
					}
					prev = width
				}
			}
		})
	}
}

func TestKnownScenario(t *testing.T) {
	// 3 mismatches in 100 trials at 95% confidence: both constructions put
	// the upper bound in (0.03, 0.10).
	for name, f := range map[string]func(int, int, float64) Bound{
		"clopper-pearson": ClopperPearson,
		"wilson":          Wilson,
	} {
		t.Run(name, func(t *testing.T) {
			b := f(3, 100, 0.05)
			if b.Point != 0.03 {
				t.Errorf("point estimate == %v, want 0.03", b.Point)
			}
			if b.Upper <= 0.03 || b.Upper >= 0.10 {
				t.Errorf("upper bound == %v, want in (0.03, 0.10)", b.Upper)
			}
		})
	}
}

func TestConstructionsAgreeRoughly(t *testing.T) {
	// The exact and approximate bounds should land close together once n is
	// large.
	for _, n := range []int{1000, 10000} {
		k := n / 20
		cp := ClopperPearson(k, n, 0.05)
		w := Wilson(k, n, 0.05)
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			if diff := cp.Upper - w.Upper; diff < -0.01 || diff > 0.01 {
				t.Errorf("upper bounds diverge: clopper-pearson %v vs wilson %v", cp.Upper, w.Upper)
			}
		})
	}
}
