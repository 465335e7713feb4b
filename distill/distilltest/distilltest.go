// Package distilltest holds debugging oracles for distillation tests. Nothing
// here may be used on a production path: these helpers peek at the reference
// pool directly, which the protocol itself must never do.
package distilltest

import "github.com/photonkey/distill/distill/bitarray"

// ForceEqual returns a copy of x with every bit that differs from ref flipped
// to match. It is the "just fix the residue" oracle that a real reconciler is
// explicitly forbidden from applying; tests use it to isolate downstream
// stages from reconciliation behavior.
func ForceEqual(ref, x bitarray.Dense) bitarray.Dense {
	r := bitarray.NewDense(x.Data(), x.Size())
	for i := 0; i < r.Size(); i++ {
		if r.Get(i) != ref.Get(i) {
			r.Flip(i)
		}
	}
	return r
}
