package distill

import (
	"fmt"

	"github.com/photonkey/distill/distill/bitarray"
)

// A toeplitz represents a matrix whose diagonals are all constant. It
// operates in F_2, i.e. all of its scalars are 0 or 1.
type toeplitz struct {
	// The diagonal constants for this toeplitz matrix, starting from the
	// bottom left and ending with the top right.
	diags bitarray.Dense

	m int
	n int
}

// TODO: surely there are ways to take advantage of the structure of a
//   toeplitz matrix to achieve vector mul in better than O(mn) time. Even
//   constant factor improvements are worth investigating; this is the long
//   pole in the tent when it comes to performance.

// Mul computes the matrix product Av between the toeplitz matrix t and the
// provided vector.
func (t toeplitz) Mul(vec bitarray.Dense) (bitarray.Dense, error) {
	if t.diags.Size() < t.m+t.n-1 {
		return bitarray.Dense{}, fmt.Errorf("improper toeplitz construction, has %d diagonals, needs %d", t.diags.Size(), t.m+t.n-1)
	}
	if t.n != vec.Size() {
		return bitarray.Dense{}, fmt.Errorf("multiplying %dx%d matrix into %d-dim vector", t.m, t.n, vec.Size())
	}

	r := bitarray.Dense{}
	for off := t.m - 1; off >= 0; off-- {
		row, err := t.diags.Slice(off, off+t.n)
		if err != nil {
			return bitarray.Empty(), err
		}
		r.AppendBit(row.And(vec).Parity())
	}
	return r, nil
}

// Amplify compresses input to outputLen bits by universal hashing: the public
// seed defines a Toeplitz matrix and the result is its product with input
// over F_2. Two parties holding equal inputs and the same seed always derive
// equal outputs; inputs differing in even one bit diverge with probability at
// least 1 - 2^-outputLen over the seed choice. The seed is public and only
// needs to be exchanged over an authenticated channel.
func Amplify(input, seed bitarray.Dense, outputLen int) (bitarray.Dense, error) {
	if outputLen <= 0 {
		return bitarray.Empty(), fmt.Errorf("amplifying to non-positive length %d", outputLen)
	}
	if want := input.Size() + outputLen - 1; seed.Size() != want {
		return bitarray.Empty(), fmt.Errorf("amplification seed holds %d bits, needs %d", seed.Size(), want)
	}
	t := toeplitz{
		diags: seed,
		m:     outputLen,
		n:     input.Size(),
	}
	return t.Mul(input)
}

// SeedBits returns the number of public seed bits Amplify requires for the
// given input and output lengths.
func SeedBits(inputLen, outputLen int) int {
	return inputLen + outputLen - 1
}
