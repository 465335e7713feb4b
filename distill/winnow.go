package distill

import (
	"fmt"
	"math/bits"
	"math/rand"

	"github.com/photonkey/distill/distill/bitarray"
	"gopkg.in/op/go-logging.v1"
)

// A winnow reconciles via the Winnow algorithm (see
// https://arxiv.org/abs/quant-ph/0203096): per-block Hamming syndromes are
// compared, a differing syndrome localizes one bit to correct, and every
// position whose parity was disclosed is then discarded. The discards pay for
// the disclosures, so the recorded parity leakage is zero; the cost shows up
// as shorter pools instead.
type winnow struct {
	// iters is the sequence of Hamming parity bit counts, e.g. {3,3,4}
	// performs two rounds with 8-bit code blocks and one with 16-bit blocks.
	iters []int
	rng   *rand.Rand
	log   *logging.Logger
}

func (w winnow) reconcile(a, b bitarray.Dense) (bitarray.Dense, bitarray.Dense, *Transcript, error) {
	t := new(Transcript)
	if a.Size() != b.Size() {
		return bitarray.Empty(), bitarray.Empty(), t, fmt.Errorf("reconciling pools of different length: %d != %d", a.Size(), b.Size())
	}
	pa := bitarray.NewDense(a.Data(), a.Size())
	pb := bitarray.NewDense(b.Data(), b.Size())
	for pass, hBits := range w.iters {
		seed := w.rng.Int63()
		perm := rand.New(rand.NewSource(seed)).Perm(pa.Size())
		pa = pa.Gather(perm)
		pb = pb.Gather(perm)

		synA, err := w.syndromes(pa, hBits)
		if err != nil {
			return bitarray.Empty(), bitarray.Empty(), t, err
		}
		synB, err := w.syndromes(pb, hBits)
		if err != nil {
			return bitarray.Empty(), bitarray.Empty(), t, err
		}
		todo := bitarray.Empty()
		for i := range synA {
			todo.AppendBit(synA[i].Get(hBits) != synB[i].Get(hBits))
		}
		fixed := w.applySyndromes(&pb, synA, synB, todo, hBits)
		keep := w.maintainPrivacy(todo, hBits)
		pa = pa.Select(keep)
		pb = pb.Select(keep)

		round := Round{
			Pass:                pass,
			BlockLen:            1 << hBits,
			PermSeed:            seed,
			BlocksChecked:       len(synA),
			BlocksFixed:         fixed,
			RemainingMismatches: pa.HammingDistance(pb),
		}
		t.Append(round)
		if w.log != nil {
			w.log.Debugf("winnow pass %d: block=%d fixed=%d remaining=%d pool=%d",
				pass, 1<<hBits, fixed, round.RemainingMismatches, pa.Size())
		}
		if round.RemainingMismatches == 0 {
			return pa, pb, t, nil
		}
	}
	remaining := pa.HammingDistance(pb)
	if remaining == 0 {
		return pa, pb, t, nil
	}
	return pa, pb, t, &MaxPassesError{Passes: len(w.iters), Remaining: remaining}
}

// applySyndromes flips, for every block whose total parity differed, the bit
// position named by the Hamming syndrome sum. Returns the number of blocks
// corrected.
func (w winnow) applySyndromes(x *bitarray.Dense, synA, synB []bitarray.Dense, todo bitarray.Dense, hBits int) int {
	n := 1 << hBits
	fixed := 0
	for i := 0; i < todo.Size(); i++ {
		if !todo.Get(i) {
			continue
		}
		syn := synA[i].XOr(synB[i])
		pos := 0
		for j := 0; j < hBits; j++ {
			if syn.Get(j) {
				pos |= 1 << j
			}
		}
		pos-- // cardinal/ordinal correction
		if pos < 0 {
			pos = n - 1 // total parity flip
		}
		idx := i*n + pos
		if idx < x.Size() {
			x.Flip(idx)
		}
		fixed++
	}
	return fixed
}

// maintainPrivacy builds the keep-mask that discards, from every block, the
// positions whose parities were disclosed this pass: the total parity
// position for untouched blocks, and additionally every Hamming parity
// position for blocks whose full syndrome was compared.
func (w winnow) maintainPrivacy(todo bitarray.Dense, hBits int) bitarray.Dense {
	keep := bitarray.Empty()
	n := 1 << hBits
	for i := 0; i < todo.Size(); i++ {
		if !todo.Get(i) {
			for j := 0; j < n-1; j++ {
				keep.AppendBit(true)
			}
			keep.AppendBit(false)
			continue
		}
		for j := 0; j < n; j++ {
			keep.AppendBit(bits.OnesCount(uint(j+1)) != 1)
		}
	}
	return keep
}

// syndromes partitions x into blocks of 1<<hBits bits, zero-padding the final
// block, and computes the SECDED syndrome of each.
func (w winnow) syndromes(x bitarray.Dense, hBits int) ([]bitarray.Dense, error) {
	var r []bitarray.Dense
	bSize := 1 << hBits
	for i := 0; i < x.Size(); i += bSize {
		end := i + bSize
		if end > x.Size() {
			end = x.Size()
		}
		block, err := x.Slice(i, end)
		if err != nil {
			return nil, err
		}
		if end-i < bSize {
			block = bitarray.NewDense(block.Data(), bSize)
		}
		syndrome, err := w.secded(block, hBits)
		if err != nil {
			return nil, err
		}
		r = append(r, syndrome)
	}
	return r, nil
}

func (w winnow) secded(block bitarray.Dense, hBits int) (bitarray.Dense, error) {
	if block.Size() != 1<<hBits {
		return bitarray.Empty(), fmt.Errorf(
			"hamming SECDED with %d parity bits needs block of %d, got %d", hBits, 1<<hBits, block.Size())
	}
	r := bitarray.Empty()

	// The p-th hamming parity bit checks the parity of bits in strides of
	// 2^p. E.g.  the 0th bit checks positions {0, 2, 4, ...}, the 1st checks
	// {1,2, 5,6, ...}, the 2nd {3,4,5,6, 11,12,13,14, ...}.
	for p := 0; p < hBits; p++ {
		stride := 1 << p
		parity := false
		for i := stride - 1; i < block.Size(); i += 2 * stride {
			for j := i; j < i+stride && j < block.Size(); j++ {
				parity = (block.Get(j) != parity)
			}
		}
		r.AppendBit(parity)
	}

	// Finish by inserting a total parity bit.
	r.AppendBit(block.Parity())

	return r, nil
}
