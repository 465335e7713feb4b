// Package bitarray provides utilities for operating on densely-packed arrays
// of booleans.
package bitarray

import (
	"fmt"
	"math/bits"
)

// TODO: this could be more efficient on many architectures if we used larger
//   blocks than 8-bit bytes.

// A Dense is a bit array where every bit is explicitly represented.
type Dense struct {
	bits []byte
	len  int

	offset int
}

const blockSize = 8

// NewDense returns a new Dense whose data is a copy of data, and whose length
// is bitLen. If bitLen is longer than data, then trailing zeros are added. If
// bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * blockSize
	}
	bits := make([]byte, blocksFor(bitLen))
	copy(bits, data)
	return Dense{
		bits: bits,
		len:  bitLen,
	}
}

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// Size returns the number of bits in d.
func (d Dense) Size() int {
	return d.len
}

// ByteSize returns the number of bytes necessary to represent d.
func (d Dense) ByteSize() int {
	return blocksFor(d.len)
}

// BytesFor returns the number of bytes necessary to hold bitLen bits.
func BytesFor(bitLen int) int {
	return blocksFor(bitLen)
}

// Data returns a copy of the bytes data underlying d.
func (d Dense) Data() []byte {
	data := make([]byte, 0, blocksFor(d.len))
	for i := 0; i < blocksFor(d.len); i++ {
		data = append(data, d.getByte(i))
	}
	return data
}

// And computes a bitwise AND operation between d and other. If one of the two
// is shorter than the other, then trailing 0s are implicitly added to make the
// sizes match.
func (d Dense) And(other Dense) Dense {
	short := other
	if d.len < other.len {
		short = d
	}
	r := Dense{
		bits: make([]byte, 0, blocksFor(short.len)),
		len:  short.len,
	}
	for i := 0; i < blocksFor(short.len); i++ {
		r.bits = append(r.bits, d.getByte(i)&other.getByte(i))
	}
	return r
}

// XOr computes a bitwise XOR operation between d and other. If one of the two
// is shorter than the other, then trailing 0s are implicitly added to make the
// sizes match.
func (d Dense) XOr(other Dense) Dense {
	short, long := other, d
	if d.len < other.len {
		short, long = d, other
	}
	r := Dense{
		bits: make([]byte, 0, blocksFor(long.len)),
		len:  long.len,
	}
	for i := 0; i < blocksFor(short.len); i++ {
		r.bits = append(r.bits, short.getByte(i)^long.getByte(i))
	}
	for j := blocksFor(short.len); j < blocksFor(long.len); j++ {
		r.bits = append(r.bits, long.getByte(j)) // 0^v == v
	}
	return r
}

// XNor computes a bitwise equality operation between d and other. If one of
// the two is shorter than the other, then trailing 0s are implicitly added to
// make the sizes match.
func (d Dense) XNor(other Dense) Dense {
	short, long := other, d
	if d.len < other.len {
		short, long = d, other
	}
	r := Dense{
		bits: make([]byte, 0, blocksFor(long.len)),
		len:  long.len,
	}
	for i := 0; i < blocksFor(short.len); i++ {
		r.bits = append(r.bits, ^short.getByte(i)^long.getByte(i))
	}
	for j := blocksFor(short.len); j < blocksFor(long.len); j++ {
		r.bits = append(r.bits, ^long.getByte(j)) // ~(0^v) == ~v
	}
	return r
}

// Not returns a copy of d whose bits have all been flipped.
func (d Dense) Not() Dense {
	return d.XNor(Dense{})
}

// Parity returns the overall parity of d, with true corresponding to 1 and
// false to 0.
func (d Dense) Parity() bool {
	var sum byte
	for i := 0; i < blocksFor(d.len); i++ {
		sum ^= d.getByte(i)
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the total number of bits set in d.
func (d Dense) CountOnes() int {
	var sum int
	for i := 0; i < blocksFor(d.len); i++ {
		sum += bits.OnesCount8(d.getByte(i))
	}
	return sum
}

// HammingDistance returns the number of positions at which d and other
// disagree. Lengths are matched by implicit trailing zeros.
func (d Dense) HammingDistance(other Dense) int {
	return d.XOr(other).CountOnes()
}

// Equal reports whether d and other hold identical bit sequences.
func (d Dense) Equal(other Dense) bool {
	if d.len != other.len {
		return false
	}
	for i := 0; i < blocksFor(d.len); i++ {
		if d.getByte(i) != other.getByte(i) {
			return false
		}
	}
	return true
}

// Select selects a subset of bits from d, according to which bits are set in
// mask.
func (d Dense) Select(mask Dense) Dense {
	var r Dense
	for i := 0; i < d.len; i++ {
		if !mask.Get(i) {
			continue
		}
		r.AppendBit(d.Get(i))
	}
	return r
}

// Gather builds a new bit array whose i-th bit is the indices[i]-th bit of d.
// Passing a permutation of [0, Size) yields a permuted copy; passing a sorted
// subset extracts those positions in order.
func (d Dense) Gather(indices []int) Dense {
	r := Dense{
		bits: make([]byte, 0, blocksFor(len(indices))),
	}
	for _, idx := range indices {
		r.AppendBit(d.Get(idx))
	}
	return r
}

// Slice creates a view into d including bits [start, end).
func (d Dense) Slice(start, end int) (Dense, error) {
	if end-start > d.len {
		return Dense{}, fmt.Errorf("slicing bitarray of len %d up to %d", d.len, end-start)
	}
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bitarray with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bitarray to negative length: %d", end-start)
	}
	blockStart := start / blockSize
	blockEnd := blockStart + blocksFor(end-start)
	if start%blockSize != 0 && blockEnd < len(d.bits) {
		// A misaligned view straddles one extra backing byte.
		blockEnd++
	}
	return Dense{
		bits:   d.bits[blockStart:blockEnd],
		len:    end - start,
		offset: start % blockSize,
	}, nil
}

// Get returns the bit at idx.
func (d Dense) Get(idx int) bool {
	if idx >= d.len {
		return false
	}
	idx = idx + d.offset
	block := d.bits[idx/blockSize]
	pos := idx % blockSize
	return 0 < block&(1<<pos)
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	pos := d.len % blockSize
	d.len += 1
	if pos == 0 {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[len(d.bits)-1] |= 1 << pos
	}
}

// Flip inverts the bit at idx. The receiver must own its backing storage,
// i.e. must not be a view produced by Slice.
func (d *Dense) Flip(idx int) {
	idx = idx + d.offset
	d.bits[idx/blockSize] ^= 1 << (idx % blockSize)
}

// PackMSB packs d into bytes most-significant-bit-first, zero-padded on the
// right if Size is not a multiple of 8. This is the canonical layout for
// exporting key material to downstream consumers.
func (d Dense) PackMSB() []byte {
	r := make([]byte, blocksFor(d.len))
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			r[i/blockSize] |= 1 << (7 - i%blockSize)
		}
	}
	return r
}

func (d *Dense) getByte(i int) byte {
	lo := d.bits[i] >> d.offset
	var hi byte
	if i+1 < len(d.bits) {
		hi = d.bits[i+1] << (blockSize - d.offset)
	}
	r := lo | hi
	overdraw := (i+1)*blockSize - d.len
	if overdraw < 0 {
		overdraw = 0
	}
	return r << overdraw >> overdraw
}

func blocksFor(bits int) int {
	return (bits + blockSize - 1) / blockSize
}
