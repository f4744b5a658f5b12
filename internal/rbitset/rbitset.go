/*
 * ssabc - Raw bitsets (low-level bitset operations)
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package rbitset implements fixed-width bitsets over a dense 0..N index
// space. Bits are packed into 32-bit words; unused bits in the top word are
// always kept zero so that equality and popcount can be computed word-wise.
package rbitset

import "math/bits"

const bitsPerElem = 32

// Set is a fixed-size bit vector. The zero Set is empty but unusable until
// New allocates the backing words; use New to build one sized for `size`
// bits.
type Set struct {
	words []uint32
	size  int
}

// New allocates a zeroed bitset able to hold `size` bits.
func New(size int) *Set {
	return &Set{
		words: make([]uint32, numWords(size)),
		size:  size,
	}
}

func numWords(size int) int {
	return (size + bitsPerElem - 1) / bitsPerElem
}

// Size returns the number of addressable bits.
func (s *Set) Size() int {
	return s.size
}

func lastMask(size int) uint32 {
	if size == 0 {
		return 0
	}
	p := size % bitsPerElem
	if p == 0 {
		return ^uint32(0)
	}
	return (uint32(1) << p) - 1
}

// Duplicate allocates a new Set with the same contents as s, e.g. into a
// separate arena-backed slice.
func (s *Set) Duplicate() *Set {
	out := New(s.size)
	copy(out.words, s.words)
	return out
}

// Set sets bit pos.
func (s *Set) Set(pos int) {
	s.words[pos/bitsPerElem] |= 1 << uint(pos%bitsPerElem)
}

// Clear clears bit pos.
func (s *Set) Clear(pos int) {
	s.words[pos/bitsPerElem] &^= 1 << uint(pos%bitsPerElem)
}

// Flip toggles bit pos.
func (s *Set) Flip(pos int) {
	s.words[pos/bitsPerElem] ^= 1 << uint(pos%bitsPerElem)
}

// IsSet reports whether bit pos is set.
func (s *Set) IsSet(pos int) bool {
	return s.words[pos/bitsPerElem]&(1<<uint(pos%bitsPerElem)) != 0
}

// SetAll sets every addressable bit.
func (s *Set) SetAll() {
	n := len(s.words)
	if n == 0 {
		return
	}
	for i := 0; i < n-1; i++ {
		s.words[i] = ^uint32(0)
	}
	s.words[n-1] = lastMask(s.size)
}

// ClearAll clears every bit.
func (s *Set) ClearAll() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// FlipAll toggles every addressable bit.
func (s *Set) FlipAll() {
	n := len(s.words)
	if n == 0 {
		return
	}
	for i := 0; i < n-1; i++ {
		s.words[i] ^= ^uint32(0)
	}
	s.words[n-1] ^= lastMask(s.size)
}

// IsEmpty reports whether every bit is clear.
func (s *Set) IsEmpty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Popcount returns the number of set bits.
func (s *Set) Popcount() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount32(w)
	}
	return n
}

// And computes s &= other in place.
func (s *Set) And(other *Set) {
	for i := range s.words {
		s.words[i] &= other.words[i]
	}
}

// Or computes s |= other in place.
func (s *Set) Or(other *Set) {
	for i := range s.words {
		s.words[i] |= other.words[i]
	}
}

// AndNot clears from s every bit that is set in other.
func (s *Set) AndNot(other *Set) {
	for i := range s.words {
		s.words[i] &^= other.words[i]
	}
}

// Xor computes s ^= other in place.
func (s *Set) Xor(other *Set) {
	for i := range s.words {
		s.words[i] ^= other.words[i]
	}
}

// Equal reports whether s and other have identical bits.
func (s *Set) Equal(other *Set) bool {
	if len(s.words) != len(other.words) {
		return false
	}
	for i := range s.words {
		if s.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// HasCommon reports whether s and other share at least one set bit.
func (s *Set) HasCommon(other *Set) bool {
	for i := range s.words {
		if s.words[i]&other.words[i] != 0 {
			return true
		}
	}
	return false
}

// Subset reports whether every bit set in s is also set in other.
func (s *Set) Subset(other *Set) bool {
	for i := range s.words {
		if s.words[i]&other.words[i] != s.words[i] {
			return false
		}
	}
	return true
}

// None is the sentinel returned by Next/NextMax when no matching bit exists.
const None = -1

// Next returns the index >= pos of the next bit equal to want, scanning
// forward without bound. Callers must guarantee a matching bit exists (e.g.
// via a sentinel bit) or this will read past the backing words.
func (s *Set) Next(pos int, want bool) int {
	elemPos := pos / bitsPerElem
	bitPos := uint(pos % bitsPerElem)

	var mask uint32
	if !want {
		mask = ^uint32(0)
	}

	inElemMask := (uint32(1) << bitPos) - 1
	elem := s.words[elemPos] ^ mask
	p := bits.TrailingZeros32(elem &^ inElemMask)
	if p < bitsPerElem {
		return elemPos*bitsPerElem + p
	}

	for {
		elemPos++
		elem = s.words[elemPos] ^ mask
		p = bits.TrailingZeros32(elem)
		if p < bitsPerElem {
			return elemPos*bitsPerElem + p
		}
	}
}

// NextMax is the bounded variant of Next: it returns None instead of
// scanning past `last`.
func (s *Set) NextMax(pos, last int, want bool) int {
	if pos == last {
		return None
	}

	elemPos := pos / bitsPerElem
	bitPos := uint(pos % bitsPerElem)

	var mask uint32
	if !want {
		mask = ^uint32(0)
	}

	inElemMask := (uint32(1) << bitPos) - 1
	elem := s.words[elemPos] ^ mask
	p := bits.TrailingZeros32(elem &^ inElemMask)

	res := None
	if p < bitsPerElem {
		res = elemPos*bitsPerElem + p
	} else {
		n := numWords(last)
		for elemPos++; elemPos < n; elemPos++ {
			elem = s.words[elemPos] ^ mask
			p = bits.TrailingZeros32(elem)
			if p < bitsPerElem {
				res = elemPos*bitsPerElem + p
				break
			}
		}
	}
	if res >= last {
		res = None
	}
	return res
}

// SetRange sets bits [from, to) to value. Requires from < to.
func (s *Set) SetRange(from, to int, value bool) {
	if from >= to {
		panic("rbitset: SetRange requires from < to")
	}

	fromBit := uint(from % bitsPerElem)
	fromPos := from / bitsPerElem
	fromUnitMask := ^((uint32(1) << fromBit) - 1)

	toBit := uint(to % bitsPerElem)
	toPos := to / bitsPerElem
	toUnitMask := (uint32(1) << toBit) - 1

	if value {
		if fromPos == toPos {
			s.words[fromPos] |= fromUnitMask & toUnitMask
			return
		}
		s.words[fromPos] |= fromUnitMask
		s.words[toPos] |= toUnitMask
		for i := fromPos + 1; i < toPos; i++ {
			s.words[i] = ^uint32(0)
		}
		return
	}

	if fromPos == toPos {
		s.words[fromPos] &^= fromUnitMask & toUnitMask
		return
	}
	s.words[fromPos] &^= fromUnitMask
	s.words[toPos] &^= toUnitMask
	for i := fromPos + 1; i < toPos; i++ {
		s.words[i] = 0
	}
}

// Minus1 treats the bitset as an unbounded little-endian integer and
// subtracts one, propagating the borrow word by word. It stops as soon as a
// word's decrement does not flip that word's top bit, matching the original
// rbitset_minus1 early-out.
func (s *Set) Minus1() {
	n := len(s.words)
	last := lastMask(s.size)

	for i := 0; i < n; i++ {
		mask := ^uint32(0)
		if i == n-1 {
			mask = last
		}
		val := s.words[i] & mask
		valMinus1 := val - 1
		s.words[i] = valMinus1 & mask

		if (val>>31)^(valMinus1>>31) == 0 {
			break
		}
	}
}

// CopyFrom copies the contents of src into s. Both must have the same size.
func (s *Set) CopyFrom(src *Set) {
	copy(s.words, src.words)
}

// ForEachSet calls fn for every set bit's index, ascending.
func (s *Set) ForEachSet(fn func(i int)) {
	for i := s.NextMax(0, s.size, true); i != None; i = s.NextMax(i+1, s.size, true) {
		fn(i)
	}
}

// ForEachClear calls fn for every clear bit's index, ascending.
func (s *Set) ForEachClear(fn func(i int)) {
	for i := s.NextMax(0, s.size, false); i != None; i = s.NextMax(i+1, s.size, false) {
		fn(i)
	}
}
