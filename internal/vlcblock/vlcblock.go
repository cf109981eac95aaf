// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package vlcblock implements the fixed-capacity variable-length-code
// integer buffer that backs the leaves of a dynamic prefix-sum sequence:
// at/insert/remove/set/increment/decrement, sum, prefix-sum, search, and
// sibling split/merge. All codewords in a block share one bit width, the
// minimum needed for the block's current maximum value (spec.md 4.2).
package vlcblock

import (
	"fmt"
	"math/bits"

	"github.com/succinct-go/dynseq/internal/bitword"
)

// Block is a fixed-capacity packed unsigned-integer buffer. The zero
// value is not usable; construct with New.
type Block struct {
	words []uint64 // cap*w bits, reallocated on widen
	n     int       // number of valid values, 0 <= n <= cap
	cap   int       // capacity in values
	w     int       // current codeword bit width, >= 1
	sum   uint64    // cached sum of values[0:n]
}

// New returns an empty block with room for capVals values.
func New(capVals int) *Block {
	return &Block{
		cap:   capVals,
		w:     1,
		words: make([]uint64, bitword.WordsNeeded(capVals)),
	}
}

// Len returns the number of valid values stored.
func (b *Block) Len() int { return b.n }

// Cap returns the block's value capacity.
func (b *Block) Cap() int { return b.cap }

// Full reports whether the block has no room for another value.
func (b *Block) Full() bool { return b.n >= b.cap }

// Sum returns the cached sum of all stored values (cached, O(1)).
func (b *Block) Sum() uint64 { return b.sum }

// Width returns the current shared codeword bit width.
func (b *Block) Width() int { return b.w }

// At returns the value at position i. Panics if i is out of range.
func (b *Block) At(i int) uint64 {
	b.checkIndex(i, b.n)
	return bitword.GetBits(b.words, i*b.w, b.w)
}

// Set overwrites the value at position i, widening the block in place if
// v does not fit in the current width, and maintains the cached sum.
func (b *Block) Set(i int, v uint64) {
	b.checkIndex(i, b.n)
	old := b.At(i)
	if need := widthFor(v); need > b.w {
		b.widen(need)
	}
	bitword.SetBits(b.words, i*b.w, b.w, v)
	b.sum = b.sum - old + v
}

// Increment adds delta to the value at position i.
func (b *Block) Increment(i int, delta uint64) {
	b.Set(i, b.At(i)+delta)
}

// Decrement subtracts delta from the value at position i. Panics if the
// current value is smaller than delta (spec.md 4.5 precondition).
func (b *Block) Decrement(i int, delta uint64) {
	cur := b.At(i)
	if cur < delta {
		panic(fmt.Sprintf("vlcblock: decrement(%d) below zero: value=%d delta=%d", i, cur, delta))
	}
	b.Set(i, cur-delta)
}

// Insert inserts value v at position i, growing the block by one value.
// Panics if the block is Full or i is out of [0,Len()] range.
func (b *Block) Insert(i int, v uint64) {
	if b.Full() {
		panic("vlcblock: insert into full block")
	}
	b.checkIndex(i, b.n+1)
	if need := widthFor(v); need > b.w {
		b.widen(need)
	}
	bitword.ShiftInsertBits(b.words, b.n*b.w, i*b.w, b.w, v)
	b.n++
	b.sum += v
}

// Remove deletes the value at position i, shrinking the block by one
// value, and returns the removed value. The shared width is never
// shrunk on remove (spec.md 4.2 policy: avoid thrash).
func (b *Block) Remove(i int) uint64 {
	b.checkIndex(i, b.n)
	v := bitword.ShiftRemoveBits(b.words, b.n*b.w, i*b.w, b.w)
	b.n--
	b.sum -= v
	return v
}

// PrefixSum returns the sum of values[0:i).
func (b *Block) PrefixSum(i int) uint64 {
	b.checkIndex(i, b.n+1)
	var s uint64
	for j := 0; j < i; j++ {
		s += bitword.GetBits(b.words, j*b.w, b.w)
	}
	return s
}

// Search returns the smallest index k such that PrefixSum(k+1) >= s, or
// Len() if no such index exists within this block (spec.md 4.2/4.5).
func (b *Block) Search(s uint64) int {
	var acc uint64
	for j := 0; j < b.n; j++ {
		acc += bitword.GetBits(b.words, j*b.w, b.w)
		if acc >= s {
			return j
		}
	}
	return b.n
}

// Split moves the upper half of this block's values into a new block,
// which is returned; the receiver retains the lower half. Each half
// recomputes its own minimum width (spec.md 4.2 "Splitting/merging").
func (b *Block) Split() *Block {
	mid := b.n / 2

	right := New(b.cap)
	for i := mid; i < b.n; i++ {
		right.Insert(right.Len(), bitword.GetBits(b.words, i*b.w, b.w))
	}

	kept := New(b.cap)
	for i := 0; i < mid; i++ {
		kept.Insert(kept.Len(), bitword.GetBits(b.words, i*b.w, b.w))
	}
	*b = *kept
	return right
}

// CanMergeWith reports whether other's values fit into this block's
// remaining capacity, so MergeFrom would not overflow.
func (b *Block) CanMergeWith(other *Block) bool {
	return b.n+other.n <= b.cap
}

// MergeFrom appends other's values onto the end of this block, widening
// as needed. The caller must have checked CanMergeWith.
func (b *Block) MergeFrom(other *Block) {
	for i := 0; i < other.n; i++ {
		b.Insert(b.n, other.At(i))
	}
}

// widthFor returns the minimum bit width able to hold v (spec.md 4.2:
// ceil(log2(v+1)), at least 1 so a width-0 codeword is never produced).
func widthFor(v uint64) int {
	if v == 0 {
		return 1
	}
	return max(1, bits.Len64(v))
}

// widen rewrites every stored codeword at the new, wider width.
func (b *Block) widen(newWidth int) {
	newWords := make([]uint64, bitword.WordsNeeded(b.cap*newWidth))
	for i := 0; i < b.n; i++ {
		v := bitword.GetBits(b.words, i*b.w, b.w)
		bitword.SetBits(newWords, i*newWidth, newWidth, v)
	}
	b.words = newWords
	b.w = newWidth
}

// BuildLeaves packs values into a sequence of fully (or near-fully, for
// the tail) occupied leaves of the given capacity, rebalancing the last
// leaf against its left neighbour if it would otherwise fall below half
// capacity (spec.md 4.3 "Bulk build"). Used by DynamicIntVector's bulk
// constructor.
func BuildLeaves(values []uint64, capVals int) []*Block {
	if len(values) == 0 {
		return nil
	}

	leaves := make([]*Block, 0, (len(values)+capVals-1)/capVals)
	for start := 0; start < len(values); start += capVals {
		end := min(start+capVals, len(values))
		blk := New(capVals)
		for _, v := range values[start:end] {
			blk.Insert(blk.Len(), v)
		}
		leaves = append(leaves, blk)
	}

	if len(leaves) >= 2 {
		last := leaves[len(leaves)-1]
		prev := leaves[len(leaves)-2]
		half := last.Cap() / 2
		for last.Len() < half && prev.Len() > half {
			v := prev.Remove(prev.Len() - 1)
			last.Insert(0, v)
		}
	}
	return leaves
}

func (b *Block) checkIndex(i, limit int) {
	if i < 0 || i >= limit {
		panic(fmt.Sprintf("vlcblock: index %d out of range [0,%d)", i, limit))
	}
}
