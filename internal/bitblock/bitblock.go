// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package bitblock implements the fixed-capacity packed bit buffer that
// backs the leaves of a dynamic bit sequence: get/set/insert/remove,
// rank1/rank0, select1/select0, split, and sibling merge, all bounded by
// a capacity fixed when the block is created by New (the B_bits of the
// aggregating B+-tree).
package bitblock

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/succinct-go/dynseq/internal/bitword"
)

// Block is a fixed-capacity packed bit buffer. The zero value is not
// usable; construct with New.
type Block struct {
	words []uint64
	n     int // number of valid bits, 0 <= n <= capacity
	cap   int // capacity in bits
	ones  int // cached popcount of words[0:n]
}

// New returns an empty block with room for capBits bits.
func New(capBits int) *Block {
	return &Block{
		words: make([]uint64, bitword.WordsNeeded(capBits)),
		cap:   capBits,
	}
}

// Len returns the number of valid bits stored.
func (b *Block) Len() int { return b.n }

// Cap returns the block's bit capacity.
func (b *Block) Cap() int { return b.cap }

// Full reports whether the block has no room for another bit.
func (b *Block) Full() bool { return b.n >= b.cap }

// Popcount returns the number of 1-bits stored (cached, O(1)).
func (b *Block) Popcount() int { return b.ones }

// Get returns the bit at position i. Panics if i is out of range.
func (b *Block) Get(i int) int {
	b.checkIndex(i, b.n)
	return bitword.Get(b.words, i)
}

// Set overwrites the bit at position i, maintaining the cached popcount.
func (b *Block) Set(i int, v int) {
	b.checkIndex(i, b.n)
	old := bitword.Get(b.words, i)
	bitword.Set(b.words, i, v)
	if v != 0 && old == 0 {
		b.ones++
	} else if v == 0 && old != 0 {
		b.ones--
	}
}

// Insert inserts bit v at position i, growing the block by one bit.
// Panics if the block is Full or i is out of [0,Len()] range.
func (b *Block) Insert(i int, v int) {
	if b.Full() {
		panic("bitblock: insert into full block")
	}
	b.checkIndex(i, b.n+1)
	bitword.ShiftInsert1(b.words, b.n, i, v)
	b.n++
	if v != 0 {
		b.ones++
	}
}

// Remove deletes the bit at position i, shrinking the block by one bit,
// and returns the removed bit. Panics on an out-of-range index or an
// empty block.
func (b *Block) Remove(i int) int {
	b.checkIndex(i, b.n)
	v := bitword.ShiftRemove1(b.words, b.n, i)
	b.n--
	if v != 0 {
		b.ones--
	}
	return v
}

// PushBack appends bit v at the end of the block.
func (b *Block) PushBack(v int) { b.Insert(b.n, v) }

// PushFront prepends bit v at the start of the block.
func (b *Block) PushFront(v int) { b.Insert(0, v) }

// Rank1 returns the number of 1-bits in positions [0,i).
func (b *Block) Rank1(i int) int {
	b.checkIndex(i, b.n+1)
	return bitword.Rank1(b.words, i)
}

// Rank0 returns the number of 0-bits in positions [0,i).
func (b *Block) Rank0(i int) int { return i - b.Rank1(i) }

// Select1 returns the position of the k-th (0-indexed) 1-bit, or -1 if
// fewer than k+1 one-bits exist.
func (b *Block) Select1(k int) int { return bitword.Select1(b.words, b.n, k) }

// Select0 returns the position of the k-th (0-indexed) 0-bit, or -1 if
// fewer than k+1 zero-bits exist.
func (b *Block) Select0(k int) int { return bitword.Select0(b.words, b.n, k) }

// Split moves the upper half of this block's bits into a new block,
// which is returned; the receiver retains the lower half. Used when an
// insert would overflow the block's capacity (spec.md 4.1 "Splitting").
func (b *Block) Split() *Block {
	mid := b.n / 2
	right := New(b.cap)
	for i := mid; i < b.n; i++ {
		right.PushBack(bitword.Get(b.words, i))
	}

	// truncate receiver to [0,mid)
	kept := New(b.cap)
	for i := 0; i < mid; i++ {
		kept.PushBack(bitword.Get(b.words, i))
	}
	*b = *kept
	return right
}

// CanMergeWith reports whether other's bits fit into this block's
// remaining capacity, so MergeFrom would not overflow.
func (b *Block) CanMergeWith(other *Block) bool {
	return b.n+other.n <= b.cap
}

// MergeFrom appends other's bits onto the end of this block. The caller
// must have checked CanMergeWith.
func (b *Block) MergeFrom(other *Block) {
	for i := 0; i < other.n; i++ {
		b.PushBack(bitword.Get(other.words, i))
	}
}

// AppendBlock joins other onto the end of this block in one call
// (spec.md 4.1 "append_block"), bounded by the same capacity rule as
// MergeFrom. Panics if the combined length would exceed the block's
// capacity.
func (b *Block) AppendBlock(other *Block) {
	if !b.CanMergeWith(other) {
		panic("bitblock: AppendBlock exceeds capacity")
	}
	b.MergeFrom(other)
}

// BuildLeaves packs bits into a sequence of fully (or near-fully, for the
// tail) occupied leaves of the given capacity, using
// github.com/bits-and-blooms/bitset to stage each leaf's bits before
// transferring them into the block's own packed storage. Used by the
// B+-tree's bulk-build path (spec.md 4.3).
func BuildLeaves(bits []bool, capBits int) []*Block {
	if len(bits) == 0 {
		return nil
	}

	leaves := make([]*Block, 0, (len(bits)+capBits-1)/capBits)
	for start := 0; start < len(bits); start += capBits {
		end := min(start+capBits, len(bits))

		staging := bitset.New(uint(end - start))
		for i := start; i < end; i++ {
			if bits[i] {
				staging.Set(uint(i - start))
			}
		}

		blk := New(capBits)
		for i := 0; i < end-start; i++ {
			bit := 0
			if staging.Test(uint(i)) {
				bit = 1
			}
			blk.PushBack(bit)
		}
		leaves = append(leaves, blk)
	}

	rebalanceTail(leaves)
	return leaves
}

// rebalanceTail redistributes bits from the second-to-last leaf into a
// short last leaf until the last leaf reaches at least half capacity, the
// occupancy floor bulk construction promises (spec.md 4.3 "last one
// possibly short but >= half-full by redistribution with its left
// neighbour").
func rebalanceTail(leaves []*Block) {
	if len(leaves) < 2 {
		return
	}
	last := leaves[len(leaves)-1]
	prev := leaves[len(leaves)-2]
	half := last.Cap() / 2
	for last.Len() < half && prev.Len() > half {
		v := prev.Remove(prev.Len() - 1)
		last.PushFront(v)
	}
}

func (b *Block) checkIndex(i, limit int) {
	if i < 0 || i >= limit {
		panic(fmt.Sprintf("bitblock: index %d out of range [0,%d)", i, limit))
	}
}
