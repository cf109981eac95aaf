// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"github.com/succinct-go/dynseq/internal/bitblock"
	"github.com/succinct-go/dynseq/internal/btree"
)

// bitLeaf adapts a bitblock.Block to the btree.Leaf[int] and
// btree.ZeroLeaf contracts, so a bit block can serve directly as a
// B+-tree leaf (spec.md 4.4). Elements are 0/1 ints.
type bitLeaf struct {
	b *bitblock.Block
}

func newBitLeaf(cap int) *bitLeaf { return &bitLeaf{b: bitblock.New(cap)} }

func (l *bitLeaf) Len() int  { return l.b.Len() }
func (l *bitLeaf) Cap() int  { return l.b.Cap() }
func (l *bitLeaf) Full() bool { return l.b.Full() }

func (l *bitLeaf) Agg() btree.Agg {
	return btree.Agg{Count: uint64(l.b.Len()), Value: uint64(l.b.Popcount())}
}

func (l *bitLeaf) At(i int) int      { return l.b.Get(i) }
func (l *bitLeaf) Set(i int, v int)  { l.b.Set(i, v) }
func (l *bitLeaf) Insert(i int, v int) { l.b.Insert(i, v) }
func (l *bitLeaf) Remove(i int) int  { return l.b.Remove(i) }

func (l *bitLeaf) Split() btree.Leaf[int] {
	return &bitLeaf{b: l.b.Split()}
}

func (l *bitLeaf) CanMergeWith(other btree.Leaf[int]) bool {
	return l.b.CanMergeWith(other.(*bitLeaf).b)
}

func (l *bitLeaf) MergeFrom(other btree.Leaf[int]) {
	l.b.MergeFrom(other.(*bitLeaf).b)
}

func (l *bitLeaf) RankValue(i int) uint64 { return uint64(l.b.Rank1(i)) }

// SearchValue returns the smallest k with Rank1(k+1) >= target. Since
// Rank1 only ever steps by 0 or 1 per position, that position is exactly
// the (target)-th one-bit, found in O(1) via Select1.
func (l *bitLeaf) SearchValue(target uint64) int {
	if target == 0 {
		return 0
	}
	pos := l.b.Select1(int(target) - 1)
	if pos < 0 {
		return l.b.Len()
	}
	return pos
}

func (l *bitLeaf) RankZero(i int) uint64 { return uint64(l.b.Rank0(i)) }

func (l *bitLeaf) SearchZero(target uint64) int {
	if target == 0 {
		return 0
	}
	pos := l.b.Select0(int(target) - 1)
	if pos < 0 {
		return l.b.Len()
	}
	return pos
}

// DynamicBitVector is a dynamic packed bit sequence supporting
// logarithmic-time access, rank, select, insert, and remove (spec.md
// 4.4), built on the shared aggregating B+-tree with popcount as the
// Value aggregate.
type DynamicBitVector struct {
	tree *btree.Tree[int]
	cfg  config
}

// NewBitVector returns an empty bit sequence.
func NewBitVector(opts ...Option) *DynamicBitVector {
	cfg := applyOptions(opts)
	return &DynamicBitVector{
		tree: btree.New(cfg.fanout, func() btree.Leaf[int] { return newBitLeaf(cfg.bitCap) }),
		cfg:  cfg,
	}
}

// BuildBitVector bulk-constructs a bit sequence from bits in O(n), per
// spec.md 4.3 "Bulk build".
func BuildBitVector(bits []bool, opts ...Option) *DynamicBitVector {
	cfg := applyOptions(opts)
	blocks := bitblock.BuildLeaves(bits, cfg.bitCap)
	leaves := make([]btree.Leaf[int], len(blocks))
	for i, b := range blocks {
		leaves[i] = &bitLeaf{b: b}
	}
	return &DynamicBitVector{
		tree: btree.BuildBulk(cfg.fanout, func() btree.Leaf[int] { return newBitLeaf(cfg.bitCap) }, leaves),
		cfg:  cfg,
	}
}

// Size returns the number of bits stored.
func (v *DynamicBitVector) Size() int { return v.tree.Len() }

// Access returns the bit at position i.
func (v *DynamicBitVector) Access(i int) int { return v.tree.At(i) }

// Rank1 returns the number of 1-bits strictly before position i.
func (v *DynamicBitVector) Rank1(i int) int { return int(v.tree.PrefixValue(i)) }

// Rank0 returns the number of 0-bits strictly before position i.
func (v *DynamicBitVector) Rank0(i int) int { return int(v.tree.PrefixZero(i)) }

// Select1 returns the position of the (k+1)-th 1-bit (0-indexed k), or
// Size() if fewer than k+1 one-bits exist; callers must check (spec.md
// 4.4).
func (v *DynamicBitVector) Select1(k int) int { return v.tree.SearchByValue(uint64(k + 1)) }

// Select0 returns the position of the (k+1)-th 0-bit (0-indexed k), or
// Size() if fewer than k+1 zero-bits exist; callers must check.
func (v *DynamicBitVector) Select0(k int) int { return v.tree.SearchByZero(uint64(k + 1)) }

// Insert inserts bit b at position i.
func (v *DynamicBitVector) Insert(i int, b int) { v.tree.Insert(i, b) }

// Remove deletes and returns the bit at position i.
func (v *DynamicBitVector) Remove(i int) int { return v.tree.Remove(i) }

// PushBack appends bit b at the end of the sequence.
func (v *DynamicBitVector) PushBack(b int) { v.tree.Insert(v.tree.Len(), b) }

// PushFront prepends bit b at the start of the sequence.
func (v *DynamicBitVector) PushFront(b int) { v.tree.Insert(0, b) }

// PushMany appends every bit in bits, in order (spec.md 4.4).
func (v *DynamicBitVector) PushMany(bits []bool) {
	for _, b := range bits {
		bit := 0
		if b {
			bit = 1
		}
		v.PushBack(bit)
	}
}

// CountC returns the total number of bits equal to b.
func (v *DynamicBitVector) CountC(b int) int {
	if b != 0 {
		return v.Rank1(v.Size())
	}
	return v.Rank0(v.Size())
}

// ToVector materializes the sequence as a []int of 0/1 values.
func (v *DynamicBitVector) ToVector() []int {
	out := make([]int, 0, v.Size())
	it := v.tree.Iterate()
	for {
		val, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, val)
	}
	return out
}

// Clear empties the sequence back to zero length.
func (v *DynamicBitVector) Clear() { v.tree.Clear() }

// Swap exchanges the contents of v and o.
func (v *DynamicBitVector) Swap(o *DynamicBitVector) {
	v.tree.Swap(o.tree)
	v.cfg, o.cfg = o.cfg, v.cfg
}
