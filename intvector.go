// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"github.com/succinct-go/dynseq/internal/btree"
	"github.com/succinct-go/dynseq/internal/vlcblock"
)

// intLeaf adapts a vlcblock.Block to the btree.Leaf[uint64] contract
// (spec.md 4.5). vlcblock.Block.Search already matches SearchValue's
// "smallest k with PrefixSum(k+1) >= target" contract verbatim, so no
// translation is needed beyond the method rename.
type intLeaf struct {
	b *vlcblock.Block
}

func newIntLeaf(cap int) *intLeaf { return &intLeaf{b: vlcblock.New(cap)} }

func (l *intLeaf) Len() int   { return l.b.Len() }
func (l *intLeaf) Cap() int   { return l.b.Cap() }
func (l *intLeaf) Full() bool { return l.b.Full() }

func (l *intLeaf) Agg() btree.Agg {
	return btree.Agg{Count: uint64(l.b.Len()), Value: l.b.Sum()}
}

func (l *intLeaf) At(i int) uint64       { return l.b.At(i) }
func (l *intLeaf) Set(i int, v uint64)   { l.b.Set(i, v) }
func (l *intLeaf) Insert(i int, v uint64) { l.b.Insert(i, v) }
func (l *intLeaf) Remove(i int) uint64   { return l.b.Remove(i) }

func (l *intLeaf) Split() btree.Leaf[uint64] {
	return &intLeaf{b: l.b.Split()}
}

func (l *intLeaf) CanMergeWith(other btree.Leaf[uint64]) bool {
	return l.b.CanMergeWith(other.(*intLeaf).b)
}

func (l *intLeaf) MergeFrom(other btree.Leaf[uint64]) {
	l.b.MergeFrom(other.(*intLeaf).b)
}

func (l *intLeaf) RankValue(i int) uint64        { return l.b.PrefixSum(i) }
func (l *intLeaf) SearchValue(target uint64) int { return l.b.Search(target) }

// DynamicIntVector is a dynamic prefix-sum sequence of unsigned integers
// supporting logarithmic-time access, prefix-sum, search, increment,
// insert and remove (spec.md 4.5), built on the shared aggregating
// B+-tree with sum as the Value aggregate.
type DynamicIntVector struct {
	tree *btree.Tree[uint64]
	cfg  config
}

// NewIntVector returns an empty prefix-sum sequence.
func NewIntVector(opts ...Option) *DynamicIntVector {
	cfg := applyOptions(opts)
	return &DynamicIntVector{
		tree: btree.New(cfg.fanout, func() btree.Leaf[uint64] { return newIntLeaf(cfg.valCap) }),
		cfg:  cfg,
	}
}

// BuildIntVector bulk-constructs a prefix-sum sequence from values in
// O(n), per spec.md 4.3 "Bulk build".
func BuildIntVector(values []uint64, opts ...Option) *DynamicIntVector {
	cfg := applyOptions(opts)
	newLeaf := func() btree.Leaf[uint64] { return newIntLeaf(cfg.valCap) }

	blocks := vlcblock.BuildLeaves(values, cfg.valCap)
	leaves := make([]btree.Leaf[uint64], len(blocks))
	for i, b := range blocks {
		leaves[i] = &intLeaf{b: b}
	}

	return &DynamicIntVector{
		tree: btree.BuildBulk(cfg.fanout, newLeaf, leaves),
		cfg:  cfg,
	}
}

// Size returns the number of values stored.
func (v *DynamicIntVector) Size() int { return v.tree.Len() }

// At returns the value at position i.
func (v *DynamicIntVector) At(i int) uint64 { return v.tree.At(i) }

// Sum returns the sum of all stored values.
func (v *DynamicIntVector) Sum() uint64 { return v.tree.TotalAgg().Value }

// PrefixSum returns the sum of values[0:i).
func (v *DynamicIntVector) PrefixSum(i int) uint64 { return v.tree.PrefixValue(i) }

// Search returns the smallest index k with PrefixSum(k+1) >= s, or
// Size() if s exceeds Sum() (spec.md 4.5).
func (v *DynamicIntVector) Search(s uint64) int { return v.tree.SearchByValue(s) }

// Increment adds delta to the value at position i.
func (v *DynamicIntVector) Increment(i int, delta uint64) {
	v.Set(i, v.At(i)+delta)
}

// Decrement subtracts delta from the value at position i. Panics if the
// current value is smaller than delta.
func (v *DynamicIntVector) Decrement(i int, delta uint64) {
	cur := v.At(i)
	if cur < delta {
		panic("dynseq: decrement below zero")
	}
	v.Set(i, cur-delta)
}

// Set overwrites the value at position i.
func (v *DynamicIntVector) Set(i int, val uint64) { v.tree.Set(i, val) }

// Insert inserts value val at position i.
func (v *DynamicIntVector) Insert(i int, val uint64) { v.tree.Insert(i, val) }

// Remove deletes and returns the value at position i.
func (v *DynamicIntVector) Remove(i int) uint64 { return v.tree.Remove(i) }

// PushBack appends val at the end of the sequence.
func (v *DynamicIntVector) PushBack(val uint64) { v.tree.Insert(v.tree.Len(), val) }

// PushFront prepends val at the start of the sequence.
func (v *DynamicIntVector) PushFront(val uint64) { v.tree.Insert(0, val) }

// PushMany appends every value in vals, in order (spec.md 4.4 "push_many",
// generalized here to the integer sequence per SPEC_FULL.md 12).
func (v *DynamicIntVector) PushMany(vals []uint64) {
	for _, val := range vals {
		v.PushBack(val)
	}
}

// ToVector materializes the sequence as a []uint64.
func (v *DynamicIntVector) ToVector() []uint64 {
	out := make([]uint64, 0, v.Size())
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
func (v *DynamicIntVector) Clear() { v.tree.Clear() }

// Swap exchanges the contents of v and o.
func (v *DynamicIntVector) Swap(o *DynamicIntVector) {
	v.tree.Swap(o.tree)
	v.cfg, o.cfg = o.cfg, v.cfg
}
