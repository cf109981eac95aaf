// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package btree

import (
	"math/rand/v2"
	"testing"
)

// testLeaf is a minimal Leaf[int] backed by a plain slice, storing only
// 0/1 values so it can double as a ZeroLeaf. A small, fixed capacity
// forces frequent splits and merges under test, exercising the tree's
// rebalancing logic harder than the production leaves' larger defaults
// would.
type testLeaf struct {
	vals []int
	cap  int
}

func newTestLeaf(cap int) func() Leaf[int] {
	return func() Leaf[int] { return &testLeaf{cap: cap} }
}

func (l *testLeaf) Len() int  { return len(l.vals) }
func (l *testLeaf) Cap() int  { return l.cap }
func (l *testLeaf) Full() bool { return len(l.vals) >= l.cap }

func (l *testLeaf) Agg() Agg {
	var sum uint64
	for _, v := range l.vals {
		sum += uint64(v)
	}
	return Agg{Count: uint64(len(l.vals)), Value: sum}
}

func (l *testLeaf) At(i int) int    { return l.vals[i] }
func (l *testLeaf) Set(i int, v int) { l.vals[i] = v }

func (l *testLeaf) Insert(i int, v int) {
	l.vals = append(l.vals, 0)
	copy(l.vals[i+1:], l.vals[i:])
	l.vals[i] = v
}

func (l *testLeaf) Remove(i int) int {
	v := l.vals[i]
	l.vals = append(l.vals[:i], l.vals[i+1:]...)
	return v
}

func (l *testLeaf) Split() Leaf[int] {
	mid := len(l.vals) / 2
	right := &testLeaf{cap: l.cap, vals: append([]int{}, l.vals[mid:]...)}
	l.vals = l.vals[:mid:mid]
	return right
}

func (l *testLeaf) CanMergeWith(other Leaf[int]) bool {
	o := other.(*testLeaf)
	return len(l.vals)+len(o.vals) <= l.cap
}

func (l *testLeaf) MergeFrom(other Leaf[int]) {
	o := other.(*testLeaf)
	l.vals = append(l.vals, o.vals...)
}

func (l *testLeaf) RankValue(i int) uint64 {
	var s uint64
	for j := 0; j < i; j++ {
		s += uint64(l.vals[j])
	}
	return s
}

func (l *testLeaf) SearchValue(target uint64) int {
	var acc uint64
	for j, v := range l.vals {
		acc += uint64(v)
		if acc >= target {
			return j
		}
	}
	return len(l.vals)
}

func (l *testLeaf) RankZero(i int) uint64 { return uint64(i) - l.RankValue(i) }

func (l *testLeaf) SearchZero(target uint64) int {
	var acc uint64
	for j, v := range l.vals {
		acc += uint64(1 - v)
		if acc >= target {
			return j
		}
	}
	return len(l.vals)
}

func newSmallTree() *Tree[int] {
	return New(4, newTestLeaf(4))
}

func TestInsertAtRemove(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	var shadow []int

	prng := rand.New(rand.NewPCG(1, 1))
	for step := 0; step < 1000; step++ {
		if len(shadow) == 0 || prng.IntN(2) == 0 {
			i := prng.IntN(len(shadow) + 1)
			v := prng.IntN(2)
			tree.Insert(i, v)
			shadow = append(shadow, 0)
			copy(shadow[i+1:], shadow[i:])
			shadow[i] = v
		} else {
			i := prng.IntN(len(shadow))
			want := shadow[i]
			got := tree.Remove(i)
			if got != want {
				t.Fatalf("step %d: Remove(%d) = %d, want %d", step, i, got, want)
			}
			shadow = append(shadow[:i], shadow[i+1:]...)
		}

		if tree.Len() != len(shadow) {
			t.Fatalf("step %d: Len() = %d, want %d", step, tree.Len(), len(shadow))
		}
		for i, want := range shadow {
			if got := tree.At(i); got != want {
				t.Fatalf("step %d: At(%d) = %d, want %d", step, i, got, want)
			}
		}
	}
}

func TestPrefixValueAndSearchByValue(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	prng := rand.New(rand.NewPCG(2, 2))
	var shadow []int
	for i := 0; i < 300; i++ {
		v := prng.IntN(2)
		tree.Insert(tree.Len(), v)
		shadow = append(shadow, v)
	}

	var prefix []uint64
	var acc uint64
	for _, v := range shadow {
		acc += uint64(v)
		prefix = append(prefix, acc)
	}

	for i := 0; i <= len(shadow); i++ {
		want := uint64(0)
		if i > 0 {
			want = prefix[i-1]
		}
		if got := tree.PrefixValue(i); got != want {
			t.Fatalf("PrefixValue(%d) = %d, want %d", i, got, want)
		}
	}

	for target := uint64(1); target <= acc+1; target++ {
		want := len(shadow)
		for i, p := range prefix {
			if p >= target {
				want = i
				break
			}
		}
		if got := tree.SearchByValue(target); got != want {
			t.Fatalf("SearchByValue(%d) = %d, want %d", target, got, want)
		}
	}
}

func TestPrefixZeroAndSearchByZero(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	prng := rand.New(rand.NewPCG(3, 3))
	var shadow []int
	for i := 0; i < 300; i++ {
		v := prng.IntN(2)
		tree.Insert(tree.Len(), v)
		shadow = append(shadow, v)
	}

	var prefix []uint64
	var acc uint64
	for _, v := range shadow {
		acc += uint64(1 - v)
		prefix = append(prefix, acc)
	}

	for i := 0; i <= len(shadow); i++ {
		want := uint64(0)
		if i > 0 {
			want = prefix[i-1]
		}
		if got := tree.PrefixZero(i); got != want {
			t.Fatalf("PrefixZero(%d) = %d, want %d", i, got, want)
		}
	}

	for target := uint64(1); target <= acc+1; target++ {
		want := len(shadow)
		for i, p := range prefix {
			if p >= target {
				want = i
				break
			}
		}
		if got := tree.SearchByZero(target); got != want {
			t.Fatalf("SearchByZero(%d) = %d, want %d", target, got, want)
		}
	}
}

func TestSetOverwritesAndUpdatesAggregates(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	for i := 0; i < 50; i++ {
		tree.Insert(i, 0)
	}

	tree.Set(10, 1)
	if got := tree.At(10); got != 1 {
		t.Fatalf("At(10) = %d, want 1", got)
	}
	if got := tree.TotalAgg().Value; got != 1 {
		t.Fatalf("TotalAgg().Value = %d, want 1", got)
	}

	tree.Set(10, 0)
	if got := tree.TotalAgg().Value; got != 0 {
		t.Fatalf("TotalAgg().Value after revert = %d, want 0", got)
	}
}

func TestBuildBulkMatchesIncrementalBuild(t *testing.T) {
	t.Parallel()

	prng := rand.New(rand.NewPCG(4, 4))
	n := 500
	vals := make([]int, n)
	for i := range vals {
		vals[i] = prng.IntN(2)
	}

	incremental := newSmallTree()
	for i, v := range vals {
		incremental.Insert(i, v)
	}

	leaves := make([]Leaf[int], 0, (n+3)/4)
	for start := 0; start < n; start += 4 {
		end := min(start+4, n)
		lf := &testLeaf{cap: 4, vals: append([]int{}, vals[start:end]...)}
		leaves = append(leaves, lf)
	}
	bulk := BuildBulk(4, newTestLeaf(4), leaves)

	if bulk.Len() != incremental.Len() {
		t.Fatalf("bulk Len() = %d, want %d", bulk.Len(), incremental.Len())
	}
	for i, want := range vals {
		if got := bulk.At(i); got != want {
			t.Fatalf("bulk At(%d) = %d, want %d", i, got, want)
		}
	}
	if bulk.TotalAgg() != incremental.TotalAgg() {
		t.Fatalf("bulk TotalAgg() = %+v, want %+v", bulk.TotalAgg(), incremental.TotalAgg())
	}
}

func TestIteratorWalksInOrder(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	var shadow []int
	prng := rand.New(rand.NewPCG(5, 5))
	for i := 0; i < 200; i++ {
		v := prng.IntN(2)
		tree.Insert(tree.Len(), v)
		shadow = append(shadow, v)
	}

	it := tree.Iterate()
	var got []int
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != len(shadow) {
		t.Fatalf("iterator produced %d elements, want %d", len(got), len(shadow))
	}
	for i, want := range shadow {
		if got[i] != want {
			t.Fatalf("iterator[%d] = %d, want %d", i, got[i], want)
		}
	}
}

func TestIteratorPanicsAfterMutation(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	tree.Insert(0, 1)
	it := tree.Iterate()
	tree.Insert(0, 0)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from stale iterator")
		}
	}()
	it.Next()
}

func TestClearEmptiesTree(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	for i := 0; i < 30; i++ {
		tree.Insert(i, i%2)
	}
	tree.Clear()
	if tree.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", tree.Len())
	}
	tree.Insert(0, 1)
	if tree.Len() != 1 || tree.At(0) != 1 {
		t.Fatal("tree unusable after Clear")
	}
}

func TestSwapExchangesContents(t *testing.T) {
	t.Parallel()

	a := newSmallTree()
	b := newSmallTree()
	a.Insert(0, 1)
	a.Insert(1, 0)
	b.Insert(0, 0)

	a.Swap(b)
	if a.Len() != 1 || a.At(0) != 0 {
		t.Fatalf("a after Swap: Len=%d, want 1 with At(0)=0", a.Len())
	}
	if b.Len() != 2 {
		t.Fatalf("b after Swap: Len=%d, want 2", b.Len())
	}
}

func TestLeavesPreservesOrder(t *testing.T) {
	t.Parallel()

	tree := newSmallTree()
	prng := rand.New(rand.NewPCG(6, 6))
	var shadow []int
	for i := 0; i < 100; i++ {
		v := prng.IntN(2)
		tree.Insert(tree.Len(), v)
		shadow = append(shadow, v)
	}

	var reconstructed []int
	for _, lf := range tree.Leaves() {
		for i := 0; i < lf.Len(); i++ {
			reconstructed = append(reconstructed, lf.At(i))
		}
	}
	if len(reconstructed) != len(shadow) {
		t.Fatalf("Leaves() reconstructed %d elements, want %d", len(reconstructed), len(shadow))
	}
	for i, want := range shadow {
		if reconstructed[i] != want {
			t.Fatalf("Leaves()[flat %d] = %d, want %d", i, reconstructed[i], want)
		}
	}
}

func TestLowFanoutPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for fanout below 4")
		}
	}()
	New(3, newTestLeaf(4))
}
