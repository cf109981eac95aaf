// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package btree implements the generic aggregating B+-tree engine shared
// by every dynamic sequence in this module (spec.md 4.3): order-statistic
// descent by position, descent by cumulative aggregate, the split/merge
// mutation protocol, bulk build, and an invalidation-checked iterator.
//
// The leaf container is a type parameter satisfying Leaf[E], and the
// per-subtree aggregate is the fixed pair Agg{Count, Value} -- spec.md 9
// "Templated container abstraction", re-expressed as a Go interface
// instead of a C++ template parameter.
package btree

import (
	"fmt"

	"github.com/succinct-go/dynseq/internal/arena"
)

// Agg is the per-subtree aggregate cached on every internal node: the
// element count, and a domain accumulator (popcount for bit sequences,
// sum for integer sequences).
type Agg struct {
	Count uint64
	Value uint64
}

// Add returns the component-wise sum of two aggregates -- the identity
// element is the zero Agg, making Agg a commutative monoid under Add.
func (a Agg) Add(o Agg) Agg {
	return Agg{a.Count + o.Count, a.Value + o.Value}
}

// Leaf is the contract a block-level container must satisfy to serve as
// a B+-tree leaf.
type Leaf[E any] interface {
	Len() int
	Cap() int
	Full() bool
	Agg() Agg

	At(i int) E
	Set(i int, v E)
	Insert(i int, v E)
	Remove(i int) E

	// Split moves the upper half of this leaf's elements into a new
	// leaf, which is returned; the receiver retains the lower half.
	Split() Leaf[E]
	CanMergeWith(other Leaf[E]) bool
	MergeFrom(other Leaf[E])

	// RankValue returns the cumulative Value aggregate over [0,i).
	RankValue(i int) uint64
	// SearchValue returns the smallest index k with RankValue(k+1) >=
	// target, or Len() if unreachable within this leaf.
	SearchValue(target uint64) int
}

// ZeroLeaf is an optional Leaf extension for structures that also need to
// descend by the complementary aggregate Count-Value -- e.g. zero-bits
// alongside one-bits in a bit sequence (spec.md 4.4 "rank0"/"select0").
// A Leaf implementation that will never be used for zero-descents (the
// integer-sequence VLC leaf, for instance) need not implement it.
type ZeroLeaf interface {
	// RankZero returns the cumulative (Count-Value) aggregate over [0,i).
	RankZero(i int) uint64
	// SearchZero returns the smallest index k with RankZero(k+1) >=
	// target, or Len() if unreachable within this leaf.
	SearchZero(target uint64) int
}

// node is either an internal node (children non-nil) or a leaf wrapper
// (leaf non-nil), never both.
type node[E any] struct {
	leaf     Leaf[E]
	children []*node[E]
	aggs     []Agg // parallel to children, cached per-child aggregate
}

func (n *node[E]) isLeaf() bool { return n.leaf != nil }

// agg returns this node's own subtree aggregate.
func (n *node[E]) agg() Agg {
	if n.isLeaf() {
		return n.leaf.Agg()
	}
	var a Agg
	for _, c := range n.aggs {
		a = a.Add(c)
	}
	return a
}

// Tree is a generic aggregating B+-tree over element type E.
type Tree[E any] struct {
	root    *node[E]
	depth   int // 0 when root is a leaf
	fanout  int // D, internal node max children
	newLeaf func() Leaf[E]
	gen     int64 // bumped on every structural mutation, invalidates iterators
	pool    *arena.Pool[node[E]]
}

// New returns an empty tree with the given internal fanout D and leaf
// factory (capturing leaf capacity B_bits/B_vals at construction).
func New[E any](fanout int, newLeaf func() Leaf[E]) *Tree[E] {
	if fanout < 4 {
		panic("btree: fanout must be at least 4")
	}
	t := &Tree[E]{fanout: fanout, newLeaf: newLeaf}
	t.pool = arena.New(func() *node[E] { return new(node[E]) })
	t.root = t.pool.Get()
	t.root.leaf = newLeaf()
	return t
}

func (t *Tree[E]) minChildren() int { return (t.fanout + 1) / 2 }

// Len returns the total number of elements stored.
func (t *Tree[E]) Len() int { return int(t.root.agg().Count) }

// TotalAgg returns the tree's root aggregate.
func (t *Tree[E]) TotalAgg() Agg { return t.root.agg() }

// At returns the element at position i. Panics if i is out of range.
func (t *Tree[E]) At(i int) E {
	t.checkIndex(i, t.Len())
	return at(t.root, i)
}

func at[E any](n *node[E], i int) E {
	if n.isLeaf() {
		return n.leaf.At(i)
	}
	idx, offset := locate(n, i)
	return at(n.children[idx], i-offset)
}

// Set overwrites the element at position i (no length change).
func (t *Tree[E]) Set(i int, v E) {
	t.checkIndex(i, t.Len())
	setNode(t.root, i, v)
	t.gen++
}

func setNode[E any](n *node[E], i int, v E) Agg {
	if n.isLeaf() {
		n.leaf.Set(i, v)
		return n.leaf.Agg()
	}
	idx, offset := locate(n, i)
	n.aggs[idx] = setNode(n.children[idx], i-offset, v)
	return sumAggs(n.aggs)
}

// PrefixValue returns the cumulative Value aggregate over the first i
// elements -- rank1(i) for a popcount tree, prefix_sum(i) for a sum tree.
func (t *Tree[E]) PrefixValue(i int) uint64 {
	t.checkIndex(i, t.Len()+1)
	return prefixValue(t.root, i)
}

func prefixValue[E any](n *node[E], i int) uint64 {
	if n.isLeaf() {
		return n.leaf.RankValue(i)
	}
	var acc uint64
	for idx, c := range n.children {
		cnt := int(n.aggs[idx].Count)
		if i < cnt {
			return acc + prefixValue(c, i)
		}
		acc += n.aggs[idx].Value
		i -= cnt
	}
	return acc
}

// SearchByValue returns the smallest absolute position k such that
// PrefixValue(k+1) >= target, or Len() if target exceeds the tree's
// total Value aggregate. This underlies both select_b (bit sequences)
// and search (prefix-sum sequences) -- spec.md 4.3 "Rank/select/search".
func (t *Tree[E]) SearchByValue(target uint64) int {
	pos, _ := searchByValue(t.root, target)
	return pos
}

func searchByValue[E any](n *node[E], target uint64) (pos int, found bool) {
	if n.isLeaf() {
		k := n.leaf.SearchValue(target)
		if k >= n.leaf.Len() {
			return n.leaf.Len(), false
		}
		return k, true
	}
	offset := 0
	for idx, c := range n.children {
		v := n.aggs[idx].Value
		if target <= v {
			localPos, ok := searchByValue(c, target)
			return offset + localPos, ok
		}
		target -= v
		offset += int(n.aggs[idx].Count)
	}
	return offset, false
}

// PrefixZero returns the cumulative (Count-Value) aggregate over the
// first i elements -- rank0(i) for a bit sequence. Panics if any leaf in
// the descent path does not implement ZeroLeaf.
func (t *Tree[E]) PrefixZero(i int) uint64 {
	t.checkIndex(i, t.Len()+1)
	return prefixZero(t.root, i)
}

func prefixZero[E any](n *node[E], i int) uint64 {
	if n.isLeaf() {
		zl, ok := n.leaf.(ZeroLeaf)
		if !ok {
			panic("btree: leaf does not implement ZeroLeaf")
		}
		return zl.RankZero(i)
	}
	var acc uint64
	for idx, c := range n.children {
		cnt := int(n.aggs[idx].Count)
		if i < cnt {
			return acc + prefixZero(c, i)
		}
		acc += n.aggs[idx].Count - n.aggs[idx].Value
		i -= cnt
	}
	return acc
}

// SearchByZero returns the smallest absolute position k such that
// PrefixZero(k+1) >= target, or Len() if target exceeds the tree's total
// (Count-Value) aggregate. Underlies select0 (spec.md 4.4).
func (t *Tree[E]) SearchByZero(target uint64) int {
	pos, _ := searchByZero(t.root, target)
	return pos
}

func searchByZero[E any](n *node[E], target uint64) (pos int, found bool) {
	if n.isLeaf() {
		zl, ok := n.leaf.(ZeroLeaf)
		if !ok {
			panic("btree: leaf does not implement ZeroLeaf")
		}
		k := zl.SearchZero(target)
		if k >= n.leaf.Len() {
			return n.leaf.Len(), false
		}
		return k, true
	}
	offset := 0
	for idx, c := range n.children {
		v := n.aggs[idx].Count - n.aggs[idx].Value
		if target <= v {
			localPos, ok := searchByZero(c, target)
			return offset + localPos, ok
		}
		target -= v
		offset += int(n.aggs[idx].Count)
	}
	return offset, false
}

// Insert inserts v at position i, growing the tree by one element.
// Panics if i is out of [0,Len()] range.
func (t *Tree[E]) Insert(i int, v E) {
	t.checkIndex(i, t.Len()+1)
	right, _ := insertNode(t, t.root, i, v)
	if right != nil {
		newRoot := t.pool.Get()
		newRoot.children = []*node[E]{t.root, right}
		newRoot.aggs = []Agg{t.root.agg(), right.agg()}
		t.root = newRoot
		t.depth++
	}
	t.gen++
}

func insertNode[E any](t *Tree[E], n *node[E], i int, v E) (right *node[E], newAgg Agg) {
	if n.isLeaf() {
		if n.leaf.Full() {
			rightLeaf := n.leaf.Split()
			rightNode := t.pool.Get()
			rightNode.leaf = rightLeaf
			if i <= n.leaf.Len() {
				n.leaf.Insert(i, v)
			} else {
				rightLeaf.Insert(i-n.leaf.Len(), v)
			}
			return rightNode, n.leaf.Agg()
		}
		n.leaf.Insert(i, v)
		return nil, n.leaf.Agg()
	}

	idx, offset := locate(n, i)
	childRight, childAgg := insertNode(t, n.children[idx], i-offset, v)
	n.aggs[idx] = childAgg
	if childRight != nil {
		insertChildAt(n, idx+1, childRight)
	}
	if len(n.children) > t.fanout {
		mid := len(n.children) / 2
		right = t.pool.Get()
		right.children = append([]*node[E]{}, n.children[mid:]...)
		right.aggs = append([]Agg{}, n.aggs[mid:]...)
		n.children = n.children[:mid:mid]
		n.aggs = n.aggs[:mid:mid]
		return right, sumAggs(n.aggs)
	}
	return nil, sumAggs(n.aggs)
}

// Remove deletes the element at position i, shrinking the tree by one
// element, and returns it. Panics if i is out of [0,Len()) range or the
// tree is empty.
func (t *Tree[E]) Remove(i int) E {
	t.checkIndex(i, t.Len())
	v, _, _ := removeNode(t, t.root, i)
	if !t.root.isLeaf() && len(t.root.children) == 1 {
		old := t.root
		t.root = t.root.children[0]
		t.depth--
		t.pool.Put(old, resetNode[E])
	}
	t.gen++
	return v
}

func removeNode[E any](t *Tree[E], n *node[E], i int) (removed E, newAgg Agg, underflow bool) {
	if n.isLeaf() {
		removed = n.leaf.Remove(i)
		newAgg = n.leaf.Agg()
		underflow = n.leaf.Len() < n.leaf.Cap()/2
		return
	}

	idx, offset := locate(n, i)
	var childUnderflow bool
	removed, n.aggs[idx], childUnderflow = removeNode(t, n.children[idx], i-offset)
	if childUnderflow {
		rebalanceChild(t, n, idx)
	}
	newAgg = sumAggs(n.aggs)
	underflow = len(n.children) < t.minChildren()
	return
}

// rebalanceChild fixes an underflowed child at index idx by stealing one
// element from a sibling, or merging with one (spec.md 4.3 step 4).
func rebalanceChild[E any](t *Tree[E], n *node[E], idx int) {
	if idx > 0 && canSteal(t, n.children[idx-1]) {
		stealFromLeft(n, idx)
		return
	}
	if idx+1 < len(n.children) && canSteal(t, n.children[idx+1]) {
		stealFromRight(n, idx)
		return
	}
	if idx > 0 {
		mergeChildren(t, n, idx-1, idx)
	} else {
		mergeChildren(t, n, idx, idx+1)
	}
}

func canSteal[E any](t *Tree[E], sib *node[E]) bool {
	if sib.isLeaf() {
		return sib.leaf.Len() > sib.leaf.Cap()/2
	}
	return len(sib.children) > t.minChildren()
}

// stealFromLeft moves the last element of the left sibling (idx-1) onto
// the front of the child at idx.
func stealFromLeft[E any](n *node[E], idx int) {
	left, right := n.children[idx-1], n.children[idx]
	if left.isLeaf() {
		last := left.leaf.Len() - 1
		v := left.leaf.At(last)
		left.leaf.Remove(last)
		right.leaf.Insert(0, v)
	} else {
		lastIdx := len(left.children) - 1
		movedChild, movedAgg := left.children[lastIdx], left.aggs[lastIdx]
		left.children = left.children[:lastIdx]
		left.aggs = left.aggs[:lastIdx]
		right.children = append([]*node[E]{movedChild}, right.children...)
		right.aggs = append([]Agg{movedAgg}, right.aggs...)
	}
	n.aggs[idx-1] = left.agg()
	n.aggs[idx] = right.agg()
}

// stealFromRight moves the first element of the right sibling (idx+1)
// onto the back of the child at idx.
func stealFromRight[E any](n *node[E], idx int) {
	left, right := n.children[idx], n.children[idx+1]
	if right.isLeaf() {
		v := right.leaf.At(0)
		right.leaf.Remove(0)
		left.leaf.Insert(left.leaf.Len(), v)
	} else {
		movedChild, movedAgg := right.children[0], right.aggs[0]
		right.children = right.children[1:]
		right.aggs = right.aggs[1:]
		left.children = append(left.children, movedChild)
		left.aggs = append(left.aggs, movedAgg)
	}
	n.aggs[idx] = left.agg()
	n.aggs[idx+1] = right.agg()
}

// mergeChildren merges the child at rightIdx into leftIdx (leftIdx =
// rightIdx-1) and removes rightIdx from n's child list.
func mergeChildren[E any](t *Tree[E], n *node[E], leftIdx, rightIdx int) {
	left, right := n.children[leftIdx], n.children[rightIdx]
	if left.isLeaf() {
		if !left.leaf.CanMergeWith(right.leaf) {
			panic("btree: sibling merge exceeds leaf capacity")
		}
		left.leaf.MergeFrom(right.leaf)
	} else {
		left.children = append(left.children, right.children...)
		left.aggs = append(left.aggs, right.aggs...)
	}
	n.aggs[leftIdx] = left.agg()
	n.children = append(n.children[:rightIdx], n.children[rightIdx+1:]...)
	n.aggs = append(n.aggs[:rightIdx], n.aggs[rightIdx+1:]...)
	t.pool.Put(right, resetNode[E])
}

// insertChildAt inserts child at position idx in n's child list.
func insertChildAt[E any](n *node[E], idx int, child *node[E]) {
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child

	n.aggs = append(n.aggs, Agg{})
	copy(n.aggs[idx+1:], n.aggs[idx:])
	n.aggs[idx] = child.agg()
}

// locate finds the child index covering position i in an internal node,
// and that child's starting offset, by linear scan of cached counts
// (spec.md 4.3: "descent scans each internal node linearly").
func locate[E any](n *node[E], i int) (idx int, offset int) {
	for idx = range n.children {
		cnt := int(n.aggs[idx].Count)
		if i < offset+cnt {
			return idx, offset
		}
		offset += cnt
	}
	return len(n.children) - 1, offset - int(n.aggs[len(n.children)-1].Count)
}

func sumAggs(aggs []Agg) Agg {
	var a Agg
	for _, x := range aggs {
		a = a.Add(x)
	}
	return a
}

func resetNode[E any](n *node[E]) {
	n.leaf = nil
	n.children = nil
	n.aggs = nil
}

// BuildBulk constructs a balanced tree from leaves already packed in
// left-to-right order (spec.md 4.3 "Bulk build"): O(n) successive
// internal levels, bottom-up.
func BuildBulk[E any](fanout int, newLeaf func() Leaf[E], leaves []Leaf[E]) *Tree[E] {
	t := New(fanout, newLeaf)
	if len(leaves) == 0 {
		return t
	}

	level := make([]*node[E], len(leaves))
	for i, l := range leaves {
		level[i] = &node[E]{leaf: l}
	}

	depth := 0
	for len(level) > 1 {
		level = packLevel(level, fanout)
		depth++
	}

	t.root = level[0]
	t.depth = depth
	return t
}

func packLevel[E any](level []*node[E], fanout int) []*node[E] {
	var next []*node[E]
	for start := 0; start < len(level); {
		end := min(start+fanout, len(level))
		// If what would be left after this group is too small to form a
		// node, share the remaining children evenly between two nodes.
		if rest := len(level) - end; rest > 0 && rest < (fanout+1)/2 {
			end = start + (end-start+rest)/2
		}
		group := level[start:end]
		n := &node[E]{
			children: append([]*node[E]{}, group...),
			aggs:     make([]Agg, len(group)),
		}
		for i, c := range group {
			n.aggs[i] = c.agg()
		}
		next = append(next, n)
		start = end
	}
	return next
}

// Leaves returns every leaf container in left-to-right order, for the
// serialization layer (spec.md 4.8: "For each leaf in left-to-right
// order...").
func (t *Tree[E]) Leaves() []Leaf[E] {
	var out []Leaf[E]
	collectLeaves(t.root, &out)
	return out
}

// Clear empties the tree back to a single empty leaf without walking the
// old tree. The old tree's nodes are not returned to the free list: they
// are left to the garbage collector, and the free list is emptied too.
func (t *Tree[E]) Clear() {
	t.pool.Drain()
	t.root = t.pool.Get()
	t.root.leaf = t.newLeaf()
	t.depth = 0
	t.gen++
}

// Swap exchanges the ownership of two trees' storage.
func (t *Tree[E]) Swap(o *Tree[E]) {
	*t, *o = *o, *t
}

func (t *Tree[E]) checkIndex(i, limit int) {
	if i < 0 || i >= limit {
		panic(fmt.Sprintf("btree: index %d out of range [0,%d)", i, limit))
	}
}

// Iterator is a stateful cursor over the tree's elements in order.
// Any structural mutation of the tree invalidates all outstanding
// iterators (spec.md 4.3 "Iterator"); Next panics if it detects one.
type Iterator[E any] struct {
	leaves []Leaf[E]
	gen    int64
	tree   *Tree[E]
	li, ei int // leaf index, element-within-leaf index
}

// Iterate returns an iterator positioned before the first element.
func (t *Tree[E]) Iterate() *Iterator[E] {
	it := &Iterator[E]{tree: t, gen: t.gen}
	collectLeaves(t.root, &it.leaves)
	return it
}

func collectLeaves[E any](n *node[E], out *[]Leaf[E]) {
	if n.isLeaf() {
		*out = append(*out, n.leaf)
		return
	}
	for _, c := range n.children {
		collectLeaves(c, out)
	}
}

// Next advances the cursor and returns the next element, or ok=false at
// the end of the sequence. Panics if the tree was structurally mutated
// since the iterator was created.
func (it *Iterator[E]) Next() (v E, ok bool) {
	if it.gen != it.tree.gen {
		panic("btree: iterator invalidated by structural mutation, reseek")
	}
	for it.li < len(it.leaves) {
		leaf := it.leaves[it.li]
		if it.ei < leaf.Len() {
			v = leaf.At(it.ei)
			it.ei++
			return v, true
		}
		it.li++
		it.ei = 0
	}
	return v, false
}
