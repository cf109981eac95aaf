// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import "fmt"

// waveletNode is one internal node of the wavelet tree: a dynamic bit
// sequence recording, for every symbol routed through this node, the
// bit of that symbol at this node's depth (spec.md 4.6). Leaves are
// implicit -- a node whose children are both nil sits at depth h-1 and
// its left/right subtrees are single symbols, not stored explicitly.
type waveletNode struct {
	bits        *DynamicBitVector
	left, right *waveletNode
}

func (n *waveletNode) childFor(bit int) *waveletNode {
	if bit == 0 {
		return n.left
	}
	return n.right
}

// DynamicWaveletTree is a dynamic wavelet tree over a fixed byte
// alphabet Σ, supporting logarithmic-time access, rank, select, insert
// and remove by descending a binary tree of dynamic bit sequences
// (spec.md 4.6).
type DynamicWaveletTree struct {
	alphabet []byte
	symIndex map[byte]int
	depth    int // h = ceil(log2(|alphabet|))
	root     *waveletNode
	size     int
	cfg      config
	opts     []Option
}

// bitsNeeded returns ceil(log2(n)) for n >= 1, and 0 for n <= 1.
func bitsNeeded(n int) int {
	h := 0
	for (1 << h) < n {
		h++
	}
	return h
}

func bitAt(code, depth, h int) int {
	return (code >> uint(h-1-depth)) & 1
}

// NewWaveletTree returns an empty wavelet tree fixed to the given
// alphabet (spec.md 4.6 "Σ is fixed at build time").
func NewWaveletTree(alphabet []byte, opts ...Option) *DynamicWaveletTree {
	return BuildWaveletTree(nil, alphabet, opts...)
}

// BuildWaveletTree bulk-constructs a wavelet tree from text over the
// given alphabet in O(n log|Σ|), per spec.md 4.3 "Bulk build" applied
// once per tree level.
func BuildWaveletTree(text []byte, alphabet []byte, opts ...Option) *DynamicWaveletTree {
	cfg := applyOptions(opts)
	w := &DynamicWaveletTree{
		alphabet: append([]byte{}, alphabet...),
		symIndex: make(map[byte]int, len(alphabet)),
		depth:    bitsNeeded(len(alphabet)),
		cfg:      cfg,
		opts:     opts,
	}
	for i, s := range alphabet {
		w.symIndex[s] = i
	}

	codes := make([]int, len(text))
	for i, c := range text {
		idx, ok := w.symIndex[c]
		if !ok {
			panic(fmt.Sprintf("dynseq: symbol %q not in wavelet tree alphabet", c))
		}
		codes[i] = idx
	}

	w.root = buildWaveletNode(0, codes, w.depth, opts)
	w.size = len(text)
	return w
}

func buildWaveletNode(depth int, codes []int, h int, opts []Option) *waveletNode {
	if depth == h {
		return nil
	}

	bits := make([]bool, len(codes))
	var leftCodes, rightCodes []int
	for i, c := range codes {
		b := bitAt(c, depth, h)
		bits[i] = b == 1
		if b == 0 {
			leftCodes = append(leftCodes, c)
		} else {
			rightCodes = append(rightCodes, c)
		}
	}

	n := &waveletNode{bits: BuildBitVector(bits, opts...)}
	n.left = buildWaveletNode(depth+1, leftCodes, h, opts)
	n.right = buildWaveletNode(depth+1, rightCodes, h, opts)
	return n
}

// Size returns the number of symbols stored.
func (w *DynamicWaveletTree) Size() int { return w.size }

// Alphabet returns the fixed symbol alphabet, in index order.
func (w *DynamicWaveletTree) Alphabet() []byte { return append([]byte{}, w.alphabet...) }

// Access returns the symbol at position i (spec.md 4.6 "access(i)").
func (w *DynamicWaveletTree) Access(i int) byte {
	pos, code, depth := i, 0, 0
	for n := w.root; n != nil; {
		b := n.bits.Access(pos)
		code = code<<1 | b
		if b == 0 {
			pos = n.bits.Rank0(pos)
		} else {
			pos = n.bits.Rank1(pos)
		}
		n = n.childFor(b)
		depth++
	}
	return w.alphabet[code]
}

// Rank returns the number of occurrences of symbol c in positions
// [0,i) (spec.md 4.6 "rank(i,c)").
func (w *DynamicWaveletTree) Rank(i int, c byte) int {
	code := w.symIndex[c]
	pos := i
	for n, depth := w.root, 0; n != nil; depth++ {
		b := bitAt(code, depth, w.depth)
		if b == 0 {
			pos = n.bits.Rank0(pos)
		} else {
			pos = n.bits.Rank1(pos)
		}
		n = n.childFor(b)
	}
	return pos
}

// OneBasedRank is Rank offered with 1-based caller conventions in mind
// (spec.md 4.6); the count itself is identical to Rank(i,c).
func (w *DynamicWaveletTree) OneBasedRank(i int, c byte) int { return w.Rank(i, c) }

// Select returns the position of the (k+1)-th occurrence of symbol c
// (0-indexed k), ascending the path for c from the bottom (spec.md 4.6
// "select(k,c)").
func (w *DynamicWaveletTree) Select(k int, c byte) int {
	idx := w.symIndex[c]

	path := make([]*waveletNode, 0, w.depth)
	bits := make([]int, 0, w.depth)
	for n, depth := w.root, 0; depth < w.depth; depth++ {
		b := bitAt(idx, depth, w.depth)
		path = append(path, n)
		bits = append(bits, b)
		n = n.childFor(b)
	}

	pos := k
	for d := w.depth - 1; d >= 0; d-- {
		n := path[d]
		if bits[d] == 0 {
			pos = n.bits.Select0(pos)
		} else {
			pos = n.bits.Select1(pos)
		}
	}
	return pos
}

// Insert inserts symbol c at position i (spec.md 4.6 "insert(i,c)").
func (w *DynamicWaveletTree) Insert(i int, c byte) {
	idx, ok := w.symIndex[c]
	if !ok {
		panic(fmt.Sprintf("dynseq: symbol %q not in wavelet tree alphabet", c))
	}
	pos := i
	for n, depth := w.root, 0; n != nil; depth++ {
		b := bitAt(idx, depth, w.depth)
		var newPos int
		if b == 0 {
			newPos = n.bits.Rank0(pos)
		} else {
			newPos = n.bits.Rank1(pos)
		}
		n.bits.Insert(pos, b)
		pos = newPos
		n = n.childFor(b)
	}
	w.size++
}

// Remove deletes and returns the symbol at position i (spec.md 4.6
// "remove(i)").
func (w *DynamicWaveletTree) Remove(i int) byte {
	pos, code := i, 0
	for n, depth := w.root, 0; n != nil; depth++ {
		b := n.bits.Access(pos)
		code = code<<1 | b
		var newPos int
		if b == 0 {
			newPos = n.bits.Rank0(pos)
		} else {
			newPos = n.bits.Rank1(pos)
		}
		n.bits.Remove(pos)
		pos = newPos
		n = n.childFor(b)
	}
	w.size--
	return w.alphabet[code]
}

// PushBack appends symbol c at the end of the text.
func (w *DynamicWaveletTree) PushBack(c byte) { w.Insert(w.Size(), c) }

// PushFront prepends symbol c at the start of the text.
func (w *DynamicWaveletTree) PushFront(c byte) { w.Insert(0, c) }

// PushMany appends every symbol in text, in order (spec.md 4.6, extending
// §4.4's push_many convenience to the wavelet tree per SPEC_FULL.md 12).
func (w *DynamicWaveletTree) PushMany(text []byte) {
	for _, c := range text {
		w.PushBack(c)
	}
}

// Clear empties the tree back to zero length, retaining its alphabet.
func (w *DynamicWaveletTree) Clear() {
	w.root = buildWaveletNode(0, nil, w.depth, w.opts)
	w.size = 0
}

// Swap exchanges the contents of w and o, alphabets included.
func (w *DynamicWaveletTree) Swap(o *DynamicWaveletTree) {
	*w, *o = *o, *w
}
