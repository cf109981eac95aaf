// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

// DynamicPermutation maintains a permutation of [0,n) as two coupled
// dynamic integer sequences, πFwd and πInv, whose elements are stable
// logical identifiers rather than positions (spec.md 4.7). A position
// lookup (fwdPosOf/invPosOf) translates a logical id to its current
// position in either sequence.
//
// fwdPosOf/invPosOf are shifted on every insert/erase to stay correct,
// which costs O(n) per mutation in the current implementation rather
// than the O(log n) the back-reference design aspires to; see
// DESIGN.md for the tradeoff.
type DynamicPermutation struct {
	fwd *DynamicIntVector // position i -> logical id of Π(i)
	inv *DynamicIntVector // position j -> logical id of Π⁻¹(j)

	fwdPosOf map[uint64]int // logical id -> current position in fwd
	invPosOf map[uint64]int // logical id -> current position in inv

	nextID uint64
	cfg    config
}

// NewPermutation returns the empty (length-0) permutation.
func NewPermutation(opts ...Option) *DynamicPermutation {
	cfg := applyOptions(opts)
	return &DynamicPermutation{
		fwd:      NewIntVector(opts...),
		inv:      NewIntVector(opts...),
		fwdPosOf: make(map[uint64]int),
		invPosOf: make(map[uint64]int),
		cfg:      cfg,
	}
}

// PermutationBuilder builds a DynamicPermutation from an initial
// permutation vector in one bulk pass (spec.md 6 "a builder for the
// permutation").
type PermutationBuilder struct{}

// NewPermutationBuilder returns a builder.
func NewPermutationBuilder() *PermutationBuilder { return &PermutationBuilder{} }

// Build constructs a permutation where position i maps to values[i];
// values must itself be a permutation of [0,len(values)).
func (PermutationBuilder) Build(values []int, opts ...Option) *DynamicPermutation {
	cfg := applyOptions(opts)
	n := len(values)

	p := &DynamicPermutation{
		fwdPosOf: make(map[uint64]int, n),
		invPosOf: make(map[uint64]int, n),
		cfg:      cfg,
	}

	fwdVals := make([]uint64, n)
	invVals := make([]uint64, n)
	for i, v := range values {
		id := uint64(i)
		fwdVals[i] = id
		invVals[v] = id
		p.fwdPosOf[id] = i
		p.invPosOf[id] = v
	}
	p.nextID = uint64(n)
	p.fwd = BuildIntVector(fwdVals, opts...)
	p.inv = BuildIntVector(invVals, opts...)
	return p
}

// Len returns the permutation's length n.
func (p *DynamicPermutation) Len() int { return p.fwd.Size() }

// Size returns the permutation's length n; it is the same as Len.
func (p *DynamicPermutation) Size() int { return p.Len() }

// AccessID returns the raw logical id stored at forward position i.
func (p *DynamicPermutation) AccessID(i int) uint64 { return p.fwd.At(i) }

// InverseID returns the raw logical id stored at inverse position j.
func (p *DynamicPermutation) InverseID(j int) uint64 { return p.inv.At(j) }

// Access returns Π(i), the current inverse position paired with forward
// position i (spec.md 4.7 "access(i)").
func (p *DynamicPermutation) Access(i int) int {
	return p.invPosOf[p.fwd.At(i)]
}

// Inverse returns Π⁻¹(j), the current forward position paired with
// inverse position j (spec.md 4.7 "inverse(j)").
func (p *DynamicPermutation) Inverse(j int) int {
	return p.fwdPosOf[p.inv.At(j)]
}

// Insert inserts a fresh logical id at forward position i and inverse
// position j, growing the permutation by one (spec.md 4.7 "insert(i,j)").
func (p *DynamicPermutation) Insert(i, j int) {
	id := p.nextID
	p.nextID++

	p.fwd.Insert(i, id)
	p.inv.Insert(j, id)

	shiftPositions(p.fwdPosOf, i, 1)
	shiftPositions(p.invPosOf, j, 1)
	p.fwdPosOf[id] = i
	p.invPosOf[id] = j
}

// Erase removes forward position i and its paired inverse entry,
// shrinking the permutation by one (spec.md 4.7 "erase(i)").
func (p *DynamicPermutation) Erase(i int) {
	id := p.fwd.At(i)
	j := p.invPosOf[id]

	p.fwd.Remove(i)
	p.inv.Remove(j)

	delete(p.fwdPosOf, id)
	delete(p.invPosOf, id)
	shiftPositions(p.fwdPosOf, i+1, -1)
	shiftPositions(p.invPosOf, j+1, -1)
}

// MovePiIndex moves the element at forward position i to forward
// position iPrime, leaving its paired inverse entry untouched (spec.md
// 4.7 "move_pi_index(i,i')" = erase(i) then insert(i') with the same
// logical id).
func (p *DynamicPermutation) MovePiIndex(i, iPrime int) {
	id := p.fwd.At(i)

	p.fwd.Remove(i)
	delete(p.fwdPosOf, id)
	shiftPositions(p.fwdPosOf, i+1, -1)

	p.fwd.Insert(iPrime, id)
	shiftPositions(p.fwdPosOf, iPrime, 1)
	p.fwdPosOf[id] = iPrime
}

// shiftPositions adds delta to every recorded position >= threshold.
// O(len(m)): a plain Go map carries no order, so there is no way to
// touch only the affected range without scanning every entry.
func shiftPositions(m map[uint64]int, threshold, delta int) {
	for id, pos := range m {
		if pos >= threshold {
			m[id] = pos + delta
		}
	}
}

// Clear empties the permutation back to length 0.
func (p *DynamicPermutation) Clear() {
	p.fwd.Clear()
	p.inv.Clear()
	p.fwdPosOf = make(map[uint64]int)
	p.invPosOf = make(map[uint64]int)
	p.nextID = 0
}

// Swap exchanges the contents of p and o.
func (p *DynamicPermutation) Swap(o *DynamicPermutation) {
	p.fwd, o.fwd = o.fwd, p.fwd
	p.inv, o.inv = o.inv, p.inv
	p.fwdPosOf, o.fwdPosOf = o.fwdPosOf, p.fwdPosOf
	p.invPosOf, o.invPosOf = o.invPosOf, p.invPosOf
	p.nextID, o.nextID = o.nextID, p.nextID
	p.cfg, o.cfg = o.cfg, p.cfg
}
