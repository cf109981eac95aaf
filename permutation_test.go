// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"math/rand/v2"
	"testing"
)

func smallPermOpts() []Option {
	return []Option{WithLeafCapacity(8), WithFanout(4)}
}

func TestPermutationBuilderAccessInverse(t *testing.T) {
	t.Parallel()

	values := []int{3, 0, 4, 1, 2}
	p := NewPermutationBuilder().Build(values, smallPermOpts()...)

	if p.Len() != len(values) {
		t.Fatalf("Len() = %d, want %d", p.Len(), len(values))
	}
	for i, v := range values {
		if got := p.Access(i); got != v {
			t.Fatalf("Access(%d) = %d, want %d", i, got, v)
		}
	}
	for i, v := range values {
		if got := p.Inverse(v); got != i {
			t.Fatalf("Inverse(%d) = %d, want %d", v, got, i)
		}
	}
}

func TestPermutationInsertErase(t *testing.T) {
	t.Parallel()

	p := NewPermutation(smallPermOpts()...)

	prng := rand.New(rand.NewPCG(1, 1))
	n := 0
	for step := 0; step < 300; step++ {
		if n == 0 || prng.IntN(3) != 0 {
			i := prng.IntN(n + 1)
			j := prng.IntN(n + 1)
			p.Insert(i, j)
			n++
		} else {
			i := prng.IntN(n)
			p.Erase(i)
			n--
		}

		if p.Len() != n {
			t.Fatalf("step %d: Len() = %d, want %d", step, p.Len(), n)
		}

		// cross-check: every forward position's Access must round-trip
		// through Inverse back to the same position.
		for i := 0; i < n; i++ {
			j := p.Access(i)
			if got := p.Inverse(j); got != i {
				t.Fatalf("step %d: Inverse(Access(%d)=%d) = %d, want %d", step, i, j, got, i)
			}
		}
	}
}

func TestPermutationMovePiIndex(t *testing.T) {
	t.Parallel()

	values := []int{0, 1, 2, 3, 4}
	p := NewPermutationBuilder().Build(values, smallPermOpts()...)

	origJ := p.Access(1) // j paired with forward position 1 (value 1)
	p.MovePiIndex(1, 3)

	if got := p.Access(3); got != origJ {
		t.Fatalf("Access(3) after move = %d, want %d (original pairing preserved)", got, origJ)
	}
	if got := p.Inverse(origJ); got != 3 {
		t.Fatalf("Inverse(%d) after move = %d, want 3", origJ, got)
	}
}

func TestPermutationAccessIDInverseID(t *testing.T) {
	t.Parallel()

	values := []int{2, 0, 1}
	p := NewPermutationBuilder().Build(values, smallPermOpts()...)

	id0 := p.AccessID(0)
	id1 := p.AccessID(1)
	if id0 == id1 {
		t.Fatal("expected distinct logical ids for distinct positions")
	}
	invID0 := p.InverseID(0)
	_ = invID0 // raw id at inverse position 0; just exercising the accessor
}

func TestPermutationClearAndSwap(t *testing.T) {
	t.Parallel()

	a := NewPermutationBuilder().Build([]int{1, 0}, smallPermOpts()...)
	b := NewPermutationBuilder().Build([]int{0, 1, 2}, smallPermOpts()...)

	a.Swap(b)
	if a.Len() != 3 {
		t.Fatalf("a.Len() after Swap = %d, want 3", a.Len())
	}
	if b.Len() != 2 {
		t.Fatalf("b.Len() after Swap = %d, want 2", b.Len())
	}

	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("a.Len() after Clear = %d, want 0", a.Len())
	}
	a.Insert(0, 0)
	if a.Len() != 1 || a.Access(0) != 0 {
		t.Fatal("permutation unusable after Clear")
	}
}
