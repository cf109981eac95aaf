// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"math/rand/v2"
	"testing"
)

func smallBitOpts() []Option {
	return []Option{WithLeafCapacity(8), WithFanout(4)}
}

func TestBitVectorInsertRemoveAccess(t *testing.T) {
	t.Parallel()

	v := NewBitVector(smallBitOpts()...)
	var shadow []int

	prng := rand.New(rand.NewPCG(1, 1))
	for step := 0; step < 800; step++ {
		if len(shadow) == 0 || prng.IntN(2) == 0 {
			i := prng.IntN(len(shadow) + 1)
			b := prng.IntN(2)
			v.Insert(i, b)
			shadow = append(shadow, 0)
			copy(shadow[i+1:], shadow[i:])
			shadow[i] = b
		} else {
			i := prng.IntN(len(shadow))
			want := shadow[i]
			got := v.Remove(i)
			if got != want {
				t.Fatalf("step %d: Remove(%d) = %d, want %d", step, i, got, want)
			}
			shadow = append(shadow[:i], shadow[i+1:]...)
		}

		if v.Size() != len(shadow) {
			t.Fatalf("step %d: Size() = %d, want %d", step, v.Size(), len(shadow))
		}
		for i, want := range shadow {
			if got := v.Access(i); got != want {
				t.Fatalf("step %d: Access(%d) = %d, want %d", step, i, got, want)
			}
		}
	}
}

func TestBitVectorRankSelect(t *testing.T) {
	t.Parallel()

	prng := rand.New(rand.NewPCG(2, 2))
	var bits []bool
	for i := 0; i < 400; i++ {
		bits = append(bits, prng.IntN(2) == 1)
	}
	v := BuildBitVector(bits, smallBitOpts()...)

	var ones, zeros []int
	rank1, rank0 := make([]int, len(bits)+1), make([]int, len(bits)+1)
	for i, b := range bits {
		if b {
			ones = append(ones, i)
		} else {
			zeros = append(zeros, i)
		}
		rank1[i+1] = rank1[i]
		rank0[i+1] = rank0[i]
		if b {
			rank1[i+1]++
		} else {
			rank0[i+1]++
		}
	}

	for i := 0; i <= len(bits); i++ {
		if got := v.Rank1(i); got != rank1[i] {
			t.Fatalf("Rank1(%d) = %d, want %d", i, got, rank1[i])
		}
		if got := v.Rank0(i); got != rank0[i] {
			t.Fatalf("Rank0(%d) = %d, want %d", i, got, rank0[i])
		}
	}

	for k, pos := range ones {
		if got := v.Select1(k); got != pos {
			t.Fatalf("Select1(%d) = %d, want %d", k, got, pos)
		}
	}
	if got := v.Select1(len(ones)); got != v.Size() {
		t.Fatalf("Select1 overflow = %d, want Size() %d", got, v.Size())
	}
	for k, pos := range zeros {
		if got := v.Select0(k); got != pos {
			t.Fatalf("Select0(%d) = %d, want %d", k, got, pos)
		}
	}

	if got := v.CountC(1); got != len(ones) {
		t.Fatalf("CountC(1) = %d, want %d", got, len(ones))
	}
	if got := v.CountC(0); got != len(zeros) {
		t.Fatalf("CountC(0) = %d, want %d", got, len(zeros))
	}
}

func TestBitVectorPushFrontBackMany(t *testing.T) {
	t.Parallel()

	v := NewBitVector(smallBitOpts()...)
	v.PushBack(1)
	v.PushBack(0)
	v.PushFront(1)
	v.PushMany([]bool{false, true, true})

	want := []int{1, 1, 0, 0, 1, 1}
	got := v.ToVector()
	if len(got) != len(want) {
		t.Fatalf("ToVector() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ToVector()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBitVectorClearAndSwap(t *testing.T) {
	t.Parallel()

	a := NewBitVector(smallBitOpts()...)
	a.PushMany([]bool{true, false, true})
	b := NewBitVector(smallBitOpts()...)
	b.PushMany([]bool{false, false})

	a.Swap(b)
	if a.Size() != 2 {
		t.Fatalf("a.Size() after Swap = %d, want 2", a.Size())
	}
	if b.Size() != 3 {
		t.Fatalf("b.Size() after Swap = %d, want 3", b.Size())
	}

	a.Clear()
	if a.Size() != 0 {
		t.Fatalf("a.Size() after Clear = %d, want 0", a.Size())
	}
	a.PushBack(1)
	if a.Size() != 1 || a.Access(0) != 1 {
		t.Fatal("bit vector unusable after Clear")
	}
}

func TestBuildBitVectorEmpty(t *testing.T) {
	t.Parallel()

	v := BuildBitVector(nil, smallBitOpts()...)
	if v.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", v.Size())
	}
}
