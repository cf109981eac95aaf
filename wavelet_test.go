// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"math/rand/v2"
	"testing"
)

var testAlphabet = []byte("abcdefgh")

func smallWaveletOpts() []Option {
	return []Option{WithLeafCapacity(8), WithFanout(4)}
}

func randomText(prng *rand.Rand, n int, alphabet []byte) []byte {
	text := make([]byte, n)
	for i := range text {
		text[i] = alphabet[prng.IntN(len(alphabet))]
	}
	return text
}

func TestWaveletAccessRankSelect(t *testing.T) {
	t.Parallel()

	prng := rand.New(rand.NewPCG(1, 1))
	text := randomText(prng, 300, testAlphabet)
	w := BuildWaveletTree(text, testAlphabet, smallWaveletOpts()...)

	if w.Size() != len(text) {
		t.Fatalf("Size() = %d, want %d", w.Size(), len(text))
	}

	for i, c := range text {
		if got := w.Access(i); got != c {
			t.Fatalf("Access(%d) = %q, want %q", i, got, c)
		}
	}

	for _, c := range testAlphabet {
		var occurrences []int
		for i, ch := range text {
			if ch == c {
				if got := w.Rank(i, c); got != len(occurrences) {
					t.Fatalf("Rank(%d,%q) = %d, want %d", i, c, got, len(occurrences))
				}
				occurrences = append(occurrences, i)
			}
		}
		if got := w.Rank(len(text), c); got != len(occurrences) {
			t.Fatalf("Rank(len,%q) = %d, want %d", c, got, len(occurrences))
		}
		for k, pos := range occurrences {
			if got := w.Select(k, c); got != pos {
				t.Fatalf("Select(%d,%q) = %d, want %d", k, c, got, pos)
			}
		}
	}
}

func TestWaveletInsertRemove(t *testing.T) {
	t.Parallel()

	w := NewWaveletTree(testAlphabet, smallWaveletOpts()...)
	var shadow []byte

	prng := rand.New(rand.NewPCG(2, 2))
	for step := 0; step < 500; step++ {
		if len(shadow) == 0 || prng.IntN(2) == 0 {
			i := prng.IntN(len(shadow) + 1)
			c := testAlphabet[prng.IntN(len(testAlphabet))]
			w.Insert(i, c)
			shadow = append(shadow, 0)
			copy(shadow[i+1:], shadow[i:])
			shadow[i] = c
		} else {
			i := prng.IntN(len(shadow))
			want := shadow[i]
			got := w.Remove(i)
			if got != want {
				t.Fatalf("step %d: Remove(%d) = %q, want %q", step, i, got, want)
			}
			shadow = append(shadow[:i], shadow[i+1:]...)
		}

		if w.Size() != len(shadow) {
			t.Fatalf("step %d: Size() = %d, want %d", step, w.Size(), len(shadow))
		}
		for i, want := range shadow {
			if got := w.Access(i); got != want {
				t.Fatalf("step %d: Access(%d) = %q, want %q", step, i, got, want)
			}
		}
	}
}

func TestWaveletPushBackFrontMany(t *testing.T) {
	t.Parallel()

	w := NewWaveletTree(testAlphabet, smallWaveletOpts()...)

	w.PushBack('c')
	w.PushFront('a')
	w.PushMany([]byte("bde"))

	want := []byte("acbde")
	if w.Size() != len(want) {
		t.Fatalf("Size() = %d, want %d", w.Size(), len(want))
	}
	for i, c := range want {
		if got := w.Access(i); got != c {
			t.Fatalf("Access(%d) = %q, want %q", i, got, c)
		}
	}
}

func TestWaveletAlphabetReturnsCopy(t *testing.T) {
	t.Parallel()

	w := NewWaveletTree(testAlphabet, smallWaveletOpts()...)
	got := w.Alphabet()
	got[0] = 'z'
	if w.Alphabet()[0] != testAlphabet[0] {
		t.Fatal("Alphabet() leaked internal slice; mutation should not propagate")
	}
}

func TestWaveletClearRetainsAlphabet(t *testing.T) {
	t.Parallel()

	prng := rand.New(rand.NewPCG(3, 3))
	text := randomText(prng, 50, testAlphabet)
	w := BuildWaveletTree(text, testAlphabet, smallWaveletOpts()...)

	w.Clear()
	if w.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", w.Size())
	}

	w.Insert(0, testAlphabet[0])
	if w.Size() != 1 || w.Access(0) != testAlphabet[0] {
		t.Fatal("wavelet tree unusable after Clear")
	}
}

func TestWaveletUnknownSymbolPanics(t *testing.T) {
	t.Parallel()

	w := NewWaveletTree(testAlphabet, smallWaveletOpts()...)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic inserting unknown symbol")
		}
	}()
	w.Insert(0, 'Z')
}

func TestWaveletSingleSymbolAlphabet(t *testing.T) {
	t.Parallel()

	w := NewWaveletTree([]byte{'x'}, smallWaveletOpts()...)
	w.Insert(0, 'x')
	w.Insert(1, 'x')
	if w.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", w.Size())
	}
	if got := w.Access(0); got != 'x' {
		t.Fatalf("Access(0) = %q, want 'x'", got)
	}
	if got := w.Rank(2, 'x'); got != 2 {
		t.Fatalf("Rank(2,'x') = %d, want 2", got)
	}
}
