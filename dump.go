// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable leaf-by-leaf diagram of v to w, useful
// during development and debugging (spec.md 10.5).
func (v *DynamicBitVector) Dump(w io.Writer) error {
	for i, lf := range v.tree.Leaves() {
		bl := lf.(*bitLeaf)
		if _, err := fmt.Fprintf(w, "leaf[%d] len=%d popcount=%d\n", i, bl.b.Len(), bl.b.Popcount()); err != nil {
			return err
		}
	}
	return nil
}

// String renders Dump as a string; panics if Dump would return an error.
func (v *DynamicBitVector) String() string {
	w := new(strings.Builder)
	if err := v.Dump(w); err != nil {
		panic(err)
	}
	return w.String()
}

// MarshalJSON encodes the bit sequence as a JSON array of 0/1 ints, in
// order (order matters, so an array rather than a map).
func (v *DynamicBitVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToVector())
}

// Dump writes a human-readable leaf-by-leaf diagram of v to w.
func (v *DynamicIntVector) Dump(w io.Writer) error {
	for i, lf := range v.tree.Leaves() {
		il := lf.(*intLeaf)
		if _, err := fmt.Fprintf(w, "leaf[%d] len=%d width=%d sum=%d\n", i, il.b.Len(), il.b.Width(), il.b.Sum()); err != nil {
			return err
		}
	}
	return nil
}

// String renders Dump as a string; panics if Dump would return an error.
func (v *DynamicIntVector) String() string {
	w := new(strings.Builder)
	if err := v.Dump(w); err != nil {
		panic(err)
	}
	return w.String()
}

// MarshalJSON encodes the sequence as a JSON array of values, in order.
func (v *DynamicIntVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToVector())
}

// Dump writes a pre-order tree diagram of w's internal bit sequences to
// dst.
func (w *DynamicWaveletTree) Dump(dst io.Writer) error {
	if _, err := fmt.Fprintf(dst, "alphabet(#%d): %q\n", len(w.alphabet), w.alphabet); err != nil {
		return err
	}
	var visit func(n *waveletNode, depth int) error
	visit = func(n *waveletNode, depth int) error {
		if n == nil {
			return nil
		}
		if _, err := fmt.Fprintf(dst, "%sdepth=%d size=%d\n", strings.Repeat(".", depth), depth, n.bits.Size()); err != nil {
			return err
		}
		if err := visit(n.left, depth+1); err != nil {
			return err
		}
		return visit(n.right, depth+1)
	}
	return visit(w.root, 0)
}

// String renders Dump as a string; panics if Dump would return an error.
func (w *DynamicWaveletTree) String() string {
	b := new(strings.Builder)
	if err := w.Dump(b); err != nil {
		panic(err)
	}
	return b.String()
}

// MarshalJSON encodes the wavelet tree's text as a JSON string, in
// order. Marshaled as a string rather than a byte array since
// encoding/json would otherwise base64-encode a []byte.
func (w *DynamicWaveletTree) MarshalJSON() ([]byte, error) {
	text := make([]byte, w.Size())
	for i := range text {
		text[i] = w.Access(i)
	}
	return json.Marshal(string(text))
}

// Dump writes πFwd and πInv, leaf by leaf, to w.
func (p *DynamicPermutation) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "len=%d\nfwd:\n", p.Len()); err != nil {
		return err
	}
	if err := p.fwd.Dump(w); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "inv:\n"); err != nil {
		return err
	}
	return p.inv.Dump(w)
}

// String renders Dump as a string; panics if Dump would return an error.
func (p *DynamicPermutation) String() string {
	w := new(strings.Builder)
	if err := p.Dump(w); err != nil {
		panic(err)
	}
	return w.String()
}

// MarshalJSON encodes the permutation as a JSON array where index i
// holds Access(i), in order.
func (p *DynamicPermutation) MarshalJSON() ([]byte, error) {
	out := make([]int, p.Len())
	for i := range out {
		out[i] = p.Access(i)
	}
	return json.Marshal(out)
}
