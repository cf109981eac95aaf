// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dynseq

import "errors"

// Default tuning constants (spec.md 3 "typical 256-1024" / 3 "typical
// 64-256 values" / 4.3 "default 64"). Overridable per-structure via
// Option, the way bart would expose per-table tuning if it had any --
// bart itself hardcodes its stride/fanout as untyped constants
// (strideLen, maxNodeChildren in node.go).
const (
	DefaultBitBlockCapacity = 512 // B_bits
	DefaultValBlockCapacity = 128 // B_vals
	DefaultFanout           = 64  // D
)

// Option configures the tunable capacity/fanout constants of a freshly
// built structure. Options are applied in order at construction time
// only; they cannot be changed on a live structure.
type Option func(*config)

type config struct {
	bitCap int
	valCap int
	fanout int
}

func defaultConfig() config {
	return config{
		bitCap: DefaultBitBlockCapacity,
		valCap: DefaultValBlockCapacity,
		fanout: DefaultFanout,
	}
}

// WithLeafCapacity overrides the leaf block capacity: bits per bit-block
// leaf, or values per VLC-block leaf, depending on which structure it is
// passed to.
func WithLeafCapacity(n int) Option {
	return func(c *config) {
		c.bitCap = n
		c.valCap = n
	}
}

// WithFanout overrides the internal B+-tree node fanout D.
func WithFanout(d int) Option {
	return func(c *config) { c.fanout = d }
}

func applyOptions(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Sentinel errors returned by Save/Load (spec.md 7 "I/O failure",
// "Corrupt serialized input"). Use errors.Is to test for them.
var (
	// ErrTagMismatch is returned when the structure tag byte read from
	// the stream does not match the type being loaded into.
	ErrTagMismatch = errors.New("dynseq: serialized tag mismatch")
	// ErrChecksumMismatch is returned when the trailing aggregate
	// checksum does not match the aggregate recomputed while loading.
	ErrChecksumMismatch = errors.New("dynseq: serialized aggregate checksum mismatch")
	// ErrImpossibleLength is returned when a leaf declares a length that
	// cannot fit in its declared capacity, or a total length that
	// disagrees with the sum of its leaves.
	ErrImpossibleLength = errors.New("dynseq: serialized leaf length is impossible")
	// ErrShortBuffer is returned when the stream ends before all
	// declared fields have been read.
	ErrShortBuffer = errors.New("dynseq: serialized stream is truncated")
)
