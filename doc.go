// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package dynseq provides dynamic succinct sequence structures: a
// logarithmic-time bit vector, prefix-sum integer vector, wavelet tree,
// and permutation, all built on one shared aggregating B+-tree engine.
//
// dynseq offers four exported types:
//
//   - DynamicBitVector:  popcount-aggregated B+-tree of packed bit blocks
//   - DynamicIntVector:  sum-aggregated B+-tree of variable-length-coded blocks
//   - DynamicWaveletTree: a binary tree of DynamicBitVectors, one per symbol-bit
//   - DynamicPermutation: two coupled DynamicIntVectors with back-references
//
// Every type supports access, insert, remove, rank, select (or search),
// and bulk construction from a slice, plus a shared binary serialization
// format (Save/Load). These operations are O(log n), except that
// DynamicPermutation's Insert, Erase and MovePiIndex also shift every
// recorded position and so cost O(n).
//
// The container is single-owner, in-memory, and single-threaded: callers
// must arrange their own exclusive access around any mutating call.
package dynseq
