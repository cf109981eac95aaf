// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package arena provides a type-safe free-list node pool, so insert/remove
// storms on the B+-tree don't churn the garbage collector (spec.md 5
// "Memory policy").
//
// Grounded on gaissmai/bart's pool.go/multipool.go, which wrap a
// sync.Pool per node type with allocation/live-count statistics. bart is
// concurrency-safe and so needs sync.Pool; this module is single-owner
// and single-threaded (spec.md 5), so the pool is a plain slice-backed
// free-list stack instead -- same Get/Put/Stats shape, no locking.
package arena

// Pool recycles *T values of a single size class.
type Pool[T any] struct {
	free []*T
	new  func() *T
	// totalAllocated and currentLive mirror bart's pool.go diagnostic
	// counters, useful for sizing the pool and for tests.
	totalAllocated int64
	currentLive    int64
}

// New returns a pool that constructs fresh values with newFn when empty.
func New[T any](newFn func() *T) *Pool[T] {
	return &Pool[T]{new: newFn}
}

// Get returns a recycled value, or a freshly constructed one if the free
// list is empty. If p is nil, Get returns nil.
func (p *Pool[T]) Get() *T {
	if p == nil {
		return nil
	}
	p.currentLive++
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free = p.free[:n-1]
		return v
	}
	p.totalAllocated++
	return p.new()
}

// Put returns v to the pool for reuse. reset is called on v first so no
// stale references or capacity are leaked into the next Get. If p is
// nil, v is discarded.
func (p *Pool[T]) Put(v *T, reset func(*T)) {
	if p == nil || v == nil {
		return
	}
	p.currentLive--
	if reset != nil {
		reset(v)
	}
	p.free = append(p.free, v)
}

// Drain discards the entire free list without walking it element by
// element -- the fast path for Clear() (spec.md 5 "Deallocation on clear
// returns all nodes to the free list without walking the tree if
// possible").
func (p *Pool[T]) Drain() {
	if p == nil {
		return
	}
	p.free = p.free[:0]
}

// Stats returns the number of currently live (checked-out) values and
// the total number ever constructed by this pool.
func (p *Pool[T]) Stats() (live int64, total int64) {
	if p == nil {
		return 0, 0
	}
	return p.currentLive, p.totalAllocated
}
