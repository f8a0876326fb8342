// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import "sync"

// arena is a growable scratchpad with stack-like lifetime: the next
// Pscratch call may invalidate the region a previous one returned (spec
// §6.3 "P.pscratch(n): borrow a scratchpad of n packets from a
// thread-local arena; next call may invalidate the region"). Since Go
// offers no portable thread-local storage, arenas are drawn from a
// sync.Pool rather than keyed by goroutine. The allocator lookup cache
// is handled differently: it lives in an explicit, caller-owned
// hebimath.Context — see SPEC_FULL.md §6.
type arena struct {
	buf []Packet
}

func (a *arena) get(n int) []Packet {
	if cap(a.buf) < n {
		a.buf = make([]Packet, n, n+n/2+1)
	}
	return a.buf[:n]
}

var arenaPool = sync.Pool{New: func() any { return new(arena) }}

// Pscratch borrows a scratchpad of n packets from a pooled arena. The
// returned slice is only valid until the next Pscratch call on an arena
// drawn from the same pool slot (in practice: until Done is called and
// the arena is returned to the pool and possibly handed to another
// goroutine).
func Pscratch(n int) (scratch []Packet, done func()) {
	a := arenaPool.Get().(*arena)
	return a.get(n), func() { arenaPool.Put(a) }
}
