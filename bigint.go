// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"unsafe"

	"github.com/d-hoke/hebimath/internal/packet"
)

// Z is an arbitrary-precision signed integer (spec §3.5, Component C).
// Its zero value represents the integer 0: packs is nil, reserved and
// used are 0, sign is 0, and allocid is AllocInvalid. Such a value can be
// read (formatted, used as an operand), but it cannot be grown until
// Zinit binds an allocator: a grow resolving AllocInvalid raises
// EBadAllocID.
type Z struct {
	packs    []packet.Packet
	reserved int
	used     int
	sign     int
	allocid  AllocID
}

// Zinit initializes z as the value 0, remembering id (one of
// AllocStdlib, AllocCtx0, AllocCtx1, or a registered id) as the
// allocator the first grow should resolve. No storage is allocated yet —
// the same lazy-until-needed posture cznic-memory's Allocator takes with
// its own size-class pages.
func Zinit(z *Z, id AllocID) {
	*z = Z{allocid: id}
}

// Zallocator reports the allocator id z is currently bound to (spec
// §4.3 allocator). Before the first grow this is whatever id Zinit was
// given; afterward it is the concrete, resolved id the registry handed
// back.
func Zallocator(z *Z) AllocID {
	return z.allocid
}

// Zdestroy frees z's packet buffer (if any) through the allocator it was
// last grown with and resets z to the zero value, mirroring
// _examples/original_source/src/z/zdestroy.c.
func Zdestroy(ctx *Context, z *Z) error {
	return guard(func() { zdestroy(ctx, z) })
}

func zdestroy(ctx *Context, z *Z) {
	if z.packs != nil {
		_, vtable := mustQuery(ctx, z.allocid)
		packet.Pfreefp(freeFnOf(vtable), z.packs)
	}
	z.packs = nil
	z.reserved = 0
	z.used = 0
	z.sign = 0
	z.allocid = AllocInvalid
}

// Zsetzero sets z to the value 0 without releasing its packet buffer or
// disturbing its allocator binding, so a subsequent grow can reuse the
// existing allocation.
func Zsetzero(z *Z) {
	z.used = 0
	z.sign = 0
}

// Zswap exchanges z and w's entire headers (packets, capacity, length,
// sign, allocator id) in place. Zmul uses it internally to protect
// against result aliasing; it is exported for the same class of
// advanced caller spec §6.2 calls out for padd's siblings.
func Zswap(z, w *Z) {
	*z, *w = *w, *z
}

// zgrow__ replaces z's packet buffer with a freshly allocated n-packet
// one, whatever z.reserved is, discarding the previous contents, and
// returns the new buffer. Grounded
// directly on _examples/original_source/src/z/zexpand.c's
// hebi_zexpand__ — the no-copy variant used when the caller is about to
// overwrite every packet anyway (e.g. Zmul's result operand).
func zgrow__(ctx *Context, z *Z, n int) []packet.Packet {
	return zgrowcopyif__(ctx, z, n, false)
}

// zgrowcopy__ grows z's packet buffer to n packets, preserving the first
// z.used packets. Grounded on hebi_zexpandcopy__.
func zgrowcopy__(ctx *Context, z *Z, n int) []packet.Packet {
	return zgrowcopyif__(ctx, z, n, true)
}

// zgrowcopyif__ grows z's packet buffer to n packets, copying the
// existing z.used packets only if c is true. Grounded on
// hebi_zexpandcopyif__, the common implementation the other two
// zgrow variants in the original delegate to.
func zgrowcopyif__(ctx *Context, z *Z, n int, c bool) []packet.Packet {
	oldp := z.packs

	id, vtable := mustQuery(ctx, z.allocid)
	p, err := packet.Pallocfp(allocFnOf(vtable), n)
	if err != nil {
		raise(DomainHebi, ENoMem)
	}

	if c && z.used > 0 {
		packet.Pcopy(p, oldp, z.used)
	}
	if oldp != nil {
		packet.Pfreefp(freeFnOf(vtable), oldp)
	}

	z.packs = p
	z.reserved = n
	z.allocid = id
	return p
}

// zensure__ grows z, preserving its used packets, only if its current
// capacity is below n. Most Z operations call this rather than
// zgrowcopy__ directly, since most operations extend rather than replace
// an existing value.
func zensure__(ctx *Context, z *Z, n int) []packet.Packet {
	if z.reserved >= n {
		return z.packs
	}
	return zgrowcopy__(ctx, z, n)
}

func mustQuery(ctx *Context, id AllocID) (AllocID, *Vtable) {
	resolved, vtable, err := AllocQuery(ctx, id)
	if err != nil {
		if e, ok := err.(*Error); ok {
			raise(e.Domain, e.Code)
		}
		raise(DomainHebi, EBadAllocID)
	}
	return resolved, vtable
}

// allocFnOf and freeFnOf adapt a hebimath.Vtable's arg-taking callbacks
// to internal/packet's arg-free AllocFn/FreeFn shape, closing over the
// vtable's own Arg once so internal/packet never needs to know about
// hebimath.Vtable (which would otherwise create an import cycle, since
// Vtable lives in this package).
func allocFnOf(v *Vtable) packet.AllocFn {
	return func(alignment, size uintptr) (unsafe.Pointer, error) {
		return v.Alloc(v.Arg, alignment, size)
	}
}

func freeFnOf(v *Vtable) packet.FreeFn {
	return func(p unsafe.Pointer, size uintptr) {
		v.Free(v.Arg, p, size)
	}
}
