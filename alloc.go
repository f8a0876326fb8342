// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hebimath implements an arbitrary-precision signed integer (Z)
// on top of a pluggable, process-wide allocator registry. Callers register
// a Vtable once and get back a compact AllocID that every Z they create
// through that allocator carries in its header.
package hebimath

import (
	"math/bits"
	"unsafe"
)

// AllocFn allocates size bytes aligned to alignment, both measured in
// bytes. alignment is a power of two not smaller than the machine word
// size; size is always a multiple of alignment. arg is the vtable's own
// opaque context pointer, untouched by the registry.
type AllocFn func(arg unsafe.Pointer, alignment, size uintptr) (unsafe.Pointer, error)

// FreeFn releases a region previously returned by the matching AllocFn
// with the same size.
type FreeFn func(arg unsafe.Pointer, p unsafe.Pointer, size uintptr)

// Vtable is the uniform allocate/free interface the registry stores per
// AllocID (spec §3.1, Component A). alloc and free of a given Vtable are a
// matched set: a region allocated by one must only ever be freed by the
// other of that same Vtable.
type Vtable struct {
	Alloc AllocFn
	Free  FreeFn
	Arg   unsafe.Pointer
}

// AllocID is a compact allocator identifier, small enough to be embedded
// in every Z header (spec §3.2). Non-positive values are predefined
// sentinels; positive values are registered ids packing (generation,
// slot+1).
type AllocID int

const (
	// AllocInvalid marks a Z that has never been allocated, or an
	// explicitly revoked allocator.
	AllocInvalid AllocID = 0
	// AllocStdlib is the built-in standard-library allocator (§4.4).
	AllocStdlib AllocID = -1
	// AllocCtx0 and AllocCtx1 redirect to the two context-scoped
	// override slots (§4.2).
	AllocCtx0 AllocID = -2
	AllocCtx1 AllocID = -3
)

// bit layout of registered ids: slotBits low bits hold slot+1, the next
// genBits bits hold the generation. The split is chosen per spec §3.2 to
// match 64- vs 32-bit platforms, computed once from the platform's word
// size the same way cznic-memory derives headerSize/pageAvail/pageMask in
// a package-level var block.
var (
	slotBits = platformSlotBits()
	genBits  = platformGenBits()
	idShift  = slotBits

	slotMask = uint(1)<<slotBits - 1
	genMask  = uint(1)<<genBits - 1
)

func platformSlotBits() uint {
	if bits.UintSize >= 64 {
		return 16
	}
	return 12
}

func platformGenBits() uint {
	if bits.UintSize >= 64 {
		return 15
	}
	return 11
}

func packID(generation, slot uint) AllocID {
	return AllocID((generation << idShift) | (slot + 1))
}

// unpackID extracts the zero-based slot and generation fields from a
// registered (positive) AllocID. ok is false if the slot field is zero,
// which spec §3.2/§4.1 treats as a malformed id.
func unpackID(id AllocID) (slot, generation uint, ok bool) {
	u := uint(id)
	slotField := u & slotMask
	if slotField == 0 {
		return 0, 0, false
	}
	return slotField - 1, (u >> idShift) & genMask, true
}

// stdlibVtable is the predefined AllocStdlib allocator: aligned allocation
// backed by this package's alignedAlloc, which over-allocates and stores
// the raw pointer just before the aligned region when the platform offers
// no native aligned allocator. See align.go for the corrected
// (q+mask)&^mask arithmetic (spec §9 open question).
var stdlibVtable = Vtable{
	Alloc: stdlibAlloc,
	Free:  stdlibFree,
	Arg:   nil,
}

func stdlibAlloc(_ unsafe.Pointer, alignment, size uintptr) (unsafe.Pointer, error) {
	return alignedAlloc(alignment, size)
}

func stdlibFree(_ unsafe.Pointer, p unsafe.Pointer, size uintptr) {
	alignedFree(p, size)
}

// poisonAlloc and poisonFree are installed into free (recycled) registry
// slots. Any stale id that somehow bypasses the generation check still
// raises BADALLOCID instead of silently touching a recycled slot's
// free-list link (spec §9 "free-list threaded through vtable storage").
func poisonAlloc(unsafe.Pointer, uintptr, uintptr) (unsafe.Pointer, error) {
	raise(DomainHebi, EBadAllocID)
	return nil, nil
}

func poisonFree(unsafe.Pointer, unsafe.Pointer, uintptr) {
	raise(DomainHebi, EBadAllocID)
}
