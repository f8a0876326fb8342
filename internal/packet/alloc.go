// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import "unsafe"

// AllocFn and FreeFn are the allocator vtable's two callbacks, bound to
// their vtable's own opaque arg by the caller — hebimath.Vtable's Alloc
// and Free take arg explicitly, while Pallocfp/Pfreefp's callers close
// over it once so this package never needs to know about hebimath.Vtable
// (which would otherwise make internal/packet import its own importer).
type AllocFn func(alignment, size uintptr) (unsafe.Pointer, error)
type FreeFn func(p unsafe.Pointer, size uintptr)

var packetSize = unsafe.Sizeof(Packet{})

// Pallocfp allocates n packets through alloc, respecting packet
// alignment (spec §6.3 P.pallocfp).
func Pallocfp(alloc AllocFn, n int) ([]Packet, error) {
	if n == 0 {
		return nil, nil
	}
	p, err := alloc(packetSize, uintptr(n)*packetSize)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*Packet)(p), n), nil
}

// Pfreefp releases a buffer obtained from Pallocfp through the matching
// free callback (spec §6.3 P.pfreefp).
func Pfreefp(free FreeFn, p []Packet) {
	if len(p) == 0 {
		return
	}
	free(unsafe.Pointer(&p[0]), uintptr(cap(p))*packetSize)
}
