// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"sync"
	"unsafe"
)

// wordSize is the size, in bytes, of a stored raw-pointer header; used by
// alignedAlloc's manual over-allocation fallback.
const wordSize = unsafe.Sizeof(uintptr(0))

// alignedAlloc allocates size bytes aligned to alignment by over-allocating
// and storing the raw backing pointer just before the aligned region it
// returns, the same trick cznic-memory's page allocator uses to recover a
// page header from an interior pointer via pageMask masking. size must be
// a multiple of alignment and alignment must be a power of two at least
// wordSize; violating either raises BADVALUE.
//
// spec §9 flags the original hebimath source as computing the aligned
// pointer with "(q + mask) & mask", which (missing the inversion) cannot
// be correct; this implementation uses the corrected "(q + mask) &^ mask".
func alignedAlloc(alignment, size uintptr) (unsafe.Pointer, error) {
	if alignment < wordSize || alignment&(alignment-1) != 0 {
		return nil, &Error{DomainHebi, EBadValue}
	}
	if size%alignment != 0 {
		return nil, &Error{DomainHebi, EBadValue}
	}

	mask := alignment - 1
	raw := make([]byte, size+mask+wordSize)
	if len(raw) == 0 {
		return nil, &Error{DomainHebi, ENoMem}
	}

	q := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (q + wordSize + mask) &^ mask

	*(*uintptr)(unsafe.Pointer(aligned - wordSize)) = q
	alignedAllocs.store(aligned, raw)
	return unsafe.Pointer(aligned), nil
}

// alignedFree releases a region returned by alignedAlloc.
func alignedFree(p unsafe.Pointer, _ uintptr) {
	if p == nil {
		return
	}
	alignedAllocs.release(uintptr(p))
}

// alignedAllocs keeps the Go-heap backing slice for every outstanding
// alignedAlloc region alive. Go's GC does not see the interior pointer
// stashed ahead of the aligned region as a reference to raw, so without
// this table raw could be collected out from under an in-use allocation;
// cznic-memory avoids the issue entirely by backing pages with mmap
// instead of Go-heap memory, which is not an option for the small,
// frequent allocations the stdlib allocator vtable serves.
var alignedAllocs = newPointerTable()

type pointerTable struct {
	mu sync.Mutex
	m  map[uintptr][]byte
}

func newPointerTable() *pointerTable {
	return &pointerTable{m: make(map[uintptr][]byte)}
}

func (t *pointerTable) store(aligned uintptr, raw []byte) {
	t.mu.Lock()
	t.m[aligned] = raw
	t.mu.Unlock()
}

func (t *pointerTable) release(aligned uintptr) {
	t.mu.Lock()
	delete(t.m, aligned)
	t.mu.Unlock()
}
