// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"unsafe"

	"github.com/cznic/mathutil"

	"github.com/d-hoke/hebimath/internal/packet"
)

// PageAllocator is a size-classed slab allocator backed by page-sized
// (or larger) mmap regions: one of two AllocIDs a program can register
// without writing its own Vtable (the other being the built-in
// AllocStdlib). It is adapted from cznic-memory's Allocator — same
// size-class free lists, same "shared page" bump allocation, same
// large-allocation-gets-its-own-mapping path — retargeted to back
// hebimath's Vtable interface instead of standing alone, to source its
// pages through golang.org/x/sys instead of raw syscall numbers, and to
// size-class in units of a whole packet.Packet rather than an arbitrary
// byte granularity, since a packet buffer (allocated and freed as a
// single aligned unit by internal/packet.Pallocfp/Pfreefp) is what this
// allocator is actually asked to serve through its Vtable.
//
// The zero value is ready to use. A PageAllocator must not be copied
// after first use.
type PageAllocator struct {
	allocs int // # of allocs.
	bytes  int // Asked from OS.
	cap    [64]int
	lists  [64]*node
	mmaps  int // Asked from OS.
	pages  [64]*page
	regs   map[*page]struct{}
}

// pageMallocAlign is the slab's base size-class granularity: one
// packet.Packet, rather than the teacher's fixed 16-byte minimum. Every
// slot is therefore already packet-aligned, which is the only alignment
// Vtable's Alloc is ever actually asked to honor (see Vtable below).
var pageMallocAlign = int(unsafe.Sizeof(packet.Packet{}))

var (
	headerSize  = roundup(int(unsafe.Sizeof(page{})), pageMallocAlign)
	maxSlotSize = pageAvail >> 1
	osPageMask  = osPageSize - 1
	pageAvail   = mmapPageSize - headerSize
	pageMask    = mmapPageSize - 1
)

// roundup computes n rounded up to the next multiple of m. m must be a
// power of 2.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }

type node struct {
	prev, next *node
}

type page struct {
	brk  int
	log  uint
	size int
	used int
}

// NewPageAllocator returns a ready-to-use PageAllocator. Equivalent to
// the zero value; provided for symmetry with NewRegistry/NewContext.
func NewPageAllocator() *PageAllocator { return &PageAllocator{} }

// Vtable wraps a into a hebimath.Vtable suitable for AllocAdd, so a's
// pages can back Z values the same way the built-in stdlib allocator
// does. The Arg field is unused; a is captured by the closures directly.
// alignment is honored, not ignored: every slot a is capable of handing
// out is already aligned to pageMallocAlign (one packet.Packet), so a
// request for anything coarser than that is rejected rather than
// silently handed back a misaligned address.
func (a *PageAllocator) Vtable() Vtable {
	return Vtable{
		Alloc: func(_ unsafe.Pointer, alignment, size uintptr) (unsafe.Pointer, error) {
			if alignment > uintptr(pageMallocAlign) {
				return nil, &Error{DomainHebi, EBadValue}
			}
			return a.UnsafeMalloc(int(size))
		},
		Free: func(_ unsafe.Pointer, p unsafe.Pointer, size uintptr) {
			if err := a.UnsafeFree(p, size); err != nil {
				raise(DomainErrno, ENoMem)
			}
		},
	}
}

func (a *PageAllocator) mmap(size int) (*page, error) {
	b, err := mmapAnon(size)
	if err != nil {
		return nil, err
	}

	a.mmaps++
	a.bytes += len(b)
	p := (*page)(unsafe.Pointer(&b[0]))
	if a.regs == nil {
		a.regs = map[*page]struct{}{}
	}
	p.size = len(b)
	a.regs[p] = struct{}{}
	return p, nil
}

func (a *PageAllocator) newPage(size int) (*page, error) {
	size += headerSize
	p, err := a.mmap(size)
	if err != nil {
		return nil, err
	}

	p.log = 0
	return p, nil
}

func (a *PageAllocator) newSharedPage(log uint) (*page, error) {
	if a.cap[log] == 0 {
		a.cap[log] = pageAvail / (1 << log)
	}
	size := headerSize + a.cap[log]<<log
	p, err := a.mmap(size)
	if err != nil {
		return nil, err
	}

	a.pages[log] = p
	p.log = log
	return p, nil
}

func (a *PageAllocator) unmap(p *page) error {
	delete(a.regs, p)
	a.mmaps--
	return munmapAnon(unsafe.Pointer(p), p.size)
}

// Calloc is like Malloc except the allocated memory is zeroed.
func (a *PageAllocator) Calloc(size int) (r []byte, err error) {
	b, err := a.Malloc(size)
	if err != nil {
		return nil, err
	}

	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// Close releases all OS resources used by a and sets it to its zero
// value. It is not necessary to Close a PageAllocator used only through
// a Vtable registered for the lifetime of the process.
func (a *PageAllocator) Close() (err error) {
	for p := range a.regs {
		if e := a.unmap(p); e != nil && err == nil {
			err = e
		}
	}
	*a = PageAllocator{}
	return err
}

// Free deallocates memory obtained from Calloc, Malloc or Realloc. It
// recovers the block from cap(b) (Realloc may have shrunk b's length
// without releasing the rest of its slot) and delegates to freeAt, the
// same path UnsafeFree uses.
func (a *PageAllocator) Free(b []byte) error {
	b = b[:cap(b)]
	if len(b) == 0 {
		return nil
	}
	return a.freeAt(unsafe.Pointer(&b[0]))
}

func (a *PageAllocator) unlinkFreeNodes(p *page, log uint) {
	for i := 0; i < p.brk; i++ {
		n := (*node)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + uintptr(headerSize+i<<log)))
		switch {
		case n.prev == nil:
			a.lists[log] = n.next
			if n.next != nil {
				n.next.prev = nil
			}
		case n.next == nil:
			n.prev.next = nil
		default:
			n.prev.next = n.next
			n.next.prev = n.prev
		}
	}
}

// unsafeMalloc is the single allocation path Malloc and UnsafeMalloc both
// delegate to. capacity is the slot's true usable size: size itself for a
// dedicated large mapping, or 1<<log for a shared-page or free-list slot
// — matching UsableSize.
func (a *PageAllocator) unsafeMalloc(size int) (p unsafe.Pointer, capacity int, err error) {
	a.allocs++
	log := uint(mathutil.BitLen(roundup(size, pageMallocAlign) - 1))
	if 1<<log > maxSlotSize {
		pg, err := a.newPage(size)
		if err != nil {
			return nil, 0, err
		}
		return unsafe.Pointer(uintptr(unsafe.Pointer(pg)) + uintptr(headerSize)), size, nil
	}

	if a.lists[log] == nil && a.pages[log] == nil {
		if _, err := a.newSharedPage(log); err != nil {
			return nil, 0, err
		}
	}

	if pg := a.pages[log]; pg != nil {
		pg.used++
		pg.brk++
		if pg.brk == a.cap[log] {
			a.pages[log] = nil
		}
		return unsafe.Pointer(uintptr(unsafe.Pointer(pg)) + uintptr(headerSize+(pg.brk-1)<<log)), 1 << log, nil
	}

	n := a.lists[log]
	pg := (*page)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) &^ uintptr(pageMask)))
	a.lists[log] = n.next
	if n.next != nil {
		n.next.prev = nil
	}
	pg.used++
	return unsafe.Pointer(n), 1 << log, nil
}

// Malloc allocates size bytes and returns a byte slice of the allocated
// memory. The memory is not initialized. Malloc panics for size < 0 and
// returns (nil, nil) for zero size.
func (a *PageAllocator) Malloc(size int) (r []byte, err error) {
	if size < 0 {
		panic("hebimath: PageAllocator.Malloc: invalid size")
	}
	if size == 0 {
		return nil, nil
	}

	p, capacity, err := a.unsafeMalloc(size)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(p), capacity)[:size:capacity], nil
}

// Realloc changes the size of the backing array of b to size bytes. The
// contents are unchanged up to the minimum of the old and new sizes.
func (a *PageAllocator) Realloc(b []byte, size int) (r []byte, err error) {
	switch {
	case cap(b) == 0:
		return a.Malloc(size)
	case size == 0 && cap(b) != 0:
		return nil, a.Free(b)
	case size <= cap(b):
		return b[:size], nil
	}

	if r, err = a.Malloc(size); err != nil {
		return nil, err
	}

	copy(r, b)
	return r, a.Free(b)
}

// UnsafeMalloc is like Malloc except it returns an unsafe.Pointer,
// matching hebimath.AllocFn's shape; Vtable wires this (and UnsafeFree)
// in directly.
func (a *PageAllocator) UnsafeMalloc(size int) (r unsafe.Pointer, err error) {
	if size < 0 {
		panic("hebimath: PageAllocator.UnsafeMalloc: invalid size")
	}
	if size == 0 {
		return nil, nil
	}

	p, _, err := a.unsafeMalloc(size)
	return p, err
}

// freeAt is the single deallocation path Free and UnsafeFree both
// delegate to, recovering the owning page from p via pageMask exactly as
// unsafeMalloc's shared-page and free-list bookkeeping expects.
func (a *PageAllocator) freeAt(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}

	a.allocs--
	pg := (*page)(unsafe.Pointer(uintptr(p) &^ uintptr(pageMask)))
	log := pg.log
	if log == 0 {
		a.bytes -= pg.size
		return a.unmap(pg)
	}

	n := (*node)(p)
	n.prev = nil
	n.next = a.lists[log]
	if n.next != nil {
		n.next.prev = n
	}
	a.lists[log] = n
	pg.used--
	if pg.used != 0 {
		return nil
	}

	a.unlinkFreeNodes(pg, log)
	if a.pages[log] == pg {
		a.pages[log] = nil
	}
	a.bytes -= pg.size
	return a.unmap(pg)
}

// UnsafeFree is like Free except its argument is an unsafe.Pointer
// previously returned by UnsafeMalloc. size must match the size that was
// requested, matching hebimath.FreeFn's contract.
func (a *PageAllocator) UnsafeFree(p unsafe.Pointer, size uintptr) error {
	return a.freeAt(p)
}

// UsableSize reports the size of the memory block allocated at p, which
// must point to the first byte of a block returned from Calloc, Malloc,
// Realloc or UnsafeMalloc.
func UsableSize(p *byte) int {
	if p == nil {
		return 0
	}

	pg := (*page)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) &^ uintptr(pageMask)))
	if pg.log != 0 {
		return 1 << pg.log
	}

	return pg.size - headerSize
}
