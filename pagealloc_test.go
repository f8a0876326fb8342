// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"bytes"
	"math"
	"testing"
	"unsafe"

	"github.com/cznic/mathutil"
)

const quota = 128 << 20

var (
	pageTestMax    = 2 * osPageSize
	pageTestBigMax = 2 * mmapPageSize
)

func pageAllocTest1(t *testing.T, max int) {
	var alloc PageAllocator
	rem := quota
	var a [][]byte
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		t.Fatal(err)
	}

	rng.Seed(42)
	pos := rng.Pos()
	for rem > 0 {
		size := rng.Next()%max + 1
		rem -= size
		b, err := alloc.Malloc(size)
		if err != nil {
			t.Fatal(err)
		}

		a = append(a, b)
		for i := range b {
			b[i] = byte(rng.Next())
		}
	}
	t.Logf("allocs %v, mmaps %v, bytes %v, overhead %v (%.2f%%).", alloc.allocs, alloc.mmaps, alloc.bytes, alloc.bytes-quota, 100*float64(alloc.bytes-quota)/quota)
	rng.Seek(pos)
	for i, b := range a {
		if g, e := len(b), rng.Next()%max+1; g != e {
			t.Fatal(i, g, e)
		}
		for i, g := range b {
			if e := byte(rng.Next()); g != e {
				t.Fatalf("%v %p: %#02x %#02x", i, &b[i], g, e)
			}

			b[i] = 0
		}
	}
	for i := range a {
		j := rng.Next() % len(a)
		a[i], a[j] = a[j], a[i]
	}
	for _, b := range a {
		if err := alloc.Free(b); err != nil {
			t.Fatal(err)
		}
	}
	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		t.Fatalf("%+v", alloc)
	}
}

func TestPageAllocatorSmall(t *testing.T) { pageAllocTest1(t, pageTestMax) }
func TestPageAllocatorBig(t *testing.T)   { pageAllocTest1(t, pageTestBigMax) }

func TestPageAllocatorRandom(t *testing.T) {
	var alloc PageAllocator
	rem := quota
	m := map[*[]byte][]byte{}
	rng, err := mathutil.NewFC32(1, pageTestMax, true)
	if err != nil {
		t.Fatal(err)
	}

	for rem > 0 {
		switch rng.Next() % 3 {
		case 0, 1: // 2/3 allocate
			size := rng.Next()
			rem -= size
			b, err := alloc.Malloc(size)
			if err != nil {
				t.Fatal(err)
			}

			m[&b] = append([]byte(nil), b...)
		default: // 1/3 free
			for k := range m {
				b := *k
				for i := range b {
					b[i] = 0
				}
				rem += len(b)
				alloc.Free(b)
				delete(m, k)
				break
			}
		}
	}
	for k, v := range m {
		b := *k
		if !bytes.Equal(b, v) {
			t.Fatal("corrupted heap")
		}

		for i := range b {
			b[i] = 0
		}
		alloc.Free(b)
	}
	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		t.Fatalf("%+v", alloc)
	}
}

func TestPageAllocatorFreeEmpty(t *testing.T) {
	var alloc PageAllocator
	b, err := alloc.Malloc(1)
	if err != nil {
		t.Fatal(err)
	}

	if err := alloc.Free(b[:0]); err != nil {
		t.Fatal(err)
	}

	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		t.Fatalf("%+v", alloc)
	}
}

func TestPageAllocatorLargeSlot(t *testing.T) {
	var alloc PageAllocator
	b, err := alloc.Malloc(maxSlotSize)
	if err != nil {
		t.Fatal(err)
	}

	p := (*page)(unsafe.Pointer(uintptr(unsafe.Pointer(&b[0])) &^ uintptr(osPageMask)))
	if 1<<p.log > maxSlotSize {
		t.Fatal(1<<p.log, maxSlotSize)
	}

	if err := alloc.Free(b[:0]); err != nil {
		t.Fatal(err)
	}

	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		t.Fatalf("%+v", alloc)
	}
}

// TestPageAllocatorVtable exercises a PageAllocator through the Vtable
// interface: register it, resolve its id through Query, allocate and free
// one region through the returned Vtable, and check that the allocator
// holds nothing afterward.
func TestPageAllocatorVtable(t *testing.T) {
	reg := NewRegistry()
	alloc := NewPageAllocator()
	defer alloc.Close()

	id, err := reg.Add(alloc.Vtable())
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Remove(id)

	_, vtable, err := reg.Query(nil, id)
	if err != nil {
		t.Fatal(err)
	}

	p, err := vtable.Alloc(vtable.Arg, 16, 64)
	if err != nil {
		t.Fatal(err)
	}
	vtable.Free(vtable.Arg, p, 64)

	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		t.Fatalf("%+v", alloc)
	}
}

func benchmarkPageAllocatorFree(b *testing.B, size int) {
	var alloc PageAllocator
	m := make(map[*[]byte]struct{}, b.N)
	for i := 0; i < b.N; i++ {
		p, err := alloc.Malloc(size)
		if err != nil {
			b.Fatal(err)
		}

		m[&p] = struct{}{}
	}
	b.ResetTimer()
	for k := range m {
		alloc.Free(*k)
	}
	b.StopTimer()
	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		b.Fatalf("%+v", alloc)
	}
}

func BenchmarkPageAllocatorFree16(b *testing.B) { benchmarkPageAllocatorFree(b, 1<<4) }
func BenchmarkPageAllocatorFree32(b *testing.B) { benchmarkPageAllocatorFree(b, 1<<5) }
func BenchmarkPageAllocatorFree64(b *testing.B) { benchmarkPageAllocatorFree(b, 1<<6) }

func benchmarkPageAllocatorMalloc(b *testing.B, size int) {
	var alloc PageAllocator
	m := make(map[*[]byte]struct{}, b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := alloc.Malloc(size)
		if err != nil {
			b.Fatal(err)
		}

		m[&p] = struct{}{}
	}
	b.StopTimer()
	for k := range m {
		alloc.Free(*k)
	}
	if alloc.allocs != 0 || alloc.mmaps != 0 || alloc.bytes != 0 {
		b.Fatalf("%+v", alloc)
	}
}

func BenchmarkPageAllocatorMalloc16(b *testing.B) { benchmarkPageAllocatorMalloc(b, 1<<4) }
func BenchmarkPageAllocatorMalloc32(b *testing.B) { benchmarkPageAllocatorMalloc(b, 1<<5) }
func BenchmarkPageAllocatorMalloc64(b *testing.B) { benchmarkPageAllocatorMalloc(b, 1<<6) }
