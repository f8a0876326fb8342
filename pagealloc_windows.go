// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

package hebimath

import (
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	osPageSize   = 4096
	mmapPageSize = osPageSize
)

// handleMap recovers the file-mapping handle a view address came from,
// the same bookkeeping cznic-memory's mmap_windows.go keeps, adapted to
// golang.org/x/sys/windows's typed handles and guarded by a mutex since
// PageAllocator's own callers may free concurrently across goroutines
// through distinct Vtable registrations.
var (
	handleMapMu sync.Mutex
	handleMap   = map[uintptr]windows.Handle{}
)

// mmapAnon maps an anonymous, zeroed, read-write region of size bytes
// via CreateFileMapping/MapViewOfFile, adapted from cznic-memory's
// mmap_windows.go to go through golang.org/x/sys/windows.
func mmapAnon(size int) ([]byte, error) {
	maxSizeHigh := uint32(int64(size) >> 32)
	maxSizeLow := uint32(int64(size) & 0xFFFFFFFF)

	h, err := windows.CreateFileMapping(windows.Handle(^uintptr(0)), nil, windows.PAGE_READWRITE, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}

	if addr&uintptr(osPageMask) != 0 {
		panic("hebimath: mmapAnon: misaligned mapping")
	}

	handleMapMu.Lock()
	handleMap[addr] = h
	handleMapMu.Unlock()

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func munmapAnon(addr unsafe.Pointer, size int) error {
	if err := windows.UnmapViewOfFile(uintptr(addr)); err != nil {
		return err
	}

	handleMapMu.Lock()
	h, ok := handleMap[uintptr(addr)]
	if ok {
		delete(handleMap, uintptr(addr))
	}
	handleMapMu.Unlock()
	if !ok {
		panic("hebimath: munmapAnon: unknown base address")
	}

	return os.NewSyscallError("CloseHandle", windows.CloseHandle(h))
}
