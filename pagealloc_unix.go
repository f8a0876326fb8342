// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

// Modifications (c) 2017 The Memory Authors.

package hebimath

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	osPageSize   = unix.Getpagesize()
	mmapPageSize = osPageSize
)

// mmapAnon maps an anonymous, zeroed, read-write region of size bytes,
// adapted from cznic-memory's mmap_unix.go to go through
// golang.org/x/sys/unix instead of the raw syscall package.
func mmapAnon(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}

	if uintptr(unsafe.Pointer(&b[0]))&uintptr(osPageMask) != 0 {
		panic("hebimath: mmapAnon: misaligned mapping")
	}

	return b, nil
}

func munmapAnon(addr unsafe.Pointer, size int) error {
	return unix.Munmap(unsafe.Slice((*byte)(addr), size))
}
