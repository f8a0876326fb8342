// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"fmt"
	"os"

	"github.com/d-hoke/hebimath/internal/packet"
)

// Zgetstr formats a into str in the given base (2..64), returning the
// number of bytes the full (untruncated) representation needs — the
// snprintf contract spec §4.3 calls out. It is grounded directly on
// _examples/original_source/src/z/zgetstr.c: the sign is written first
// (honoring StrSign), then a scratch copy of a's packets is destructively
// formatted by internal/packet.Pgetstr. A base outside 2..64 panics with
// an *Error carrying EBadValue; Zgetstr does not recover it.
func Zgetstr(str []byte, a *Z, base int, flags StrFlag) (result int) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Zgetstr(%p, base %d) %d\n", a, base, result)
		}()
	}
	if base < 2 || base > 64 {
		raise(DomainHebi, EBadValue)
	}

	ptr := 0
	end := len(str)
	if end > 0 {
		end--
	}
	rlen := 0
	slen := len(str)

	s := a.sign
	switch {
	case s < 0:
		rlen++
		if ptr < end {
			str[ptr] = '-'
			ptr++
			slen--
		}
	case flags&StrSign != 0:
		rlen++
		if ptr < end {
			str[ptr] = '+'
			ptr++
			slen--
		}
	}

	var w []packet.Packet
	n := 0
	if s != 0 {
		n = a.used
		var done func()
		w, done = packet.Pscratch(n)
		defer done()
		packet.Pcopy(w, a.packs, n)
	}

	var out []byte
	if ptr < len(str) {
		out = str[ptr : ptr+slen]
	}
	result = rlen + packet.Pgetstr(out, w, n, base, flags&StrUpper != 0)
	return result
}

// Zsetstr parses s (an optional leading '+'/'-' sign followed by digits
// in the given base) into r, growing r's packet buffer as needed through
// ctx's resolved allocator. It is a supplemented feature — the original
// C library's zsetstr is declared in the header but not included among
// the retrieved sources — built the same way Zgetstr wraps
// internal/packet's formatter, wrapping internal/packet.Psetstr instead.
func Zsetstr(ctx *Context, r *Z, s string, base int) error {
	return guard(func() { zsetstr(ctx, r, s, base) })
}

func zsetstr(ctx *Context, r *Z, s string, base int) {
	if base < 2 || base > 64 {
		raise(DomainHebi, EBadValue)
	}
	if s == "" {
		raise(DomainHebi, EBadValue)
	}

	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		raise(DomainHebi, EBadValue)
	}

	need := (len(s)*6)/(packet.LimbsPerPacket*64) + 1
	packs := zensure__(ctx, r, need)

	n, ok := packet.Psetstr(packs, s, base)
	if !ok {
		raise(DomainHebi, EBadValue)
	}

	r.used = n
	if n == 0 {
		r.sign = 0
	} else {
		r.sign = sign
	}
}
