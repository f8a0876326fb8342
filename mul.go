// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"fmt"
	"os"

	"github.com/d-hoke/hebimath/internal/packet"
)

// Zmul sets r = a*b. It is grounded directly on
// _examples/original_source/src/z/zmul.c, including its aliasing
// protection (a temporary Z is used when r aliases a or b), its an/bn
// swap so the larger operand leads, and its Karatsuba-vs-schoolbook
// dispatch on packet.KaratsubaCutoff.
func Zmul(ctx *Context, r, a, b *Z) (err error) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "Zmul(%p, %p, %p) %v\n", r, a, b, err)
		}()
	}
	return guard(func() { zmul(ctx, r, a, b) })
}

func zmul(ctx *Context, r, a, b *Z) {
	if a.sign == 0 || b.sign == 0 {
		Zsetzero(r)
		return
	}

	an, bn := a.used, b.used
	ap, bp := a.packs, b.packs
	as, bs := a.sign, b.sign
	if an < bn {
		an, bn = bn, an
		ap, bp = bp, ap
		as, bs = bs, as
	}

	rn := an + bn + 1
	if rn <= an {
		raise(DomainHebi, EBadLength)
	}

	rz := r
	var tmp Z
	if rz == a || rz == b {
		Zinit(&tmp, Zallocator(r))
		rz = &tmp
	}

	var rp []packet.Packet
	if an > packet.KaratsubaCutoff {
		scratch, done := packet.Pscratch(packet.PmulKaratsubaSpace(an, bn))
		defer done()
		rp = zgrow__(ctx, rz, rn)
		packet.Pzero(rp, rn)
		packet.PmulKaratsuba(rp, scratch, ap, bp, an, bn)
	} else {
		rn--
		rp = zgrow__(ctx, rz, rn)
		packet.Pzero(rp, rn)
		packet.Pmul(rp, ap, bp, an, bn)
	}

	rz.used = packet.Pnorm(rp, rn)
	if as^bs < 0 {
		rz.sign = -1
	} else {
		rz.sign = 1
	}

	if rz != r {
		Zswap(rz, r)
		zdestroy(ctx, rz)
	}
}
