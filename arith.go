// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import "github.com/d-hoke/hebimath/internal/packet"

// Zadd sets r = a+b. It is a supplemented feature (spec §6.2 exports
// padd and its siblings directly "for advanced callers" but does not
// itself define a signed Z-level wrapper); its magnitude-compare-then-
// add-or-subtract structure follows the same shape hebi_zmul.c uses for
// its own sign bookkeeping.
func Zadd(ctx *Context, r, a, b *Z) error {
	return guard(func() { zaddsub(ctx, r, a, b, 1) })
}

// Zsub sets r = a-b, reusing zaddsub with b's effective sign flipped.
func Zsub(ctx *Context, r, a, b *Z) error {
	return guard(func() { zaddsub(ctx, r, a, b, -1) })
}

func zaddsub(ctx *Context, r, a, b *Z, bsign int) {
	bs := b.sign * bsign

	if a.sign == 0 {
		zcopyscaled(ctx, r, b, bsign)
		return
	}
	if bs == 0 {
		zcopyscaled(ctx, r, a, 1)
		return
	}

	if a.sign == bs {
		// Padd requires an >= bn; addition is commutative so it's safe
		// to swap operands to satisfy that, unlike the Psub branch below
		// where a must stay the larger-magnitude operand.
		if a.used < b.used {
			a, b = b, a
		}
		zmagop(ctx, r, a, b, packet.Padd, a.sign, true)
		return
	}

	switch zmagcmp(a, b) {
	case 0:
		Zsetzero(r)
	case 1:
		zmagop(ctx, r, a, b, packet.Psub, a.sign, false)
	default:
		zmagop(ctx, r, b, a, packet.Psub, bs, false)
	}
}

// zcopyscaled sets r to sign*v.
func zcopyscaled(ctx *Context, r, v *Z, sign int) {
	if v.sign == 0 {
		Zsetzero(r)
		return
	}
	if r == v {
		r.sign = v.sign * sign
		return
	}
	rp := zgrow__(ctx, r, v.used)
	packet.Pcopy(rp, v.packs, v.used)
	r.used = v.used
	r.sign = v.sign * sign
}

// zmagop computes the magnitude of op(a,b) (a must be the larger or
// equal magnitude operand for Psub) into r and assigns resultSign,
// growing r by one extra packet when grow is true to make room for a
// possible carry out of Padd's top packet.
func zmagop(ctx *Context, r, a, b *Z, op func(r, a, b []packet.Packet, an, bn int) packet.Limb, resultSign int, grow bool) {
	an, bn := a.used, b.used
	n := an
	if grow {
		n = an + 1
	}

	rz := r
	var tmp Z
	if rz == a || rz == b {
		Zinit(&tmp, Zallocator(r))
		rz = &tmp
	}

	rp := zgrow__(ctx, rz, n)
	packet.Pzero(rp, n)
	carry := op(rp[:an], a.packs, b.packs, an, bn)
	if grow && carry != 0 {
		setTopLimb(rp, an, carry)
	}

	rz.used = packet.Pnorm(rp, n)
	rz.sign = resultSign

	if rz != r {
		Zswap(rz, r)
		zdestroy(ctx, rz)
	}
}

func setTopLimb(p []packet.Packet, packetIndex int, v packet.Limb) {
	p[packetIndex][0] = v
}

// zmagcmp compares |a| and |b|, returning -1, 0, or 1.
func zmagcmp(a, b *Z) int {
	if a.used != b.used {
		if a.used < b.used {
			return -1
		}
		return 1
	}
	for i := a.used - 1; i >= 0; i-- {
		ap, bp := a.packs[i], b.packs[i]
		if ap != bp {
			for j := packet.LimbsPerPacket - 1; j >= 0; j-- {
				if ap[j] != bp[j] {
					if ap[j] < bp[j] {
						return -1
					}
					return 1
				}
			}
		}
	}
	return 0
}
