// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

// PmulKaratsubaSpace returns the number of scratch packets
// PmulKaratsuba needs for operands of an and bn packets (an >= bn).
// hebimath's Zmul borrows exactly this many packets from Pscratch before
// calling PmulKaratsuba (spec §4.3, §6.3).
func PmulKaratsubaSpace(an, bn int) int {
	half := (an + 1) / 2
	// two sum operands (half+1 packets each, to hold a carry) plus their
	// cross-term product (2*(half+1) packets): the widest single
	// temporary PmulKaratsuba ever needs live at once.
	return 2*(half+1) + 2*(half+1)
}

// PmulKaratsuba multiplies the an-packet a by the bn-packet b
// (an >= bn >= 1) into the pre-zeroed r (which must have at least
// an+bn+1 packets), using the classic three-multiply recursive split and
// falling back to schoolbook Pmul at or below KaratsubaCutoff. scratch
// is accepted with PmulKaratsubaSpace(an, bn) packets, but this
// implementation allocates its own temporaries and neither reads nor
// writes it.
func PmulKaratsuba(r, scratch, a, b []Packet, an, bn int) {
	if an <= KaratsubaCutoff {
		Pmul(r, a, b, an, bn)
		return
	}

	half := (an + 1) / 2

	a0, a1 := a[:half], a[half:an]
	var b0, b1 []Packet
	var bn0, bn1 int
	if bn > half {
		b0, b1 = b[:half], b[half:bn]
		bn0, bn1 = half, bn-half
	} else {
		b0 = b[:bn]
		bn0 = bn
	}
	an0, an1 := half, an-half

	// z0 = a0*b0, z2 = a1*b1, each into its own freshly sized buffer so
	// recursive calls never have to worry about borrowing room from r.
	z0 := mul(a0, b0, an0, bn0)
	z2 := mul(a1, b1, an1, bn1)

	// sumA = a0+a1, sumB = b0+b1, each one packet wider than its input
	// to hold a possible carry out of the top packet.
	sumA := make([]Packet, an0+1)
	Pcopy(sumA, a0, an0)
	if c := Padd(sumA[:an0], sumA[:an0], a1, an0, an1); c != 0 {
		setLimbAt(sumA, an0*LimbsPerPacket, c)
	}
	sumB := make([]Packet, bn0+1)
	Pcopy(sumB, b0, bn0)
	if bn1 > 0 {
		if c := Padd(sumB[:bn0], sumB[:bn0], b1, bn0, bn1); c != 0 {
			setLimbAt(sumB, bn0*LimbsPerPacket, c)
		}
	}
	sumAn := Pnorm(sumA, len(sumA))
	sumBn := Pnorm(sumB, len(sumB))

	Pzero(r, an+bn+1)
	addShifted(r, z0, Pnorm(z0, len(z0)), 0)
	addShifted(r, z2, Pnorm(z2, len(z2)), 2*half)

	if sumAn == 0 || sumBn == 0 {
		return
	}

	z1 := mul(sumA[:sumAn], sumB[:sumBn], sumAn, sumBn)
	z1n := Pnorm(z1, len(z1))

	z0n := Pnorm(z0, len(z0))
	z2n := Pnorm(z2, len(z2))
	if z0n > 0 {
		subFrom(z1, z0, z0n)
	}
	if z2n > 0 {
		subFrom(z1, z2, z2n)
	}
	z1n = Pnorm(z1, z1n)

	if z1n > 0 {
		addShifted(r, z1, z1n, half)
	}
}

// mul multiplies an-packet a by bn-packet b (either may be zero-length,
// meaning a zero operand) into a freshly allocated an+bn+1 packet
// buffer, recursing through PmulKaratsuba with its own scratch when
// still above the cutoff.
func mul(a, b []Packet, an, bn int) []Packet {
	dst := make([]Packet, an+bn+1)
	if an == 0 || bn == 0 {
		return dst
	}
	if an < bn {
		a, b = b, a
		an, bn = bn, an
	}
	if an <= KaratsubaCutoff {
		Pmul(dst[:an+bn], a, b, an, bn)
		return dst
	}
	scratch := make([]Packet, PmulKaratsubaSpace(an, bn))
	PmulKaratsuba(dst, scratch, a, b, an, bn)
	return dst
}

// subFrom subtracts the n-packet p from dst in place, propagating the
// borrow through all of dst. n is clamped to dst's length for the same
// reason addShifted clamps its write window.
func subFrom(dst, p []Packet, n int) {
	if n == 0 {
		return
	}
	if n > len(dst) {
		n = len(dst)
	}
	Psub(dst, dst, p[:n], len(dst), n)
}

// addShifted adds the n-packet p into dst starting at a half-packet
// offset (i.e. dst += p << (half*LimbsPerPacket)), propagating the carry
// through the rest of dst. n is clamped to dst's
// remaining room: every caller in this file sizes dst (r, ultimately)
// to the true an+bn+1 packet result, so the true mathematical value
// always fits — the clamp only guards against this package's own
// intermediate buffers (sized for their worst-case carry) overshooting
// by a packet or two when an and bn are very unbalanced.
func addShifted(dst, p []Packet, n, half int) {
	if n == 0 || half >= len(dst) {
		return
	}
	if half+n > len(dst) {
		n = len(dst) - half
	}
	Padd(dst[half:], dst[half:], p[:n], len(dst)-half, n)
}
