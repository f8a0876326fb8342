// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package packet implements the fixed-size-limb arithmetic kernels that
// spec.md treats as an external black-box library "P" (§6.3): packed
// add/subtract, schoolbook and Karatsuba multiply, normalization, a
// base-N formatter/parser, and a scratchpad arena. hebimath's core
// (Z values, the allocator registry) never reaches past this package's
// exported contract into limb-level details, mirroring the spec's
// component boundary even though, unlike the registry or Z, no existing
// Go package in the retrieval pack already plays this role — see
// DESIGN.md for why this package exists instead of an imported one.
package packet

import "math/bits"

// Limb is one machine word of a multi-precision value. Packets use a
// fixed 64-bit limb regardless of host word size, the same way most
// arbitrary-precision libraries decouple their internal digit width from
// GOARCH.
type Limb = uint64

// LimbsPerPacket is the number of limbs per Packet. 4 limbs (256 bits on
// a 64-bit limb) is small enough that tests exercise multi-packet values
// cheaply, large enough that Karatsuba's block-granularity split means
// something.
const LimbsPerPacket = 4

// KaratsubaCutoff is the operand size, in packets, above which
// PmulKaratsuba recurses and below which it (and Zmul) fall through to
// schoolbook Pmul (spec §4.3, §8.2 scenario 4, §GLOSSARY "Karatsuba
// cutoff").
const KaratsubaCutoff = 20

// Packet is the unit of big-integer storage (spec GLOSSARY "Packet"): a
// fixed-size, naturally aligned block of limbs.
type Packet [LimbsPerPacket]Limb

func limbAt(p []Packet, i int) Limb {
	return p[i/LimbsPerPacket][i%LimbsPerPacket]
}

func setLimbAt(p []Packet, i int, v Limb) {
	p[i/LimbsPerPacket][i%LimbsPerPacket] = v
}

// Pzero zeroes the first n packets of p.
func Pzero(p []Packet, n int) {
	var zero Packet
	for i := 0; i < n; i++ {
		p[i] = zero
	}
}

// Pcopy copies the first n packets of src into dst.
func Pcopy(dst, src []Packet, n int) {
	copy(dst[:n], src[:n])
}

// Pnorm returns the index one past the last non-zero packet among the
// first n packets of p — the new significant packet count after an
// operation that may have produced leading (high-order) zero packets.
func Pnorm(p []Packet, n int) int {
	var zero Packet
	for n > 0 && p[n-1] == zero {
		n--
	}
	return n
}

// Padd adds the an-packet sequence a and the bn-packet sequence b
// (an >= bn >= 1) into the an-packet result r and returns the final
// carry out. Grounded directly on
// _examples/original_source/src/p/generic/padd.c's limb-by-limb,
// packet-by-packet carry propagation. r may alias a.
func Padd(r, a, b []Packet, an, bn int) Limb {
	if an < bn || bn <= 0 {
		panic("packet: Padd: require an >= bn > 0")
	}

	m := an * LimbsPerPacket
	n := bn * LimbsPerPacket

	var carry bool
	i := 0
	for {
		ai := limbAt(a, i)
		bi := limbAt(b, i)
		c := Limb(0)
		if carry {
			c = 1
		}
		sum := ai + bi + c
		carry = sum < ai || (sum == ai && carry)
		setLimbAt(r, i, sum)
		i++
		if i >= n {
			break
		}
	}
	for ; i < m; i++ {
		ai := limbAt(a, i)
		c := Limb(0)
		if carry {
			c = 1
		}
		sum := ai + c
		carry = sum < ai
		setLimbAt(r, i, sum)
	}
	if carry {
		return 1
	}
	return 0
}

// Psub subtracts the bn-packet sequence b from the an-packet sequence a
// (an >= bn >= 1, and a's value must be >= b's) into the an-packet result
// r and returns the final borrow out. It is Padd's sibling, exported for
// the same class of advanced caller spec §6.2 calls out ("padd and
// siblings"); Zsub builds on it the same way Zmul builds on Pmul.
func Psub(r, a, b []Packet, an, bn int) Limb {
	if an < bn || bn <= 0 {
		panic("packet: Psub: require an >= bn > 0")
	}

	m := an * LimbsPerPacket
	n := bn * LimbsPerPacket

	var borrow bool
	i := 0
	for {
		ai := limbAt(a, i)
		bi := limbAt(b, i)
		c := Limb(0)
		if borrow {
			c = 1
		}
		diff := ai - bi - c
		borrow = ai < bi || (ai == bi && borrow)
		setLimbAt(r, i, diff)
		i++
		if i >= n {
			break
		}
	}
	for ; i < m; i++ {
		ai := limbAt(a, i)
		c := Limb(0)
		if borrow {
			c = 1
		}
		diff := ai - c
		borrow = ai < c
		setLimbAt(r, i, diff)
	}
	if borrow {
		return 1
	}
	return 0
}

// Pmul is the schoolbook O(an*bn) multiply: r must have an+bn packets of
// pre-zeroed space, an >= bn >= 1.
func Pmul(r, a, b []Packet, an, bn int) {
	am := an * LimbsPerPacket
	bm := bn * LimbsPerPacket

	for i := 0; i < bm; i++ {
		bi := limbAt(b, i)
		if bi == 0 {
			continue
		}
		var carry Limb
		for j := 0; j < am; j++ {
			hi, lo := bits.Mul64(limbAt(a, j), bi)
			lo, c1 := bits.Add64(lo, limbAt(r, i+j), 0)
			lo, c2 := bits.Add64(lo, carry, 0)
			carry = hi + c1 + c2
			setLimbAt(r, i+j, lo)
		}
		for k := i + am; carry != 0; k++ {
			sum, c := bits.Add64(limbAt(r, k), carry, 0)
			setLimbAt(r, k, sum)
			carry = c
		}
	}
}
