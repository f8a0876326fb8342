// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import "math/bits"

// digits is the base-64 alphabet used for both Pgetstr and Psetstr,
// covering every base from 2 through 64 (spec §4.3/§6.3: "2 <= base <=
// 64").
const digits = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ+/"

func digitValue(c byte) (int, bool) {
	for i := 0; i < len(digits); i++ {
		if digits[i] == c {
			return i, true
		}
	}
	return 0, false
}

// divmodSmall divides the n-packet number w (most-significant-limb last,
// per Packet/limb layout) by divisor in place and returns the remainder.
// w is mutated; its value afterward is the quotient.
func divmodSmall(w []Packet, n int, divisor uint64) uint64 {
	m := n * LimbsPerPacket
	var rem uint64
	for i := m - 1; i >= 0; i-- {
		lo := limbAt(w, i)
		q, r := bits.Div64(rem, lo, divisor)
		setLimbAt(w, i, q)
		rem = r
	}
	return rem
}

// Pgetstr formats the n-packet scratch buffer w (destroyed in the
// process, per spec §6.3's "destructive base conversion" contract) in
// the given base (2..64) into out, writing at most len-1 digits plus a
// NUL terminator when len > 0, and always returning the number of bytes
// the full (untruncated) representation needs — the classic snprintf
// contract spec §4.3 calls out for Zgetstr.
func Pgetstr(out []byte, w []Packet, n int, base int, upper bool) int {
	if n == 0 {
		return writeStr(out, "0")
	}

	var rev []byte
	b := uint64(base)
	for Pnorm(w, n) > 0 {
		n = Pnorm(w, n)
		rem := divmodSmall(w, n, b)
		rev = append(rev, digitAt(int(rem), upper))
	}

	buf := make([]byte, len(rev))
	for i, c := range rev {
		buf[len(rev)-1-i] = c
	}
	return writeStr(out, string(buf))
}

func digitAt(v int, upper bool) byte {
	c := digits[v]
	if upper && c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}

// writeStr copies s into out (truncating to len(out)-1 bytes plus a NUL
// terminator if out is non-empty) and returns len(s).
func writeStr(out []byte, s string) int {
	if len(out) > 0 {
		n := copy(out[:len(out)-1], s)
		out[n] = 0
	}
	return len(s)
}

// Psetstr parses s (a sequence of digits in the given base, no sign) into
// the packet buffer w, which must have enough packets to hold the
// result; it returns the number of significant packets written. Invalid
// characters for the given base cause ok to be false.
func Psetstr(w []Packet, s string, base int) (n int, ok bool) {
	Pzero(w, len(w))
	used := 0
	b := uint64(base)
	for i := 0; i < len(s); i++ {
		v, valid := digitValue(s[i])
		if !valid || v >= base {
			return 0, false
		}
		carry := uint64(v)
		for j := 0; j < used || carry != 0; j++ {
			if j >= len(w)*LimbsPerPacket {
				return 0, false
			}
			cur := limbAt(w, j)
			hi, lo := bits.Mul64(cur, b)
			lo2, c := bits.Add64(lo, carry, 0)
			carry = hi + c
			setLimbAt(w, j, lo2)
			if j >= used {
				used = j + 1
			}
		}
	}
	return Pnorm(w, len(w)), true
}
