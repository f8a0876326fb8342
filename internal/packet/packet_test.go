// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import (
	"math/big"
	"math/rand"
	"testing"
)

func toBig(p []Packet, n int) *big.Int {
	r := new(big.Int)
	for i := n*LimbsPerPacket - 1; i >= 0; i-- {
		r.Lsh(r, 64)
		r.Or(r, new(big.Int).SetUint64(limbAt(p, i)))
	}
	return r
}

func fromBig(v *big.Int, n int) []Packet {
	p := make([]Packet, n)
	v = new(big.Int).Set(v)
	mask := new(big.Int).SetUint64(^uint64(0))
	for i := 0; i < n*LimbsPerPacket; i++ {
		limb := new(big.Int).And(v, mask)
		setLimbAt(p, i, limb.Uint64())
		v.Rsh(v, 64)
	}
	return p
}

func randomBig(rng *rand.Rand, limbs int) *big.Int {
	r := new(big.Int)
	for i := 0; i < limbs; i++ {
		r.Lsh(r, 64)
		r.Or(r, new(big.Int).SetUint64(rng.Uint64()))
	}
	return r
}

func TestPnorm(t *testing.T) {
	var p [3]Packet
	p[0][0] = 1
	if got := Pnorm(p[:], 3); got != 1 {
		t.Fatalf("Pnorm = %d, want 1", got)
	}
	if got := Pnorm(p[:], 0); got != 0 {
		t.Fatalf("Pnorm(n=0) = %d, want 0", got)
	}
}

func TestPaddAgainstBig(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		an := 1 + rng.Intn(6)
		bn := 1 + rng.Intn(an)
		a := randomBig(rng, an*LimbsPerPacket)
		b := randomBig(rng, bn*LimbsPerPacket)

		pa := fromBig(a, an)
		pb := fromBig(b, bn)
		r := make([]Packet, an)
		carry := Padd(r, pa, pb, an, bn)

		want := new(big.Int).Add(a, b)
		max := new(big.Int).Lsh(big.NewInt(1), uint(an*LimbsPerPacket*64))
		wantCarry := uint64(0)
		if want.Cmp(max) >= 0 {
			wantCarry = 1
			want.Sub(want, max)
		}
		if toBig(r, an).Cmp(want) != 0 || Limb(wantCarry) != carry {
			t.Fatalf("Padd(%v, %v) = %v carry %v, want %v carry %v", a, b, toBig(r, an), carry, want, wantCarry)
		}
	}
}

func TestPsubAgainstBig(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 200; trial++ {
		an := 1 + rng.Intn(6)
		a := randomBig(rng, an*LimbsPerPacket)
		b := new(big.Int).Rsh(a, uint(rng.Intn(64))) // b <= a
		bn := an
		if b.Sign() == 0 {
			bn = 1
		}

		pa := fromBig(a, an)
		pb := fromBig(b, an)
		r := make([]Packet, an)
		borrow := Psub(r, pa, pb, an, bn)

		want := new(big.Int).Sub(a, b)
		if borrow != 0 {
			t.Fatalf("unexpected borrow subtracting smaller from larger")
		}
		if toBig(r, an).Cmp(want) != 0 {
			t.Fatalf("Psub(%v, %v) = %v, want %v", a, b, toBig(r, an), want)
		}
	}
}

func TestPmulAgainstBig(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 100; trial++ {
		an := 1 + rng.Intn(5)
		bn := 1 + rng.Intn(an)
		a := randomBig(rng, an*LimbsPerPacket)
		b := randomBig(rng, bn*LimbsPerPacket)

		pa := fromBig(a, an)
		pb := fromBig(b, bn)
		r := make([]Packet, an+bn)
		Pmul(r, pa, pb, an, bn)

		want := new(big.Int).Mul(a, b)
		if toBig(r, an+bn).Cmp(want) != 0 {
			t.Fatalf("Pmul(%v, %v) = %v, want %v", a, b, toBig(r, an+bn), want)
		}
	}
}

func TestPcopyPzero(t *testing.T) {
	var src [2]Packet
	src[0][0] = 7
	src[1][3] = 9
	var dst [2]Packet
	Pcopy(dst[:], src[:], 2)
	if dst != src {
		t.Fatal("Pcopy did not copy packets")
	}
	Pzero(dst[:], 2)
	var zero [2]Packet
	if dst != zero {
		t.Fatal("Pzero left non-zero packets")
	}
}
