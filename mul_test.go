// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

import (
	"math/big"
	"strings"
	"testing"
)

func checkMul(t *testing.T, as, bs string) {
	t.Helper()
	ctx := NewContext()
	a := newTestZ(t, ctx, as, 10)
	b := newTestZ(t, ctx, bs, 10)
	r := new(Z)
	Zinit(r, AllocStdlib)

	if err := Zmul(ctx, r, a, b); err != nil {
		t.Fatal(err)
	}

	abig, _ := new(big.Int).SetString(as, 10)
	bbig, _ := new(big.Int).SetString(bs, 10)
	want := new(big.Int).Mul(abig, bbig)

	if got := zstr(t, r, 10); got != want.String() {
		t.Fatalf("Zmul(%s, %s) = %s, want %s", as, bs, got, want.String())
	}
}

func TestZmulSchoolbook(t *testing.T) {
	for _, c := range [][2]string{
		{"0", "123456789"},
		{"1", "-1"},
		{"-7", "-6"},
		{"123456789012345", "987654321098765"},
		{"-999999999999999999999999999999", "2"},
	} {
		checkMul(t, c[0], c[1])
	}
}

// TestZmulKaratsuba drives both operands well past
// internal/packet.KaratsubaCutoff (20 packets = 80 64-bit limbs = 5120
// bits, so a value needs at least 1542 decimal digits to span more than
// 20 packets; repeating a digit pattern is the simplest way to get there).
func TestZmulKaratsuba(t *testing.T) {
	a := strings.Repeat("123456789", 200)  // ~1800 digits
	b := strings.Repeat("987654321", 180)  // ~1620 digits
	checkMul(t, a, b)
	checkMul(t, "-"+a, b)
}

func TestZmulAliasing(t *testing.T) {
	ctx := NewContext()
	a := newTestZ(t, ctx, "123456789", 10)
	b := newTestZ(t, ctx, "987654321", 10)

	want := new(big.Int)
	want.SetString("123456789", 10)
	bbig := new(big.Int)
	bbig.SetString("987654321", 10)
	want.Mul(want, bbig)

	if err := Zmul(ctx, a, a, b); err != nil {
		t.Fatal(err)
	}
	if got := zstr(t, a, 10); got != want.String() {
		t.Fatalf("Zmul(a, a, b) = %s, want %s", got, want.String())
	}

	a2 := newTestZ(t, ctx, "123456789", 10)
	if err := Zmul(ctx, b, a2, b); err != nil {
		t.Fatal(err)
	}
	if got := zstr(t, b, 10); got != want.String() {
		t.Fatalf("Zmul(b, a, b) = %s, want %s", got, want.String())
	}
}

func TestZmulZeroOperand(t *testing.T) {
	ctx := NewContext()
	a := newTestZ(t, ctx, "0", 10)
	b := newTestZ(t, ctx, "123456789012345678901234567890", 10)
	r := new(Z)
	Zinit(r, AllocStdlib)
	if err := Zmul(ctx, r, a, b); err != nil {
		t.Fatal(err)
	}
	if zstr(t, r, 10) != "0" {
		t.Fatalf("Zmul(0, b) = %s, want 0", zstr(t, r, 10))
	}
}
