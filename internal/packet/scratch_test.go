// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

import "testing"

func TestPscratchSizing(t *testing.T) {
	s, done := Pscratch(4)
	if len(s) != 4 {
		t.Fatalf("Pscratch(4) returned %d packets", len(s))
	}
	s[0][0] = 1
	done()

	s2, done2 := Pscratch(2)
	if len(s2) != 2 {
		t.Fatalf("Pscratch(2) returned %d packets", len(s2))
	}
	done2()
}

func TestPscratchConcurrentBorrowsDisjoint(t *testing.T) {
	s1, done1 := Pscratch(3)
	s2, done2 := Pscratch(3)
	s1[0][0] = 11
	s2[0][0] = 22
	if s1[0][0] != 11 || s2[0][0] != 22 {
		t.Fatal("concurrently live Pscratch borrows clobbered each other")
	}
	done1()
	done2()
}
