// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

// StrFlag controls Zgetstr's formatting (spec §4.3, §6.2).
type StrFlag uint

const (
	// StrSign forces a leading '+' on non-negative values, matching
	// HEBI_STR_SIGN in _examples/original_source/src/z/zgetstr.c.
	StrSign StrFlag = 1 << iota
	// StrUpper selects uppercase digits for bases that have them
	// (supplemented: the original C zgetstr only ever lowercases,
	// internal/packet.Pgetstr's upper bool gives this for free).
	StrUpper
)
