// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

// trace gates verbose per-call debug logging to os.Stderr, the same
// compiled-in-but-off-by-default knob cznic-memory's Allocator uses on
// its own Calloc/Malloc/Realloc/Free. It is false in normal builds;
// flip it in a debugger session, not in committed code.
var trace = false
