// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hebimath

// CacheMaxSize is the lookup cache's slot count, a power of two (spec
// §3.4). CacheMaxUsed is the soft threshold above which the cache is
// cleared wholesale before the next insert.
const (
	CacheMaxSize = 64
	CacheMaxUsed = 48
)

// Context stands in for spec.md's "thread-local context" (itself called
// out as an external collaborator in spec §1/§4.2, not part of the core):
// Go has no portable thread-local storage, and faking one with a
// goroutine-id lookup is exactly the kind of hand-rolled trick this
// module avoids. Instead, a Context is an explicit, caller-owned value —
// one per goroutine, the same way a math/rand.Rand or a bufio.Reader is
// one-per-goroutine rather than global — that carries the two
// context-scoped allocator override slots (§4.2) plus a private,
// unsynchronized lookup cache (§3.4) that accelerates repeated AllocQuery
// calls made through it. A nil Context is valid to pass anywhere a
// Context is accepted except where CTX0/CTX1 resolution is required: it
// simply disables caching and override resolution.
type Context struct {
	overrides [2]AllocID

	cacheKeys   [CacheMaxSize]AllocID
	cacheValues [CacheMaxSize]*Vtable
	cacheUsed   uint
}

// NewContext allocates a fresh Context with no bound overrides and an
// empty cache.
func NewContext() *Context {
	return &Context{}
}

// Bind sets the CTX0 (slot 0) or CTX1 (slot 1) override to id. Passing
// AllocInvalid clears the override back to "use the standard allocator".
func (c *Context) Bind(slot int, id AllocID) {
	if slot != 0 && slot != 1 {
		panic("hebimath: Context.Bind: slot must be 0 or 1")
	}
	c.overrides[slot] = id
}

// override resolves the AllocCtx0/AllocCtx1 sentinel to the id currently
// bound in that slot. A zero override means "use the standard allocator"
// (AllocInvalid, which Registry.query maps to AllocStdlib); a negative
// override is itself an error.
func (c *Context) override(sentinel AllocID) AllocID {
	switch sentinel {
	case AllocCtx0:
		return c.overrides[0]
	case AllocCtx1:
		return c.overrides[1]
	default:
		return sentinel
	}
}

func cacheHash(slot uint) uint {
	return ((slot * 23131) + (slot >> 5)) & (CacheMaxSize - 1)
}

// lookup probes the cache for key, starting at its hash slot and stopping
// at the first empty slot (key 0 can never be a real AllocID since slot
// fields are +1-biased). No lock: caches are private to their Context.
func (c *Context) lookup(key AllocID) (*Vtable, bool) {
	slot, _, ok := unpackID(key)
	if !ok {
		return nil, false
	}
	for i := cacheHash(slot); c.cacheKeys[i] != 0; i = (i + 1) & (CacheMaxSize - 1) {
		if c.cacheKeys[i] == key {
			return c.cacheValues[i], true
		}
	}
	return nil, false
}

// insert records (key, vtable) in the cache, clearing it wholesale first
// if it has grown past CacheMaxUsed (spec §3.4/§4.1).
func (c *Context) insert(key AllocID, vtable *Vtable) {
	slot, _, ok := unpackID(key)
	if !ok {
		return
	}

	if c.cacheUsed >= CacheMaxUsed {
		c.cacheKeys = [CacheMaxSize]AllocID{}
		c.cacheUsed = 0
	}

	i := cacheHash(slot)
	for c.cacheKeys[i] != 0 {
		i = (i + 1) & (CacheMaxSize - 1)
	}
	c.cacheKeys[i] = key
	c.cacheValues[i] = vtable
	c.cacheUsed++
}
