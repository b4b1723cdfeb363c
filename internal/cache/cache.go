/*
 * riscvsim - Set-associative cache with LRU or SRRIP replacement.
 *
 * Copyright (c) 2026, riscvsim contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package cache implements a single set-associative cache level shared by
// both replacement policies the hierarchy can select (LRU and SRRIP) behind
// one capability set, per the "polymorphic caches" design note: one struct,
// one victim-selection strategy swapped by Policy, rather than two parallel
// implementations.
package cache

import (
	"math/bits"

	"github.com/rcornwell/riscvsim/internal/memory"
	"github.com/rcornwell/riscvsim/internal/simerr"
)

// Policy selects the victim-selection strategy for a Cache.
type Policy int

const (
	PolicyLRU Policy = iota
	PolicySRRIP
)

func (p Policy) String() string {
	if p == PolicySRRIP {
		return "srrip"
	}
	return "lru"
}

// AddressBits is the simulated physical address width used to split an
// address into tag/index/offset fields.
const AddressBits = 40

// Config describes one cache level's geometry. All sizes are in bytes
// except Associativity and RRPVBits, which are counts.
type Config struct {
	CacheSize     int
	BlockSize     int
	Associativity int
	Policy        Policy
	RRPVBits      int
}

// block is one cache line.
type block struct {
	valid    bool
	tag      int
	data     []int32
	dirty    bool
	lastUsed int64 // LRU metadata
	rrpv     int   // SRRIP metadata
}

// Cache is one level of the memory hierarchy.
type Cache struct {
	cfg        Config
	sets       [][]block
	numSets    int
	offsetBits int
	indexBits  int
	tagBits    int
	wordsPerBlock int
	tick       int64
	maxRRPV    int
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// New validates cfg and constructs an empty cache. Non-power-of-two sizes
// or inconsistent geometry fail with a ConfigError.
func New(cfg Config) (*Cache, error) {
	if !isPow2(cfg.CacheSize) || !isPow2(cfg.BlockSize) || !isPow2(cfg.Associativity) {
		return nil, simerr.Config("cache sizes must be powers of two (size=%d block=%d ways=%d)",
			cfg.CacheSize, cfg.BlockSize, cfg.Associativity)
	}
	if cfg.BlockSize%memory.WordSize != 0 {
		return nil, simerr.Config("block size %d is not a multiple of the word size", cfg.BlockSize)
	}
	numSets := cfg.CacheSize / (cfg.BlockSize * cfg.Associativity)
	if numSets < 1 || !isPow2(numSets) {
		return nil, simerr.Config("cache geometry %+v does not yield a power-of-two set count", cfg)
	}
	wordsPerBlock := cfg.BlockSize / memory.WordSize

	maxRRPV := 3
	if cfg.Policy == PolicySRRIP {
		bitsN := cfg.RRPVBits
		if bitsN <= 0 {
			bitsN = 2
		}
		maxRRPV = (1 << bitsN) - 1
	}

	c := &Cache{
		cfg:           cfg,
		numSets:       numSets,
		offsetBits:    bits.Len(uint(cfg.BlockSize)) - 1,
		indexBits:     bits.Len(uint(numSets)) - 1,
		wordsPerBlock: wordsPerBlock,
		maxRRPV:       maxRRPV,
	}
	c.tagBits = AddressBits - c.indexBits - c.offsetBits
	c.sets = make([][]block, numSets)
	for s := range c.sets {
		c.sets[s] = make([]block, cfg.Associativity)
		for w := range c.sets[s] {
			c.sets[s][w] = block{data: make([]int32, wordsPerBlock), rrpv: maxRRPV}
		}
	}
	return c, nil
}

func (c *Cache) split(addr int) (tag, index, wordOff int) {
	index = (addr / c.cfg.BlockSize) % c.numSets
	tag = addr / (c.cfg.BlockSize * c.numSets)
	wordOff = (addr / memory.WordSize) % c.wordsPerBlock
	return
}

func (c *Cache) baseAddr(tag, index int) int {
	return (tag*c.numSets + index) * c.cfg.BlockSize
}

// Lookup returns the word at addr if a valid block in its set matches the
// tag, refreshing recency metadata. It never mutates data.
func (c *Cache) Lookup(addr int) (int32, bool) {
	tag, index, off := c.split(addr)
	set := c.sets[index]
	for i := range set {
		b := &set[i]
		if b.valid && b.tag == tag {
			c.touch(b)
			return b.data[off], true
		}
	}
	return 0, false
}

func (c *Cache) touch(b *block) {
	c.tick++
	if c.cfg.Policy == PolicySRRIP {
		b.rrpv = 0
	} else {
		b.lastUsed = c.tick
	}
}

// Write updates the word in the matching valid block and marks it dirty.
// It is a silent no-op (write-allocate is the hierarchy's job) if the block
// is not resident.
func (c *Cache) Write(addr int, value int32) {
	tag, index, off := c.split(addr)
	set := c.sets[index]
	for i := range set {
		b := &set[i]
		if b.valid && b.tag == tag {
			b.data[off] = value
			b.dirty = true
			c.touch(b)
			return
		}
	}
}

// Fill loads the block containing addr from src. If the block is already
// resident its data is refreshed and its dirty bit cleared; otherwise an
// invalid way is used, or a victim is evicted per policy. A dirty victim is
// written back word-by-word to src and, if next is non-nil, also written
// into next (keeping a dirty copy one level up).
func (c *Cache) Fill(addr int, src *memory.Memory, next *Cache) error {
	tag, index, _ := c.split(addr)
	set := c.sets[index]
	base := c.baseAddr(tag, index)

	for i := range set {
		b := &set[i]
		if b.valid && b.tag == tag {
			if err := c.loadBlock(b, base, src); err != nil {
				return err
			}
			b.dirty = false
			c.touch(b)
			return nil
		}
	}
	for i := range set {
		b := &set[i]
		if !b.valid {
			b.valid = true
			b.tag = tag
			if err := c.loadBlock(b, base, src); err != nil {
				return err
			}
			b.dirty = false
			c.onInsert(b)
			return nil
		}
	}
	victim := c.selectVictim(index)
	if victim.dirty {
		if err := c.writeBack(victim, index, src, next); err != nil {
			return err
		}
	}
	victim.tag = tag
	victim.valid = true
	if err := c.loadBlock(victim, base, src); err != nil {
		return err
	}
	victim.dirty = false
	c.onInsert(victim)
	return nil
}

func (c *Cache) onInsert(b *block) {
	c.tick++
	if c.cfg.Policy == PolicySRRIP {
		b.rrpv = c.maxRRPV - 1
	} else {
		b.lastUsed = c.tick
	}
}

func (c *Cache) loadBlock(b *block, base int, src *memory.Memory) error {
	for w := 0; w < c.wordsPerBlock; w++ {
		v, err := src.ReadWord(base + w*memory.WordSize)
		if err != nil {
			return err
		}
		b.data[w] = v
	}
	return nil
}

func (c *Cache) writeBack(b *block, index int, dst *memory.Memory, next *Cache) error {
	base := c.baseAddr(b.tag, index)
	for w := 0; w < c.wordsPerBlock; w++ {
		if err := dst.WriteWord(base+w*memory.WordSize, b.data[w]); err != nil {
			return err
		}
		if next != nil {
			if err := next.Fill(base+w*memory.WordSize, dst, nil); err != nil {
				return err
			}
			next.Write(base+w*memory.WordSize, b.data[w])
		}
	}
	return nil
}

func (c *Cache) selectVictim(index int) *block {
	set := c.sets[index]
	if c.cfg.Policy == PolicySRRIP {
		for {
			for i := range set {
				if set[i].rrpv == c.maxRRPV {
					return &set[i]
				}
			}
			for i := range set {
				if set[i].rrpv < c.maxRRPV {
					set[i].rrpv++
				}
			}
		}
	}
	victim := &set[0]
	for i := 1; i < len(set); i++ {
		if set[i].lastUsed < victim.lastUsed {
			victim = &set[i]
		}
	}
	return victim
}

// FlushDirty invokes fn for every valid, dirty block's base address in this
// cache, in deterministic set-index order, then clears its dirty bit; the
// block stays valid. Used by the barrier's L1-D flush.
func (c *Cache) FlushDirty(fn func(baseAddr int, words []int32) error) error {
	for index, set := range c.sets {
		for i := range set {
			b := &set[i]
			if b.valid && b.dirty {
				base := c.baseAddr(b.tag, index)
				if err := fn(base, b.data); err != nil {
					return err
				}
				b.dirty = false
			}
		}
	}
	return nil
}

// Reset invalidates every block, returning the cache to its just-built
// state. Used when a core's L1-D is reinitialized after a barrier flush.
func (c *Cache) Reset() {
	for s := range c.sets {
		for i := range c.sets[s] {
			c.sets[s][i] = block{data: make([]int32, c.wordsPerBlock), rrpv: c.maxRRPV}
		}
	}
}

// NumSets reports the cache's set count.
func (c *Cache) NumSets() int { return c.numSets }
