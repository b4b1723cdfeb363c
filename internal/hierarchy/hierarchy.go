/*
 * riscvsim - Per-core memory hierarchy: L1-I, L1-D, shared L2, scratchpad.
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

// Package hierarchy composes one core's private L1-I/L1-D and scratchpad
// with the simulator's shared L2 and main memory, and turns each pipeline
// memory access into a (value, stall cycles) pair.
//
// Ownership follows the simulator/core split in the design notes: a
// Hierarchy borrows its L2 and Memory pointers from the Simulator and owns
// only its L1s and scratchpad outright.
package hierarchy

import (
	"github.com/rcornwell/riscvsim/internal/cache"
	"github.com/rcornwell/riscvsim/internal/memory"
	"github.com/rcornwell/riscvsim/internal/scratchpad"
)

// Latencies are the configurable per-access stall costs.
type Latencies struct {
	L1Hit       int
	L1Miss      int
	L2Hit       int
	L2Miss      int
	Mem         int
	Scratchpad  int
}

// DefaultLatencies match the spec's defaults.
func DefaultLatencies() Latencies {
	return Latencies{L1Hit: 1, L1Miss: 3, L2Hit: 4, L2Miss: 6, Mem: 10, Scratchpad: 1}
}

// Hierarchy is one core's view of the memory system.
type Hierarchy struct {
	CoreID int

	L1I *cache.Cache
	L1D *cache.Cache
	SPM *scratchpad.Scratchpad

	L2  *cache.Cache       // shared, borrowed from the simulator
	Mem *memory.Memory     // shared, borrowed from the simulator

	Lat Latencies
}

// ReadInstr serves an instruction fetch through L1-I -> L2 -> memory.
func (h *Hierarchy) ReadInstr(addr int) (int32, int, error) {
	return h.read(h.L1I, addr)
}

// ReadData serves a data load through L1-D -> L2 -> memory.
func (h *Hierarchy) ReadData(addr int) (int32, int, error) {
	return h.read(h.L1D, addr)
}

func (h *Hierarchy) read(l1 *cache.Cache, addr int) (int32, int, error) {
	stall := 0
	if v, hit := l1.Lookup(addr); hit {
		return v, h.Lat.L1Hit, nil
	}
	stall += h.Lat.L1Miss

	if _, hit := h.L2.Lookup(addr); hit {
		stall += h.Lat.L2Hit
		if err := l1.Fill(addr, h.Mem, h.L2); err != nil {
			return 0, stall, err
		}
		v, _ := l1.Lookup(addr)
		return v, stall, nil
	}
	stall += h.Lat.L2Miss + h.Lat.Mem
	if err := h.L2.Fill(addr, h.Mem, nil); err != nil {
		return 0, stall, err
	}
	if err := l1.Fill(addr, h.Mem, h.L2); err != nil {
		return 0, stall, err
	}
	v, _ := l1.Lookup(addr)
	return v, stall, nil
}

// WriteData performs a write-allocate, write-back store to L1-D, keeping
// L2 inclusive of the same address so its hit/miss accounting and eventual
// eviction stay consistent with the dirty copy in L1-D.
func (h *Hierarchy) WriteData(addr int, value int32) (int, error) {
	stall := 0
	if _, hit := h.L1D.Lookup(addr); !hit {
		stall += h.Lat.L1Miss
		if err := h.L1D.Fill(addr, h.Mem, h.L2); err != nil {
			return stall, err
		}
	}
	h.L1D.Write(addr, value)
	stall += h.Lat.L1Hit

	if _, hit := h.L2.Lookup(addr); !hit {
		stall += h.Lat.L2Miss
		if err := h.L2.Fill(addr, h.Mem, nil); err != nil {
			return stall, err
		}
	}
	h.L2.Write(addr, value)
	stall += h.Lat.L2Hit
	return stall, nil
}

// ReadScratchpad reads from this core's scratchpad unconditionally; the
// address is normalized modulo the scratchpad's size by the scratchpad
// itself.
func (h *Hierarchy) ReadScratchpad(addr int) (int32, int) {
	return h.SPM.Read(addr), h.Lat.Scratchpad
}

// WriteScratchpad writes to this core's scratchpad unconditionally.
func (h *Hierarchy) WriteScratchpad(addr int, value int32) int {
	h.SPM.Write(addr, value)
	return h.Lat.Scratchpad
}

// FlushL1DirtyToL2 iterates every valid, dirty block in this core's L1-D,
// write-allocates it into L2 if missing, writes each word, clears dirty,
// and finally reinitializes L1-D to empty. Returns the nominal barrier
// cost (l1_hit + l2_hit), matching the per-word hit accounting of a normal
// store.
func (h *Hierarchy) FlushL1DirtyToL2() (int, error) {
	stall := h.Lat.L1Hit + h.Lat.L2Hit
	err := h.L1D.FlushDirty(func(base int, words []int32) error {
		for w, v := range words {
			addr := base + w*memory.WordSize
			if _, hit := h.L2.Lookup(addr); !hit {
				if err := h.L2.Fill(addr, h.Mem, nil); err != nil {
					return err
				}
			}
			h.L2.Write(addr, v)
		}
		return nil
	})
	if err != nil {
		return stall, err
	}
	h.L1D.Reset()
	return stall, nil
}
