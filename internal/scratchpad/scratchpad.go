/*
 * riscvsim - Per-core scratchpad memory.
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

// Package scratchpad implements the software-managed, single-cycle,
// per-core memory that sits outside the cache coherence domain.
package scratchpad

import "github.com/rcornwell/riscvsim/internal/memory"

// Scratchpad is a flat per-core word array with wraparound addressing.
type Scratchpad struct {
	words []int32
}

// New allocates a scratchpad of the given size in words.
func New(sizeWords int) *Scratchpad {
	if sizeWords <= 0 {
		sizeWords = 1
	}
	return &Scratchpad{words: make([]int32, sizeWords)}
}

func (s *Scratchpad) normalize(addr int) int {
	idx := (addr / memory.WordSize) % len(s.words)
	if idx < 0 {
		idx += len(s.words)
	}
	return idx
}

// Read returns the word at addr, clamped modulo the scratchpad's size.
// Out-of-range addresses are never an error here: they wrap instead.
func (s *Scratchpad) Read(addr int) int32 {
	return s.words[s.normalize(addr)]
}

// Write stores value at addr, clamped modulo the scratchpad's size.
func (s *Scratchpad) Write(addr int, value int32) {
	s.words[s.normalize(addr)] = value
}

// Size reports the scratchpad's capacity in words.
func (s *Scratchpad) Size() int { return len(s.words) }
