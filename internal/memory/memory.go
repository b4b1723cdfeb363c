/*
 * riscvsim - Flat word-addressable main memory.
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

// Package memory implements the simulator's flat, word-addressable main
// store shared by every core.
package memory

import "github.com/rcornwell/riscvsim/internal/simerr"

// WordSize is the width of one memory word in bytes.
const WordSize = 4

// Memory is a flat array of 32-bit signed words, addressed by byte address.
// Addresses must be word-aligned multiples of WordSize.
type Memory struct {
	words []int32
}

// New allocates a memory of the given size in words.
func New(sizeWords int) *Memory {
	return &Memory{words: make([]int32, sizeWords)}
}

// SizeWords returns the number of addressable words.
func (m *Memory) SizeWords() int {
	return len(m.words)
}

func (m *Memory) index(addr int) (int, error) {
	if addr < 0 || addr%WordSize != 0 {
		return 0, simerr.Bounds("address %d is not word-aligned", addr)
	}
	idx := addr / WordSize
	if idx >= len(m.words) {
		return 0, simerr.Bounds("address %d out of range (size=%d words)", addr, len(m.words))
	}
	return idx, nil
}

// ReadWord returns the word at addr.
func (m *Memory) ReadWord(addr int) (int32, error) {
	idx, err := m.index(addr)
	if err != nil {
		return 0, err
	}
	return m.words[idx], nil
}

// WriteWord stores value at addr.
func (m *Memory) WriteWord(addr int, value int32) error {
	idx, err := m.index(addr)
	if err != nil {
		return err
	}
	m.words[idx] = value
	return nil
}

// ViewByCoreStripe is a reporting aid: it groups every word by
// addr/WordSize mod numCores, giving one slice of words per core stripe.
func (m *Memory) ViewByCoreStripe(numCores int) [][]int32 {
	stripes := make([][]int32, numCores)
	for i, w := range m.words {
		stripe := i % numCores
		stripes[stripe] = append(stripes[stripe], w)
	}
	return stripes
}
