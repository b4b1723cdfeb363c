/*
 * riscvsim - Explicit fetch/barrier coordinator shared by every core.
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

// Package coordinator replaces the global program/barrier state that a
// naive port of the source would keep as process-wide singletons (the
// "shared global pipeline state" design note) with one object every core
// holds a reference to.
package coordinator

import "github.com/rcornwell/riscvsim/internal/isa"

// DataBlock is one labeled data-segment entry, placed by the loader at a
// fixed base address in main memory.
type DataBlock struct {
	BaseAddr int
	Values   []int32
}

// FetchCoordinator carries the program text, its label map, the resolved
// data segment, and the cross-core sync barrier's per-index bit vectors.
type FetchCoordinator struct {
	Program     []isa.Instruction
	Labels      map[string]int
	DataSegment map[string]DataBlock
	NumCores    int
	TickBudget  int

	syncMask   [][]bool
	syncRelease []bool
}

// New builds a coordinator for the given program. syncMask and
// syncRelease are sized to len(program) so Enter/Released never need to
// grow them at run time.
func New(program []isa.Instruction, labels map[string]int, data map[string]DataBlock, numCores, tickBudget int) *FetchCoordinator {
	mask := make([][]bool, len(program))
	for i := range mask {
		mask[i] = make([]bool, numCores)
	}
	return &FetchCoordinator{
		Program:     program,
		Labels:      labels,
		DataSegment: data,
		NumCores:    numCores,
		TickBudget:  tickBudget,
		syncMask:    mask,
		syncRelease: make([]bool, len(program)),
	}
}

// Enter records that coreID has reached the sync at program index pc and
// reports whether every core has now entered it (the barrier is
// released). Once released for a given pc, Enter keeps reporting true.
func (f *FetchCoordinator) Enter(pc, coreID int) bool {
	if pc < 0 || pc >= len(f.syncMask) {
		return true
	}
	f.syncMask[pc][coreID] = true
	if f.syncRelease[pc] {
		return true
	}
	for _, entered := range f.syncMask[pc] {
		if !entered {
			return false
		}
	}
	f.syncRelease[pc] = true
	return true
}

// Released reports whether the sync at program index pc has already seen
// every core, without marking any core as having entered it.
func (f *FetchCoordinator) Released(pc int) bool {
	if pc < 0 || pc >= len(f.syncRelease) {
		return true
	}
	return f.syncRelease[pc]
}
