/*
 * riscvsim - Per-core composition of the memory hierarchy and pipeline engine.
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

// Package core wires one core's private L1-I, L1-D, and scratchpad to the
// simulator's shared L2/memory, and drives the resulting pipeline.Engine.
// A Core owns nothing the Simulator needs to share; everything it borrows
// arrives through New.
package core

import (
	"github.com/rcornwell/riscvsim/internal/cache"
	"github.com/rcornwell/riscvsim/internal/coordinator"
	"github.com/rcornwell/riscvsim/internal/hierarchy"
	"github.com/rcornwell/riscvsim/internal/isa"
	"github.com/rcornwell/riscvsim/internal/memory"
	"github.com/rcornwell/riscvsim/internal/pipeline"
	"github.com/rcornwell/riscvsim/internal/scratchpad"
)

// Core is one pipeline instance and its private cache/scratchpad state.
type Core struct {
	ID     int
	Hier   *hierarchy.Hierarchy
	Engine *pipeline.Engine
}

// New builds a Core, allocating private L1-I/L1-D/scratchpad and binding
// them alongside the shared L2/Mem/Coordinator into a pipeline.Engine.
func New(id int, l1iCfg, l1dCfg cache.Config, scratchWords int, l2 *cache.Cache, mem *memory.Memory,
	lat hierarchy.Latencies, coord *coordinator.FetchCoordinator, forwarding bool,
	opLatencies map[isa.Op]int, instructionBase int) (*Core, error) {
	l1i, err := cache.New(l1iCfg)
	if err != nil {
		return nil, err
	}
	l1d, err := cache.New(l1dCfg)
	if err != nil {
		return nil, err
	}
	hier := &hierarchy.Hierarchy{
		CoreID: id,
		L1I:    l1i,
		L1D:    l1d,
		SPM:    scratchpad.New(scratchWords),
		L2:     l2,
		Mem:    mem,
		Lat:    lat,
	}
	engine := pipeline.NewEngine(id, coord, hier, forwarding, opLatencies, instructionBase)
	return &Core{ID: id, Hier: hier, Engine: engine}, nil
}

// Tick advances this core's pipeline by one cycle.
func (c *Core) Tick() error {
	return c.Engine.Tick()
}

// Finished reports whether this core has drained its pipeline past the
// end of the program.
func (c *Core) Finished() bool {
	return c.Engine.Finished()
}
