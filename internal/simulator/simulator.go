/*
 * riscvsim - Top-level simulator: owns shared memory/L2 and every core.
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

// Package simulator ties the assembled program, the configured memory
// hierarchy, the fetch coordinator, and one core per lane into the
// lockstep tick loop and reports the final run statistics.
package simulator

import (
	"log/slog"

	"github.com/rcornwell/riscvsim/internal/asm"
	"github.com/rcornwell/riscvsim/internal/cache"
	"github.com/rcornwell/riscvsim/internal/config"
	"github.com/rcornwell/riscvsim/internal/coordinator"
	"github.com/rcornwell/riscvsim/internal/core"
	"github.com/rcornwell/riscvsim/internal/memory"
	"github.com/rcornwell/riscvsim/internal/simerr"
)

// Simulator owns the resources shared by every core: main memory, the
// shared L2, and the fetch coordinator. Each Core borrows references to
// these rather than owning a copy.
type Simulator struct {
	Mem   *memory.Memory
	L2    *cache.Cache
	Coord *coordinator.FetchCoordinator
	Cores []*core.Core

	log *slog.Logger
}

// CoreResult is one core's contribution to a Result.
type CoreResult struct {
	IPC     float64 `json:"ipc"`
	Stalls  int     `json:"stalls"`
	Flushes int     `json:"flushes"`
	Regs    [32]int32 `json:"registers"`
}

// Result is the simulator's final report, matching the run's JSON output
// shape: per-core IPC/stalls/flushes/registers, plus the clock and the
// memory contents split into core-id-striped views for inspection.
type Result struct {
	Clock         int           `json:"clock"`
	Cores         []CoreResult  `json:"cores"`
	MemoryStripes [][]int32     `json:"memory_stripes_by_core_mod4"`
}

// New assembles prog under cfg into a runnable Simulator. The data segment
// is resolved and preloaded into main memory exactly once, here, rather
// than re-resolved on every "la" execution.
func New(prog *asm.Program, cfg *config.Config, log *slog.Logger) (*Simulator, error) {
	if log == nil {
		log = slog.Default()
	}
	mem := memory.New(cfg.MemoryWords())

	dataSegment, err := placeDataSegment(prog, mem, cfg.InstructionBase)
	if err != nil {
		return nil, err
	}

	l1iCfg, l1dCfg, l2Cfg, err := cfg.CacheConfigs()
	if err != nil {
		return nil, err
	}
	l2, err := cache.New(l2Cfg)
	if err != nil {
		return nil, err
	}

	coord := coordinator.New(prog.Instructions, prog.Labels, dataSegment, cfg.NumCores, cfg.TickBudget)
	lat := cfg.ResolvedLatencies()
	opLat := cfg.ResolvedOpLatencies()

	sim := &Simulator{Mem: mem, L2: l2, Coord: coord, log: log}
	for id := 0; id < cfg.NumCores; id++ {
		c, err := core.New(id, l1iCfg, l1dCfg, cfg.ScratchPadConfig.Size, l2, mem, lat, coord, cfg.Forwarding, opLat, cfg.InstructionBase)
		if err != nil {
			return nil, err
		}
		sim.Cores = append(sim.Cores, c)
	}
	log.Debug("simulator assembled", "cores", cfg.NumCores, "instructions", len(prog.Instructions), "forwarding", cfg.Forwarding)
	return sim, nil
}

// placeDataSegment lays out every .data entry end to end in main memory,
// starting immediately after the instruction segment, and returns the
// resulting label->DataBlock map the pipeline consults for "la".
func placeDataSegment(prog *asm.Program, mem *memory.Memory, instructionBase int) (map[string]coordinator.DataBlock, error) {
	out := map[string]coordinator.DataBlock{}
	addr := instructionBase + len(prog.Instructions)*memory.WordSize
	for _, entry := range prog.Data {
		base := addr
		for i, v := range entry.Values {
			if err := mem.WriteWord(base+i*memory.WordSize, v); err != nil {
				return nil, err
			}
		}
		out[entry.Label] = coordinator.DataBlock{BaseAddr: base, Values: entry.Values}
		addr += len(entry.Values) * memory.WordSize
	}
	return out, nil
}

// Run advances every core in lockstep, core 0 first, until every core has
// finished or the configured tick budget is exhausted.
func (s *Simulator) Run() (Result, error) {
	clock := 0
	for {
		allDone := true
		for _, c := range s.Cores {
			if !c.Finished() {
				allDone = false
			}
		}
		if allDone {
			break
		}
		if clock >= s.Coord.TickBudget {
			return s.snapshot(clock), simerr.Timeout(s.snapshot(clock), "exceeded tick budget of %d", s.Coord.TickBudget)
		}
		for _, c := range s.Cores {
			if c.Finished() {
				continue
			}
			if err := c.Tick(); err != nil {
				return s.snapshot(clock), err
			}
		}
		clock++
	}
	return s.snapshot(clock), nil
}

func (s *Simulator) snapshot(clock int) Result {
	res := Result{Clock: clock}
	for _, c := range s.Cores {
		res.Cores = append(res.Cores, CoreResult{
			IPC:     c.Engine.IPC(),
			Stalls:  c.Engine.StallCount,
			Flushes: c.Engine.PipelineFlushCount,
			Regs:    c.Engine.Regs,
		})
	}
	res.MemoryStripes = s.Mem.ViewByCoreStripe(len(s.Cores))
	return res
}
