/*
 * riscvsim - Five-stage in-order pipeline, base and forwarding variants.
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

// Package pipeline implements one core's IF/ID/EX/MEM/WB state machine.
// The base and forwarding variants share this single Engine: Forwarding
// switches the ID load-use check and the EX operand source, rather than
// duplicating five stages of state-machine plumbing for each variant.
package pipeline

import (
	"fmt"

	"github.com/rcornwell/riscvsim/internal/coordinator"
	"github.com/rcornwell/riscvsim/internal/hierarchy"
	"github.com/rcornwell/riscvsim/internal/isa"
)

// Slot is one pipeline register.
type Slot struct {
	Valid           bool
	Inst            isa.Instruction
	ProgIdx         int
	CyclesRemaining int

	ALUResult int32
	Rs1Val    int32
	Rs2Val    int32
	MemAddr   int
	MemValue  int32

	IsSync      bool
	SyncFlushed bool
}

func (s Slot) destReg() int {
	return s.Inst.DestReg()
}

// forwardValue is the value a consumer sees when forwarding from this
// slot: the loaded word for a load, otherwise the computed ALU result.
func (s Slot) forwardValue() int32 {
	switch s.Inst.Op {
	case isa.OpLw, isa.OpLwSpm:
		return s.MemValue
	default:
		return s.ALUResult
	}
}

// Engine is one core's pipeline: registers, the five stage slots, and the
// shared hierarchy/coordinator references it drives tick by tick.
type Engine struct {
	CoreID int
	Regs   [32]int32
	PC     int

	IF, ID, EX, MEM, WB Slot

	Forwarding      bool
	OpLatencies     map[isa.Op]int
	InstructionBase int

	InstExecuted      int
	StallCount        int
	PipelineFlushCount int

	Coord *coordinator.FetchCoordinator
	Hier  *hierarchy.Hierarchy

	// EchoWriter receives ecall output; nil discards it.
	EchoWriter func(value int32)
}

// NewEngine constructs an Engine with register 31 wired to coreID, per
// the register-file convention.
func NewEngine(coreID int, coord *coordinator.FetchCoordinator, hier *hierarchy.Hierarchy, forwarding bool, opLatencies map[isa.Op]int, instructionBase int) *Engine {
	e := &Engine{
		CoreID:          coreID,
		Forwarding:      forwarding,
		OpLatencies:     opLatencies,
		InstructionBase: instructionBase,
		Coord:           coord,
		Hier:            hier,
	}
	e.Regs[31] = int32(coreID)
	return e
}

// Finished reports whether the core has fetched past the end of the
// program and drained every pipeline slot.
func (e *Engine) Finished() bool {
	return e.PC >= len(e.Coord.Program) &&
		!e.IF.Valid && !e.ID.Valid && !e.EX.Valid && !e.MEM.Valid && !e.WB.Valid
}

// IPC computes the core's instructions-per-cycle, per the spec's formula.
func (e *Engine) IPC() float64 {
	den := e.InstExecuted + e.StallCount + e.PipelineFlushCount
	if den == 0 {
		return 0
	}
	return float64(e.InstExecuted) / float64(den)
}

// Tick advances this core by one pipeline cycle. Stages run in reverse
// pipeline order (WB, MEM, EX, ID, IF) so each stage observes the state its
// upstream neighbor left at the end of the previous tick, then that
// neighbor's own update for this tick is applied before any stage further
// upstream runs.
func (e *Engine) Tick() error {
	e.stageWB()
	if err := e.stageMEM(); err != nil {
		return err
	}
	e.stageEX()
	e.stageID()
	if err := e.stageIF(); err != nil {
		return err
	}
	return nil
}

// stageWB retires the slot that reached WB last tick. It exists only to
// give forwarding one extra cycle of visibility into the just-committed
// instruction's result; the commit itself happens in stageMEM at the
// MEM->WB handoff.
func (e *Engine) stageWB() {
	if e.WB.Valid {
		e.WB = Slot{}
	}
}

func (e *Engine) stageMEM() error {
	if e.MEM.Valid {
		if e.MEM.CyclesRemaining > 1 {
			e.MEM.CyclesRemaining--
			e.StallCount++
			return nil
		}
		committed := e.MEM
		flushed, err := e.commit(&committed)
		if err != nil {
			return err
		}
		e.MEM = Slot{}
		e.WB = committed
		if flushed {
			e.IF, e.ID, e.EX = Slot{}, Slot{}, Slot{}
			e.PipelineFlushCount++
		}
	}
	if !e.MEM.Valid && e.EX.Valid && e.EX.CyclesRemaining == 1 {
		next := e.EX
		switch next.Inst.Op {
		case isa.OpLw, isa.OpLwSpm, isa.OpSw, isa.OpSwSpm:
			stall, err := e.doMemAccess(&next)
			if err != nil {
				return err
			}
			if stall < 1 {
				stall = 1
			}
			next.CyclesRemaining = stall
		default:
			next.CyclesRemaining = 1
		}
		e.MEM = next
		e.EX = Slot{}
	}
	return nil
}

func (e *Engine) stageEX() {
	if e.EX.Valid {
		if e.EX.CyclesRemaining > 1 {
			e.EX.CyclesRemaining--
			e.StallCount++
		}
		return
	}
	if e.ID.Valid && e.ID.CyclesRemaining == 1 {
		next := e.ID
		next.CyclesRemaining = e.latencyFor(next.Inst.Op)
		e.computeEX(&next)
		e.EX = next
		e.ID = Slot{}
	}
}

func (e *Engine) stageID() {
	if e.ID.Valid {
		return
	}
	if !e.IF.Valid || e.IF.CyclesRemaining > 1 {
		return
	}
	if e.IF.IsSync && !e.Coord.Released(e.IF.ProgIdx) {
		return
	}
	candidate := e.IF.Inst
	if e.EX.Valid {
		e.StallCount++
		return
	}
	if !candidate.Op.IsControlFlow() && e.hasDataHazard(candidate) {
		e.StallCount++
		return
	}
	next := e.IF
	next.CyclesRemaining = 1
	e.ID = next
	e.IF = Slot{}
}

func (e *Engine) hasDataHazard(candidate isa.Instruction) bool {
	srcs := candidate.SrcRegs()
	if len(srcs) == 0 {
		return false
	}
	if e.Forwarding {
		if e.EX.Valid && (e.EX.Inst.Op == isa.OpLw || e.EX.Inst.Op == isa.OpLwSpm) {
			return regIn(srcs, e.EX.Inst.DestReg())
		}
		return false
	}
	for _, reg := range srcs {
		if e.EX.Valid && e.EX.destReg() == reg {
			return true
		}
		if e.MEM.Valid && e.MEM.destReg() == reg {
			return true
		}
	}
	return false
}

func regIn(regs []int, reg int) bool {
	if reg < 0 {
		return false
	}
	for _, r := range regs {
		if r == reg {
			return true
		}
	}
	return false
}

func (e *Engine) stageIF() error {
	if e.IF.Valid {
		if e.IF.IsSync && !e.IF.SyncFlushed {
			if !e.Coord.Released(e.IF.ProgIdx) {
				e.StallCount++
				if e.IF.CyclesRemaining <= 1 {
					e.IF.CyclesRemaining = 2
				} else {
					e.IF.CyclesRemaining--
				}
				return nil
			}
			if _, err := e.Hier.FlushL1DirtyToL2(); err != nil {
				return err
			}
			e.IF.SyncFlushed = true
			e.IF.CyclesRemaining = 1
			return nil
		}
		if e.IF.CyclesRemaining > 1 {
			e.IF.CyclesRemaining--
			e.StallCount++
		}
		return nil
	}
	if e.PC >= len(e.Coord.Program) {
		return nil
	}
	inst := e.Coord.Program[e.PC]
	addr := e.InstructionBase + e.PC*isa4Bytes
	_, stall, err := e.Hier.ReadInstr(addr)
	if err != nil {
		return err
	}
	if stall < 1 {
		stall = 1
	}
	slot := Slot{Valid: true, Inst: inst, ProgIdx: e.PC, CyclesRemaining: stall}
	progIdx := e.PC
	e.PC++
	if inst.Op == isa.OpSync {
		slot.IsSync = true
		released := e.Coord.Enter(progIdx, e.CoreID)
		if !released && slot.CyclesRemaining < 2 {
			slot.CyclesRemaining = 2
		}
		if released {
			if _, err := e.Hier.FlushL1DirtyToL2(); err != nil {
				return err
			}
			slot.SyncFlushed = true
		}
	}
	e.IF = slot
	return nil
}

const isa4Bytes = 4

func (e *Engine) latencyFor(op isa.Op) int {
	if e.OpLatencies != nil {
		if l, ok := e.OpLatencies[op]; ok {
			return l
		}
	}
	return 1
}

func (e *Engine) readReg(reg int) int32 {
	if reg < 0 {
		return 0
	}
	if reg == 0 {
		return 0
	}
	if e.Forwarding {
		return e.forward(reg)
	}
	return e.Regs[reg]
}

// forward implements the MEM/WB -> EX bypass: MEM's result takes priority
// over WB's, which takes priority over the architectural register file.
func (e *Engine) forward(reg int) int32 {
	if e.MEM.Valid && e.MEM.destReg() == reg {
		return e.MEM.forwardValue()
	}
	if e.WB.Valid && e.WB.destReg() == reg {
		return e.WB.forwardValue()
	}
	return e.Regs[reg]
}

func (e *Engine) writeReg(reg int, value int32) {
	if reg <= 0 {
		return
	}
	e.Regs[reg] = value
}

func (e *Engine) computeEX(s *Slot) {
	inst := s.Inst
	switch inst.Op {
	case isa.OpAdd:
		s.ALUResult = e.readReg(inst.Rs1) + e.readReg(inst.Rs2)
	case isa.OpAddi:
		s.ALUResult = e.readReg(inst.Rs1) + inst.Imm
	case isa.OpSub:
		s.ALUResult = e.readReg(inst.Rs1) - e.readReg(inst.Rs2)
	case isa.OpSlt:
		if e.readReg(inst.Rs1) < e.readReg(inst.Rs2) {
			s.ALUResult = 1
		} else {
			s.ALUResult = 0
		}
	case isa.OpLi:
		s.ALUResult = inst.Imm
	case isa.OpLa:
		if blk, ok := e.Coord.DataSegment[inst.Target]; ok {
			s.ALUResult = int32(blk.BaseAddr)
		}
	case isa.OpLw, isa.OpLwSpm:
		s.MemAddr = int(e.readReg(inst.Rs1) + inst.Imm)
	case isa.OpSw, isa.OpSwSpm:
		s.MemAddr = int(e.readReg(inst.Rs1) + inst.Imm)
		s.MemValue = e.readReg(inst.Rs2)
	case isa.OpBne, isa.OpBeq, isa.OpBle:
		s.Rs1Val = e.readReg(inst.Rs1)
		s.Rs2Val = e.readReg(inst.Rs2)
	case isa.OpJal:
		s.ALUResult = int32(s.ProgIdx + 1)
	case isa.OpJr:
		s.ALUResult = e.readReg(inst.Rs1)
	case isa.OpEcall:
		s.Rs1Val = e.readReg(inst.Rs1)
	case isa.OpJ, isa.OpSync, isa.OpNop:
		// nothing to compute
	}
}

func (e *Engine) doMemAccess(s *Slot) (int, error) {
	switch s.Inst.Op {
	case isa.OpLw:
		v, stall, err := e.Hier.ReadData(s.MemAddr)
		s.MemValue = v
		return stall, err
	case isa.OpLwSpm:
		v, stall := e.Hier.ReadScratchpad(s.MemAddr)
		s.MemValue = v
		return stall, nil
	case isa.OpSw:
		return e.Hier.WriteData(s.MemAddr, s.MemValue)
	case isa.OpSwSpm:
		return e.Hier.WriteScratchpad(s.MemAddr, s.MemValue), nil
	}
	return 1, nil
}

// commit performs the WB-stage architectural update for the instruction
// handed off from MEM, reporting whether it triggered a control-flow
// flush.
func (e *Engine) commit(s *Slot) (bool, error) {
	inst := s.Inst
	flushed := false
	// Branch operands and the jr target are read here, at WB, where every
	// older instruction has already committed; this is what lets ID skip
	// the data-hazard check for control-flow ops.
	arch := func(reg int) int32 {
		if reg <= 0 {
			return 0
		}
		return e.Regs[reg]
	}
	switch inst.Op {
	case isa.OpBne, isa.OpBeq, isa.OpBle:
		s.Rs1Val, s.Rs2Val = arch(inst.Rs1), arch(inst.Rs2)
	case isa.OpJr:
		s.ALUResult = arch(inst.Rs1)
	}
	switch inst.Op {
	case isa.OpAdd, isa.OpAddi, isa.OpSub, isa.OpSlt, isa.OpLi, isa.OpLa:
		e.writeReg(inst.Rd, s.ALUResult)
	case isa.OpLw, isa.OpLwSpm:
		e.writeReg(inst.Rd, s.MemValue)
	case isa.OpSw, isa.OpSwSpm:
		// no register write
	case isa.OpJal:
		e.writeReg(inst.Rd, s.ALUResult)
		target, ok := e.Coord.Labels[inst.Target]
		if !ok {
			return false, fmt.Errorf("undefined label %q", inst.Target)
		}
		e.PC = target
		flushed = true
	case isa.OpJr:
		e.PC = int(s.ALUResult)
		flushed = true
	case isa.OpJ:
		target, ok := e.Coord.Labels[inst.Target]
		if !ok {
			return false, fmt.Errorf("undefined label %q", inst.Target)
		}
		e.PC = target
		flushed = true
	case isa.OpBne:
		if s.Rs1Val != s.Rs2Val {
			target, ok := e.Coord.Labels[inst.Target]
			if !ok {
				return false, fmt.Errorf("undefined label %q", inst.Target)
			}
			e.PC = target
			flushed = true
		}
	case isa.OpBeq:
		if s.Rs1Val == s.Rs2Val {
			target, ok := e.Coord.Labels[inst.Target]
			if !ok {
				return false, fmt.Errorf("undefined label %q", inst.Target)
			}
			e.PC = target
			flushed = true
		}
	case isa.OpBle:
		if s.Rs1Val <= s.Rs2Val {
			target, ok := e.Coord.Labels[inst.Target]
			if !ok {
				return false, fmt.Errorf("undefined label %q", inst.Target)
			}
			e.PC = target
			flushed = true
		}
	case isa.OpEcall:
		if e.EchoWriter != nil {
			e.EchoWriter(s.Rs1Val)
		}
	case isa.OpSync, isa.OpNop:
		// no architectural effect
	}
	e.InstExecuted++
	return flushed, nil
}
