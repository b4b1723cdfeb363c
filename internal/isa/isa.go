/*
 * riscvsim - Instruction set: tagged-variant decode of the mnemonic subset.
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

// Package isa decodes the simulator's mnemonic instruction subset into a
// tagged variant once, at load time, so pipeline stages switch on a small
// enum instead of comparing strings on every tick.
package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the operation an Instruction performs.
type Op int

const (
	OpNop Op = iota
	OpAdd
	OpAddi
	OpSub
	OpSlt
	OpLi
	OpLa
	OpLw
	OpLwSpm
	OpSw
	OpSwSpm
	OpBne
	OpBeq
	OpBle
	OpJal
	OpJr
	OpJ
	OpSync
	OpEcall
	OpUnknown
)

// names maps each Op to its canonical mnemonic, used for diagnostics and
// for op_latencies configuration overrides.
var names = map[Op]string{
	OpNop: "nop", OpAdd: "add", OpAddi: "addi", OpSub: "sub", OpSlt: "slt",
	OpLi: "li", OpLa: "la", OpLw: "lw", OpLwSpm: "lw_spm", OpSw: "sw",
	OpSwSpm: "sw_spm", OpBne: "bne", OpBeq: "beq", OpBle: "ble",
	OpJal: "jal", OpJr: "jr", OpJ: "j", OpSync: "sync", OpEcall: "ecall",
	OpUnknown: "unknown",
}

func (op Op) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return "unknown"
}

// ByName resolves a mnemonic to its Op. Matching is case-insensitive.
func ByName(name string) (Op, bool) {
	name = strings.ToLower(name)
	for op, n := range names {
		if n == name {
			return op, true
		}
	}
	return OpUnknown, false
}

// IsControlFlow reports whether op is a branch or jump, which bypasses the
// base pipeline's data-hazard check in ID (the condition/target is resolved
// at WB, not EX).
func (op Op) IsControlFlow() bool {
	switch op {
	case OpBne, OpBeq, OpBle, OpJal, OpJr, OpJ:
		return true
	}
	return false
}

// Instruction is the decoded form of one program line. Register fields are
// -1 when unused by the operation.
type Instruction struct {
	Op       Op
	Raw      string
	Label    string // leading label on this line, if any (informational)
	Target   string // branch/jump label operand
	Rd       int
	Rs1      int
	Rs2      int
	Imm      int32
}

// DestReg returns the destination register written by inst, or -1 if none.
func (inst Instruction) DestReg() int {
	switch inst.Op {
	case OpAdd, OpAddi, OpSub, OpSlt, OpLi, OpLa, OpLw, OpLwSpm, OpJal:
		return inst.Rd
	}
	return -1
}

// SrcRegs returns the source registers read by inst.
func (inst Instruction) SrcRegs() []int {
	switch inst.Op {
	case OpAdd, OpSub, OpSlt:
		return []int{inst.Rs1, inst.Rs2}
	case OpAddi, OpLw, OpLwSpm:
		return []int{inst.Rs1}
	case OpSw, OpSwSpm:
		return []int{inst.Rs1, inst.Rs2}
	case OpBne, OpBeq, OpBle:
		return []int{inst.Rs1, inst.Rs2}
	case OpJr, OpEcall:
		return []int{inst.Rs1}
	}
	return nil
}

func parseReg(tok string) (int, error) {
	tok = strings.TrimSpace(strings.ToLower(tok))
	tok = strings.TrimPrefix(tok, "x")
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad register operand %q: %w", tok, err)
	}
	if n < 0 || n > 31 {
		return 0, fmt.Errorf("register operand %q out of range", tok)
	}
	return n, nil
}

func parseImm(tok string) (int32, error) {
	tok = strings.TrimSpace(tok)
	n, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad immediate %q: %w", tok, err)
	}
	return int32(n), nil
}

// parseMem splits an "off(rs)" operand into its offset and base register.
func parseMem(tok string) (int32, int, error) {
	open := strings.Index(tok, "(")
	close := strings.Index(tok, ")")
	if open < 0 || close < 0 || close < open {
		return 0, 0, fmt.Errorf("bad memory operand %q", tok)
	}
	offTok := strings.TrimSpace(tok[:open])
	var off int32
	if offTok != "" {
		v, err := parseImm(offTok)
		if err != nil {
			return 0, 0, err
		}
		off = v
	}
	rs, err := parseReg(tok[open+1 : close])
	if err != nil {
		return 0, 0, err
	}
	return off, rs, nil
}

// Parse decodes one tokenized instruction line (mnemonic + operands,
// already split on whitespace and stray commas). raw is retained for
// diagnostics.
func Parse(tokens []string, raw string) (Instruction, error) {
	if len(tokens) == 0 {
		return Instruction{}, fmt.Errorf("empty instruction")
	}
	op, ok := ByName(tokens[0])
	if !ok {
		return Instruction{}, fmt.Errorf("unrecognized mnemonic %q", tokens[0])
	}
	inst := Instruction{Op: op, Raw: raw, Rd: -1, Rs1: -1, Rs2: -1}

	args := tokens[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d operands, got %d", tokens[0], n, len(args))
		}
		return nil
	}

	var err error
	switch op {
	case OpAdd, OpSub, OpSlt:
		if err = need(3); err != nil {
			return inst, err
		}
		if inst.Rd, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		if inst.Rs1, err = parseReg(args[1]); err != nil {
			return inst, err
		}
		if inst.Rs2, err = parseReg(args[2]); err != nil {
			return inst, err
		}
	case OpAddi:
		if err = need(3); err != nil {
			return inst, err
		}
		if inst.Rd, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		if inst.Rs1, err = parseReg(args[1]); err != nil {
			return inst, err
		}
		if inst.Imm, err = parseImm(args[2]); err != nil {
			return inst, err
		}
	case OpLi:
		if err = need(2); err != nil {
			return inst, err
		}
		if inst.Rd, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		if inst.Imm, err = parseImm(args[1]); err != nil {
			return inst, err
		}
	case OpLa:
		if err = need(2); err != nil {
			return inst, err
		}
		if inst.Rd, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		inst.Target = args[1]
	case OpLw, OpLwSpm:
		if err = need(2); err != nil {
			return inst, err
		}
		if inst.Rd, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		if inst.Imm, inst.Rs1, err = parseMem(args[1]); err != nil {
			return inst, err
		}
	case OpSw, OpSwSpm:
		if err = need(2); err != nil {
			return inst, err
		}
		if inst.Rs2, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		if inst.Imm, inst.Rs1, err = parseMem(args[1]); err != nil {
			return inst, err
		}
	case OpBne, OpBeq, OpBle:
		if err = need(3); err != nil {
			return inst, err
		}
		if inst.Rs1, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		if inst.Rs2, err = parseReg(args[1]); err != nil {
			return inst, err
		}
		inst.Target = args[2]
	case OpJal:
		if err = need(2); err != nil {
			return inst, err
		}
		if inst.Rd, err = parseReg(args[0]); err != nil {
			return inst, err
		}
		inst.Target = args[1]
	case OpJr:
		if err = need(1); err != nil {
			return inst, err
		}
		if inst.Rs1, err = parseReg(args[0]); err != nil {
			return inst, err
		}
	case OpJ:
		if err = need(1); err != nil {
			return inst, err
		}
		inst.Target = args[0]
	case OpEcall:
		if err = need(1); err != nil {
			return inst, err
		}
		if inst.Rs1, err = parseReg(args[0]); err != nil {
			return inst, err
		}
	case OpSync, OpNop:
		// no operands
	}
	return inst, nil
}
