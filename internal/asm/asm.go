/*
 * riscvsim - Assembly loader: tokenizes .data/.text sections into a Program.
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

// Package asm loads a program source file into the Program the simulator
// runs: a flat instruction list, a label->index map, and a named data
// segment. It is a single-pass assembler without relocation: labels in the
// text section resolve to instruction indices, and .data labels get their
// byte addresses only when the simulator places the data segment in
// memory (see coordinator.DataBlock.BaseAddr).
package asm

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rcornwell/riscvsim/internal/isa"
	"github.com/rcornwell/riscvsim/internal/simerr"
)

// DataEntry is one parsed .data directive, still address-unresolved.
type DataEntry struct {
	Label  string
	Values []int32
}

// Program is the fully parsed, unresolved-address form of a source file.
type Program struct {
	Instructions []isa.Instruction
	Labels       map[string]int
	Data         []DataEntry
}

const (
	sectionNone = iota
	sectionData
	sectionText
)

// Load reads a program source from r, line by line. Lines are trimmed of
// comments (anything from a leading '#' or ';' to end of line) and blank
// lines are skipped. ".data" and ".text" on a line by themselves switch
// the active section.
func Load(r io.Reader) (*Program, error) {
	prog := &Program{Labels: map[string]int{}}
	section := sectionText

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case ".data":
			section = sectionData
			continue
		case ".text":
			section = sectionText
			continue
		}

		switch section {
		case sectionData:
			entry, err := parseDataLine(line)
			if err != nil {
				return nil, simerr.Parse(lineNo, "data line %d: %v", lineNo, err)
			}
			prog.Data = append(prog.Data, entry)
		default:
			label, rest := splitLabel(line)
			if label != "" {
				prog.Labels[label] = len(prog.Instructions)
			}
			if rest == "" {
				continue
			}
			tokens := tokenize(rest)
			inst, err := isa.Parse(tokens, line)
			if err != nil {
				return nil, simerr.Parse(lineNo, "line %d: %v", lineNo, err)
			}
			inst.Label = label
			prog.Instructions = append(prog.Instructions, inst)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, simerr.Parse(lineNo, "reading source: %v", err)
	}
	return prog, nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		return line[:i]
	}
	return line
}

// splitLabel peels a leading "label:" off the line, if present.
func splitLabel(line string) (label, rest string) {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
	}
	return "", line
}

// tokenize splits an instruction body on whitespace and strips stray
// operand-separating commas, leaving memory operands like "4(x5)" intact.
func tokenize(body string) []string {
	body = strings.ReplaceAll(body, ",", " ")
	return strings.Fields(body)
}

// parseDataLine parses "label: .word v1 v2 ..." or "label: .space n".
func parseDataLine(line string) (DataEntry, error) {
	label, rest := splitLabel(line)
	if label == "" {
		return DataEntry{}, &parseError{"data entry missing label"}
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return DataEntry{}, &parseError{"data entry missing directive"}
	}

	switch strings.ToLower(fields[0]) {
	case ".word":
		entry := DataEntry{Label: label}
		for _, tok := range fields[1:] {
			v, err := strconv.ParseInt(strings.TrimSpace(tok), 0, 64)
			if err != nil {
				return DataEntry{}, &parseError{"bad .word value " + tok}
			}
			entry.Values = append(entry.Values, int32(v))
		}
		return entry, nil
	case ".space":
		if len(fields) < 2 {
			return DataEntry{}, &parseError{".space missing size"}
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return DataEntry{}, &parseError{"bad .space size " + fields[1]}
		}
		words := (n + 3) / 4
		return DataEntry{Label: label, Values: make([]int32, words)}, nil
	default:
		return DataEntry{}, &parseError{"unknown data directive " + fields[0]}
	}
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
