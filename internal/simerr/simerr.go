/*
 * riscvsim - Typed error kinds for the simulator.
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

// Package simerr centralizes the simulator's four error kinds so callers can
// branch on Kind instead of matching error strings.
package simerr

import "fmt"

// Kind classifies a simulator error.
type Kind int

const (
	KindConfig Kind = iota
	KindParse
	KindBounds
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindParse:
		return "ParseError"
	case KindBounds:
		return "BoundsError"
	case KindTimeout:
		return "TimeoutError"
	default:
		return "Error"
	}
}

// Error is the simulator's single error type. PC is set only by Parse (the
// assembler passes the 1-based source line number) and Snapshot only by
// Timeout; a BoundsError carries neither, and unset fields are nil/zero.
type Error struct {
	Kind     Kind
	Msg      string
	PC       int
	Snapshot any
}

func (e *Error) Error() string {
	if e.PC != 0 || e.Kind == KindParse || e.Kind == KindBounds {
		return fmt.Sprintf("%s: %s (pc=%d)", e.Kind, e.Msg, e.PC)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Config reports a cache/memory configuration error (non power-of-two
// sizes, inconsistent geometry).
func Config(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Msg: fmt.Sprintf(format, args...)}
}

// Parse reports a malformed program line; pc is stored in Error.PC, and the
// assembler passes the source line number there.
func Parse(pc int, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Msg: fmt.Sprintf(format, args...), PC: pc}
}

// Bounds reports an out-of-range memory access.
func Bounds(format string, args ...any) *Error {
	return &Error{Kind: KindBounds, Msg: fmt.Sprintf(format, args...)}
}

// Timeout reports that the tick budget was exhausted before every core
// drained, carrying a snapshot of the last per-core pipeline state.
func Timeout(snapshot any, format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, Msg: fmt.Sprintf(format, args...), Snapshot: snapshot}
}

// ExitCode maps an error returned by the simulator to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if e, ok := err.(*Error); ok {
		se = e
	} else {
		return 1
	}
	switch se.Kind {
	case KindConfig:
		return 2
	case KindParse:
		return 3
	case KindBounds:
		return 4
	case KindTimeout:
		return 5
	default:
		return 1
	}
}
