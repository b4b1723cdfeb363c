/*
 * riscvsim - Command-line entry point.
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

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pborman/getopt/v2"

	"github.com/rcornwell/riscvsim/internal/asm"
	"github.com/rcornwell/riscvsim/internal/config"
	"github.com/rcornwell/riscvsim/internal/simerr"
	"github.com/rcornwell/riscvsim/internal/simulator"
	"github.com/rcornwell/riscvsim/util/logger"
)

func main() {
	programPath := getopt.StringLong("program", 'p', "", "assembly program to load")
	configPath := getopt.StringLong("config", 'c', "", "YAML run configuration")
	forwarding := getopt.BoolLong("forwarding", 'f', "enable MEM/WB -> EX operand forwarding")
	logPath := getopt.StringLong("log", 'l', "", "log file (default stderr)")
	debug := getopt.BoolLong("debug", 'd', "force every log record to stderr")
	getopt.Parse()

	log, closeLog := buildLogger(*logPath, *debug)
	defer closeLog()

	if *programPath == "" {
		fmt.Fprintln(os.Stderr, "riscvsim: -p/--program is required")
		os.Exit(simerr.ExitCode(simerr.Config("missing program path")))
	}

	result, err := run(*programPath, *configPath, *forwarding, log)
	if err != nil {
		log.Error("run failed", "error", err)
		os.Exit(simerr.ExitCode(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, "riscvsim: encoding result:", err)
		os.Exit(1)
	}
}

func run(programPath, configPath string, forwarding bool, log *slog.Logger) (simulator.Result, error) {
	f, err := os.Open(programPath)
	if err != nil {
		return simulator.Result{}, simerr.Config("opening program %s: %v", programPath, err)
	}
	defer f.Close()

	prog, err := asm.Load(f)
	if err != nil {
		return simulator.Result{}, err
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Decode(strings.NewReader(""))
	}
	if err != nil {
		return simulator.Result{}, err
	}
	if forwarding {
		cfg.Forwarding = true
	}

	sim, err := simulator.New(prog, cfg, log)
	if err != nil {
		return simulator.Result{}, err
	}
	return sim.Run()
}

func buildLogger(path string, debug bool) (*slog.Logger, func()) {
	out := os.Stderr
	closeFn := func() {}
	if path != "" {
		f, err := os.Create(path)
		if err == nil {
			out = f
			closeFn = func() { f.Close() }
		}
	}
	handler := logger.NewHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}, debug)
	return slog.New(handler), closeFn
}
