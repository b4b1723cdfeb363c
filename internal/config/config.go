/*
 * riscvsim - YAML-backed simulator configuration.
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

// Package config decodes the simulator's YAML run configuration: cache
// geometry for each level, scratchpad size, per-access latencies, and the
// handful of run-level knobs (core count, tick budget, instruction base).
package config

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rcornwell/riscvsim/internal/cache"
	"github.com/rcornwell/riscvsim/internal/hierarchy"
	"github.com/rcornwell/riscvsim/internal/isa"
	"github.com/rcornwell/riscvsim/internal/simerr"
)

// CacheConfig mirrors cache.Config in YAML-friendly field names.
type CacheConfig struct {
	CacheSize     int    `yaml:"cache_size"`
	BlockSize     int    `yaml:"block_size"`
	Associativity int    `yaml:"associativity"`
	Policy        string `yaml:"policy"`
	RRPVBits      int    `yaml:"rrpv_bits"`
}

func (c CacheConfig) resolve() (cache.Config, error) {
	policy := cache.PolicyLRU
	switch c.Policy {
	case "", "lru":
		policy = cache.PolicyLRU
	case "srrip":
		policy = cache.PolicySRRIP
	default:
		return cache.Config{}, simerr.Config("unknown cache policy %q", c.Policy)
	}
	return cache.Config{
		CacheSize:     c.CacheSize,
		BlockSize:     c.BlockSize,
		Associativity: c.Associativity,
		Policy:        policy,
		RRPVBits:      c.RRPVBits,
	}, nil
}

// ScratchpadConfig sizes the per-core scratchpad.
type ScratchpadConfig struct {
	Size int `yaml:"size"`
}

// LatencyConfig mirrors hierarchy.Latencies in YAML-friendly field names.
type LatencyConfig struct {
	L1Hit      int `yaml:"l1_hit"`
	L1Miss     int `yaml:"l1_miss"`
	L2Hit      int `yaml:"l2_hit"`
	L2Miss     int `yaml:"l2_miss"`
	Mem        int `yaml:"mem"`
	Scratchpad int `yaml:"scratchpad"`
}

func (l LatencyConfig) resolve() hierarchy.Latencies {
	d := hierarchy.DefaultLatencies()
	lat := hierarchy.Latencies{
		L1Hit: d.L1Hit, L1Miss: d.L1Miss, L2Hit: d.L2Hit,
		L2Miss: d.L2Miss, Mem: d.Mem, Scratchpad: d.Scratchpad,
	}
	if l.L1Hit > 0 {
		lat.L1Hit = l.L1Hit
	}
	if l.L1Miss > 0 {
		lat.L1Miss = l.L1Miss
	}
	if l.L2Hit > 0 {
		lat.L2Hit = l.L2Hit
	}
	if l.L2Miss > 0 {
		lat.L2Miss = l.L2Miss
	}
	if l.Mem > 0 {
		lat.Mem = l.Mem
	}
	if l.Scratchpad > 0 {
		lat.Scratchpad = l.Scratchpad
	}
	return lat
}

// Config is the top-level run configuration, decoded directly from YAML.
type Config struct {
	L1IConfig        CacheConfig       `yaml:"l1i_config"`
	L1DConfig        CacheConfig       `yaml:"l1d_config"`
	L2Config         CacheConfig       `yaml:"l2_config"`
	ScratchPadConfig ScratchpadConfig  `yaml:"scratch_pad_config"`
	Latencies        LatencyConfig     `yaml:"latencies"`
	OpLatencies      map[string]int    `yaml:"op_latencies"`
	NumCores         int               `yaml:"num_cores"`
	TickBudget       int               `yaml:"tick_budget"`
	InstructionBase  int               `yaml:"instruction_base"`
	Forwarding       bool              `yaml:"forwarding"`
}

const (
	defaultNumCores        = 4
	defaultTickBudget      = 1_000_000
	defaultInstructionBase = 320
	defaultMemoryWords     = 4096
)

// Load reads and decodes a YAML config file, applying defaults for any
// zero-valued run-level knob.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.Config("opening config %s: %v", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and decodes a YAML config from r.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, simerr.Config("decoding config: %v", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.NumCores <= 0 {
		c.NumCores = defaultNumCores
	}
	if c.TickBudget <= 0 {
		c.TickBudget = defaultTickBudget
	}
	if c.InstructionBase <= 0 {
		c.InstructionBase = defaultInstructionBase
	}
	if c.L1IConfig.CacheSize == 0 {
		c.L1IConfig = CacheConfig{CacheSize: 256, BlockSize: 16, Associativity: 2, Policy: "lru"}
	}
	if c.L1DConfig.CacheSize == 0 {
		c.L1DConfig = CacheConfig{CacheSize: 256, BlockSize: 16, Associativity: 2, Policy: "lru"}
	}
	if c.L2Config.CacheSize == 0 {
		c.L2Config = CacheConfig{CacheSize: 2048, BlockSize: 32, Associativity: 8, Policy: "srrip"}
	}
	if c.ScratchPadConfig.Size == 0 {
		c.ScratchPadConfig.Size = 256
	}
}

// MemoryWords is the fixed main-memory size in words; it is large enough
// to hold the instruction segment (starting at InstructionBase) and the
// data segment without the two overlapping for any program this simulator
// is sized to run.
func (c *Config) MemoryWords() int {
	return defaultMemoryWords
}

// CacheConfigs resolves the three configured cache geometries in one call.
func (c *Config) CacheConfigs() (l1i, l1d, l2 cache.Config, err error) {
	if l1i, err = c.L1IConfig.resolve(); err != nil {
		return
	}
	if l1d, err = c.L1DConfig.resolve(); err != nil {
		return
	}
	l2, err = c.L2Config.resolve()
	return
}

// ResolvedLatencies returns the configured hierarchy latencies, defaulted
// where unset.
func (c *Config) ResolvedLatencies() hierarchy.Latencies {
	return c.Latencies.resolve()
}

// ResolvedOpLatencies maps the configured per-mnemonic EX latency overrides
// onto isa.Op keys, ignoring any name that doesn't resolve to a known op.
func (c *Config) ResolvedOpLatencies() map[isa.Op]int {
	out := map[isa.Op]int{}
	for name, cycles := range c.OpLatencies {
		if op, ok := isa.ByName(name); ok {
			out[op] = cycles
		}
	}
	return out
}
