package core

import (
	"strings"
	"testing"

	"github.com/rcornwell/riscvsim/internal/asm"
	"github.com/rcornwell/riscvsim/internal/cache"
	"github.com/rcornwell/riscvsim/internal/coordinator"
	"github.com/rcornwell/riscvsim/internal/hierarchy"
	"github.com/rcornwell/riscvsim/internal/memory"
)

func buildCore(t *testing.T, src string, forwarding bool) (*Core, *coordinator.FetchCoordinator) {
	t.Helper()
	prog, err := asm.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	data := map[string]coordinator.DataBlock{}
	coord := coordinator.New(prog.Instructions, prog.Labels, data, 1, 10000)

	mem := memory.New(4096)
	l2, err := cache.New(cache.Config{CacheSize: 256, BlockSize: 16, Associativity: 4, Policy: cache.PolicyLRU})
	if err != nil {
		t.Fatalf("l2: %v", err)
	}
	cfg := cache.Config{CacheSize: 64, BlockSize: 16, Associativity: 2, Policy: cache.PolicyLRU}
	c, err := New(0, cfg, cfg, 64, l2, mem, hierarchy.DefaultLatencies(), coord, forwarding, nil, 320)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, coord
}

func runUntilDone(t *testing.T, c *Core, maxTicks int) int {
	t.Helper()
	ticks := 0
	for !c.Finished() {
		if ticks >= maxTicks {
			t.Fatalf("core did not finish within %d ticks", maxTicks)
		}
		if err := c.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
		ticks++
	}
	return ticks
}

func TestSequentialAddsNoForwarding(t *testing.T) {
	src := ".text\nli x1, 1\naddi x2, x1, 1\naddi x3, x2, 1\n"
	c, _ := buildCore(t, src, false)
	runUntilDone(t, c, 200)
	if c.Engine.Regs[1] != 1 || c.Engine.Regs[2] != 2 || c.Engine.Regs[3] != 3 {
		t.Errorf("regs = %v", c.Engine.Regs[:4])
	}
}

func TestForwardingResolvesLoadUse(t *testing.T) {
	src := ".data\nval: .word 7\n.text\nla x1, val\nlw x2, 0(x1)\naddi x3, x2, 1\n"
	c, _ := buildCore(t, src, true)
	// seed the data word the loader would normally place via the simulator.
	if err := c.Hier.Mem.WriteWord(0, 7); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	c.Engine.Coord.DataSegment["val"] = coordinator.DataBlock{BaseAddr: 0, Values: []int32{7}}
	runUntilDone(t, c, 200)
	if c.Engine.Regs[3] != 8 {
		t.Errorf("x3 = %d, want 8", c.Engine.Regs[3])
	}
}

// totalStalls runs src to completion on a freshly built core and returns
// the engine's final StallCount.
func totalStalls(t *testing.T, src string, forwarding bool) int {
	t.Helper()
	c, _ := buildCore(t, src, forwarding)
	runUntilDone(t, c, 200)
	return c.Engine.StallCount
}

// TestLoadUseHazardStallCount is scenario (c): li x1 100; sw x1 0(x0);
// lw x2 0(x0); addi x3 x2 1. Comparing that program's StallCount against an
// otherwise identical one where the addi doesn't depend on the load (same
// instructions, same addresses, same cache timing) cancels out every stall
// unrelated to the hazard itself, leaving only the load-use check's own
// added cost. Without forwarding, ID must keep waiting while the load sits
// in MEM, since the register file isn't updated until WB; with forwarding,
// the MEM/WB bypass resolves the dependency as soon as the load reaches
// MEM, so the hazard-specific cost is strictly smaller.
func TestLoadUseHazardStallCount(t *testing.T) {
	const dep = ".text\nli x1, 100\nsw x1, 0(x0)\nlw x2, 0(x0)\naddi x3, x2, 1\n"
	const indep = ".text\nli x1, 100\nsw x1, 0(x0)\nlw x2, 0(x0)\naddi x3, x0, 1\n"

	for _, forwarding := range []bool{true, false} {
		c, _ := buildCore(t, dep, forwarding)
		runUntilDone(t, c, 200)
		if c.Engine.Regs[3] != 101 {
			t.Errorf("forwarding=%v: x3 = %d, want 101", forwarding, c.Engine.Regs[3])
		}
	}

	fwdHazard := totalStalls(t, dep, true) - totalStalls(t, indep, true)
	if fwdHazard < 0 {
		t.Errorf("forwarding load-use hazard cost = %d stall cycles, want >= 0", fwdHazard)
	}

	noFwdHazard := totalStalls(t, dep, false) - totalStalls(t, indep, false)
	if noFwdHazard < 1 {
		t.Errorf("non-forwarding load-use hazard cost = %d stall cycles, want at least 1", noFwdHazard)
	}

	if fwdHazard >= noFwdHazard {
		t.Errorf("forwarding hazard cost %d should be strictly less than non-forwarding cost %d", fwdHazard, noFwdHazard)
	}
}

func TestControlHazardFlushesSpeculativeFetch(t *testing.T) {
	src := ".text\nli x1, 0\nj done\nli x1, 99\ndone:\naddi x2, x1, 1\n"
	c, _ := buildCore(t, src, false)
	runUntilDone(t, c, 200)
	if c.Engine.Regs[1] != 0 {
		t.Errorf("x1 = %d, want 0 (skipped instruction must not execute)", c.Engine.Regs[1])
	}
	if c.Engine.Regs[2] != 1 {
		t.Errorf("x2 = %d, want 1", c.Engine.Regs[2])
	}
	if c.Engine.PipelineFlushCount == 0 {
		t.Errorf("expected at least one recorded flush")
	}
}

func TestZeroRegisterIsAlwaysZero(t *testing.T) {
	src := ".text\naddi x0, x0, 5\naddi x1, x0, 3\n"
	c, _ := buildCore(t, src, false)
	runUntilDone(t, c, 200)
	if c.Engine.Regs[0] != 0 {
		t.Errorf("x0 = %d, want 0", c.Engine.Regs[0])
	}
	if c.Engine.Regs[1] != 3 {
		t.Errorf("x1 = %d, want 3", c.Engine.Regs[1])
	}
}
