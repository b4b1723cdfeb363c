package simulator

import (
	"strings"
	"testing"

	"github.com/rcornwell/riscvsim/internal/asm"
	"github.com/rcornwell/riscvsim/internal/config"
)

func build(t *testing.T, src string, numCores int, forwarding bool) *Simulator {
	t.Helper()
	prog, err := asm.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg, err := config.Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	cfg.NumCores = numCores
	cfg.TickBudget = 10000
	cfg.Forwarding = forwarding
	sim, err := New(prog, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func TestRunSingleCoreAccumulate(t *testing.T) {
	src := `
.text
li x1, 0
li x2, 1
loop:
addi x1, x1, 1
addi x2, x2, 0
bne x1, x3, loop
`
	sim := build(t, src, 1, true)
	sim.Cores[0].Engine.Regs[3] = 5
	res, err := sim.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Cores[0].Regs[1] != 5 {
		t.Errorf("x1 = %d, want 5", res.Cores[0].Regs[1])
	}
}

func TestRunFourCoresDistinctMemoryThenSync(t *testing.T) {
	src := `
.text
add x4, x31, x31
add x4, x4, x4
addi x2, x31, 100
sw x2, 0(x4)
sync
addi x3, x31, 1
`
	sim := build(t, src, 4, true)
	_, err := sim.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Every core's store must be visible to every other core after the
	// barrier: reading a peer's address goes through the reader's own,
	// still-empty L1-D to the shared L2, which only has the value if the
	// writer actually flushed its dirty L1-D line at the sync release.
	for _, reader := range sim.Cores {
		for _, writer := range sim.Cores {
			want := int32(100 + writer.ID)
			v, _, err := reader.Hier.ReadData(writer.ID * 4)
			if err != nil {
				t.Fatalf("core %d reading core %d's address: %v", reader.ID, writer.ID, err)
			}
			if v != want {
				t.Errorf("core %d read %d at core %d's address, want %d", reader.ID, v, writer.ID, want)
			}
		}
	}
}

func TestRunBubbleSort(t *testing.T) {
	src := `
.data
arr: .word 0x144 0x3 0x9 0x8 0x1 0x100
.text
la x1, arr
li x4, 5
outer:
li x5, 0
li x6, 5
li x7, 0
inner:
beq x5, x6, outerend
add x8, x1, x7
lw x10, 0(x8)
lw x11, 4(x8)
ble x10, x11, noswap
sw x11, 0(x8)
sw x10, 4(x8)
noswap:
addi x5, x5, 1
addi x7, x7, 4
j inner
outerend:
addi x4, x4, -1
bne x4, x0, outer
`
	prog, err := asm.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg, err := config.Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	cfg.NumCores = 1
	cfg.TickBudget = 200000
	cfg.Forwarding = true
	sim, err := New(prog, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []int32{0x1, 0x3, 0x8, 0x9, 0x100, 0x144}
	base := sim.Coord.DataSegment["arr"].BaseAddr
	for i, w := range want {
		v, _, err := sim.Cores[0].Hier.ReadData(base + i*4)
		if err != nil {
			t.Fatalf("ReadData(%d): %v", i, err)
		}
		if v != w {
			t.Errorf("arr[%d] = 0x%x, want 0x%x", i, v, w)
		}
	}
	if sim.Cores[0].Engine.InstExecuted == 0 {
		t.Error("expected InstExecuted > 0")
	}
}

func TestRunReportsTimeoutOnUnboundedLoop(t *testing.T) {
	src := ".text\nspin:\nj spin\n"
	prog, err := asm.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg, err := config.Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	cfg.NumCores = 1
	cfg.TickBudget = 50
	sim, err := New(prog, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := sim.Run(); err == nil {
		t.Fatal("expected timeout error")
	}
}
