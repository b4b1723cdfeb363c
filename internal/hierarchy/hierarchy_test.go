package hierarchy

import (
	"testing"

	"github.com/rcornwell/riscvsim/internal/cache"
	"github.com/rcornwell/riscvsim/internal/memory"
	"github.com/rcornwell/riscvsim/internal/scratchpad"
)

func newHierarchy(t *testing.T) *Hierarchy {
	t.Helper()
	mem := memory.New(1024)
	l2, err := cache.New(cache.Config{CacheSize: 256, BlockSize: 16, Associativity: 4, Policy: cache.PolicyLRU})
	if err != nil {
		t.Fatalf("l2: %v", err)
	}
	l1i, err := cache.New(cache.Config{CacheSize: 64, BlockSize: 16, Associativity: 2, Policy: cache.PolicyLRU})
	if err != nil {
		t.Fatalf("l1i: %v", err)
	}
	l1d, err := cache.New(cache.Config{CacheSize: 64, BlockSize: 16, Associativity: 2, Policy: cache.PolicyLRU})
	if err != nil {
		t.Fatalf("l1d: %v", err)
	}
	return &Hierarchy{
		CoreID: 0,
		L1I:    l1i,
		L1D:    l1d,
		SPM:    scratchpad.New(64),
		L2:     l2,
		Mem:    mem,
		Lat:    DefaultLatencies(),
	}
}

func TestReadDataMissThenHit(t *testing.T) {
	h := newHierarchy(t)
	_, stall, err := h.ReadData(32)
	if err != nil {
		t.Fatalf("ReadData miss: %v", err)
	}
	if want := h.Lat.L1Miss + h.Lat.L2Miss + h.Lat.Mem; stall != want {
		t.Errorf("first read stall = %d, want %d", stall, want)
	}
	_, stall, err = h.ReadData(32)
	if err != nil {
		t.Fatalf("ReadData hit: %v", err)
	}
	if stall != h.Lat.L1Hit {
		t.Errorf("second read stall = %d, want %d", stall, h.Lat.L1Hit)
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	h := newHierarchy(t)
	if _, err := h.WriteData(16, 0x55); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	v, _, err := h.ReadData(16)
	if err != nil {
		t.Fatalf("ReadData: %v", err)
	}
	if v != 0x55 {
		t.Errorf("got %d, want 0x55", v)
	}
}

func TestScratchpadAccess(t *testing.T) {
	h := newHierarchy(t)
	stall := h.WriteScratchpad(8, 99)
	if stall != h.Lat.Scratchpad {
		t.Errorf("scratchpad write stall = %d, want %d", stall, h.Lat.Scratchpad)
	}
	v, _ := h.ReadScratchpad(8)
	if v != 99 {
		t.Errorf("got %d, want 99", v)
	}
}

func TestFlushL1DirtyToL2(t *testing.T) {
	h := newHierarchy(t)
	if _, err := h.WriteData(0, 7); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	if _, err := h.FlushL1DirtyToL2(); err != nil {
		t.Fatalf("FlushL1DirtyToL2: %v", err)
	}
	if v, hit := h.L2.Lookup(0); !hit || v != 7 {
		t.Errorf("L2 lookup after flush = (%d,%v), want (7,true)", v, hit)
	}
	if _, hit := h.L1D.Lookup(0); hit {
		t.Errorf("expected L1-D reinitialized to empty after flush")
	}
}
